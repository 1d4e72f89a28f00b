package speech

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticKey struct {
	key string
	err error
}

func (s staticKey) APIKey(context.Context) (string, error) { return s.key, s.err }

func TestOpenAISynthesizer(t *testing.T) {
	var status = http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/speech", r.URL.Path)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hola", body["input"])
		assert.Equal(t, DefaultVoice, body["voice"])
		assert.Equal(t, DefaultModel, body["model"])

		if status != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"busy","type":"server_error"}}`))
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3audio"))
	}))
	defer srv.Close()

	s := NewOpenAISynthesizer(OpenAIConfig{BaseURL: srv.URL + "/v1"}, staticKey{key: "sk"})

	data, err := s.Synthesize(context.Background(), "hola", "es")
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3audio"), data)

	status = http.StatusServiceUnavailable
	_, err = s.Synthesize(context.Background(), "hola", "es")
	require.Error(t, err)
	assert.True(t, retryable(err))

	status = http.StatusBadRequest
	_, err = s.Synthesize(context.Background(), "hola", "es")
	require.Error(t, err)
	assert.False(t, retryable(err))
}

func TestOpenAISynthesizer_MissingKeyIsPermanent(t *testing.T) {
	s := NewOpenAISynthesizer(OpenAIConfig{}, staticKey{err: errors.New("no key")})
	_, err := s.Synthesize(context.Background(), "x", "en")
	require.ErrorContains(t, err, "no key")
	assert.False(t, retryable(err))
}
