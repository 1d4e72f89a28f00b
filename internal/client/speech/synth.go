// Package speech pronounces words: cached audio first, then the TTS
// endpoint, then a local speech command.
package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultModel = "tts-1"
	DefaultVoice = "alloy"
)

// Synthesizer turns text into audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
}

// CredentialSource yields the API key for each request.
type CredentialSource interface {
	APIKey(ctx context.Context) (string, error)
}

type OpenAIConfig struct {
	BaseURL string
	Model   string
	Voice   string
}

// OpenAISynthesizer calls an OpenAI-compatible /audio/speech endpoint.
type OpenAISynthesizer struct {
	cfg   OpenAIConfig
	creds CredentialSource
}

func NewOpenAISynthesizer(cfg OpenAIConfig, creds CredentialSource) *OpenAISynthesizer {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Voice == "" {
		cfg.Voice = DefaultVoice
	}
	return &OpenAISynthesizer{cfg: cfg, creds: creds}
}

func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text, _ string) ([]byte, error) {
	key, err := s.creds.APIKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errPermanent, err)
	}
	conf := openai.DefaultConfig(key)
	if s.cfg.BaseURL != "" {
		conf.BaseURL = strings.TrimSuffix(s.cfg.BaseURL, "/")
	}

	resp, err := openai.NewClientWithConfig(conf).CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.cfg.Model),
		Input:          text,
		Voice:          openai.SpeechVoice(s.cfg.Voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech: %w", err)
	}
	return data, nil
}

// retryable reports whether a synthesis failure is worth another attempt:
// server errors, throttling and transport failures are; other statuses and
// missing credentials are not.
func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	return !errors.Is(err, errPermanent)
}

func retryableStatus(code int) bool {
	return code >= http.StatusInternalServerError || code == http.StatusTooManyRequests
}
