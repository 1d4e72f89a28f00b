package speech

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aaajiao/vocab-tracker-sub000/internal/client/audio"
	"github.com/aaajiao/vocab-tracker-sub000/internal/logging"
	"github.com/sethvargo/go-retry"
)

const (
	DefaultAttemptTimeout = 10 * time.Second
	DefaultBackoffBase    = 500 * time.Millisecond
	DefaultMaxRetries     = 3
)

var errPermanent = errors.New("permanent synthesis failure")

// Source tells where the spoken audio came from.
type Source string

const (
	SourceCache    Source = "cache"
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
)

// AudioCache is the part of audio.Cache speech uses.
type AudioCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Put(ctx context.Context, key string, data []byte) error
	Handle(ctx context.Context, key string) (string, bool, error)
}

// Player plays an audio file.
type Player interface {
	Play(ctx context.Context, path string) error
}

// Fallback speaks text without the remote endpoint.
type Fallback interface {
	Say(ctx context.Context, text, language string) error
}

type Options struct {
	AttemptTimeout time.Duration
	BackoffBase    time.Duration
	MaxRetries     uint64
}

type Service struct {
	cache    AudioCache
	synth    Synthesizer
	player   Player
	fallback Fallback
	logger   logging.Logger
	opts     Options
}

func NewService(cache AudioCache, synth Synthesizer, player Player, fallback Fallback, logger logging.Logger, opts Options) *Service {
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = DefaultAttemptTimeout
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = DefaultBackoffBase
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	return &Service{
		cache:    cache,
		synth:    synth,
		player:   player,
		fallback: fallback,
		logger:   logger.With("component", "speech"),
		opts:     opts,
	}
}

// Speak pronounces text. Remote failures and playback failures both end in
// the fallback; only a failing fallback is an error.
func (s *Service) Speak(ctx context.Context, text, language string) (Source, error) {
	key := audio.Key(language, text)

	source := SourceCache
	if _, ok := s.cache.Get(ctx, key); !ok {
		data, err := s.fetch(ctx, text, language)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			s.logger.Warn(ctx, "speech synthesis failed, using fallback", "key", key, "error", err)
			return SourceFallback, s.say(ctx, text, language)
		}
		if err := s.cache.Put(ctx, key, data); err != nil {
			s.logger.Warn(ctx, "failed to cache audio", "key", key, "error", err)
		}
		source = SourceRemote
	}

	if err := s.play(ctx, key); err != nil {
		s.logger.Warn(ctx, "playback failed, using fallback", "key", key, "error", err)
		return SourceFallback, s.say(ctx, text, language)
	}
	return source, nil
}

// fetch calls the synthesizer with a per-attempt timeout and exponential
// backoff between retryable failures.
func (s *Service) fetch(ctx context.Context, text, language string) ([]byte, error) {
	var data []byte
	b := retry.WithMaxRetries(s.opts.MaxRetries, retry.NewExponential(s.opts.BackoffBase))

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		actx, cancel := context.WithTimeout(ctx, s.opts.AttemptTimeout)
		defer cancel()

		out, err := s.synth.Synthesize(actx, text, language)
		if err != nil {
			if ctx.Err() == nil && retryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		if len(out) == 0 {
			return fmt.Errorf("%w: empty audio", errPermanent)
		}
		data = out
		return nil
	})
	return data, err
}

func (s *Service) play(ctx context.Context, key string) error {
	if s.player == nil {
		return nil
	}
	path, ok, err := s.cache.Handle(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("audio for %q vanished before playback", key)
	}
	return s.player.Play(ctx, path)
}

func (s *Service) say(ctx context.Context, text, language string) error {
	if s.fallback == nil {
		return errors.New("no speech fallback configured")
	}
	return s.fallback.Say(ctx, text, language)
}
