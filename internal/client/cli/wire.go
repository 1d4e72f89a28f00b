package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aaajiao/vocab-tracker-sub000/internal/client/ai"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/audio"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/config"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/connectivity"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/localdb"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/models"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/remote"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/repositories/audioclips"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/repositories/pending"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/services"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/speech"
	"github.com/aaajiao/vocab-tracker-sub000/internal/logging"
	"github.com/aaajiao/vocab-tracker-sub000/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// onlineFunc adapts a func to services.Connectivity. The entity services
// are built before the monitor that answers for them.
type onlineFunc func() bool

func (f onlineFunc) IsOnline() bool { return f() }

// Build opens the local database and the remote store and wires every
// service into an App reading from in and printing to out. Without a remote
// DSN the client runs offline only.
func Build(ctx context.Context, cfg *config.Config, logger logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	db, err := localdb.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open local database: %w", err)
	}
	closers := []func() error{db.Close}
	fail := func(err error) (*App, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		return nil, err
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	var (
		wordsRemote remote.Collection[models.Word]
		sentsRemote remote.Collection[models.Sentence]
		prober      connectivity.Prober
		legacy      LegacyImporter
	)
	settings := services.NewSettingsService(db, cfg.APIKey, []byte(cfg.JWTSecret))
	if cfg.RemoteDSN != "" {
		store, err := remote.Open(cfg.RemoteDSN)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, store.Close)
		wordsRemote, sentsRemote, prober = store.Words, store.Sentences, store
		legacy = services.NewLegacyImporter(db, store.Words, logger)
	} else {
		logger.Warn(ctx, "no remote store configured, running offline only")
	}

	audioOpts := audio.Options{SessionCapacity: cfg.AudioCacheCapacity}
	if cfg.S3.Bucket != "" {
		shared, err := audio.NewS3Store(ctx, audio.S3Config{
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
		})
		if err != nil {
			return fail(fmt.Errorf("shared audio store: %w", err))
		}
		audioOpts.Shared = shared
	}
	clips := audio.NewCache(audioclips.NewSQLiteRepository(db), logger, m, audioOpts)
	closers = append(closers, clips.Close)

	var monitor *connectivity.Monitor
	net := onlineFunc(func() bool { return monitor.IsOnline() })

	words, err := services.NewWordService(db, wordsRemote, net, clips, logger)
	if err != nil {
		return fail(err)
	}
	sentences, err := services.NewSentenceService(db, sentsRemote, net, clips, logger)
	if err != nil {
		return fail(err)
	}
	syncSvc := services.NewSyncService(pending.NewSQLiteRepository(db), cfg.MaxRetries, logger, m, words, sentences)

	speaker, err := buildSpeech(cfg, clips, settings, logger)
	if err != nil {
		return fail(err)
	}

	var app *App
	monitor = connectivity.NewMonitor(prober, syncSvc, settings, logger, m, connectivity.Options{
		ProbeInterval:     cfg.OnlineCheckInterval,
		SyncCheckInterval: cfg.SyncCheckInterval,
		OnStateChange:     func(s connectivity.State) { app.onStateChange(s) },
		OnSyncDone:        func(res services.SyncResult, err error) { app.onSyncDone(res, err) },
	})

	app = NewApp(Deps{
		Words:     words,
		Sentences: sentences,
		Sync:      syncSvc,
		Settings:  settings,
		Legacy:    legacy,
		Net:       monitor,
		AI:        ai.NewClient(ai.Config{BaseURL: cfg.AIBaseURL, Model: cfg.AIModel}, settings, logger),
		Speech:    speaker,
		Audio:     clips,
		Logger:    logger,
		In:        in,
		Out:       out,
	})
	app.monitor = monitor
	app.registry = registry
	app.metricsAddr = cfg.MetricsAddr
	app.closers = closers
	return app, nil
}

func buildSpeech(cfg *config.Config, clips *audio.Cache, creds speech.CredentialSource, logger logging.Logger) (*speech.Service, error) {
	player, err := speech.NewCommand(cfg.PlayerCommand)
	if err != nil {
		return nil, fmt.Errorf("player command: %w", err)
	}

	// A missing fallback command only disables the last resort.
	var fallback speech.Fallback
	if cfg.FallbackCommand != "" {
		cmd, err := speech.NewCommand(cfg.FallbackCommand)
		if err != nil {
			return nil, fmt.Errorf("fallback command: %w", err)
		}
		fallback = cmd
	}

	synth := speech.NewOpenAISynthesizer(speech.OpenAIConfig{
		BaseURL: cfg.AIBaseURL,
		Model:   cfg.TTSModel,
		Voice:   cfg.TTSVoice,
	}, creds)
	return speech.NewService(clips, synth, player, fallback, logger, speech.Options{}), nil
}

// Run restores the session and serves the REPL until the user exits or ctx
// is done. The connectivity monitor and the metrics endpoint run alongside.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	a.runCtx = gctx
	// settle connectivity before the first load so it can reach the remote
	if a.monitor != nil {
		a.monitor.Probe(gctx)
		g.Go(func() error { return a.monitor.Run(gctx) })
	}
	if a.metricsAddr != "" && a.registry != nil {
		g.Go(func() error { return metrics.Serve(gctx, a.metricsAddr, a.registry) })
	}
	g.Go(func() error {
		defer cancel()
		a.Start(gctx)
		runREPL(gctx, a, a.getStatus, a.reader)
		return nil
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close releases the database handles and the audio temp files.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
