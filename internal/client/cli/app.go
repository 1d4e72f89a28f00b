package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aaajiao/vocab-tracker-sub000/internal/client/ai"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/connectivity"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/repositories/audioclips"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/services"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/speech"
	"github.com/aaajiao/vocab-tracker-sub000/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
)

// Network is the connectivity view the commands need.
type Network interface {
	IsOnline() bool
	State() connectivity.State
	TriggerSync(ctx context.Context) bool
}

// Generator produces word content.
type Generator interface {
	GenerateWord(ctx context.Context, word, language string) (ai.WordContent, error)
	DetectAndGenerate(ctx context.Context, word string) (ai.DetectedWord, error)
	RegenerateExample(ctx context.Context, word, language string) (ai.ExampleContent, error)
}

type Speaker interface {
	Speak(ctx context.Context, text, language string) (speech.Source, error)
}

type AudioStore interface {
	Stats(ctx context.Context) (audioclips.Stats, error)
	Clear(ctx context.Context) error
}

type LegacyImporter interface {
	Run(ctx context.Context, owner string) (int, error)
}

// Deps are the collaborators of an App.
type Deps struct {
	Words     *services.WordService
	Sentences *services.SentenceService
	Sync      services.SyncService
	Settings  services.SettingsService
	Legacy    LegacyImporter
	Net       Network
	AI        Generator
	Speech    Speaker
	Audio     AudioStore
	Logger    logging.Logger

	In  io.Reader
	Out io.Writer
}

// App is the interactive client. It is driven by one REPL goroutine; the
// connectivity monitor only reports back through the print helpers.
type App struct {
	words     *services.WordService
	sentences *services.SentenceService
	sync      services.SyncService
	settings  services.SettingsService
	legacy    LegacyImporter
	net       Network
	ai        Generator
	speech    Speaker
	audio     AudioStore
	logger    logging.Logger

	reader *bufio.Reader
	out    io.Writer
	now    func() time.Time

	owner string
	// undo restores the most recently deleted record.
	undo func(ctx context.Context) (string, error)

	// runCtx is the context of Run, used by monitor callbacks.
	runCtx context.Context

	// Set by Build.
	monitor     *connectivity.Monitor
	registry    *prometheus.Registry
	metricsAddr string
	closers     []func() error
}

func NewApp(d Deps) *App {
	return &App{
		words:     d.Words,
		sentences: d.Sentences,
		sync:      d.Sync,
		settings:  d.Settings,
		legacy:    d.Legacy,
		net:       d.Net,
		ai:        d.AI,
		speech:    d.Speech,
		audio:     d.Audio,
		logger:    d.Logger,
		reader:    bufio.NewReader(d.In),
		out:       d.Out,
		now:       time.Now,
	}
}

func (a *App) isLoggedIn() bool { return a.owner != "" }

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format+"\n", args...)
}

func (a *App) getStatus() string {
	parts := make([]string, 0, 3)
	if a.owner != "" {
		parts = append(parts, a.owner)
	}
	parts = append(parts, strings.ToLower(string(a.net.State())))
	if n, err := a.sync.Count(context.Background()); err == nil && n > 0 {
		parts = append(parts, fmt.Sprintf("%d pending", n))
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Start restores a stored session and loads the cached views.
func (a *App) Start(ctx context.Context) {
	owner, err := a.settings.OwnerID(ctx)
	if err != nil {
		a.printf("Not signed in. Use 'login' to sign in.")
		return
	}
	a.owner = owner
	a.afterSignIn(ctx)
}

func (a *App) afterSignIn(ctx context.Context) {
	if a.net.IsOnline() && a.legacy != nil {
		n, err := a.legacy.Run(ctx, a.owner)
		if err != nil {
			a.printf("Legacy import failed: %v", err)
		} else if n > 0 {
			a.printf("Imported %d words from the previous version.", n)
		}
	}
	a.reload(ctx)
}

func (a *App) reload(ctx context.Context) {
	if err := a.words.Load(ctx, a.owner); err != nil {
		a.printf("Could not refresh words, showing cached copy: %v", err)
	}
	if err := a.sentences.Load(ctx, a.owner); err != nil {
		a.printf("Could not refresh sentences, showing cached copy: %v", err)
	}
}

// onStateChange and onSyncDone are the monitor callbacks. Coming back
// online refreshes both views from the remote store.
func (a *App) onStateChange(s connectivity.State) {
	printlnFn(fmt.Sprintf("Switched to %s mode", strings.ToLower(string(s))))
	if s == connectivity.StateOnline {
		a.refresh(a.baseCtx())
	}
}

// refresh reloads the views for the stored session. It runs on the monitor
// goroutine, so problems are logged rather than printed.
func (a *App) refresh(ctx context.Context) {
	owner, err := a.settings.OwnerID(ctx)
	if err != nil {
		return
	}
	if err := a.words.Load(ctx, owner); err != nil {
		a.logger.Warn(ctx, "refresh words failed", "error", err)
	}
	if err := a.sentences.Load(ctx, owner); err != nil {
		a.logger.Warn(ctx, "refresh sentences failed", "error", err)
	}
}

func (a *App) baseCtx() context.Context {
	if a.runCtx != nil {
		return a.runCtx
	}
	return context.Background()
}

func (a *App) onSyncDone(res services.SyncResult, err error) {
	if err != nil {
		printlnFn("Sync failed:", err)
		return
	}
	if res.Synced == 0 && res.Failed == 0 {
		return
	}
	printlnFn(fmt.Sprintf("Synced %d, failed %d", res.Synced, res.Failed))
}
