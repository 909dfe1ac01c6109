package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/deusflow/albumfeed/internal/config"
	"github.com/deusflow/albumfeed/internal/history"
	"github.com/deusflow/albumfeed/internal/llm"
	"github.com/deusflow/albumfeed/internal/metrics"
	"github.com/deusflow/albumfeed/internal/recommend"
	"github.com/deusflow/albumfeed/internal/storage"
	"github.com/deusflow/albumfeed/internal/telegram"
)

// Notifier announces a published entry somewhere outside the feed.
type Notifier interface {
	AnnounceAlbum(ctx context.Context, title, link, description string) error
}

// Result describes the outcome of one run.
type Result struct {
	Recommendation *recommend.Recommendation
	Entry          storage.Entry
	Published      bool // false on dry runs
}

type App struct {
	cfg      *config.Config
	client   llm.Client
	store    *storage.FeedStore
	notifier Notifier
	metrics  *metrics.Metrics
	log      *slog.Logger
	loc      *time.Location
	now      func() time.Time
}

type Option func(*App)

// WithClient replaces the model client built from the configuration.
func WithClient(c llm.Client) Option {
	return func(a *App) { a.client = c }
}

func WithNotifier(n Notifier) Option {
	return func(a *App) { a.notifier = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// New validates cfg and wires the run dependencies. Nothing is sent over the
// network here; a missing credential is reported before any client exists.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:     cfg,
		metrics: metrics.New(),
		log:     slog.Default(),
		loc:     loc,
		now:     time.Now,
		store: storage.NewFeedStore(cfg.FeedPath, storage.Channel{
			Title:       cfg.Channel.Title,
			Link:        cfg.Channel.Link,
			Description: cfg.Channel.Description,
		}),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.client == nil {
		client, err := llm.New(ctx, llm.Config{
			Provider:           cfg.Provider,
			APIKey:             cfg.APIKey,
			BaseURL:            cfg.BaseURL,
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		})
		if err != nil {
			return nil, err
		}
		a.client = client
	}

	if a.notifier == nil && cfg.TelegramEnabled() {
		a.notifier = telegram.NewClient(cfg.TelegramToken, cfg.TelegramChatID)
	}

	return a, nil
}

// Close releases the model client.
func (a *App) Close() error {
	if c, ok := a.client.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// Run extracts recent history, generates a recommendation and prepends it
// to the feed.
func (a *App) Run(ctx context.Context) (*Result, error) {
	start := a.now()
	defer func() {
		a.metrics.RecordProcessingTime(a.now().Sub(start))
		a.log.Info("run finished", a.metrics.LogArgs()...)
	}()

	res, err := a.run(ctx, start)
	if err != nil {
		a.metrics.SetError(err.Error())
		return nil, err
	}
	return res, nil
}

func (a *App) run(ctx context.Context, now time.Time) (*Result, error) {
	recent, err := history.RecentTitles(a.store.Path(), a.cfg.DuplicateWindow(), now, a.loc)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	a.log.Info("loaded recent history", "feed", a.store.Path(), "titles", len(recent), "window_days", a.cfg.DuplicateWindowDays)

	gen := recommend.NewGenerator(a.client, recommend.Options{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
		TopP:        a.cfg.TopP,
	}, a.log, a.metrics)

	rec, err := gen.Generate(ctx, recent)
	if err != nil {
		return nil, err
	}

	entry := NewEntry(rec, a.now(), a.loc)
	res := &Result{Recommendation: rec, Entry: entry}

	if a.cfg.DryRun {
		a.log.Info("dry run, feed left untouched", "title", entry.Title)
		return res, nil
	}

	if err := a.store.Prepend(entry); err != nil {
		return nil, fmt.Errorf("failed to write feed entry: %w", err)
	}
	a.metrics.IncrementEntriesPublished()
	res.Published = true
	a.log.Info("feed entry published", "title", entry.Title, "feed", a.store.Path())

	if a.notifier != nil {
		if err := a.notifier.AnnounceAlbum(ctx, entry.Title, entry.Link, rec.Description); err != nil {
			a.log.Warn("announcement failed", "error", err)
		}
	}

	return res, nil
}

// NewEntry builds the feed item for an accepted recommendation.
func NewEntry(rec *recommend.Recommendation, at time.Time, loc *time.Location) storage.Entry {
	return storage.Entry{
		Title:       rec.Title(),
		Link:        rec.Link,
		GUID:        rec.Link,
		Description: fmt.Sprintf("Release Date: %s\nWhy it’s exceptional: %s", rec.ReleaseDate, rec.Description),
		PubDate:     storage.FormatPubDate(at, loc),
	}
}

// Run is the one-shot entry point used by the CLI.
func Run(ctx context.Context, cfg *config.Config, opts ...Option) (*Result, error) {
	a, err := New(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.log.Warn("failed to close model client", "error", err)
		}
	}()

	return a.Run(ctx)
}
