package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"ArticleHunter/internal/config"
	"ArticleHunter/internal/connector"
	"ArticleHunter/internal/domain"
	"ArticleHunter/internal/infrastructure/breaker"
	"ArticleHunter/internal/infrastructure/httpserver"
	"ArticleHunter/internal/infrastructure/parser"
	"ArticleHunter/internal/infrastructure/scheduler"
	"ArticleHunter/internal/infrastructure/storage"
	"ArticleHunter/internal/infrastructure/telegram"
	"ArticleHunter/internal/infrastructure/websocket"
	"ArticleHunter/internal/logging"
	"ArticleHunter/internal/observability"
	"ArticleHunter/internal/ports"
	"ArticleHunter/internal/sourcelist"
	"ArticleHunter/internal/usecase"
	"ArticleHunter/internal/watchlist"
)

const (
	metricsNamespace = "articlehunter"
	stopTimeout      = 15 * time.Second
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	hunter    *usecase.Hunter
	hub       *websocket.Hub
	scheduler *usecase.Scheduler
	handler   http.Handler
	db        *sql.DB
}

// New validates cfg and builds every component. Only the optional Postgres archive performs I/O
// here.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	metrics := observability.NewCollector(metricsNamespace)
	keywords := watchlist.New(cfg.Keywords)
	feeds := sourcelist.New(cfg.Feeds)

	connectors, err := buildConnectors(cfg, feeds, baseLogger)
	if err != nil {
		return nil, err
	}

	a := &Application{cfg: cfg, logger: baseLogger.With("component", "app")}

	var archive ports.ArticleArchive
	if cfg.Database.DSN != "" {
		db, err := storage.OpenPostgres(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		pg := storage.NewPostgresArchive(db)
		if err := pg.Ensure(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		a.db = db
		archive = pg
	}

	var digest ports.DigestNotifier
	if cfg.Notifications.Telegram.Enabled() {
		digest = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	// The hub asks the hunter for join snapshots and the hunter broadcasts through the hub.
	var hunter *usecase.Hunter
	a.hub = websocket.NewHub(func() []domain.Event { return hunter.Snapshot() }, metrics, baseLogger)
	hunter = usecase.NewHunter(usecase.HunterDeps{
		Connectors:  connectors,
		Watchlist:   keywords,
		Sources:     feeds,
		Broadcaster: a.hub,
		Archive:     archive,
		Digest:      digest,
		Metrics:     metrics,
		PollTimeout: cfg.Scheduler.PollTimeout,
		Logger:      baseLogger.With("component", "hunter"),
	})
	a.hunter = hunter

	a.scheduler = usecase.NewScheduler(
		scheduler.NewIntervalScheduler(cfg.Interval()),
		hunter,
		baseLogger.With("component", "scheduler"),
	)

	a.handler = httpserver.NewRouter(httpserver.RouterDeps{
		State:          hunter,
		WebSocket:      websocket.NewServer(a.hub, hunter, baseLogger).HandleWebSocket,
		Metrics:        metrics.Handler(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         baseLogger.With("component", "http"),
	})

	return a, nil
}

func buildConnectors(cfg config.Config, feeds parser.FeedLister, logger *slog.Logger) ([]ports.Connector, error) {
	client := &http.Client{Timeout: cfg.Scheduler.PollTimeout}

	registry := connector.NewRegistry()
	registry.Register(parser.KindStackExchange,
		parser.StackExchangeFactory(client, logger.With("component", "connector.stackexchange")))
	registry.Register(parser.KindRSS,
		parser.FeedFactory(feeds, client, logger.With("component", "connector.rss")))

	built, err := registry.Build(cfg.ConnectorSpecs())
	if err != nil {
		return nil, err
	}

	settings := breaker.Settings{ConsecutiveFailures: cfg.Breaker.Failures, OpenFor: cfg.Breaker.OpenFor}
	out := make([]ports.Connector, 0, len(built))
	for _, conn := range built {
		out = append(out, breaker.Wrap(conn, settings, logger.With("component", "breaker")))
	}
	return out, nil
}

// Handler exposes the HTTP routes, mainly for tests.
func (a *Application) Handler() http.Handler {
	return a.handler
}

// Run serves HTTP and runs poll cycles until ctx is cancelled or the listener fails. The hub
// outlives both so late broadcasts still find it.
func (a *Application) Run(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(context.Background())
	go a.hub.Run(hubCtx)
	defer func() {
		stopHub()
		<-a.hub.Done()
		if a.db != nil {
			_ = a.db.Close()
		}
	}()

	server := httpserver.New(a.cfg.Server.Addr, a.handler, a.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx)
	})
	g.Go(func() error {
		if err := a.scheduler.Start(gctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		<-gctx.Done()

		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		return a.scheduler.Stop(stopCtx)
	})

	a.logger.Info("article hunter started",
		"addr", a.cfg.Server.Addr,
		"interval", a.cfg.Interval(),
		"keywords", a.cfg.Keywords,
	)

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.logger.Info("article hunter stopped")
	return nil
}
