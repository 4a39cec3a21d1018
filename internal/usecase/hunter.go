package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ArticleHunter/internal/domain"
	"ArticleHunter/internal/observability"
	"ArticleHunter/internal/ports"
	"ArticleHunter/internal/sourcelist"
	"ArticleHunter/internal/store"
	"ArticleHunter/internal/watchlist"
)

const defaultPollTimeout = time.Minute

// HunterDeps wires state and driven adapters into the service.
type HunterDeps struct {
	Connectors  []ports.Connector
	Watchlist   *watchlist.Watchlist
	Sources     *sourcelist.List
	Broadcaster ports.Broadcaster
	Archive     ports.ArticleArchive
	Digest      ports.DigestNotifier
	Metrics     *observability.Collector
	PollTimeout time.Duration
	Logger      *slog.Logger
}

// Hunter owns the watchlist, the feed definitions and one canonical store per connector. It is
// the only entry point that mutates them, and every mutation is followed by the broadcast the
// push channel contract requires.
type Hunter struct {
	connectors  []ports.Connector
	watchlist   *watchlist.Watchlist
	sources     *sourcelist.List
	stores      *store.Set
	broadcaster ports.Broadcaster
	archive     ports.ArticleArchive
	digest      ports.DigestNotifier
	metrics     *observability.Collector
	pollTimeout time.Duration
	logger      *slog.Logger

	// Each mutex covers mutate, snapshot and enqueue, so broadcasts leave in mutation order.
	keywordMu  sync.Mutex
	sourceMu   sync.Mutex
	articlesMu sync.Mutex

	guards map[string]*sync.Mutex
}

// NewHunter creates empty stores for every connector.
func NewHunter(deps HunterDeps) *Hunter {
	h := &Hunter{
		connectors:  deps.Connectors,
		watchlist:   deps.Watchlist,
		sources:     deps.Sources,
		broadcaster: deps.Broadcaster,
		archive:     deps.Archive,
		digest:      deps.Digest,
		metrics:     deps.Metrics,
		pollTimeout: deps.PollTimeout,
		logger:      deps.Logger,
		guards:      make(map[string]*sync.Mutex, len(deps.Connectors)),
	}
	if h.watchlist == nil {
		h.watchlist = watchlist.New(nil)
	}
	if h.sources == nil {
		h.sources = sourcelist.New(nil)
	}
	if h.pollTimeout <= 0 {
		h.pollTimeout = defaultPollTimeout
	}
	if h.logger == nil {
		h.logger = slog.New(slog.DiscardHandler)
	}

	names := make([]string, 0, len(deps.Connectors))
	for _, conn := range deps.Connectors {
		names = append(names, conn.Name())
		if _, ok := h.guards[conn.Name()]; !ok {
			h.guards[conn.Name()] = &sync.Mutex{}
		}
	}
	h.stores = store.NewSet(names...)
	return h
}

// AddKeyword appends a keyword. Adding an existing keyword is a silent no-op; the list is
// broadcast either way. Only empty input is rejected, and then nothing is broadcast.
func (h *Hunter) AddKeyword(ctx context.Context, raw string) (bool, error) {
	h.keywordMu.Lock()
	defer h.keywordMu.Unlock()

	added, err := h.watchlist.Add(raw)
	if err != nil {
		return false, err
	}
	h.logger.Info("keyword add", "keyword", raw, "added", added)
	h.broadcast(ctx, domain.EventKeywordList, domain.Strings(h.watchlist.List()))
	return added, nil
}

// EditKeyword replaces the keyword at index without a duplicate check.
func (h *Hunter) EditKeyword(ctx context.Context, index int, raw string) error {
	h.keywordMu.Lock()
	defer h.keywordMu.Unlock()

	if err := h.watchlist.Edit(index, raw); err != nil {
		return err
	}
	h.logger.Info("keyword edit", "index", index, "keyword", raw)
	h.broadcast(ctx, domain.EventKeywordList, domain.Strings(h.watchlist.List()))
	return nil
}

// DeleteKeyword removes the keyword at index.
func (h *Hunter) DeleteKeyword(ctx context.Context, index int) error {
	h.keywordMu.Lock()
	defer h.keywordMu.Unlock()

	if err := h.watchlist.Delete(index); err != nil {
		return err
	}
	h.logger.Info("keyword delete", "index", index)
	h.broadcast(ctx, domain.EventKeywordList, domain.Strings(h.watchlist.List()))
	return nil
}

// AddSource appends a feed definition. A feed URL that is already listed is a silent no-op.
func (h *Hunter) AddSource(ctx context.Context, def domain.SourceDefinition) (bool, error) {
	h.sourceMu.Lock()
	defer h.sourceMu.Unlock()

	added, err := h.sources.Add(def)
	if err != nil {
		return false, err
	}
	h.logger.Info("source add", "title", def.Title, "url", def.Source, "added", added)
	h.broadcast(ctx, domain.EventSourceList, h.sources.List())
	return added, nil
}

// DeleteSource removes the feed definition at index. Articles already accepted from that feed
// stay in their store.
func (h *Hunter) DeleteSource(ctx context.Context, index int) error {
	h.sourceMu.Lock()
	defer h.sourceMu.Unlock()

	if err := h.sources.Delete(index); err != nil {
		return err
	}
	h.logger.Info("source delete", "index", index)
	h.broadcast(ctx, domain.EventSourceList, h.sources.List())
	return nil
}

func (h *Hunter) Keywords() []domain.Keyword {
	return h.watchlist.List()
}

func (h *Hunter) SourceDefinitions() []domain.SourceDefinition {
	return h.sources.List()
}

func (h *Hunter) Articles() map[string][]domain.MatchedArticle {
	return h.stores.Snapshot()
}

// Snapshot is what a newly connected subscriber receives, regardless of growth.
func (h *Hunter) Snapshot() []domain.Event {
	return []domain.Event{
		{Name: domain.EventArticles, Data: h.stores.Snapshot()},
		{Name: domain.EventKeywordList, Data: domain.Strings(h.watchlist.List())},
		{Name: domain.EventSourceList, Data: h.sources.List()},
	}
}

func (h *Hunter) broadcast(ctx context.Context, event string, payload any) {
	if h.broadcaster == nil {
		return
	}
	if err := h.broadcaster.Broadcast(ctx, event, payload); err != nil {
		h.logger.Warn("broadcast failed", "event", event, "error", err)
		return
	}
	h.metrics.ObserveBroadcast(event)
}
