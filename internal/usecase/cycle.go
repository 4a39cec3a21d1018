package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"ArticleHunter/internal/domain"
	"ArticleHunter/internal/matcher"
	"ArticleHunter/internal/ports"
	"ArticleHunter/internal/store"
)

// SourceReport describes what one connector contributed to a cycle.
type SourceReport struct {
	Source  string
	Polled  int
	Matched int
	Added   int
	Size    int
	Skipped bool
	Err     error
}

// CycleReport collects the per-source results in connector order.
type CycleReport struct {
	Started time.Time
	Sources []SourceReport
}

// Grown reports whether any store accepted at least one article.
func (r CycleReport) Grown() bool {
	for _, s := range r.Sources {
		if s.Added > 0 {
			return true
		}
	}
	return false
}

type pollResult struct {
	items []domain.RawItem
	err   error
}

// RunCycle polls every connector concurrently with the watchlist as it is right now, matches,
// merges and broadcasts each store that grew. A failing connector leaves its store untouched
// and does not affect the others.
func (h *Hunter) RunCycle(ctx context.Context) CycleReport {
	report := CycleReport{
		Started: time.Now(),
		Sources: make([]SourceReport, len(h.connectors)),
	}
	h.metrics.CycleStarted()

	keywords := h.watchlist.List()
	var g errgroup.Group
	for i, conn := range h.connectors {
		g.Go(func() error {
			report.Sources[i] = h.runSource(ctx, conn, keywords)
			return nil
		})
	}
	_ = g.Wait()

	return report
}

func (h *Hunter) runSource(ctx context.Context, conn ports.Connector, keywords []domain.Keyword) SourceReport {
	name := conn.Name()
	report := SourceReport{Source: name}

	guard := h.guards[name]
	if !guard.TryLock() {
		h.logger.Warn("previous poll still running, skipping", "source", name)
		h.metrics.ObservePoll(name, "skipped", 0)
		report.Skipped = true
		return report
	}
	release := true
	defer func() {
		if release {
			guard.Unlock()
		}
	}()

	started := time.Now()
	pollCtx, cancel := context.WithTimeout(ctx, h.pollTimeout)
	defer cancel()

	done := make(chan pollResult, 1)
	go func() {
		items, err := conn.Poll(pollCtx, keywords)
		done <- pollResult{items: items, err: err}
	}()

	var res pollResult
	select {
	case res = <-done:
	case <-pollCtx.Done():
		// The source stays locked until the abandoned poll returns.
		release = false
		go func() {
			<-done
			guard.Unlock()
		}()
		res = pollResult{err: fmt.Errorf("poll abandoned: %w", pollCtx.Err())}
	}

	if res.err != nil {
		report.Err = &domain.ConnectorError{Source: name, Err: res.err}
		h.metrics.ObservePoll(name, "failed", time.Since(started))
		h.logger.Warn("poll failed, store unchanged", "source", name, "error", res.err)
		return report
	}
	h.metrics.ObservePoll(name, "ok", time.Since(started))

	matched := matcher.MatchAll(res.items, keywords)
	merge := h.mergeAndNotify(ctx, name, matched)

	report.Polled = len(res.items)
	report.Matched = len(matched)
	report.Added = len(merge.Added)
	report.Size = merge.After

	h.logger.Info("poll complete",
		"source", name,
		"polled", report.Polled,
		"matched", report.Matched,
		"added", report.Added,
		"size", report.Size,
	)

	if merge.Grown() {
		h.forward(ctx, name, merge.Added)
	}
	return report
}

// mergeAndNotify merges and, on growth, broadcasts every store while still holding articlesMu,
// so subscribers see article maps in merge order.
func (h *Hunter) mergeAndNotify(ctx context.Context, source string, matched []domain.MatchedArticle) store.MergeResult {
	h.articlesMu.Lock()
	defer h.articlesMu.Unlock()

	st := h.stores.Get(source)
	if st == nil {
		return store.MergeResult{}
	}
	res := st.Merge(matched)
	h.metrics.ObserveMerge(source, len(res.Added), res.After)
	if res.Grown() {
		h.broadcast(ctx, domain.EventArticles, h.stores.Snapshot())
	}
	return res
}

// forward hands new articles to the archive and the digest channel. Neither affects the stores.
func (h *Hunter) forward(ctx context.Context, source string, added []domain.MatchedArticle) {
	if h.archive != nil {
		if err := h.archive.Archive(ctx, source, added); err != nil {
			h.logger.Error("archive articles", "source", source, "error", err)
		}
	}
	if h.digest != nil {
		if err := h.digest.PublishDigest(ctx, buildDigestMessage(source, added)); err != nil {
			h.logger.Error("publish digest", "source", source, "error", err)
		}
	}
}

func buildDigestMessage(source string, articles []domain.MatchedArticle) string {
	if len(articles) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d new from %s\n\n", len(articles), source)
	for _, article := range articles {
		fmt.Fprintf(&b, "- %s\nKeyword: %s\n%s\n\n", article.Title, article.Keyword, article.Link)
	}
	return b.String()
}
