package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"ArticleHunter/internal/connector"
	"ArticleHunter/internal/domain"
	"ArticleHunter/internal/ports"
)

// KindRSS is the registry key of the feed connector.
const KindRSS = "rss"

// linkIDSegment is the path segment of a forum topic link that carries the topic id,
// counting the host as segment 0.
const linkIDSegment = 4

var schemeExpr = regexp.MustCompile(`^https?://`)

// FeedLister supplies the current feed definitions on every poll.
type FeedLister interface {
	List() []domain.SourceDefinition
}

// FeedConnector reads every configured RSS/Atom feed and flattens their items.
type FeedConnector struct {
	name   string
	feeds  FeedLister
	parser *gofeed.Parser
	logger *slog.Logger
}

var _ ports.Connector = (*FeedConnector)(nil)

// NewFeedConnector wires a feed lister and an HTTP client for gofeed.
func NewFeedConnector(name string, feeds FeedLister, client *http.Client, log *slog.Logger) *FeedConnector {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	p := gofeed.NewParser()
	p.Client = client
	return &FeedConnector{name: name, feeds: feeds, parser: p, logger: log}
}

// FeedFactory builds feed connectors that all read the same feed list.
func FeedFactory(feeds FeedLister, client *http.Client, log *slog.Logger) connector.Factory {
	return func(spec connector.Spec) (ports.Connector, error) {
		if feeds == nil {
			return nil, fmt.Errorf("no feed list for %s", spec.Name)
		}
		return NewFeedConnector(spec.Name, feeds, client, log), nil
	}
}

// Name identifies the source and its store.
func (f *FeedConnector) Name() string {
	return f.name
}

// Poll reads all feeds in list order. A broken feed is logged and skipped; the poll fails only
// when no feed could be read.
func (f *FeedConnector) Poll(ctx context.Context, _ []domain.Keyword) ([]domain.RawItem, error) {
	defs := f.feeds.List()

	var (
		items []domain.RawItem
		errs  []error
		read  int
	)
	for _, def := range defs {
		feed, err := f.parser.ParseURLWithContext(def.Source, ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("feed %s: %w", def.Title, err))
			f.warn("feed failed", "feed", def.Title, "url", def.Source, "error", err)
			continue
		}
		read++
		for _, it := range feed.Items {
			items = append(items, feedItem(it))
		}
	}

	if read == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	f.debug("poll done", "feeds", len(defs), "failed", len(errs), "items", len(items))
	return items, nil
}

func feedItem(it *gofeed.Item) domain.RawItem {
	content := it.Content
	if strings.TrimSpace(content) == "" {
		content = it.Description
	}
	return domain.RawItem{
		ID:    itemID(it),
		Title: strings.TrimSpace(it.Title),
		Body:  PlainText(content),
		Tags:  it.Categories,
		Link:  it.Link,
	}
}

// itemID prefers the topic segment of the link, then the GUID, then the link itself.
func itemID(it *gofeed.Item) string {
	if seg := linkSegment(it.Link, linkIDSegment); seg != "" {
		return seg
	}
	if it.GUID != "" {
		return it.GUID
	}
	return it.Link
}

func linkSegment(link string, index int) string {
	parts := strings.Split(schemeExpr.ReplaceAllString(strings.TrimSpace(link), ""), "/")
	if index >= len(parts) {
		return ""
	}
	return parts[index]
}

func (f *FeedConnector) debug(msg string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Debug(msg, append([]interface{}{"source", f.name}, args...)...)
	}
}

func (f *FeedConnector) warn(msg string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Warn(msg, append([]interface{}{"source", f.name}, args...)...)
	}
}
