package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ArticleHunter/internal/connector"
	"ArticleHunter/internal/domain"
	"ArticleHunter/internal/ports"
)

const (
	// KindStackExchange is the registry key of the StackExchange connector.
	KindStackExchange = "stackexchange"

	stackExchangeBaseURL = "https://api.stackexchange.com/2.3/questions"
	maxStackExchangePage = 100
)

// StackExchangeConnector pages through the newest questions of one StackExchange site.
type StackExchangeConnector struct {
	name     string
	client   *http.Client
	baseURL  string
	site     string
	pageSize int
	maxPages int
	logger   *slog.Logger
}

var _ ports.Connector = (*StackExchangeConnector)(nil)

// NewStackExchangeConnector wires an HTTP client; it reads one page of 100 stackoverflow
// questions per poll unless options say otherwise.
func NewStackExchangeConnector(name string, client *http.Client, log *slog.Logger) *StackExchangeConnector {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &StackExchangeConnector{
		name:     name,
		client:   client,
		baseURL:  stackExchangeBaseURL,
		site:     "stackoverflow",
		pageSize: maxStackExchangePage,
		maxPages: 1,
		logger:   log,
	}
}

// StackExchangeFactory builds connectors from specs. Recognised options: base_url, site,
// page_size, max_pages.
func StackExchangeFactory(client *http.Client, log *slog.Logger) connector.Factory {
	return func(spec connector.Spec) (ports.Connector, error) {
		c := NewStackExchangeConnector(spec.Name, client, log)
		if v := spec.Options["base_url"]; v != "" {
			c.baseURL = v
		}
		if v := spec.Options["site"]; v != "" {
			c.site = v
		}
		if v := spec.Options["page_size"]; v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 || n > maxStackExchangePage {
				return nil, fmt.Errorf("page_size must be between 1 and %d, got %q", maxStackExchangePage, v)
			}
			c.pageSize = n
		}
		if v := spec.Options["max_pages"]; v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("max_pages must be positive, got %q", v)
			}
			c.maxPages = n
		}
		return c, nil
	}
}

// Name identifies the source and its store.
func (c *StackExchangeConnector) Name() string {
	return c.name
}

// Poll fetches the newest questions. Keywords are not sent upstream; filtering happens locally.
func (c *StackExchangeConnector) Poll(ctx context.Context, _ []domain.Keyword) ([]domain.RawItem, error) {
	var items []domain.RawItem
	for page := 1; page <= c.maxPages; page++ {
		pageURL, err := buildPageURL(c.baseURL, c.site, page, c.pageSize)
		if err != nil {
			return nil, err
		}

		resp, err := c.fetchPage(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}

		for _, q := range resp.Items {
			items = append(items, q.rawItem())
		}

		if resp.Backoff > 0 {
			c.debug("api asked to back off", "seconds", resp.Backoff, "quota_remaining", resp.QuotaRemaining)
		}
		if !resp.HasMore || resp.Backoff > 0 {
			break
		}
	}

	c.debug("poll done", "items", len(items))
	return items, nil
}

func (c *StackExchangeConnector) fetchPage(ctx context.Context, pageURL string) (*questionsPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "ArticleHunter/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request questions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr questionsPage
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.ErrorMessage != "" {
			return nil, fmt.Errorf("stackexchange returned %s: %s (%s)", resp.Status, apiErr.ErrorMessage, apiErr.ErrorName)
		}
		return nil, fmt.Errorf("stackexchange returned %s", resp.Status)
	}

	var page questionsPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return &page, nil
}

func (c *StackExchangeConnector) debug(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, append([]interface{}{"source", c.name}, args...)...)
	}
}

func buildPageURL(base, site string, page, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid api url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("site", site)
	query.Set("order", "desc")
	query.Set("sort", "creation")
	query.Set("filter", "withbody")
	query.Set("page", strconv.Itoa(page))
	query.Set("pagesize", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

type questionsPage struct {
	Items          []question `json:"items"`
	HasMore        bool       `json:"has_more"`
	Backoff        int        `json:"backoff"`
	QuotaRemaining int        `json:"quota_remaining"`
	ErrorID        int        `json:"error_id"`
	ErrorName      string     `json:"error_name"`
	ErrorMessage   string     `json:"error_message"`
}

type question struct {
	QuestionID int64    `json:"question_id"`
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	Tags       []string `json:"tags"`
	Link       string   `json:"link"`
}

func (q question) rawItem() domain.RawItem {
	var id string
	if q.QuestionID != 0 {
		id = strconv.FormatInt(q.QuestionID, 10)
	}
	return domain.RawItem{
		ID:    id,
		Title: strings.TrimSpace(html.UnescapeString(q.Title)),
		Body:  PlainText(q.Body),
		Tags:  q.Tags,
		Link:  q.Link,
	}
}
