package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ArticleHunter/internal/connector"
	"ArticleHunter/internal/domain"
)

func TestPlainText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"<p>Hello</p><p>World &amp; more</p>", "Hello World & more"},
		{"<b>Bold</b> and <i>italic</i>", "Bold and italic"},
		{"No tags   here", "No tags here"},
		{"<div>keep<script>var java = 1;</script></div>", "keep"},
		{"<pre><code>import java.util.List;</code></pre>", "import java.util.List;"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PlainText(tt.input), tt.input)
	}
}

func TestBuildPageURL(t *testing.T) {
	t.Parallel()

	u, err := buildPageURL("https://api.stackexchange.com/2.3/questions", "stackoverflow", 3, 50)
	require.NoError(t, err)

	parsed, err := url.Parse(u)
	require.NoError(t, err)
	assert.Equal(t, "api.stackexchange.com", parsed.Host)

	q := parsed.Query()
	assert.Equal(t, "stackoverflow", q.Get("site"))
	assert.Equal(t, "withbody", q.Get("filter"))
	assert.Equal(t, "creation", q.Get("sort"))
	assert.Equal(t, "3", q.Get("page"))
	assert.Equal(t, "50", q.Get("pagesize"))
}

func TestStackExchangePollFollowsPages(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("page") {
		case "1":
			_, _ = w.Write([]byte(`{"items":[{"question_id":101,"title":"Java &amp; generics","body":"<p>How do <code>List&lt;T&gt;</code> work?</p>","tags":["java","generics"],"link":"https://stackoverflow.com/q/101"}],"has_more":true}`))
		case "2":
			_, _ = w.Write([]byte(`{"items":[{"question_id":102,"title":"Swift optionals","body":"<p>unwrap</p>","tags":["swift"],"link":"https://stackoverflow.com/q/102"}],"has_more":true}`))
		default:
			t.Errorf("unexpected page %s", r.URL.Query().Get("page"))
		}
	}))
	defer server.Close()

	factory := StackExchangeFactory(server.Client(), nil)
	conn, err := factory(connector.Spec{
		Name:    "stackoverflow",
		Kind:    KindStackExchange,
		Options: map[string]string{"base_url": server.URL + "/2.3/questions", "max_pages": "2"},
	})
	require.NoError(t, err)

	items, err := conn.Poll(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int32(2), calls.Load())

	assert.Equal(t, domain.RawItem{
		ID:    "101",
		Title: "Java & generics",
		Body:  "How do List<T> work?",
		Tags:  []string{"java", "generics"},
		Link:  "https://stackoverflow.com/q/101",
	}, items[0])
	assert.Equal(t, "102", items[1].ID)
}

func TestStackExchangePollStopsWithoutMore(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"items":[],"has_more":false}`))
	}))
	defer server.Close()

	conn := NewStackExchangeConnector("so", server.Client(), nil)
	conn.baseURL = server.URL
	conn.maxPages = 5

	items, err := conn.Poll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, int32(1), calls.Load())
}

func TestStackExchangeAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_id":502,"error_name":"throttle_violation","error_message":"too many requests from this IP"}`))
	}))
	defer server.Close()

	conn := NewStackExchangeConnector("so", server.Client(), nil)
	conn.baseURL = server.URL

	_, err := conn.Poll(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many requests from this IP")
}

func TestStackExchangeFactoryRejectsBadOptions(t *testing.T) {
	t.Parallel()

	factory := StackExchangeFactory(nil, nil)
	for _, opts := range []map[string]string{
		{"page_size": "0"},
		{"page_size": "101"},
		{"max_pages": "x"},
	} {
		_, err := factory(connector.Spec{Name: "so", Kind: KindStackExchange, Options: opts})
		assert.Error(t, err, opts)
	}
}

const forumRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>nodejs</title>
  <link>https://groups.google.com/forum/#!forum/nodejs</link>
  <description>forum</description>
  <item>
    <title>Streams in node</title>
    <link>https://groups.google.com/forum/#!topic/nodejs/abc123</link>
    <description>&lt;p&gt;How do I pipe &lt;b&gt;streams&lt;/b&gt;?&lt;/p&gt;</description>
    <category>streams</category>
    <guid>guid-abc123</guid>
  </item>
  <item>
    <title>Short link</title>
    <link>https://example.org/post</link>
    <description>plain</description>
    <guid>guid-short</guid>
  </item>
</channel>
</rss>`

type staticFeeds []domain.SourceDefinition

func (s staticFeeds) List() []domain.SourceDefinition { return s }

func TestFeedConnectorPoll(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken.xml" {
			http.Error(w, "gone", http.StatusGone)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(forumRSS))
	}))
	defer server.Close()

	feeds := staticFeeds{
		{Title: "broken", Source: server.URL + "/broken.xml"},
		{Title: "nodejs", Source: server.URL + "/nodejs.xml"},
	}
	conn := NewFeedConnector("googleforums", feeds, server.Client(), nil)

	items, err := conn.Poll(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "abc123", items[0].ID)
	assert.Equal(t, "Streams in node", items[0].Title)
	assert.Equal(t, "How do I pipe streams ?", items[0].Body)
	assert.Equal(t, []string{"streams"}, items[0].Tags)

	assert.Equal(t, "guid-short", items[1].ID)
}

func TestFeedConnectorAllFeedsFail(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	conn := NewFeedConnector("googleforums", staticFeeds{{Title: "a", Source: server.URL}}, server.Client(), nil)
	_, err := conn.Poll(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "feed a"))
}

func TestFeedConnectorNoFeeds(t *testing.T) {
	t.Parallel()

	conn := NewFeedConnector("googleforums", staticFeeds{}, nil, nil)
	items, err := conn.Poll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestLinkSegment(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", linkSegment("https://groups.google.com/forum/#!topic/nodejs/abc", 4))
	assert.Equal(t, "abc", linkSegment("http://groups.google.com/forum/#!topic/nodejs/abc", 4))
	assert.Equal(t, "", linkSegment("https://example.org/a", 4))
}
