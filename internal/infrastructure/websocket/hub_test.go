package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ArticleHunter/internal/domain"
	"ArticleHunter/internal/observability"
	"ArticleHunter/internal/sourcelist"
	"ArticleHunter/internal/usecase"
	"ArticleHunter/internal/watchlist"
)

type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func startHub(t *testing.T) (*Hub, *usecase.Hunter, *httptest.Server) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	var hunter *usecase.Hunter
	hub := NewHub(func() []domain.Event { return hunter.Snapshot() }, nil, nil)
	hunter = usecase.NewHunter(usecase.HunterDeps{
		Watchlist:   watchlist.New([]string{"java"}),
		Sources:     sourcelist.New(nil),
		Broadcaster: hub,
	})
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(NewServer(hub, hunter, nil).HandleWebSocket))
	t.Cleanup(func() {
		server.Close()
		cancel()
		<-hub.Done()
	})
	return hub, hunter, server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func next(t *testing.T, conn *websocket.Conn) inbound {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg inbound
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestSubscriberReceivesSnapshotOnJoin(t *testing.T) {
	t.Parallel()

	_, _, server := startHub(t)
	conn := dial(t, server)

	articles := next(t, conn)
	keywords := next(t, conn)
	sources := next(t, conn)

	assert.Equal(t, domain.EventArticles, articles.Event)
	assert.JSONEq(t, `{}`, string(articles.Data))
	assert.Equal(t, domain.EventKeywordList, keywords.Event)
	assert.JSONEq(t, `["java"]`, string(keywords.Data))
	assert.Equal(t, domain.EventSourceList, sources.Event)
	assert.JSONEq(t, `[]`, string(sources.Data))
}

func TestCommandIsBroadcastToEverySubscriber(t *testing.T) {
	t.Parallel()

	_, hunter, server := startHub(t)
	sender := dial(t, server)
	watcher := dial(t, server)
	for i := 0; i < 3; i++ {
		next(t, sender)
		next(t, watcher)
	}

	require.NoError(t, sender.WriteJSON(map[string]any{"event": "addKeyword", "data": "Rust"}))

	for _, conn := range []*websocket.Conn{sender, watcher} {
		msg := next(t, conn)
		assert.Equal(t, domain.EventKeywordList, msg.Event)
		assert.JSONEq(t, `["java","rust"]`, string(msg.Data))
	}
	assert.Equal(t, []domain.Keyword{"java", "rust"}, hunter.Keywords())
}

func TestRejectedCommandRepliesToRequesterOnly(t *testing.T) {
	t.Parallel()

	_, hunter, server := startHub(t)
	sender := dial(t, server)
	for i := 0; i < 3; i++ {
		next(t, sender)
	}

	require.NoError(t, sender.WriteJSON(map[string]any{"event": "deleteKeyword", "data": 7}))

	msg := next(t, sender)
	assert.Equal(t, domain.EventError, msg.Event)
	var cmdErr domain.CommandError
	require.NoError(t, json.Unmarshal(msg.Data, &cmdErr))
	assert.Equal(t, domain.EventDeleteKeyword, cmdErr.Request)
	assert.Contains(t, cmdErr.Message, "index out of range")
	assert.Equal(t, []domain.Keyword{"java"}, hunter.Keywords())
}

func TestBroadcastAfterStop(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	cancel()
	<-hub.Done()

	assert.ErrorIs(t, hub.Broadcast(context.Background(), domain.EventKeywordList, []string{}), ErrHubStopped)
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	t.Parallel()

	metrics := observability.NewCollector("test")
	hub := NewHub(nil, metrics, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	slow := &Client{id: "slow", hub: hub, send: make(chan []byte, 1)}
	slow.send <- []byte("pending")
	require.True(t, hub.join(slow))
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.Subscribers) == 1
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Broadcast(context.Background(), domain.EventKeywordList, []string{"java"}))

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.Subscribers) == 0
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, []byte("pending"), <-slow.send)
	_, ok := <-slow.send
	assert.False(t, ok)
}
