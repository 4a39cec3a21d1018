package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilCollectorIsSafe(t *testing.T) {
	t.Parallel()

	var c *Collector
	c.CycleStarted()
	c.ObservePoll("so", "ok", time.Second)
	c.ObserveMerge("so", 1, 1)
	c.ObserveBroadcast("articles")
	c.SetSubscribers(3)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCollectorRecords(t *testing.T) {
	t.Parallel()

	c := NewCollector("articlehunter")
	c.CycleStarted()
	c.ObservePoll("stackoverflow", "ok", 200*time.Millisecond)
	c.ObservePoll("googleforums", "failed", time.Second)
	c.ObserveMerge("stackoverflow", 3, 7)
	c.ObserveBroadcast("articles")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Cycles))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Polls.WithLabelValues("googleforums", "failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.Accepted.WithLabelValues("stackoverflow")))
	assert.Equal(t, 7.0, testutil.ToFloat64(c.StoreSize.WithLabelValues("stackoverflow")))

	server := httptest.NewServer(c.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "articlehunter_broadcasts_total")
}
