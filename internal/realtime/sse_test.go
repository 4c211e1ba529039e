package realtime_test

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/msomdec/postfeed/internal/domain"
	"github.com/msomdec/postfeed/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventsHandler_StreamsPatches(t *testing.T) {
	hub := realtime.NewHub(4)
	srv := httptest.NewServer(realtime.NewEventsHandler(hub))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	require.Eventually(t, func() bool { return hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
	hub.Publish(ctx, testEvent(domain.PostCreated, "p1"))
	hub.Publish(ctx, testEvent(domain.PostDeleted, "p1"))

	var created, removed bool
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() && !(created && removed) {
		line := scanner.Text()
		if strings.Contains(line, `id="post-p1"`) && strings.Contains(line, "Hello &lt;World&gt;") {
			created = true
		}
		if strings.Contains(line, "#post-p1") {
			removed = true
		}
	}
	assert.True(t, created, "expected rendered post card")
	assert.True(t, removed, "expected removal patch")
}
