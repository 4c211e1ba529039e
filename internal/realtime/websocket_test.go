package realtime_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/msomdec/postfeed/internal/domain"
	"github.com/msomdec/postfeed/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSocketHandler_StreamsEvents(t *testing.T) {
	hub := realtime.NewHub(4)
	srv := httptest.NewServer(realtime.NewWebSocketHandler(hub))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), testEvent(domain.PostCreated, "p1")))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got map[string]any
	require.NoError(t, conn.ReadJSON(&got))

	assert.Equal(t, "create", got["action"])
	post := got["post"].(map[string]any)
	assert.Equal(t, "p1", post["_id"])
	assert.Equal(t, "Ann", post["creator"].(map[string]any)["name"])
}

func TestWebSocketHandler_UnsubscribesOnDisconnect(t *testing.T) {
	hub := realtime.NewHub(4)
	srv := httptest.NewServer(realtime.NewWebSocketHandler(hub))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()

	assert.Eventually(t, func() bool { return hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}
