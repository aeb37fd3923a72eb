package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/live-odds-platform/pkg/contracts/events"
	"github.com/radieske/live-odds-platform/pkg/contracts/feed"
)

func newTestHub(t *testing.T) (*Hub, string) {
	h := NewHub(zap.NewNop(), func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWS))
	t.Cleanup(srv.Close)
	return h, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func subscribe(t *testing.T, conn *websocket.Conn, eventTypeID string, marketIDs ...string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(feed.ControlFrame{
		Action:      feed.ActionSubscribe,
		EventTypeID: eventTypeID,
		MarketIDs:   marketIDs,
	}))
}

func waitSubs(t *testing.T, h *Hub, marketID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.SubscriberCount(marketID) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("subscriber count for %s never reached %d", marketID, want)
}

func TestHubBroadcastReachesOnlySubscribers(t *testing.T) {
	h, url := newTestHub(t)

	sub := dial(t, url)
	other := dial(t, url)

	subscribe(t, sub, "4", "MKT_1001")
	subscribe(t, other, "4", "MKT_9999")
	waitSubs(t, h, "MKT_1001", 1)
	waitSubs(t, h, "MKT_9999", 1)

	h.Broadcast(events.MarketSnapshot{MarketID: "MKT_1001", EventTypeID: "4", Version: 3})

	var frame feed.Frame
	require.NoError(t, sub.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, sub.ReadJSON(&frame))
	assert.Equal(t, feed.FrameOddsUpdate, frame.Type)
	assert.Equal(t, []string{"MKT_1001"}, frame.MarketIDs)
	require.Len(t, frame.Markets, 1)
	assert.Equal(t, int64(3), frame.Markets[0].Version)

	// quem assinou outro mercado não recebe nada
	require.NoError(t, other.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var none feed.Frame
	err := other.ReadJSON(&none)
	assert.Error(t, err)
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	h, url := newTestHub(t)

	conn := dial(t, url)
	subscribe(t, conn, "1", "MKT_2001", "MKT_2002")
	waitSubs(t, h, "MKT_2001", 1)
	waitSubs(t, h, "MKT_2002", 1)

	require.NoError(t, conn.WriteJSON(feed.ControlFrame{
		Action:    feed.ActionUnsubscribe,
		MarketIDs: []string{"MKT_2001"},
	}))
	waitSubs(t, h, "MKT_2001", 0)
	assert.Equal(t, 1, h.SubscriberCount("MKT_2002"))
}

func TestHubPingPong(t *testing.T) {
	_, url := newTestHub(t)

	conn := dial(t, url)
	require.NoError(t, conn.WriteJSON(map[string]string{"action": "ping"}))

	var resp map[string]string
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "pong", resp["type"])
}

func TestHubIgnoresUnknownActions(t *testing.T) {
	h, url := newTestHub(t)

	conn := dial(t, url)
	require.NoError(t, conn.WriteJSON(map[string]string{"action": "shrug"}))
	subscribe(t, conn, "4", "MKT_1001")
	waitSubs(t, h, "MKT_1001", 1)
}

func TestHubCleansUpOnDisconnect(t *testing.T) {
	h, url := newTestHub(t)

	conn := dial(t, url)
	subscribe(t, conn, "4", "MKT_1001")
	waitSubs(t, h, "MKT_1001", 1)

	conn.Close()
	waitSubs(t, h, "MKT_1001", 0)
}
