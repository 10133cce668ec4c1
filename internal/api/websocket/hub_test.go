package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/KevinKickass/VirtualSpectrometer/internal/spectrometer"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()

	hub := NewHub(zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r)
	}))
	t.Cleanup(func() {
		cancel()
		<-hub.done
		srv.Close()
	})

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, hub *Hub, url string, want int) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool {
		return hub.GetClientCount() == want
	}, 2*time.Second, 5*time.Millisecond)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_PublishesEvents(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, hub, url, 1)

	hub.Publish(spectrometer.Event{
		Kind:       spectrometer.EventEEPROMPage,
		DeviceID:   uuid.New(),
		DeviceName: "silicon",
		Page:       2,
		Length:     64,
	})

	msg := readMessage(t, conn)
	assert.Equal(t, "eeprom_page", msg["type"])
	data := msg["data"].(map[string]any)
	assert.Equal(t, "silicon", data["device_name"])
	assert.Equal(t, float64(2), data["page"])
}

func subscribed(hub *Hub) bool {
	hub.mu.RLock()
	defer hub.mu.RUnlock()

	for client := range hub.clients {
		client.mu.RLock()
		n := len(client.devices)
		client.mu.RUnlock()
		if n > 0 {
			return true
		}
	}
	return false
}

func TestHub_SubscriptionFilters(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, hub, url, 1)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "subscribe", Devices: []string{"xs"}}))
	require.Eventually(t, func() bool { return subscribed(hub) }, 2*time.Second, 5*time.Millisecond)

	hub.Publish(spectrometer.Event{Kind: spectrometer.EventEEPROMPage, DeviceName: "silicon"})
	hub.Publish(spectrometer.Event{Kind: spectrometer.EventEEPROMPage, DeviceName: "xs", Page: 5})

	msg := readMessage(t, conn)
	data := msg["data"].(map[string]any)
	assert.Equal(t, "xs", data["device_name"])
	assert.Equal(t, float64(5), data["page"])

	hub.Broadcast(NewSystemStatusMessage(map[string]string{"state": "running"}))
	assert.Equal(t, "system_status", readMessage(t, conn)["type"])
}

func TestClient_Wants(t *testing.T) {
	t.Parallel()

	c := &Client{}
	spectrum := NewMessage(MessageTypeSpectrum, SpectrumData{DeviceRef: DeviceRef{DeviceID: "id-1", DeviceName: "xs"}})
	other := NewMessage(MessageTypeSpectrum, SpectrumData{DeviceRef: DeviceRef{DeviceID: "id-2", DeviceName: "silicon"}})
	status := NewSystemStatusMessage("running")

	assert.True(t, c.wants(spectrum))
	assert.True(t, c.wants(other))

	c.subscribe([]string{"id-1"})
	assert.True(t, c.wants(spectrum))
	assert.False(t, c.wants(other))
	assert.True(t, c.wants(status))

	c.subscribe(nil)
	assert.True(t, c.wants(other))
}

func TestHub_UnregisterOnClose(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, hub, url, 1)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return hub.GetClientCount() == 0
	}, 2*time.Second, 5*time.Millisecond)
}

func TestHub_StopClosesClients(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	cancel()
	<-hub.done
	assert.Zero(t, hub.GetClientCount())
	assert.False(t, hub.add(&Client{hub: hub, send: make(chan []byte, 1)}))
}
