package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/pebble/internal/core/model"
)

type inbound struct {
	Type     string               `json:"type"`
	Visible  bool                 `json:"visible"`
	Entities []model.RenderEntity `json:"entities"`
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) inbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var m inbound
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestLateJoinerGetsReplay(t *testing.T) {
	hub := NewHub(nil, 0)
	s := httptest.NewServer(hub)
	defer s.Close()
	defer hub.Close()

	hub.SetVisible(true)
	hub.OnRenderPayload([]model.RenderEntity{{ID: 7, X: 10, Y: 20, Shape: model.Circle{Radius: 60}}})

	conn := dial(t, s.URL)
	vis := readMessage(t, conn)
	assert.Equal(t, "visibility", vis.Type)
	assert.True(t, vis.Visible)

	frame := readMessage(t, conn)
	assert.Equal(t, "frame", frame.Type)
	require.Len(t, frame.Entities, 1)
	assert.EqualValues(t, 7, frame.Entities[0].ID)
	assert.Equal(t, model.Circle{Radius: 60}, frame.Entities[0].Shape)
}

func TestLiveBroadcast(t *testing.T) {
	hub := NewHub(nil, 4)
	s := httptest.NewServer(hub)
	defer s.Close()
	defer hub.Close()

	conn := dial(t, s.URL)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 5*time.Millisecond)

	hub.OnRenderPayload(nil)
	frame := readMessage(t, conn)
	assert.Equal(t, "frame", frame.Type)
	assert.NotNil(t, frame.Entities)
	assert.Empty(t, frame.Entities)

	hub.SetVisible(false)
	vis := readMessage(t, conn)
	assert.Equal(t, "visibility", vis.Type)
	assert.False(t, vis.Visible)
}

func TestCloseDisconnectsClients(t *testing.T) {
	hub := NewHub(nil, 0)
	s := httptest.NewServer(hub)
	defer s.Close()

	conn := dial(t, s.URL)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Close())
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Zero(t, hub.Clients())

	// new connections are refused once closed
	late := dial(t, s.URL)
	require.NoError(t, late.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = late.ReadMessage()
	assert.Error(t, err)
}

func TestClientQueueCoalescesFrames(t *testing.T) {
	c := newClient(nil)
	for i := 0; i < 5; i++ {
		c.push(outbound{frame: true, data: []byte{byte(i)}}, 8)
	}
	c.push(outbound{data: []byte("v1")}, 8)
	c.push(outbound{frame: true, data: []byte{9}}, 8)

	batch := c.drain()
	require.Len(t, batch, 3)
	assert.Equal(t, []byte{4}, batch[0].data)
	assert.Equal(t, []byte("v1"), batch[1].data)
	assert.Equal(t, []byte{9}, batch[2].data)
	assert.Empty(t, c.drain())
}

func TestClientQueueCompactsOnOverflow(t *testing.T) {
	c := newClient(nil)
	c.push(outbound{data: []byte("v1")}, 2)
	c.push(outbound{frame: true, data: []byte("f1")}, 2)
	c.push(outbound{data: []byte("v2")}, 2)

	batch := c.drain()
	require.Len(t, batch, 2)
	assert.Equal(t, []byte("f1"), batch[0].data)
	assert.Equal(t, []byte("v2"), batch[1].data)
}

func TestHTTPServerRoutes(t *testing.T) {
	hub := NewHub(nil, 0)
	defer hub.Close()
	srv := NewHTTPServer("127.0.0.1:0", "/overlay", hub, func() any {
		return map[string]int{"episodes": 3}
	}, nil)

	require.NoError(t, srv.Start(context.Background()))
	assert.ErrorIs(t, srv.Start(context.Background()), ErrServerAlreadyRunning)
	base := "http://" + srv.Addr()

	resp, err := http.Get(base + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	resp, err = http.Get(base + "/stats")
	require.NoError(t, err)
	var stats map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	_ = resp.Body.Close()
	assert.Equal(t, 3, stats["episodes"])

	conn := dial(t, base+"/overlay")
	hub.SetVisible(true)
	assert.True(t, readMessage(t, conn).Visible)

	require.NoError(t, hub.Close())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
	assert.ErrorIs(t, srv.Stop(ctx), ErrServerNotRunning)
}
