package preview

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/backlight/internal/frame"
	"github.com/coreman2200/backlight/internal/layout"
)

func testLayout(t *testing.T) layout.Layout {
	t.Helper()
	l, err := layout.New(layout.Edges, map[layout.Edge]int{
		layout.Top: 3, layout.Right: 2, layout.Bottom: 3, layout.Left: 2,
	}, map[layout.Edge]bool{layout.Bottom: true})
	require.NoError(t, err)
	return l
}

func TestHealth(t *testing.T) {
	s := New(testLayout(t))
	s.Stats = func() any { return map[string]int{"shown": 7} }
	s.ObserveFrame(frame.Frame{Seq: 5, Data: []byte{0xff, 0xd8}})
	s.ObserveStrip([]byte{1, 2, 3})

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var got struct {
		StripFrame  uint64         `json:"strip_frame"`
		CameraFrame uint64         `json:"camera_frame"`
		Count       int            `json:"count"`
		Pipeline    map[string]int `json:"pipeline"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, uint64(1), got.StripFrame)
	assert.Equal(t, uint64(5), got.CameraFrame)
	assert.Equal(t, 10, got.Count)
	assert.Equal(t, 7, got.Pipeline["shown"])
}

func TestMJPEGStreamsLatestFrame(t *testing.T) {
	s := New(testLayout(t))
	want := []byte{0xff, 0xd8, 0x01, 0x02, 0xff, 0xd9}
	s.ObserveFrame(frame.Frame{Seq: 1, Data: want})

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/preview.mjpeg", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	mt, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/x-mixed-replace", mt)

	// a part ends at the next boundary, so keep frames coming
	next := []byte{0xff, 0xd8, 0x09, 0xff, 0xd9}
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		tick := time.NewTicker(5 * time.Millisecond)
		defer tick.Stop()
		for seq := uint64(2); ; seq++ {
			select {
			case <-stop:
				return
			case <-tick.C:
				s.ObserveFrame(frame.Frame{Seq: seq, Data: next})
			}
		}
	}()

	mr := multipart.NewReader(resp.Body, params["boundary"])
	part, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", part.Header.Get("Content-Type"))
	got, err := io.ReadAll(part)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	part, err = mr.NextPart()
	require.NoError(t, err)
	got, err = io.ReadAll(part)
	require.NoError(t, err)
	assert.Equal(t, next, got)
}

func TestWebsocketTopologyThenStrip(t *testing.T) {
	s := New(testLayout(t))
	s.Throttle = 5 * time.Millisecond
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.RunBroadcast(ctx)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var topo struct {
		Type  string      `json:"type"`
		Count int         `json:"count"`
		Edges []edgeRange `json:"edges"`
	}
	require.NoError(t, conn.ReadJSON(&topo))
	assert.Equal(t, "topology", topo.Type)
	assert.Equal(t, 10, topo.Count)
	require.Len(t, topo.Edges, 4)
	assert.Equal(t, edgeRange{Edge: layout.Bottom, Start: 5, Count: 3, Reversed: true}, topo.Edges[2])

	// the client registers after topology is written; keep publishing until
	// a broadcast lands
	rgb := []byte{10, 20, 30}
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		tick := time.NewTicker(5 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tick.C:
				s.ObserveStrip(rgb)
			}
		}
	}()

	var msg stripMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "strip", msg.Type)
	assert.Equal(t, rgb, msg.RGB)
	assert.NotZero(t, msg.FrameID)
}

func TestBroadcastSkipsWithoutChange(t *testing.T) {
	s := New(testLayout(t))
	s.broadcastFrame()
	assert.Zero(t, s.sentID)
}
