// Package preview serves a debug view of the running pipeline: the raw camera
// stream as MJPEG, strip frames over a websocket, and a health document.
package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/backlight/internal/frame"
	"github.com/coreman2200/backlight/internal/layout"
)

const boundary = "backlightframe"

// DefaultThrottle caps websocket strip broadcasts at about 20 per second.
const DefaultThrottle = 50 * time.Millisecond

// Server implements pipeline.Observer. Observe calls only swap pointers and
// never wait on clients.
type Server struct {
	Layout   layout.Layout
	Stats    func() any // extra fields for /health, optional
	Throttle time.Duration

	mu        sync.RWMutex
	clients   map[*websocket.Conn]bool
	rgb       []byte
	stripID   uint64
	sentID    uint64
	startTime time.Time

	frameMu  sync.Mutex
	jpeg     []byte
	frameSeq uint64
	notify   chan struct{}
}

func New(l layout.Layout) *Server {
	return &Server{
		Layout:    l,
		Throttle:  DefaultThrottle,
		clients:   map[*websocket.Conn]bool{},
		startTime: time.Now(),
		notify:    make(chan struct{}),
	}
}

// ObserveFrame keeps the newest camera frame and wakes MJPEG streams.
func (s *Server) ObserveFrame(f frame.Frame) {
	s.frameMu.Lock()
	s.jpeg = f.Data
	s.frameSeq = f.Seq
	close(s.notify)
	s.notify = make(chan struct{})
	s.frameMu.Unlock()
}

// ObserveStrip keeps the newest strip frame for the next broadcast.
func (s *Server) ObserveStrip(rgb []byte) {
	s.mu.Lock()
	s.rgb = rgb
	s.stripID++
	s.mu.Unlock()
}

func (s *Server) latestFrame() ([]byte, uint64, <-chan struct{}) {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	return s.jpeg, s.frameSeq, s.notify
}

// Handler routes the preview endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleFramesWS)
	mux.HandleFunc("/preview.mjpeg", s.HandleMJPEG)
	mux.HandleFunc("/health", s.HandleHealth)
	return withCORS(mux)
}

// Run serves on addr and broadcasts strip frames until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 60 * time.Second,
		// no WriteTimeout: /preview.mjpeg streams indefinitely
	}
	go s.RunBroadcast(ctx)
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
		s.closeClients()
	}()
	log.Info().Str("addr", addr).Msg("preview server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("preview server: %w", err)
	}
	return nil
}

// RunBroadcast pushes the newest strip frame to websocket clients at most
// once per Throttle.
func (s *Server) RunBroadcast(ctx context.Context) {
	every := s.Throttle
	if every <= 0 {
		every = DefaultThrottle
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.broadcastFrame()
		}
	}
}

func (s *Server) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	// topology goes out before the client can receive broadcasts
	s.sendTopology(conn)
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// HandleMJPEG streams camera frames as multipart/x-mixed-replace.
func (s *Server) HandleMJPEG(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+boundary)
	w.Header().Set("Cache-Control", "no-cache")
	flusher, _ := w.(http.Flusher)

	var sent uint64
	for {
		data, seq, wake := s.latestFrame()
		if len(data) > 0 && seq != sent {
			if err := writePart(w, data); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
			sent = seq
		}
		select {
		case <-r.Context().Done():
			return
		case <-wake:
		}
	}
}

func writePart(w http.ResponseWriter, data []byte) error {
	if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", boundary, len(data)); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err := w.Write([]byte("\r\n"))
	return err
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := map[string]any{
		"strip_frame": s.stripID,
		"uptime_s":    time.Since(s.startTime).Seconds(),
		"count":       s.Layout.Count(),
		"clients":     len(s.clients),
	}
	s.mu.RUnlock()
	_, seq, _ := s.latestFrame()
	resp["camera_frame"] = seq
	if s.Stats != nil {
		resp["pipeline"] = s.Stats()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

type edgeRange struct {
	Edge     layout.Edge `json:"edge"`
	Start    int         `json:"start"`
	Count    int         `json:"count"`
	Reversed bool        `json:"reversed"`
}

func (s *Server) sendTopology(conn *websocket.Conn) {
	edges := make([]edgeRange, 0, len(s.Layout.Order))
	for _, e := range s.Layout.Order {
		r := s.Layout.Range(e)
		edges = append(edges, edgeRange{Edge: e, Start: r.Start, Count: r.Count, Reversed: s.Layout.Reversed[e]})
	}
	b, _ := json.Marshal(map[string]any{"type": "topology", "count": s.Layout.Count(), "edges": edges})
	conn.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
	_ = conn.WriteMessage(websocket.TextMessage, b)
}

// stripMessage is the websocket payload for one strip frame.
type stripMessage struct {
	Type    string `json:"type"`
	T       int64  `json:"t"`
	FrameID uint64 `json:"frame_id"`
	RGB     []byte `json:"rgb"`
}

func (s *Server) broadcastFrame() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stripID == s.sentID || len(s.clients) == 0 {
		return
	}
	s.sentID = s.stripID
	b, _ := json.Marshal(stripMessage{Type: "strip", T: time.Now().UnixNano(), FrameID: s.stripID, RGB: s.rgb})
	for c := range s.clients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write frame")
		}
	}
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		c.Close()
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		h.ServeHTTP(w, r)
	})
}
