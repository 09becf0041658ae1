// Package stream broadcasts live simulation frames to websocket clients
// so a browser can watch an evacuation as it runs.
package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/evacsim/evacsim/internal/sim"
)

// wireFrame is the JSON shape sent to clients: the occupancy grid as a
// row-major array of pedestrian IDs (0 = empty).
type wireFrame struct {
	Set       int   `json:"set"`
	Run       int   `json:"run"`
	Timestep  int   `json:"timestep"`
	Rows      int   `json:"rows"`
	Cols      int   `json:"cols"`
	Occupancy []int `json:"occupancy"`
}

// Hub fans frames out to every connected websocket client. Slow clients
// are dropped rather than allowed to stall the simulation.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

// HandleWS upgrades the request and registers the client until it
// disconnects.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	send := make(chan []byte, 64)
	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()
	slog.Info("viewer connected", "remote", conn.RemoteAddr().String())

	go func() {
		defer func() {
			h.drop(conn)
			conn.Close()
		}()
		for msg := range send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}()

	// Reader loop only to notice disconnects; clients send nothing.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.drop(conn)
				return
			}
		}
	}()
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if send, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(send)
	}
}

// ClientCount returns the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends a frame to every client. Safe to use as a
// sim.Simulation FrameSink.
func (h *Hub) Broadcast(f sim.Frame) {
	wf := wireFrame{
		Set:       f.Set,
		Run:       f.Run,
		Timestep:  f.Timestep,
		Rows:      f.Occupancy.Rows(),
		Cols:      f.Occupancy.Cols(),
		Occupancy: f.Occupancy.Cells(),
	}
	msg, err := json.Marshal(wf)
	if err != nil {
		slog.Error("frame marshal failed", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, send := range h.clients {
		select {
		case send <- msg:
		default:
			// Buffer full: the viewer cannot keep up.
			delete(h.clients, conn)
			close(send)
			slog.Warn("viewer dropped, send buffer full", "remote", conn.RemoteAddr().String())
		}
	}
}

// Server serves the websocket endpoint and a small status endpoint.
type Server struct {
	Hub  *Hub
	Port int
}

// Start begins serving in a goroutine.
func (s *Server) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.Hub.HandleWS)
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"viewers":%d}`, s.Hub.ClientCount())
	})

	addr := fmt.Sprintf(":%d", s.Port)
	go func() {
		slog.Info("stream server listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("stream server stopped", "error", err)
		}
	}()
}
