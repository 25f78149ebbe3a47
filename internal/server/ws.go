package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/ayusman/poivr/internal/app"
	"github.com/ayusman/poivr/internal/trick"
	"github.com/gorilla/websocket"
)

// writeWait is how long a trick feed client may take to accept a message.
const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// FrameMessage is the reply to a frame that produced tricks, or that could
// not be decoded.
type FrameMessage struct {
	Tricks []trick.Event `json:"tricks,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// FrameHandler feeds frames received over a WebSocket into the pipeline.
// Each text message is one app.Frame; a reply is only sent for frames that
// produced tricks.
type FrameHandler struct {
	app *app.App
}

// NewFrameHandler creates a FrameHandler ticking a.
func NewFrameHandler(a *app.App) *FrameHandler {
	return &FrameHandler{app: a}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *FrameHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var f app.Frame
		if err := json.Unmarshal(data, &f); err != nil {
			if err := conn.WriteJSON(FrameMessage{Error: "Invalid frame"}); err != nil {
				return
			}
			continue
		}

		events := h.app.Tick(f)
		if len(events) == 0 {
			continue
		}
		if err := conn.WriteJSON(FrameMessage{Tricks: events}); err != nil {
			return
		}
	}
}

// TrickFeed broadcasts every trick event to the connected WebSocket clients.
// It is a trick.Sink.
type TrickFeed struct {
	clients   map[*websocket.Conn]bool
	writeWait time.Duration
	mu        sync.Mutex
}

// NewTrickFeed creates a TrickFeed with no clients.
func NewTrickFeed() *TrickFeed {
	return &TrickFeed{
		clients:   make(map[*websocket.Conn]bool),
		writeWait: writeWait,
	}
}

// Clients returns the number of connected clients.
func (f *TrickFeed) Clients() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// ServeHTTP handles WebSocket upgrade requests.
func (f *TrickFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	f.mu.Lock()
	f.clients[conn] = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		delete(f.clients, conn)
		f.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// OnTrick sends e to every client. Writes are serialised since a connection
// supports a single writer. A client that fails to take the message within
// the write deadline is closed and dropped.
func (f *TrickFeed) OnTrick(e trick.Event) {
	msg, err := json.Marshal(e)
	if err != nil {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.clients {
		conn.SetWriteDeadline(time.Now().Add(f.writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("Dropping trick feed client: %v", err)
			conn.Close()
			delete(f.clients, conn)
		}
	}
}
