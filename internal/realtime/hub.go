// Package realtime pushes assessment change events to websocket clients.
package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/vocatrack/internal/assessment"
)

const (
	EventAssessmentsChanged = "assessments.changed"

	defaultBuffer       = 16
	defaultWriteTimeout = 5 * time.Second
)

// Event is the JSON frame sent to every subscriber.
type Event struct {
	Type           string          `json:"type"`
	StudentIDs     []string        `json:"studentIds"`
	UnitStandardID string          `json:"unitStandardId,omitempty"`
	ModuleID       string          `json:"moduleId,omitempty"`
	AssessmentType assessment.Type `json:"assessmentType,omitempty"`
	At             time.Time       `json:"at"`
}

type subscriber struct {
	events chan Event
	// closeSlow is called when the subscriber cannot keep up.
	closeSlow func()
}

// Hub fans events out to connected websocket clients. A client whose buffer
// is full is disconnected rather than blocking publishers.
type Hub struct {
	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	buffer      int
	origins     []string
	now         func() time.Time
}

// HubConfig holds optional hub settings.
type HubConfig struct {
	Buffer         int      // per-client event buffer (default 16)
	OriginPatterns []string // accepted cross-origin hosts
}

// NewHub creates a new hub.
func NewHub(cfg HubConfig) *Hub {
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		subscribers: make(map[*subscriber]struct{}),
		buffer:      buffer,
		origins:     cfg.OriginPatterns,
		now:         time.Now,
	}
}

// ServeHTTP upgrades the request and streams events until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// The server's write timeout would otherwise cut the stream.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	sub := &subscriber{
		events: make(chan Event, h.buffer),
		closeSlow: func() {
			conn.Close(websocket.StatusPolicyViolation, "connection too slow to keep up with events")
		},
	}
	h.add(sub)
	defer h.remove(sub)

	// Clients never send; CloseRead handles control frames and cancels ctx on close.
	ctx := conn.CloseRead(r.Context())
	slog.Debug("websocket client connected", "remote", r.RemoteAddr)

	for {
		select {
		case ev := <-sub.events:
			if err := writeEvent(ctx, conn, ev); err != nil {
				slog.Debug("websocket client write failed", "remote", r.RemoteAddr, "error", err)
				return
			}
		case <-ctx.Done():
			slog.Debug("websocket client disconnected", "remote", r.RemoteAddr)
			return
		}
	}
}

// Publish queues ev for every subscriber without blocking.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = h.now().UTC()
	}
	if ev.StudentIDs == nil {
		ev.StudentIDs = []string{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subscribers {
		select {
		case sub.events <- ev:
		default:
			delete(h.subscribers, sub)
			go sub.closeSlow()
		}
	}
}

// AssessmentsChanged publishes a committed assessment change.
func (h *Hub) AssessmentsChanged(_ context.Context, c assessment.Change) {
	h.Publish(Event{
		Type:           EventAssessmentsChanged,
		StudentIDs:     c.StudentIDs,
		UnitStandardID: c.UnitStandardID,
		ModuleID:       c.ModuleID,
		AssessmentType: c.Type,
	})
}

// Subscribers returns the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

func (h *Hub) add(sub *subscriber) {
	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	delete(h.subscribers, sub)
	h.mu.Unlock()
}

func writeEvent(ctx context.Context, conn *websocket.Conn, ev Event) error {
	ctx, cancel := context.WithTimeout(ctx, defaultWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, ev)
}
