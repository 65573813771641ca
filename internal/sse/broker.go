// Package sse implements a Server-Sent Events broker that streams vault
// change notifications to connected clients.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Note change kinds published by the indexer.
const (
	NoteCreated = "created"
	NoteUpdated = "updated"
	NoteDeleted = "deleted"
)

// clientBuffer is the per-connection send queue; a client that falls this
// far behind starts missing events rather than stalling the loop.
const clientBuffer = 64

// heartbeatInterval paces the comment pings that keep idle connections
// open through proxies.
const heartbeatInterval = 30 * time.Second

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type noteChange struct {
	kind string
	path string
}

// Broker fans vault events out to SSE subscribers.
//
// One goroutine owns all mutable state (the client set, the event id
// counter, the graph throttle stamp). Public methods talk to it over
// channels, so the broker needs no locks.
type Broker struct {
	graphMin time.Duration

	ctl          chan func(clients map[chan []byte]struct{})
	publishCh    chan Event
	noteChangeCh chan noteChange

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker whose graph.updated hints are emitted at most
// once per graphThrottle.
func NewBroker(graphThrottle time.Duration) *Broker {
	if graphThrottle <= 0 {
		graphThrottle = 2 * time.Second
	}

	b := &Broker{
		graphMin:     graphThrottle,
		ctl:          make(chan func(map[chan []byte]struct{})),
		publishCh:    make(chan Event, 256),
		noteChangeCh: make(chan noteChange, 256),
		stopCh:       make(chan struct{}),
		stopped:      make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastGraph time.Time
	var nextID uint64

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		nextID++
		raw := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", nextID, event.Type, payload))
		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client queue full; drop rather than stall the loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case op := <-b.ctl:
			op(clients)

		case event := <-b.publishCh:
			broadcast(event)

		case change := <-b.noteChangeCh:
			broadcast(Event{Type: "note." + change.kind, Data: map[string]string{"path": change.path}})

			// Any note change invalidates the link graph, but clients only
			// need a throttled hint to refetch it.
			if now := time.Now(); now.Sub(lastGraph) >= b.graphMin {
				lastGraph = now
				broadcast(Event{Type: "graph.updated", Data: map[string]string{}})
			}

		case <-heartbeat.C:
			ping := []byte(": ping\n\n")
			for ch := range clients {
				select {
				case ch <- ping:
				default:
				}
			}
		}
	}
}

// control runs op inside the broker loop, returning false once the broker
// has stopped.
func (b *Broker) control(op func(map[chan []byte]struct{})) bool {
	select {
	case b.ctl <- op:
		return true
	case <-b.stopped:
		return false
	}
}

// Close stops the loop and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a new client and returns its receive channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	if !b.control(func(clients map[chan []byte]struct{}) { clients[ch] = struct{}{} }) {
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	b.control(func(clients map[chan []byte]struct{}) {
		if _, ok := clients[ch]; ok {
			delete(clients, ch)
			close(ch)
		}
	})
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	done := make(chan int, 1)
	if !b.control(func(clients map[chan []byte]struct{}) { done <- len(clients) }) {
		return 0
	}
	select {
	case n := <-done:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishNoteEvent publishes a note change and a throttled graph.updated hint.
func (b *Broker) PublishNoteEvent(kind, path string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.noteChangeCh <- noteChange{kind: kind, path: path}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
