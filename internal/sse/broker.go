// Package sse implements a Server-Sent Events broker that announces
// knowledge base changes.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/starford/ansuz/internal/models"
)

// Event types.
const (
	EventRepositoryLinked = "repository.linked"
	EventKnowledgeUpdated = "knowledge.updated"
)

// clientBuffer is the number of frames a slow client may fall behind before
// frames are dropped for it.
const clientBuffer = 64

// Event represents an SSE event to broadcast.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// linkedPayload is the data of a repository.linked event.
type linkedPayload struct {
	RepositoryName string   `json:"repositoryName"`
	GitHubURL      string   `json:"gitHubUrl"`
	DefaultBranch  string   `json:"defaultBranch"`
	Environments   []string `json:"environments"`
}

func newLinkedPayload(link *models.RepositoryLink) linkedPayload {
	envs := make([]string, 0, len(link.DeploymentURLs))
	for _, d := range link.DeploymentURLs {
		envs = append(envs, d.Environment)
	}
	return linkedPayload{
		RepositoryName: link.RepositoryName,
		GitHubURL:      link.GitHubURL,
		DefaultBranch:  link.DefaultBranch,
		Environments:   envs,
	}
}

// updatedPayload is the data of a knowledge.updated event: the totals of
// everything announced since the broker started.
type updatedPayload struct {
	RepositoryLinks int      `json:"repositoryLinks"`
	Environments    []string `json:"environments"`
}

// hub is the state owned by the broker loop.
type hub struct {
	clients map[chan []byte]struct{}
	repos   map[string]struct{}
	envs    map[string]struct{}
	updates rate.Sometimes
	seq     uint64
}

func (h *hub) send(event Event) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return
	}
	h.seq++
	frame := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", h.seq, event.Type, payload))

	for ch := range h.clients {
		select {
		case ch <- frame:
		default:
			// Slow client; drop the frame rather than stall the loop.
		}
	}
}

func (h *hub) linked(p linkedPayload) {
	h.repos[strings.ToLower(p.RepositoryName)] = struct{}{}
	for _, env := range p.Environments {
		h.envs[env] = struct{}{}
	}
	h.send(Event{Type: EventRepositoryLinked, Data: p})
	h.updates.Do(func() {
		h.send(Event{Type: EventKnowledgeUpdated, Data: h.snapshot()})
	})
}

func (h *hub) snapshot() updatedPayload {
	envs := make([]string, 0, len(h.envs))
	for env := range h.envs {
		envs = append(envs, env)
	}
	sort.Strings(envs)
	return updatedPayload{RepositoryLinks: len(h.repos), Environments: envs}
}

// Broker manages SSE client connections and broadcasts events.
//
// A single loop goroutine owns the hub. Public methods talk to it through
// channels.
type Broker struct {
	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	linkedCh      chan linkedPayload
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. At most one knowledge.updated event is
// emitted per throttle interval.
func NewBroker(throttle time.Duration) *Broker {
	if throttle <= 0 {
		throttle = 2 * time.Second
	}

	b := &Broker{
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		linkedCh:      make(chan linkedPayload, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	h := &hub{
		clients: make(map[chan []byte]struct{}),
		repos:   make(map[string]struct{}),
		envs:    make(map[string]struct{}),
		updates: rate.Sometimes{Interval: throttle},
	}
	go b.run(h)
	return b
}

func (b *Broker) run(h *hub) {
	defer close(b.stopped)

	for {
		select {
		case <-b.stopCh:
			for ch := range h.clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			h.clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := h.clients[ch]; ok {
				delete(h.clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			h.send(event)

		case p := <-b.linkedCh:
			h.linked(p)

		case resp := <-b.countReqCh:
			resp <- len(h.clients)
		}
	}
}

// Close stops the broker loop and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
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

// RepositoryLinked announces a new repository link followed by a throttled
// knowledge.updated snapshot. Its signature matches knowledge.LinkObserver.
func (b *Broker) RepositoryLinked(link *models.RepositoryLink) {
	if b.closed.Load() || link == nil {
		return
	}
	select {
	case b.linkedCh <- newLinkedPayload(link):
	case <-b.stopped:
	}
}

// ServeHTTP streams events to one client (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("retry: 3000\n\n"))
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
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
