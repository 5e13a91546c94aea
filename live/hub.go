package live

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"
)

// ScopeKind enumerates the topic families the dispatcher serves.
type ScopeKind string

const (
	ScopeMatch    ScopeKind = "match"
	ScopePhase    ScopeKind = "phase"
	ScopeGroup    ScopeKind = "group"
	ScopeLiveList ScopeKind = "live"
)

// Scope identifies one topic: a single match, a phase, a group, or the
// shared "currently relevant matches" list.
type Scope struct {
	Kind ScopeKind `json:"kind"`
	ID   int       `json:"id,omitempty"`
}

func MatchScope(id int) Scope { return Scope{Kind: ScopeMatch, ID: id} }
func PhaseScope(id int) Scope { return Scope{Kind: ScopePhase, ID: id} }
func GroupScope(id int) Scope { return Scope{Kind: ScopeGroup, ID: id} }
func LiveListScope() Scope    { return Scope{Kind: ScopeLiveList} }

func (s Scope) String() string {
	if s.Kind == ScopeLiveList {
		return string(s.Kind)
	}
	return string(s.Kind) + ":" + strconv.Itoa(s.ID)
}

// Signal is a refresh hint: something in Scope may have changed, re-read the
// authoritative state. EntityID names the touched match (zero for the
// initial snapshot trigger). It is never a delta to apply.
type Signal struct {
	Scope    Scope `json:"scope"`
	EntityID int   `json:"entity_id,omitempty"`
}

// Event is what the mutation coordinator publishes after a successful
// persist: the changed match and every scope it touches.
type Event struct {
	MatchID int
	PhaseID int
	GroupID *int

	// LiveListChanged marks mutations that move the match onto or off the
	// live list (start, finish, cancel) or change a live score.
	LiveListChanged bool
}

// Scopes expands the event into the topics it must fan out to.
func (e Event) Scopes() []Scope {
	scopes := []Scope{MatchScope(e.MatchID), PhaseScope(e.PhaseID)}
	if e.GroupID != nil {
		scopes = append(scopes, GroupScope(*e.GroupID))
	}
	if e.LiveListChanged {
		scopes = append(scopes, LiveListScope())
	}
	return scopes
}

// subscriptionBuffer bounds the per-subscriber queue. A full queue drops the
// signal: at-least-once still holds because a refresh is already pending for
// the same scope.
const subscriptionBuffer = 8

// Subscription is one attached consumer of a scope.
type Subscription struct {
	scope Scope
	ch    chan Signal

	mu     sync.Mutex
	closed bool
}

// C is the signal stream. It is closed on unsubscribe.
func (s *Subscription) C() <-chan Signal { return s.ch }

func (s *Subscription) Scope() Scope { return s.scope }

// deliver queues a signal without ever blocking the publisher.
func (s *Subscription) deliver(sig Signal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- sig:
		return true
	default:
		return false
	}
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Hub routes change events to scope subscribers. Delivery is at-least-once
// and unordered across scopes; correctness lives in the consumers refetching
// canonical state, so the hub never needs sequence numbers or replay.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscription]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		topics: make(map[string]map[*Subscription]struct{}),
		logger: logger,
	}
}

// Subscribe attaches a consumer to scope. A snapshot-trigger signal is
// queued before return, so a new subscriber is never left stale.
func (h *Hub) Subscribe(scope Scope) *Subscription {
	sub := &Subscription{
		scope: scope,
		ch:    make(chan Signal, subscriptionBuffer),
	}
	// Initial refresh, delivered ahead of any published event.
	sub.ch <- Signal{Scope: scope}

	key := scope.String()
	h.mu.Lock()
	if _, ok := h.topics[key]; !ok {
		h.topics[key] = make(map[*Subscription]struct{})
	}
	h.topics[key][sub] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("subscriber attached", slog.String("scope", key))
	return sub
}

// Unsubscribe releases the subscription. Safe to call multiple times.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	key := sub.scope.String()

	h.mu.Lock()
	if subs, ok := h.topics[key]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.topics, key)
		}
	}
	h.mu.Unlock()

	sub.close()
}

// Publish fans a change event out to every scope it touches.
func (h *Hub) Publish(event Event) {
	for _, scope := range event.Scopes() {
		h.publishTo(scope, Signal{Scope: scope, EntityID: event.MatchID})
	}
}

func (h *Hub) publishTo(scope Scope, sig Signal) {
	h.mu.RLock()
	subs := h.topics[scope.String()]
	targets := make([]*Subscription, 0, len(subs))
	for sub := range subs {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		if !sub.deliver(sig) {
			h.logger.Debug("signal dropped", slog.String("scope", scope.String()),
				slog.Int("entity_id", sig.EntityID))
		}
	}
}

// SubscriberCount reports attached subscribers for a scope. Used by the
// admin surface and tests.
func (h *Hub) SubscriberCount(scope Scope) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[scope.String()])
}

// ParseScope turns a wire form ("match:42", "phase:7", "live") back into a
// Scope. Used by the websocket attach handler.
func ParseScope(kind string, id int) (Scope, error) {
	switch ScopeKind(kind) {
	case ScopeMatch:
		return MatchScope(id), nil
	case ScopePhase:
		return PhaseScope(id), nil
	case ScopeGroup:
		return GroupScope(id), nil
	case ScopeLiveList:
		return LiveListScope(), nil
	default:
		return Scope{}, fmt.Errorf("unknown scope kind %q", kind)
	}
}
