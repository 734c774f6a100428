package hub

import (
	"sync"

	"github.com/google/uuid"

	"github.com/yourorg/campusbus/internal/models"
)

// ============================================================================
// SUBSCRIPTION HUB - REAL-TIME FAN-OUT
// ============================================================================
// Replaces client polling: every accepted location report and every
// schedule write is pushed to interested subscribers. The producer path
// never waits for a consumer. Each subscription owns a bounded queue;
// when it is full the oldest pending event is dropped so a stalled
// reader converges on the latest state instead of accumulating a backlog.
//
// Publish calls are made in the producer's own order (location events are
// published while the tracker holds its lock), so every subscriber sees
// the same relative order as the store's accept order.

// DefaultQueueSize is the per-subscription bounded queue length.
const DefaultQueueSize = 64

// EventType discriminates the payload of an Event.
type EventType string

const (
	EventLocation EventType = "location"
	EventSchedule EventType = "schedule"
)

// Event is one pushed state change.
type Event struct {
	Type     EventType               `json:"type"`
	Location *models.VehicleLocation `json:"location,omitempty"`
	Schedule *models.RouteSchedule   `json:"schedule,omitempty"`
}

type scopeKind int

const (
	scopeAllVehicles scopeKind = iota
	scopeVehicle
	scopeRoute
)

// Scope selects which events a subscription receives.
type Scope struct {
	kind      scopeKind
	vehicleID string
	routeID   string
}

// AllVehicles subscribes to every bus's location updates.
func AllVehicles() Scope {
	return Scope{kind: scopeAllVehicles}
}

// OneVehicle subscribes to a single bus's location updates.
func OneVehicle(vehicleID string) Scope {
	return Scope{kind: scopeVehicle, vehicleID: vehicleID}
}

// OneRoute subscribes to a single route's schedule updates.
func OneRoute(routeID string) Scope {
	return Scope{kind: scopeRoute, routeID: routeID}
}

func (s Scope) wantsLocation(loc *models.VehicleLocation) bool {
	switch s.kind {
	case scopeAllVehicles:
		return true
	case scopeVehicle:
		return s.vehicleID == loc.VehicleID
	default:
		return false
	}
}

func (s Scope) wantsSchedule(routeID string) bool {
	return s.kind == scopeRoute && s.routeID == routeID
}

// Subscription is one live registration. Active from Subscribe until
// Close; Close is terminal and idempotent.
type Subscription struct {
	ID    string
	scope Scope
	hub   *Hub

	mu     sync.Mutex
	closed bool
	ch     chan Event
}

// C is the delivery channel. It is closed when the subscription closes.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Close unregisters the subscription and releases its queue. Safe to call
// more than once and from any goroutine; no events are delivered after it
// returns.
func (s *Subscription) Close() {
	s.hub.remove(s.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// deliver enqueues without ever blocking the caller. When the queue is
// full the oldest pending event is discarded, never the newest.
func (s *Subscription) deliver(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- ev:
			return
		default:
			select {
			case <-s.ch:
			default:
			}
		}
	}
}

// Hub fans state changes out to subscriptions.
type Hub struct {
	mu        sync.RWMutex
	subs      map[string]*Subscription
	queueSize int
}

// New creates a hub with the default per-subscription queue size.
func New() *Hub {
	return NewWithQueueSize(DefaultQueueSize)
}

// NewWithQueueSize creates a hub with a custom queue size (min 1).
func NewWithQueueSize(size int) *Hub {
	if size < 1 {
		size = 1
	}
	return &Hub{
		subs:      make(map[string]*Subscription),
		queueSize: size,
	}
}

// Subscribe registers interest and returns the live subscription.
func (h *Hub) Subscribe(scope Scope) *Subscription {
	sub := &Subscription{
		ID:    uuid.NewString(),
		scope: scope,
		hub:   h,
		ch:    make(chan Event, h.queueSize),
	}

	h.mu.Lock()
	h.subs[sub.ID] = sub
	h.mu.Unlock()

	return sub
}

// PublishLocation pushes an accepted location to every interested
// subscription. Never blocks; intended to be called from the tracker's
// accept path.
func (h *Hub) PublishLocation(loc models.VehicleLocation) {
	ev := Event{Type: EventLocation, Location: &loc}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if sub.scope.wantsLocation(&loc) {
			sub.deliver(ev)
		}
	}
}

// PublishSchedule pushes an updated route schedule to that route's
// subscribers.
func (h *Hub) PublishSchedule(sched models.RouteSchedule) {
	ev := Event{Type: EventSchedule, Schedule: &sched}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if sub.scope.wantsSchedule(sched.RouteID) {
			sub.deliver(ev)
		}
	}
}

// Count returns the number of active subscriptions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}
