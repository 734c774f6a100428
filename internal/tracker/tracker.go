package tracker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/yourorg/campusbus/internal/models"
	"github.com/yourorg/campusbus/internal/validation"
)

// ============================================================================
// LOCATION TRACKER - AUTHORITATIVE "LATEST LOCATION PER BUS" STATE
// ============================================================================
// In-memory, concurrency-safe map from vehicle ID to its latest accepted
// location. Reports are stamped on arrival with a wall-clock time plus a
// strictly increasing sequence number; the stamp, not the client-supplied
// timestamp, decides which report wins. A report whose stamp does not
// exceed the stored one is rejected as stale and leaves state unchanged,
// so two simultaneous reports for the same bus always resolve to "later
// arrival wins".
//
// The client-supplied reported_at is stored verbatim and never checked
// against the server clock. A skewed device can report an arbitrarily old
// event time and still be accepted as long as its arrival is the newest;
// this matches the upstream product behavior.

// Result is the outcome of applying a location report.
type Result int

const (
	// Accepted means the report replaced the stored location.
	Accepted Result = iota
	// RejectedStale means a report with a later receive stamp was already stored.
	RejectedStale
	// RejectedInvalid means the report failed coordinate/speed validation.
	RejectedInvalid
)

func (r Result) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case RejectedStale:
		return "rejected_stale"
	case RejectedInvalid:
		return "rejected_invalid"
	default:
		return "unknown"
	}
}

// Store holds the latest accepted location per vehicle.
type Store struct {
	mu       sync.RWMutex
	vehicles map[string]models.VehicleLocation
	seq      atomic.Uint64

	// onAccept, when set, is invoked for every accepted report while the
	// store lock is held, so invocation order equals accept order. It must
	// never block (the hub enqueues without blocking).
	onAccept func(models.VehicleLocation)
}

// NewStore creates an empty location store.
func NewStore() *Store {
	return &Store{
		vehicles: make(map[string]models.VehicleLocation),
	}
}

// OnAccept registers the change listener. Call once during bootstrap,
// before reports start flowing.
func (s *Store) OnAccept(fn func(models.VehicleLocation)) {
	s.mu.Lock()
	s.onAccept = fn
	s.mu.Unlock()
}

// ApplyReport validates and stores a location report for a vehicle.
// On acceptance it returns the stored snapshot; on rejection it returns
// the currently stored location (zero value if none) untouched.
func (s *Store) ApplyReport(vehicleID string, rep models.LocationReport) (models.VehicleLocation, Result) {
	if err := validation.ValidateCoordinatePair(rep.Latitude, rep.Longitude, "report"); err != nil {
		cur, _ := s.Get(vehicleID)
		return cur, RejectedInvalid
	}
	if err := validation.ValidateSpeedKph(rep.SpeedKph, "report_speed"); err != nil {
		cur, _ := s.Get(vehicleID)
		return cur, RejectedInvalid
	}

	// Stamp on arrival, before taking the lock. Two racing reports for the
	// same bus then contend for the lock and the later stamp wins.
	loc := models.VehicleLocation{
		VehicleID:  vehicleID,
		RouteID:    rep.RouteID,
		Latitude:   rep.Latitude,
		Longitude:  rep.Longitude,
		SpeedKph:   rep.SpeedKph,
		ReportedAt: rep.ReportedAt.Time,
		ReceivedAt: time.Now().UTC(),
		ReceiveSeq: s.seq.Add(1),
	}

	return s.apply(loc)
}

// apply performs the atomic check-then-set for an already-stamped location.
func (s *Store) apply(loc models.VehicleLocation) (models.VehicleLocation, Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, exists := s.vehicles[loc.VehicleID]
	if exists && cur.ReceiveSeq >= loc.ReceiveSeq {
		return cur, RejectedStale
	}

	// A report without a route keeps the previous route assignment.
	if loc.RouteID == "" && exists {
		loc.RouteID = cur.RouteID
	}

	s.vehicles[loc.VehicleID] = loc

	if s.onAccept != nil {
		s.onAccept(loc)
	}

	return loc, Accepted
}

// Get returns the latest location for a vehicle, if it has ever reported.
func (s *Store) Get(vehicleID string) (models.VehicleLocation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loc, ok := s.vehicles[vehicleID]
	return loc, ok
}

// SnapshotAll returns a point-in-time copy of every vehicle's latest
// location. The returned map is owned by the caller.
func (s *Store) SnapshotAll() map[string]models.VehicleLocation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]models.VehicleLocation, len(s.vehicles))
	for id, loc := range s.vehicles {
		out[id] = loc
	}
	return out
}

// Count returns the number of vehicles that have reported at least once.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vehicles)
}
