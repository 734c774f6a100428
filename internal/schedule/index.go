package schedule

import (
	"errors"
	"sort"
	"sync"

	"github.com/yourorg/campusbus/internal/models"
)

// ErrNotFound is returned for unknown routes and for stops that no route
// serves. A stop with no serving routes is reported as not found, not as
// an empty list; the product tells the user nothing exists rather than
// returning an empty collection.
var ErrNotFound = errors.New("not found")

// Index answers schedule queries over the read-only route/stop data.
// It is re-derived from the database: bulk Load at startup and SetRoute /
// SetStops on administrative writes, which update the index synchronously
// before the write is acknowledged, so the index never serves data staler
// than the last completed write.
type Index struct {
	mu         sync.RWMutex
	routes     map[string]models.RouteSchedule
	stops      map[string]models.Stop
	stopRoutes map[string][]string // stopID -> sorted route IDs
}

// NewIndex creates an empty schedule index.
func NewIndex() *Index {
	return &Index{
		routes:     make(map[string]models.RouteSchedule),
		stops:      make(map[string]models.Stop),
		stopRoutes: make(map[string][]string),
	}
}

// Load replaces the whole index contents.
func (ix *Index) Load(routes []models.RouteSchedule, stops []models.Stop) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.routes = make(map[string]models.RouteSchedule, len(routes))
	ix.stops = make(map[string]models.Stop, len(stops))
	ix.stopRoutes = make(map[string][]string)

	for _, s := range stops {
		ix.stops[s.StopID] = s
	}
	for _, r := range routes {
		ix.routes[r.RouteID] = cloneRoute(r)
	}
	ix.rebuildStopRoutesLocked()
}

// SetRoute upserts one route's schedule and refreshes the stop index.
func (ix *Index) SetRoute(r models.RouteSchedule) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.routes[r.RouteID] = cloneRoute(r)
	ix.rebuildStopRoutesLocked()
}

// SetStops upserts stop records.
func (ix *Index) SetStops(stops []models.Stop) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, s := range stops {
		ix.stops[s.StopID] = s
	}
}

// ScheduleForRoute returns one route's schedule.
func (ix *Index) ScheduleForRoute(routeID string) (models.RouteSchedule, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	r, ok := ix.routes[routeID]
	if !ok {
		return models.RouteSchedule{}, ErrNotFound
	}
	return cloneRoute(r), nil
}

// AllSchedules returns every route's schedule keyed by route ID.
func (ix *Index) AllSchedules() map[string]models.RouteSchedule {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make(map[string]models.RouteSchedule, len(ix.routes))
	for id, r := range ix.routes {
		out[id] = cloneRoute(r)
	}
	return out
}

// SchedulesForStop returns, in route-ID order, every route serving the
// stop with both of its timetables.
func (ix *Index) SchedulesForStop(stopID string) ([]models.StopSchedule, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	routeIDs := ix.stopRoutes[stopID]
	if len(routeIDs) == 0 {
		return nil, ErrNotFound
	}

	out := make([]models.StopSchedule, 0, len(routeIDs))
	for _, id := range routeIDs {
		r := ix.routes[id]
		out = append(out, models.StopSchedule{
			RouteID: id,
			Weekday: append([]models.StopTime(nil), r.Weekday...),
			Weekend: append([]models.StopTime(nil), r.Weekend...),
		})
	}
	return out, nil
}

// StopByID returns a stop's fixed record. Used by the ETA estimator.
func (ix *Index) StopByID(stopID string) (models.Stop, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	s, ok := ix.stops[stopID]
	return s, ok
}

// RouteCount returns the number of indexed routes.
func (ix *Index) RouteCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.routes)
}

// StopCount returns the number of indexed stops.
func (ix *Index) StopCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.stops)
}

func (ix *Index) rebuildStopRoutesLocked() {
	ix.stopRoutes = make(map[string][]string)
	for id, r := range ix.routes {
		seen := make(map[string]bool, len(r.Stops))
		for _, stopID := range r.Stops {
			// A loop route may visit a stop twice; index it once.
			if seen[stopID] {
				continue
			}
			seen[stopID] = true
			ix.stopRoutes[stopID] = append(ix.stopRoutes[stopID], id)
		}
	}
	for stopID := range ix.stopRoutes {
		sort.Strings(ix.stopRoutes[stopID])
	}
}

// cloneRoute copies the slices so callers never hold a live view.
func cloneRoute(r models.RouteSchedule) models.RouteSchedule {
	r.Stops = append([]string(nil), r.Stops...)
	r.Weekday = append([]models.StopTime(nil), r.Weekday...)
	r.Weekend = append([]models.StopTime(nil), r.Weekend...)
	return r
}
