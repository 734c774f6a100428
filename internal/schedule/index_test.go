package schedule

import (
	"errors"
	"testing"

	"github.com/yourorg/campusbus/internal/models"
)

func testRoutes() []models.RouteSchedule {
	return []models.RouteSchedule{
		{
			RouteID: "R2",
			Stops:   []string{"S1", "S3"},
			Weekday: []models.StopTime{{StopID: "S1", Departs: "08:30"}, {StopID: "S3", Departs: "08:50"}},
			Weekend: []models.StopTime{{StopID: "S1", Departs: "10:00"}},
		},
		{
			RouteID: "R1",
			Stops:   []string{"S1", "S2"},
			Weekday: []models.StopTime{{StopID: "S1", Departs: "08:00"}, {StopID: "S2", Departs: "08:15"}},
			Weekend: []models.StopTime{{StopID: "S1", Departs: "09:00"}},
		},
	}
}

func testStops() []models.Stop {
	return []models.Stop{
		{StopID: "S1", Name: "Main Gate", Latitude: 40.0, Longitude: -73.9},
		{StopID: "S2", Name: "Library", Latitude: 40.01, Longitude: -73.91},
		{StopID: "S3", Name: "Dorms", Latitude: 40.02, Longitude: -73.92},
	}
}

func newTestIndex() *Index {
	ix := NewIndex()
	ix.Load(testRoutes(), testStops())
	return ix
}

func TestScheduleForRoute(t *testing.T) {
	ix := newTestIndex()

	r, err := ix.ScheduleForRoute("R1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Stops) != 2 || r.Stops[0] != "S1" {
		t.Errorf("unexpected stops: %v", r.Stops)
	}
	if len(r.Weekday) != 2 || r.Weekday[1].Departs != "08:15" {
		t.Errorf("unexpected weekday table: %v", r.Weekday)
	}
}

func TestScheduleForRouteNotFound(t *testing.T) {
	ix := newTestIndex()

	_, err := ix.ScheduleForRoute("R99")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSchedulesForStop(t *testing.T) {
	ix := newTestIndex()

	got, err := ix.SchedulesForStop("S1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 routes serving S1, got %d", len(got))
	}
	// Stable route-ID order
	if got[0].RouteID != "R1" || got[1].RouteID != "R2" {
		t.Errorf("unexpected route order: %s, %s", got[0].RouteID, got[1].RouteID)
	}

	only, err := ix.SchedulesForStop("S2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(only) != 1 || only[0].RouteID != "R1" {
		t.Errorf("expected only R1 to serve S2, got %v", only)
	}
}

func TestSchedulesForUnknownStopIsNotFound(t *testing.T) {
	ix := newTestIndex()

	got, err := ix.SchedulesForStop("unknown-stop")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v (result %v)", err, got)
	}
	if got != nil {
		t.Errorf("expected nil result, got %v", got)
	}
}

func TestSetRouteUpdatesStopIndex(t *testing.T) {
	ix := newTestIndex()

	ix.SetRoute(models.RouteSchedule{
		RouteID: "R1",
		Stops:   []string{"S3"}, // R1 no longer serves S2
		Weekday: []models.StopTime{{StopID: "S3", Departs: "08:00"}},
	})

	if _, err := ix.SchedulesForStop("S2"); !errors.Is(err, ErrNotFound) {
		t.Error("expected S2 to have no serving routes after update")
	}

	got, err := ix.SchedulesForStop("S3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected R1 and R2 to serve S3, got %v", got)
	}
}

func TestScheduleCopiesAreNotLiveViews(t *testing.T) {
	ix := newTestIndex()

	r, _ := ix.ScheduleForRoute("R1")
	r.Stops[0] = "MUTATED"
	r.Weekday[0].Departs = "00:00"

	again, _ := ix.ScheduleForRoute("R1")
	if again.Stops[0] != "S1" || again.Weekday[0].Departs != "08:00" {
		t.Error("returned schedule shares memory with the index")
	}
}

func TestStopByID(t *testing.T) {
	ix := newTestIndex()

	s, ok := ix.StopByID("S1")
	if !ok || s.Name != "Main Gate" {
		t.Errorf("unexpected stop: %+v (ok=%v)", s, ok)
	}
	if _, ok := ix.StopByID("S99"); ok {
		t.Error("expected unknown stop to be absent")
	}
}

func TestLoopRouteIndexedOnce(t *testing.T) {
	ix := NewIndex()
	ix.Load([]models.RouteSchedule{
		{RouteID: "LOOP", Stops: []string{"S1", "S2", "S1"}},
	}, testStops())

	got, err := ix.SchedulesForStop("S1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("loop route indexed %d times for S1, want 1", len(got))
	}
}
