package eta

import (
	"errors"
	"testing"
	"time"

	"github.com/yourorg/campusbus/internal/models"
	"github.com/yourorg/campusbus/internal/schedule"
	"github.com/yourorg/campusbus/internal/tracker"
)

func testEstimator(t *testing.T) (*Estimator, *tracker.Store) {
	t.Helper()

	store := tracker.NewStore()
	ix := schedule.NewIndex()
	ix.Load(nil, []models.Stop{
		{StopID: "S1", Name: "Main Gate", Latitude: 40.0, Longitude: -73.9},
	})
	return NewEstimator(store, ix), store
}

func apply(t *testing.T, store *tracker.Store, id string, lat, lon, speed float64) {
	t.Helper()
	_, res := store.ApplyReport(id, models.LocationReport{
		Latitude:   lat,
		Longitude:  lon,
		SpeedKph:   speed,
		ReportedAt: models.FlexibleTime{Time: time.Now()},
	})
	if res != tracker.Accepted {
		t.Fatalf("report for %s not accepted: %v", id, res)
	}
}

func TestEstimateStraightLine(t *testing.T) {
	est, store := testEstimator(t)

	// ~8.55 km east of S1 along the sphere at latitude 40, cruising at 30 km/h
	apply(t, store, "B1", 40.0, -74.0, 30)

	eta, err := est.Estimate("B1", "S1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eta != 17 {
		t.Errorf("eta = %d minutes, want 17 (8.55 km / 30 kph * 60)", eta)
	}
}

func TestEstimateAtStopIsZero(t *testing.T) {
	est, store := testEstimator(t)

	apply(t, store, "B1", 40.0, -73.9, 25)

	eta, err := est.Estimate("B1", "S1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eta != 0 {
		t.Errorf("eta at the stop's exact coordinates = %d, want 0", eta)
	}
}

func TestEstimateFallbackSpeed(t *testing.T) {
	est, store := testEstimator(t)

	// Zero speed falls back to the assumed 30 km/h cruising speed.
	apply(t, store, "B1", 40.0, -74.0, 0)

	eta, err := est.Estimate("B1", "S1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eta != 17 {
		t.Errorf("eta with fallback speed = %d, want 17", eta)
	}
}

func TestEstimateFasterBus(t *testing.T) {
	est, store := testEstimator(t)

	apply(t, store, "B1", 40.0, -74.0, 60)

	eta, err := est.Estimate("B1", "S1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 8.55 km at 60 km/h is ~8.6 minutes, rounded to 9
	if eta != 9 {
		t.Errorf("eta = %d, want 9", eta)
	}
}

func TestEstimateUnreportedVehicle(t *testing.T) {
	est, _ := testEstimator(t)

	if _, err := est.Estimate("ghost", "S1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unreported vehicle, got %v", err)
	}
}

func TestEstimateUnknownStop(t *testing.T) {
	est, store := testEstimator(t)

	apply(t, store, "B1", 40.0, -74.0, 30)

	if _, err := est.Estimate("B1", "S99"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown stop, got %v", err)
	}
}
