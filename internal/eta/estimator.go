package eta

import (
	"errors"
	"fmt"
	"math"

	"github.com/yourorg/campusbus/internal/geo"
	"github.com/yourorg/campusbus/internal/models"
)

// ErrNotFound is returned when the vehicle has never reported a location
// or the stop is unknown. The HTTP layer collapses both into one 404.
var ErrNotFound = errors.New("not found")

// FallbackSpeedKph is assumed when a bus reports no speed (zero or
// absent). 30 km/h is an assumed urban cruising speed inherited from the
// original system, a deliberate approximation rather than a measured
// value. Tests encode this literal constant.
const FallbackSpeedKph = 30.0

// VehicleLocator yields the latest known location for a vehicle.
type VehicleLocator interface {
	Get(vehicleID string) (models.VehicleLocation, bool)
}

// StopResolver yields the fixed record for a stop.
type StopResolver interface {
	StopByID(stopID string) (models.Stop, bool)
}

// Estimator computes straight-line arrival estimates. It performs no
// route following and no traffic modeling; this is an explicit
// simplification, not a defect.
type Estimator struct {
	vehicles VehicleLocator
	stops    StopResolver
}

// NewEstimator builds an estimator over the given location and stop sources.
func NewEstimator(vehicles VehicleLocator, stops StopResolver) *Estimator {
	return &Estimator{vehicles: vehicles, stops: stops}
}

// Estimate returns the whole minutes until vehicleID reaches stopID,
// based on great-circle distance and the bus's last reported speed
// (FallbackSpeedKph when it reported none).
func (e *Estimator) Estimate(vehicleID, stopID string) (int, error) {
	loc, ok := e.vehicles.Get(vehicleID)
	if !ok {
		return 0, fmt.Errorf("vehicle %q has no reported location: %w", vehicleID, ErrNotFound)
	}

	stop, ok := e.stops.StopByID(stopID)
	if !ok {
		return 0, fmt.Errorf("stop %q: %w", stopID, ErrNotFound)
	}

	distance := geo.DistanceKm(loc.Latitude, loc.Longitude, stop.Latitude, stop.Longitude)

	speed := loc.SpeedKph
	if speed <= 0 {
		speed = FallbackSpeedKph
	}

	return int(math.Round(distance / speed * 60)), nil
}
