package validation

import (
	"math"
	"testing"
)

func TestValidateLatitude(t *testing.T) {
	if err := ValidateLatitude(45.5, "lat"); err != nil {
		t.Errorf("expected 45.5 to be valid, got %v", err)
	}
	if err := ValidateLatitude(-90, "lat"); err != nil {
		t.Errorf("expected -90 to be valid, got %v", err)
	}
	if err := ValidateLatitude(90.0001, "lat"); err == nil {
		t.Error("expected 90.0001 to be rejected")
	}
	if err := ValidateLatitude(math.NaN(), "lat"); err == nil {
		t.Error("expected NaN to be rejected")
	}
	if err := ValidateLatitude(math.Inf(1), "lat"); err == nil {
		t.Error("expected +Inf to be rejected")
	}
}

func TestValidateLongitude(t *testing.T) {
	if err := ValidateLongitude(-73.9, "lon"); err != nil {
		t.Errorf("expected -73.9 to be valid, got %v", err)
	}
	if err := ValidateLongitude(180, "lon"); err != nil {
		t.Errorf("expected 180 to be valid, got %v", err)
	}
	if err := ValidateLongitude(-181, "lon"); err == nil {
		t.Error("expected -181 to be rejected")
	}
}

func TestValidateSpeedKph(t *testing.T) {
	if err := ValidateSpeedKph(0, "speed"); err != nil {
		t.Errorf("expected 0 to be valid (unknown speed), got %v", err)
	}
	if err := ValidateSpeedKph(42.5, "speed"); err != nil {
		t.Errorf("expected 42.5 to be valid, got %v", err)
	}
	if err := ValidateSpeedKph(-1, "speed"); err == nil {
		t.Error("expected negative speed to be rejected")
	}
	if err := ValidateSpeedKph(math.NaN(), "speed"); err == nil {
		t.Error("expected NaN speed to be rejected")
	}
}

func TestCoordinateErrorMessage(t *testing.T) {
	err := ValidateLatitude(95, "from_lat")
	cerr, ok := err.(*CoordinateError)
	if !ok {
		t.Fatalf("expected *CoordinateError, got %T", err)
	}
	if cerr.Field != "from_lat" {
		t.Errorf("expected field from_lat, got %s", cerr.Field)
	}
	if cerr.Value != 95 {
		t.Errorf("expected value 95, got %v", cerr.Value)
	}
}

func TestIsZeroCoordinate(t *testing.T) {
	if !IsZeroCoordinate(0, 0) {
		t.Error("expected (0,0) to be flagged")
	}
	if IsZeroCoordinate(0, -73.9) {
		t.Error("(0,-73.9) is a real coordinate, not a cold start")
	}
	if IsZeroCoordinate(40.0, 0) {
		t.Error("(40,0) is a real coordinate, not a cold start")
	}
}
