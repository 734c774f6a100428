package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Stop represents a fixed bus stop on campus.
type Stop struct {
	StopID    string  `json:"stop_id" db:"stop_id"`
	Name      string  `json:"name" db:"name"`
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// StopTime is one (stop, scheduled time) entry in a timetable.
// Departs uses "HH:MM" 24h local time.
type StopTime struct {
	StopID  string `json:"stop_id" db:"stop_id"`
	Departs string `json:"departs" db:"departs"`
}

// RouteSchedule is a route's ordered stop list plus its weekday and
// weekend timetables. Read-only to the core; mutated only through
// administrative writes.
type RouteSchedule struct {
	RouteID   string     `json:"route_id" db:"route_id"`
	Name      string     `json:"name,omitempty" db:"name"`
	Stops     []string   `json:"stops"`
	Weekday   []StopTime `json:"weekday_schedule"`
	Weekend   []StopTime `json:"weekend_schedule"`
	UpdatedAt time.Time  `json:"updated_at,omitempty"`
}

// ServesStop reports whether the route's stop list contains stopID.
func (r *RouteSchedule) ServesStop(stopID string) bool {
	for _, s := range r.Stops {
		if s == stopID {
			return true
		}
	}
	return false
}

// StopSchedule is the per-route view returned when querying a stop:
// every route serving the stop with both of its timetables.
type StopSchedule struct {
	RouteID string     `json:"route_id"`
	Weekday []StopTime `json:"weekday_schedule"`
	Weekend []StopTime `json:"weekend_schedule"`
}

// VehicleLocation is the latest accepted location report for one bus.
// ReceivedAt/ReceiveSeq are assigned by the server on arrival and are
// authoritative for ordering; ReportedAt is client-supplied event time
// and is stored verbatim (never checked against the server clock).
type VehicleLocation struct {
	VehicleID  string    `json:"vehicle_id"`
	RouteID    string    `json:"route_id,omitempty"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	SpeedKph   float64   `json:"speed"`
	ReportedAt time.Time `json:"reported_at"`
	ReceivedAt time.Time `json:"last_update"`
	ReceiveSeq uint64    `json:"-"`
}

// LocationReport is the PUT body for a driver location update.
type LocationReport struct {
	Latitude   float64      `json:"latitude"`
	Longitude  float64      `json:"longitude"`
	SpeedKph   float64      `json:"speed"`
	RouteID    string       `json:"route_id,omitempty"`
	ReportedAt FlexibleTime `json:"timestamp"`
}

// ETAResponse is returned by the ETA endpoint, minutes until arrival.
type ETAResponse struct {
	ETA int `json:"eta"`
}

// FlexibleTime parses timestamps in any of the formats reporting devices
// actually send.
type FlexibleTime struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler for flexible date parsing.
func (ft *FlexibleTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" || string(data) == `""` {
		ft.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Some devices send epoch milliseconds as a bare number
		var ms int64
		if err2 := json.Unmarshal(data, &ms); err2 == nil {
			ft.Time = time.UnixMilli(ms).UTC()
			return nil
		}
		return err
	}

	formats := []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05.999999",
		"2006-01-02 15:04:05",
	}

	var parseErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			ft.Time = t
			return nil
		} else {
			parseErr = err
		}
	}

	return fmt.Errorf("unable to parse time %q with any known format: %v", s, parseErr)
}

// MarshalJSON renders the time as RFC3339, or null when zero.
func (ft FlexibleTime) MarshalJSON() ([]byte, error) {
	if ft.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ft.Time.Format(time.RFC3339))
}
