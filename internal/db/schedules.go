package db

import (
	"database/sql"
	"fmt"

	"github.com/yourorg/campusbus/internal/models"
)

// LoadStops reads every stop record.
func LoadStops(db *sql.DB) ([]models.Stop, error) {
	rows, err := db.Query(`SELECT stop_id, name, latitude, longitude FROM stops ORDER BY stop_id`)
	if err != nil {
		return nil, fmt.Errorf("load stops: %w", err)
	}
	defer rows.Close()

	var stops []models.Stop
	for rows.Next() {
		var s models.Stop
		if err := rows.Scan(&s.StopID, &s.Name, &s.Latitude, &s.Longitude); err != nil {
			return nil, fmt.Errorf("scan stop: %w", err)
		}
		stops = append(stops, s)
	}
	return stops, rows.Err()
}

// LoadRouteSchedules reads every route with its ordered stop list and
// both timetables.
func LoadRouteSchedules(db *sql.DB) ([]models.RouteSchedule, error) {
	rows, err := db.Query(`SELECT route_id, name, updated_at FROM routes ORDER BY route_id`)
	if err != nil {
		return nil, fmt.Errorf("load routes: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*models.RouteSchedule)
	var order []string
	for rows.Next() {
		var r models.RouteSchedule
		if err := rows.Scan(&r.RouteID, &r.Name, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan route: %w", err)
		}
		byID[r.RouteID] = &r
		order = append(order, r.RouteID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stopRows, err := db.Query(`SELECT route_id, stop_id FROM route_stops ORDER BY route_id, position`)
	if err != nil {
		return nil, fmt.Errorf("load route stops: %w", err)
	}
	defer stopRows.Close()
	for stopRows.Next() {
		var routeID, stopID string
		if err := stopRows.Scan(&routeID, &stopID); err != nil {
			return nil, fmt.Errorf("scan route stop: %w", err)
		}
		if r, ok := byID[routeID]; ok {
			r.Stops = append(r.Stops, stopID)
		}
	}
	if err := stopRows.Err(); err != nil {
		return nil, err
	}

	timeRows, err := db.Query(`SELECT route_id, day_type, stop_id, departs FROM schedule_times ORDER BY route_id, day_type, position`)
	if err != nil {
		return nil, fmt.Errorf("load schedule times: %w", err)
	}
	defer timeRows.Close()
	for timeRows.Next() {
		var routeID, dayType string
		var st models.StopTime
		if err := timeRows.Scan(&routeID, &dayType, &st.StopID, &st.Departs); err != nil {
			return nil, fmt.Errorf("scan schedule time: %w", err)
		}
		r, ok := byID[routeID]
		if !ok {
			continue
		}
		if dayType == "weekend" {
			r.Weekend = append(r.Weekend, st)
		} else {
			r.Weekday = append(r.Weekday, st)
		}
	}
	if err := timeRows.Err(); err != nil {
		return nil, err
	}

	routes := make([]models.RouteSchedule, 0, len(order))
	for _, id := range order {
		routes = append(routes, *byID[id])
	}
	return routes, nil
}

// SaveRouteSchedule persists one route's stop list and timetables in a
// single transaction, replacing whatever was stored before.
func SaveRouteSchedule(db *sql.DB, r models.RouteSchedule) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO routes (route_id, name) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE name = VALUES(name)
	`, r.RouteID, r.Name); err != nil {
		return fmt.Errorf("upsert route: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM route_stops WHERE route_id = ?`, r.RouteID); err != nil {
		return fmt.Errorf("clear route stops: %w", err)
	}
	for i, stopID := range r.Stops {
		if _, err := tx.Exec(`INSERT INTO route_stops (route_id, position, stop_id) VALUES (?, ?, ?)`,
			r.RouteID, i, stopID); err != nil {
			return fmt.Errorf("insert route stop: %w", err)
		}
	}

	if _, err := tx.Exec(`DELETE FROM schedule_times WHERE route_id = ?`, r.RouteID); err != nil {
		return fmt.Errorf("clear schedule times: %w", err)
	}
	for i, st := range r.Weekday {
		if _, err := tx.Exec(`INSERT INTO schedule_times (route_id, day_type, position, stop_id, departs) VALUES (?, 'weekday', ?, ?, ?)`,
			r.RouteID, i, st.StopID, st.Departs); err != nil {
			return fmt.Errorf("insert weekday time: %w", err)
		}
	}
	for i, st := range r.Weekend {
		if _, err := tx.Exec(`INSERT INTO schedule_times (route_id, day_type, position, stop_id, departs) VALUES (?, 'weekend', ?, ?, ?)`,
			r.RouteID, i, st.StopID, st.Departs); err != nil {
			return fmt.Errorf("insert weekend time: %w", err)
		}
	}

	return tx.Commit()
}

// InsertLocationHistory appends one accepted report to the durable sink.
// Best-effort: callers log failures instead of failing the report.
func InsertLocationHistory(db *sql.DB, loc models.VehicleLocation) error {
	reportedAt := sql.NullTime{Time: loc.ReportedAt, Valid: !loc.ReportedAt.IsZero()}
	routeID := sql.NullString{String: loc.RouteID, Valid: loc.RouteID != ""}

	_, err := db.Exec(`
		INSERT INTO location_history (vehicle_id, route_id, latitude, longitude, speed_kph, reported_at, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, loc.VehicleID, routeID, loc.Latitude, loc.Longitude, loc.SpeedKph, reportedAt, loc.ReceivedAt)
	return err
}
