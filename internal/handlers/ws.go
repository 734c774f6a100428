package handlers

import (
	"errors"

	"github.com/gofiber/websocket/v2"

	"github.com/yourorg/campusbus/internal/hub"
	"github.com/yourorg/campusbus/internal/models"
	"github.com/yourorg/campusbus/internal/schedule"
)

// Websocket endpoints replace client polling: on connect the client gets
// the current state, then ordered deltas until either side closes.

type snapshotMessage struct {
	Type     string                            `json:"type"`
	Vehicles map[string]models.VehicleLocation `json:"vehicles,omitempty"`
	Schedule *models.RouteSchedule             `json:"schedule,omitempty"`
}

// StreamAllBuses handles GET /ws/buses
func StreamAllBuses(conn *websocket.Conn) {
	svc := getServices()

	snap := snapshotMessage{Type: "snapshot", Vehicles: svc.Tracker.SnapshotAll()}
	stream(conn, svc.Hub.Subscribe(hub.AllVehicles()), snap)
}

// StreamBus handles GET /ws/buses/:busId
func StreamBus(conn *websocket.Conn) {
	svc := getServices()
	busID := conn.Params("busId")

	snap := snapshotMessage{Type: "snapshot", Vehicles: map[string]models.VehicleLocation{}}
	if loc, ok := svc.Tracker.Get(busID); ok {
		snap.Vehicles[busID] = loc
	}
	stream(conn, svc.Hub.Subscribe(hub.OneVehicle(busID)), snap)
}

// StreamRouteSchedule handles GET /ws/routes/:routeId
func StreamRouteSchedule(conn *websocket.Conn) {
	svc := getServices()
	routeID := conn.Params("routeId")

	snap := snapshotMessage{Type: "snapshot"}
	if r, err := svc.Index.ScheduleForRoute(routeID); err == nil {
		snap.Schedule = &r
	} else if errors.Is(err, schedule.ErrNotFound) {
		_ = conn.WriteJSON(models.ErrorResponse{Error: "schedule not found"})
		_ = conn.Close()
		return
	}
	stream(conn, svc.Hub.Subscribe(hub.OneRoute(routeID)), snap)
}

// stream sends the initial snapshot, then forwards subscription events
// until the client goes away. Closing the subscription releases its queue
// synchronously; other subscribers are unaffected.
func stream(conn *websocket.Conn, sub *hub.Subscription, snapshot snapshotMessage) {
	defer sub.Close()
	defer conn.Close()

	if err := conn.WriteJSON(snapshot); err != nil {
		return
	}

	// Drain client frames only to detect disconnect; inbound payloads are
	// ignored.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
