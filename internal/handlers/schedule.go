package handlers

import (
	"database/sql"
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/campusbus/internal/cache"
	"github.com/yourorg/campusbus/internal/db"
	"github.com/yourorg/campusbus/internal/models"
	"github.com/yourorg/campusbus/internal/schedule"
)

// ScheduleHandler serves route and stop timetables.
type ScheduleHandler struct {
	db  *sql.DB
	svc Services
}

// NewScheduleHandler creates a new instance of the handler.
func NewScheduleHandler(database *sql.DB, svc Services) *ScheduleHandler {
	return &ScheduleHandler{db: database, svc: svc}
}

// GetSchedules handles GET /api/schedule
func (h *ScheduleHandler) GetSchedules(c *fiber.Ctx) error {
	return c.JSON(h.svc.Index.AllSchedules())
}

// GetScheduleByRoute handles GET /api/schedule/route/:routeId
func (h *ScheduleHandler) GetScheduleByRoute(c *fiber.Ctx) error {
	routeID := strings.TrimSpace(c.Params("routeId"))
	if routeID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "route id is required"})
	}

	r, err := h.svc.Index.ScheduleForRoute(routeID)
	if err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{Error: "schedule not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "error fetching schedule"})
	}
	return c.JSON(r)
}

// UpdateSchedule handles PUT /api/schedule/route/:routeId (admin only)
// Persists the schedule, refreshes the in-memory index synchronously so
// reads after this write never see the old timetable, then notifies
// route subscribers.
func (h *ScheduleHandler) UpdateSchedule(c *fiber.Ctx) error {
	routeID := strings.TrimSpace(c.Params("routeId"))
	if routeID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "route id is required"})
	}

	var req struct {
		Name    string            `json:"name"`
		Stops   []string          `json:"stops"`
		Weekday []models.StopTime `json:"weekdaySchedule"`
		Weekend []models.StopTime `json:"weekendSchedule"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "invalid json"})
	}
	if len(req.Stops) == 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(models.ErrorResponse{Error: "stops required"})
	}

	r := models.RouteSchedule{
		RouteID: routeID,
		Name:    req.Name,
		Stops:   req.Stops,
		Weekday: req.Weekday,
		Weekend: req.Weekend,
	}

	if h.db != nil {
		if err := db.SaveRouteSchedule(h.db, r); err != nil {
			log.Printf("schedule save failed for %s: %v", routeID, err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error":     "datastore unavailable",
				"retryable": true,
			})
		}
	}

	h.svc.Index.SetRoute(r)
	if cache.ScheduleCache != nil {
		cache.ScheduleCache.DeletePrefix("stop:")
	}
	h.svc.Hub.PublishSchedule(r)

	return c.JSON(fiber.Map{"message": "schedule updated successfully"})
}

// GetSchedulesByStop handles GET /api/schedule/stop/:stopId
// 404 when no route serves the stop; the product reports "nothing exists"
// instead of an empty list.
func (h *ScheduleHandler) GetSchedulesByStop(c *fiber.Ctx) error {
	stopID := strings.TrimSpace(c.Params("stopId"))
	if stopID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "stop id is required"})
	}

	cacheKey := "stop:" + stopID
	if cache.ScheduleCache != nil {
		if v, found := cache.ScheduleCache.Get(cacheKey); found {
			return c.JSON(v)
		}
	}

	schedules, err := h.svc.Index.SchedulesForStop(stopID)
	if err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{Error: "no schedules found for this stop"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "error fetching stop schedules"})
	}

	if cache.ScheduleCache != nil {
		cache.ScheduleCache.Set(cacheKey, schedules)
	}
	return c.JSON(schedules)
}
