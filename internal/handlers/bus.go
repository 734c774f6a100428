package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/campusbus/internal/cache"
	"github.com/yourorg/campusbus/internal/db"
	"github.com/yourorg/campusbus/internal/eta"
	"github.com/yourorg/campusbus/internal/models"
	"github.com/yourorg/campusbus/internal/tracker"
	"github.com/yourorg/campusbus/internal/validation"
)

// BusHandler serves live bus locations and arrival estimates.
type BusHandler struct {
	db  *sql.DB
	svc Services
}

// NewBusHandler creates a new instance of the handler.
func NewBusHandler(database *sql.DB, svc Services) *BusHandler {
	return &BusHandler{db: database, svc: svc}
}

// GetBuses handles GET /api/bus
// Returns the latest known location for every bus, keyed by bus ID.
func (h *BusHandler) GetBuses(c *fiber.Ctx) error {
	return c.JSON(h.svc.Tracker.SnapshotAll())
}

// GetBusLocation handles GET /api/bus/:busId/location
func (h *BusHandler) GetBusLocation(c *fiber.Ctx) error {
	busID := strings.TrimSpace(c.Params("busId"))
	if busID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "bus id is required"})
	}

	loc, ok := h.svc.Tracker.Get(busID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{Error: "bus not found"})
	}
	return c.JSON(loc)
}

// UpdateBusLocation handles PUT /api/bus/:busId/location
// Accepts a driver location report. The tracker stamps it on arrival and
// either stores it, rejects it as invalid, or rejects it as superseded.
func (h *BusHandler) UpdateBusLocation(c *fiber.Ctx) error {
	busID := strings.TrimSpace(c.Params("busId"))
	if busID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "bus id is required"})
	}

	var rep models.LocationReport
	if err := c.BodyParser(&rep); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "invalid request format"})
	}

	// (0,0) is in range but almost always a GPS cold start, not a campus bus.
	if validation.IsZeroCoordinate(rep.Latitude, rep.Longitude) {
		log.Printf("bus %s reported (0,0), likely GPS cold start", busID)
	}

	loc, res := h.svc.Tracker.ApplyReport(busID, rep)
	switch res {
	case tracker.RejectedInvalid:
		return c.Status(fiber.StatusUnprocessableEntity).JSON(models.ErrorResponse{Error: "invalid coordinates or speed"})
	case tracker.RejectedStale:
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "stale report",
			"message": "your update was not the latest",
		})
	}

	// The accepted report supersedes any estimate computed from the
	// previous location.
	if cache.EtaCache != nil {
		cache.EtaCache.DeletePrefix(fmt.Sprintf("eta:%s:", busID))
	}

	// Durable sink is best-effort; never fail an accepted report over it.
	if h.db != nil {
		if err := db.InsertLocationHistory(h.db, loc); err != nil {
			log.Printf("location history insert failed for %s: %v", busID, err)
		}
	}

	return c.JSON(fiber.Map{
		"message":  "location updated successfully",
		"location": loc,
	})
}

// GetETA handles GET /api/bus/:busId/eta/:stopId
func (h *BusHandler) GetETA(c *fiber.Ctx) error {
	busID := strings.TrimSpace(c.Params("busId"))
	stopID := strings.TrimSpace(c.Params("stopId"))
	if busID == "" || stopID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "bus id and stop id are required"})
	}

	cacheKey := fmt.Sprintf("eta:%s:%s", busID, stopID)
	if cache.EtaCache != nil {
		if v, found := cache.EtaCache.Get(cacheKey); found {
			return c.JSON(models.ETAResponse{ETA: v.(int)})
		}
	}

	minutes, err := h.svc.Estimator.Estimate(busID, stopID)
	if err != nil {
		if errors.Is(err, eta.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{Error: "bus or stop not found"})
		}
		log.Printf("eta estimate failed for %s/%s: %v", busID, stopID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "error calculating ETA"})
	}

	if cache.EtaCache != nil {
		cache.EtaCache.Set(cacheKey, minutes)
	}

	return c.JSON(models.ETAResponse{ETA: minutes})
}
