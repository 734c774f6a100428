package routes

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/yourorg/campusbus/internal/handlers"
	"github.com/yourorg/campusbus/internal/middleware"
)

// Register wires the HTTP and websocket surface. Call after
// handlers.Setup has run.
func Register(app *fiber.App, db *sql.DB, svc handlers.Services) {
	// ============================================================================
	// PUBLIC API
	// ============================================================================
	api := app.Group("/api")

	// Health check (no rate limiting)
	api.Get("/health", handlers.Health)

	// ============================================================================
	// AUTHENTICATION (strict rate limiting)
	// ============================================================================
	authGroup := api.Group("/auth")
	authGroup.Post("/login", middleware.StrictRateLimiter(), handlers.Login)
	authGroup.Post("/register", middleware.StrictRateLimiter(), handlers.Register)
	authGroup.Get("/profile", handlers.RequireAuth, handlers.Profile)
	authGroup.Put("/profile", handlers.RequireAuth, handlers.UpdateProfile)

	// Initialize handlers
	busHandler := handlers.NewBusHandler(db, svc)
	scheduleHandler := handlers.NewScheduleHandler(db, svc)

	// ============================================================================
	// BUSES (live locations + ETA)
	// ============================================================================
	bus := api.Group("/bus")

	bus.Get("/", busHandler.GetBuses)
	// GET /api/bus - latest location for every bus

	bus.Get("/:busId/location", busHandler.GetBusLocation)
	// GET /api/bus/B1/location - one bus, 404 if it never reported

	bus.Put("/:busId/location", middleware.ReportRateLimiter(), handlers.RequireAuth, busHandler.UpdateBusLocation)
	// PUT /api/bus/B1/location - driver report (bearer token required)

	bus.Get("/:busId/eta/:stopId", busHandler.GetETA)
	// GET /api/bus/B1/eta/S1 - straight-line arrival estimate in minutes

	// ============================================================================
	// SCHEDULES (timetables per route / per stop)
	// ============================================================================
	sched := api.Group("/schedule")

	sched.Get("/", scheduleHandler.GetSchedules)
	// GET /api/schedule - every route's schedule

	sched.Get("/route/:routeId", scheduleHandler.GetScheduleByRoute)
	// GET /api/schedule/route/R1

	sched.Put("/route/:routeId", handlers.RequireAuth, handlers.RequireAdmin, scheduleHandler.UpdateSchedule)
	// PUT /api/schedule/route/R1 - admin write: stops + weekday/weekend tables

	sched.Get("/stop/:stopId", scheduleHandler.GetSchedulesByStop)
	// GET /api/schedule/stop/S1 - 404 when no route serves the stop

	// ============================================================================
	// LIVE PUSH (websocket, replaces polling)
	// ============================================================================
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/buses", websocket.New(handlers.StreamAllBuses))
	app.Get("/ws/buses/:busId", websocket.New(handlers.StreamBus))
	app.Get("/ws/routes/:routeId", websocket.New(handlers.StreamRouteSchedule))
}
