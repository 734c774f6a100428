package main

import (
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/yourorg/campusbus/internal/cache"
	appdb "github.com/yourorg/campusbus/internal/db"
	"github.com/yourorg/campusbus/internal/eta"
	"github.com/yourorg/campusbus/internal/handlers"
	"github.com/yourorg/campusbus/internal/hub"
	"github.com/yourorg/campusbus/internal/routes"
	"github.com/yourorg/campusbus/internal/schedule"
	"github.com/yourorg/campusbus/internal/tracker"
)

func main() {
	_ = godotenv.Load()

	app := fiber.New()
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	// ============================================================================
	// LIVE ENGINE - tracker, hub, schedule index, estimator
	// ============================================================================
	// These are in-memory and ready before the database is: location
	// reports and websocket subscribers never wait on MySQL.
	store := tracker.NewStore()
	pushHub := hub.New()
	index := schedule.NewIndex()
	estimator := eta.NewEstimator(store, index)

	// Every accepted report fans out to subscribers in accept order.
	store.OnAccept(pushHub.PublishLocation)

	svc := handlers.Services{
		Tracker:   store,
		Index:     index,
		Estimator: estimator,
		Hub:       pushHub,
	}

	// ============================================================================
	// DB CONNECTION (retry in background, register routes when ready)
	// ============================================================================
	var dbReady atomic.Bool

	go func() {
		for {
			db, err := appdb.Connect()
			if err != nil {
				log.Printf("db connect error: %v (retrying in 5s)", err)
				time.Sleep(5 * time.Second)
				continue
			}
			if err := appdb.EnsureSchema(db); err != nil {
				log.Printf("ensure schema error: %v (retrying in 5s)", err)
				time.Sleep(5 * time.Second)
				continue
			}

			// Load the read-only route/stop data into the index.
			stops, err := appdb.LoadStops(db)
			if err != nil {
				log.Printf("load stops error: %v (retrying in 5s)", err)
				time.Sleep(5 * time.Second)
				continue
			}
			scheds, err := appdb.LoadRouteSchedules(db)
			if err != nil {
				log.Printf("load schedules error: %v (retrying in 5s)", err)
				time.Sleep(5 * time.Second)
				continue
			}
			index.Load(scheds, stops)

			handlers.Setup(db, svc)
			routes.Register(app, db, svc)
			dbReady.Store(true)
			log.Printf("✅ Database ready: %d routes, %d stops indexed", index.RouteCount(), index.StopCount())
			return
		}
	}()

	// Wait briefly for DB to be ready
	for i := 0; i < 10 && !dbReady.Load(); i++ {
		time.Sleep(500 * time.Millisecond)
	}

	// ============================================================================
	// GRACEFUL SHUTDOWN
	// ============================================================================
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("🛑 Termination signal received, shutting down...")

		cache.StopCaches()

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️  Error shutting down server: %v", err)
		}

		log.Println("✅ Server stopped cleanly")
		os.Exit(0)
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("🚌 Campus bus tracker listening on :%s", port)
	log.Println("📍 Endpoints:")
	log.Println("   GET  /api/bus                     - all bus locations")
	log.Println("   GET  /api/bus/:id/location        - one bus location")
	log.Println("   PUT  /api/bus/:id/location        - driver location report")
	log.Println("   GET  /api/bus/:id/eta/:stop       - arrival estimate")
	log.Println("   GET  /api/schedule                - all route schedules")
	log.Println("   GET  /api/schedule/route/:id      - schedule by route")
	log.Println("   GET  /api/schedule/stop/:id       - routes serving a stop")
	log.Println("   WS   /ws/buses                    - live location stream")

	if err := app.Listen(":" + port); err != nil {
		log.Fatal(err)
	}
}
