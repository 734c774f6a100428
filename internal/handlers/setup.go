package handlers

import (
	"database/sql"
	"log"
	"os"
	"sync"
	"time"

	"github.com/yourorg/campusbus/internal/cache"
	"github.com/yourorg/campusbus/internal/eta"
	"github.com/yourorg/campusbus/internal/hub"
	"github.com/yourorg/campusbus/internal/schedule"
	"github.com/yourorg/campusbus/internal/tracker"
)

// Services bundles the in-process engine shared across handlers.
type Services struct {
	Tracker   *tracker.Store
	Index     *schedule.Index
	Estimator *eta.Estimator
	Hub       *hub.Hub
}

// package-level dependencies
var (
	setupOnce sync.Once
	setupMu   sync.RWMutex
	dbConn    *sql.DB
	services  Services
	jwtSecret []byte
	tokenTTL  = 24 * time.Hour
)

// Setup wires shared dependencies for handlers. Call this during app bootstrap.
func Setup(db *sql.DB, svc Services) {
	setupOnce.Do(func() {
		setupMu.Lock()
		defer setupMu.Unlock()

		dbConn = db
		services = svc

		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			if os.Getenv("ENV") == "production" || os.Getenv("ENVIRONMENT") == "production" {
				log.Fatal("❌ CRITICAL: JWT_SECRET must be set in production environment")
			}
			log.Println("⚠️ WARNING: Using default JWT secret (development only)")
			secret = "dev-secret-change-me-please-now!!"
		}
		if len(secret) < 32 {
			log.Fatalf("❌ CRITICAL: JWT_SECRET must be at least 32 characters long (current: %d)", len(secret))
		}
		jwtSecret = []byte(secret)

		if ttl := os.Getenv("JWT_TTL"); ttl != "" {
			dur, err := time.ParseDuration(ttl)
			if err != nil || dur <= 0 {
				log.Printf("invalid JWT_TTL=%q, using default %s", ttl, tokenTTL)
			} else {
				tokenTTL = dur
			}
		}

		cache.InitCaches()
	})
}

// getDBConn returns the database handle safely.
func getDBConn() *sql.DB {
	setupMu.RLock()
	defer setupMu.RUnlock()
	return dbConn
}

// getServices returns the shared engine services safely.
func getServices() Services {
	setupMu.RLock()
	defer setupMu.RUnlock()
	return services
}

// getJWTSecret returns the JWT signing secret safely.
func getJWTSecret() []byte {
	setupMu.RLock()
	defer setupMu.RUnlock()
	return jwtSecret
}
