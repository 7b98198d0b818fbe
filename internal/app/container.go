// Package app wires the remote store server's dependencies together.
package app

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/ulasbyzdvr/is-takip/internal/config"
	"github.com/ulasbyzdvr/is-takip/internal/metrics"
	"github.com/ulasbyzdvr/is-takip/internal/ports"
	"github.com/ulasbyzdvr/is-takip/internal/repository"
	"github.com/ulasbyzdvr/is-takip/internal/repository/db"
	"github.com/ulasbyzdvr/is-takip/internal/service"
)

// Container holds application dependencies / Contient les dépendances de l'application
type Container struct {
	DB           *sql.DB // nil when the file backend is configured
	SnapshotRepo ports.SnapshotRepository
	SyncSvc      *service.SyncService
	Config       *config.Config
	Metrics      *metrics.Metrics
}

// NewContainer initializes application container / Initialise le conteneur de l'application
func NewContainer(cfg *config.Config) (*Container, error) {
	c := &Container{}
	c.Config = cfg

	// Initialize metrics first (no dependencies)
	c.Metrics = metrics.NewMetrics(nil)

	if err := c.initStorage(); err != nil {
		return nil, fmt.Errorf("storage init: %w", err)
	}

	c.SyncSvc = service.NewSyncService(c.SnapshotRepo, c.Metrics)

	return c, nil
}

// initStorage initializes the configured persistence backend / Initialise le backend de persistance configuré
func (c *Container) initStorage() error {
	storageType := strings.ToLower(c.Config.Storage.Type)
	if storageType == "" {
		storageType = "file"
	}

	if storageType == "sqlite" || storageType == "sqlite3" {
		database, err := db.Initialize(db.Config{
			DSN:          c.Config.Storage.DSN,
			MaxOpenConns: c.Config.Storage.MaxOpenConns,
			MaxIdleConns: c.Config.Storage.MaxIdleConns,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize sqlite database: %w", err)
		}
		c.DB = database

		if err := db.RunMigrations(database, c.Config.Storage.MigrationsPath); err != nil {
			c.Close()
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	c.SnapshotRepo = repository.NewSnapshotRepository(storageType, repository.Backend{
		DB:   c.DB,
		Path: c.Config.Storage.Path,
	})

	log.Printf("Snapshot repository initialized for %s storage", storageType)
	return nil
}

// Close performs graceful shutdown / Effectue un arrêt gracieux
func (c *Container) Close() error {
	if c.DB != nil {
		log.Println("Closing database...")
		return c.DB.Close()
	}
	return nil
}
