// Package db initializes the SQLite connection backing the remote store and
// applies schema migrations.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file" // Required for file-based migrations
	_ "modernc.org/sqlite"                               // SQLite driver
)

// Common database errors
var (
	ErrNoRecord = errors.New("no matching record found")
)

// Config holds database connection config / Contient la config de connexion BD
type Config struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// Initialize opens and configures a SQLite connection / Ouvre et configure une connexion SQLite
func Initialize(config Config) (*sql.DB, error) {
	database, err := sql.Open("sqlite", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite connection: %w", err)
	}

	if err := configureConnection(database, config); err != nil {
		database.Close()
		return nil, err
	}

	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}

	log.Println("SQLite database connected successfully")
	return database, nil
}

// configureConnection applies pool settings and PRAGMAs / Applique les réglages de pool et les PRAGMAs
func configureConnection(database *sql.DB, config Config) error {
	maxOpen := config.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 25
	}
	maxIdle := config.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 5
	}
	database.SetMaxOpenConns(maxOpen)
	database.SetMaxIdleConns(maxIdle)

	// SQLite-specific PRAGMAs for performance and security
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA trusted_schema=OFF;",
		"PRAGMA cache_size=10000;",
	}

	for _, pragma := range pragmas {
		if _, err := database.Exec(pragma); err != nil {
			log.Printf("Warning: failed to execute pragma (%s): %v", pragma, err)
		}
	}

	return nil
}

// RunMigrations applies database migrations / Applique les migrations de base de données
func RunMigrations(database *sql.DB, migrationsPath string) error {
	driver, err := migratesqlite.WithInstance(database, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create sqlite migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://"+migrationsPath,
		"sqlite3",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	log.Println("Applying sqlite database migrations...")
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Println("Database migrations applied successfully.")
	return nil
}
