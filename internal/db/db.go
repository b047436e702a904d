package db

import (
	"database/sql"
	"embed"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

//go:embed migrations/*.sql
var migrationsFS embed.FS

func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	_, _ = db.Exec(`PRAGMA journal_mode=WAL; PRAGMA foreign_keys=ON;`)
	DB = db
	return db, nil
}

// EnsureBaseSchema guarantees the event/track tables required for startup
// exist even if the migration runner below is skipped in a degraded boot.
func EnsureBaseSchema(db *sql.DB) error {
	log.Println("Ensuring base schema tables (teaching_event, track) exist...")
	baseSchema := `
CREATE TABLE IF NOT EXISTS teaching_event (
    id TEXT PRIMARY KEY,
    slug TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    bucket_prefix TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS track (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL,
    object_key TEXT NOT NULL,
    track_number INTEGER NOT NULL,
    title TEXT NOT NULL
);
`
	_, err := db.Exec(baseSchema)
	if err != nil {
		return fmt.Errorf("failed to ensure base schema: %w", err)
	}
	log.Println("Base schema check complete.")
	return nil
}

// RunMigrations applies the embedded migration set against db.
func RunMigrations(db *sql.DB) error {
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create sqlite driver instance: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	log.Println("Applying database migrations for archive tables...")
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	log.Println("Database migrations checked and applied successfully.")
	return nil
}
