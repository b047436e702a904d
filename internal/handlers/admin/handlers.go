// Package admin holds the operator-facing endpoints that drive ingest:
// triggering and reparsing runs, listing jobs and sessions, and accepting
// the inbound storage webhook. Modeled on the teacher's admin handlers,
// which exposed maintenance scripts as plain HTTP endpoints.
package admin

import (
	"database/sql"

	"teachings-archive/internal/broadcaster"
	"teachings-archive/internal/ingest"
	"teachings-archive/internal/ingestcache"
)

// Handlers bundles the collaborators admin endpoints need.
type Handlers struct {
	DB         *sql.DB
	IngestDeps ingest.Deps
	Hub        *broadcaster.Hub
	Cache      *ingestcache.Cache
}

// New wires up Handlers from its dependencies.
func New(db *sql.DB, deps ingest.Deps, hub *broadcaster.Hub, cache *ingestcache.Cache) *Handlers {
	return &Handlers{DB: db, IngestDeps: deps, Hub: hub, Cache: cache}
}
