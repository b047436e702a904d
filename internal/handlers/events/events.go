// Package events serves event listing/detail for the admin UI and event
// creation. Ingest and reparse actions live in internal/handlers/admin.
package events

import (
	"database/sql"

	"teachings-archive/internal/db"

	"github.com/gofiber/fiber/v3"
)

// ListEvents returns every teaching event known to the archive.
func ListEvents(sqldb *sql.DB) fiber.Handler {
	return func(c fiber.Ctx) error {
		events, err := db.ListEvents(c.Context(), sqldb)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"events": events})
	}
}

// GetEvent returns one event by ID.
func GetEvent(sqldb *sql.DB) fiber.Handler {
	return func(c fiber.Ctx) error {
		id := c.Params("id")
		event, err := db.GetEvent(c.Context(), sqldb, id)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event not found"})
		}
		return c.JSON(event)
	}
}

// CreateEventRequest is the body accepted by CreateEvent.
type CreateEventRequest struct {
	Slug         string `json:"slug"`
	Title        string `json:"title"`
	BucketPrefix string `json:"bucket_prefix"`
}

// CreateEvent registers a new teaching event ahead of its first ingest run.
func CreateEvent(sqldb *sql.DB) fiber.Handler {
	return func(c fiber.Ctx) error {
		var req CreateEventRequest
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if req.Slug == "" || req.BucketPrefix == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "slug and bucket_prefix are required"})
		}

		id, err := db.CreateEvent(c.Context(), sqldb, req.Slug, req.Title, req.BucketPrefix)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
	}
}
