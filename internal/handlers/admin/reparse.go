package admin

import (
	"teachings-archive/internal/tasks"

	"github.com/gofiber/fiber/v3"
)

// ReparseTrack re-runs the parser against one already-ingested track's
// filename, without touching the object store.
func (h *Handlers) ReparseTrack() fiber.Handler {
	return func(c fiber.Ctx) error {
		trackID := c.Params("id")
		if trackID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing track id"})
		}

		if err := tasks.ReparseTrack(c.Context(), h.DB, trackID); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"reparsed": true, "track_id": trackID})
	}
}

// ReparseEvent re-runs the parser over every track already ingested for an
// event, then regroups them into sessions. Both steps skip the object
// store entirely.
func (h *Handlers) ReparseEvent() fiber.Handler {
	return func(c fiber.Ctx) error {
		eventID := c.Params("id")
		if eventID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing event id"})
		}

		updated, err := tasks.ReparseEvent(c.Context(), h.DB, eventID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}

		regrouped, err := tasks.RebuildSessions(c.Context(), h.DB, eventID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}

		return c.JSON(fiber.Map{
			"tracks_reparsed":  updated,
			"tracks_regrouped": regrouped,
		})
	}
}
