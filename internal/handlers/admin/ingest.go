package admin

import (
	"teachings-archive/internal/ingest"
	"teachings-archive/internal/logging"

	"github.com/gofiber/fiber/v3"
)

// TriggerIngest runs the ingest pipeline for one event synchronously and
// reports the resulting counts. A caller that wants progress updates should
// watch the event's WebSocket channel instead of waiting on this request.
func (h *Handlers) TriggerIngest() fiber.Handler {
	return func(c fiber.Ctx) error {
		eventID := c.Params("id")
		if eventID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing event id"})
		}

		result, err := ingest.Run(c.Context(), h.IngestDeps, eventID)
		if err != nil {
			logging.Error("ingest failed", "event_id", eventID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "ingest failed",
				"message": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"job_id":             result.JobID,
			"tracks_discovered":  result.TracksDiscovered,
			"tracks_persisted":   result.TracksPersisted,
			"sessions_persisted": result.SessionsPersisted,
			"duplicates_flagged": result.DuplicatesFlagged,
		})
	}
}
