package admin

import (
	"teachings-archive/internal/db"
	"teachings-archive/internal/ingest"
	"teachings-archive/internal/logging"

	"github.com/gofiber/fiber/v3"
)

// storageEvent is the webhook payload this handler accepts: the slug of the
// event whose objects changed. Signature verification happens in
// middleware.WebhookAuth before this handler ever runs.
type storageEvent struct {
	EventSlug string `json:"event_slug"`
}

// StorageWebhook triggers a re-ingest of the named event whenever the
// object store reports new or changed objects under its prefix. It trusts
// the caller to identify the event by slug since bucket notifications carry
// no application-level event ID.
func (h *Handlers) StorageWebhook() fiber.Handler {
	return func(c fiber.Ctx) error {
		var payload storageEvent
		if err := c.Bind().Body(&payload); err != nil || payload.EventSlug == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "payload must include event_slug",
			})
		}

		event, err := db.GetEventBySlug(c.Context(), h.DB, payload.EventSlug)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "unknown event_slug",
			})
		}

		result, err := ingest.Run(c.Context(), h.IngestDeps, event.ID)
		if err != nil {
			logging.Error("webhook-triggered ingest failed", "event_id", event.ID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "ingest failed",
				"message": err.Error(),
			})
		}

		logging.Info("webhook-triggered ingest completed", "event_id", event.ID, "tracks", result.TracksPersisted)
		return c.JSON(fiber.Map{
			"job_id":            result.JobID,
			"tracks_discovered": result.TracksDiscovered,
			"tracks_persisted":  result.TracksPersisted,
		})
	}
}
