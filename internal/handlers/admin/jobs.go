package admin

import (
	"strconv"

	"teachings-archive/internal/audit"

	"github.com/gofiber/fiber/v3"
)

// ListJobs returns recent ingest jobs for one event, newest first.
func (h *Handlers) ListJobs() fiber.Handler {
	return func(c fiber.Ctx) error {
		eventID := c.Query("event_id")
		if eventID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing event_id query param"})
		}

		limit := 50
		if raw := c.Query("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil {
				limit = n
			}
		}

		jobs, err := audit.ListJobs(h.DB, eventID, limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"jobs": jobs})
	}
}

// JobDetails returns one job along with every per-object action it took.
func (h *Handlers) JobDetails() fiber.Handler {
	return func(c fiber.Ctx) error {
		jobID := c.Params("id")
		if jobID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing job id"})
		}

		job, items, err := audit.JobDetails(h.DB, jobID)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "job not found"})
		}
		return c.JSON(fiber.Map{"job": job, "items": items})
	}
}
