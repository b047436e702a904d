package admin

import (
	"teachings-archive/internal/db"

	"github.com/gofiber/fiber/v3"
)

// sessionWithTracks bundles a session and its tracks for one JSON response,
// saving the UI a second round trip per session.
type sessionWithTracks struct {
	db.Session
	Tracks []db.Track `json:"tracks"`
}

// ListSessions returns every session for one event, each with its tracks,
// ordered by session number.
func (h *Handlers) ListSessions() fiber.Handler {
	return func(c fiber.Ctx) error {
		eventID := c.Params("id")
		if eventID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing event id"})
		}

		sessions, err := db.ListSessionsForEvent(c.Context(), h.DB, eventID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}

		out := make([]sessionWithTracks, 0, len(sessions))
		for _, s := range sessions {
			tracks, err := db.ListTracksForSession(c.Context(), h.DB, s.ID)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
			}
			out = append(out, sessionWithTracks{Session: s, Tracks: tracks})
		}

		return c.JSON(fiber.Map{"sessions": out})
	}
}
