package admin

import (
	"teachings-archive/internal/logging"

	"github.com/gofiber/fiber/v3"
	ws "github.com/saveblush/gofiber3-contrib/websocket"
)

// IngestWS upgrades to a WebSocket that streams live ingest progress for
// one event: the current cached status immediately on connect, then every
// subsequent update the pipeline publishes until the client disconnects.
func (h *Handlers) IngestWS() fiber.Handler {
	return ws.New(func(conn *ws.Conn) {
		defer conn.Close()

		eventID := conn.Params("id")
		if eventID == "" {
			return
		}

		h.Hub.AddClient(eventID, conn, h.Cache)
		defer h.Hub.RemoveClient(eventID, conn)

		// Block until the client disconnects; after the initial cached
		// status sent by AddClient, writes come from Hub.Publish (one
		// goroutine per send), not this read loop.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				logging.Debug("ingest ws closed", "event_id", eventID, "error", err)
				return
			}
		}
	})
}
