package health

import (
	"database/sql"
	"time"

	"teachings-archive/internal/logging"

	"github.com/gofiber/fiber/v3"
)

type HealthStatus struct {
	OK            bool                `json:"ok"`
	Timestamp     string              `json:"timestamp"`
	Database      DatabaseHealth      `json:"database"`
	DataIntegrity DataIntegrityHealth `json:"data_integrity"`
	Performance   PerformanceHealth   `json:"performance"`
}

type DatabaseHealth struct {
	OK             bool   `json:"ok"`
	Error          string `json:"error,omitempty"`
	OpenConns      int    `json:"open_connections"`
	IdleConns      int    `json:"idle_connections"`
	ConnectionTime string `json:"connection_time"`
}

type DataIntegrityHealth struct {
	OK           bool   `json:"ok"`
	Error        string `json:"error,omitempty"`
	EventCount   int    `json:"event_count"`
	TrackCount   int    `json:"track_count"`
	SessionCount int    `json:"session_count"`
	LastIngestAge string `json:"last_ingest_age"`
}

type PerformanceHealth struct {
	OK          bool   `json:"ok"`
	QueryTime   string `json:"query_time"`
	SlowQueries int    `json:"slow_queries"`
	Warning     string `json:"warning,omitempty"`
}

// Health reports database connectivity and basic schema sanity, for use as
// a readiness probe.
func Health(db *sql.DB) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		status := HealthStatus{
			OK:        true,
			Timestamp: time.Now().Format(time.RFC3339),
		}

		dbStart := time.Now()
		err := db.Ping()
		dbDuration := time.Since(dbStart)

		status.Database.ConnectionTime = dbDuration.String()
		if err != nil {
			status.OK = false
			status.Database.OK = false
			status.Database.Error = err.Error()
			logging.Debug("Database ping failed", "error", err)
		} else {
			status.Database.OK = true

			stats := db.Stats()
			status.Database.OpenConns = stats.OpenConnections
			status.Database.IdleConns = stats.Idle
		}

		if status.Database.OK {
			dataOK := true
			var dataError string

			if err := db.QueryRow(`SELECT COUNT(*) FROM teaching_event`).Scan(&status.DataIntegrity.EventCount); err != nil {
				dataOK = false
				dataError = "failed to count events: " + err.Error()
			}

			if dataOK {
				if err := db.QueryRow(`SELECT COUNT(*) FROM track`).Scan(&status.DataIntegrity.TrackCount); err != nil {
					dataOK = false
					dataError = "failed to count tracks: " + err.Error()
				}
			}

			if dataOK {
				if err := db.QueryRow(`SELECT COUNT(*) FROM teaching_session`).Scan(&status.DataIntegrity.SessionCount); err != nil {
					dataOK = false
					dataError = "failed to count sessions: " + err.Error()
				}
			}

			if dataOK {
				var lastIngest sql.NullTime
				err := db.QueryRow(`SELECT MAX(started_at) FROM ingest_job`).Scan(&lastIngest)
				if err != nil {
					dataOK = false
					dataError = "failed to get last ingest: " + err.Error()
				} else if lastIngest.Valid {
					status.DataIntegrity.LastIngestAge = time.Since(lastIngest.Time).String()
				}
			}

			status.DataIntegrity.OK = dataOK
			status.DataIntegrity.Error = dataError
			if !dataOK {
				status.OK = false
			}
		}

		queryDuration := time.Since(start)
		status.Performance.QueryTime = queryDuration.String()
		status.Performance.OK = queryDuration < 5*time.Second

		if queryDuration > 2*time.Second {
			status.Performance.Warning = "Health check taking longer than expected"
			status.Performance.SlowQueries = 1
		}

		if !status.Performance.OK {
			status.OK = false
		}

		logging.Debug("Health check completed", "duration", queryDuration, "ok", status.OK)

		if !status.OK {
			return c.Status(503).JSON(status)
		}
		return c.JSON(status)
	}
}
