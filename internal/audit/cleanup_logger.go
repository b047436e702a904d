// Package audit records an auditable trail for one-off ingest and reparse
// jobs: a parent job row plus one row per object touched.
package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// IngestJob is a parent audit record for one run of the ingest or reparse pipeline.
type IngestJob struct {
	ID         string     `json:"id"`
	EventID    string     `json:"event_id"`
	Kind       string     `json:"kind"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	StartedAgo string     `json:"started_ago"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Duration   string     `json:"duration,omitempty"`
	Summary    string     `json:"summary,omitempty"`
}

// annotate fills the human-readable StartedAgo/Duration fields the admin UI
// renders instead of raw timestamps.
func (j *IngestJob) annotate() {
	j.StartedAgo = humanize.Time(j.StartedAt)
	if j.FinishedAt != nil {
		j.Duration = humanize.RelTime(j.StartedAt, *j.FinishedAt, "", "")
	}
}

// IngestAuditItem is a single object-level action taken during an ingest job.
type IngestAuditItem struct {
	ID        string    `json:"id"`
	JobID     string    `json:"job_id"`
	ObjectKey string    `json:"object_key"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Logger writes IngestJob/IngestAuditItem rows for one job run.
type Logger struct {
	db    *sql.DB
	jobID string
}

// NewLogger starts a new ingest_job row in "running" status and returns a
// Logger scoped to it.
func NewLogger(db *sql.DB, eventID, kind string) (*Logger, error) {
	jobID := uuid.New().String()

	_, err := db.Exec(`
		INSERT INTO ingest_job (id, event_id, kind, status, started_at)
		VALUES (?, ?, ?, 'running', ?)
	`, jobID, eventID, kind, time.Now())

	if err != nil {
		return nil, err
	}

	return &Logger{db: db, jobID: jobID}, nil
}

// LogItem records an action taken on a single object key.
func (l *Logger) LogItem(objectKey, action string, detail map[string]interface{}) error {
	var detailJSON string
	if detail != nil {
		b, err := json.Marshal(detail)
		if err != nil {
			return fmt.Errorf("failed to marshal audit detail: %w", err)
		}
		detailJSON = string(b)
	}

	_, err := l.db.Exec(`
		INSERT INTO ingest_audit_item (id, job_id, object_key, action, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), l.jobID, objectKey, action, detailJSON, time.Now())

	return err
}

// Complete marks the job as completed with a summary payload.
func (l *Logger) Complete(summary map[string]interface{}) error {
	var summaryJSON string
	if summary != nil {
		if b, err := json.Marshal(summary); err == nil {
			summaryJSON = string(b)
		}
	}

	_, err := l.db.Exec(`
		UPDATE ingest_job
		SET status = 'completed', finished_at = ?, summary_json = ?
		WHERE id = ?
	`, time.Now(), summaryJSON, l.jobID)

	return err
}

// Fail marks the job as failed with an error summary.
func (l *Logger) Fail(errMsg string) error {
	summaryJSON, _ := json.Marshal(map[string]interface{}{"error": errMsg})

	_, err := l.db.Exec(`
		UPDATE ingest_job
		SET status = 'failed', finished_at = ?, summary_json = ?
		WHERE id = ?
	`, time.Now(), string(summaryJSON), l.jobID)

	return err
}

// JobID returns the job ID for reference in API responses.
func (l *Logger) JobID() string {
	return l.jobID
}

// ListJobs retrieves recent ingest jobs for one event, newest first.
func ListJobs(db *sql.DB, eventID string, limit int) ([]IngestJob, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.Query(`
		SELECT id, event_id, kind, status, started_at, finished_at, summary_json
		FROM ingest_job
		WHERE event_id = ?
		ORDER BY started_at DESC
		LIMIT ?
	`, eventID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []IngestJob
	for rows.Next() {
		var job IngestJob
		var finishedAt sql.NullTime
		var summary sql.NullString

		if err := rows.Scan(&job.ID, &job.EventID, &job.Kind, &job.Status,
			&job.StartedAt, &finishedAt, &summary); err != nil {
			continue
		}

		if finishedAt.Valid {
			t := finishedAt.Time
			job.FinishedAt = &t
		}
		job.Summary = summary.String
		job.annotate()

		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

// JobDetails retrieves one job plus all of its per-object audit items.
func JobDetails(db *sql.DB, jobID string) (*IngestJob, []IngestAuditItem, error) {
	var job IngestJob
	var finishedAt sql.NullTime
	var summary sql.NullString

	err := db.QueryRow(`
		SELECT id, event_id, kind, status, started_at, finished_at, summary_json
		FROM ingest_job WHERE id = ?
	`, jobID).Scan(&job.ID, &job.EventID, &job.Kind, &job.Status,
		&job.StartedAt, &finishedAt, &summary)
	if err != nil {
		return nil, nil, err
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		job.FinishedAt = &t
	}
	job.Summary = summary.String
	job.annotate()

	rows, err := db.Query(`
		SELECT id, job_id, object_key, action, detail, created_at
		FROM ingest_audit_item
		WHERE job_id = ?
		ORDER BY created_at ASC
	`, jobID)
	if err != nil {
		return &job, nil, err
	}
	defer rows.Close()

	var items []IngestAuditItem
	for rows.Next() {
		var item IngestAuditItem
		var detail sql.NullString
		if err := rows.Scan(&item.ID, &item.JobID, &item.ObjectKey, &item.Action,
			&detail, &item.CreatedAt); err != nil {
			continue
		}
		item.Detail = detail.String
		items = append(items, item)
	}

	return &job, items, rows.Err()
}
