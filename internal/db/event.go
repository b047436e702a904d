package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

type Event struct {
	ID           string `json:"id"`
	Slug         string `json:"slug"`
	Title        string `json:"title"`
	BucketPrefix string `json:"bucket_prefix"`
}

// CreateEvent inserts a new teaching event and returns its generated ID.
func CreateEvent(ctx context.Context, sqldb *sql.DB, slug, title, bucketPrefix string) (string, error) {
	id := uuid.NewString()
	_, err := ExecContextWithRetry(ctx, sqldb, `
INSERT INTO teaching_event (id, slug, title, bucket_prefix) VALUES (?, ?, ?, ?)
`, id, slug, title, bucketPrefix)
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetEventBySlug looks up an event by its URL-friendly slug.
func GetEventBySlug(ctx context.Context, sqldb *sql.DB, slug string) (*Event, error) {
	var e Event
	err := QueryRowContextWithRetry(ctx, sqldb, `
SELECT id, slug, title, bucket_prefix FROM teaching_event WHERE slug = ?
`, []any{slug}, func(row *sql.Row) error {
		return row.Scan(&e.ID, &e.Slug, &e.Title, &e.BucketPrefix)
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetEvent looks up an event by its primary key.
func GetEvent(ctx context.Context, sqldb *sql.DB, id string) (*Event, error) {
	var e Event
	err := QueryRowContextWithRetry(ctx, sqldb, `
SELECT id, slug, title, bucket_prefix FROM teaching_event WHERE id = ?
`, []any{id}, func(row *sql.Row) error {
		return row.Scan(&e.ID, &e.Slug, &e.Title, &e.BucketPrefix)
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEvents returns every event, most recently created first.
func ListEvents(ctx context.Context, sqldb *sql.DB) ([]Event, error) {
	rows, err := QueryContextWithRetry(ctx, sqldb, `
SELECT id, slug, title, bucket_prefix FROM teaching_event ORDER BY created_at DESC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Slug, &e.Title, &e.BucketPrefix); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListSessionsForEvent returns sessions for one event ordered by session number.
func ListSessionsForEvent(ctx context.Context, sqldb *sql.DB, eventID string) ([]Session, error) {
	rows, err := QueryContextWithRetry(ctx, sqldb, `
SELECT id, event_id, session_number, date, time_period, part_number, title_en
FROM teaching_session
WHERE event_id = ?
ORDER BY session_number ASC
`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.EventID, &s.SessionNumber, &s.Date, &s.TimePeriod, &s.PartNumber, &s.TitleEn); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// ListTracksForSession returns tracks belonging to one session, track number ascending.
func ListTracksForSession(ctx context.Context, sqldb *sql.DB, sessionID string) ([]Track, error) {
	rows, err := QueryContextWithRetry(ctx, sqldb, `
SELECT id, event_id, session_id, object_key, original_filename, track_number,
       speaker, speakers_json, title, languages_json, original_language,
       is_translation, date, time_period, part_number, is_duplicate
FROM track
WHERE session_id = ?
ORDER BY track_number ASC
`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		var t Track
		var speakersJSON, languagesJSON string
		if err := rows.Scan(&t.ID, &t.EventID, &t.SessionID, &t.ObjectKey, &t.OriginalFilename,
			&t.TrackNumber, &t.Speaker, &speakersJSON, &t.Title, &languagesJSON, &t.OriginalLanguage,
			&t.IsTranslation, &t.Date, &t.TimePeriod, &t.PartNumber, &t.IsDuplicate); err != nil {
			return nil, err
		}
		t.Speakers = decodeStringSlice(speakersJSON)
		t.Languages = decodeStringSlice(languagesJSON)
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}
