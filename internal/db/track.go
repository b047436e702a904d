package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Execer is satisfied by *sql.DB and *sql.Tx, letting Upsert* run either
// standalone or inside a caller-managed transaction.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Track struct {
	ID               string         `json:"id"`
	EventID          string         `json:"event_id"`
	SessionID        sql.NullString `json:"session_id"`
	ObjectKey        string         `json:"object_key"`
	OriginalFilename string         `json:"original_filename"`
	TrackNumber      int            `json:"track_number"`
	Speaker          sql.NullString `json:"speaker"`
	Speakers         []string       `json:"speakers"`
	Title            string         `json:"title"`
	Languages        []string       `json:"languages"`
	OriginalLanguage string         `json:"original_language"`
	IsTranslation    bool           `json:"is_translation"`
	Date             sql.NullString `json:"date"`
	TimePeriod       sql.NullString `json:"time_period"`
	PartNumber       sql.NullInt64  `json:"part_number"`
	IsDuplicate      bool           `json:"is_duplicate"`
}

// UpsertTrack inserts or refreshes a track row keyed on (event_id, object_key).
// Re-ingesting the same object is idempotent; only the parsed fields change.
func UpsertTrack(ctx context.Context, sqldb Execer, t Track) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	speakersJSON, err := json.Marshal(t.Speakers)
	if err != nil {
		return err
	}
	languagesJSON, err := json.Marshal(t.Languages)
	if err != nil {
		return err
	}

	_, err = ExecContextWithRetry(ctx, sqldb, `
INSERT INTO track (
  id, event_id, session_id, object_key, original_filename, track_number,
  speaker, speakers_json, title, languages_json, original_language,
  is_translation, date, time_period, part_number, is_duplicate,
  created_at, updated_at
) VALUES (
  ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
) ON CONFLICT(event_id, object_key) DO UPDATE SET
  session_id = excluded.session_id,
  track_number = excluded.track_number,
  speaker = excluded.speaker,
  speakers_json = excluded.speakers_json,
  title = excluded.title,
  languages_json = excluded.languages_json,
  original_language = excluded.original_language,
  is_translation = excluded.is_translation,
  date = excluded.date,
  time_period = excluded.time_period,
  part_number = excluded.part_number,
  is_duplicate = excluded.is_duplicate,
  updated_at = excluded.updated_at
`, t.ID, t.EventID, t.SessionID, t.ObjectKey, t.OriginalFilename, t.TrackNumber,
		t.Speaker, string(speakersJSON), t.Title, string(languagesJSON), t.OriginalLanguage,
		t.IsTranslation, t.Date, t.TimePeriod, t.PartNumber, t.IsDuplicate,
		time.Now(), time.Now(),
	)
	return err
}

type Session struct {
	ID            string         `json:"id"`
	EventID       string         `json:"event_id"`
	SessionNumber int            `json:"session_number"`
	Date          sql.NullString `json:"date"`
	TimePeriod    sql.NullString `json:"time_period"`
	PartNumber    sql.NullInt64  `json:"part_number"`
	TitleEn       string         `json:"title_en"`
}

// UpsertSession inserts or refreshes a session row keyed on (event_id, session_number).
func UpsertSession(ctx context.Context, sqldb Execer, s Session) (string, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	var id string
	err := QueryRowContextWithRetry(ctx, sqldb, `
INSERT INTO teaching_session (
  id, event_id, session_number, date, time_period, part_number, title_en
) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(event_id, session_number) DO UPDATE SET
  date = excluded.date,
  time_period = excluded.time_period,
  part_number = excluded.part_number,
  title_en = excluded.title_en
RETURNING id
`, []any{s.ID, s.EventID, s.SessionNumber, s.Date, s.TimePeriod, s.PartNumber, s.TitleEn}, func(row *sql.Row) error {
		return row.Scan(&id)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func decodeStringSlice(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}
