// Package tasks holds one-off data-repair jobs that operate on rows already
// ingested into SQLite, without touching the object store. Modeled on the
// teacher's backfill_*.go maintenance scripts.
package tasks

import (
	"context"
	"database/sql"
	"fmt"

	"teachings-archive/internal/audit"
	"teachings-archive/internal/db"
	"teachings-archive/internal/logging"
	"teachings-archive/internal/trackparse"
)

// ReparseTrack re-runs trackparse.Parse against one track's original
// filename and overwrites its parsed fields. Useful after a parser rule
// change touches only a handful of rows; it does not regroup sessions.
func ReparseTrack(ctx context.Context, sqldb *sql.DB, trackID string) error {
	var eventID, objectKey, originalFilename string
	err := db.QueryRowContextWithRetry(ctx, sqldb, `
		SELECT event_id, object_key, original_filename FROM track WHERE id = ?
	`, []any{trackID}, func(row *sql.Row) error {
		return row.Scan(&eventID, &objectKey, &originalFilename)
	})
	if err != nil {
		return fmt.Errorf("reparse track %s: load: %w", trackID, err)
	}

	pt := trackparse.Parse(originalFilename)

	tx, err := sqldb.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("reparse track %s: begin: %w", trackID, err)
	}
	defer tx.Rollback()

	existing := db.Track{ID: trackID, EventID: eventID, ObjectKey: objectKey}
	if err := applyParsed(ctx, tx, existing, pt); err != nil {
		return fmt.Errorf("reparse track %s: %w", trackID, err)
	}

	logging.Info("track reparsed", "track_id", trackID, "event_id", eventID)
	return db.CommitWithRetry(tx)
}

// ReparseEvent re-runs trackparse.Parse for every track belonging to an
// event, without re-listing the object store. It does not regroup sessions;
// RebuildSessions does that and is called separately.
func ReparseEvent(ctx context.Context, sqldb *sql.DB, eventID string) (int, error) {
	rows, err := db.QueryContextWithRetry(ctx, sqldb, `
		SELECT id, object_key, original_filename FROM track WHERE event_id = ?
	`, eventID)
	if err != nil {
		return 0, fmt.Errorf("reparse event %s: list tracks: %w", eventID, err)
	}

	type row struct{ id, key, filename string }
	var toReparse []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.key, &r.filename); err != nil {
			rows.Close()
			return 0, fmt.Errorf("reparse event %s: scan: %w", eventID, err)
		}
		toReparse = append(toReparse, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("reparse event %s: %w", eventID, err)
	}

	logger, err := audit.NewLogger(sqldb, eventID, "reparse")
	if err != nil {
		return 0, fmt.Errorf("reparse event %s: start audit log: %w", eventID, err)
	}

	tx, err := sqldb.BeginTx(ctx, nil)
	if err != nil {
		_ = logger.Fail(err.Error())
		return 0, fmt.Errorf("reparse event %s: begin: %w", eventID, err)
	}
	defer tx.Rollback()

	updated := 0
	for _, r := range toReparse {
		pt := trackparse.Parse(r.filename)
		existing := db.Track{ID: r.id, EventID: eventID, ObjectKey: r.key}
		if err := applyParsed(ctx, tx, existing, pt); err != nil {
			_ = logger.Fail(err.Error())
			return updated, fmt.Errorf("reparse event %s: track %s: %w", eventID, r.id, err)
		}
		_ = logger.LogItem(r.key, "reparsed", map[string]interface{}{"title": pt.Title})
		updated++
	}

	if err := db.CommitWithRetry(tx); err != nil {
		_ = logger.Fail(err.Error())
		return updated, fmt.Errorf("reparse event %s: commit: %w", eventID, err)
	}

	logging.Info("event reparsed", "event_id", eventID, "tracks_updated", updated)
	_ = logger.Complete(map[string]interface{}{"tracks_updated": updated})
	return updated, nil
}

// RebuildSessions re-groups an event's already-parsed tracks into sessions
// via trackparse.Infer, without re-parsing filenames or touching the object
// store. Use after ReparseEvent, or whenever Infer's grouping rules change.
func RebuildSessions(ctx context.Context, sqldb *sql.DB, eventID string) (int, error) {
	rows, err := db.QueryContextWithRetry(ctx, sqldb, `
		SELECT id, object_key, original_filename, track_number, speaker,
		       speakers_json, title, languages_json, original_language,
		       is_translation, date, time_period, part_number
		FROM track WHERE event_id = ?
	`, eventID)
	if err != nil {
		return 0, fmt.Errorf("rebuild sessions %s: list tracks: %w", eventID, err)
	}
	defer rows.Close()

	var parsed []trackparse.ParsedTrack
	var ids []string
	for rows.Next() {
		var (
			id, objectKey, filename, title, originalLanguage string
			trackNumber                                      int
			speaker, speakersJSON, languagesJSON              sql.NullString
			isTranslation                                     bool
			date, timePeriod                                  sql.NullString
			partNumber                                        sql.NullInt64
		)
		if err := rows.Scan(&id, &objectKey, &filename, &trackNumber, &speaker,
			&speakersJSON, &title, &languagesJSON, &originalLanguage,
			&isTranslation, &date, &timePeriod, &partNumber); err != nil {
			return 0, fmt.Errorf("rebuild sessions %s: scan: %w", eventID, err)
		}

		pt := trackparse.ParsedTrack{
			TrackNumber:      trackNumber,
			Title:            title,
			OriginalLanguage: originalLanguage,
			IsTranslation:    isTranslation,
			OriginalFilename: filename,
		}
		if speaker.Valid {
			s := speaker.String
			pt.Speaker = &s
		}
		if date.Valid {
			d := date.String
			pt.Date = &d
		}
		if timePeriod.Valid {
			p := trackparse.Period(timePeriod.String)
			pt.TimePeriod = &p
		}
		if partNumber.Valid {
			n := int(partNumber.Int64)
			pt.PartNumber = &n
		}

		parsed = append(parsed, pt)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("rebuild sessions %s: %w", eventID, err)
	}

	sessions := trackparse.Infer(parsed)

	tx, err := sqldb.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("rebuild sessions %s: begin: %w", eventID, err)
	}
	defer tx.Rollback()

	filenameToID := make(map[string]string, len(ids))
	for i, pt := range parsed {
		filenameToID[pt.OriginalFilename] = ids[i]
	}

	regrouped := 0
	for _, s := range sessions {
		sessionID, err := db.UpsertSession(ctx, tx, db.Session{
			EventID:       eventID,
			SessionNumber: s.SessionNumber,
			Date:          nullableString(s.Date),
			TimePeriod:    nullablePeriod(s.TimePeriod),
			PartNumber:    nullableInt(s.PartNumber),
			TitleEn:       s.TitleEn,
		})
		if err != nil {
			return regrouped, fmt.Errorf("rebuild sessions %s: upsert session %d: %w", eventID, s.SessionNumber, err)
		}

		for _, t := range s.Tracks {
			trackID := filenameToID[t.OriginalFilename]
			if _, err := db.ExecContextWithRetry(ctx, tx, `UPDATE track SET session_id = ? WHERE id = ?`, sessionID, trackID); err != nil {
				return regrouped, fmt.Errorf("rebuild sessions %s: reassign track %s: %w", eventID, trackID, err)
			}
			regrouped++
		}
	}

	if err := db.CommitWithRetry(tx); err != nil {
		return regrouped, fmt.Errorf("rebuild sessions %s: commit: %w", eventID, err)
	}

	logging.Info("sessions rebuilt", "event_id", eventID, "sessions", len(sessions), "tracks", regrouped)
	return regrouped, nil
}

// applyParsed writes pt's fields onto track row existing.ID, preserving its
// identity and object key while duplicate-flagging is left to the full
// ingest pipeline (reparse never changes which rows exist, only their
// parsed content).
func applyParsed(ctx context.Context, tx *sql.Tx, existing db.Track, pt trackparse.ParsedTrack) error {
	return db.UpsertTrack(ctx, tx, db.Track{
		ID:               existing.ID,
		EventID:          existing.EventID,
		ObjectKey:        existing.ObjectKey,
		OriginalFilename: pt.OriginalFilename,
		TrackNumber:      pt.TrackNumber,
		Speaker:          nullableString(pt.Speaker),
		Speakers:         pt.Speakers,
		Title:            pt.Title,
		Languages:        pt.Languages,
		OriginalLanguage: pt.OriginalLanguage,
		IsTranslation:    pt.IsTranslation,
		Date:             nullableString(pt.Date),
		TimePeriod:       nullablePeriod(pt.TimePeriod),
		PartNumber:       nullableInt(pt.PartNumber),
	})
}

func nullableString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullablePeriod(p *trackparse.Period) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*p), Valid: true}
}

func nullableInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}
