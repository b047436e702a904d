// Package ingest wires trackparse's pure parser/inferencer to the object
// store and database: it lists recordings for one event, parses and groups
// them, persists the result, and reports progress live.
package ingest

import (
	"context"
	"database/sql"
	"fmt"

	"teachings-archive/internal/audit"
	"teachings-archive/internal/broadcaster"
	"teachings-archive/internal/db"
	"teachings-archive/internal/ingestcache"
	"teachings-archive/internal/logging"
	"teachings-archive/internal/storage"
	"teachings-archive/internal/trackparse"
)

// Deps bundles the collaborators Run needs. Hub and Cache are optional: a
// nil Hub skips live broadcast, a nil Cache skips status caching.
type Deps struct {
	DB      *sql.DB
	Storage *storage.Client
	Hub     *broadcaster.Hub
	Cache   *ingestcache.Cache
}

// Result summarizes one ingest run.
type Result struct {
	JobID             string
	TracksDiscovered  int
	TracksPersisted   int
	SessionsPersisted int
	DuplicatesFlagged int
}

// Run lists every object under the event's bucket prefix, parses and groups
// them into sessions, and persists the result transactionally. It never
// mutates the object store: re-running it against the same prefix is safe
// and idempotent (tracks are upserted on event_id+object_key).
func Run(ctx context.Context, deps Deps, eventID string) (Result, error) {
	event, err := db.GetEvent(ctx, deps.DB, eventID)
	if err != nil {
		return Result{}, fmt.Errorf("ingest: load event %s: %w", eventID, err)
	}

	logger, err := audit.NewLogger(deps.DB, eventID, "ingest")
	if err != nil {
		return Result{}, fmt.Errorf("ingest: start audit log: %w", err)
	}

	result, runErr := run(ctx, deps, *event, logger)
	if runErr != nil {
		_ = logger.Fail(runErr.Error())
		deps.publish(eventID, logger.JobID(), ingestcache.PhaseFailed, result, runErr.Error())
		return result, runErr
	}

	_ = logger.Complete(map[string]interface{}{
		"tracks_discovered":  result.TracksDiscovered,
		"tracks_persisted":   result.TracksPersisted,
		"sessions_persisted": result.SessionsPersisted,
		"duplicates_flagged": result.DuplicatesFlagged,
	})
	deps.publish(eventID, logger.JobID(), ingestcache.PhaseDone, result, "")

	return result, nil
}

func run(ctx context.Context, deps Deps, event db.Event, logger *audit.Logger) (Result, error) {
	result := Result{JobID: logger.JobID()}

	deps.publish(event.ID, logger.JobID(), ingestcache.PhaseListing, result, "")
	objects, err := deps.Storage.List(ctx, event.BucketPrefix)
	if err != nil {
		return result, fmt.Errorf("list objects: %w", err)
	}
	result.TracksDiscovered = len(objects)

	deps.publish(event.ID, logger.JobID(), ingestcache.PhaseParsing, result, "")
	tracks := make([]trackparse.ParsedTrack, 0, len(objects))
	keyByFilename := make(map[string]string, len(objects))
	for _, obj := range objects {
		base := baseName(obj.Key)
		pt := trackparse.Parse(base)
		tracks = append(tracks, pt)
		keyByFilename[pt.OriginalFilename] = obj.Key
	}

	sessions := trackparse.Infer(tracks)

	deps.publish(event.ID, logger.JobID(), ingestcache.PhasePersisting, result, "")
	if err := persist(ctx, deps.DB, event.ID, sessions, keyByFilename, logger, &result); err != nil {
		return result, fmt.Errorf("persist: %w", err)
	}

	logging.Info("ingest completed", "event_id", event.ID, "tracks", result.TracksPersisted, "sessions", result.SessionsPersisted)
	return result, nil
}

func persist(
	ctx context.Context,
	sqldb *sql.DB,
	eventID string,
	sessions []trackparse.InferredSession,
	keyByFilename map[string]string,
	logger *audit.Logger,
	result *Result,
) error {
	tx, err := sqldb.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

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
			return fmt.Errorf("upsert session %d: %w", s.SessionNumber, err)
		}
		result.SessionsPersisted++

		duplicateSeen := make(map[int]bool)
		for _, t := range s.Tracks {
			key := keyByFilename[t.OriginalFilename]
			isDup := false
			if !t.IsTranslation {
				if duplicateSeen[t.TrackNumber] {
					isDup = true
					result.DuplicatesFlagged++
				}
				duplicateSeen[t.TrackNumber] = true
			}

			err := db.UpsertTrack(ctx, tx, db.Track{
				EventID:          eventID,
				SessionID:        sql.NullString{String: sessionID, Valid: true},
				ObjectKey:        key,
				OriginalFilename: t.OriginalFilename,
				TrackNumber:      t.TrackNumber,
				Speaker:          nullableString(t.Speaker),
				Speakers:         t.Speakers,
				Title:            t.Title,
				Languages:        t.Languages,
				OriginalLanguage: t.OriginalLanguage,
				IsTranslation:    t.IsTranslation,
				Date:             nullableString(t.Date),
				TimePeriod:       nullablePeriod(t.TimePeriod),
				PartNumber:       nullableInt(t.PartNumber),
				IsDuplicate:      isDup,
			})
			if err != nil {
				return fmt.Errorf("upsert track %s: %w", t.OriginalFilename, err)
			}
			result.TracksPersisted++

			action := "ingested"
			if isDup {
				action = "ingested_duplicate"
			}
			_ = logger.LogItem(key, action, map[string]interface{}{
				"track_number": t.TrackNumber,
				"title":        t.Title,
			})
		}
	}

	return db.CommitWithRetry(tx)
}

func (d Deps) publish(eventID, jobID string, phase ingestcache.Phase, result Result, errMsg string) {
	status := ingestcache.Status{
		EventID:           eventID,
		JobID:             jobID,
		Phase:             phase,
		TracksDiscovered:  result.TracksDiscovered,
		TracksPersisted:   result.TracksPersisted,
		DuplicatesFlagged: result.DuplicatesFlagged,
		Error:             errMsg,
	}
	if d.Cache != nil {
		d.Cache.Set(eventID, status)
	}
	if d.Hub != nil {
		d.Hub.Publish(eventID, status)
	}
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

func baseName(key string) string {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '/' {
			return key[i+1:]
		}
	}
	return key
}
