package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/esolog/logpipeline/internal/logmodel"
	"github.com/esolog/logpipeline/internal/logsession"
)

var tracer = otel.Tracer("esoctl/store")

// WriteLog maps the builder's completed sessions and fight records onto
// the five store tables inside a single transaction, matching spec §4.5
// and the concurrency model's "bulk imports open a single transaction"
// rule (§5). Pragmas must already be set (Create/Open do this before any
// transaction begins); issuing PRAGMA after BEGIN is rejected by SQLite.
//
// ctx is checked before each session row and before every 32nd fight so a
// caller-supplied context can be cancelled mid-import (spec §5,
// "the store writer checks between batched row groups").
func (s *Store) WriteLog(ctx context.Context, sourceFile string, sessions []logmodel.Session, fights []logsession.FightRecord) error {
	ctx, span := tracer.Start(ctx, "store.WriteLog")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("import cancelled: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import transaction: %w", err)
	}
	defer tx.Rollback()

	if err := writeMeta(tx, sourceFile); err != nil {
		return err
	}

	fightsBySession := make(map[string][]logsession.FightRecord)
	for _, fr := range fights {
		fightsBySession[fr.SessionID] = append(fightsBySession[fr.SessionID], fr)
	}

	for i, sess := range sessions {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("import cancelled: %w", err)
		}
		if err := writeSession(tx, sess, len(fightsBySession[sess.ID])); err != nil {
			return err
		}
		if i%32 == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("import cancelled: %w", err)
			}
		}
	}

	for i, fr := range fights {
		if i%32 == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("import cancelled: %w", err)
			}
		}
		if err := writeFight(tx, fr); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import transaction: %w", err)
	}
	return nil
}

func writeMeta(tx *sql.Tx, sourceFile string) error {
	rows := map[string]string{
		"importedAt": time.Now().UTC().Format(time.RFC3339),
		"sourceFile": sourceFile,
	}
	for k, v := range rows {
		if _, err := tx.Exec(`INSERT INTO log_meta (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, v); err != nil {
			return fmt.Errorf("write log_meta %s: %w", k, err)
		}
	}
	return nil
}

func writeSession(tx *sql.Tx, sess logmodel.Session, fightCount int) error {
	blob, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", sess.ID, err)
	}
	_, err = tx.Exec(`INSERT INTO sessions
		(id, unix_start_ms, title, display_name, server, language, patch, fight_count, trial_init_key, detail_blob)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.UnixStartMs, sess.Title, sess.DisplayName,
		sess.Server, sess.Language, sess.Patch, fightCount, sess.TrialInitKey, blob)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", sess.ID, err)
	}
	return nil
}

func writeFight(tx *sql.Tx, fr logsession.FightRecord) error {
	sum := fr.Summary
	summaryBlob, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("marshal fight summary %s: %w", sum.ID, err)
	}
	_, err = tx.Exec(`INSERT INTO fights
		(id, session_id, zone_segment_id, start_rel_ms, end_rel_ms, title, zone_name, difficulty, map_name, map_key, is_hard_mode, summary_blob)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.ID, sum.SessionID, sum.ZoneSegmentID, sum.StartRelMs, sum.EndRelMs,
		sum.Title, sum.ZoneName, sum.Difficulty, sum.MapName, sum.MapKey, sum.IsHardMode, summaryBlob)
	if err != nil {
		return fmt.Errorf("insert fight %s: %w", sum.ID, err)
	}

	if fr.Detail != nil {
		detailBlob, err := json.Marshal(fr.Detail)
		if err != nil {
			return fmt.Errorf("marshal fight detail %s: %w", sum.ID, err)
		}
		if _, err := tx.Exec(`INSERT INTO fight_details (fight_id, detail_blob) VALUES (?, ?)`, sum.ID, detailBlob); err != nil {
			return fmt.Errorf("insert fight_details %s: %w", sum.ID, err)
		}
	}

	seriesBlob, err := json.Marshal(fr.Series)
	if err != nil {
		return fmt.Errorf("marshal fight series %s: %w", sum.ID, err)
	}
	if _, err := tx.Exec(`INSERT INTO fight_series (fight_id, series_blob) VALUES (?, ?)`, sum.ID, seriesBlob); err != nil {
		return fmt.Errorf("insert fight_series %s: %w", sum.ID, err)
	}
	return nil
}

// Import builds a fresh per-log store at a temporary path under dir,
// writes sessions/fights into it, and on success renames it to the final
// `<base>_YYYY-MM-DD_HH-MM-SS.log.db` form derived from the earliest
// session's local start time and the source log's base name (spec §4.5,
// §4.7). On cancellation or write failure the temporary file is removed
// on a best-effort basis.
func Import(ctx context.Context, dir, sourceFile string, sessions []logmodel.Session, fights []logsession.FightRecord, opts Options) (finalPath string, err error) {
	ctx, span := tracer.Start(ctx, "store.Import")
	defer span.End()

	base := SanitizeBaseName(strings.TrimSuffix(filepath.Base(sourceFile), filepath.Ext(sourceFile)))
	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.importing.db", base))

	os.Remove(tmpPath)
	s, err := Create(tmpPath, opts)
	if err != nil {
		return "", err
	}

	if writeErr := s.WriteLog(ctx, sourceFile, sessions, fights); writeErr != nil {
		s.Close()
		os.Remove(tmpPath)
		return "", writeErr
	}

	// Connection pool is capped at one handle (SetMaxOpenConns(1) in
	// Create); closing it here flushes WAL checkpoints before rename.
	if closeErr := s.Close(); closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("flush store before rename: %w", closeErr)
	}

	name := FinalStoreName(base, earliestStart(sessions))
	finalPath = filepath.Join(dir, name)
	finalPath = ResolveCollision(finalPath)
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename store to %s: %w", finalPath, err)
	}
	return finalPath, nil
}

func earliestStart(sessions []logmodel.Session) int64 {
	if len(sessions) == 0 {
		return time.Now().UnixMilli()
	}
	earliest := sessions[0].UnixStartMs
	for _, s := range sessions[1:] {
		if s.UnixStartMs < earliest {
			earliest = s.UnixStartMs
		}
	}
	return earliest
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeBaseName strips a source log's base name down to the
// conservative cross-platform filename set (letters, digits, dot, dash,
// underscore), replacing every run of anything else with a single
// underscore (spec §6, "filenames must be sanitised to the host
// filesystem's allowed character set"). This keeps path separators,
// Windows-reserved characters (`: * ? " < > |`), and control characters
// out of the store path Import and the legacy-rename sweep build from
// it. An all-unsafe or empty base falls back to "log" rather than
// producing an empty file name.
func SanitizeBaseName(base string) string {
	base = unsafeFilenameChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		return "log"
	}
	return base
}

// FinalStoreName derives the friendly `<base>_YYYY-MM-DD_HH-MM-SS.log.db`
// store file name from a log's base name and its earliest session start
// time, shared by Import and the multi-log index's legacy-rename sweep
// (spec §4.5, §4.7).
func FinalStoreName(base string, unixStartMs int64) string {
	t := time.UnixMilli(unixStartMs).Local()
	return fmt.Sprintf("%s_%s.log.db", base, t.Format("2006-01-02_15-04-05"))
}

// ResolveCollision appends a numeric suffix (_1, _2, ...) until the
// candidate path is free, matching the multi-log index's legacy-rename
// collision rule (spec §4.7).
func ResolveCollision(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := ".log.db"
	stem := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := stem + "_" + strconv.Itoa(i) + ext
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
