package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/esolog/logpipeline/internal/logmodel"
)

// LogMeta returns the key/value rows written at import time (imported-at
// timestamp, source file name).
func (s *Store) LogMeta(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM log_meta`)
	if err != nil {
		return nil, fmt.Errorf("query log_meta: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// ListSessions returns every session in this store, sorted by
// unixStartMs descending (spec §4.7's ordering, applied per-store too).
func (s *Store) ListSessions(ctx context.Context) ([]logmodel.Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT detail_blob FROM sessions ORDER BY unix_start_ms DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []logmodel.Session
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		var sess logmodel.Session
		if err := json.Unmarshal(blob, &sess); err != nil {
			return nil, fmt.Errorf("decode session blob: %w", err)
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// GetSession looks up one session by id.
func (s *Store) GetSession(ctx context.Context, id string) (logmodel.Session, bool, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT detail_blob FROM sessions WHERE id = ?`, id).Scan(&blob)
	if err == sql.ErrNoRows {
		return logmodel.Session{}, false, nil
	}
	if err != nil {
		return logmodel.Session{}, false, fmt.Errorf("query session %s: %w", id, err)
	}
	var sess logmodel.Session
	if err := json.Unmarshal(blob, &sess); err != nil {
		return logmodel.Session{}, false, fmt.Errorf("decode session blob: %w", err)
	}
	return sess, true, nil
}

// ListFights returns every fight summary for sessionID, ordered by
// startRelMs ascending.
func (s *Store) ListFights(ctx context.Context, sessionID string) ([]logmodel.FightSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT summary_blob FROM fights WHERE session_id = ? ORDER BY start_rel_ms ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query fights for session %s: %w", sessionID, err)
	}
	defer rows.Close()

	var out []logmodel.FightSummary
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		var sum logmodel.FightSummary
		if err := json.Unmarshal(blob, &sum); err != nil {
			return nil, fmt.Errorf("decode fight summary: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// GetFight looks up one fight summary by id.
func (s *Store) GetFight(ctx context.Context, fightID string) (logmodel.FightSummary, bool, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT summary_blob FROM fights WHERE id = ?`, fightID).Scan(&blob)
	if err == sql.ErrNoRows {
		return logmodel.FightSummary{}, false, nil
	}
	if err != nil {
		return logmodel.FightSummary{}, false, fmt.Errorf("query fight %s: %w", fightID, err)
	}
	var sum logmodel.FightSummary
	if err := json.Unmarshal(blob, &sum); err != nil {
		return logmodel.FightSummary{}, false, fmt.Errorf("decode fight summary: %w", err)
	}
	return sum, true, nil
}

// GetFightDetail looks up the full FightDetail for a fight id.
func (s *Store) GetFightDetail(ctx context.Context, fightID string) (*logmodel.FightDetail, bool, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT detail_blob FROM fight_details WHERE fight_id = ?`, fightID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query fight detail %s: %w", fightID, err)
	}
	detail := &logmodel.FightDetail{}
	if err := json.Unmarshal(blob, detail); err != nil {
		return nil, false, fmt.Errorf("decode fight detail: %w", err)
	}
	return detail, true, nil
}

// GetSeries looks up the dense per-second series for a fight id.
func (s *Store) GetSeries(ctx context.Context, fightID string) ([]logmodel.FightSeriesPoint, bool, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT series_blob FROM fight_series WHERE fight_id = ?`, fightID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query fight series %s: %w", fightID, err)
	}
	var series []logmodel.FightSeriesPoint
	if err := json.Unmarshal(blob, &series); err != nil {
		return nil, false, fmt.Errorf("decode fight series: %w", err)
	}
	return series, true, nil
}
