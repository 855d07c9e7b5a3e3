// Package index implements the multi-log index described in spec §4.7:
// it scans a directory of per-log SQLite stores, opens each read-only,
// and exposes session/fight lookups routed by id across every store in
// the directory, refreshing on a watched filesystem change.
//
// Grounded on the teacher's internal/checkpoint/checkpoint.go (a
// mutex-guarded in-memory map, persisted and reloaded from disk) for the
// atomic-map-swap shape, and internal/skills/skills.go's Discover
// (os.ReadDir + skip-invalid-continue directory scan) for store
// discovery. internal/replay/multi.go's session-by-session listing
// informed the sorted Sessions() projection, though its lipgloss header
// styling belongs to internal/tui, not this package.
package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/esolog/logpipeline/internal/logmodel"
	"github.com/esolog/logpipeline/internal/query"
	"github.com/esolog/logpipeline/internal/store"
)

// Options configures an Index.
type Options struct {
	Store store.Options
	// NatsURL, when non-empty, mirrors Changed notifications to the
	// "esoctl.index.changed" subject for cross-process listeners
	// (spec §4.8 [events]).
	NatsURL string
}

type openStore struct {
	path string
	s    *store.Store
}

// Index holds the routing maps for one log-store root directory.
type Index struct {
	root string
	opts Options

	mu            sync.RWMutex
	stores        map[string]*openStore // dbPath -> opened read-only store
	sessionToPath map[string]string
	fightToPath   map[string]string
	sessions      []logmodel.Session // cached, sorted by UnixStartMs descending

	changed   chan struct{}
	natsConn  natsPublisher
	closeOnce sync.Once
	stopWatch func()
}

// New creates an Index over root. Call Refresh before using it.
func New(root string, opts Options) *Index {
	return &Index{
		root:          root,
		opts:          opts,
		stores:        make(map[string]*openStore),
		sessionToPath: make(map[string]string),
		fightToPath:   make(map[string]string),
		changed:       make(chan struct{}, 1),
		natsConn:      connectNats(opts.NatsURL),
	}
}

// Changed returns a channel that receives a notification after each
// successful Refresh. The channel is buffered by 1; a pending
// notification is coalesced rather than queued.
func (ix *Index) Changed() <-chan struct{} { return ix.changed }

// Refresh rescans root for `*.db` store files (names starting with '.'
// are skipped), opens each read-only,
// and atomically swaps the routing maps. Stores dropped from the
// directory since the last refresh are closed after the swap so
// in-flight readers on the old maps aren't disrupted.
func (ix *Index) Refresh(ctx context.Context) error {
	entries, err := os.ReadDir(ix.root)
	if err != nil {
		if os.IsNotExist(err) {
			entries = nil
		} else {
			return fmt.Errorf("scan log store root %s: %w", ix.root, err)
		}
	}

	newStores := make(map[string]*openStore)
	sessionToPath := make(map[string]string)
	fightToPath := make(map[string]string)
	var sessions []logmodel.Session

	for _, entry := range entries {
		if entry.IsDir() || !isStoreFile(entry.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			closeAll(newStores)
			return err
		}

		path := filepath.Join(ix.root, entry.Name())
		s, err := store.OpenReadOnly(path)
		if err != nil {
			// A store that cannot be opened (e.g. a corrupt file) is
			// skipped rather than failing the whole scan. Stores mid-write
			// keep a dot-prefixed temp name and never reach this point.
			continue
		}

		sess, err := s.ListSessions(ctx)
		if err != nil {
			s.Close()
			continue
		}
		sessions = append(sessions, sess...)
		for _, se := range sess {
			sessionToPath[se.ID] = path
			fights, err := s.ListFights(ctx, se.ID)
			if err != nil {
				continue
			}
			for _, f := range fights {
				fightToPath[f.ID] = path
			}
		}

		newStores[path] = &openStore{path: path, s: s}
	}

	sort.Slice(sessions, func(i, j int) bool { return sessions[i].UnixStartMs > sessions[j].UnixStartMs })

	ix.mu.Lock()
	old := ix.stores
	ix.stores = newStores
	ix.sessionToPath = sessionToPath
	ix.fightToPath = fightToPath
	ix.sessions = sessions
	ix.mu.Unlock()

	closeAll(old)
	ix.notifyChanged()
	return nil
}

func isStoreFile(name string) bool {
	return strings.HasSuffix(name, ".db") && !strings.HasPrefix(name, ".")
}

func closeAll(stores map[string]*openStore) {
	for _, os := range stores {
		os.s.Close()
	}
}

func (ix *Index) notifyChanged() {
	select {
	case ix.changed <- struct{}{}:
	default:
	}
	ix.natsConn.publish("esoctl.index.changed")
}

// Sessions returns every known session across all stores, sorted by
// unixStartMs descending (spec §4.7).
func (ix *Index) Sessions() []logmodel.Session {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]logmodel.Session, len(ix.sessions))
	copy(out, ix.sessions)
	return out
}

// Session looks up one session by id across all stores.
func (ix *Index) Session(id string) (logmodel.Session, bool) {
	s, ok := ix.storeFor(ix.sessionPath(id))
	if !ok {
		return logmodel.Session{}, false
	}
	sess, found, err := s.GetSession(context.Background(), id)
	if err != nil || !found {
		return logmodel.Session{}, false
	}
	return sess, true
}

// Fight looks up one fight summary by id.
func (ix *Index) Fight(id string) (logmodel.FightSummary, bool) {
	s, ok := ix.storeFor(ix.fightPath(id))
	if !ok {
		return logmodel.FightSummary{}, false
	}
	f, found, err := s.GetFight(context.Background(), id)
	if err != nil || !found {
		return logmodel.FightSummary{}, false
	}
	return f, true
}

// FightDetail looks up one fight's full detail by id.
func (ix *Index) FightDetail(id string) (*logmodel.FightDetail, bool) {
	s, ok := ix.storeFor(ix.fightPath(id))
	if !ok {
		return nil, false
	}
	d, found, err := s.GetFightDetail(context.Background(), id)
	if err != nil || !found {
		return nil, false
	}
	return d, true
}

// Series looks up one fight's dense per-second series by id.
func (ix *Index) Series(id string) ([]logmodel.FightSeriesPoint, bool) {
	s, ok := ix.storeFor(ix.fightPath(id))
	if !ok {
		return nil, false
	}
	series, found, err := s.GetSeries(context.Background(), id)
	if err != nil || !found {
		return nil, false
	}
	return series, true
}

// FightsForSession returns every fight summary belonging to sessionID,
// ascending by start time, for callers (the fight browser) that need to
// enumerate a session's fights rather than look one up by id.
func (ix *Index) FightsForSession(sessionID string) []logmodel.FightSummary {
	s, ok := ix.storeFor(ix.sessionPath(sessionID))
	if !ok {
		return nil
	}
	fights, err := s.ListFights(context.Background(), sessionID)
	if err != nil {
		return nil
	}
	return fights
}

// Range computes additive range stats for a fight's series over
// [fromMs, toMs), per spec §4.6.
func (ix *Index) Range(id string, fromMs, toMs int64) (*query.RangeStats, bool) {
	series, ok := ix.Series(id)
	if !ok {
		return nil, false
	}
	return query.Range(series, fromMs, toMs), true
}

func (ix *Index) sessionPath(id string) (string, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	p, ok := ix.sessionToPath[id]
	return p, ok
}

func (ix *Index) fightPath(id string) (string, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	p, ok := ix.fightToPath[id]
	return p, ok
}

func (ix *Index) storeFor(path string, ok bool) (*store.Store, bool) {
	if !ok {
		return nil, false
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	os, found := ix.stores[path]
	if !found {
		return nil, false
	}
	return os.s, true
}

// Close stops any running watch and closes every opened store.
func (ix *Index) Close() error {
	ix.closeOnce.Do(func() {
		if ix.stopWatch != nil {
			ix.stopWatch()
		}
		ix.mu.Lock()
		stores := ix.stores
		ix.stores = nil
		ix.mu.Unlock()
		closeAll(stores)
		ix.natsConn.close()
	})
	return nil
}
