package index

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/esolog/logpipeline/internal/store"
)

var guidNamePattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}(\.log)?\.db$`)

// RenameResult records one legacy store renamed by RenameLegacy.
type RenameResult struct {
	OldPath string
	NewPath string
}

// RenameLegacy scans root for GUID-named store files and renames them to
// the friendly `<base>_YYYY-MM-DD_HH-MM-SS.log.db` form, where the base
// is the sanitised GUID file name and the timestamp is the store's
// earliest session start time (spec §4.7). Stores that cannot be read or
// hold no sessions are left unrenamed and are not reported. Collisions resolve by numeric suffix, via the
// same helper writer.Import uses. Callers should Refresh after this
// returns so the routing maps reflect the new names.
func RenameLegacy(ctx context.Context, root string) ([]RenameResult, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var results []RenameResult
	for _, entry := range entries {
		if entry.IsDir() || !guidNamePattern.MatchString(entry.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}

		oldPath := filepath.Join(root, entry.Name())
		result, err := renameOneLegacy(ctx, root, oldPath)
		if err != nil || result.NewPath == "" {
			continue // skip files we can't read, or with no sessions, rather than aborting the sweep
		}
		results = append(results, result)
	}
	return results, nil
}

func renameOneLegacy(ctx context.Context, root, oldPath string) (RenameResult, error) {
	s, err := store.OpenReadOnly(oldPath)
	if err != nil {
		return RenameResult{}, err
	}
	defer s.Close()

	sessions, err := s.ListSessions(ctx)
	if err != nil || len(sessions) == 0 {
		return RenameResult{}, err
	}

	earliest := sessions[0].UnixStartMs
	for _, se := range sessions[1:] {
		if se.UnixStartMs < earliest {
			earliest = se.UnixStartMs
		}
	}

	base := store.SanitizeBaseName(strings.TrimSuffix(strings.TrimSuffix(filepath.Base(oldPath), ".log.db"), ".db"))
	newPath := filepath.Join(root, store.FinalStoreName(base, earliest))
	newPath = store.ResolveCollision(newPath)

	s.Close() // release the handle before the rename
	if err := os.Rename(oldPath, newPath); err != nil {
		return RenameResult{}, err
	}
	return RenameResult{OldPath: oldPath, NewPath: newPath}, nil
}
