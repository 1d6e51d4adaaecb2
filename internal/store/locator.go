package store

import (
	"os"
	"path/filepath"
	"sort"

	"chatnerd/internal/logging"
)

// MostRecent returns the most recently modified record file in dir, or ""
// when no record exists (including when dir itself is absent — that is the
// first-ever capture, not an error).
//
// Ties on modification time break by file name, lexicographically descending,
// so repeated runs over the same tree always pick the same record.
func MostRecent(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logging.StoreDebug("records dir %s does not exist yet", dir)
			return "", nil
		}
		return "", err
	}

	type candidate struct {
		name  string
		mtime int64
	}

	var candidates []candidate
	for _, entry := range entries {
		if entry.IsDir() || !IsRecordFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{name: entry.Name(), mtime: info.ModTime().UnixNano()})
	}

	if len(candidates) == 0 {
		logging.StoreDebug("no records in %s", dir)
		return "", nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].mtime != candidates[j].mtime {
			return candidates[i].mtime > candidates[j].mtime
		}
		return candidates[i].name > candidates[j].name
	})

	path := filepath.Join(dir, candidates[0].name)
	logging.StoreDebug("most recent record: %s (of %d)", candidates[0].name, len(candidates))
	return path, nil
}
