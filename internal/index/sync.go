package index

import (
	"fmt"
	"log/slog"
)

// SyncStats counts the changes one Sync made.
type SyncStats struct {
	Upserted  int
	Unchanged int
	Deleted   int
}

// Sync brings the index in line with the posts of a build:
//   - new and changed posts (by checksum) are upserted
//   - indexed posts missing from rows are deleted
func Sync(db PostIndex, rows []PostRow, logger *slog.Logger) (SyncStats, error) {
	var stats SyncStats
	checksums, err := db.AllChecksums()
	if err != nil {
		return stats, err
	}

	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		seen[r.Path] = struct{}{}
		if cs, ok := checksums[r.Path]; ok && cs == r.Checksum {
			stats.Unchanged++
			continue
		}
		if err := db.UpsertPost(r); err != nil {
			return stats, fmt.Errorf("index: sync %s: %w", r.Path, err)
		}
		stats.Upserted++
		logger.Debug("sync: indexed", slog.String("path", r.Path))
	}

	for p := range checksums {
		if _, ok := seen[p]; ok {
			continue
		}
		if err := db.DeletePost(p); err != nil {
			return stats, fmt.Errorf("index: sync delete %s: %w", p, err)
		}
		stats.Deleted++
		logger.Debug("sync: removed stale", slog.String("path", p))
	}

	return stats, nil
}
