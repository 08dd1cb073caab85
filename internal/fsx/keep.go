package fsx

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/egdaemon/soccf/internal/errorsx"
	"github.com/egdaemon/soccf/internal/iterx"
)

// KeepNewestN consumes s and yields all but the N most recently modified files.
// files with the same modification time are ordered by name, the greatest
// name is considered the newest.
func KeepNewestN(n int, s iterx.Seq[string]) iterx.Seq[string] {
	return iterx.New(func(ctx context.Context, yield func(string) bool) error {
		type entry struct {
			path     string
			modified int64
		}

		var entries []entry
		for path := range s.Each(ctx) {
			info, err := os.Stat(path)
			if err != nil {
				return errorsx.Wrapf(err, "keep: stat %s", path)
			}

			entries = append(entries, entry{path: path, modified: info.ModTime().UnixNano()})
		}

		if err := s.Err(); err != nil {
			return err
		}

		slices.SortFunc(entries, func(a, b entry) int {
			switch {
			case a.modified > b.modified:
				return -1
			case a.modified < b.modified:
				return 1
			default:
				return strings.Compare(b.path, a.path)
			}
		})

		for _, e := range entries[min(max(n, 0), len(entries)):] {
			if !yield(filepath.Clean(e.path)) {
				return nil
			}
		}

		return nil
	})
}
