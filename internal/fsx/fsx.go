// Package fsx provides file system helpers built on iterx sequences.
package fsx

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/egdaemon/soccf/internal/errorsx"
	"github.com/egdaemon/soccf/internal/iterx"
)

// Prefixed yields the regular files within dir whose names start with prefix.
// a missing directory yields nothing.
func Prefixed(dir string, prefix string) iterx.Seq[string] {
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return iterx.Error[string](errorsx.Wrapf(err, "prefixed: reading directory %s", dir))
	}

	return iterx.New(func(ctx context.Context, yield func(string) bool) error {
		for _, e := range entries {
			if err := ctx.Err(); err != nil {
				return err
			}

			if !e.Type().IsRegular() || !strings.HasPrefix(e.Name(), prefix) {
				continue
			}

			if !yield(filepath.Join(dir, e.Name())) {
				return nil
			}
		}

		return nil
	})
}
