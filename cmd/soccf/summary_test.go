package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/egdaemon/soccf/internal/coverage"
	"github.com/egdaemon/soccf/internal/coverage/snapshot"
	"github.com/logrusorgru/aurora"
	"github.com/stretchr/testify/require"
)

func TestRequired(t *testing.T) {
	t.Run("missing_snapshot_is_user_friendly", func(t *testing.T) {
		err := required(filepath.Join(t.TempDir(), "soccf.cov.gz"))
		require.Error(t, err)

		var u interface{ UserFriendly() }
		require.True(t, errors.As(err, &u))
	})

	t.Run("existing_snapshot", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "soccf.cov")
		require.NoError(t, snapshot.WriteFile(path, false, coverage.Empty()))
		require.NoError(t, required(path))
	})
}

func TestReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "soccf.cov.gz")
	c := coverage.New()
	for i := 0; i < 1500; i++ {
		c.RecordStatement(coverage.ID(i))
	}
	c.RecordBranch(1, true)
	c.RecordBranch(1, false)
	require.NoError(t, snapshot.WriteFile(path, true, c.Snapshot()))

	r, err := load(path, true)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Fprintln(&buf, aurora.NewAurora(false)))
	require.Equal(t, path+" statements 1,500 branches 1\n", buf.String())
}
