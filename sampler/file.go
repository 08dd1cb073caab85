package sampler

import (
	"sync"

	"github.com/egdaemon/soccf/internal/coverage/snapshot"
)

// File reporter summarizing the snapshot stored at path. the snapshot is
// reread by every Refresh, allowing another process to own the collector.
func File(path string, compress bool) *FileReporter {
	return &FileReporter{path: path, compress: compress}
}

type FileReporter struct {
	path       string
	compress   bool
	m          sync.RWMutex
	statements int
	branches   int
}

func (t *FileReporter) Refresh() error {
	s, err := snapshot.ReadFile(t.path, t.compress)
	if err != nil {
		return err
	}

	t.m.Lock()
	defer t.m.Unlock()
	t.statements, t.branches = len(s.Statements), len(s.Branches())

	return nil
}

func (t *FileReporter) CoveredStatements() int {
	t.m.RLock()
	defer t.m.RUnlock()
	return t.statements
}

func (t *FileReporter) CoveredBranches() int {
	t.m.RLock()
	defer t.m.RUnlock()
	return t.branches
}
