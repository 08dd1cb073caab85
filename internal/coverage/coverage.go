// Package coverage accumulates statement and branch hit counts for instrumented code.
//
// A branch only counts as covered once both of its directions have been observed;
// its strength is the hit count of the less exercised direction.
package coverage

import (
	"maps"
	"sync"
)

// ID identifies an instrumentation point. statement and branch ids are
// assigned from independent spaces.
type ID uint32

// Counts maps an instrumentation point to its hit count.
type Counts map[ID]uint64

// Snapshot is a complete copy of the persisted state of a Counter.
type Snapshot struct {
	Statements    Counts
	TrueBranches  Counts
	FalseBranches Counts
}

// Empty snapshot, every map is allocated.
func Empty() Snapshot {
	return Snapshot{
		Statements:    Counts{},
		TrueBranches:  Counts{},
		FalseBranches: Counts{},
	}
}

// Branches derives the branch coverage of the snapshot.
func (t Snapshot) Branches() Counts {
	return derive(t.TrueBranches, t.FalseBranches)
}

// Counter is safe for concurrent use.
type Counter struct {
	m             sync.Mutex
	statements    Counts
	branches      Counts
	truebranches  Counts
	falsebranches Counts
}

func New() *Counter {
	return &Counter{
		statements:    Counts{},
		branches:      Counts{},
		truebranches:  Counts{},
		falsebranches: Counts{},
	}
}

func (t *Counter) RecordStatement(id ID) {
	t.m.Lock()
	defer t.m.Unlock()
	t.statements[id]++
}

// RecordBranch records a hit for the given direction of the branch and
// updates its derived coverage.
func (t *Counter) RecordBranch(id ID, direction bool) {
	t.m.Lock()
	defer t.m.Unlock()

	if direction {
		t.truebranches[id]++
	} else {
		t.falsebranches[id]++
	}

	tc, tok := t.truebranches[id]
	fc, fok := t.falsebranches[id]
	if tok && fok {
		t.branches[id] = min(tc, fc)
	}
}

func (t *Counter) Statements() Counts {
	return t.clone(func() Counts { return t.statements })
}

func (t *Counter) Branches() Counts {
	return t.clone(func() Counts { return t.branches })
}

func (t *Counter) TrueBranches() Counts {
	return t.clone(func() Counts { return t.truebranches })
}

func (t *Counter) FalseBranches() Counts {
	return t.clone(func() Counts { return t.falsebranches })
}

// CoveredStatements is the number of statements hit at least once.
func (t *Counter) CoveredStatements() int {
	t.m.Lock()
	defer t.m.Unlock()
	return len(t.statements)
}

// CoveredBranches is the number of branches with both directions hit.
func (t *Counter) CoveredBranches() int {
	t.m.Lock()
	defer t.m.Unlock()
	return len(t.branches)
}

// Snapshot captures a consistent copy of the counts.
func (t *Counter) Snapshot() Snapshot {
	t.m.Lock()
	defer t.m.Unlock()

	return Snapshot{
		Statements:    maps.Clone(t.statements),
		TrueBranches:  maps.Clone(t.truebranches),
		FalseBranches: maps.Clone(t.falsebranches),
	}
}

// Load overwrites the counts of every id present in the snapshot and
// recomputes the branch coverage from scratch.
func (t *Counter) Load(s Snapshot) {
	t.m.Lock()
	defer t.m.Unlock()

	maps.Copy(t.statements, s.Statements)
	maps.Copy(t.truebranches, s.TrueBranches)
	maps.Copy(t.falsebranches, s.FalseBranches)
	t.branches = derive(t.truebranches, t.falsebranches)
}

func (t *Counter) clone(m func() Counts) Counts {
	t.m.Lock()
	defer t.m.Unlock()
	return maps.Clone(m())
}

func derive(truebranches, falsebranches Counts) Counts {
	branches := make(Counts, min(len(truebranches), len(falsebranches)))
	for id, tc := range truebranches {
		if fc, ok := falsebranches[id]; ok {
			branches[id] = min(tc, fc)
		}
	}

	return branches
}
