// Package testutil holds deterministic helpers shared by package tests.
package testutil

import (
	"fmt"
	"sync"
)

// FixedRunIDs generates run IDs from a fixed prefix and a logical counter:
// "<prefix>-1", "<prefix>-2", ... It implements effect.RunIDGenerator.
//
// Identical test runs therefore produce identical journal rows and golden
// snapshots.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type FixedRunIDs struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewFixedRunIDs creates a generator. If prefix is empty, "test-run" is used.
func NewFixedRunIDs(prefix string) *FixedRunIDs {
	if prefix == "" {
		prefix = "test-run"
	}
	return &FixedRunIDs{prefix: prefix}
}

// Generate returns the next run ID.
func (g *FixedRunIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%d", g.prefix, g.seq)
}

// Current returns how many IDs have been generated.
func (g *FixedRunIDs) Current() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset restarts the sequence so the next ID is "<prefix>-1" again.
func (g *FixedRunIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
