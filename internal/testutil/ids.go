package testutil

import (
	"fmt"
	"sync"
)

// SequenceIDs mints ids "ev-0001", "ev-0002", ... Deterministic ids make
// golden comparisons and tie-break assertions possible.
//
// Safe for concurrent use.
type SequenceIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceIDs creates a generator with the "ev" prefix.
func NewSequenceIDs() *SequenceIDs {
	return &SequenceIDs{prefix: "ev"}
}

// NewSequenceIDsWithPrefix creates a generator with a custom prefix.
func NewSequenceIDsWithPrefix(prefix string) *SequenceIDs {
	return &SequenceIDs{prefix: prefix}
}

// NewID returns the next id in sequence.
func (g *SequenceIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
