// Package live tracks whether a long-running operation is still acting
// on the workspace it started from. A cheap fingerprint of the mutable
// state is captured when the operation begins; any divergence afterward
// marks the operation stale until its owner explicitly restarts it.
package live

import (
	"fmt"
	"sync"

	"github.com/hgilabs/vibestudio/internal/artifact"
)

// Fingerprint summarizes the workspace state an operation depends on.
// Code length stands in for code content: any generation or restore
// that changes the artifact also bumps its version, so length plus
// version is collision-safe enough for staleness detection.
func Fingerprint(a artifact.Artifact, lastMessageID string) string {
	return fmt.Sprintf("%s|%d|%d|%s", a.Title, a.Version, len(a.Code), lastMessageID)
}

// Tracker guards one in-flight operation. Mark captures the starting
// fingerprint; Check flips the tracker stale on the first divergence.
// Staleness is sticky: the state drifting back to an identical
// fingerprint does not clear it, only the next Mark does.
type Tracker struct {
	mu     sync.Mutex
	active bool
	start  string
	stale  bool
}

// Mark records the fingerprint the operation starts from and clears
// any previous staleness.
func (t *Tracker) Mark(a artifact.Artifact, lastMessageID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = true
	t.start = Fingerprint(a, lastMessageID)
	t.stale = false
}

// Check compares the current state against the marked fingerprint,
// flipping the tracker stale on mismatch. It reports the (possibly
// just-set) staleness. Without an active mark it always reports false.
func (t *Tracker) Check(a artifact.Artifact, lastMessageID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return false
	}
	if !t.stale && Fingerprint(a, lastMessageID) != t.start {
		t.stale = true
	}
	return t.stale
}

// Stale reports the sticky staleness flag.
func (t *Tracker) Stale() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stale
}

// Clear ends the tracked operation.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = false
	t.stale = false
	t.start = ""
}
