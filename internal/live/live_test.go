package live_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/hgilabs/vibestudio/internal/artifact"
	"github.com/hgilabs/vibestudio/internal/live"
)

func fpArtifact(title string, version int, code string) artifact.Artifact {
	return artifact.Artifact{ID: uuid.New(), Title: title, Code: code, Version: version}
}

func TestFingerprint_Components(t *testing.T) {
	t.Parallel()

	a := fpArtifact("Counter", 3, "<html>")
	base := live.Fingerprint(a, "m9")
	assert.Equal(t, "Counter|3|6|m9", base)

	// Each component changing changes the fingerprint.
	assert.NotEqual(t, base, live.Fingerprint(fpArtifact("Timer", 3, "<html>"), "m9"))
	assert.NotEqual(t, base, live.Fingerprint(fpArtifact("Counter", 4, "<html>"), "m9"))
	assert.NotEqual(t, base, live.Fingerprint(fpArtifact("Counter", 3, "<html/>"), "m9"))
	assert.NotEqual(t, base, live.Fingerprint(a, "m10"))

	// The artifact id is deliberately excluded.
	b := a
	b.ID = uuid.New()
	assert.Equal(t, base, live.Fingerprint(b, "m9"))
}

func TestTracker_FlipsStaleOnDivergence(t *testing.T) {
	t.Parallel()

	var tr live.Tracker
	a := fpArtifact("Counter", 1, "<html>")
	tr.Mark(a, "m1")

	assert.False(t, tr.Check(a, "m1"))
	assert.False(t, tr.Stale())

	changed := a
	changed.Version = 2
	assert.True(t, tr.Check(changed, "m1"))
	assert.True(t, tr.Stale())
}

func TestTracker_StalenessIsSticky(t *testing.T) {
	t.Parallel()

	var tr live.Tracker
	a := fpArtifact("Counter", 1, "<html>")
	tr.Mark(a, "m1")

	changed := a
	changed.Title = "Timer"
	assert.True(t, tr.Check(changed, "m1"))

	// Drifting back to the original state does not clear it.
	assert.True(t, tr.Check(a, "m1"))
	assert.True(t, tr.Stale())

	// A fresh mark does.
	tr.Mark(a, "m1")
	assert.False(t, tr.Stale())
	assert.False(t, tr.Check(a, "m1"))
}

func TestTracker_InactiveNeverStale(t *testing.T) {
	t.Parallel()

	var tr live.Tracker
	assert.False(t, tr.Check(fpArtifact("Counter", 1, "x"), "m1"))

	tr.Mark(fpArtifact("Counter", 1, "x"), "m1")
	tr.Clear()
	assert.False(t, tr.Check(fpArtifact("Other", 9, "y"), "m2"))
	assert.False(t, tr.Stale())
}
