package persist

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hgilabs/vibestudio/internal/artifact"
	"github.com/hgilabs/vibestudio/internal/chat"
)

// mirrorWriteTimeout bounds each storage write issued by the mirror.
const mirrorWriteTimeout = 5 * time.Second

// Mirror keeps one session's stored record trailing the in-memory
// workspace. Artifact changes are debounced; chat messages are written
// through immediately. Write failures are logged and absorbed, never
// surfaced to the editing flow.
type Mirror struct {
	store     *Store
	sessionID string
	deb       *Debouncer
	logger    *slog.Logger

	mu        sync.Mutex
	lastSaved time.Time
}

// NewMirror creates a mirror for the session. A non-positive debounce
// falls back to DefaultDebounce.
func NewMirror(store *Store, sessionID string, debounce time.Duration, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mirror{
		store:     store,
		sessionID: sessionID,
		deb:       NewDebouncer(debounce),
		logger:    logger,
	}
}

// ArtifactChanged schedules a debounced write of the artifact. Bursts
// of changes collapse into one write of the newest state.
func (m *Mirror) ArtifactChanged(a artifact.Artifact) {
	m.deb.Trigger(func() { m.writeArtifact(a) })
}

// MessageAppended writes one chat message through immediately.
func (m *Mirror) MessageAppended(msg chat.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorWriteTimeout)
	defer cancel()
	if err := m.store.AppendMessage(ctx, m.sessionID, msg); err != nil {
		m.logger.Warn("message mirror failed", "message_id", msg.ID, "error", err)
		return
	}
	m.markSaved()
}

// LastSaved returns when the mirror last wrote successfully. The zero
// time means nothing has been saved yet.
func (m *Mirror) LastSaved() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSaved
}

// Flush writes any pending artifact immediately. Called on shutdown.
func (m *Mirror) Flush() {
	m.deb.Flush()
}

// Close cancels pending work after a final flush.
func (m *Mirror) Close() {
	m.deb.Flush()
	m.deb.Stop()
}

func (m *Mirror) writeArtifact(a artifact.Artifact) {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorWriteTimeout)
	defer cancel()
	if err := m.store.UpdateSessionArtifact(ctx, m.sessionID, a); err != nil {
		m.logger.Warn("artifact mirror failed", "version", a.Version, "error", err)
		return
	}
	m.markSaved()
}

func (m *Mirror) markSaved() {
	m.mu.Lock()
	m.lastSaved = time.Now()
	m.mu.Unlock()
}
