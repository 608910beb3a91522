package artifact

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ChangeFunc receives a copy of the current artifact after every
// successful mutation. A single listener is active at a time; the last
// registration wins.
type ChangeFunc func(Artifact)

// Store is the authoritative state machine for the current artifact.
//
// It owns the undo stack (most-recent-last), the redo stack
// (most-recent-first), and the append-only history log. Mutations are
// synchronous; the change callback is invoked after the lock is
// released so listeners may read back from the store.
type Store struct {
	mu       sync.Mutex
	current  Artifact
	undo     []Artifact
	redo     []Artifact
	history  []Artifact
	preEdit  *Artifact // captured at title-edit start, nil otherwise
	onChange ChangeFunc
	logger   *slog.Logger
}

// NewStore creates a Store holding a fresh sentinel artifact.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		current: New(DefaultTitle),
		logger:  logger,
	}
}

// OnChange registers the change listener. Last registration wins.
func (s *Store) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Current returns a copy of the current artifact.
func (s *Store) Current() Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// UndoDepth returns the number of undoable snapshots.
func (s *Store) UndoDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo)
}

// RedoDepth returns the number of redoable snapshots.
func (s *Store) RedoDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redo)
}

// History returns a copy of the persisted snapshot log, oldest first.
func (s *Store) History() []Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Artifact, len(s.history))
	copy(out, s.history)
	return out
}

// saveToUndo pushes a snapshot onto the undo stack and discards the
// redo stack. Caller holds s.mu.
func (s *Store) saveToUndo(a Artifact) {
	s.undo = append(s.undo, a)
	s.redo = nil
}

// notify invokes the change listener outside the lock.
func (s *Store) notify(fn ChangeFunc, a Artifact) {
	if fn != nil {
		fn(a)
	}
}

// Generate replaces the current code with newly generated source.
//
// If the current artifact is real and non-empty, its snapshot is pushed
// to the undo stack (clearing redo) and appended to history with the
// supersede timestamp. The version increments by exactly 1; a real ID
// is assigned if the artifact was still the sentinel.
func (s *Store) Generate(code string) Artifact {
	s.mu.Lock()
	if s.current.ID != uuid.Nil && s.current.Code != "" {
		s.saveToUndo(s.current)
		superseded := s.current
		superseded.Timestamp = time.Now()
		s.history = append(s.history, superseded)
	}
	if s.current.ID == uuid.Nil {
		s.current.ID = uuid.New()
	}
	s.current.Code = code
	s.current.Version++
	s.current.Timestamp = time.Now()
	cur, fn := s.current, s.onChange
	s.mu.Unlock()

	s.logger.Debug("generated artifact", "version", cur.Version, "bytes", len(cur.Code))
	s.notify(fn, cur)
	return cur
}

// RestoreVersion rolls the workspace back to a historical artifact.
// Bookkeeping matches Generate, but the supplied artifact becomes
// current verbatim: it keeps its own version number, not an increment.
func (s *Store) RestoreVersion(a Artifact) Artifact {
	s.mu.Lock()
	if s.current.ID != uuid.Nil {
		s.saveToUndo(s.current)
		superseded := s.current
		superseded.Timestamp = time.Now()
		s.history = append(s.history, superseded)
	}
	s.current = a
	cur, fn := s.current, s.onChange
	s.mu.Unlock()

	s.logger.Debug("restored version", "version", cur.Version)
	s.notify(fn, cur)
	return cur
}

// Undo adopts the most recent undo snapshot as current, pushing the
// pre-undo artifact onto the front of the redo stack. Reports false
// (and does nothing) when the undo stack is empty. History is untouched.
func (s *Store) Undo() (Artifact, bool) {
	s.mu.Lock()
	if len(s.undo) == 0 {
		s.mu.Unlock()
		return Artifact{}, false
	}
	previous := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append([]Artifact{s.current}, s.redo...)
	s.current = previous
	cur, fn := s.current, s.onChange
	s.mu.Unlock()

	s.notify(fn, cur)
	return cur, true
}

// Redo is the mirror of Undo. Reports false on an empty redo stack.
func (s *Store) Redo() (Artifact, bool) {
	s.mu.Lock()
	if len(s.redo) == 0 {
		s.mu.Unlock()
		return Artifact{}, false
	}
	next := s.redo[0]
	s.redo = s.redo[1:]
	s.undo = append(s.undo, s.current)
	s.current = next
	cur, fn := s.current, s.onChange
	s.mu.Unlock()

	s.notify(fn, cur)
	return cur, true
}

// BeginTitleEdit captures the pre-edit artifact. Called when the title
// field gains focus; paired with EndTitleEdit.
func (s *Store) BeginTitleEdit() {
	s.mu.Lock()
	snapshot := s.current
	s.preEdit = &snapshot
	s.mu.Unlock()
}

// SetTitle applies a title edit in place. A real ID is assigned if the
// artifact was still the sentinel. No undo entry is created here; that
// decision is deferred to EndTitleEdit.
func (s *Store) SetTitle(title string) Artifact {
	s.mu.Lock()
	s.current.Title = title
	if s.current.ID == uuid.Nil {
		s.current.ID = uuid.New()
	}
	cur, fn := s.current, s.onChange
	s.mu.Unlock()

	s.notify(fn, cur)
	return cur
}

// EndTitleEdit closes a title edit. The captured pre-edit snapshot is
// pushed to the undo stack only when the title actually changed net;
// editing "A" to "A" leaves the stacks alone.
func (s *Store) EndTitleEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.preEdit == nil {
		return
	}
	if s.preEdit.Title != s.current.Title {
		s.saveToUndo(*s.preEdit)
	}
	s.preEdit = nil
}

// Replace adopts a remotely supplied artifact wholesale, with no undo or
// history bookkeeping. This is the guest-side application of
// SYNC_STATE and CODE_UPDATE payloads.
func (s *Store) Replace(a Artifact) {
	s.mu.Lock()
	s.current = a
	cur, fn := s.current, s.onChange
	s.mu.Unlock()

	s.notify(fn, cur)
}

// Reset returns the workspace to the Empty state: sentinel artifact,
// cleared stacks, cleared history. Used when switching projects.
func (s *Store) Reset(title string) {
	s.mu.Lock()
	s.current = New(title)
	s.undo = nil
	s.redo = nil
	s.history = nil
	s.preEdit = nil
	cur, fn := s.current, s.onChange
	s.mu.Unlock()

	s.notify(fn, cur)
}
