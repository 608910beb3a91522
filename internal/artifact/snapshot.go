package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// DefaultAutosaveInterval is how often the durable snapshot is
// refreshed while a real artifact exists.
const DefaultAutosaveInterval = 30 * time.Second

// SaveSnapshot writes the artifact to path as JSON. The write is
// atomic: a temp file in the same directory is renamed over the target.
func SaveSnapshot(path string, a Artifact) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".artifact-*.json")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}

	if err = os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads the artifact snapshot from path.
// Returns ErrNoSnapshot when the file does not exist and
// ErrCorruptSnapshot when it cannot be decoded.
func LoadSnapshot(path string) (Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Artifact{}, ErrNoSnapshot
		}
		return Artifact{}, fmt.Errorf("read snapshot: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return a, nil
}

// RestoreSnapshot loads the durable snapshot at path and adopts it as
// current, pushing the prior current artifact to the undo stack first
// when it holds real content.
func (s *Store) RestoreSnapshot(path string) (Artifact, error) {
	loaded, err := LoadSnapshot(path)
	if err != nil {
		return Artifact{}, err
	}

	s.mu.Lock()
	if s.current.Code != "" {
		s.saveToUndo(s.current)
	}
	s.current = loaded
	cur, fn := s.current, s.onChange
	s.mu.Unlock()

	s.logger.Info("restored artifact from snapshot", "version", cur.Version)
	s.notify(fn, cur)
	return cur, nil
}

// RunAutosave periodically saves the current artifact to path until ctx
// is done. Only real artifacts with content are written. Failures are
// logged and never abort the loop; crash recovery simply falls back to
// the previous snapshot.
func (s *Store) RunAutosave(ctx context.Context, path string, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cur := s.Current()
			if cur.ID == uuid.Nil || cur.Code == "" {
				continue
			}
			if err := SaveSnapshot(path, cur); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Warn("autosave failed", "error", err)
			}
		}
	}
}
