package artifact

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTitle is the title of a freshly created workspace artifact.
const DefaultTitle = "Untitled App"

// Artifact is the generated application document: a single self-contained
// HTML/CSS/JS source plus display metadata.
//
// Zero values:
//   - ID: uuid.Nil (sentinel: not yet created; assigned on first
//     generation or first title edit)
//   - Title: "" (use DefaultTitle for fresh workspaces)
//   - Code: "" (empty until first generation)
//   - Version: 0 (incremented by exactly 1 per generation)
type Artifact struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Code      string    `json:"code"`
	Version   int       `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// Empty reports whether the artifact is still the unsaved sentinel state.
func (a Artifact) Empty() bool {
	return a.ID == uuid.Nil && a.Code == ""
}

// New returns a fresh sentinel artifact for a new workspace.
func New(title string) Artifact {
	if title == "" {
		title = DefaultTitle
	}
	return Artifact{
		ID:        uuid.Nil,
		Title:     title,
		Code:      "",
		Version:   0,
		Timestamp: time.Now(),
	}
}
