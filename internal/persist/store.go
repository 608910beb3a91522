package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hgilabs/vibestudio/internal/artifact"
	"github.com/hgilabs/vibestudio/internal/chat"
)

// ErrNotFound indicates the requested project or session does not exist.
var ErrNotFound = errors.New("record not found")

// Project groups the sessions of one workspace.
type Project struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Session is one stored workspace: its artifact plus timestamps. Chat
// history lives in the messages table keyed by session id.
type Session struct {
	ID        string
	ProjectID string
	Artifact  artifact.Artifact
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Publication is one published (read-only) copy of an artifact.
type Publication struct {
	Slug        string
	SessionID   string
	Title       string
	Code        string
	Version     int
	PublishedAt time.Time
}

// Store provides project and session persistence over an open database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore creates a Store. The database must already be migrated.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// CreateProject creates a project and returns it.
func (s *Store) CreateProject(ctx context.Context, name string) (Project, error) {
	p := Project{ID: uuid.NewString(), Name: name, CreatedAt: time.Now().UTC()}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO projects (id, name, created_at) VALUES (?, ?, ?)",
		p.ID, p.Name, p.CreatedAt,
	)
	if err != nil {
		return Project{}, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

// ListProjects returns all projects, most recent first.
func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_at FROM projects ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreateSession stores a new session under the project.
func (s *Store) CreateSession(ctx context.Context, projectID string, a artifact.Artifact) (Session, error) {
	now := time.Now().UTC()
	sess := Session{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Artifact:  a,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, project_id, artifact_id, artifact_title, artifact_code, artifact_version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, projectID, a.ID.String(), a.Title, a.Code, a.Version, now, now,
	)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// CreateOrGetSession resumes the project's most recently updated
// session, creating one seeded with the supplied artifact when the
// project has none.
func (s *Store) CreateOrGetSession(ctx context.Context, projectID string, seed artifact.Artifact) (Session, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM sessions WHERE project_id = ? ORDER BY updated_at DESC LIMIT 1",
		projectID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return s.CreateSession(ctx, projectID, seed)
	}
	if err != nil {
		return Session{}, fmt.Errorf("find latest session: %w", err)
	}
	return s.GetSession(ctx, id)
}

// GetSession loads one session.
func (s *Store) GetSession(ctx context.Context, id string) (Session, error) {
	var (
		sess       Session
		artifactID string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, artifact_id, artifact_title, artifact_code, artifact_version, created_at, updated_at
		FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.ProjectID, &artifactID,
		&sess.Artifact.Title, &sess.Artifact.Code, &sess.Artifact.Version,
		&sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	if sess.Artifact.ID, err = uuid.Parse(artifactID); err != nil {
		return Session{}, fmt.Errorf("session %s artifact id: %w", id, err)
	}
	sess.Artifact.Timestamp = sess.UpdatedAt
	return sess, nil
}

// UpdateSessionArtifact overwrites the session's stored artifact.
func (s *Store) UpdateSessionArtifact(ctx context.Context, sessionID string, a artifact.Artifact) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET artifact_id = ?, artifact_title = ?, artifact_code = ?, artifact_version = ?, updated_at = ?
		WHERE id = ?`,
		a.ID.String(), a.Title, a.Code, a.Version, time.Now().UTC(), sessionID,
	)
	if err != nil {
		return fmt.Errorf("update session artifact: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session artifact: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	return nil
}

// AppendMessage stores one chat message. Re-appending an already stored
// id is a no-op, matching the in-memory log's de-duplication.
func (s *Store) AppendMessage(ctx context.Context, sessionID string, m chat.Message) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, session_id, role, content, image, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		m.ID, sessionID, m.Role, m.Content, m.Image, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// Messages returns the session's chat history in insertion order.
func (s *Store) Messages(ctx context.Context, sessionID string) ([]chat.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, role, content, image FROM messages WHERE session_id = ? ORDER BY rowid",
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	defer rows.Close()

	var out []chat.Message
	for rows.Next() {
		var m chat.Message
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &m.Image); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Publish stores a read-only copy of the session's current artifact and
// returns its slug.
func (s *Store) Publish(ctx context.Context, sessionID string) (string, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return "", err
	}
	slug := makeSlug(sess.Artifact.Title)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO publishes (slug, session_id, title, code, version, published_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		slug, sessionID, sess.Artifact.Title, sess.Artifact.Code, sess.Artifact.Version, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("publish session: %w", err)
	}
	s.logger.Info("artifact published", "slug", slug, "version", sess.Artifact.Version)
	return slug, nil
}

// GetPublication loads one published artifact by slug.
func (s *Store) GetPublication(ctx context.Context, slug string) (Publication, error) {
	var p Publication
	err := s.db.QueryRowContext(ctx, `
		SELECT slug, session_id, title, code, version, published_at
		FROM publishes WHERE slug = ?`, slug,
	).Scan(&p.Slug, &p.SessionID, &p.Title, &p.Code, &p.Version, &p.PublishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Publication{}, fmt.Errorf("publication %s: %w", slug, ErrNotFound)
	}
	if err != nil {
		return Publication{}, fmt.Errorf("get publication: %w", err)
	}
	return p, nil
}

// makeSlug derives a URL-safe slug from a title plus a random suffix so
// repeated publishes of the same title never collide.
func makeSlug(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteByte('-')
		}
	}
	base := strings.Trim(b.String(), "-")
	if base == "" {
		base = "app"
	}
	return base + "-" + uuid.NewString()[:8]
}
