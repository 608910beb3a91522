package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hgilabs/vibestudio/internal/artifact"
	"github.com/hgilabs/vibestudio/internal/chat"
	"github.com/hgilabs/vibestudio/internal/collab"
	"github.com/hgilabs/vibestudio/internal/generate"
	"github.com/hgilabs/vibestudio/internal/live"
	"github.com/hgilabs/vibestudio/internal/peer"
	"github.com/hgilabs/vibestudio/internal/persist"
	"github.com/hgilabs/vibestudio/internal/preview"
)

// ErrNoTransport indicates a peer operation on a session built without
// a transport.
var ErrNoTransport = errors.New("session has no peer transport")

// Transport is the slice of the peer layer the studio needs. Satisfied
// by *peer.Transport.
type Transport interface {
	collab.Transport
	Initialize(ctx context.Context, targetPeerID string) (string, error)
	OnData(fn peer.DataFunc)
	OnConnectionCountChanged(fn func(int))
	OnError(fn func(error))
	ID() string
	PeerCount() int
	Close() error
}

// Config carries a session's dependencies. Role, Generator and Logger
// are required for hosts; guests run without a Generator. Transport,
// Mirror, Persist and SessionID are optional.
type Config struct {
	Role         collab.Role
	Transport    Transport
	Generator    generate.Generator
	Mirror       *persist.Mirror
	Persist      *persist.Store
	SessionID    string
	SnapshotPath string
	Logger       *slog.Logger
}

// Studio is one editing session.
type Studio struct {
	role      collab.Role
	store     *artifact.Store
	msgs      *chat.Log
	coord     *collab.Coordinator
	transport Transport
	gen       generate.Generator
	mirror    *persist.Mirror
	persist   *persist.Store
	sessionID string
	bridge    *preview.Bridge
	tracker   live.Tracker
	snapshot  string
	logger    *slog.Logger

	onMessage  func(chat.Message)
	onHistory  func([]chat.Message)
	onArtifact func(artifact.Artifact)
}

// New builds a session and wires its parts together.
func New(cfg Config) *Studio {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Studio{
		role:      cfg.Role,
		store:     artifact.NewStore(logger),
		msgs:      chat.NewLog(),
		transport: cfg.Transport,
		gen:       cfg.Generator,
		mirror:    cfg.Mirror,
		persist:   cfg.Persist,
		sessionID: cfg.SessionID,
		bridge:    preview.NewBridge(logger),
		snapshot:  cfg.SnapshotPath,
		logger:    logger,
	}

	s.coord = collab.NewCoordinator(collab.Config{
		Role:      cfg.Role,
		Transport: cfg.Transport,
		Store:     s.store,
		Messages:  s.msgs,
		OnPrompt:  s.runPrompt,
		Logger:    logger,
	})

	s.store.OnChange(s.artifactChanged)
	s.msgs.OnAppend(s.messageAppended)
	s.msgs.OnReplace(s.historyReplaced)

	if cfg.Transport != nil {
		cfg.Transport.OnData(func(payload []byte, from string) {
			s.coord.HandleInbound(context.Background(), payload, from)
		})
		cfg.Transport.OnConnectionCountChanged(s.coord.PeerCountChanged)
		cfg.Transport.OnError(func(err error) {
			logger.Warn("peer transport error", "error", err)
		})
	}

	s.bridge.OnEvent(s.previewEvent)
	return s
}

// OnMessage registers the UI callback fired for every message entering
// the log. Last registration wins.
func (s *Studio) OnMessage(fn func(chat.Message)) { s.onMessage = fn }

// OnHistory registers the UI callback fired when the whole chat log is
// replaced, as when a guest adopts the host's state. Last registration
// wins.
func (s *Studio) OnHistory(fn func([]chat.Message)) { s.onHistory = fn }

// OnArtifact registers the UI callback fired for every artifact change.
// Last registration wins.
func (s *Studio) OnArtifact(fn func(artifact.Artifact)) { s.onArtifact = fn }

// Role returns the session's collaboration role.
func (s *Studio) Role() collab.Role { return s.role }

// Artifact returns the current artifact.
func (s *Studio) Artifact() artifact.Artifact { return s.store.Current() }

// Messages returns the chat log in order.
func (s *Studio) Messages() []chat.Message { return s.msgs.Messages() }

// artifactChanged fans one artifact change out to every consumer.
func (s *Studio) artifactChanged(a artifact.Artifact) {
	s.coord.ArtifactChanged(a)
	if s.mirror != nil {
		s.mirror.ArtifactChanged(a)
	}
	if a.Code != "" {
		if err := s.bridge.Load(preview.InjectHarness(a.Code)); err != nil {
			s.logger.Warn("preview reload failed", "version", a.Version, "error", err)
		}
	}
	if s.onArtifact != nil {
		s.onArtifact(a)
	}
}

// messageAppended fans one appended message out to every consumer.
func (s *Studio) messageAppended(m chat.Message) {
	s.coord.MessageAppended(m)
	if s.mirror != nil && !chat.IsWelcome(m) {
		s.mirror.MessageAppended(m)
	}
	if s.onMessage != nil {
		s.onMessage(m)
	}
}

// historyReplaced surfaces a wholesale log replacement to the UI. The
// messages were never individually appended, so OnMessage stays quiet
// and the UI redraws from the full list instead.
func (s *Studio) historyReplaced(messages []chat.Message) {
	if s.onHistory != nil {
		s.onHistory(messages)
	}
}

// previewEvent surfaces sandbox console errors in the chat stream;
// plain logs stay on the logger.
func (s *Studio) previewEvent(ev preview.Event) {
	switch ev.Type {
	case preview.EventError:
		s.appendSystem("Preview error: " + ev.Message)
	case preview.EventLog, preview.EventWarn:
		s.logger.Debug("preview console", "level", ev.Type, "message", ev.Message)
	}
}

// Connect dials the relay. Guests pass the host's peer id; hosts pass
// "" and wait for inbound connections. Returns this peer's id.
func (s *Studio) Connect(ctx context.Context, targetPeerID string) (string, error) {
	if s.transport == nil {
		return "", ErrNoTransport
	}
	return s.transport.Initialize(ctx, targetPeerID)
}

// SubmitPrompt runs one user prompt: hosts generate locally, guests
// forward to the host. The optional image is a data URL.
func (s *Studio) SubmitPrompt(ctx context.Context, text, imageDataURL string) error {
	m := chat.Message{
		ID:      uuid.NewString(),
		Role:    chat.RoleUser,
		Content: text,
		Image:   imageDataURL,
	}

	if s.role == collab.RoleGuest {
		return s.coord.SubmitPrompt(m)
	}

	s.msgs.Append(m)
	return s.generateFor(ctx, m)
}

// runPrompt is the coordinator's path for guest prompts arriving over
// the wire: append, then generate, exactly like a local prompt.
func (s *Studio) runPrompt(ctx context.Context, m chat.Message) {
	s.msgs.Append(m)
	if err := s.generateFor(ctx, m); err != nil {
		s.logger.Error("remote prompt generation failed", "error", err)
	}
}

// generateFor runs the generator for a prompt message and applies the
// result. Generation failures become a chat message rather than
// tearing the session down.
func (s *Studio) generateFor(ctx context.Context, m chat.Message) error {
	if s.gen == nil {
		s.appendSystem("This session cannot generate apps: no model is configured.")
		return nil
	}

	cur := s.store.Current()
	s.tracker.Mark(cur, m.ID)

	req := generate.Request{Prompt: m.Content, CurrentCode: cur.Code}
	if m.Image != "" {
		img, err := generate.ParseImageDataURL(m.Image)
		if err != nil {
			s.logger.Warn("dropping unusable image attachment", "error", err)
		} else {
			req.Image = img
		}
	}

	started := time.Now()
	code, err := s.gen.GenerateApp(ctx, req)
	if err != nil {
		s.appendModel("Something went wrong while generating: " + err.Error())
		return fmt.Errorf("generate app: %w", err)
	}

	lastID := ""
	if last, ok := s.msgs.Last(); ok {
		lastID = last.ID
	}
	if s.tracker.Check(s.store.Current(), lastID) {
		s.logger.Warn("workspace changed during generation, applying anyway",
			"elapsed", time.Since(started))
	}
	s.tracker.Clear()

	a := s.store.Generate(code)
	s.appendModel(fmt.Sprintf("Done. The app is now at v%d.", a.Version))
	return nil
}

// Resume adopts a stored session's artifact and chat history as the
// workspace starting point. No undo bookkeeping: this is bootstrap,
// not an edit.
func (s *Studio) Resume(a artifact.Artifact, history []chat.Message) {
	if len(history) > 0 {
		s.msgs.Replace(append([]chat.Message{chat.Welcome()}, history...))
	}
	if !a.Empty() {
		s.store.Replace(a)
	}
}

// ResetWorkspace returns the session to the fresh-start state: sentinel
// artifact, cleared stacks and history, reseeded welcome message.
func (s *Studio) ResetWorkspace() {
	s.store.Reset(artifact.DefaultTitle)
	s.msgs.Reset()
}

// Undo steps the artifact back one version.
func (s *Studio) Undo() (artifact.Artifact, bool) { return s.store.Undo() }

// Redo reapplies the most recently undone version.
func (s *Studio) Redo() (artifact.Artifact, bool) { return s.store.Redo() }

// History returns every generated version, oldest first.
func (s *Studio) History() []artifact.Artifact { return s.store.History() }

// RestoreVersion adopts a historical version verbatim and announces it
// in the chat.
func (s *Studio) RestoreVersion(a artifact.Artifact) artifact.Artifact {
	restored := s.store.RestoreVersion(a)
	s.appendSystem(fmt.Sprintf("Version %d restored.", restored.Version))
	return restored
}

// Rename sets the artifact title as one undoable edit.
func (s *Studio) Rename(title string) artifact.Artifact {
	s.store.BeginTitleEdit()
	a := s.store.SetTitle(title)
	s.store.EndTitleEdit()
	return a
}

// Audit asks the model for an ethics and accessibility review of the
// current app and appends the report to the chat.
func (s *Studio) Audit(ctx context.Context) error {
	if s.gen == nil {
		return errors.New("no model configured")
	}
	report, err := s.gen.AuditEthics(ctx, s.store.Current().Code)
	if err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	s.appendModel("Ethics audit:\n" + report)
	return nil
}

// Publish stores a read-only copy of the current artifact and returns
// its slug.
func (s *Studio) Publish(ctx context.Context) (string, error) {
	if s.persist == nil || s.sessionID == "" {
		return "", errors.New("publishing requires persistence")
	}
	if s.mirror != nil {
		// The stored artifact must match what the user sees.
		s.mirror.Flush()
	}
	return s.persist.Publish(ctx, s.sessionID)
}

// SaveSnapshot writes the current artifact to the snapshot file.
func (s *Studio) SaveSnapshot() error {
	if s.snapshot == "" {
		return errors.New("no snapshot path configured")
	}
	return artifact.SaveSnapshot(s.snapshot, s.store.Current())
}

// RestoreSnapshot adopts the snapshot file's artifact and announces it.
func (s *Studio) RestoreSnapshot() (artifact.Artifact, error) {
	if s.snapshot == "" {
		return artifact.Artifact{}, errors.New("no snapshot path configured")
	}
	a, err := s.store.RestoreSnapshot(s.snapshot)
	if err != nil {
		return artifact.Artifact{}, err
	}
	s.appendSystem(fmt.Sprintf("Session restored (v%d).", a.Version))
	return a, nil
}

// StartAutosave periodically snapshots the artifact until ctx ends.
// Blocks; run on its own goroutine.
func (s *Studio) StartAutosave(ctx context.Context, interval time.Duration) {
	if s.snapshot == "" {
		return
	}
	s.store.RunAutosave(ctx, s.snapshot, interval)
}

// PeerCount returns the number of open peer connections.
func (s *Studio) PeerCount() int {
	if s.transport == nil {
		return 0
	}
	return s.transport.PeerCount()
}

// PeerID returns this session's relay-allocated id, or "".
func (s *Studio) PeerID() string {
	if s.transport == nil {
		return ""
	}
	return s.transport.ID()
}

// Preview returns the bridge serving the session's sandboxed preview.
func (s *Studio) Preview() *preview.Bridge { return s.bridge }

// Close flushes pending persistence and tears the transport down.
func (s *Studio) Close() error {
	if s.mirror != nil {
		s.mirror.Close()
	}
	if s.transport != nil {
		return s.transport.Close()
	}
	return nil
}

func (s *Studio) appendSystem(text string) {
	s.msgs.Append(chat.Message{ID: uuid.NewString(), Role: chat.RoleSystem, Content: text})
}

func (s *Studio) appendModel(text string) {
	s.msgs.Append(chat.Message{ID: uuid.NewString(), Role: chat.RoleModel, Content: text})
}
