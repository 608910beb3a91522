package collab

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hgilabs/vibestudio/internal/artifact"
	"github.com/hgilabs/vibestudio/internal/chat"
)

// Role is the collaboration role of this session, fixed for its lifetime.
type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
	RoleNone  Role = "none"
)

// Transport is the slice of the peer transport the coordinator needs.
// Sends are fire-and-forget: delivery failures surface on the
// transport's own error callback, never here.
type Transport interface {
	// Broadcast sends the envelope to every currently open connection.
	Broadcast(data []byte)
	// SendToOne sends the envelope over whichever connections are open;
	// the guest path, where exactly one connection (to host) is expected.
	SendToOne(data []byte)
}

// PromptFunc runs the host's normal generation path for a prompt
// message, exactly as if it had been typed locally.
type PromptFunc func(ctx context.Context, msg chat.Message)

// guestPromptPrefix marks prompts that arrived from a guest when the
// host replays them through its local generation path.
const guestPromptPrefix = "[GUEST] "

// Coordinator composes the peer transport, the sync protocol, the
// artifact store, and the message log. It decides per role whether a
// local edit is applied directly or forwarded, and reconciles inbound
// events, rejecting event/role combinations the protocol does not
// allow at the point of receipt rather than relying on disabled UI.
type Coordinator struct {
	role      Role
	transport Transport
	store     *artifact.Store
	msgs      *chat.Log
	onPrompt  PromptFunc
	logger    *slog.Logger

	mu            sync.Mutex
	collaborating bool
}

// Config carries the coordinator's dependencies. All fields except
// OnPrompt are required; OnPrompt is required for hosts.
type Config struct {
	Role      Role
	Transport Transport
	Store     *artifact.Store
	Messages  *chat.Log
	OnPrompt  PromptFunc
	Logger    *slog.Logger
}

// NewCoordinator constructs a per-session coordinator. The role is
// immutable once assigned.
func NewCoordinator(cfg Config) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		role:      cfg.Role,
		transport: cfg.Transport,
		store:     cfg.Store,
		msgs:      cfg.Messages,
		onPrompt:  cfg.OnPrompt,
		logger:    logger,
	}
}

// Role returns the session role.
func (c *Coordinator) Role() Role { return c.role }

// StartCollaboration marks the session live. Guests collaborate from
// construction; hosts flip this when they begin sharing.
func (c *Coordinator) StartCollaboration() {
	c.mu.Lock()
	c.collaborating = true
	c.mu.Unlock()
}

// Collaborating reports whether the session is live.
func (c *Coordinator) Collaborating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collaborating
}

// broadcast encodes and fires an event at every open connection.
func (c *Coordinator) broadcast(ev Event) {
	data, err := Encode(ev)
	if err != nil {
		c.logger.Error("encode broadcast", "type", ev.Type(), "error", err)
		return
	}
	c.transport.Broadcast(data)
}

// PeerCountChanged reacts to connection-count notifications. A host
// with at least one open connection broadcasts the complete current
// state, the protocol's only convergence mechanism.
func (c *Coordinator) PeerCountChanged(count int) {
	if c.role != RoleHost || count == 0 {
		return
	}
	c.StartCollaboration()
	c.broadcast(SyncState{
		Artifact: c.store.Current(),
		Messages: c.msgs.Messages(),
	})
	c.logger.Info("synced state to peers", "peers", count)
}

// ArtifactChanged propagates a host-side artifact mutation. Guests
// never originate CODE_UPDATE.
func (c *Coordinator) ArtifactChanged(a artifact.Artifact) {
	if c.role != RoleHost || !c.Collaborating() {
		return
	}
	c.broadcast(CodeUpdate{Artifact: a})
}

// MessageAppended propagates a host-side message append. Guests never
// originate NEW_MESSAGE.
func (c *Coordinator) MessageAppended(m chat.Message) {
	if c.role != RoleHost || !c.Collaborating() {
		return
	}
	c.broadcast(NewMessage{Message: m})
}

// SubmitPrompt forwards a guest-authored prompt to the host and appends
// it locally for immediate feedback, without waiting for a host echo.
// Returns an error if called on a non-guest session; guests must never
// run generation locally.
func (c *Coordinator) SubmitPrompt(m chat.Message) error {
	if c.role != RoleGuest {
		return fmt.Errorf("submit prompt: role %s is not a guest", c.role)
	}
	data, err := Encode(RemotePrompt{Message: m})
	if err != nil {
		return fmt.Errorf("encode remote prompt: %w", err)
	}
	c.transport.SendToOne(data)
	c.msgs.Append(m)
	return nil
}

// HandleInbound reconciles one raw envelope from a peer. Events
// inconsistent with the local role are ignored and logged; malformed
// envelopes are logged and dropped. Nothing here propagates an error
// back across the network boundary.
func (c *Coordinator) HandleInbound(ctx context.Context, data []byte, senderID string) {
	ev, err := Decode(data)
	if err != nil {
		c.logger.Warn("dropping undecodable envelope", "sender", senderID, "error", err)
		return
	}

	switch ev := ev.(type) {
	case SyncState:
		if c.role != RoleGuest {
			c.dropMisrouted(ev, senderID)
			return
		}
		c.store.Replace(ev.Artifact)
		c.msgs.Replace(ev.Messages)
		c.logger.Info("adopted host state", "version", ev.Artifact.Version, "messages", len(ev.Messages))

	case CodeUpdate:
		if c.role != RoleGuest {
			c.dropMisrouted(ev, senderID)
			return
		}
		// Applied unconditionally. The host is the single writer and
		// each guest receives its frames over one ordered connection,
		// so arrival order is the host's mutation order. A lower
		// version here is a real rollback (undo, restore, reset), not
		// a stale frame.
		c.store.Replace(ev.Artifact)

	case NewMessage:
		// Any receiver appends; the log discards duplicate ids.
		if !c.msgs.Append(ev.Message) {
			c.logger.Debug("dropping duplicate message", "id", ev.ID)
		}

	case RemotePrompt:
		if c.role != RoleHost {
			c.dropMisrouted(ev, senderID)
			return
		}
		guestMsg := ev.Message
		guestMsg.Content = guestPromptPrefix + guestMsg.Content
		if c.onPrompt == nil {
			c.logger.Error("no prompt handler configured for remote prompt")
			return
		}
		c.onPrompt(ctx, guestMsg)
	}
}

// dropMisrouted logs an event/role combination the protocol forbids.
func (c *Coordinator) dropMisrouted(ev Event, senderID string) {
	c.logger.Warn("ignoring misrouted event",
		"type", ev.Type(), "role", c.role, "sender", senderID)
}
