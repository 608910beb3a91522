package peer

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// Default per-peer inbound frame budget. Prompts and code updates are
// low-frequency; the limiter only exists to stop a runaway client from
// monopolizing the relay.
const (
	defaultFrameRate  = rate.Limit(50)
	defaultFrameBurst = 100
)

// relayPeer is one registered websocket client.
type relayPeer struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
	limiter *rate.Limiter
}

func (p *relayPeer) send(f frame) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.conn.WriteJSON(f)
}

// Relay brokers the peer mesh: it allocates peer identifiers and
// forwards open, data, and close frames between registered clients. It
// never inspects payloads; host-authoritative semantics live entirely
// in the clients' coordinators.
//
// A Relay is constructed per server instance and carries no global
// state, so tests can run several side by side.
type Relay struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	rate  rate.Limit
	burst int

	mu    sync.Mutex
	peers map[string]*relayPeer
	links map[string]map[string]struct{}
}

// NewRelay creates an empty relay.
func NewRelay(logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		logger: logger,
		upgrader: websocket.Upgrader{
			// The relay is origin-agnostic: peer ids are unguessable
			// capabilities and payloads are opaque to it.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		rate:  defaultFrameRate,
		burst: defaultFrameBurst,
		peers: make(map[string]*relayPeer),
		links: make(map[string]map[string]struct{}),
	}
}

// PeerCount returns the number of registered peers.
func (r *Relay) PeerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.peers)
}

// ServeHTTP upgrades the connection, allocates a peer id, and serves
// frames until the client disconnects.
func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Warn("upgrade failed", "error", err)
		return
	}

	p := &relayPeer{
		id:      uuid.NewString(),
		conn:    conn,
		limiter: rate.NewLimiter(r.rate, r.burst),
	}

	r.mu.Lock()
	r.peers[p.id] = p
	r.mu.Unlock()

	if err := p.send(frame{Kind: kindWelcome, Peer: p.id}); err != nil {
		r.logger.Warn("welcome failed", "peer", p.id, "error", err)
		r.drop(p)
		return
	}
	r.logger.Info("peer registered", "peer", p.id)

	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			r.drop(p)
			return
		}
		if !p.limiter.Allow() {
			r.logger.Warn("rate limit exceeded, dropping frame", "peer", p.id, "kind", f.Kind)
			continue
		}
		r.handle(p, f)
	}
}

// handle routes one client frame. From fields are always overwritten
// with the authenticated sender id.
func (r *Relay) handle(p *relayPeer, f frame) {
	switch f.Kind {
	case kindOpen:
		r.openLink(p, f.To)
	case kindData:
		r.forward(p, f)
	default:
		r.logger.Warn("ignoring client frame", "peer", p.id, "kind", f.Kind)
	}
}

// openLink establishes a logical connection between p and the target.
// Both ends receive an open frame; an unknown target yields an error
// frame to the requester and no link.
func (r *Relay) openLink(p *relayPeer, targetID string) {
	r.mu.Lock()
	target, ok := r.peers[targetID]
	if ok {
		r.link(p.id, targetID)
	}
	r.mu.Unlock()

	if !ok {
		r.logger.Warn("open to unknown peer", "from", p.id, "to", targetID)
		_ = p.send(frame{Kind: kindError, Peer: targetID, Message: "peer not found"})
		return
	}

	// Either send failing just leaves that end unaware; the eventual
	// disconnect sweep cleans the link up.
	_ = target.send(frame{Kind: kindOpen, From: p.id})
	_ = p.send(frame{Kind: kindOpen, From: targetID})
	r.logger.Info("link open", "a", p.id, "b", targetID)
}

// forward relays one data frame to its target. A vanished target is
// reported back as a close frame so the sender prunes its open set.
func (r *Relay) forward(p *relayPeer, f frame) {
	r.mu.Lock()
	target, ok := r.peers[f.To]
	r.mu.Unlock()

	if !ok {
		_ = p.send(frame{Kind: kindClose, From: f.To})
		return
	}
	if err := target.send(frame{Kind: kindData, From: p.id, Payload: f.Payload}); err != nil {
		r.logger.Warn("forward failed", "from", p.id, "to", f.To, "error", err)
	}
}

// link records a bidirectional logical connection. Caller holds r.mu.
func (r *Relay) link(a, b string) {
	if r.links[a] == nil {
		r.links[a] = make(map[string]struct{})
	}
	if r.links[b] == nil {
		r.links[b] = make(map[string]struct{})
	}
	r.links[a][b] = struct{}{}
	r.links[b][a] = struct{}{}
}

// drop unregisters a peer and notifies its linked partners.
func (r *Relay) drop(p *relayPeer) {
	r.mu.Lock()
	delete(r.peers, p.id)
	partners := r.links[p.id]
	delete(r.links, p.id)
	notify := make([]*relayPeer, 0, len(partners))
	for id := range partners {
		delete(r.links[id], p.id)
		if partner, ok := r.peers[id]; ok {
			notify = append(notify, partner)
		}
	}
	r.mu.Unlock()

	_ = p.conn.Close()
	for _, partner := range notify {
		_ = partner.send(frame{Kind: kindClose, From: p.id})
	}
	r.logger.Info("peer dropped", "peer", p.id)
}
