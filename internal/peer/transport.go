package peer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// Sentinel errors for transport operations.
var (
	// ErrNotInitialized indicates the transport has no relay connection.
	ErrNotInitialized = errors.New("transport not initialized")

	// ErrRelayClosed indicates the relay connection dropped.
	ErrRelayClosed = errors.New("relay connection closed")
)

// DataFunc receives one inbound payload and the sender's peer id.
type DataFunc func(payload []byte, from string)

// Transport is one peer's endpoint in the mesh. A single Transport is
// constructed per session (never shared globally) and wired to its
// coordinator via the three callbacks, each holding one active listener
// with last-registration-wins semantics.
type Transport struct {
	relayURL string
	logger   *slog.Logger

	writeMu sync.Mutex // serializes websocket writes
	conn    *websocket.Conn

	mu      sync.Mutex
	id      string
	open    map[string]struct{}
	onData  DataFunc
	onCount func(int)
	onError func(error)
}

// NewTransport creates a transport that will dial the given relay
// websocket URL on Initialize.
func NewTransport(relayURL string, logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{
		relayURL: relayURL,
		logger:   logger,
		open:     make(map[string]struct{}),
	}
}

// OnData registers the inbound payload listener. Last registration wins.
func (t *Transport) OnData(fn DataFunc) {
	t.mu.Lock()
	t.onData = fn
	t.mu.Unlock()
}

// OnConnectionCountChanged registers the open-connection-count listener.
// Last registration wins.
func (t *Transport) OnConnectionCountChanged(fn func(int)) {
	t.mu.Lock()
	t.onCount = fn
	t.mu.Unlock()
}

// OnError registers the transport error listener. Last registration wins.
func (t *Transport) OnError(fn func(error)) {
	t.mu.Lock()
	t.onError = fn
	t.mu.Unlock()
}

// ID returns the relay-allocated peer identifier, or "" before Initialize.
func (t *Transport) ID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id
}

// PeerCount returns the number of currently open logical connections.
func (t *Transport) PeerCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.open)
}

// Initialize dials the relay and waits for the allocated peer id. When
// targetPeerID is non-empty it also requests a connection to that peer
// (the guest path); the transport always accepts inbound opens (the
// host path). Initialize resolves once the id is allocated; callers
// must not assume any connection exists yet.
func (t *Transport) Initialize(ctx context.Context, targetPeerID string) (string, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.relayURL, nil)
	if err != nil {
		return "", fmt.Errorf("dial relay %s: %w", t.relayURL, err)
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	welcome := make(chan string, 1)
	go t.readLoop(conn, welcome)

	select {
	case <-ctx.Done():
		_ = conn.Close()
		return "", fmt.Errorf("awaiting peer id: %w", ctx.Err())
	case id, ok := <-welcome:
		if !ok {
			return "", ErrRelayClosed
		}
		t.mu.Lock()
		t.id = id
		t.mu.Unlock()
		t.logger.Info("peer id allocated", "peer_id", id)

		if targetPeerID != "" {
			// Fire-and-forget: the connection completes (or fails) via a
			// later open/error frame.
			t.write(frame{Kind: kindOpen, To: targetPeerID})
		}
		return id, nil
	}
}

// write serializes one frame to the relay. Failures are routed to the
// error callback; sends are fire-and-forget by design.
func (t *Transport) write(f frame) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		t.reportError(ErrNotInitialized)
		return
	}

	t.writeMu.Lock()
	err := conn.WriteJSON(f)
	t.writeMu.Unlock()
	if err != nil {
		t.reportError(fmt.Errorf("write %s frame: %w", f.Kind, err))
	}
}

// Broadcast sends the payload to every currently open connection.
// Connections not yet open are silently skipped; there is no queuing
// and no delivery guarantee across reconnects.
func (t *Transport) Broadcast(payload []byte) {
	t.mu.Lock()
	targets := make([]string, 0, len(t.open))
	for id := range t.open {
		targets = append(targets, id)
	}
	t.mu.Unlock()

	for _, to := range targets {
		t.write(frame{Kind: kindData, To: to, Payload: json.RawMessage(payload)})
	}
}

// SendToOne sends the payload over whichever connections are open.
// Designed for the guest case where exactly one connection (to the
// host) is expected; that expectation is not enforced.
func (t *Transport) SendToOne(payload []byte) {
	t.Broadcast(payload)
}

// Close tears down the relay connection. Open logical connections are
// implicitly closed; partners learn via relay close frames.
func (t *Transport) Close() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// reportError hands a transport error to the registered listener.
// Errors never crash the session; a failed connection attempt simply
// never joins the open set.
func (t *Transport) reportError(err error) {
	t.mu.Lock()
	fn := t.onError
	t.mu.Unlock()
	t.logger.Warn("transport error", "error", err)
	if fn != nil {
		fn(err)
	}
}

// notifyCount reports the current open-connection count.
func (t *Transport) notifyCount() {
	t.mu.Lock()
	fn := t.onCount
	n := len(t.open)
	t.mu.Unlock()
	if fn != nil {
		fn(n)
	}
}

// readLoop consumes relay frames until the connection drops. The first
// welcome frame resolves Initialize through the welcome channel.
func (t *Transport) readLoop(conn *websocket.Conn, welcome chan<- string) {
	defer close(welcome)
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			t.mu.Lock()
			active := t.conn == conn
			hadPeers := len(t.open) > 0
			t.open = make(map[string]struct{})
			t.mu.Unlock()
			if active {
				t.reportError(fmt.Errorf("%w: %v", ErrRelayClosed, err))
				if hadPeers {
					t.notifyCount()
				}
			}
			return
		}

		switch f.Kind {
		case kindWelcome:
			select {
			case welcome <- f.Peer:
			default:
			}

		case kindOpen:
			t.mu.Lock()
			t.open[f.From] = struct{}{}
			t.mu.Unlock()
			t.logger.Info("connection open", "peer", f.From)
			t.notifyCount()

		case kindData:
			t.mu.Lock()
			fn := t.onData
			t.mu.Unlock()
			if fn != nil {
				fn(f.Payload, f.From)
			}

		case kindClose:
			t.mu.Lock()
			_, had := t.open[f.From]
			delete(t.open, f.From)
			t.mu.Unlock()
			if had {
				t.logger.Info("connection closed", "peer", f.From)
				t.notifyCount()
			}

		case kindError:
			t.reportError(fmt.Errorf("relay: %s (peer %s)", f.Message, f.Peer))

		default:
			t.logger.Warn("ignoring unknown frame kind", "kind", f.Kind)
		}
	}
}
