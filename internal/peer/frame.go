package peer

import "encoding/json"

// frameKind discriminates relay frames.
type frameKind string

const (
	// kindWelcome is sent by the relay immediately after the upgrade,
	// carrying the allocated peer id.
	kindWelcome frameKind = "welcome"

	// kindOpen requests (client to relay) or announces (relay to client)
	// a logical connection between two peers.
	kindOpen frameKind = "open"

	// kindData carries one opaque payload to a single target peer.
	kindData frameKind = "data"

	// kindClose announces that a logical connection is gone.
	kindClose frameKind = "close"

	// kindError reports a relay-side failure for one request.
	kindError frameKind = "error"
)

// frame is the relay wire format. From is filled by the relay, never
// trusted from clients.
type frame struct {
	Kind    frameKind       `json:"kind"`
	From    string          `json:"from,omitempty"`
	To      string          `json:"to,omitempty"`
	Peer    string          `json:"peer,omitempty"`    // welcome: allocated id; error: subject peer
	Message string          `json:"message,omitempty"` // error text
	Payload json.RawMessage `json:"payload,omitempty"`
}
