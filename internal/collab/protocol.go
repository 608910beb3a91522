package collab

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hgilabs/vibestudio/internal/artifact"
	"github.com/hgilabs/vibestudio/internal/chat"
)

// EventType identifies one of the four peer protocol events.
type EventType string

const (
	// EventSyncState carries the complete artifact and message list.
	// Host -> guest, once per new guest connection. This full-state
	// broadcast is the only convergence mechanism; there is no
	// incremental reconciliation.
	EventSyncState EventType = "SYNC_STATE"

	// EventNewMessage carries one chat message. Host -> guest on every
	// message appended on the host.
	EventNewMessage EventType = "NEW_MESSAGE"

	// EventCodeUpdate carries the full artifact. Host -> guest on every
	// host-side artifact mutation.
	EventCodeUpdate EventType = "CODE_UPDATE"

	// EventRemotePrompt carries a user-authored prompt. Guest -> host only.
	EventRemotePrompt EventType = "REMOTE_PROMPT"
)

// Sentinel errors for envelope decoding.
var (
	// ErrUnknownEvent is returned when the envelope type is not one of
	// the four protocol events.
	ErrUnknownEvent = errors.New("unknown sync event type")

	// ErrMalformedEnvelope is returned when the payload cannot be decoded.
	ErrMalformedEnvelope = errors.New("malformed sync envelope")
)

// Event is the closed union over the four protocol payloads. Only the
// types in this package implement it; dispatch on the concrete type is
// exhaustive.
type Event interface {
	Type() EventType
	sealed()
}

// SyncState replaces the receiving guest's artifact and message list wholesale.
type SyncState struct {
	Artifact artifact.Artifact `json:"artifact"`
	Messages []chat.Message    `json:"messages"`
}

// NewMessage appends one message on the receiver, de-duplicated by id.
// The embedded message is the wire payload itself.
type NewMessage struct {
	chat.Message
}

// CodeUpdate replaces the receiving guest's artifact wholesale.
// The embedded artifact is the wire payload itself.
type CodeUpdate struct {
	artifact.Artifact
}

// RemotePrompt forwards a guest-authored prompt for the host to run.
type RemotePrompt struct {
	chat.Message
}

func (SyncState) Type() EventType    { return EventSyncState }
func (NewMessage) Type() EventType   { return EventNewMessage }
func (CodeUpdate) Type() EventType   { return EventCodeUpdate }
func (RemotePrompt) Type() EventType { return EventRemotePrompt }

func (SyncState) sealed()    {}
func (NewMessage) sealed()   {}
func (CodeUpdate) sealed()   {}
func (RemotePrompt) sealed() {}

// envelope is the wire form: { "type": ..., "data": ... }.
type envelope struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Encode wraps an event in its wire envelope.
func Encode(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", ev.Type(), err)
	}
	b, err := json.Marshal(envelope{Type: ev.Type(), Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", ev.Type(), err)
	}
	return b, nil
}

// Decode parses a wire envelope into its concrete event. Unknown event
// types return ErrUnknownEvent; undecodable payloads return
// ErrMalformedEnvelope.
func Decode(b []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	unmarshal := func(v any) error {
		if err := json.Unmarshal(env.Data, v); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMalformedEnvelope, env.Type, err)
		}
		return nil
	}

	switch env.Type {
	case EventSyncState:
		var ev SyncState
		if err := unmarshal(&ev); err != nil {
			return nil, err
		}
		return ev, nil
	case EventNewMessage:
		var ev NewMessage
		if err := unmarshal(&ev); err != nil {
			return nil, err
		}
		return ev, nil
	case EventCodeUpdate:
		var ev CodeUpdate
		if err := unmarshal(&ev); err != nil {
			return nil, err
		}
		return ev, nil
	case EventRemotePrompt:
		var ev RemotePrompt
		if err := unmarshal(&ev); err != nil {
			return nil, err
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}
}
