package collab_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hgilabs/vibestudio/internal/artifact"
	"github.com/hgilabs/vibestudio/internal/chat"
	"github.com/hgilabs/vibestudio/internal/collab"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	t.Parallel()

	art := artifact.Artifact{ID: uuid.New(), Title: "App", Code: "<p>v3</p>", Version: 3}
	msg := chat.Message{ID: "m1", Role: chat.RoleUser, Content: "hello"}

	tests := []struct {
		name string
		ev   collab.Event
	}{
		{"sync state", collab.SyncState{Artifact: art, Messages: []chat.Message{msg}}},
		{"new message", collab.NewMessage{Message: msg}},
		{"code update", collab.CodeUpdate{Artifact: art}},
		{"remote prompt", collab.RemotePrompt{Message: msg}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			data, err := collab.Encode(tt.ev)
			require.NoError(t, err)

			got, err := collab.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, tt.ev.Type(), got.Type())
			assert.Equal(t, tt.ev, got)
		})
	}
}

func TestEncode_WireShape(t *testing.T) {
	t.Parallel()

	// CODE_UPDATE carries the artifact itself as data, not a wrapper.
	art := artifact.Artifact{ID: uuid.New(), Title: "App", Code: "<p>hi</p>", Version: 2}
	data, err := collab.Encode(collab.CodeUpdate{Artifact: art})
	require.NoError(t, err)

	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, "CODE_UPDATE", env.Type)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, "<p>hi</p>", payload["code"])
	assert.Equal(t, float64(2), payload["version"])
}

func TestDecode_UnknownType(t *testing.T) {
	t.Parallel()

	_, err := collab.Decode([]byte(`{"type":"FULL_RESYNC","data":{}}`))
	assert.ErrorIs(t, err, collab.ErrUnknownEvent)
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
	}{
		{"not json", "not-json"},
		{"bad payload", `{"type":"CODE_UPDATE","data":[1,2]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := collab.Decode([]byte(tt.in))
			assert.ErrorIs(t, err, collab.ErrMalformedEnvelope)
		})
	}
}
