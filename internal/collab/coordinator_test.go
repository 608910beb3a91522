package collab_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hgilabs/vibestudio/internal/artifact"
	"github.com/hgilabs/vibestudio/internal/chat"
	"github.com/hgilabs/vibestudio/internal/collab"
	"github.com/hgilabs/vibestudio/internal/log"
)

// fakeTransport records outbound envelopes without any network.
type fakeTransport struct {
	broadcasts [][]byte
	sends      [][]byte
}

func (f *fakeTransport) Broadcast(data []byte) { f.broadcasts = append(f.broadcasts, data) }
func (f *fakeTransport) SendToOne(data []byte) { f.sends = append(f.sends, data) }

func (f *fakeTransport) decodedBroadcasts(t *testing.T) []collab.Event {
	t.Helper()
	out := make([]collab.Event, 0, len(f.broadcasts))
	for _, b := range f.broadcasts {
		ev, err := collab.Decode(b)
		require.NoError(t, err)
		out = append(out, ev)
	}
	return out
}

func newCoordinator(t *testing.T, role collab.Role, onPrompt collab.PromptFunc) (*collab.Coordinator, *fakeTransport, *artifact.Store, *chat.Log) {
	t.Helper()
	transport := &fakeTransport{}
	store := artifact.NewStore(log.NewNop())
	msgs := chat.NewLog()
	coord := collab.NewCoordinator(collab.Config{
		Role:      role,
		Transport: transport,
		Store:     store,
		Messages:  msgs,
		OnPrompt:  onPrompt,
		Logger:    log.NewNop(),
	})
	return coord, transport, store, msgs
}

func TestHost_SyncsFullStateOnGuestConnect(t *testing.T) {
	t.Parallel()
	coord, transport, store, _ := newCoordinator(t, collab.RoleHost, nil)

	store.Generate("<p>v1</p>")
	store.Generate("<p>v2</p>")
	store.Generate("<p>v3</p>")

	coord.PeerCountChanged(1)

	events := transport.decodedBroadcasts(t)
	require.Len(t, events, 1, "exactly one SYNC_STATE per connect")

	state, ok := events[0].(collab.SyncState)
	require.True(t, ok)
	assert.Equal(t, 3, state.Artifact.Version)
	assert.Equal(t, "<p>v3</p>", state.Artifact.Code)
	assert.Equal(t, store.Current(), state.Artifact)
}

func TestHost_DisconnectDoesNotSync(t *testing.T) {
	t.Parallel()
	coord, transport, _, _ := newCoordinator(t, collab.RoleHost, nil)

	coord.PeerCountChanged(0)
	assert.Empty(t, transport.broadcasts)
}

func TestGuest_NeverBroadcastsState(t *testing.T) {
	t.Parallel()
	coord, transport, store, msgs := newCoordinator(t, collab.RoleGuest, nil)
	coord.StartCollaboration()

	coord.PeerCountChanged(1)
	coord.ArtifactChanged(store.Current())
	msg := chat.Message{ID: "1", Role: chat.RoleUser, Content: "hi"}
	msgs.Append(msg)
	coord.MessageAppended(msg)

	assert.Empty(t, transport.broadcasts)
}

func TestHost_BroadcastsCodeUpdateOnArtifactChange(t *testing.T) {
	t.Parallel()
	coord, transport, store, _ := newCoordinator(t, collab.RoleHost, nil)
	coord.StartCollaboration()

	a := store.Generate("<p>new</p>")
	coord.ArtifactChanged(a)

	events := transport.decodedBroadcasts(t)
	require.Len(t, events, 1)
	update, ok := events[0].(collab.CodeUpdate)
	require.True(t, ok)
	assert.Equal(t, a, update.Artifact)
}

func TestHost_NoBroadcastBeforeCollaborating(t *testing.T) {
	t.Parallel()
	coord, transport, store, _ := newCoordinator(t, collab.RoleHost, nil)

	coord.ArtifactChanged(store.Generate("<p>solo</p>"))
	assert.Empty(t, transport.broadcasts)
}

func TestGuest_AppliesSyncStateWholesale(t *testing.T) {
	t.Parallel()
	coord, _, store, msgs := newCoordinator(t, collab.RoleGuest, nil)

	hostArtifact := artifact.Artifact{ID: uuid.New(), Title: "Shared", Code: "<p>v3</p>", Version: 3}
	hostMessages := []chat.Message{
		{ID: "a", Role: chat.RoleSystem, Content: "welcome"},
		{ID: "b", Role: chat.RoleUser, Content: "build it"},
	}
	data, err := collab.Encode(collab.SyncState{Artifact: hostArtifact, Messages: hostMessages})
	require.NoError(t, err)

	coord.HandleInbound(context.Background(), data, "host-peer")

	assert.Equal(t, hostArtifact, store.Current())
	assert.Equal(t, hostMessages, msgs.Messages())
}

func TestGuest_AppliesCodeUpdate(t *testing.T) {
	t.Parallel()
	coord, _, store, _ := newCoordinator(t, collab.RoleGuest, nil)

	a := artifact.Artifact{ID: uuid.New(), Title: "App", Code: "<p>v5</p>", Version: 5}
	data, err := collab.Encode(collab.CodeUpdate{Artifact: a})
	require.NoError(t, err)

	coord.HandleInbound(context.Background(), data, "host-peer")
	assert.Equal(t, a, store.Current())
}

func TestGuest_CodeUpdateRollbackApplies(t *testing.T) {
	t.Parallel()
	coord, _, store, _ := newCoordinator(t, collab.RoleGuest, nil)

	// A host undo emits exactly this sequence: the newer version first,
	// then the older one it rolled back to.
	id := uuid.New()
	newer := artifact.Artifact{ID: id, Title: "App", Code: "<p>v2</p>", Version: 2}
	rolledBack := artifact.Artifact{ID: id, Title: "App", Code: "<p>v1</p>", Version: 1}

	for _, a := range []artifact.Artifact{newer, rolledBack} {
		data, err := collab.Encode(collab.CodeUpdate{Artifact: a})
		require.NoError(t, err)
		coord.HandleInbound(context.Background(), data, "host-peer")
	}

	assert.Equal(t, rolledBack, store.Current(), "guest follows host rollbacks")
}

func TestGuest_CodeUpdateResetApplies(t *testing.T) {
	t.Parallel()
	coord, _, store, _ := newCoordinator(t, collab.RoleGuest, nil)

	built := artifact.Artifact{ID: uuid.New(), Title: "App", Code: "<p>v3</p>", Version: 3}
	fresh := artifact.New(artifact.DefaultTitle)

	for _, a := range []artifact.Artifact{built, fresh} {
		data, err := collab.Encode(collab.CodeUpdate{Artifact: a})
		require.NoError(t, err)
		coord.HandleInbound(context.Background(), data, "host-peer")
	}

	assert.Equal(t, 0, store.Current().Version, "guest follows a workspace reset back to the sentinel")
	assert.Empty(t, store.Current().Code)
}

func TestGuest_SameVersionCodeUpdateApplies(t *testing.T) {
	t.Parallel()
	coord, _, store, _ := newCoordinator(t, collab.RoleGuest, nil)

	id := uuid.New()
	first := artifact.Artifact{ID: id, Title: "Old Title", Code: "<p>v2</p>", Version: 2}
	retitled := artifact.Artifact{ID: id, Title: "New Title", Code: "<p>v2</p>", Version: 2}

	for _, a := range []artifact.Artifact{first, retitled} {
		data, err := collab.Encode(collab.CodeUpdate{Artifact: a})
		require.NoError(t, err)
		coord.HandleInbound(context.Background(), data, "host-peer")
	}

	// Title edits do not bump the version; same-version updates still apply.
	assert.Equal(t, "New Title", store.Current().Title)
}

func TestNewMessage_IdempotentDeduplication(t *testing.T) {
	t.Parallel()
	coord, _, _, msgs := newCoordinator(t, collab.RoleGuest, nil)

	msgs.Replace([]chat.Message{{ID: "1", Role: chat.RoleUser, Content: "original"}})

	data, err := collab.Encode(collab.NewMessage{Message: chat.Message{ID: "1", Role: chat.RoleUser, Content: "x"}})
	require.NoError(t, err)
	coord.HandleInbound(context.Background(), data, "host-peer")

	got := msgs.Messages()
	require.Len(t, got, 1)
	assert.Equal(t, "original", got[0].Content)
}

func TestGuest_SubmitPromptForwardsWithoutGenerating(t *testing.T) {
	t.Parallel()
	generated := 0
	coord, transport, _, msgs := newCoordinator(t, collab.RoleGuest, func(context.Context, chat.Message) {
		generated++
	})

	prompt := chat.Message{ID: "p1", Role: chat.RoleUser, Content: "make it blue"}
	require.NoError(t, coord.SubmitPrompt(prompt))

	// Forwarded exactly once as REMOTE_PROMPT.
	require.Len(t, transport.sends, 1)
	ev, err := collab.Decode(transport.sends[0])
	require.NoError(t, err)
	remote, ok := ev.(collab.RemotePrompt)
	require.True(t, ok)
	assert.Equal(t, prompt, remote.Message)

	// Appended locally immediately, no generation run.
	last, ok := msgs.Last()
	require.True(t, ok)
	assert.Equal(t, prompt, last)
	assert.Zero(t, generated)
}

func TestHost_SubmitPromptRejected(t *testing.T) {
	t.Parallel()
	coord, _, _, _ := newCoordinator(t, collab.RoleHost, nil)

	err := coord.SubmitPrompt(chat.Message{ID: "p1", Content: "hi"})
	assert.Error(t, err)
}

func TestHost_RemotePromptRunsGenerationWithGuestPrefix(t *testing.T) {
	t.Parallel()
	var received chat.Message
	coord, _, _, _ := newCoordinator(t, collab.RoleHost, func(_ context.Context, m chat.Message) {
		received = m
	})

	data, err := collab.Encode(collab.RemotePrompt{Message: chat.Message{ID: "p1", Role: chat.RoleUser, Content: "add a footer"}})
	require.NoError(t, err)
	coord.HandleInbound(context.Background(), data, "guest-peer")

	assert.Equal(t, "[GUEST] add a footer", received.Content)
	assert.Equal(t, "p1", received.ID)
}

func TestRoleGating_IgnoresMisroutedEvents(t *testing.T) {
	t.Parallel()

	t.Run("host ignores code update", func(t *testing.T) {
		t.Parallel()
		coord, _, store, _ := newCoordinator(t, collab.RoleHost, nil)
		before := store.Generate("<p>mine</p>")

		rogue := artifact.Artifact{ID: uuid.New(), Code: "<p>hijack</p>", Version: 99}
		data, err := collab.Encode(collab.CodeUpdate{Artifact: rogue})
		require.NoError(t, err)
		coord.HandleInbound(context.Background(), data, "guest-peer")

		assert.Equal(t, before, store.Current())
	})

	t.Run("host ignores sync state", func(t *testing.T) {
		t.Parallel()
		coord, _, store, msgs := newCoordinator(t, collab.RoleHost, nil)
		before := store.Generate("<p>mine</p>")
		beforeMsgs := msgs.Messages()

		data, err := collab.Encode(collab.SyncState{
			Artifact: artifact.Artifact{ID: uuid.New(), Code: "<p>hijack</p>", Version: 99},
			Messages: nil,
		})
		require.NoError(t, err)
		coord.HandleInbound(context.Background(), data, "guest-peer")

		assert.Equal(t, before, store.Current())
		assert.Equal(t, beforeMsgs, msgs.Messages())
	})

	t.Run("guest ignores remote prompt", func(t *testing.T) {
		t.Parallel()
		generated := 0
		coord, _, _, _ := newCoordinator(t, collab.RoleGuest, func(context.Context, chat.Message) {
			generated++
		})

		data, err := collab.Encode(collab.RemotePrompt{Message: chat.Message{ID: "p1", Content: "hi"}})
		require.NoError(t, err)
		coord.HandleInbound(context.Background(), data, "other-guest")

		assert.Zero(t, generated)
	})
}

func TestHandleInbound_DropsGarbage(t *testing.T) {
	t.Parallel()
	coord, _, store, _ := newCoordinator(t, collab.RoleGuest, nil)
	before := store.Current()

	coord.HandleInbound(context.Background(), []byte("not-an-envelope"), "host-peer")
	assert.Equal(t, before, store.Current())
}
