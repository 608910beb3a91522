package chat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hgilabs/vibestudio/internal/chat"
)

func TestLog_SeededWithWelcome(t *testing.T) {
	t.Parallel()
	l := chat.NewLog()

	msgs := l.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, chat.RoleSystem, msgs[0].Role)
	assert.True(t, chat.IsWelcome(msgs[0]))
}

func TestLog_Append_DeduplicatesByID(t *testing.T) {
	t.Parallel()
	l := chat.NewLog()

	first := chat.Message{ID: "1", Role: chat.RoleUser, Content: "hello"}
	require.True(t, l.Append(first))
	before := l.Messages()

	// Same id, different content: must be discarded wholesale.
	dup := chat.Message{ID: "1", Role: chat.RoleUser, Content: "x"}
	assert.False(t, l.Append(dup))
	assert.Equal(t, before, l.Messages())
}

func TestLog_Replace_AdoptsRemoteListWholesale(t *testing.T) {
	t.Parallel()
	l := chat.NewLog()
	l.Append(chat.Message{ID: "local", Role: chat.RoleUser, Content: "local only"})

	remote := []chat.Message{
		{ID: "a", Role: chat.RoleUser, Content: "from host"},
		{ID: "b", Role: chat.RoleModel, Content: "reply"},
	}
	l.Replace(remote)

	assert.Equal(t, remote, l.Messages())

	// De-dup index follows the replacement.
	assert.False(t, l.Append(chat.Message{ID: "a", Content: "again"}))
	assert.True(t, l.Append(chat.Message{ID: "local", Content: "readmitted"}))
}

func TestLog_OnReplace_ReceivesAdoptedList(t *testing.T) {
	t.Parallel()
	l := chat.NewLog()

	var adopted []chat.Message
	l.OnReplace(func(msgs []chat.Message) { adopted = msgs })

	remote := []chat.Message{
		{ID: "a", Role: chat.RoleUser, Content: "from host"},
		{ID: "b", Role: chat.RoleModel, Content: "reply"},
	}
	l.Replace(remote)

	assert.Equal(t, remote, adopted)
}

func TestLog_Last(t *testing.T) {
	t.Parallel()
	l := chat.NewLog()

	last, ok := l.Last()
	require.True(t, ok)
	assert.True(t, chat.IsWelcome(last))

	l.Append(chat.Message{ID: "1", Role: chat.RoleUser, Content: "hi"})
	last, ok = l.Last()
	require.True(t, ok)
	assert.Equal(t, "1", last.ID)
}

func TestLog_OnAppend_SkipsDuplicates(t *testing.T) {
	t.Parallel()
	l := chat.NewLog()

	var fired []string
	l.OnAppend(func(m chat.Message) { fired = append(fired, m.ID) })

	l.Append(chat.Message{ID: "1", Content: "a"})
	l.Append(chat.Message{ID: "1", Content: "dup"})
	l.Append(chat.Message{ID: "2", Content: "b"})

	assert.Equal(t, []string{"1", "2"}, fired)
}

func TestLog_Reset(t *testing.T) {
	t.Parallel()
	l := chat.NewLog()
	l.Append(chat.Message{ID: "1", Content: "a"})
	l.Append(chat.Message{ID: "2", Content: "b"})

	l.Reset()

	msgs := l.Messages()
	require.Len(t, msgs, 1)
	assert.True(t, chat.IsWelcome(msgs[0]))
	// Previously seen ids are appendable again after reset.
	assert.True(t, l.Append(chat.Message{ID: "1", Content: "fresh"}))
}
