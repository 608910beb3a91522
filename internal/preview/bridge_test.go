package preview_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hgilabs/vibestudio/internal/log"
	"github.com/hgilabs/vibestudio/internal/preview"
)

func newLoadedBridge(t *testing.T, code string) (*preview.Bridge, *[]preview.Event) {
	t.Helper()
	b := preview.NewBridge(log.NewNop())
	var events []preview.Event
	b.OnEvent(func(ev preview.Event) { events = append(events, ev) })
	require.NoError(t, b.Load(code))
	return b, &events
}

func TestBridge_GetElementEmitsElementHTML(t *testing.T) {
	t.Parallel()
	b, events := newLoadedBridge(t, sampleDoc)

	b.Handle(preview.Request{Action: preview.ActionGetElement, Path: "0-1"})

	require.Len(t, *events, 1)
	assert.Equal(t, preview.Event{
		Type: preview.EventElementHTML,
		HTML: `<div id="x">hi</div>`,
		Path: "0-1",
	}, (*events)[0])
}

func TestBridge_GetElementBadPathEmitsError(t *testing.T) {
	t.Parallel()
	b, events := newLoadedBridge(t, sampleDoc)

	b.Handle(preview.Request{Action: preview.ActionGetElement, Path: "7-7"})

	require.Len(t, *events, 1)
	assert.Equal(t, preview.EventError, (*events)[0].Type)
	assert.Contains(t, (*events)[0].Message, "7-7")
}

func TestBridge_UpdateElementRoundTrip(t *testing.T) {
	t.Parallel()
	b, events := newLoadedBridge(t, sampleDoc)

	b.Handle(preview.Request{
		Action: preview.ActionUpdateElement,
		Path:   "0-1",
		HTML:   `<div id="x">patched</div>`,
	})
	b.Handle(preview.Request{Action: preview.ActionGetElement, Path: "0-1"})

	require.Len(t, *events, 2)
	assert.Equal(t, preview.EventUpdateSuccess, (*events)[0].Type)
	assert.Equal(t, `<div id="x">patched</div>`, (*events)[1].HTML)
}

func TestBridge_NoDocumentLoaded(t *testing.T) {
	t.Parallel()
	b := preview.NewBridge(log.NewNop())
	var events []preview.Event
	b.OnEvent(func(ev preview.Event) { events = append(events, ev) })

	b.Handle(preview.Request{Action: preview.ActionGetElement, Path: ""})

	require.Len(t, events, 1)
	assert.Equal(t, preview.EventError, events[0].Type)
}

func TestBridge_HandleRawMalformedJSON(t *testing.T) {
	t.Parallel()
	b, events := newLoadedBridge(t, sampleDoc)

	b.HandleRaw([]byte(`{"action":`))

	require.Len(t, *events, 1)
	assert.Equal(t, preview.EventError, (*events)[0].Type)
}

func TestBridge_UnknownActionIsIgnored(t *testing.T) {
	t.Parallel()
	b, events := newLoadedBridge(t, sampleDoc)

	b.Handle(preview.Request{Action: "reboot"})

	assert.Empty(t, *events)
}

func TestBridge_ConsoleNormalizesLevel(t *testing.T) {
	t.Parallel()
	b, events := newLoadedBridge(t, sampleDoc)

	b.Console("error", "boom")
	b.Console("debug", "quiet")

	require.Len(t, *events, 2)
	assert.Equal(t, preview.Event{Type: preview.EventError, Message: "boom"}, (*events)[0])
	assert.Equal(t, preview.Event{Type: preview.EventLog, Message: "quiet"}, (*events)[1])
}

func TestInjectHarness(t *testing.T) {
	t.Parallel()

	assert.Empty(t, preview.InjectHarness(""))

	out := preview.InjectHarness("<body><h1>app</h1></body>")
	assert.Contains(t, out, "postMessage")
	assert.True(t, len(out) > len("<body><h1>app</h1></body>"))
	assert.Contains(t, out, "<h1>app</h1>")
}

func TestSandboxRules_NeverSameOrigin(t *testing.T) {
	t.Parallel()
	assert.NotContains(t, preview.SandboxRules, "allow-same-origin")
	assert.Contains(t, preview.SandboxRules, "allow-scripts")
}
