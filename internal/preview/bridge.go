package preview

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Actions sent into the sandboxed document.
const (
	ActionGetElement    = "get-element"
	ActionUpdateElement = "update-element"
)

// Event types emitted back out of the sandboxed document.
const (
	EventLog           = "log"
	EventWarn          = "warn"
	EventError         = "error"
	EventElementHTML   = "element-html"
	EventUpdateSuccess = "update-success"
)

// Request is one host-to-sandbox message.
type Request struct {
	Action string `json:"action"`
	Path   string `json:"path"`
	HTML   string `json:"html,omitempty"`
}

// Event is one sandbox-to-host message. Exactly one of the optional
// fields is populated depending on Type: Message for console events,
// HTML and Path for element-html.
type Event struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	HTML    string `json:"html,omitempty"`
	Path    string `json:"path,omitempty"`
}

// EventFunc receives events emitted by the bridge. Last registration
// wins.
type EventFunc func(Event)

// Bridge executes host requests against the loaded artifact document
// and reports results as events, mirroring the postMessage contract the
// sandboxed document speaks. Failures surface as console-style error
// events rather than Go errors: the host-side consumer treats them the
// same as a runtime error inside the generated app.
type Bridge struct {
	logger *slog.Logger

	mu     sync.Mutex
	doc    *Document
	onEvnt EventFunc
}

// NewBridge creates an empty bridge. Load installs a document.
func NewBridge(logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{logger: logger}
}

// OnEvent registers the event listener. Last registration wins.
func (b *Bridge) OnEvent(fn EventFunc) {
	b.mu.Lock()
	b.onEvnt = fn
	b.mu.Unlock()
}

// Load replaces the bridge's document with freshly parsed artifact
// source. Called on every artifact change; the previous document and
// any paths computed against it are discarded.
func (b *Bridge) Load(code string) error {
	doc, err := ParseDocument(code)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.doc = doc
	b.mu.Unlock()
	return nil
}

// Code returns the current document serialized back to source, or ""
// when nothing is loaded.
func (b *Bridge) Code() (string, error) {
	b.mu.Lock()
	doc := b.doc
	b.mu.Unlock()
	if doc == nil {
		return "", nil
	}
	return doc.Render()
}

// HandleRaw decodes a JSON request and dispatches it.
func (b *Bridge) HandleRaw(data []byte) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		b.emit(Event{Type: EventError, Message: fmt.Sprintf("malformed bridge request: %v", err)})
		return
	}
	b.Handle(req)
}

// Handle dispatches one request against the loaded document.
func (b *Bridge) Handle(req Request) {
	b.mu.Lock()
	doc := b.doc
	b.mu.Unlock()
	if doc == nil {
		b.emit(Event{Type: EventError, Message: "no document loaded"})
		return
	}

	switch req.Action {
	case ActionGetElement:
		html, err := doc.OuterHTML(req.Path)
		if err != nil {
			b.emit(Event{Type: EventError, Message: fmt.Sprintf("get-element %q: %v", req.Path, err)})
			return
		}
		b.emit(Event{Type: EventElementHTML, HTML: html, Path: req.Path})

	case ActionUpdateElement:
		if err := doc.UpdateElement(req.Path, req.HTML); err != nil {
			b.emit(Event{Type: EventError, Message: fmt.Sprintf("update-element %q: %v", req.Path, err)})
			return
		}
		b.emit(Event{Type: EventUpdateSuccess})

	default:
		b.logger.Warn("ignoring unknown bridge action", "action", req.Action)
	}
}

// Console forwards a captured console entry as a bridge event. Unknown
// levels are normalized to log.
func (b *Bridge) Console(level, message string) {
	switch level {
	case EventLog, EventWarn, EventError:
	default:
		level = EventLog
	}
	b.emit(Event{Type: level, Message: message})
}

func (b *Bridge) emit(ev Event) {
	b.mu.Lock()
	fn := b.onEvnt
	b.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}
