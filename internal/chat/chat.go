// Package chat provides the studio's conversation model: a message log
// shared verbatim between collaborating peers.
//
// Message identifiers are the de-duplication key on receipt: a peer
// receiving a NEW_MESSAGE whose id is already present discards it
// rather than appending a duplicate.
package chat

import (
	"sync"
)

// Role constants define valid message roles.
const (
	RoleUser   = "user"
	RoleModel  = "model"
	RoleSystem = "system"
)

// WelcomeText seeds every fresh workspace log.
const WelcomeText = "Welcome to Vibe Studio. What robust, ethical application are we building today?"

// welcomeID is fixed so the seeded message is never mirrored to the
// remote store and always de-duplicates across peers.
const welcomeID = "welcome"

// Message is a single chat entry.
type Message struct {
	ID      string `json:"id"`
	Role    string `json:"role"`
	Content string `json:"content"`
	Image   string `json:"image,omitempty"` // base64 data URL
}

// Welcome returns the system message seeding a fresh workspace.
func Welcome() Message {
	return Message{ID: welcomeID, Role: RoleSystem, Content: WelcomeText}
}

// IsWelcome reports whether m is the seeded workspace greeting.
func IsWelcome(m Message) bool {
	return m.ID == welcomeID
}

// Log is the ordered message list with id-based de-duplication.
//
// The zero value is not useful; use NewLog.
type Log struct {
	mu        sync.RWMutex
	messages  []Message
	ids       map[string]struct{}
	onAppend  func(Message)
	onReplace func([]Message)
}

// NewLog creates a Log seeded with the welcome message.
func NewLog() *Log {
	l := &Log{ids: make(map[string]struct{})}
	l.append(Welcome())
	return l
}

// OnAppend registers the single append listener (last registration
// wins). It fires for every message that actually enters the log, local
// or remote, after the lock is released.
func (l *Log) OnAppend(fn func(Message)) {
	l.mu.Lock()
	l.onAppend = fn
	l.mu.Unlock()
}

func (l *Log) append(m Message) {
	l.messages = append(l.messages, m)
	l.ids[m.ID] = struct{}{}
}

// Append adds a message to the log. Returns false without mutating when
// a message with the same id is already present.
func (l *Log) Append(m Message) bool {
	l.mu.Lock()
	if _, dup := l.ids[m.ID]; dup {
		l.mu.Unlock()
		return false
	}
	l.append(m)
	fn := l.onAppend
	l.mu.Unlock()

	if fn != nil {
		fn(m)
	}
	return true
}

// OnReplace registers the single wholesale-replacement listener (last
// registration wins). It receives the new log contents after the lock
// is released.
func (l *Log) OnReplace(fn func([]Message)) {
	l.mu.Lock()
	l.onReplace = fn
	l.mu.Unlock()
}

// Replace swaps the entire log for the supplied messages. Used when a
// guest adopts the host's SYNC_STATE wholesale.
func (l *Log) Replace(messages []Message) {
	l.mu.Lock()
	l.messages = make([]Message, len(messages))
	copy(l.messages, messages)
	l.ids = make(map[string]struct{}, len(messages))
	for _, m := range messages {
		l.ids[m.ID] = struct{}{}
	}
	adopted := make([]Message, len(l.messages))
	copy(adopted, l.messages)
	fn := l.onReplace
	l.mu.Unlock()

	if fn != nil {
		fn(adopted)
	}
}

// Messages returns a copy of the log in order.
func (l *Log) Messages() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Last returns the most recent message and true, or false on an empty log.
func (l *Log) Last() (Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.messages) == 0 {
		return Message{}, false
	}
	return l.messages[len(l.messages)-1], true
}

// Count returns the number of messages.
func (l *Log) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

// Reset restores the log to the fresh-workspace state: only the welcome
// message remains.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = nil
	l.ids = make(map[string]struct{})
	l.append(Welcome())
}
