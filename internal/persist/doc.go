// Package persist is the studio's durable storage: projects, sessions
// and their chat history in SQLite, plus the debounced mirror that
// keeps the remote record trailing the in-memory workspace.
//
// Persistence is deliberately lossy in the small: the artifact is
// mirrored on a trailing debounce, so a crash can lose the last moments
// of work. The versioned store and its snapshot file are the in-session
// safety net; this package is the cross-restart one.
package persist
