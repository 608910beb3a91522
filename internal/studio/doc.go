// Package studio composes the workspace: the versioned artifact store,
// the chat log, the peer coordinator, the generator, the preview bridge
// and the persistence mirror, wired per session with no shared globals.
//
// The studio owns the single listener slot on each of its parts and
// fans events out from there: an artifact change reaches the
// collaboration layer, the persistence mirror, the preview and the
// caller's UI callback in that order.
package studio
