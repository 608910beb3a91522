// Package artifact provides the versioned-document model for the studio.
//
// A single current Artifact (title, full source text, integer version,
// timestamp) is governed by three history structures: an undo stack, a
// redo stack, and an append-only history log of superseded versions.
// Any mutating action other than undo/redo pushes the pre-mutation
// snapshot onto the undo stack and discards the redo stack (linear
// history with branch discard). The history log is never trimmed; it is
// the audit trail surfaced for manual version restoration.
//
// All mutations are synchronous and in-memory. Persistence mirroring is
// decoupled: a failure to persist never rolls back a mutation.
//
// Thread Safety: Store is safe for concurrent use, though the studio
// drives it from a single coordination goroutine.
package artifact
