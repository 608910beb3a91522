// Package collab implements the peer synchronization protocol and the
// coordinator that enforces its host-authoritative semantics.
//
// Four events exist on the wire: SYNC_STATE and CODE_UPDATE (host to
// guest, full-state replacement), NEW_MESSAGE (host to guest, appended
// with id de-duplication), and REMOTE_PROMPT (guest to host, replayed
// through the host's normal generation path). The payloads form a
// closed tagged union; decoding an unknown type is an error, and the
// coordinator drops events whose sender role the protocol forbids.
//
// Delivery is at-most-once with no retry and no acknowledgement: a lost
// envelope is only reconciled by the next full SYNC_STATE broadcast.
// Each guest receives the host's frames over one ordered connection,
// so CODE_UPDATEs apply in arrival order; a lower artifact version
// means the host rolled back and the guest follows.
package collab
