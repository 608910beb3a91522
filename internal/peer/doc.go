// Package peer provides the peer-to-peer transport: a mesh of reliable,
// ordered, bidirectional logical connections addressed by opaque peer
// identifier strings, brokered through a relay server.
//
// The relay allocates each websocket client a peer id and forwards
// open/data/close frames between clients by target id. Transports keep a
// registry of currently open logical connections; broadcast and
// send-to-one are fire-and-forget over that set: connections not yet
// open are silently skipped and nothing is queued across reconnects.
//
// Delivery order matches send order within one logical connection
// (websocket framing); no ordering holds across connections. Transport
// failures are reported on the error callback and leave the peer in the
// "not connected" state; there is no automatic retry.
package peer
