// Package preview implements the message contract between the host and
// the sandboxed generated-app document: console capture, and DOM
// read/update addressed by child-index paths.
//
// A node is addressed by the sequence of element-child indices from the
// document body down to it, joined by "-" ("0-2-1" = body, child 0,
// child 2, child 1); the empty path addresses the body itself. Paths
// are positional and invalidated by any structural mutation between
// computing one and using it; callers re-resolve after every update.
//
// The sandbox directive never includes allow-same-origin: the generated
// app must not reach the host's storage, cookies, or DOM directly.
// Everything crosses this message contract.
package preview
