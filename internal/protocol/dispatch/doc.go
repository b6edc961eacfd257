// Package dispatch routes tagged requests to replaceable handlers.
//
// Ownership boundary:
// - tag -> handler table with per-tag atomic replacement
// - Resolve: tag ++ payload in, tag ++ handler(payload) out
// - Buffered: byte-at-a-time request loading for stream transports
package dispatch
