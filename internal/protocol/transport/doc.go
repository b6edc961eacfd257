// Package transport moves tag+payload envelopes between clients and
// dispatchers.
//
// Ownership boundary:
// - Loopback: in-memory client.Transport backed by a dispatcher
// - Stream: client.Transport over a net.Conn with FIFO reply correlation
// - Server: serves a dispatcher over accepted stream connections
// - dial config and retry backoff for connection setup
//
// Streams carry bare envelopes: field widths frame each message, so both
// ends must declare the same registry. A dropped request desynchronizes the
// stream, so the server closes the connection instead of skipping bytes.
package transport
