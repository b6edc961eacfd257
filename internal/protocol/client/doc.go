// Package client turns field values into requests and normalizes replies.
//
// Ownership boundary:
// - Transport capability: NewRequest(payload) -> single-shot Promise
// - Result variant: raw reply bytes or an already decoded value
// - Client.Call / Client.Go: encode, hand off, await, decode
//
// Correlation, retries and timeouts belong to the transport or the caller;
// Call only honors the context it is given.
package client
