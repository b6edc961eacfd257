package client

// Transport accepts an encoded request and eventually settles a promise
// with the reply. Returning an error means the request was never sent.
type Transport interface {
	NewRequest(payload []byte) (*Promise, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(payload []byte) (*Promise, error)

func (f TransportFunc) NewRequest(payload []byte) (*Promise, error) { return f(payload) }
