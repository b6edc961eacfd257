package client

import (
	"context"
	"time"

	"github.com/danmuck/tagwire/internal/observability"
	"github.com/danmuck/tagwire/internal/protocol/field"
	"github.com/rs/zerolog/log"
)

// Reply is a normalized call outcome. Present is false only when a raw
// reply carried no payload bytes.
type Reply struct {
	Value   uint64
	Present bool
	Kind    ResultKind
}

type Client struct {
	transport Transport
}

func New(t Transport) (*Client, error) {
	if t == nil {
		return nil, ErrNilTransport
	}
	return &Client{transport: t}, nil
}

// Call encodes value under f, sends it and waits for the reply. Raw replies
// are decoded with f; decoded replies are returned unchanged. Without a
// ctx deadline Call waits as long as the transport does. When ctx ends
// first, the underlying promise is canceled.
func (c *Client) Call(ctx context.Context, f field.Field, value ...uint64) (Reply, error) {
	start := time.Now()
	reply, err := c.call(ctx, f, value...)
	result := reply.Kind.String()
	if err != nil {
		result = "error"
		log.Debug().Msgf("client.Call tag=%d err=%v", f.Tag(), err)
	}
	observability.RecordClientCall(f.Tag(), result, time.Since(start))
	return reply, err
}

func (c *Client) call(ctx context.Context, f field.Field, value ...uint64) (Reply, error) {
	payload, err := f.Encode(value...)
	if err != nil {
		return Reply{}, err
	}
	p, err := c.transport.NewRequest(payload)
	if err != nil {
		return Reply{}, err
	}
	if p == nil {
		return Reply{}, ErrNilPromise
	}

	res, err := p.Await(ctx)
	if err != nil {
		select {
		case <-p.Done():
		default:
			p.Cancel(err)
		}
		return Reply{}, err
	}
	return normalize(f, res)
}

func normalize(f field.Field, res Result) (Reply, error) {
	switch res.Kind() {
	case KindBytes:
		raw, _ := res.Raw()
		v, ok := f.Decode(raw)
		return Reply{Value: v, Present: ok, Kind: KindBytes}, nil
	case KindDecoded:
		v, _ := res.Value()
		return Reply{Value: v, Present: true, Kind: KindDecoded}, nil
	default:
		return Reply{}, ErrEmptyResult
	}
}
