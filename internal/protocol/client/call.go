package client

import (
	"context"

	"github.com/danmuck/tagwire/internal/protocol/field"
	"github.com/rs/zerolog/log"
)

// Call is one asynchronous invocation started by Client.Go.
type Call struct {
	Field field.Field
	Args  []uint64
	Reply Reply
	Error error
	Done  chan *Call
}

func (call *Call) done() {
	if call.Error != nil {
		log.Debug().Msgf("client.Call done tag=%d err=%v", call.Field.Tag(), call.Error)
	}
	call.Done <- call
}

// Go starts a call in the background and delivers it on done. A nil done
// allocates a channel; an unbuffered one panics.
func (c *Client) Go(ctx context.Context, f field.Field, done chan *Call, value ...uint64) *Call {
	if done == nil {
		done = make(chan *Call, 1)
	} else if cap(done) == 0 {
		log.Panic().Msg("client: done channel is unbuffered")
	}
	args := make([]uint64, len(value))
	copy(args, value)
	call := &Call{
		Field: f,
		Args:  args,
		Done:  done,
	}
	go func() {
		call.Reply, call.Error = c.Call(ctx, f, call.Args...)
		call.done()
	}()
	return call
}
