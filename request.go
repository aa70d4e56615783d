package greenroom

import (
	"context"
	"time"
)

// Request sends msg to target and blocks until a reply arrives, ctx is
// done, or timeout elapses, whichever comes first. It is built on top of
// an ephemeral reply actor rather than a typed Future/Promise pair, since
// Message's payload is untyped; ctx cancellation and timeout race the same
// way a direct channel read would.
//
// A reply that arrives after the call has already returned (timeout,
// cancellation, or parent ctx done) is silently dropped: the ephemeral
// actor is stopped before Request returns, so the reply simply dead-letters.
func Request(ctx context.Context, sys *System, target Address, msg Message, timeout time.Duration) (Message, error) {
	replyCh := make(chan Message, 1)
	replyProps := NewProps(func() Actor { return &replyActor{ch: replyCh} })
	replyAddr := sys.Spawn(replyProps)
	defer sys.Stop(replyAddr)

	msg.Sender = replyAddr
	sys.Send(target, msg)

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case reply := <-replyCh:
		return reply, nil
	case <-callCtx.Done():
		if ctx.Err() != nil {
			return Message{}, ctx.Err()
		}
		return Message{}, ErrRequestTimeout
	}
}

// replyActor is the ephemeral actor Request spawns to catch exactly one
// reply addressed to it.
type replyActor struct {
	ch chan Message
}

func (a *replyActor) InitializeBehaviors(r *Behaviors) {
	r.AddBehavior("default", a.receive)
}

func (a *replyActor) receive(ctx Context, msg Message) {
	select {
	case a.ch <- msg:
	default:
	}
}
