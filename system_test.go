package greenroom

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type echoActor struct {
	out chan Message
}

func (a *echoActor) InitializeBehaviors(r *Behaviors) {
	r.AddBehavior("default", func(ctx Context, msg Message) {
		a.out <- msg
	})
}

func TestSystemSpawnSendDeliversMessage(t *testing.T) {
	sys := NewSystem("", DefaultSystemConfig())
	out := make(chan Message, 1)
	addr := sys.Spawn(NewProps(func() Actor { return &echoActor{out: out} }))
	require.False(t, addr.IsZero())

	sys.Send(addr, Message{Type: "hello"})

	select {
	case msg := <-out:
		assert.Equal(t, "hello", msg.Type)
	case <-time.After(time.Second):
		t.Fatal("message was never delivered")
	}
}

func TestSystemSendToUnknownTargetDeadLetters(t *testing.T) {
	sys := NewSystem("", DefaultSystemConfig())
	target := Address{ID: "does-not-exist"}
	sys.Send(target, Message{Type: "hello"})

	letters := sys.DeadLetters()
	require.Len(t, letters, 1)
	assert.Equal(t, target, letters[0].Target)
	assert.Equal(t, "hello", letters[0].Message.Type)
	assert.ErrorIs(t, letters[0].Reason, ErrUnknownTarget)
}

func TestSystemStopIsIdempotent(t *testing.T) {
	sys := NewSystem("", DefaultSystemConfig())
	addr := sys.Spawn(NewProps(func() Actor { return &echoActor{out: make(chan Message, 1)} }))

	sys.Stop(addr)
	assert.False(t, sys.Exists(addr))
	sys.Stop(addr) // must not panic or error

	_, ok := sys.Phase(addr)
	assert.False(t, ok)
}

// TestStopIsIdempotentProperty is the idempotence Law from spec.md §8:
// stop(a) twice is equivalent to stop(a) once, regardless of how many extra
// times it is repeated or whether a lands on an address nothing was ever
// spawned at.
func TestStopIsIdempotentProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		sys := NewSystem("", DefaultSystemConfig())
		spawned := rapid.Bool().Draw(rt, "spawned")

		var addr Address
		if spawned {
			addr = sys.Spawn(NewProps(func() Actor { return &echoActor{out: make(chan Message, 1)} }))
		} else {
			addr = Address{ID: "rapid-ghost-" + rapid.StringMatching(`[a-z]{1,8}`).Draw(rt, "id")}
		}

		calls := rapid.IntRange(1, 8).Draw(rt, "calls")
		require.NotPanics(rt, func() {
			for i := 0; i < calls; i++ {
				sys.Stop(addr)
			}
		})

		assert.False(rt, sys.Exists(addr))
		_, ok := sys.Phase(addr)
		assert.False(rt, ok)
	})
}

type stopOrderActor struct {
	name  string
	order *[]string
}

func (a *stopOrderActor) InitializeBehaviors(r *Behaviors) {
	r.AddBehavior("default", func(ctx Context, msg Message) {})
}
func (a *stopOrderActor) PostStop(ctx Context) error {
	*a.order = append(*a.order, a.name)
	return nil
}

type spawningParentActor struct {
	order *[]string
}

func (a *spawningParentActor) InitializeBehaviors(r *Behaviors) {
	r.AddBehavior("default", func(ctx Context, msg Message) {
		if msg.Type == "spawn-child" {
			ctx.Spawn(NewProps(func() Actor { return &stopOrderActor{name: "child", order: a.order} }))
		}
	})
}
func (a *spawningParentActor) PostStop(ctx Context) error {
	*a.order = append(*a.order, "parent")
	return nil
}

func TestSystemStopStopsChildrenFirst(t *testing.T) {
	sys := NewSystem("", DefaultSystemConfig())
	var order []string

	parent := sys.Spawn(NewProps(func() Actor { return &spawningParentActor{order: &order} }))
	sys.Send(parent, Message{Type: "spawn-child"})
	time.Sleep(10 * time.Millisecond)

	sys.Stop(parent)

	require.Len(t, order, 2)
	assert.Equal(t, "child", order[0])
	assert.Equal(t, "parent", order[1])
}

type failingActor struct {
	failOn string
}

func (a *failingActor) InitializeBehaviors(r *Behaviors) {
	r.AddBehavior("default", func(ctx Context, msg Message) {
		if msg.Type == a.failOn {
			panic(errors.New("boom"))
		}
	})
}

func TestRootActorFailureIsTerminal(t *testing.T) {
	sys := NewSystem("", DefaultSystemConfig())
	addr := sys.Spawn(NewProps(func() Actor { return &failingActor{failOn: "die"} }))

	sys.Send(addr, Message{Type: "die"})
	time.Sleep(10 * time.Millisecond)

	assert.False(t, sys.Exists(addr), "a root actor with no supervisor must be stopped after failing")
}

type spawnOnceParent struct {
	onChild chan Address
}

func (a *spawnOnceParent) InitializeBehaviors(r *Behaviors) {
	r.AddBehavior("default", func(ctx Context, msg Message) {})
}

func (a *spawnOnceParent) PreStart(ctx Context) error {
	child := ctx.Spawn(NewProps(func() Actor { return &failingActor{failOn: "die"} }))
	a.onChild <- child
	return nil
}

func TestSupervisedChildRestartOnFailure(t *testing.T) {
	sys := NewSystem("", DefaultSystemConfig())
	strategy := OneForOneStrategy(func(err error) Directive { return Restart })

	onChild := make(chan Address, 1)
	sys.Spawn(NewProps(func() Actor {
		return &spawnOnceParent{onChild: onChild}
	}, WithStrategy(strategy)))

	child := <-onChild
	sys.Send(child, Message{Type: "die"})

	time.Sleep(10 * time.Millisecond)
	assert.True(t, sys.Exists(child), "Restart directive must keep the child registered")
	phase, ok := sys.Phase(child)
	require.True(t, ok)
	assert.Equal(t, PhaseRunning, phase)
}

func TestSupervisedChildStoppedOnFailure(t *testing.T) {
	sys := NewSystem("", DefaultSystemConfig())
	strategy := OneForOneStrategy(func(err error) Directive { return Stop })

	onChild := make(chan Address, 1)
	sys.Spawn(NewProps(func() Actor {
		return &spawnOnceParent{onChild: onChild}
	}, WithStrategy(strategy)))

	child := <-onChild
	sys.Send(child, Message{Type: "die"})

	time.Sleep(10 * time.Millisecond)
	assert.False(t, sys.Exists(child), "Stop directive must remove the child")
}
