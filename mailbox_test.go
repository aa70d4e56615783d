package greenroom

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// recordingInvoker captures every message delivered to it, split by lane.
type recordingInvoker struct {
	system []Message
	user   []Message
}

func (r *recordingInvoker) InvokeSystem(msg Message) { r.system = append(r.system, msg) }
func (r *recordingInvoker) InvokeUser(msg Message)   { r.user = append(r.user, msg) }

func newTestMailbox(t MailboxType) (Mailbox, *recordingInvoker) {
	mb := NewMailbox(t)
	inv := &recordingInvoker{}
	mb.RegisterHandlers(inv, NewInlineDispatcher())
	return mb, inv
}

func TestPriorityMailboxDrainOrder(t *testing.T) {
	mb, inv := newTestMailbox(MailboxPriority)

	require.True(t, mb.PostSystem(Message{Type: "ping"}))
	require.True(t, mb.PostUser(Message{Type: "$priority.low.a"}))
	require.True(t, mb.PostUser(Message{Type: "$priority.high.a"}))
	require.True(t, mb.PostUser(Message{Type: "normal.a"}))
	require.True(t, mb.PostUser(Message{Type: "$priority.high.b"}))

	mb.Start()

	require.Len(t, inv.system, 1)
	assert.Equal(t, "ping", inv.system[0].Type)

	wantOrder := []string{"$priority.high.a", "$priority.high.b", "normal.a", "$priority.low.a"}
	require.Len(t, inv.user, len(wantOrder))
	for i, wantType := range wantOrder {
		assert.Equal(t, wantType, inv.user[i].Type, "position %d", i)
	}
}

func TestDefaultMailboxSealsOnErrorSentinel(t *testing.T) {
	mb, inv := newTestMailbox(MailboxDefault)
	mb.Start()

	require.True(t, mb.PostSystem(Message{Type: "normal1"}))
	require.True(t, mb.PostSystem(Message{Type: errorType}))

	assert.False(t, mb.PostSystem(Message{Type: "normal2"}))
	assert.False(t, mb.PostUser(Message{Type: "user1"}))
	assert.False(t, mb.PostUser(Message{Type: "user2"}))

	require.Len(t, inv.system, 1)
	assert.Equal(t, "normal1", inv.system[0].Type)
	assert.Empty(t, inv.user)
	assert.True(t, mb.Sealed())
	assert.True(t, mb.Suspended())
}

func TestMailboxSuspendResume(t *testing.T) {
	mb, inv := newTestMailbox(MailboxDefault)
	mb.Start()
	mb.Suspend()

	assert.False(t, mb.PostUser(Message{Type: "while-suspended"}))
	assert.Empty(t, inv.user)

	mb.Resume()
	require.True(t, mb.PostUser(Message{Type: "after-resume"}))
	require.Len(t, inv.user, 1)
	assert.Equal(t, "after-resume", inv.user[0].Type)
}

func TestMailboxResumeIsNoOpOnceSealed(t *testing.T) {
	mb, _ := newTestMailbox(MailboxDefault)
	mb.Start()
	require.True(t, mb.PostSystem(Message{Type: errorType}))

	mb.Resume()
	assert.True(t, mb.Sealed(), "Resume must not clear a monotonic seal in place")
	assert.False(t, mb.PostUser(Message{Type: "after-fake-resume"}))
}

func TestMailboxFullLaneRejectsPost(t *testing.T) {
	lanes := []lane{laneSystem, laneNormal}
	mb := newMailboxBase(lanes)
	mb.lanes[laneNormal] = newRingBuffer(2)
	inv := &recordingInvoker{}
	mb.RegisterHandlers(inv, &blockingDispatcher{})
	mb.started.set(true)

	require.True(t, mb.PostUser(Message{Type: "a"}))
	require.True(t, mb.PostUser(Message{Type: "b"}))
	assert.False(t, mb.PostUser(Message{Type: "c"}), "third post into a 2-capacity lane must be rejected")
}

// blockingDispatcher never actually runs the scheduled task, so posts in
// TestMailboxFullLaneRejectsPost exercise the ring buffer directly without
// draining.
type blockingDispatcher struct{}

func (blockingDispatcher) Schedule(func()) {}

// TestPriorityMailboxRoundTripLaw is the property-based form of the
// priority mailbox round trip law: whatever set of messages is posted
// (labelled by lane), every message is eventually delivered exactly once,
// and within a lane delivery preserves posting order.
func TestPriorityMailboxRoundTripLaw(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 40).Draw(rt, "n")
		lanes := []string{"$priority.high.", "", "$priority.low."}

		type posted struct {
			lane string
			seq  int
		}
		var plan []posted
		perLaneSeq := map[string]int{}
		for i := 0; i < n; i++ {
			l := lanes[rapid.IntRange(0, len(lanes)-1).Draw(rt, fmt.Sprintf("lane%d", i))]
			plan = append(plan, posted{lane: l, seq: perLaneSeq[l]})
			perLaneSeq[l]++
		}

		mb, inv := newTestMailbox(MailboxPriority)
		for i, p := range plan {
			mb.PostUser(Message{Type: fmt.Sprintf("%smsg%d", p.lane, i), Payload: p})
		}
		mb.Start()

		require.Len(rt, inv.user, n)

		lastSeqPerLane := map[string]int{}
		for _, msg := range inv.user {
			p := msg.Payload.(posted)
			last, seen := lastSeqPerLane[p.lane]
			if seen {
				require.Greater(rt, p.seq, last, "lane %q delivered out of FIFO order", p.lane)
			}
			lastSeqPerLane[p.lane] = p.seq
		}

		seenLow := false
		for _, msg := range inv.user {
			p := msg.Payload.(posted)
			switch p.lane {
			case "$priority.high.":
				require.False(rt, seenLow, "a low-lane message was delivered before a high-lane message")
			case "$priority.low.":
				seenLow = true
			}
		}
	})
}
