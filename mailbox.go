package greenroom

import "sync"

// MailboxType selects the lane layout a Props asks the System to build for
// a newly spawned actor.
type MailboxType int

const (
	// MailboxDefault has two lanes: system and user. All user messages
	// share a single FIFO regardless of type.
	MailboxDefault MailboxType = iota
	// MailboxPriority has four lanes: system, high, normal, low. User
	// messages are sorted into high/normal/low by their Type prefix (see
	// isHighPriority/isLowPriority).
	MailboxPriority
)

const defaultLaneCapacity = 10000

type lane int

const (
	laneSystem lane = iota
	laneHigh
	laneNormal
	laneLow
)

// Invoker is the actor-side endpoint a mailbox drains into. A process
// implements it; the mailbox never reaches into actor state directly.
type Invoker interface {
	InvokeSystem(msg Message)
	InvokeUser(msg Message)
}

// Mailbox buffers messages for one actor and drains them into an Invoker
// through a Dispatcher, one message at a time, in priority-lane order:
// system, then (for PriorityMailbox) high, normal, low. Sealing is
// monotonic for the lifetime of one Mailbox value — once sealed, a Mailbox
// never accepts or delivers another message. A restart or a Resume
// directive replaces the Mailbox wholesale rather than clearing the flag.
type Mailbox interface {
	RegisterHandlers(invoker Invoker, dispatcher Dispatcher)
	Start()
	Suspend()
	Resume()
	PostSystem(msg Message) bool
	PostUser(msg Message) bool
	Sealed() bool
	Suspended() bool
	CurrentMessage() (Message, bool)
	LaneSizes() map[string]int
}

// NewMailbox builds a fresh Mailbox of the given type, with empty lanes.
func NewMailbox(t MailboxType) Mailbox {
	switch t {
	case MailboxPriority:
		return newMailboxBase([]lane{laneSystem, laneHigh, laneNormal, laneLow})
	default:
		return newMailboxBase([]lane{laneSystem, laneNormal})
	}
}

type ringBuffer struct {
	mu    sync.Mutex
	items []Message
	head  int
	count int
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{items: make([]Message, capacity)}
}

func (r *ringBuffer) push(m Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count == len(r.items) {
		return false
	}
	idx := (r.head + r.count) % len(r.items)
	r.items[idx] = m
	r.count++
	return true
}

func (r *ringBuffer) pop() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count == 0 {
		return Message{}, false
	}
	m := r.items[r.head]
	r.items[r.head] = Message{}
	r.head = (r.head + 1) % len(r.items)
	r.count--
	return m, true
}

func (r *ringBuffer) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

func (r *ringBuffer) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.head, r.count = 0, 0
	for i := range r.items {
		r.items[i] = Message{}
	}
}

// mailboxBase implements both MailboxDefault and MailboxPriority; the only
// difference between them is laneOrder (and therefore which lanes
// classifyUser ever routes into).
type mailboxBase struct {
	laneOrder []lane
	lanes     map[lane]*ringBuffer

	invoker    Invoker
	dispatcher Dispatcher

	started   boolFlag
	suspended boolFlag
	sealed    boolFlag
	scheduled boolFlag

	curMu   sync.RWMutex
	current Message
	hasCur  bool
}

func newMailboxBase(order []lane) *mailboxBase {
	lanes := make(map[lane]*ringBuffer, len(order))
	for _, l := range order {
		lanes[l] = newRingBuffer(defaultLaneCapacity)
	}
	return &mailboxBase{laneOrder: order, lanes: lanes}
}

func (mb *mailboxBase) RegisterHandlers(invoker Invoker, dispatcher Dispatcher) {
	mb.invoker = invoker
	mb.dispatcher = dispatcher
}

func (mb *mailboxBase) Start() {
	mb.started.set(true)
	mb.schedule()
}

func (mb *mailboxBase) Suspend() {
	mb.suspended.set(true)
}

func (mb *mailboxBase) Resume() {
	if mb.sealed.get() {
		return
	}
	mb.suspended.set(false)
	mb.schedule()
}

func (mb *mailboxBase) Sealed() bool    { return mb.sealed.get() }
func (mb *mailboxBase) Suspended() bool { return mb.suspended.get() }

// classifyUser returns the lane a user-posted message belongs in. For a
// two-lane (Default) mailbox every user message lands in laneNormal.
func (mb *mailboxBase) classifyUser(msgType string) lane {
	if _, ok := mb.lanes[laneHigh]; !ok {
		return laneNormal
	}
	switch {
	case isHighPriority(msgType):
		return laneHigh
	case isLowPriority(msgType):
		return laneLow
	default:
		return laneNormal
	}
}

func (mb *mailboxBase) PostSystem(m Message) bool {
	if mb.sealed.get() {
		return false
	}
	if m.Type == errorType {
		mb.seal()
		return true
	}
	ok := mb.lanes[laneSystem].push(m)
	if ok && mb.started.get() && !mb.suspended.get() {
		mb.schedule()
	}
	return ok
}

func (mb *mailboxBase) PostUser(m Message) bool {
	if mb.sealed.get() || mb.suspended.get() {
		return false
	}
	l := mb.classifyUser(m.Type)
	ok := mb.lanes[l].push(m)
	if ok && mb.started.get() {
		mb.schedule()
	}
	return ok
}

// seal clears every lane and marks the mailbox sealed and suspended. It is
// the terminal state for this Mailbox value: only a replacement Mailbox
// (built by the System on restart, or on a Resume supervisor directive)
// accepts further messages for this actor.
func (mb *mailboxBase) seal() {
	for _, l := range mb.laneOrder {
		mb.lanes[l].clear()
	}
	mb.suspended.set(true)
	mb.sealed.set(true)
}

func (mb *mailboxBase) schedule() {
	if mb.sealed.get() || mb.suspended.get() {
		return
	}
	if mb.scheduled.compareAndSwap(false, true) {
		mb.dispatcher.Schedule(mb.drain)
	}
}

// drain is the task handed to the Dispatcher. It delivers messages one at a
// time, rechecking the system lane ahead of every message so a system
// message posted mid-drain preempts at the next yield point without
// interrupting a message already in flight.
func (mb *mailboxBase) drain() {
	for {
		if mb.sealed.get() || mb.suspended.get() {
			mb.scheduled.set(false)
			return
		}
		msg, isSystem, ok := mb.dequeue()
		if !ok {
			mb.scheduled.set(false)
			// A post racing with this empty check may have landed between
			// dequeue() returning false and the flag clearing above; if so
			// it already lost the CompareAndSwap in schedule() and nothing
			// will wake this mailbox again. Recheck once before returning.
			if !mb.sealed.get() && !mb.suspended.get() && mb.hasPending() {
				if mb.scheduled.compareAndSwap(false, true) {
					mb.dispatcher.Schedule(mb.drain)
				}
			}
			return
		}
		mb.setCurrent(msg)
		if isSystem {
			mb.invoker.InvokeSystem(msg)
		} else {
			mb.invoker.InvokeUser(msg)
		}
		mb.clearCurrent()
	}
}

func (mb *mailboxBase) dequeue() (Message, bool, bool) {
	for _, l := range mb.laneOrder {
		if m, ok := mb.lanes[l].pop(); ok {
			return m, l == laneSystem, true
		}
	}
	return Message{}, false, false
}

func (mb *mailboxBase) hasPending() bool {
	for _, l := range mb.laneOrder {
		if mb.lanes[l].len() > 0 {
			return true
		}
	}
	return false
}

func (mb *mailboxBase) setCurrent(m Message) {
	mb.curMu.Lock()
	mb.current, mb.hasCur = m, true
	mb.curMu.Unlock()
}

func (mb *mailboxBase) clearCurrent() {
	mb.curMu.Lock()
	mb.current, mb.hasCur = Message{}, false
	mb.curMu.Unlock()
}

func (mb *mailboxBase) CurrentMessage() (Message, bool) {
	mb.curMu.RLock()
	defer mb.curMu.RUnlock()
	return mb.current, mb.hasCur
}

func (mb *mailboxBase) LaneSizes() map[string]int {
	sizes := make(map[string]int, len(mb.laneOrder))
	for _, l := range mb.laneOrder {
		sizes[laneName(l)] = mb.lanes[l].len()
	}
	return sizes
}

func laneName(l lane) string {
	switch l {
	case laneSystem:
		return "system"
	case laneHigh:
		return "high"
	case laneNormal:
		return "normal"
	case laneLow:
		return "low"
	default:
		return "unknown"
	}
}
