package greenroom

import "sync"

// Context is the capability bundle an actor receives alongside every
// message: its own address, its parent (if any), its children, and the
// means to send, spawn, stop, and handle failures of children. A Context
// is created once per actor (not once per message) and is not safe for
// concurrent use — it is only ever touched from the actor's own,
// serialized, receive calls.
type Context interface {
	Self() Address
	Parent() (Address, bool)
	Children() []Address
	Send(target Address, msg Message)
	Spawn(props *Props) Address
	Stop(child Address)
	StopAll()
	HandleFailure(child Address, err error)
	System() *System
}

type contextImpl struct {
	system *System
	self   Address
	parent *Address
	strategy Strategy

	mu         sync.Mutex
	children   map[string]Address
	childOrder []string
}

func newContext(system *System, self Address, parent *Address, strategy Strategy) *contextImpl {
	if strategy == nil {
		strategy = AlwaysEscalate
	}
	return &contextImpl{
		system:   system,
		self:     self,
		parent:   parent,
		strategy: strategy,
		children: make(map[string]Address),
	}
}

func (c *contextImpl) Self() Address { return c.self }

func (c *contextImpl) Parent() (Address, bool) {
	if c.parent == nil {
		return Address{}, false
	}
	return *c.parent, true
}

func (c *contextImpl) Children() []Address {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Address, 0, len(c.childOrder))
	for _, id := range c.childOrder {
		if addr, ok := c.children[id]; ok {
			out = append(out, addr)
		}
	}
	return out
}

func (c *contextImpl) Send(target Address, msg Message) {
	if msg.Sender.IsZero() {
		msg.Sender = c.self
	}
	c.system.Send(target, msg)
}

func (c *contextImpl) Spawn(props *Props) Address {
	addr := c.system.spawnWithParent(props, &c.self)
	if !addr.IsZero() {
		c.addChild(addr)
	}
	return addr
}

func (c *contextImpl) Stop(child Address) {
	c.removeChild(child)
	c.system.Stop(child)
}

func (c *contextImpl) StopAll() {
	for _, child := range c.Children() {
		c.system.Stop(child)
	}
	c.mu.Lock()
	c.children = make(map[string]Address)
	c.childOrder = nil
	c.mu.Unlock()
}

func (c *contextImpl) HandleFailure(child Address, err error) {
	directive := c.strategy(c, child, err)
	switch directive {
	case Resume:
		c.system.resumeAfterFailure(child)
	case Restart:
		c.system.restart(child, err)
	case Stop:
		c.removeChild(child)
		c.system.Stop(child)
	case Escalate:
		if c.parent != nil {
			c.system.Send(*c.parent, Message{
				Type:    MsgFailure,
				Payload: FailurePayload{Child: c.self, Err: err},
				Sender:  c.self,
			})
		} else {
			c.system.logTerminalFailure(child, err)
			c.removeChild(child)
			c.system.Stop(child)
		}
	}
}

func (c *contextImpl) System() *System { return c.system }

func (c *contextImpl) addChild(addr Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.children[addr.ID]; !exists {
		c.childOrder = append(c.childOrder, addr.ID)
	}
	c.children[addr.ID] = addr
}

func (c *contextImpl) removeChild(addr Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.children[addr.ID]; !ok {
		return
	}
	delete(c.children, addr.ID)
	for i, id := range c.childOrder {
		if id == addr.ID {
			c.childOrder = append(c.childOrder[:i], c.childOrder[i+1:]...)
			break
		}
	}
}

func (c *contextImpl) childrenSnapshot() []Address {
	return c.Children()
}
