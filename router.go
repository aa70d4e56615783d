package greenroom

// RouterKind selects how a router actor fans messages out to its routees.
type RouterKind int

const (
	// RoundRobin sends each message to exactly one routee, cycling through
	// the routee list in order.
	RoundRobin RouterKind = iota
	// Broadcast sends each message to every routee.
	Broadcast
)

// Message types a router actor recognizes as control messages rather than
// payload to forward.
const (
	MsgAddRoutee    = "add-routee"
	MsgRemoveRoutee = "remove-routee"
)

// AddRoutee is the Payload of a MsgAddRoutee control message.
type AddRoutee struct {
	Routee Address
}

// RemoveRoutee is the Payload of a MsgRemoveRoutee control message.
type RemoveRoutee struct {
	Routee Address
}

// RouterConfig configures a router actor built with NewRouterProducer.
type RouterConfig struct {
	Kind RouterKind
	// Routees seeds the router's initial routee list.
	Routees []Address
	// RouteeFactory, if set, is called to produce a new routee address
	// whenever a MsgAddRoutee arrives with a zero Routee — useful for
	// routers that spawn their own routees rather than being handed
	// existing addresses.
	RouteeFactory func(ctx Context) Address
}

func (c RouterConfig) withDefaults() RouterConfig {
	return c
}

// NewRouterProducer builds a Producer for a router actor with the given
// configuration. The router is an ordinary actor — spawn it with
// System.Spawn like any other — whose default behavior forwards any
// message it doesn't recognize as a control message to its routees
// according to cfg.Kind.
func NewRouterProducer(cfg RouterConfig) Producer {
	cfg = cfg.withDefaults()
	return func() Actor {
		routees := make([]Address, len(cfg.Routees))
		copy(routees, cfg.Routees)
		return &routerActor{kind: cfg.Kind, routees: routees, factory: cfg.RouteeFactory}
	}
}

type routerActor struct {
	kind    RouterKind
	routees []Address
	factory func(ctx Context) Address
	counter uint64
}

func (r *routerActor) InitializeBehaviors(reg *Behaviors) {
	reg.AddBehavior("default", r.receive)
}

func (r *routerActor) receive(ctx Context, msg Message) {
	switch msg.Type {
	case MsgAddRoutee:
		r.addRoutee(ctx, msg)
	case MsgRemoveRoutee:
		if p, ok := msg.Payload.(RemoveRoutee); ok {
			r.removeRoutee(p.Routee)
		}
	default:
		r.forward(ctx, msg)
	}
}

func (r *routerActor) addRoutee(ctx Context, msg Message) {
	if p, ok := msg.Payload.(AddRoutee); ok && !p.Routee.IsZero() {
		r.routees = append(r.routees, p.Routee)
		return
	}
	if r.factory != nil {
		r.routees = append(r.routees, r.factory(ctx))
	}
}

func (r *routerActor) removeRoutee(addr Address) {
	for i, existing := range r.routees {
		if existing == addr {
			r.routees = append(r.routees[:i], r.routees[i+1:]...)
			return
		}
	}
}

func (r *routerActor) forward(ctx Context, msg Message) {
	if len(r.routees) == 0 {
		return
	}
	switch r.kind {
	case Broadcast:
		for _, routee := range r.routees {
			ctx.Send(routee, msg)
		}
	default:
		idx := r.counter % uint64(len(r.routees))
		r.counter++
		ctx.Send(r.routees[idx], msg)
	}
}
