package greenroom

// Props describes how to spawn one actor: how to build it, which mailbox
// layout it uses, which dispatcher drives it, which supervisor strategy it
// applies to its own children, and — if Node is set — which remote node to
// spawn it on instead of locally.
type Props struct {
	// ActorClass, if set, registers the actor under this name in the
	// System's class registry so a remote node's SpawnActor RPC can
	// instantiate it by name. Required for any actor a remote peer should
	// be able to spawn. When Producer is nil, a local spawn instead builds
	// the actor from the producer already registered under this name.
	ActorClass string
	// Producer builds the actor. A local spawn needs either Producer or an
	// ActorClass already registered on the System; Producer is ignored for
	// a remote spawn, where ActorClass is resolved against the remote
	// node's own class registry instead.
	Producer Producer

	MailboxType        MailboxType
	Dispatcher         Dispatcher
	SupervisorStrategy Strategy
	InitialBehavior    string

	// Node, if non-empty, names a remote node address already registered
	// with System.RegisterRemoteTransport (or reachable through the
	// System's configured dialer). Spawn delegates to that node's
	// SpawnActor RPC instead of constructing locally.
	Node string
}

// PropsOption configures a Props built by NewProps.
type PropsOption func(*Props)

// NewProps builds a Props around producer with any options applied.
func NewProps(producer Producer, opts ...PropsOption) *Props {
	p := &Props{Producer: producer, SupervisorStrategy: AlwaysEscalate}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithMailboxType selects the mailbox layout the spawned actor uses.
func WithMailboxType(t MailboxType) PropsOption {
	return func(p *Props) { p.MailboxType = t }
}

// WithDispatcher overrides the System's default dispatcher for this actor.
func WithDispatcher(d Dispatcher) PropsOption {
	return func(p *Props) { p.Dispatcher = d }
}

// WithStrategy sets the supervisor strategy this actor applies to failures
// reported by its own children. Default is AlwaysEscalate.
func WithStrategy(s Strategy) PropsOption {
	return func(p *Props) { p.SupervisorStrategy = s }
}

// WithInitialBehavior switches the actor to name immediately after
// InitializeBehaviors runs, before MsgStarted is delivered.
func WithInitialBehavior(name string) PropsOption {
	return func(p *Props) { p.InitialBehavior = name }
}

// WithActorClass registers the actor under name in the System's class
// registry, so it can be spawned remotely by name.
func WithActorClass(name string) PropsOption {
	return func(p *Props) { p.ActorClass = name }
}

// WithNode routes the spawn to the named remote node instead of spawning
// locally.
func WithNode(node string) PropsOption {
	return func(p *Props) { p.Node = node }
}
