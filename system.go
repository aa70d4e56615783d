package greenroom

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// SystemConfig tunes a System.
type SystemConfig struct {
	// DefaultDispatcher is used by any actor spawned without its own
	// Props.Dispatcher. Defaults to an InlineDispatcher.
	DefaultDispatcher Dispatcher
	// RemoteCallTimeout bounds how long a Send/Spawn/Stop delegated to a
	// remote node waits for that node's RPC to answer.
	RemoteCallTimeout time.Duration
}

func (c SystemConfig) withDefaults() SystemConfig {
	if c.DefaultDispatcher == nil {
		c.DefaultDispatcher = NewInlineDispatcher()
	}
	if c.RemoteCallTimeout <= 0 {
		c.RemoteCallTimeout = 5 * time.Second
	}
	return c
}

// DefaultSystemConfig returns a System's zero-value-friendly defaults.
func DefaultSystemConfig() SystemConfig {
	return SystemConfig{}.withDefaults()
}

// LifecycleEvent is reported to any func registered via OnLifecycleEvent.
type LifecycleEvent int

const (
	LifecycleStarted LifecycleEvent = iota
	LifecycleStopped
	LifecycleFailed
)

// RemoteTransport is the capability a System needs to delegate Send/Spawn/
// Stop to an actor living on another node. remote.Client implements this
// interface; the System package never imports remote, to keep the
// dependency one-directional (remote imports greenroom, not vice versa).
type RemoteTransport interface {
	Send(ctx context.Context, target Address, msg Message) error
	Spawn(ctx context.Context, actorClass string, mailboxType MailboxType) (Address, error)
	Stop(ctx context.Context, target Address) error
}

// System is a process-scoped actor registry: it owns the actor table, the
// dead-letter log, the remote-client map, and the default dispatcher. A
// process normally hosts exactly one System, but nothing here is a
// singleton — tests routinely build several in one process.
type System struct {
	cfg SystemConfig

	localNode string

	mu     sync.RWMutex
	actors map[string]*process

	classMu  sync.RWMutex
	classes  map[string]Producer

	deadLetters *deadLetterLog

	remoteMu      sync.Mutex
	remoteClients map[string]RemoteTransport
	remoteDialer  func(node string) (RemoteTransport, error)

	lifecycleMu    sync.RWMutex
	lifecycleHooks []func(Address, LifecycleEvent, error)
}

// NewSystem builds a System ready to spawn actors on. localNode names this
// System's own dial address for remote peers to reach it at; it may be
// empty if the System never participates in remote transport.
func NewSystem(localNode string, cfg SystemConfig) *System {
	cfg = cfg.withDefaults()
	return &System{
		cfg:           cfg,
		localNode:     localNode,
		actors:        make(map[string]*process),
		classes:       make(map[string]Producer),
		deadLetters:   newDeadLetterLog(),
		remoteClients: make(map[string]RemoteTransport),
	}
}

// LocalNode returns the dial address this System identifies itself as to
// remote peers.
func (sys *System) LocalNode() string { return sys.localNode }

// RegisterActorClass makes producer spawnable by name, both locally via
// Props.ActorClass and remotely via the SpawnActor RPC.
func (sys *System) RegisterActorClass(name string, producer Producer) {
	sys.classMu.Lock()
	defer sys.classMu.Unlock()
	sys.classes[name] = producer
}

// LookupActorClass resolves a name registered with RegisterActorClass.
func (sys *System) LookupActorClass(name string) (Producer, bool) {
	sys.classMu.RLock()
	defer sys.classMu.RUnlock()
	p, ok := sys.classes[name]
	return p, ok
}

// RegisterRemoteTransport wires an already-connected RemoteTransport for
// node, skipping the lazy dialer the next time a Send/Spawn/Stop targets
// that node.
func (sys *System) RegisterRemoteTransport(node string, transport RemoteTransport) {
	sys.remoteMu.Lock()
	defer sys.remoteMu.Unlock()
	sys.remoteClients[node] = transport
}

// SetRemoteDialer installs the func used to lazily connect to a node the
// System has not talked to yet. remote.Dialer returns a ready-made dialer
// that dials over gRPC.
func (sys *System) SetRemoteDialer(dialer func(node string) (RemoteTransport, error)) {
	sys.remoteMu.Lock()
	defer sys.remoteMu.Unlock()
	sys.remoteDialer = dialer
}

func (sys *System) remoteTransportFor(node string) (RemoteTransport, error) {
	sys.remoteMu.Lock()
	defer sys.remoteMu.Unlock()
	if t, ok := sys.remoteClients[node]; ok {
		return t, nil
	}
	if sys.remoteDialer == nil {
		return nil, fmt.Errorf("%w: no dialer configured for node %q", ErrRemoteUnavailable, node)
	}
	t, err := sys.remoteDialer(node)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	sys.remoteClients[node] = t
	return t, nil
}

func (sys *System) isLocalNode(node string) bool {
	return node == "" || node == sys.localNode
}

// OnLifecycleEvent registers fn to be called whenever any actor in this
// System starts, stops, or fails. Used by remote.Server to drive the
// WatchActor RPC.
func (sys *System) OnLifecycleEvent(fn func(Address, LifecycleEvent, error)) {
	sys.lifecycleMu.Lock()
	defer sys.lifecycleMu.Unlock()
	sys.lifecycleHooks = append(sys.lifecycleHooks, fn)
}

func (sys *System) emitLifecycle(addr Address, event LifecycleEvent, err error) {
	sys.lifecycleMu.RLock()
	hooks := make([]func(Address, LifecycleEvent, error), len(sys.lifecycleHooks))
	copy(hooks, sys.lifecycleHooks)
	sys.lifecycleMu.RUnlock()
	for _, h := range hooks {
		h(addr, event, err)
	}
}

// Exists reports whether target names a locally-registered, not yet
// stopped actor.
func (sys *System) Exists(target Address) bool {
	if !sys.isLocalNode(target.Node) {
		return false
	}
	return sys.lookup(target) != nil
}

// DeadLetters returns a snapshot of every message that could not be
// delivered.
func (sys *System) DeadLetters() []DeadLetter {
	return sys.deadLetters.snapshot()
}

func (sys *System) lookup(addr Address) *process {
	sys.mu.RLock()
	defer sys.mu.RUnlock()
	return sys.actors[addr.ID]
}

func (sys *System) register(addr Address, p *process) {
	sys.mu.Lock()
	defer sys.mu.Unlock()
	sys.actors[addr.ID] = p
}

func (sys *System) remove(addr Address) {
	sys.mu.Lock()
	defer sys.mu.Unlock()
	delete(sys.actors, addr.ID)
}

// Spawn creates a root actor (no parent) from props and returns its
// address. If props.Node names a remote node, the actor is created there
// instead and the returned Address carries that node.
func (sys *System) Spawn(props *Props) Address {
	return sys.spawnWithParent(props, nil)
}

func (sys *System) spawnWithParent(props *Props, parent *Address) Address {
	if props.Node != "" && !sys.isLocalNode(props.Node) {
		return sys.remoteSpawn(props)
	}
	producer := props.Producer
	if producer == nil && props.ActorClass != "" {
		producer, _ = sys.LookupActorClass(props.ActorClass)
	}
	if producer == nil {
		Logger().Error("spawn requires a producer", slog.String("actor_class", props.ActorClass), slog.Any("error", ErrNoProducer))
		return Address{}
	}

	actorInstance := producer()
	behaviors := &Behaviors{}
	actorInstance.InitializeBehaviors(behaviors)
	if !behaviors.hasDefault() {
		panic(ErrNoDefaultBehavior)
	}
	if props.InitialBehavior != "" {
		behaviors.Become(props.InitialBehavior)
	}
	if props.ActorClass != "" {
		sys.RegisterActorClass(props.ActorClass, producer)
	}

	addr := Address{ID: newActorID()}
	dispatcher := props.Dispatcher
	if dispatcher == nil {
		dispatcher = sys.cfg.DefaultDispatcher
	}
	mailbox := NewMailbox(props.MailboxType)
	ctx := newContext(sys, addr, parent, props.SupervisorStrategy)

	p := &process{
		system:     sys,
		address:    addr,
		actor:      actorInstance,
		behaviors:  behaviors,
		mailbox:    mailbox,
		dispatcher: dispatcher,
		ctx:        ctx,
		props:      props,
	}
	p.phase.Store(int32(PhaseStarting))
	mailbox.RegisterHandlers(p, dispatcher)

	sys.register(addr, p)
	if parent != nil {
		if parentProc := sys.lookup(*parent); parentProc != nil {
			parentProc.ctx.addChild(addr)
		}
	}

	mailbox.Start()
	mailbox.PostSystem(Message{Type: MsgStarted})
	return addr
}

// Send delivers msg to target's user mailbox, or forwards it to target's
// node if it is remote. Delivery is best-effort: a full or sealed mailbox,
// or an unknown target, drops the message into the dead-letter log.
func (sys *System) Send(target Address, msg Message) {
	if !sys.isLocalNode(target.Node) {
		sys.remoteSend(target, msg)
		return
	}
	p := sys.lookup(target)
	if p == nil {
		sys.deadLetters.append(target, msg, ErrUnknownTarget)
		return
	}
	mb := p.currentMailbox()
	if ok := mb.PostUser(msg); !ok {
		reason := ErrMailboxFull
		if mb.Sealed() {
			reason = ErrMailboxSealed
		}
		sys.deadLetters.append(target, msg, reason)
	}
}

// Stop stops target and, recursively, all of its children, then removes it
// from the registry. Stop is idempotent: stopping an already-stopped or
// unknown address is a silent no-op.
func (sys *System) Stop(target Address) {
	if !sys.isLocalNode(target.Node) {
		sys.remoteStop(target)
		return
	}
	p := sys.lookup(target)
	if p == nil {
		return
	}
	p.phase.Store(int32(PhaseStopping))
	p.currentMailbox().Suspend()

	for _, child := range p.ctx.childrenSnapshot() {
		sys.Stop(child)
	}

	if hook, ok := p.actor.(PostStopper); ok {
		if err := hook.PostStop(p.ctx); err != nil {
			Logger().Warn("postStop failed", slog.String("actor", target.String()), slog.Any("error", err))
		}
	}

	p.phase.Store(int32(PhaseStopped))
	sys.remove(target)
	sys.emitLifecycle(target, LifecycleStopped, nil)
}

// restart replaces target's mailbox (dropping anything queued on the old
// one), running PreRestart before and PostRestart after the swap.
func (sys *System) restart(target Address, reason error) {
	p := sys.lookup(target)
	if p == nil {
		return
	}
	p.phase.Store(int32(PhaseRestarting))
	if hook, ok := p.actor.(PreRestarter); ok {
		if err := hook.PreRestart(p.ctx, reason); err != nil {
			Logger().Warn("preRestart failed", slog.String("actor", target.String()), slog.Any("error", err))
		}
	}

	mailbox := NewMailbox(p.props.MailboxType)
	mailbox.RegisterHandlers(p, p.dispatcher)
	p.setMailbox(mailbox)

	if hook, ok := p.actor.(PostRestarter); ok {
		if err := hook.PostRestart(p.ctx, reason); err != nil {
			Logger().Warn("postRestart failed", slog.String("actor", target.String()), slog.Any("error", err))
		}
	}
	p.phase.Store(int32(PhaseRunning))
	mailbox.Start()
}

// resumeAfterFailure replaces target's mailbox in place, clearing the seal
// without running any restart hooks — the actor's own state is left
// untouched, only its ability to receive further messages is restored.
func (sys *System) resumeAfterFailure(target Address) {
	p := sys.lookup(target)
	if p == nil {
		return
	}
	mailbox := NewMailbox(p.props.MailboxType)
	mailbox.RegisterHandlers(p, p.dispatcher)
	p.setMailbox(mailbox)
	p.phase.Store(int32(PhaseRunning))
	mailbox.Start()
}

// reportFailure is called by a process when its own handler panics or
// returns an error. If the actor has a parent, the parent's supervisor
// strategy decides what happens next; a root actor's failure is terminal.
func (sys *System) reportFailure(addr Address, err error) {
	sys.emitLifecycle(addr, LifecycleFailed, err)
	p := sys.lookup(addr)
	if p == nil {
		return
	}
	if p.ctx.parent == nil {
		sys.logTerminalFailure(addr, err)
		sys.Stop(addr)
		return
	}
	parentProc := sys.lookup(*p.ctx.parent)
	if parentProc == nil {
		sys.logTerminalFailure(addr, err)
		sys.Stop(addr)
		return
	}
	parentProc.ctx.HandleFailure(addr, err)
}

func (sys *System) logTerminalFailure(addr Address, err error) {
	Logger().Error("actor failed with no supervisor", slog.String("actor", addr.String()), slog.Any("error", err))
}

func (sys *System) remoteSend(target Address, msg Message) {
	transport, err := sys.remoteTransportFor(target.Node)
	if err != nil {
		Logger().Warn("remote send unavailable", slog.String("node", target.Node), slog.Any("error", err))
		sys.deadLetters.append(target, msg, err)
		return
	}
	if !msg.Sender.IsZero() {
		msg.Sender.Node = sys.localNode
	}
	ctx, cancel := context.WithTimeout(context.Background(), sys.cfg.RemoteCallTimeout)
	defer cancel()
	if err := transport.Send(ctx, target, msg); err != nil {
		Logger().Warn("remote send failed", slog.String("target", target.String()), slog.Any("error", err))
		sys.deadLetters.append(target, msg, err)
	}
}

func (sys *System) remoteSpawn(props *Props) Address {
	transport, err := sys.remoteTransportFor(props.Node)
	if err != nil {
		Logger().Error("remote spawn unavailable", slog.String("node", props.Node), slog.Any("error", err))
		return Address{}
	}
	ctx, cancel := context.WithTimeout(context.Background(), sys.cfg.RemoteCallTimeout)
	defer cancel()
	addr, err := transport.Spawn(ctx, props.ActorClass, props.MailboxType)
	if err != nil {
		Logger().Error("remote spawn failed", slog.String("node", props.Node), slog.Any("error", err))
		return Address{}
	}
	addr.Node = props.Node
	return addr
}

func (sys *System) remoteStop(target Address) {
	transport, err := sys.remoteTransportFor(target.Node)
	if err != nil {
		Logger().Warn("remote stop unavailable", slog.String("node", target.Node), slog.Any("error", err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sys.cfg.RemoteCallTimeout)
	defer cancel()
	if err := transport.Stop(ctx, target); err != nil {
		Logger().Warn("remote stop failed", slog.String("target", target.String()), slog.Any("error", err))
	}
}

// process binds one actor instance to its mailbox, dispatcher, and
// capability context, and is the Invoker the mailbox drains into.
type process struct {
	system     *System
	address    Address
	actor      Actor
	behaviors  *Behaviors
	dispatcher Dispatcher
	ctx        *contextImpl
	props      *Props

	mbMu    sync.RWMutex
	mailbox Mailbox

	phase atomic.Int32
}

func (p *process) setMailbox(mb Mailbox) {
	p.mbMu.Lock()
	p.mailbox = mb
	p.mbMu.Unlock()
}

func (p *process) currentMailbox() Mailbox {
	p.mbMu.RLock()
	defer p.mbMu.RUnlock()
	return p.mailbox
}

// Phase reports where an actor is in its lifecycle. Exposed on System for
// introspection and tests.
func (sys *System) Phase(addr Address) (LifecyclePhase, bool) {
	p := sys.lookup(addr)
	if p == nil {
		return PhaseStopped, false
	}
	return LifecyclePhase(p.phase.Load()), true
}

func (p *process) InvokeSystem(msg Message) {
	defer p.recoverPanic(msg)
	switch msg.Type {
	case MsgStarted:
		p.phase.Store(int32(PhaseRunning))
		if hook, ok := p.actor.(PreStarter); ok {
			if err := hook.PreStart(p.ctx); err != nil {
				p.fail(err)
				return
			}
		}
		p.system.emitLifecycle(p.address, LifecycleStarted, nil)
	case MsgFailure:
		if payload, ok := msg.Payload.(FailurePayload); ok {
			p.ctx.HandleFailure(payload.Child, payload.Err)
		}
	default:
		// Unrecognized system message: ignored. Actors never see these
		// through their ordinary behaviors.
	}
}

func (p *process) InvokeUser(msg Message) {
	defer p.recoverPanic(msg)
	p.behaviors.dispatch(p.ctx, msg)
}

func (p *process) recoverPanic(msg Message) {
	if r := recover(); r != nil {
		err := toError(r)
		Logger().Error("actor handler panicked",
			slog.String("actor", p.address.String()),
			slog.Any("panic", r),
			slog.String("stack", string(debug.Stack())),
		)
		p.fail(err)
	}
}

func (p *process) fail(err error) {
	p.phase.Store(int32(PhaseFailed))
	mb := p.currentMailbox()
	mb.PostSystem(Message{Type: errorType})
	p.system.reportFailure(p.address, err)
}

func toError(r interface{}) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}

// DeadLetter is a message that could not be delivered: the target was
// unknown, its mailbox sealed, or its lane full. Reason is one of
// ErrUnknownTarget, ErrMailboxSealed, or ErrMailboxFull for a local target;
// for a remote target it is the error from obtaining the transport (which
// wraps ErrRemoteUnavailable) or the error the transport's Send returned
// — it is diagnostic only; PostUser/PostSystem themselves never expose it to
// their caller (see spec §7).
type DeadLetter struct {
	Target  Address
	Message Message
	Reason  error
	At      time.Time
}

type deadLetterLog struct {
	mu      sync.Mutex
	entries []DeadLetter
}

func newDeadLetterLog() *deadLetterLog {
	return &deadLetterLog{}
}

func (d *deadLetterLog) append(target Address, msg Message, reason error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = append(d.entries, DeadLetter{Target: target, Message: msg, Reason: reason, At: time.Now()})
}

func (d *deadLetterLog) snapshot() []DeadLetter {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]DeadLetter, len(d.entries))
	copy(out, d.entries)
	return out
}
