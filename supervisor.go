package greenroom

// Directive is the decision a Strategy returns for a failed child.
type Directive int

const (
	// Resume clears the failed mailbox's seal without rerunning any
	// lifecycle hooks: the actor keeps its existing state but starts
	// accepting messages again on a fresh mailbox. Whatever was queued at
	// the moment of failure is gone, same as on a Restart.
	Resume Directive = iota
	// Restart rebuilds the child's mailbox and runs PreRestart/PostRestart.
	Restart
	// Stop removes the child permanently.
	Stop
	// Escalate sends a MsgFailure message, carrying the supervisor's own
	// address and the error, to the supervisor's parent through
	// System.Send. It arrives on the parent's user lane and reaches the
	// parent's behaviors; the parent's Strategy is not consulted, and the
	// failed child stays registered with its mailbox sealed. A supervisor
	// with no parent stops the failed child instead.
	Escalate
)

func (d Directive) String() string {
	switch d {
	case Resume:
		return "resume"
	case Restart:
		return "restart"
	case Stop:
		return "stop"
	case Escalate:
		return "escalate"
	default:
		return "unknown"
	}
}

// Strategy decides how a supervisor responds when a child (identified by
// address) reports a failure. A Strategy is a pure function of its
// arguments: the decision does not depend on shared mutable state.
type Strategy func(ctx Context, child Address, err error) Directive

// AlwaysEscalate is the default Strategy: every failure is passed up to the
// supervisor's own parent. A root actor (no parent) that fails under this
// strategy terminates — the only failure mode the core produces on its
// own, with no further configuration.
func AlwaysEscalate(ctx Context, child Address, err error) Directive {
	return Escalate
}

// OneForOneStrategy builds a Strategy that applies decide's verdict to only
// the one child that failed, leaving its siblings untouched.
func OneForOneStrategy(decide func(err error) Directive) Strategy {
	return func(ctx Context, child Address, err error) Directive {
		return decide(err)
	}
}

// AllForOneStrategy builds a Strategy that applies decide's verdict to the
// failed child and, for Restart and Stop directives, to every one of the
// supervisor's other children as well. Resume and Escalate apply only to
// the failed child, since they carry no meaningful "apply to siblings"
// semantics.
func AllForOneStrategy(decide func(err error) Directive) Strategy {
	return func(ctx Context, child Address, err error) Directive {
		directive := decide(err)
		switch directive {
		case Restart, Stop:
			for _, sibling := range ctx.Children() {
				if sibling == child {
					continue
				}
				if directive == Restart {
					ctx.System().restart(sibling, err)
				} else {
					ctx.Stop(sibling)
				}
			}
		}
		return directive
	}
}
