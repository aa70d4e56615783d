package greenroom

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Dispatcher schedules mailbox drain tasks. Task is expected to run to
// completion and return; a Dispatcher never inspects what it runs.
type Dispatcher interface {
	Schedule(task func())
}

// InlineDispatcher runs every task synchronously, in the goroutine that
// calls Schedule. It is the default: a mailbox drains in the same
// cooperative tick that posted to it, so sealing (and the scenarios that
// depend on it observing already-delivered messages) behaves
// deterministically.
type InlineDispatcher struct{}

// NewInlineDispatcher returns the default dispatcher.
func NewInlineDispatcher() *InlineDispatcher { return &InlineDispatcher{} }

func (InlineDispatcher) Schedule(task func()) { task() }

// ThroughputConfig tunes a ThroughputDispatcher.
type ThroughputConfig struct {
	// MaxPerSecond bounds how many tasks may begin in any rolling one
	// second window.
	MaxPerSecond int
	// BatchSize bounds how many tasks are admitted concurrently before the
	// dispatcher consults its token bucket again.
	BatchSize int
	// QueueCapacity bounds how many pending Schedule calls may be buffered
	// before Schedule blocks the caller.
	QueueCapacity int
}

func (c ThroughputConfig) withDefaults() ThroughputConfig {
	if c.MaxPerSecond <= 0 {
		c.MaxPerSecond = 1000
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 64
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = 4096
	}
	return c
}

// DefaultThroughputConfig returns sane defaults for a ThroughputDispatcher.
func DefaultThroughputConfig() ThroughputConfig {
	return ThroughputConfig{}.withDefaults()
}

// ThroughputDispatcher admits up to BatchSize tasks at a time. Before
// starting a batch's goroutines it reserves one token per task from a
// bucket of capacity MaxPerSecond (refilled continuously), blocking until
// enough tokens are available. A full bucket plus one second of refill
// would still let up to about twice MaxPerSecond tasks begin within one
// second, so the pump also keeps the start times of the last MaxPerSecond
// tasks and holds each further start until the oldest of them is a second
// old. Together this bounds the number of tasks that begin within any
// rolling one-second window to MaxPerSecond.
type ThroughputDispatcher struct {
	cfg     ThroughputConfig
	limiter *rate.Limiter
	tasks   chan func()
	done    chan struct{}
	closeOnce sync.Once
}

// NewThroughputDispatcher starts the dispatcher's background pump and
// returns it ready to use.
func NewThroughputDispatcher(cfg ThroughputConfig) *ThroughputDispatcher {
	cfg = cfg.withDefaults()
	d := &ThroughputDispatcher{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.MaxPerSecond), cfg.MaxPerSecond),
		tasks:   make(chan func(), cfg.QueueCapacity),
		done:    make(chan struct{}),
	}
	go d.pump()
	return d
}

// Schedule enqueues task for the pump. It blocks only if the internal queue
// is full.
func (d *ThroughputDispatcher) Schedule(task func()) {
	select {
	case d.tasks <- task:
	case <-d.done:
	}
}

// Close stops admitting new batches. Tasks already queued are dropped.
func (d *ThroughputDispatcher) Close() {
	d.closeOnce.Do(func() { close(d.done) })
}

func (d *ThroughputDispatcher) pump() {
	// starts holds the start times of the most recent MaxPerSecond tasks.
	var starts []time.Time
	for {
		batch := d.collectBatch()
		if batch == nil {
			return
		}
		if err := d.limiter.WaitN(context.Background(), len(batch)); err != nil {
			return
		}
		for _, t := range batch {
			if len(starts) == d.cfg.MaxPerSecond {
				select {
				case <-time.After(time.Until(starts[0].Add(time.Second))):
				case <-d.done:
					return
				}
				starts = starts[1:]
			}
			starts = append(starts, time.Now())
			go t()
		}
	}
}

// collectBatch blocks for at least one task, then greedily drains up to
// BatchSize-1 more without blocking.
func (d *ThroughputDispatcher) collectBatch() []func() {
	var batch []func()
	select {
	case t, ok := <-d.tasks:
		if !ok {
			return nil
		}
		batch = append(batch, t)
	case <-d.done:
		return nil
	}
	for len(batch) < d.cfg.BatchSize {
		select {
		case t, ok := <-d.tasks:
			if !ok {
				return batch
			}
			batch = append(batch, t)
		default:
			return batch
		}
	}
	return batch
}
