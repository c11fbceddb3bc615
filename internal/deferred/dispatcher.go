package deferred

import (
	"errors"
	"sync"
)

// Domain is an execution priority level.
type Domain uint8

const (
	DomainLLL Domain = iota
	DomainULLHigh
	DomainULLLow
	DomainThread
	numDomains
)

func (d Domain) String() string {
	switch d {
	case DomainLLL:
		return "lll"
	case DomainULLHigh:
		return "ull-high"
	case DomainULLLow:
		return "ull-low"
	case DomainThread:
		return "thread"
	}
	return "invalid"
}

// ErrQueueFull indicates the destination domain's queue had no room.
var ErrQueueFull = errors.New("QUEUE_FULL")

type call struct {
	fn    func(param any)
	param any
}

// Dispatcher routes deferred calls to their destination domain. Without
// Start, queued calls run only through explicit Dispatch, which keeps test
// interleavings deterministic; Start spawns one drain goroutine per
// domain for live operation.
type Dispatcher struct {
	queues [numDomains]chan call

	mu      sync.Mutex
	stop    chan struct{}
	wg      sync.WaitGroup
	started bool
}

// New creates a dispatcher with the given queue depth per domain.
func New(depth int) *Dispatcher {
	d := &Dispatcher{}
	for i := range d.queues {
		d.queues[i] = make(chan call, depth)
	}
	return d
}

// Enqueue queues fn to run on the destination domain. The source domain is
// part of the contract (callers state the level they run at) but carries no
// routing information here.
func (d *Dispatcher) Enqueue(from, to Domain, fn func(param any), param any) error {
	_ = from
	if to >= numDomains || fn == nil {
		return errors.New("INVALID_PARAM")
	}
	select {
	case d.queues[to] <- call{fn: fn, param: param}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Dispatch synchronously drains the pending calls of one domain and
// returns how many ran.
func (d *Dispatcher) Dispatch(to Domain) int {
	if to >= numDomains {
		return 0
	}
	n := 0
	for {
		select {
		case c := <-d.queues[to]:
			c.fn(c.param)
			n++
		default:
			return n
		}
	}
}

// Start launches one drain goroutine per domain.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	d.stop = make(chan struct{})
	for i := range d.queues {
		q := d.queues[i]
		stop := d.stop
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for {
				select {
				case <-stop:
					return
				case c := <-q:
					c.fn(c.param)
				}
			}
		}()
	}
}

// Stop terminates the drain goroutines and waits for them.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.started = false
	close(d.stop)
	d.mu.Unlock()
	d.wg.Wait()
}
