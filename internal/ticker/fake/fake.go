// Package fake provides a controllable in-memory scheduler implementing
// the ticker.Scheduler contract. Tests script the immediate and completion
// statuses and fire expiries by hand.
package fake

import (
	"sync"

	"github.com/stenhardvara/zephyr/internal/ticker"
)

// Call records one scheduler request.
type Call struct {
	Op   string
	User ticker.User
	ID   uint8

	TicksAnchor uint32
	TicksFirst  uint32
	TicksPeriod uint32
	Remainder   uint32
	TicksSlot   uint32

	DriftPlus  uint32
	DriftMinus uint32
	SlotPlus   uint32
	SlotMinus  uint32

	Lazy  uint16
	Force uint8
}

type entry struct {
	expiry ticker.ExpiryFunc
	param  any
	active bool
}

type pendingOp struct {
	op     ticker.OpFunc
	param  any
	status ticker.Status
}

// Scheduler is the fake. The zero values of the status knobs mean every
// request is accepted and every completion succeeds.
type Scheduler struct {
	mu      sync.Mutex
	calls   []Call
	entries map[uint8]*entry
	pending []pendingOp

	// Immediate statuses returned by the three requests.
	StartStatus  ticker.Status
	UpdateStatus ticker.Status
	StopStatus   ticker.Status

	// Completion statuses delivered through the op callbacks.
	StartOpStatus  ticker.Status
	UpdateOpStatus ticker.Status
	StopOpStatus   ticker.Status

	// UpdateOpOnFault lets the completion callback fire even when the
	// immediate status is a fault, mimicking a job that was enqueued
	// right before the instance stopped.
	UpdateOpOnFault bool

	// AutoComplete fires completion callbacks inline; when false they
	// queue until CompleteNext.
	AutoComplete bool
}

var _ ticker.Scheduler = (*Scheduler)(nil)

// New returns a fake that accepts and auto-completes everything.
func New() *Scheduler {
	return &Scheduler{
		entries:      make(map[uint8]*entry),
		AutoComplete: true,
	}
}

func (s *Scheduler) Start(user ticker.User, id uint8,
	ticksAnchor, ticksFirst, ticksPeriod, remainder uint32,
	lazy uint16, ticksSlot uint32,
	expiry ticker.ExpiryFunc, param any,
	op ticker.OpFunc, opParam any) ticker.Status {

	s.mu.Lock()
	s.calls = append(s.calls, Call{
		Op: "start", User: user, ID: id,
		TicksAnchor: ticksAnchor, TicksFirst: ticksFirst,
		TicksPeriod: ticksPeriod, Remainder: remainder,
		TicksSlot: ticksSlot, Lazy: lazy,
	})
	st := s.StartStatus
	if st.OK() {
		s.entries[id] = &entry{expiry: expiry, param: param, active: true}
	}
	s.completeLocked(st.OK(), op, opParam, s.StartOpStatus)
	return st
}

func (s *Scheduler) Update(user ticker.User, id uint8,
	ticksDriftPlus, ticksDriftMinus uint32,
	ticksSlotPlus, ticksSlotMinus uint32,
	lazy uint16, force uint8,
	op ticker.OpFunc, opParam any) ticker.Status {

	s.mu.Lock()
	s.calls = append(s.calls, Call{
		Op: "update", User: user, ID: id,
		DriftPlus: ticksDriftPlus, DriftMinus: ticksDriftMinus,
		SlotPlus: ticksSlotPlus, SlotMinus: ticksSlotMinus,
		Lazy: lazy, Force: force,
	})
	st := s.UpdateStatus
	if e := s.entries[id]; (e == nil || !e.active) && st == ticker.StatusAccepted {
		st = ticker.StatusFault
	}
	s.completeLocked(st.OK() || s.UpdateOpOnFault, op, opParam, s.UpdateOpStatus)
	return st
}

func (s *Scheduler) Stop(user ticker.User, id uint8,
	op ticker.OpFunc, opParam any) ticker.Status {

	s.mu.Lock()
	s.calls = append(s.calls, Call{Op: "stop", User: user, ID: id})
	st := s.StopStatus
	e := s.entries[id]
	if e == nil || !e.active {
		s.mu.Unlock()
		return ticker.StatusFault
	}
	if st.OK() {
		e.active = false
	}
	s.completeLocked(st.OK(), op, opParam, s.StopOpStatus)
	return st
}

// completeLocked releases the mutex; callbacks never run under it.
func (s *Scheduler) completeLocked(fire bool, op ticker.OpFunc, opParam any, status ticker.Status) {
	if !fire || op == nil {
		s.mu.Unlock()
		return
	}
	if !s.AutoComplete {
		s.pending = append(s.pending, pendingOp{op: op, param: opParam, status: status})
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	op(status, opParam)
}

// FireExpiry invokes the expiry callback of a running instance.
func (s *Scheduler) FireExpiry(id uint8, ticksAtExpire, ticksDrift, remainder uint32, lazy uint16, force uint8) bool {
	s.mu.Lock()
	e := s.entries[id]
	s.mu.Unlock()
	if e == nil || !e.active || e.expiry == nil {
		return false
	}
	e.expiry(ticksAtExpire, ticksDrift, remainder, lazy, force, e.param)
	return true
}

// CompleteNext fires the oldest queued completion callback.
func (s *Scheduler) CompleteNext() bool {
	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return false
	}
	p := s.pending[0]
	s.pending = s.pending[1:]
	s.mu.Unlock()
	p.op(p.status, p.param)
	return true
}

// PendingOps returns the number of queued completions.
func (s *Scheduler) PendingOps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Active reports whether the instance is currently programmed.
func (s *Scheduler) Active(id uint8) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[id]
	return e != nil && e.active
}

// Calls returns the recorded requests of one kind, oldest first.
func (s *Scheduler) Calls(op string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// LastCall returns the most recent request of one kind.
func (s *Scheduler) LastCall(op string) (Call, bool) {
	calls := s.Calls(op)
	if len(calls) == 0 {
		return Call{}, false
	}
	return calls[len(calls)-1], true
}
