package ticker

// Status is the tri-state outcome of a scheduler request. An immediate
// return of StatusBusy means a concurrent operation (typically a disable)
// is in flight and the request will still be resolved through the
// completion callback; callers must treat it as acceptance, not failure.
type Status uint8

const (
	StatusAccepted Status = iota
	StatusBusy
	StatusFault
)

// OK reports whether the status is accepted-or-busy.
func (s Status) OK() bool {
	return s != StatusFault
}

func (s Status) String() string {
	switch s {
	case StatusAccepted:
		return "accepted"
	case StatusBusy:
		return "busy"
	case StatusFault:
		return "fault"
	}
	return "invalid"
}

// User identifies the priority level a request is issued from. Completion
// callbacks execute on the scheduler's own, intermediate level regardless
// of the requesting user.
type User uint8

const (
	UserLLL User = iota
	UserULLHigh
	UserULLLow
	UserThread
)

// ExpiryFunc fires when a periodic instance expires. ticksDrift is the
// drift applied since the last expiry, lazy the number of periods silently
// skipped, force whether the event was demanded despite a lazy programming.
type ExpiryFunc func(ticksAtExpire, ticksDrift, remainder uint32, lazy uint16, force uint8, param any)

// OpFunc delivers the asynchronous completion of a Start, Update or Stop.
// The status is StatusAccepted on success, StatusFault on failure.
type OpFunc func(status Status, param any)

// Scheduler is the periodic event scheduler service contract. Every call
// returns an immediate tri-state status; the operation completes through
// the op callback.
type Scheduler interface {
	// Start programs a new periodic instance anchored at ticksAnchor,
	// first firing ticksFirst later, repeating every ticksPeriod (plus
	// the accumulated sub-tick remainder), reserving ticksSlot of air
	// time per event.
	Start(user User, id uint8,
		ticksAnchor, ticksFirst, ticksPeriod, remainder uint32,
		lazy uint16, ticksSlot uint32,
		expiry ExpiryFunc, param any,
		op OpFunc, opParam any) Status

	// Update applies drift compensation, slot resizing and a new lazy
	// (skip) count to a running instance. force demands the next expiry
	// fires even if it would have been skipped.
	Update(user User, id uint8,
		ticksDriftPlus, ticksDriftMinus uint32,
		ticksSlotPlus, ticksSlotMinus uint32,
		lazy uint16, force uint8,
		op OpFunc, opParam any) Status

	// Stop disables a periodic instance.
	Stop(user User, id uint8, op OpFunc, opParam any) Status
}
