package llsync

import (
	"time"

	"github.com/stenhardvara/zephyr/internal/ble"
	"github.com/stenhardvara/zephyr/internal/deferred"
	"github.com/stenhardvara/zephyr/internal/ticker"
)

// tickerExpiry fires on every periodic scheduler expiry and hands the
// event's timing to the radio prepare routine through the deferred call
// dispatcher, crossing from the scheduler's level down to radio priority.
func (c *Controller) tickerExpiry(ticksAtExpire, ticksDrift, remainder uint32,
	lazy uint16, force uint8, param any) {

	p := &PrepareParam{
		TicksAtExpire: ticksAtExpire,
		Remainder:     remainder,
		Lazy:          lazy,
		Force:         force,
		Handle:        param.(uint16),
	}
	if err := c.df.Enqueue(deferred.DomainULLHigh, deferred.DomainLLL,
		c.prepareJob, p); err != nil {
		panic(err)
	}
}

func (c *Controller) prepareJob(param any) {
	p := param.(*PrepareParam)
	if c.prepare != nil {
		c.prepare(p)
	}
}

// stopSync synchronously disables a periodic instance. false means the
// instance was not running; the loss path is already tearing it down.
func (c *Controller) stopSync(handle uint16) bool {
	done := make(chan ticker.Status, 1)
	ret := c.sched.Stop(ticker.UserThread, c.tickerID(handle),
		func(status ticker.Status, _ any) { done <- status }, nil)
	if !ret.OK() {
		return false
	}
	return (<-done).OK()
}

// SlotUpdate resizes the air time reservation of an established sync by
// the given amounts, blocking until the scheduler resolves the request.
// Issued from the command domain.
func (c *Controller) SlotUpdate(handle uint16, slotPlusUs, slotMinusUs uint32) error {
	start := time.Now()
	err := c.slotUpdate(handle, slotPlusUs, slotMinusUs)
	c.auditLog("SYNC_SLOT_UPDATE", handle, err, start)
	return err
}

func (c *Controller) slotUpdate(handle uint16, slotPlusUs, slotMinusUs uint32) error {
	if c.enabledGet(handle) == nil {
		return ErrNotFound
	}

	done := make(chan ticker.Status, 1)
	ret := c.sched.Update(ticker.UserThread, c.tickerID(handle),
		0, 0,
		ble.TicksFromUs(slotPlusUs), ble.TicksFromUs(slotMinusUs),
		0, 0,
		func(status ticker.Status, _ any) { done <- status }, nil)
	if ret.OK() {
		if st := <-done; !st.OK() {
			return ErrSchedulerFault
		}
		return nil
	}

	// The request was rejected outright. The completion may still have
	// fired before the rejection was returned; it then tells an absent
	// instance apart from a scheduler with no room for the request.
	select {
	case st := <-done:
		if !st.OK() {
			return ErrNotFound
		}
		return ErrQueueFull
	default:
		return ErrQueueFull
	}
}
