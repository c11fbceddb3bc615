package llsync

import (
	"github.com/stenhardvara/zephyr/internal/deferred"
	"github.com/stenhardvara/zephyr/internal/notify"
	"github.com/stenhardvara/zephyr/internal/ticker"
)

// EventDone is the radio event domain's report of one finished periodic
// event: whether anything was received, whether its CRC held, and the
// anchor drift measured against the scheduled expiry.
type EventDone struct {
	Handle uint16

	// TrxCount is the number of PDUs received in the event; non-zero
	// means the anchor point was re-acquired.
	TrxCount uint8

	// CRCValid reports that at least one reception passed CRC.
	CRCValid bool

	TicksDriftPlus  uint32
	TicksDriftMinus uint32
}

// Done closes out one periodic event: it advances the supervision
// countdown, adapts the skip policy and feeds measured drift back into
// the scheduler. Runs in the radio event domain.
//
// The countdown runs in elapsed events, so skipped events spend it at
// the same rate as attended ones. A valid CRC arms it afresh; once it
// cannot cover the next stretch of elapsed events the sync is lost.
func (c *Controller) Done(d *EventDone) {
	sync := c.enabledGet(d.Handle)
	if sync == nil {
		return
	}
	lll := &sync.lll

	skipEvent := lll.skipEvent
	elapsed := uint32(skipEvent) + 1

	if d.TrxCount > 0 {
		// Anchor re-acquired: the accumulated widening is spent and
		// skipping may resume at the configured count.
		delta := lll.WindowWideningPeriodicUs * elapsed
		if lll.WindowWideningPrepareUs > delta {
			lll.WindowWideningPrepareUs -= delta
		} else {
			lll.WindowWideningPrepareUs = 0
		}
		lll.WindowWideningEventUs = 0
		lll.skipEvent = sync.skip
	}

	if d.CRCValid {
		sync.timeoutExpire = 0
	} else if sync.timeoutExpire == 0 {
		sync.timeoutExpire = sync.timeoutReload.Load()
	}

	var force uint8
	if sync.timeoutExpire != 0 {
		if sync.timeoutExpire > elapsed {
			sync.timeoutExpire -= elapsed
			// Losing receptions while a timeout runs: stop skipping
			// and demand the next event so the anchor can be found
			// again.
			lll.skipEvent = 0
			if skipEvent != 0 {
				force = 1
			}
		} else {
			c.timeoutCleanup(d.Handle, sync)
			return
		}
	}

	var lazy uint16
	if force != 0 || skipEvent != lll.skipEvent {
		lazy = lll.skipEvent + 1
	}

	if d.TicksDriftPlus != 0 || d.TicksDriftMinus != 0 || lazy != 0 || force != 0 {
		ret := c.sched.Update(ticker.UserULLHigh, c.tickerID(d.Handle),
			d.TicksDriftPlus, d.TicksDriftMinus, 0, 0,
			lazy, force, c.tickerUpdateOp, d.Handle)
		if !ret.OK() && !c.marked(d.Handle) {
			panic(ErrSchedulerFault)
		}
	}
}

// tickerUpdateOp tolerates a fault only while the instance is being
// stopped by a concurrent Terminate; the update then lost a legitimate
// race.
func (c *Controller) tickerUpdateOp(status ticker.Status, param any) {
	if status == ticker.StatusFault && !c.marked(param.(uint16)) {
		panic(ErrSchedulerFault)
	}
}

// timeoutCleanup starts the loss teardown: the context is unpublished
// first so a racing Terminate resolves to ErrNotFound, then the periodic
// instance is stopped and the loss notification follows from its
// completion.
func (c *Controller) timeoutCleanup(handle uint16, sync *Context) {
	sync.timeoutReload.Store(0)

	ret := c.sched.Stop(ticker.UserULLHigh, c.tickerID(handle),
		c.tickerStopOp, handle)
	if !ret.OK() {
		if !c.marked(handle) {
			panic(ErrSchedulerFault)
		}
		// A concurrent Terminate already stopped the instance and owns
		// the teardown.
		return
	}

	c.log.Warn().Uint16("handle", handle).Msg("sync supervision timeout")
}

func (c *Controller) tickerStopOp(status ticker.Status, param any) {
	faultCheck(status)
	if err := c.df.Enqueue(deferred.DomainULLLow, deferred.DomainULLHigh,
		c.syncLost, param); err != nil {
		panic(err)
	}
}

// syncLost delivers the loss notification from the pre-allocated node and
// retires the context.
func (c *Controller) syncLost(param any) {
	handle := param.(uint16)
	sync := c.pool.Get(handle)
	if sync == nil {
		return
	}

	node := sync.nodeLost
	node.Kind = notify.KindSyncLost
	node.Handle = handle
	node.Link = sync.linkLost
	node.Status = notify.StatusSuccess
	c.rxQ.Put(node)
	c.rxQ.Sched()

	_ = c.pool.Release(handle)

	c.log.Warn().Uint16("handle", handle).Msg("sync lost")
}
