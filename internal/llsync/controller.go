package llsync

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/stenhardvara/zephyr/internal/config"
	"github.com/stenhardvara/zephyr/internal/deferred"
	"github.com/stenhardvara/zephyr/internal/notify"
	"github.com/stenhardvara/zephyr/internal/pool"
	"github.com/stenhardvara/zephyr/internal/ticker"
)

// tickerIDSyncBase offsets sync handles into the scheduler's id space.
const tickerIDSyncBase uint8 = 0x10

// noMark is the disable-mark value when no context is being stopped.
const noMark = ^uint32(0)

// AuditSink receives one record per handled host command.
type AuditSink interface {
	LogAction(action string, handle uint16, outcome string, latency time.Duration)
}

// PrepareParam carries one expiry of the periodic scheduler to the radio
// event domain's prepare routine.
type PrepareParam struct {
	TicksAtExpire uint32
	Remainder     uint32
	Lazy          uint16
	Force         uint8
	Handle        uint16
}

// Controller is the synchronization engine. One instance owns the context
// pool, the per-PHY scanner bindings and the wiring to the periodic
// scheduler, the deferred call dispatcher and the notification queue.
type Controller struct {
	pool  *pool.Pool[Context]
	sched ticker.Scheduler
	df    *deferred.Dispatcher
	rx    *notify.Pool
	rxQ   *notify.Queue

	scans    [numScanHandles]*ScanSet
	codedPHY bool
	localPPM uint32

	// Handle of the context a Terminate is currently stopping; update
	// completions against it tolerate a fault.
	disableMark atomic.Uint32

	prepare func(*PrepareParam)

	log   zerolog.Logger
	audit AuditSink
}

// New wires a controller from its collaborators. The notification pool
// must be sized per config.Validate: two nodes and two links per context.
func New(cfg *config.Config, sched ticker.Scheduler, df *deferred.Dispatcher,
	rx *notify.Pool, rxQ *notify.Queue) *Controller {

	c := &Controller{
		pool:     pool.New[Context](cfg.Sync.MaxContexts),
		sched:    sched,
		df:       df,
		rx:       rx,
		rxQ:      rxQ,
		codedPHY: cfg.Phy.CodedSupported,
		localPPM: cfg.Clock.LocalPPM,
		log:      zerolog.Nop(),
	}
	c.disableMark.Store(noMark)
	c.scans[scanHandle1M] = &ScanSet{}
	if c.codedPHY {
		c.scans[scanHandlePhyCoded] = &ScanSet{}
	}
	return c
}

// SetLogger installs the engine's structured logger.
func (c *Controller) SetLogger(log zerolog.Logger) {
	c.log = log
}

// SetAudit installs the audit sink for host commands.
func (c *Controller) SetAudit(a AuditSink) {
	c.audit = a
}

// SetPrepareHook installs the radio prepare routine invoked on every
// scheduler expiry, at radio event priority.
func (c *Controller) SetPrepareHook(fn func(*PrepareParam)) {
	c.prepare = fn
}

// Scan1M returns the 1M PHY scanner binding.
func (c *Controller) Scan1M() *ScanSet {
	return c.scans[scanHandle1M]
}

// ScanCoded returns the coded PHY scanner binding, nil when unsupported.
func (c *Controller) ScanCoded() *ScanSet {
	return c.scans[scanHandlePhyCoded]
}

// Capacity returns the context pool capacity.
func (c *Controller) Capacity() int {
	return c.pool.Capacity()
}

// Get returns the context for a handle, nil when the handle is out of
// range or free.
func (c *Controller) Get(handle uint16) *Context {
	return c.pool.Get(handle)
}

// enabledGet resolves a handle to its context only once established.
func (c *Controller) enabledGet(handle uint16) *Context {
	sync := c.pool.Get(handle)
	if sync == nil || !sync.Established() {
		return nil
	}
	return sync
}

// Reset cancels any pending creation, terminates every established
// context and reinitializes the pool. Used on power cycle.
func (c *Controller) Reset() {
	_, _ = c.CancelCreate()
	for h := 0; h < c.pool.Capacity(); h++ {
		_ = c.Terminate(uint16(h))
	}
	c.pool.Reset()
	for _, s := range c.scans {
		if s != nil {
			s.clear()
		}
	}
}

func (c *Controller) tickerID(handle uint16) uint8 {
	return tickerIDSyncBase + uint8(handle)
}

func (c *Controller) marked(handle uint16) bool {
	return c.disableMark.Load() == uint32(handle)
}

func (c *Controller) auditLog(action string, handle uint16, err error, start time.Time) {
	if c.audit == nil {
		return
	}
	outcome := "SUCCESS"
	if err != nil {
		outcome = err.Error()
	}
	c.audit.LogAction(action, handle, outcome, time.Since(start))
}

// faultCheck enforces the accept-or-busy contract on immediate scheduler
// statuses. A fault is a broken invariant, not a recoverable condition.
func faultCheck(st ticker.Status) {
	if !st.OK() {
		panic(ErrSchedulerFault)
	}
}
