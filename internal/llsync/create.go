package llsync

import (
	"time"

	"github.com/stenhardvara/zephyr/internal/ble"
	"github.com/stenhardvara/zephyr/internal/notify"
)

// Host command parameter limits.
const (
	sidMax     = 0x0F
	skipMax    = 0x01F3
	timeoutMin = 0x000A
	timeoutMax = 0x4000
)

// reloadCancelled is the supervision reload value CancelCreate claims the
// context with. Any non-zero value loses the race for Setup; the slot is
// released immediately after, so the value is never observed again.
const reloadCancelled = ^uint32(0)

// CreateOptions are the parameters of a synchronization request. Skip is
// in periodic advertising events, Timeout in 10 ms units.
type CreateOptions struct {
	SID         uint8
	AdvAddrType uint8
	AdvAddr     [ble.AddrSize]byte

	Skip    uint16
	Timeout uint16

	// FilterPolicy delegates target matching to the periodic advertiser
	// filter list; the identity fields above are then ignored.
	FilterPolicy bool

	// ReportingDisabled creates the sync with report generation off.
	ReportingDisabled bool
}

// Create reserves a synchronization context, pre-allocates its terminal
// notification resources and publishes the target to the scanner bindings.
// The returned handle identifies the context until termination or loss.
func (c *Controller) Create(opts CreateOptions) (uint16, error) {
	start := time.Now()
	handle, err := c.create(opts)
	auditHandle := handle
	if err != nil {
		auditHandle = notify.HandleNone
	}
	c.auditLog("SYNC_CREATE", auditHandle, err, start)
	return handle, err
}

func (c *Controller) create(opts CreateOptions) (uint16, error) {
	if opts.SID > sidMax || opts.Skip > skipMax ||
		opts.Timeout < timeoutMin || opts.Timeout > timeoutMax {
		return 0, ErrInvalidParam
	}

	scan := c.scans[scanHandle1M]
	if scan.Pending() {
		return 0, ErrAlreadyInProgress
	}

	// The terminal notification resources are reserved up front so the
	// lost and cancelled paths can never fail on allocation.
	linkEstab := c.rx.AllocLink()
	if linkEstab == nil {
		return 0, ErrResourceExhausted
	}
	linkLost := c.rx.AllocLink()
	if linkLost == nil {
		_ = c.rx.ReleaseLink(linkEstab)
		return 0, ErrResourceExhausted
	}
	nodeEstab := c.rx.AllocNode()
	if nodeEstab == nil {
		_ = c.rx.ReleaseLink(linkLost)
		_ = c.rx.ReleaseLink(linkEstab)
		return 0, ErrResourceExhausted
	}
	nodeLost := c.rx.AllocNode()
	if nodeLost == nil {
		_ = c.rx.ReleaseNode(nodeEstab)
		_ = c.rx.ReleaseLink(linkLost)
		_ = c.rx.ReleaseLink(linkEstab)
		return 0, ErrResourceExhausted
	}
	sync, handle, ok := c.pool.Acquire()
	if !ok {
		_ = c.rx.ReleaseNode(nodeLost)
		_ = c.rx.ReleaseNode(nodeEstab)
		_ = c.rx.ReleaseLink(linkLost)
		_ = c.rx.ReleaseLink(linkEstab)
		return 0, ErrResourceExhausted
	}

	// Slots are not zeroed on release; initialize everything.
	sync.skip = opts.Skip
	sync.timeout = opts.Timeout
	sync.timeoutReload.Store(0)
	sync.timeoutExpire = 0
	sync.lll = LinkLayer{isRxEnabled: !opts.ReportingDisabled}
	sync.ticksActiveToStart = 0
	sync.ticksPrepareToStart = 0
	sync.ticksPreemptToStart = 0
	sync.ticksSlot = 0

	nodeLost.Link = linkLost
	sync.nodeLost = nodeLost
	sync.linkLost = linkLost

	// Publish the target to the bindings; the sync reference goes last,
	// 1M binding last of all since it is the one CancelCreate arbitrates
	// on.
	for i := numScanHandles - 1; i >= 0; i-- {
		s := c.scans[i]
		if s == nil {
			continue
		}
		s.state = syncStateIdle
		s.filterPolicy = opts.FilterPolicy
		s.sid = opts.SID
		s.advAddrType = opts.AdvAddrType
		s.advAddr = opts.AdvAddr
		s.nodeEstab = nodeEstab
		s.linkEstab = linkEstab
		s.sync.Store(sync)
	}

	c.log.Info().
		Uint16("handle", handle).
		Uint8("sid", opts.SID).
		Uint16("skip", opts.Skip).
		Uint16("timeout", opts.Timeout).
		Bool("filter_policy", opts.FilterPolicy).
		Msg("sync create pending")

	return handle, nil
}

// CancelCreate aborts a pending synchronization attempt. A creation that
// races a concurrent establishment loses to it: once Setup has claimed
// the context the cancel reports ErrAlreadyInProgress and the sync stands.
// On success the cancelled notification node is queued and also returned.
func (c *Controller) CancelCreate() (*notify.Node, error) {
	start := time.Now()
	node, err := c.cancelCreate()
	c.auditLog("SYNC_CREATE_CANCEL", notify.HandleNone, err, start)
	return node, err
}

func (c *Controller) cancelCreate() (*notify.Node, error) {
	scan := c.scans[scanHandle1M]
	sync := scan.sync.Swap(nil)
	if cs := c.scans[scanHandlePhyCoded]; cs != nil {
		cs.sync.Store(nil)
	}
	if sync == nil {
		return nil, ErrNotFound
	}

	// Arbitrate against a concurrent establishment: whoever claims the
	// supervision reload first wins. Losing means Setup completed and
	// the sync is live.
	if !sync.timeoutReload.CompareAndSwap(0, reloadCancelled) {
		return nil, ErrAlreadyInProgress
	}

	nodeEstab, linkEstab := scan.nodeEstab, scan.linkEstab
	_ = c.rx.ReleaseNode(nodeEstab)
	_ = c.rx.ReleaseLink(linkEstab)

	node := sync.nodeLost
	node.Kind = notify.KindSync
	node.Handle = notify.HandleNone
	node.Link = sync.linkLost
	node.Status = notify.StatusCancelledByHost
	c.rxQ.Put(node)
	c.rxQ.Sched()

	for _, s := range c.scans {
		if s != nil {
			s.clear()
		}
	}

	if handle, ok := c.pool.HandleOf(sync); ok {
		_ = c.pool.Release(handle)
	}

	c.log.Info().Msg("sync create cancelled")

	return node, nil
}
