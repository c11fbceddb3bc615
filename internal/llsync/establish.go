package llsync

import (
	"github.com/stenhardvara/zephyr/internal/ble"
	"github.com/stenhardvara/zephyr/internal/notify"
	"github.com/stenhardvara/zephyr/internal/ticker"
)

// SyncInfo is the decoded SyncInfo field of an extended advertising
// reception: where and how the periodic train transmits.
type SyncInfo struct {
	// Offs is the 13 bit offset from the reception to the first periodic
	// event, in units of 30 us, or 300 us when OffsUnits300 is set.
	// OffsAdjust adds a fixed 2.4576 s when the offset was relayed.
	Offs         uint16
	OffsUnits300 bool
	OffsAdjust   bool

	// Interval is in 1.25 ms units.
	Interval uint16

	// SCAChm packs the 37 channel map and, in the top three bits of the
	// last byte, the advertiser's sleep clock accuracy.
	SCAChm [ble.ChannelMapSize]byte

	AA           [4]byte
	CRCInit      [3]byte
	EventCounter uint16
}

// RxAnchor is the timing of the reception that carried the sync info.
type RxAnchor struct {
	// TicksAnchor is the scheduler tick of the reception's anchor point.
	TicksAnchor uint32

	// RadioEndUs is the end of the PDU on air, microseconds from the
	// anchor point.
	RadioEndUs uint32

	// PDULen and PHYFlags describe the received PDU, to back out its
	// airtime from RadioEndUs.
	PDULen   uint8
	PHYFlags uint8
}

// Setup establishes synchronization from a matching reception: it derives
// the radio event state from the sync info, queues the establishment
// notification and programs the periodic scheduler to the advertiser's
// train. It runs in the radio event domain and never blocks.
//
// A reception whose channel map enables fewer than two channels is
// ignored and the attempt keeps scanning. A binding already torn down by
// CancelCreate makes Setup a no-op; the reload claim below resolves the
// exact crossing.
func (c *Controller) Setup(scan *ScanSet, phy ble.PHY, anchor RxAnchor, si *SyncInfo) {
	sync := scan.sync.Load()
	if sync == nil {
		return
	}
	nodeEstab, linkEstab := scan.nodeEstab, scan.linkEstab

	var chm ble.ChannelMap
	chm.Map = si.SCAChm
	ble.MaskSCA(&chm.Map)
	chm.Recount()
	if chm.Count < 2 {
		return
	}

	sca := ble.SCAFromChm(si.SCAChm)

	intervalUs := uint32(si.Interval) * ble.ConnIntervalUnitUs
	reload := uint32((uint64(sync.timeout)*10_000 + uint64(intervalUs) - 1) /
		uint64(intervalUs))

	// Claim the context. Publishing the non-zero reload is what a racing
	// CancelCreate observes; losing the claim means the cancel won and
	// the context is gone.
	if !sync.timeoutReload.CompareAndSwap(0, reload) {
		return
	}

	lll := &sync.lll
	lll.AccessAddr = si.AA
	lll.CRCInit = si.CRCInit
	lll.EventCounter = si.EventCounter
	lll.PHY = phy
	lll.SCA = sca
	lll.DataChanID = ble.ChannelID(si.AA)
	lll.chm[0] = chm
	lll.chmFirst = 0
	lll.chmLast = 0

	drift := uint64(c.localPPM+ble.ClockPPM(sca)) * uint64(intervalUs)
	lll.WindowWideningPeriodicUs = uint32((drift + 999_999) / 1_000_000)
	lll.WindowWideningMaxUs = intervalUs/2 - ble.EventIFSUs
	lll.WindowWideningPrepareUs = 0
	lll.WindowWideningEventUs = 0
	if si.OffsUnits300 {
		lll.WindowSizeEventUs = ble.OffsUnit300Us
	} else {
		lll.WindowSizeEventUs = ble.OffsUnit30Us
	}

	readyDelayUs := ble.RxReadyDelayUs(phy)

	// First expiry: from the anchor reception to the first periodic
	// event, minus the airtime already elapsed and the rx lead time.
	offsetUs := anchor.RadioEndUs
	offsetUs += uint32(si.Offs) * lll.WindowSizeEventUs
	if si.OffsAdjust {
		offsetUs += ble.OffsAdjustUs
	}
	offsetUs -= ble.PduUs(anchor.PDULen, phy, anchor.PHYFlags)
	offsetUs -= ble.TickerResMarginUs
	offsetUs -= ble.EventJitterUs
	offsetUs -= readyDelayUs

	sync.ticksSlot = ble.TicksFromUs(ble.EventOverheadStartUs + readyDelayUs +
		ble.PduMaxUs(ble.PduExtPayloadSizeMax, phy) + ble.EventOverheadEndUs)
	sync.ticksActiveToStart = 0
	sync.ticksPrepareToStart = ble.TicksFromUs(ble.EventOverheadXtalUs)
	sync.ticksPreemptToStart = ble.TicksFromUs(ble.EventOverheadPreemptMinUs)

	handle, ok := c.pool.HandleOf(sync)
	if !ok {
		return
	}

	nodeEstab.Kind = notify.KindSync
	nodeEstab.Handle = handle
	nodeEstab.Link = linkEstab
	nodeEstab.Status = notify.StatusSuccess
	nodeEstab.Interval = si.Interval
	nodeEstab.PHY = phy
	nodeEstab.SCA = sca
	c.rxQ.Put(nodeEstab)
	c.rxQ.Sched()

	for _, s := range c.scans {
		if s != nil {
			s.clear()
		}
	}

	slotOffset := max(sync.ticksActiveToStart, sync.ticksPrepareToStart) +
		ble.TicksFromUs(ble.EventOverheadStartUs)

	// The programmed period is shortened by the per-interval widening so
	// the listen window opens early enough at worst case drift.
	periodUs := intervalUs - lll.WindowWideningPeriodicUs

	ret := c.sched.Start(ticker.UserULLHigh, c.tickerID(handle),
		anchor.TicksAnchor-slotOffset,
		ble.TicksFromUs(offsetUs),
		ble.TicksFromUs(periodUs),
		ble.RemainderFromUs(periodUs),
		0,
		sync.ticksSlot,
		c.tickerExpiry, handle,
		c.tickerStartOp, handle)
	faultCheck(ret)

	c.log.Info().
		Uint16("handle", handle).
		Str("phy", phy.String()).
		Uint16("interval", si.Interval).
		Uint8("sca", sca).
		Uint32("widening_us", lll.WindowWideningPeriodicUs).
		Msg("sync established")
}

func (c *Controller) tickerStartOp(status ticker.Status, _ any) {
	faultCheck(status)
}
