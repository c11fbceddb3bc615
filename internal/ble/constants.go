package ble

// Protocol and event-overhead timing, all in microseconds unless noted.
const (
	// ConnIntervalUnitUs is the periodic advertising interval unit.
	ConnIntervalUnitUs = 1250

	// EventIFSUs is the inter frame space between PDUs of an event.
	EventIFSUs = 150

	// Sync info offset units and the adjustment applied when the offset
	// was carried by an LL_PERIODIC_SYNC_IND.
	OffsUnit30Us  = 30
	OffsUnit300Us = 300
	OffsAdjustUs  = 8192 * OffsUnit300Us

	// EventJitterUs absorbs scheduling jitter around the anchor point.
	EventJitterUs = 16

	// TickerResMarginUs covers the scheduler's tick resolution rounding.
	TickerResMarginUs = 2

	// Fixed per-event overheads of the event scheduler.
	EventOverheadXtalUs       = 1500
	EventOverheadPreemptMinUs = 0
	EventOverheadStartUs      = 50
	EventOverheadEndUs        = 40

	// PduExtPayloadSizeMax is the largest extended advertising payload.
	PduExtPayloadSizeMax = 255

	// AddrSize is the size of a device address.
	AddrSize = 6
)
