package llsync

import (
	"sync/atomic"

	"github.com/stenhardvara/zephyr/internal/ble"
	"github.com/stenhardvara/zephyr/internal/notify"
)

// Context is one synchronization context: the engine's representation of
// a locked-on periodic advertising train. Contexts live in the engine's
// fixed pool and are identified across domains by their pool handle.
type Context struct {
	// Configured policy, in event units.
	skip    uint16
	timeout uint16

	// timeoutReload doubles as the establishment flag: zero means not
	// yet established. It is the value CancelCreate reads after
	// clearing the scanner bindings to resolve the cancel/establish
	// race, so it is published with release ordering by Setup.
	timeoutReload atomic.Uint32

	// timeoutExpire is the running supervision countdown, zero while
	// the link is synchronized.
	timeoutExpire uint32

	lll LinkLayer

	// Pre-allocated terminal notification, reused for both the lost
	// and the cancelled outcome. Its queue link is released exactly
	// once, by whichever path consumes it.
	nodeLost *notify.Node
	linkLost *notify.Link

	// Scheduling geometry, in ticks.
	ticksActiveToStart  uint32
	ticksPrepareToStart uint32
	ticksPreemptToStart uint32
	ticksSlot           uint32
}

// Established reports whether synchronization completed on this context.
func (s *Context) Established() bool {
	return s.timeoutReload.Load() != 0
}

// LinkLayer returns the radio-event-domain state of the context.
func (s *Context) LinkLayer() *LinkLayer {
	return &s.lll
}

// LinkLayer is the part of a synchronization context owned by the radio
// event domain: everything the per-event prepare and reception need.
type LinkLayer struct {
	AccessAddr   [4]byte
	CRCInit      [3]byte
	EventCounter uint16
	PHY          ble.PHY
	SCA          uint8
	DataChanID   uint16

	// Double-buffered channel map. An update is pending iff
	// chmLast != chmFirst; at most one update pends at a time.
	chm        [2]ble.ChannelMap
	chmFirst   uint8
	chmLast    uint8
	chmInstant uint16

	WindowWideningPeriodicUs uint32
	WindowWideningMaxUs      uint32
	WindowWideningPrepareUs  uint32
	WindowWideningEventUs    uint32
	WindowSizeEventUs        uint32

	skipEvent   uint16
	skipPrepare uint16

	isRxEnabled bool
}

// SkipEvent returns the current adaptive skip count.
func (l *LinkLayer) SkipEvent() uint16 {
	return l.skipEvent
}

// RxEnabled reports whether reporting was requested at creation.
func (l *LinkLayer) RxEnabled() bool {
	return l.isRxEnabled
}

// ChannelMapPending reports whether a staged map awaits its instant.
func (l *LinkLayer) ChannelMapPending() bool {
	return l.chmLast != l.chmFirst
}

// ChannelMapInstant returns the event counter at which the staged map
// becomes active. Only meaningful while an update is pending.
func (l *LinkLayer) ChannelMapInstant() uint16 {
	return l.chmInstant
}

// ActiveChannelMap returns the channel map in force for the given event
// counter, applying a staged update once the instant is reached. The
// comparison is a half-range one so instants crossing the counter
// wrap-around behave.
func (l *LinkLayer) ActiveChannelMap(event uint16) *ble.ChannelMap {
	if l.chmLast != l.chmFirst && (event-l.chmInstant)&0x8000 == 0 {
		l.chmFirst = l.chmLast
	}
	return &l.chm[l.chmFirst]
}
