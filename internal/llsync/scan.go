package llsync

import (
	"sync/atomic"

	"github.com/stenhardvara/zephyr/internal/ble"
	"github.com/stenhardvara/zephyr/internal/notify"
)

// Scanner binding slots, one per scanning PHY.
const (
	scanHandle1M = iota
	scanHandlePhyCoded
	numScanHandles
)

// Binding states while a synchronization attempt is pending.
const (
	syncStateIdle uint8 = iota
	syncStateAddrMatch
	syncStateCreated
)

// ScanSet is the per-PHY scanner binding the engine publishes a pending
// synchronization target to. The scanning subsystem owns the instance;
// the engine only manages the sync reference and the identity fields. The
// 1M and coded bindings of one scan operation always carry the same sync
// reference and are cleared together.
type ScanSet struct {
	state        uint8
	filterPolicy bool

	sid         uint8
	advAddrType uint8
	advAddr     [ble.AddrSize]byte

	nodeEstab *notify.Node
	linkEstab *notify.Link

	sync atomic.Pointer[Context]
}

// FilterPolicy reports whether target matching is delegated to the
// periodic advertiser filter list.
func (s *ScanSet) FilterPolicy() bool {
	return s.filterPolicy
}

// Target returns the bound advertiser identity.
func (s *ScanSet) Target() (sid uint8, addrType uint8, addr [ble.AddrSize]byte) {
	return s.sid, s.advAddrType, s.advAddr
}

// Pending reports whether the binding references a sync attempt.
func (s *ScanSet) Pending() bool {
	return s.sync.Load() != nil
}

func (s *ScanSet) clear() {
	s.state = syncStateIdle
	s.filterPolicy = false
	s.sid = 0
	s.advAddrType = 0
	s.advAddr = [ble.AddrSize]byte{}
	s.nodeEstab = nil
	s.linkEstab = nil
	s.sync.Store(nil)
}
