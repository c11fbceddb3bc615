package llsync

import (
	"testing"

	"github.com/stenhardvara/zephyr/internal/ble"
	"github.com/stenhardvara/zephyr/internal/config"
	"github.com/stenhardvara/zephyr/internal/deferred"
	"github.com/stenhardvara/zephyr/internal/notify"
	"github.com/stenhardvara/zephyr/internal/ticker/fake"
)

type testEngine struct {
	ctrl  *Controller
	sched *fake.Scheduler
	df    *deferred.Dispatcher
	rx    *notify.Pool
	rxQ   *notify.Queue
}

func newTestEngine() *testEngine {
	cfg := config.Default()
	e := &testEngine{
		sched: fake.New(),
		df:    deferred.New(cfg.Deferred.QueueDepth),
		rx:    notify.NewPool(cfg.Sync.RxNodes, cfg.Sync.RxLinks),
		rxQ:   notify.NewQueue(nil),
	}
	e.ctrl = New(cfg, e.sched, e.df, e.rx, e.rxQ)
	return e
}

func defaultCreateOptions() CreateOptions {
	return CreateOptions{
		SID:         2,
		AdvAddrType: 0,
		AdvAddr:     [ble.AddrSize]byte{0xC0, 0x11, 0x22, 0x33, 0x44, 0x55},
		Skip:        0,
		Timeout:     300,
	}
}

// fullChannelMap enables all 37 channels with SCA class 0 in the top bits.
func fullChannelMap() [ble.ChannelMapSize]byte {
	return [ble.ChannelMapSize]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x1F}
}

func testSyncInfo() *SyncInfo {
	return &SyncInfo{
		Offs:         100,
		Interval:     800,
		SCAChm:       fullChannelMap(),
		AA:           [4]byte{0x29, 0x17, 0x66, 0x8A},
		CRCInit:      [3]byte{0x55, 0xAA, 0x11},
		EventCounter: 1000,
	}
}

func testAnchor() RxAnchor {
	return RxAnchor{
		TicksAnchor: 10000,
		RadioEndUs:  50000,
		PDULen:      30,
		PHYFlags:    ble.PHYFlagsS8,
	}
}

func (e *testEngine) create(t *testing.T, opts CreateOptions) uint16 {
	t.Helper()
	handle, err := e.ctrl.Create(opts)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return handle
}

// establish drives a creation through setup and consumes the
// establishment notification like a host would.
func (e *testEngine) establish(t *testing.T, opts CreateOptions) uint16 {
	t.Helper()
	handle := e.create(t, opts)
	e.ctrl.Setup(e.ctrl.Scan1M(), ble.PHY1M, testAnchor(), testSyncInfo())
	sync := e.ctrl.Get(handle)
	if sync == nil || !sync.Established() {
		t.Fatalf("handle %d not established after setup", handle)
	}
	e.drainQueue()
	return handle
}

func (e *testEngine) drainQueue() {
	for _, n := range e.rxQ.Drain() {
		if n.Link != nil {
			_ = e.rx.ReleaseLink(n.Link)
		}
		_ = e.rx.ReleaseNode(n)
	}
}
