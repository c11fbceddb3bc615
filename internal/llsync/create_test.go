package llsync

import (
	"errors"
	"testing"

	"github.com/stenhardvara/zephyr/internal/notify"
)

func TestCreateRejectsInvalidParams(t *testing.T) {
	cases := []struct {
		name string
		mod  func(*CreateOptions)
	}{
		{"skip too large", func(o *CreateOptions) { o.Skip = skipMax + 1 }},
		{"timeout too small", func(o *CreateOptions) { o.Timeout = timeoutMin - 1 }},
		{"timeout too large", func(o *CreateOptions) { o.Timeout = timeoutMax + 1 }},
		{"sid too large", func(o *CreateOptions) { o.SID = sidMax + 1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEngine()
			opts := defaultCreateOptions()
			tc.mod(&opts)
			if _, err := e.ctrl.Create(opts); !errors.Is(err, ErrInvalidParam) {
				t.Fatalf("got %v, want ErrInvalidParam", err)
			}
		})
	}
}

func TestCreatePublishesTarget(t *testing.T) {
	e := newTestEngine()
	opts := defaultCreateOptions()
	opts.FilterPolicy = false
	e.create(t, opts)

	scan := e.ctrl.Scan1M()
	if !scan.Pending() {
		t.Fatal("1M binding not pending after create")
	}
	sid, addrType, addr := scan.Target()
	if sid != opts.SID || addrType != opts.AdvAddrType || addr != opts.AdvAddr {
		t.Errorf("bound target %d/%d/%x, want %d/%d/%x",
			sid, addrType, addr, opts.SID, opts.AdvAddrType, opts.AdvAddr)
	}
	if coded := e.ctrl.ScanCoded(); coded == nil || !coded.Pending() {
		t.Error("coded binding not pending after create")
	}
}

func TestCreateRejectsSecondPending(t *testing.T) {
	e := newTestEngine()
	e.create(t, defaultCreateOptions())

	if _, err := e.ctrl.Create(defaultCreateOptions()); !errors.Is(err, ErrAlreadyInProgress) {
		t.Fatalf("got %v, want ErrAlreadyInProgress", err)
	}
}

func TestCreateExhaustionUnwindsAllocations(t *testing.T) {
	e := newTestEngine()
	for i := 0; i < e.ctrl.Capacity(); i++ {
		e.establish(t, defaultCreateOptions())
	}

	freeNodes := e.rx.FreeNodes()
	freeLinks := e.rx.FreeLinks()

	if _, err := e.ctrl.Create(defaultCreateOptions()); !errors.Is(err, ErrResourceExhausted) {
		t.Fatalf("got %v, want ErrResourceExhausted", err)
	}
	if e.rx.FreeNodes() != freeNodes || e.rx.FreeLinks() != freeLinks {
		t.Errorf("failed create leaked rx resources: nodes %d->%d, links %d->%d",
			freeNodes, e.rx.FreeNodes(), freeLinks, e.rx.FreeLinks())
	}
	if e.ctrl.Scan1M().Pending() {
		t.Error("failed create left the scanner binding pending")
	}
}

func TestCancelWithoutPending(t *testing.T) {
	e := newTestEngine()
	if _, err := e.ctrl.CancelCreate(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestCancelPendingCreate(t *testing.T) {
	e := newTestEngine()
	handle := e.create(t, defaultCreateOptions())

	node, err := e.ctrl.CancelCreate()
	if err != nil {
		t.Fatalf("CancelCreate: %v", err)
	}
	if node.Kind != notify.KindSync || node.Status != notify.StatusCancelledByHost {
		t.Errorf("cancel notification kind=%d status=%#x, want sync/cancelled",
			node.Kind, node.Status)
	}
	if node.Handle != notify.HandleNone {
		t.Errorf("cancel notification handle %#x, want HandleNone", node.Handle)
	}
	if e.rxQ.Len() != 1 {
		t.Errorf("queue length %d, want 1", e.rxQ.Len())
	}
	if e.ctrl.Get(handle) != nil {
		t.Error("context still acquired after cancel")
	}
	if e.ctrl.Scan1M().Pending() {
		t.Error("binding still pending after cancel")
	}

	// The estab node and link go back to the pool; the cancelled node
	// and its link are still out, travelling through the queue.
	if got := e.rx.FreeNodes(); got != 7 {
		t.Errorf("free nodes %d, want 7", got)
	}
	if got := e.rx.FreeLinks(); got != 7 {
		t.Errorf("free links %d, want 7", got)
	}
}

func TestCancelLosesRaceToEstablishment(t *testing.T) {
	e := newTestEngine()
	handle := e.create(t, defaultCreateOptions())

	// Setup claims the context by publishing a non-zero reload before a
	// racing cancel reads it.
	e.ctrl.Get(handle).timeoutReload.Store(3)

	if _, err := e.ctrl.CancelCreate(); !errors.Is(err, ErrAlreadyInProgress) {
		t.Fatalf("got %v, want ErrAlreadyInProgress", err)
	}
	if e.ctrl.Get(handle) == nil {
		t.Error("established context released by losing cancel")
	}
	if e.rxQ.Len() != 0 {
		t.Error("losing cancel queued a notification")
	}
}

func TestSetupAfterCancelIsNoop(t *testing.T) {
	e := newTestEngine()
	e.create(t, defaultCreateOptions())
	if _, err := e.ctrl.CancelCreate(); err != nil {
		t.Fatalf("CancelCreate: %v", err)
	}

	e.ctrl.Setup(e.ctrl.Scan1M(), 0x01, testAnchor(), testSyncInfo())
	if calls := e.sched.Calls("start"); len(calls) != 0 {
		t.Errorf("setup after cancel programmed the scheduler: %v", calls)
	}
	if e.rxQ.Len() != 1 {
		t.Errorf("queue length %d, want only the cancel notification", e.rxQ.Len())
	}
}

func TestResetReclaimsEverything(t *testing.T) {
	e := newTestEngine()
	e.establish(t, defaultCreateOptions())
	e.create(t, defaultCreateOptions())

	e.ctrl.Reset()

	if e.ctrl.Scan1M().Pending() {
		t.Error("binding pending after reset")
	}
	for h := 0; h < e.ctrl.Capacity(); h++ {
		if e.ctrl.Get(uint16(h)) != nil {
			t.Errorf("handle %d still acquired after reset", h)
		}
	}
	nodes := e.rxQ.Drain()
	if len(nodes) != 1 || nodes[0].Status != notify.StatusCancelledByHost {
		t.Errorf("reset queued %d notifications, want one cancelled", len(nodes))
	}
}
