package llsync

import (
	"errors"
	"testing"

	"github.com/stenhardvara/zephyr/internal/ticker"
)

func TestSlotUpdateUnknownHandle(t *testing.T) {
	e := newTestEngine()
	if err := e.ctrl.SlotUpdate(0, 500, 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestSlotUpdateResizesReservation(t *testing.T) {
	e := newTestEngine()
	handle := e.establish(t, defaultCreateOptions())

	if err := e.ctrl.SlotUpdate(handle, 500, 0); err != nil {
		t.Fatalf("SlotUpdate: %v", err)
	}
	call, ok := e.sched.LastCall("update")
	if !ok {
		t.Fatal("no update issued")
	}
	if call.User != ticker.UserThread {
		t.Errorf("update user %v, want thread", call.User)
	}
	// 500 us at 32768 Hz.
	if call.SlotPlus != 16 || call.SlotMinus != 0 {
		t.Errorf("slot plus/minus %d/%d, want 16/0", call.SlotPlus, call.SlotMinus)
	}
	if call.DriftPlus != 0 || call.DriftMinus != 0 || call.Lazy != 0 || call.Force != 0 {
		t.Error("slot update touched drift or skip parameters")
	}
}

func TestSlotUpdateCompletionFault(t *testing.T) {
	e := newTestEngine()
	handle := e.establish(t, defaultCreateOptions())
	e.sched.UpdateOpStatus = ticker.StatusFault

	if err := e.ctrl.SlotUpdate(handle, 0, 200); !errors.Is(err, ErrSchedulerFault) {
		t.Fatalf("got %v, want ErrSchedulerFault", err)
	}
}

func TestSlotUpdateImmediateFault(t *testing.T) {
	cases := []struct {
		name      string
		opOnFault bool
		opStatus  ticker.Status
		wantErr   error
	}{
		{"no completion", false, ticker.StatusAccepted, ErrQueueFull},
		{"completion fault", true, ticker.StatusFault, ErrNotFound},
		{"completion ok", true, ticker.StatusAccepted, ErrQueueFull},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEngine()
			handle := e.establish(t, defaultCreateOptions())
			e.sched.UpdateStatus = ticker.StatusFault
			e.sched.UpdateOpOnFault = tc.opOnFault
			e.sched.UpdateOpStatus = tc.opStatus

			if err := e.ctrl.SlotUpdate(handle, 100, 0); !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}
