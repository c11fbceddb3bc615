package pool

import (
	"errors"
	"testing"
)

type item struct {
	n int
}

func TestAcquireRelease(t *testing.T) {
	p := New[item](2)
	if p.Capacity() != 2 || p.Free() != 2 {
		t.Fatalf("capacity %d free %d, want 2/2", p.Capacity(), p.Free())
	}

	a, ha, ok := p.Acquire()
	if !ok {
		t.Fatal("first acquire failed")
	}
	b, hb, ok := p.Acquire()
	if !ok {
		t.Fatal("second acquire failed")
	}
	if ha == hb || a == b {
		t.Fatal("acquired slots not distinct")
	}
	if _, _, ok := p.Acquire(); ok {
		t.Fatal("acquire beyond capacity succeeded")
	}

	if err := p.Release(ha); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if p.Free() != 1 {
		t.Errorf("free %d after release, want 1", p.Free())
	}
}

func TestReleaseErrors(t *testing.T) {
	p := New[item](1)
	if err := p.Release(5); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("got %v, want ErrInvalidHandle", err)
	}
	if err := p.Release(0); !errors.Is(err, ErrNotAcquired) {
		t.Errorf("got %v, want ErrNotAcquired", err)
	}

	_, h, _ := p.Acquire()
	if err := p.Release(h); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := p.Release(h); !errors.Is(err, ErrNotAcquired) {
		t.Errorf("double release got %v, want ErrNotAcquired", err)
	}
}

func TestGet(t *testing.T) {
	p := New[item](2)
	ref, h, _ := p.Acquire()
	ref.n = 42

	if got := p.Get(h); got != ref || got.n != 42 {
		t.Error("Get did not return the acquired slot")
	}
	if p.Get(7) != nil {
		t.Error("Get on out of range handle returned a slot")
	}

	_ = p.Release(h)
	if p.Get(h) != nil {
		t.Error("Get on freed handle returned a slot")
	}
}

func TestHandleOf(t *testing.T) {
	p := New[item](3)
	ref, h, _ := p.Acquire()

	if got, ok := p.HandleOf(ref); !ok || got != h {
		t.Errorf("HandleOf = %d/%v, want %d/true", got, ok, h)
	}
	var foreign item
	if _, ok := p.HandleOf(&foreign); ok {
		t.Error("HandleOf accepted a foreign reference")
	}
}

func TestSlotsKeepStateAcrossReuse(t *testing.T) {
	p := New[item](1)
	ref, h, _ := p.Acquire()
	ref.n = 7
	_ = p.Release(h)

	// Slots are handed out dirty; acquirers own initialization.
	ref2, _, _ := p.Acquire()
	if ref2.n != 7 {
		t.Errorf("slot was zeroed on release, n = %d", ref2.n)
	}
}

func TestReset(t *testing.T) {
	p := New[item](2)
	p.Acquire()
	p.Acquire()

	p.Reset()
	if p.Free() != 2 {
		t.Errorf("free %d after reset, want 2", p.Free())
	}
	if _, _, ok := p.Acquire(); !ok {
		t.Error("acquire after reset failed")
	}
}
