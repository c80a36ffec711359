package refcount_test

import (
	"testing"

	"github.com/wavekernel/vfscore/internal/refcount"
)

func TestInitSeedsOneLiveReference(t *testing.T) {
	var c refcount.Count
	c.Init()
	if got := c.N(); got != 1 {
		t.Fatalf("N() after Init = %d, want 1", got)
	}
	if c.Dead() {
		t.Fatalf("Dead() after Init = true, want false")
	}
}

func TestIncRefDecRefBalance(t *testing.T) {
	var c refcount.Count
	c.Init()
	c.IncRef()
	if got := c.N(); got != 2 {
		t.Fatalf("N() after IncRef = %d, want 2", got)
	}

	zeroed := false
	c.DecRef(func() { zeroed = true })
	if zeroed {
		t.Fatalf("onZero ran after dropping to N()=1, want it deferred until the last reference")
	}
	if c.Dead() {
		t.Fatalf("Dead() with one reference left = true, want false")
	}

	c.DecRef(func() { zeroed = true })
	if !zeroed {
		t.Fatalf("onZero did not run on the 1->0 transition")
	}
	if !c.Dead() {
		t.Fatalf("Dead() after the last DecRef = false, want true")
	}
}

func TestDecRefPastZeroPanics(t *testing.T) {
	var c refcount.Count
	c.Init()
	c.DecRef(nil)

	defer func() {
		if recover() == nil {
			t.Fatalf("DecRef past zero did not panic")
		}
	}()
	c.DecRef(nil)
}

func TestIncRefOnDeadObjectPanics(t *testing.T) {
	var c refcount.Count
	c.Init()
	c.DecRef(nil)

	defer func() {
		if recover() == nil {
			t.Fatalf("IncRef on a dead object did not panic")
		}
	}()
	c.IncRef()
}

func TestTryIncRefFailsOnceDead(t *testing.T) {
	var c refcount.Count
	c.Init()
	c.DecRef(nil)

	if c.TryIncRef() {
		t.Fatalf("TryIncRef succeeded on a dead object")
	}
	if got := c.N(); got != 0 {
		t.Fatalf("N() after a failed TryIncRef = %d, want 0 (no partial increment)", got)
	}
}

func TestTryIncRefSucceedsWhileLive(t *testing.T) {
	var c refcount.Count
	c.Init()

	if !c.TryIncRef() {
		t.Fatalf("TryIncRef failed on a live object")
	}
	if got := c.N(); got != 2 {
		t.Fatalf("N() after a successful TryIncRef = %d, want 2", got)
	}
}
