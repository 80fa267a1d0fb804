package session

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestGate_AcquireRelease(t *testing.T) {
	var g Gate

	if g.Active() || g.Refs() != 0 {
		t.Fatal("zero gate should be idle")
	}
	if !g.TryAcquire() {
		t.Fatal("first acquire should succeed")
	}
	if !g.Active() || g.Refs() != 1 {
		t.Errorf("after acquire: active=%v refs=%d", g.Active(), g.Refs())
	}
	if g.TryAcquire() {
		t.Fatal("second acquire should fail while active")
	}
	if g.Refs() != 1 {
		t.Errorf("failed acquire changed refs to %d", g.Refs())
	}

	g.Release()
	if g.Active() || g.Refs() != 0 {
		t.Errorf("after release: active=%v refs=%d", g.Active(), g.Refs())
	}
	if !g.TryAcquire() {
		t.Fatal("acquire after release should succeed")
	}
}

func TestGate_ReleaseIdempotent(t *testing.T) {
	var g Gate

	// Releasing an idle gate must not drive refs negative.
	g.Release()
	g.Release()
	if g.Refs() != 0 {
		t.Errorf("refs = %d, want 0", g.Refs())
	}

	g.TryAcquire()
	g.Release()
	g.Release()
	if g.Active() || g.Refs() != 0 {
		t.Errorf("double release: active=%v refs=%d", g.Active(), g.Refs())
	}
}

func TestGate_ConcurrentAcquire(t *testing.T) {
	var g Gate
	const callers = 64

	var (
		wg    sync.WaitGroup
		wins  atomic.Int32
		start = make(chan struct{})
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if g.TryAcquire() {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("%d callers acquired the gate, want exactly 1", wins.Load())
	}
	if g.Refs() != 1 {
		t.Errorf("refs = %d, want 1", g.Refs())
	}
}
