package session

import "testing"

// BenchmarkGate_Cycle measures one acquire/release round trip.
func BenchmarkGate_Cycle(b *testing.B) {
	var g Gate
	for i := 0; i < b.N; i++ {
		g.TryAcquire()
		g.Release()
	}
}

// BenchmarkGate_Contended measures failed acquires against a held gate.
func BenchmarkGate_Contended(b *testing.B) {
	var g Gate
	g.TryAcquire()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			g.TryAcquire()
		}
	})
}
