package core

import (
	"io"
	"testing"

	"mull/internal/device"
	"mull/internal/metrics"
	"mull/util"
)

func quietLogger() *util.Logger {
	l := util.NewLogger(0)
	l.SetOutput(io.Discard)
	return l
}

func newEndpoint(t *testing.T, capacity uint64) (*device.Endpoint, *metrics.Collector) {
	t.Helper()
	stats := metrics.New()
	ep, err := device.New(device.Options{Capacity: capacity}, quietLogger(), stats)
	if err != nil {
		t.Fatalf("device.New: %v", err)
	}
	t.Cleanup(func() { ep.Shutdown() }) //nolint:errcheck
	return ep, stats
}

// gatedReader blocks its first Read until release is closed, then
// reports EOF.
type gatedReader struct{ release <-chan struct{} }

func (g gatedReader) Read([]byte) (int, error) {
	<-g.release
	return 0, io.EOF
}
