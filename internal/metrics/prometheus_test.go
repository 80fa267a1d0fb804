package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheus_Count(t *testing.T) {
	c := New()
	// Without a closed session the last-session gauges are omitted.
	if n := testutil.CollectAndCount(c.Prometheus()); n != 8 {
		t.Errorf("collected %d metrics, want 8", n)
	}

	c.SessionOpened()
	c.SessionClosed(Report{Seconds: 2, Megabytes: 1, MegabytesPerSecond: 0.5})
	if n := testutil.CollectAndCount(c.Prometheus()); n != 10 {
		t.Errorf("collected %d metrics, want 10", n)
	}
}

func TestWriteTextfile(t *testing.T) {
	c := New()
	c.SessionOpened()
	c.Write(2048, 1024)
	c.Write(10, 10)
	c.SessionClosed(Report{TotalBytes: 1034, Seconds: 1, Megabytes: 1, MegabytesPerSecond: 1})
	c.Busy()

	path := filepath.Join(t.TempDir(), "mull.prom")
	if err := WriteTextfile(path, c); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(raw)
	for _, want := range []string{
		"mull_sessions_total 1",
		"mull_sessions_active 0",
		"mull_busy_rejections_total 1",
		"mull_writes_total 2",
		"mull_bytes_offered_total 2058",
		"mull_bytes_accepted_total 1034",
		"mull_last_session_megabytes_per_second 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("textfile missing %q:\n%s", want, out)
		}
	}
}

func TestWriteTextfile_BadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "mull.prom")
	if err := WriteTextfile(path, New()); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
