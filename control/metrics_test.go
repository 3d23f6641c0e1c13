package control

import (
	"strings"
	"testing"
)

func TestMetricsRegistry_AddSetSnapshot(t *testing.T) {
	mr := NewMetricsRegistry()
	mr.Add(MetricAccepted, 1)
	mr.Add(MetricAccepted, 2)
	mr.Set(MetricActive, 5)

	if got := mr.Get(MetricAccepted); got != 3 {
		t.Fatalf("accepted = %d, want 3", got)
	}
	snap := mr.GetSnapshot()
	snap[MetricActive] = 100
	if mr.Get(MetricActive) != 5 {
		t.Fatal("snapshot aliases registry storage")
	}
	if mr.Updated().IsZero() {
		t.Fatal("Updated not recorded")
	}
	if got := mr.String(); got != "sessions.accepted=3 sessions.active=5" {
		t.Fatalf("String = %q", got)
	}
}

func TestProbes(t *testing.T) {
	p := NewProbes()
	p.Register("b", func() any { return 2 })
	p.Register("a", func() any { return "x" })
	p.Register("b", func() any { return 3 })
	if got := p.String(); got != "b=3 a=x" {
		t.Fatalf("String = %q", got)
	}
	if snap := p.Snapshot(); len(snap) != 2 || snap["a"] != "x" {
		t.Fatalf("Snapshot = %v", snap)
	}
}

func TestRegisterProcessProbes(t *testing.T) {
	p := NewProbes()
	if err := RegisterProcessProbes(p); err != nil {
		t.Fatalf("RegisterProcessProbes: %v", err)
	}
	state := p.Snapshot()
	for _, k := range []string{"process.fds", "process.rss", "runtime.goroutines"} {
		if _, ok := state[k]; !ok {
			t.Errorf("probe %s missing", k)
		}
	}
	if !strings.Contains(p.String(), "runtime.goroutines=") {
		t.Fatalf("dump %q", p.String())
	}
}
