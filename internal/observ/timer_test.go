package observ

import (
	"strings"
	"testing"
	"time"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	if r := tm.Report(); len(r.Phases) != 0 || r.TotalMS != 0 {
		t.Fatalf("empty timer report = %+v", r)
	}

	idx := tm.Begin("transpile")
	time.Sleep(time.Millisecond)
	tm.End(idx, "2 renders")
	tm.End(99, "ignored")

	r := tm.Report()
	if len(r.Phases) != 1 {
		t.Fatalf("got %d phases", len(r.Phases))
	}
	if r.Phases[0].Name != "transpile" || r.Phases[0].Note != "2 renders" {
		t.Errorf("unexpected phase %+v", r.Phases[0])
	}
	if r.Phases[0].DurationMS <= 0 || r.TotalMS != r.Phases[0].DurationMS {
		t.Errorf("unexpected durations %+v", r)
	}

	sum := tm.Summary()
	if !strings.Contains(sum, "transpile") || !strings.Contains(sum, "// 2 renders") || !strings.Contains(sum, "total") {
		t.Errorf("summary missing parts:\n%s", sum)
	}
}

func TestTimerDurations(t *testing.T) {
	tm := NewTimer()
	tm.End(tm.Begin("extract"), "")
	tm.End(tm.Begin("extract"), "failed")
	tm.Begin("normalize")

	d := tm.Durations()
	if len(d) != 2 {
		t.Fatalf("got %v", d)
	}
	if d["normalize"] != 0 {
		t.Errorf("unfinished phase reported %v", d["normalize"])
	}
	if r := tm.Report(); r.Phases[1].Note != "failed" {
		t.Errorf("failed phase note = %q", r.Phases[1].Note)
	}
}
