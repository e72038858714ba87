package ramp

import (
	"testing"
	"time"
)

func TestStartLinearReachesTarget(t *testing.T) {
	var levels []uint16
	set := func(l uint16) { levels = append(levels, l) }
	tick := func(time.Duration) bool { return true }

	StartLinear(0, 1000, 0xFFFF, 100, 10, tick, set)

	if len(levels) == 0 || levels[len(levels)-1] != 1000 {
		t.Fatalf("ramp did not land on target: %v", levels)
	}
	prev := uint16(0)
	for _, l := range levels {
		if l < prev {
			t.Fatalf("ramp not monotonic: %v", levels)
		}
		prev = l
	}
}

func TestStartLinearRampsDown(t *testing.T) {
	last := uint16(0)
	StartLinear(900, 100, 0xFFFF, 50, 5,
		func(time.Duration) bool { return true },
		func(l uint16) { last = l })
	if last != 100 {
		t.Fatalf("downward ramp landed on %d", last)
	}
}

func TestStartLinearSnapsWithoutSteps(t *testing.T) {
	calls := 0
	var got uint16
	StartLinear(0, 500, 0xFFFF, 0, 0, nil, func(l uint16) { calls++; got = l })
	if calls != 1 || got != 500 {
		t.Fatalf("snap: %d calls, level %d", calls, got)
	}
}

func TestStartLinearCancellation(t *testing.T) {
	var levels []uint16
	StartLinear(0, 1000, 0xFFFF, 100, 10,
		func(time.Duration) bool { return len(levels) < 3 },
		func(l uint16) { levels = append(levels, l) })
	if len(levels) == 0 || levels[len(levels)-1] == 1000 {
		t.Fatalf("cancelled ramp still completed: %v", levels)
	}
}

func TestStartLinearClampsToTop(t *testing.T) {
	var got uint16
	StartLinear(0, 900, 500, 0, 0, nil, func(l uint16) { got = l })
	if got != 500 {
		t.Fatalf("target beyond top not clamped: %d", got)
	}
}
