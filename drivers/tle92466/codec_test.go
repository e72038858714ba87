package tle92466

import "testing"

func TestCurrentCodeRoundTrip(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		fs := fullScale(parallel)
		for mA := int32(0); mA <= fs; mA += 13 {
			code, err := currentCode(mA, parallel)
			if err != nil {
				t.Fatalf("currentCode(%d, %v): %v", mA, parallel, err)
			}
			back := currentFromCode(code, parallel)
			// One LSB is ≈61 µA single / ≈122 µA parallel; round trips stay
			// within one milliamp either way.
			if diff := back - mA; diff < -1 || diff > 1 {
				t.Fatalf("round trip %d mA (parallel=%v) → %d mA", mA, parallel, back)
			}
		}
	}
}

func TestCurrentCodeRange(t *testing.T) {
	cases := []struct {
		mA       int32
		parallel bool
		ok       bool
	}{
		{0, false, true},
		{2000, false, true},
		{2001, false, false},
		{4000, false, false},
		{4000, true, true},
		{4001, true, false},
		{-1, false, false},
	}
	for _, c := range cases {
		_, err := currentCode(c.mA, c.parallel)
		if c.ok && err != nil {
			t.Errorf("currentCode(%d, %v): unexpected %v", c.mA, c.parallel, err)
		}
		if !c.ok && CodeOf(err) != CodeInvalidParameter {
			t.Errorf("currentCode(%d, %v): want invalid parameter, got %v", c.mA, c.parallel, err)
		}
	}
}

func TestCurrentResolution(t *testing.T) {
	code, err := currentCode(2000, false)
	if err != nil || code != setpointMask {
		t.Fatalf("full scale must hit the top code: %v %v", code, err)
	}
}

func TestPeriodCodeRoundTrip(t *testing.T) {
	for _, ns := range []uint32{125, 1000, 12_500, 100_000, 1_000_000, 10_000_000, 32_640_000} {
		code, err := periodCode(ns)
		if err != nil {
			t.Fatalf("periodCode(%d): %v", ns, err)
		}
		if code&perMantMask == 0 {
			t.Fatalf("periodCode(%d) produced zero mantissa", ns)
		}
		back := periodFromCode(code)
		// Quantization error is bounded by half the selected divider tick.
		div := uint32(1) << (code & perExpMask >> perExpShift)
		if code&perLowRange != 0 {
			div *= 8
		}
		half := div * pwmTick_ns / 2
		lo, hi := ns-half-1, ns+half+1
		if back < lo || back > hi {
			t.Fatalf("period %d ns decoded as %d ns (div=%d)", ns, back, div)
		}
	}
}

func TestPeriodCodeRejectsOutOfRange(t *testing.T) {
	if _, err := periodCode(10); CodeOf(err) != CodeInvalidParameter {
		t.Errorf("short period: %v", err)
	}
	if _, err := periodCode(50_000_000); CodeOf(err) != CodeInvalidParameter {
		t.Errorf("long period: %v", err)
	}
}

func TestPeriodCodePrefersFineDivider(t *testing.T) {
	// 1000 ns = 8 ticks exactly: mantissa 8, exponent 0, no range bit.
	code, err := periodCode(1000)
	if err != nil {
		t.Fatal(err)
	}
	if code != 8 {
		t.Fatalf("1000 ns encoded as 0x%04X, want mantissa 8 exponent 0", code)
	}
}

func TestDitherCodes(t *testing.T) {
	step, steps, err := ditherCodes(200, 100, 0, false)
	if err != nil {
		t.Fatalf("ditherCodes: %v", err)
	}
	// 18750 / (4*100) ≈ 47 steps per quarter.
	if steps != 47 {
		t.Fatalf("steps = %d, want 47", steps)
	}
	amp, _ := currentCode(200, false)
	if want := uint16((uint32(amp) + 23) / 47); step != want {
		t.Fatalf("step = %d, want ≈%d", step, want)
	}
}

func TestDitherParallelScale(t *testing.T) {
	single, _, err := ditherCodes(300, 100, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	parallel, _, err := ditherCodes(300, 100, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	if parallel >= single {
		t.Fatalf("parallel scale halves the step code: single=%d parallel=%d", single, parallel)
	}
}

func TestDitherCodesRejects(t *testing.T) {
	if _, _, err := ditherCodes(200, 0, 0, false); CodeOf(err) != CodeInvalidParameter {
		t.Errorf("zero frequency: %v", err)
	}
	if _, _, err := ditherCodes(200, 10_000, 0, false); CodeOf(err) != CodeInvalidParameter {
		t.Errorf("too fast: %v", err)
	}
	if _, _, err := ditherCodes(200, 10, 0, false); CodeOf(err) != CodeInvalidParameter {
		t.Errorf("too slow: %v", err)
	}
	if _, _, err := ditherCodes(0, 100, 0, false); CodeOf(err) != CodeInvalidParameter {
		t.Errorf("zero amplitude: %v", err)
	}
	if _, _, err := ditherCodes(5000, 100, 0, false); CodeOf(err) != CodeInvalidParameter {
		t.Errorf("amplitude beyond full scale: %v", err)
	}
}

func TestVBATThresholdCode(t *testing.T) {
	code, err := vbatThreshCode(6000)
	if err != nil {
		t.Fatal(err)
	}
	if code != 375 { // 6000/16
		t.Fatalf("6000 mV → %d, want 375", code)
	}
	if _, err := vbatThreshCode(-5); CodeOf(err) != CodeInvalidParameter {
		t.Errorf("negative threshold: %v", err)
	}
}
