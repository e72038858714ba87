package tle92466

import "tle92466-go/x/mathx"

// Physical-unit ↔ register-unit conversions. Integer-only.

// Full-scale current of the 15-bit setpoint field.
const (
	FullScaleSingle_mA   int32 = 2000
	FullScaleParallel_mA int32 = 4000

	setpointFull = int64(setpointMask) // 0x7FFF, ≈61 µA/LSB single
)

func fullScale(parallel bool) int32 {
	if parallel {
		return FullScaleParallel_mA
	}
	return FullScaleSingle_mA
}

// currentCode maps milliamps onto the setpoint field. Out-of-range requests
// fail before any bus access.
func currentCode(mA int32, parallel bool) (uint16, error) {
	fs := fullScale(parallel)
	if mA < 0 || mA > fs {
		return 0, opErr(CodeInvalidParameter, "current out of range")
	}
	return uint16(mathx.RoundDivS(int64(mA)*setpointFull, int64(fs))), nil
}

// currentFromCode is the inverse mapping, within one LSB.
func currentFromCode(code uint16, parallel bool) int32 {
	fs := fullScale(parallel)
	return int32(mathx.RoundDivS(int64(code&setpointMask)*int64(fs), setpointFull))
}

// PWM period encoding: period = mantissa * 2^exponent * (lowRange ? 8 : 1)
// ticks of 125 ns. Valid range ≈ 0.125 µs … 32640 µs.
const pwmTick_ns = 125

// periodCode picks the mantissa/exponent/range combination with the smallest
// representation error (ties go to the finer divider). A period that no
// combination can represent is rejected.
func periodCode(ns uint32) (uint16, error) {
	ticks := int64(mathx.RoundDiv(uint64(ns), pwmTick_ns))
	if ticks < 1 {
		return 0, opErr(CodeInvalidParameter, "pwm period too short")
	}

	bestErr := int64(-1)
	var best uint16
	for _, low := range []bool{false, true} {
		for exp := int64(0); exp <= 7; exp++ {
			div := int64(1) << exp
			if low {
				div *= 8
			}
			m := mathx.RoundDivS(ticks, div)
			if m < 1 || m > 255 {
				continue
			}
			e := mathx.Abs(m*div - ticks)
			if bestErr < 0 || e < bestErr {
				bestErr = e
				best = uint16(m) | uint16(exp)<<perExpShift
				if low {
					best |= perLowRange
				}
			}
		}
	}
	if bestErr < 0 {
		return 0, opErr(CodeInvalidParameter, "pwm period unrepresentable")
	}
	return best, nil
}

// periodFromCode returns the period in nanoseconds, or 0 for a zero mantissa.
func periodFromCode(code uint16) uint32 {
	m := uint32(code & perMantMask)
	if m == 0 {
		return 0
	}
	div := uint32(1) << (code & perExpMask >> perExpShift)
	if code&perLowRange != 0 {
		div *= 8
	}
	return m * div * pwmTick_ns
}

// Dither: the regulator superimposes a triangle wave on the setpoint,
// advancing one step per update tick.
const ditherRate_Hz = 18750

// ditherCodes converts amplitude and frequency into the step size and
// per-quarter-wave step count, accounting for the channel's current scale.
func ditherCodes(amp_mA int32, freq_Hz uint32, flatSteps uint8, parallel bool) (step uint16, steps uint8, err error) {
	if freq_Hz == 0 {
		return 0, 0, opErr(CodeInvalidParameter, "dither frequency zero")
	}
	if flatSteps > 0x3F {
		return 0, 0, opErr(CodeInvalidParameter, "dither flat steps out of range")
	}
	ampCode, err := currentCode(amp_mA, parallel)
	if err != nil {
		return 0, 0, err
	}
	if ampCode == 0 {
		return 0, 0, opErr(CodeInvalidParameter, "dither amplitude too small")
	}

	quarter := mathx.RoundDiv(uint32(ditherRate_Hz), 4*freq_Hz)
	if quarter <= uint32(flatSteps) {
		return 0, 0, opErr(CodeInvalidParameter, "dither frequency too high")
	}
	quarter -= uint32(flatSteps)
	if quarter > 255 {
		return 0, 0, opErr(CodeInvalidParameter, "dither frequency too low")
	}

	step = uint16(mathx.RoundDiv(uint32(ampCode), quarter))
	if step == 0 {
		return 0, 0, opErr(CodeInvalidParameter, "dither step rounds to zero")
	}
	return step, uint8(quarter), nil
}

// VBAT threshold registers use a 16 mV LSB.
const vbatThreshLSB_mV = 16

func vbatThreshCode(mV int32) (uint16, error) {
	if mV < 0 || mV > vbatThreshLSB_mV*0xFFF {
		return 0, opErr(CodeInvalidParameter, "vbat threshold out of range")
	}
	return uint16(mathx.RoundDivS(mV, vbatThreshLSB_mV)), nil
}

// Wide voltage-feedback scaling: FB_VOLT1 carries VBAT with a 31.25 µV LSB;
// FB_VOLT2 packs VDD [10:0] and VIO [21:11] with a 3.125 mV LSB each.
func vbatFB_mV(raw uint32) int32 {
	return int32(mathx.RoundDiv(uint64(raw)*3125, 100_000))
}

func railFB_mV(raw uint32) int32 {
	return int32(mathx.RoundDiv(uint64(raw&0x7FF)*3125, 1000))
}
