package tle92466

import (
	"time"

	"tle92466-go/x/mathx"
	"tle92466-go/x/ramp"
)

// Channel control. Channel indices run 0..5.

func validateChannel(ch uint8, op string) error {
	if ch >= NumChannels {
		return opErr(CodeInvalidChannel, op)
	}
	return nil
}

// Pair identifies one of the three parallel-capable channel pairs. Pairing
// combines both output stages; the primary channel is the one addressed for
// setpoint and telemetry afterwards.
type Pair uint8

const (
	Pair03 Pair = iota // CH0 (primary) ↔ CH3
	Pair12             // CH1 (primary) ↔ CH2
	Pair45             // CH4 (primary) ↔ CH5
)

func (p Pair) bit() ChCtrl {
	switch p {
	case Pair03:
		return CCPair03
	case Pair12:
		return CCPair12
	default:
		return CCPair45
	}
}

// Channels returns the pair's members, primary first.
func (p Pair) Channels() (primary, secondary uint8) {
	switch p {
	case Pair03:
		return 0, 3
	case Pair12:
		return 1, 2
	default:
		return 4, 5
	}
}

// pairOf maps a channel to its pair and partner.
func pairOf(ch uint8) (Pair, uint8) {
	switch ch {
	case 0, 3:
		return Pair03, 3 - ch
	case 1, 2:
		return Pair12, 3 - ch
	default:
		return Pair45, 9 - ch
	}
}

// ConfigureParallel changes the pair topology: a Config-Mode operation that
// sets or clears the pair's bit in the central control register.
func (d *Device) ConfigureParallel(p Pair, enabled bool) error {
	if err := d.gate(opPairTopology, "ConfigureParallel"); err != nil {
		return err
	}
	if p > Pair45 {
		return opErr(CodeInvalidParameter, "ConfigureParallel")
	}
	var val uint16
	if enabled {
		val = uint16(p.bit())
	}
	return d.modifyReg(regChCtrl, uint16(p.bit()), val, crcDefault)
}

// ParallelActive reports whether the channel currently operates as part of
// an enabled pair, from the live pairing configuration.
func (d *Device) ParallelActive(ch uint8) (bool, error) {
	if !d.ready {
		return false, opErr(CodeNotInitialized, "ParallelActive")
	}
	if err := validateChannel(ch, "ParallelActive"); err != nil {
		return false, err
	}
	v, err := d.readReg(regChCtrl, crcDefault)
	if err != nil {
		return false, err
	}
	p, _ := pairOf(ch)
	return ChCtrl(v).Has(p.bit()), nil
}

// isPrimary reports whether ch may be addressed for setpoint/telemetry given
// the live pairing state.
func (d *Device) checkAddressable(ch uint8, op string) (parallel bool, err error) {
	parallel, err = d.ParallelActive(ch)
	if err != nil {
		return false, err
	}
	if !parallel {
		return false, nil
	}
	p, _ := pairOf(ch)
	if primary, _ := p.Channels(); primary != ch {
		return true, opErr(CodeInvalidChannel, op+": secondary of active pair")
	}
	return true, nil
}

// SetChannelMode assigns the drive mode. Config Mode only.
func (d *Device) SetChannelMode(ch uint8, m ChannelMode) error {
	if err := d.gate(opChannelMode, "SetChannelMode"); err != nil {
		return err
	}
	if err := validateChannel(ch, "SetChannelMode"); err != nil {
		return err
	}
	if m > chModeMax {
		return opErr(CodeInvalidParameter, "SetChannelMode")
	}
	return d.writeReg(chReg(ch, ofsMode), uint16(m), crcDefault)
}

// GetChannelMode reads the assigned drive mode back.
func (d *Device) GetChannelMode(ch uint8) (ChannelMode, error) {
	if !d.ready {
		return 0, opErr(CodeNotInitialized, "GetChannelMode")
	}
	if err := validateChannel(ch, "GetChannelMode"); err != nil {
		return 0, err
	}
	v, err := d.readReg(chReg(ch, ofsMode), crcDefault)
	if err != nil {
		return 0, err
	}
	return ChannelMode(v & 0x7), nil
}

// EnableChannel switches the output stage on. Mission Mode only. When the
// channel belongs to an active pair, both members are enabled in a single
// control-register update.
func (d *Device) EnableChannel(ch uint8) error {
	return d.setEnabled(ch, true, "EnableChannel")
}

// DisableChannel switches the output stage off, with the same pair
// propagation as EnableChannel.
func (d *Device) DisableChannel(ch uint8) error {
	return d.setEnabled(ch, false, "DisableChannel")
}

func (d *Device) setEnabled(ch uint8, on bool, op string) error {
	if err := d.gate(opChannelEnable, op); err != nil {
		return err
	}
	if err := validateChannel(ch, op); err != nil {
		return err
	}
	v, err := d.readReg(regChCtrl, crcDefault)
	if err != nil {
		return err
	}
	ctrl := ChCtrl(v)
	mask := uint16(1) << ch
	p, partner := pairOf(ch)
	if ctrl.Has(p.bit()) {
		mask |= uint16(1) << partner
	}
	var val uint16
	if on {
		val = mask
	}
	return d.writeReg(regChCtrl, uint16(ctrl)&^mask|val, crcDefault)
}

// ChannelEnabled reads the live enable bit.
func (d *Device) ChannelEnabled(ch uint8) (bool, error) {
	if !d.ready {
		return false, opErr(CodeNotInitialized, "ChannelEnabled")
	}
	if err := validateChannel(ch, "ChannelEnabled"); err != nil {
		return false, err
	}
	v, err := d.readReg(regChCtrl, crcDefault)
	if err != nil {
		return false, err
	}
	return ChCtrl(v).Enabled(ch), nil
}

// SetCurrent_mA writes the current setpoint. Mission Mode only. The register
// scale follows the live pairing state: 0–2000 mA single, 0–4000 mA for the
// primary of an active pair. The secondary of an active pair is not
// addressable.
func (d *Device) SetCurrent_mA(ch uint8, mA int32) error {
	if err := d.gate(opSetpoint, "SetCurrent"); err != nil {
		return err
	}
	if err := validateChannel(ch, "SetCurrent"); err != nil {
		return err
	}
	parallel, err := d.checkAddressable(ch, "SetCurrent")
	if err != nil {
		return err
	}
	code, err := currentCode(mA, parallel)
	if err != nil {
		return err
	}
	return d.writeReg(chReg(ch, ofsSetpoint), code, crcDefault)
}

// GetCurrentSetpoint_mA reads the setpoint back in milliamps, within one LSB
// of the value written.
func (d *Device) GetCurrentSetpoint_mA(ch uint8) (int32, error) {
	if !d.ready {
		return 0, opErr(CodeNotInitialized, "GetCurrentSetpoint")
	}
	if err := validateChannel(ch, "GetCurrentSetpoint"); err != nil {
		return 0, err
	}
	parallel, err := d.ParallelActive(ch)
	if err != nil {
		return 0, err
	}
	v, err := d.readReg(chReg(ch, ofsSetpoint), crcDefault)
	if err != nil {
		return 0, err
	}
	return currentFromCode(uint16(v), parallel), nil
}

// SetPWMPeriod_ns configures the PWM period (125 ns … 32.64 ms) using the
// mantissa/exponent/range encoding with the least representation error.
// Config Mode only.
func (d *Device) SetPWMPeriod_ns(ch uint8, ns uint32) error {
	if err := d.gate(opPWMConfig, "SetPWMPeriod"); err != nil {
		return err
	}
	if err := validateChannel(ch, "SetPWMPeriod"); err != nil {
		return err
	}
	code, err := periodCode(ns)
	if err != nil {
		return err
	}
	return d.writeReg(chReg(ch, ofsPeriod), code, crcDefault)
}

// GetPWMPeriod_ns decodes the configured period.
func (d *Device) GetPWMPeriod_ns(ch uint8) (uint32, error) {
	if !d.ready {
		return 0, opErr(CodeNotInitialized, "GetPWMPeriod")
	}
	if err := validateChannel(ch, "GetPWMPeriod"); err != nil {
		return 0, err
	}
	v, err := d.readReg(chReg(ch, ofsPeriod), crcDefault)
	if err != nil {
		return 0, err
	}
	ns := periodFromCode(uint16(v))
	if ns == 0 {
		return 0, regErr(CodeRegister, "GetPWMPeriod: zero mantissa", chReg(ch, ofsPeriod), nil)
	}
	return ns, nil
}

// DitherConfig describes the superimposed triangle wave in physical units.
type DitherConfig struct {
	Amplitude_mA int32
	Frequency_Hz uint32
	// FlatSteps holds the setpoint at each peak for the given number of
	// update ticks, 0..63.
	FlatSteps uint8
	// Deep doubles the modulator depth for valve de-stiction profiles.
	Deep bool
}

// SetDither configures dither for a channel, deriving the current scale from
// the live pairing state. Config Mode only.
func (d *Device) SetDither(ch uint8, cfg DitherConfig) error {
	if err := d.gate(opDitherConfig, "SetDither"); err != nil {
		return err
	}
	if err := validateChannel(ch, "SetDither"); err != nil {
		return err
	}
	parallel, err := d.checkAddressable(ch, "SetDither")
	if err != nil {
		return err
	}
	return d.setDither(ch, cfg, parallel)
}

// SetDitherScaled is SetDither with the parallel scale supplied explicitly,
// for callers configuring dither before the pair topology is committed.
func (d *Device) SetDitherScaled(ch uint8, cfg DitherConfig, parallel bool) error {
	if err := d.gate(opDitherConfig, "SetDither"); err != nil {
		return err
	}
	if err := validateChannel(ch, "SetDither"); err != nil {
		return err
	}
	return d.setDither(ch, cfg, parallel)
}

func (d *Device) setDither(ch uint8, cfg DitherConfig, parallel bool) error {
	step, steps, err := ditherCodes(cfg.Amplitude_mA, cfg.Frequency_Hz, cfg.FlatSteps, parallel)
	if err != nil {
		return err
	}
	ctrl := uint16(steps) | uint16(cfg.FlatSteps)<<ditFlatShift
	if cfg.Deep {
		ctrl |= ditDeep
	}
	if err := d.writeReg(chReg(ch, ofsDitherStep), step, crcDefault); err != nil {
		return err
	}
	if err := d.writeReg(chReg(ch, ofsDitherCtrl), ctrl, crcDefault); err != nil {
		return err
	}
	// CTRL is write-only-effective: the enable flag merges via the shadow.
	return d.modifyReg(chReg(ch, ofsCtrl), uint16(ChFlagDitherEnable), uint16(ChFlagDitherEnable), crcDefault)
}

// DisableDither clears the dither enable flag through the shadow path.
func (d *Device) DisableDither(ch uint8) error {
	if err := d.gate(opDitherConfig, "DisableDither"); err != nil {
		return err
	}
	if err := validateChannel(ch, "DisableDither"); err != nil {
		return err
	}
	return d.modifyReg(chReg(ch, ofsCtrl), uint16(ChFlagDitherEnable), 0, crcDefault)
}

// SetSlewRate selects the output slew profile, 0..7. Config Mode only.
func (d *Device) SetSlewRate(ch uint8, sel uint8) error {
	if err := d.gate(opChannelConfig, "SetSlewRate"); err != nil {
		return err
	}
	if err := validateChannel(ch, "SetSlewRate"); err != nil {
		return err
	}
	if sel > 7 {
		return opErr(CodeInvalidParameter, "SetSlewRate")
	}
	return d.modifyReg(chReg(ch, ofsConfig), cfgSlewMask, uint16(sel)<<cfgSlewShift, crcDefault)
}

// SetOpenLoadThreshold selects the open-load detection threshold, 0..15.
// Config Mode only.
func (d *Device) SetOpenLoadThreshold(ch uint8, sel uint8) error {
	if err := d.gate(opChannelConfig, "SetOpenLoadThreshold"); err != nil {
		return err
	}
	if err := validateChannel(ch, "SetOpenLoadThreshold"); err != nil {
		return err
	}
	if sel > 15 {
		return opErr(CodeInvalidParameter, "SetOpenLoadThreshold")
	}
	return d.modifyReg(chReg(ch, ofsConfig), cfgOLThreshMask, uint16(sel)<<cfgOLThreshShift, crcDefault)
}

// SetDiagnosticCurrent selects the off-state diagnostic current source,
// 0..7. Config Mode only.
func (d *Device) SetDiagnosticCurrent(ch uint8, sel uint8) error {
	if err := d.gate(opChannelConfig, "SetDiagnosticCurrent"); err != nil {
		return err
	}
	if err := validateChannel(ch, "SetDiagnosticCurrent"); err != nil {
		return err
	}
	if sel > 7 {
		return opErr(CodeInvalidParameter, "SetDiagnosticCurrent")
	}
	return d.modifyReg(chReg(ch, ofsConfig), cfgDiagCurMask, uint16(sel)<<cfgDiagCurShift, crcDefault)
}

// ChannelTelemetry aggregates the per-channel feedback registers. Zero
// values remain where individual reads fail.
type ChannelTelemetry struct {
	AvgCurrent_mA int32
	Duty_0p01pct  uint16 // duty cycle in 0.01 % units
	VBat_mV       int32
	MinCurrent_mA int32
	MaxCurrent_mA int32
}

// ReadTelemetry collects the feedback fields for one channel.
func (d *Device) ReadTelemetry(ch uint8) (ChannelTelemetry, error) {
	var t ChannelTelemetry
	if !d.ready {
		return t, opErr(CodeNotInitialized, "ReadTelemetry")
	}
	if err := validateChannel(ch, "ReadTelemetry"); err != nil {
		return t, err
	}
	parallel, err := d.ParallelActive(ch)
	if err != nil {
		return t, err
	}
	fs := int64(fullScale(parallel))

	if v, e := d.readReg(chReg(ch, ofsFBIAvg), crcDefault); e == nil {
		t.AvgCurrent_mA = currentFromCode(uint16(v), parallel)
	}
	if v, e := d.readReg(chReg(ch, ofsFBDuty), crcDefault); e == nil {
		t.Duty_0p01pct = uint16(mathx.RoundDivS(int64(v&0x7FFF)*10000, setpointFull))
	}
	if v, e := d.readReg(chReg(ch, ofsFBVBat), crcDefault); e == nil {
		t.VBat_mV = int32(v) * vbatThreshLSB_mV
	}
	if v, e := d.readReg(chReg(ch, ofsFBIMinMax), crcDefault); e == nil {
		// min [7:0], max [15:8], each 1/255 of full scale.
		t.MinCurrent_mA = int32(mathx.RoundDivS(int64(v&0xFF)*fs, 255))
		t.MaxCurrent_mA = int32(mathx.RoundDivS(int64(v>>8&0xFF)*fs, 255))
	}
	return t, nil
}

// RampCurrent moves the setpoint linearly from its current value to the
// target over the given duration, stepping through the Transport's delay
// primitive. Mission Mode only; the pair scale rules of SetCurrent apply.
func (d *Device) RampCurrent(ch uint8, to_mA int32, durationMs uint32, steps uint16) error {
	if err := d.gate(opSetpoint, "RampCurrent"); err != nil {
		return err
	}
	if err := validateChannel(ch, "RampCurrent"); err != nil {
		return err
	}
	parallel, err := d.checkAddressable(ch, "RampCurrent")
	if err != nil {
		return err
	}
	toCode, err := currentCode(to_mA, parallel)
	if err != nil {
		return err
	}
	cur, err := d.readReg(chReg(ch, ofsSetpoint), crcDefault)
	if err != nil {
		return err
	}

	var stepErr error
	set := func(level uint16) {
		if stepErr != nil {
			return
		}
		stepErr = d.writeReg(chReg(ch, ofsSetpoint), level, crcDefault)
	}
	tick := func(dur time.Duration) bool {
		if stepErr != nil {
			return false
		}
		if err := d.port.Delay(uint32(dur.Microseconds())); err != nil {
			stepErr = wrapTransport("RampCurrent", addrNone, err)
			return false
		}
		return true
	}
	ramp.StartLinear(uint16(cur)&setpointMask, toCode, setpointMask, durationMs, steps, tick, set)
	return stepErr
}
