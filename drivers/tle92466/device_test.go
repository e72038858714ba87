package tle92466_test

import (
	"testing"

	"tle92466-go/drivers/tle92466"
	"tle92466-go/drivers/tle92466/simbus"
)

func newSimDevice(t *testing.T, cfg tle92466.Config) (*tle92466.Device, *simbus.Bus) {
	t.Helper()
	sim := simbus.New()
	d := tle92466.New(sim, cfg)
	if err := d.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return d, sim
}

func TestInitBringsUpConfigMode(t *testing.T) {
	d, _ := newSimDevice(t, tle92466.DefaultConfig())

	if !d.Ready() {
		t.Fatal("device not ready after Init")
	}
	if d.Mode() != tle92466.ModeConfig {
		t.Fatalf("mode after Init: %v", d.Mode())
	}
	if !d.CRCEnabled() {
		t.Fatal("CRC not provisioned")
	}
	// The power-on-reset latch and anything caught during supply ramp are
	// cleared by the bring-up sequence.
	any, err := d.HasAnyFault()
	if err != nil {
		t.Fatal(err)
	}
	if any {
		t.Fatal("power-on latches survived Init")
	}
	active, err := d.FaultPinActive()
	if err != nil {
		t.Fatal(err)
	}
	if active {
		t.Fatal("fault line active on a clean device")
	}
}

func TestInitRejectsWrongIdentity(t *testing.T) {
	for _, id := range []uint16{0x0000, 0xFFFF, 0x0303} {
		sim := simbus.New()
		sim.Identity = id
		d := tle92466.New(sim, tle92466.DefaultConfig())
		err := d.Init()
		if tle92466.CodeOf(err) != tle92466.CodeWrongDeviceID {
			t.Errorf("identity 0x%04X: %v", id, err)
		}
		if d.Ready() {
			t.Errorf("identity 0x%04X: device ready after failed Init", id)
		}
	}
}

func TestInitWithCRCDisabled(t *testing.T) {
	cfg := tle92466.DefaultConfig()
	cfg.CRCEnable = false
	d, _ := newSimDevice(t, cfg)
	if d.CRCEnabled() {
		t.Fatal("CRC enabled against configuration")
	}
	if err := d.SetChannelMode(0, tle92466.ChModeCurrentControl); err != nil {
		t.Fatalf("register access without CRC: %v", err)
	}
}

func TestModeGatingEndToEnd(t *testing.T) {
	d, _ := newSimDevice(t, tle92466.DefaultConfig())

	if err := d.SetCurrent_mA(0, 500); tle92466.CodeOf(err) != tle92466.CodeWrongMode {
		t.Fatalf("setpoint in Config Mode: %v", err)
	}
	if err := d.SetChannelMode(0, tle92466.ChModeCurrentControl); err != nil {
		t.Fatal(err)
	}
	if err := d.SetPWMPeriod_ns(0, 100_000); err != nil {
		t.Fatal(err)
	}

	if err := d.EnterMission(); err != nil {
		t.Fatal(err)
	}
	if err := d.SetChannelMode(0, tle92466.ChModeOff); tle92466.CodeOf(err) != tle92466.CodeWrongMode {
		t.Fatalf("mode change in Mission Mode: %v", err)
	}
	if err := d.SetCurrent_mA(0, 500); err != nil {
		t.Fatal(err)
	}
	got, err := d.GetCurrentSetpoint_mA(0)
	if err != nil {
		t.Fatal(err)
	}
	if got != 500 {
		t.Fatalf("setpoint read back as %d mA", got)
	}
	if err := d.EnableChannel(0); err != nil {
		t.Fatal(err)
	}
	on, err := d.ChannelEnabled(0)
	if err != nil || !on {
		t.Fatalf("channel not enabled: %v %v", on, err)
	}

	if err := d.EnterConfig(); err != nil {
		t.Fatal(err)
	}
	if err := d.SetChannelMode(0, tle92466.ChModeOff); err != nil {
		t.Fatalf("mode change back in Config Mode: %v", err)
	}
}

func TestParallelPairScale(t *testing.T) {
	d, _ := newSimDevice(t, tle92466.DefaultConfig())

	if err := d.ConfigureParallel(tle92466.Pair12, true); err != nil {
		t.Fatal(err)
	}
	if err := d.EnterMission(); err != nil {
		t.Fatal(err)
	}

	// The primary takes the doubled scale.
	if err := d.SetCurrent_mA(1, 1700); err != nil {
		t.Fatal(err)
	}
	got, err := d.GetCurrentSetpoint_mA(1)
	if err != nil {
		t.Fatal(err)
	}
	if got != 1700 {
		t.Fatalf("paired setpoint read back as %d mA", got)
	}
	if err := d.SetCurrent_mA(1, 4200); tle92466.CodeOf(err) != tle92466.CodeInvalidParameter {
		t.Fatalf("beyond parallel full scale: %v", err)
	}

	// The secondary is not addressable while the pair is active.
	if err := d.SetCurrent_mA(2, 100); tle92466.CodeOf(err) != tle92466.CodeInvalidChannel {
		t.Fatalf("secondary setpoint: %v", err)
	}

	// Enabling the primary brings the secondary with it.
	if err := d.EnableChannel(1); err != nil {
		t.Fatal(err)
	}
	for _, ch := range []uint8{1, 2} {
		on, err := d.ChannelEnabled(ch)
		if err != nil || !on {
			t.Fatalf("pair member %d not enabled: %v %v", ch, on, err)
		}
	}
}

func TestCriticalFaultReply(t *testing.T) {
	d, sim := newSimDevice(t, tle92466.DefaultConfig())
	sim.CriticalFault = true
	sim.Health = tle92466.HealthClockLoss

	// Every exchange now answers with the critical layout, which carries no
	// CRC and must surface as a hardware error rather than a CRC error.
	_, err := d.GetDeviceStatus()
	if tle92466.CodeOf(err) != tle92466.CodeHardware {
		t.Fatalf("critical reply surfaced as %v", err)
	}
	if err := d.ReloadWatchdog(); tle92466.CodeOf(err) != tle92466.CodeHardware {
		t.Fatalf("critical reply on write surfaced as %v", err)
	}
}

func TestFaultLifecycle(t *testing.T) {
	d, sim := newSimDevice(t, tle92466.DefaultConfig())
	sim.LatchChannelFault(3, uint16(tle92466.CDOpenLoad), true)
	sim.LatchSupplyFault(uint16(tle92466.GD0OverTempWarn), false)

	active, err := d.FaultPinActive()
	if err != nil || !active {
		t.Fatalf("fault line: %v %v", active, err)
	}
	rep, err := d.GetAllFaults()
	if err != nil {
		t.Fatal(err)
	}
	if !rep.AnyFault || !rep.Channels[3].OpenLoad || !rep.Status.OverTempWarning {
		t.Fatalf("fault report: %+v", rep)
	}

	// The open-load condition persists, so its latch survives a clear. The
	// clear itself succeeds regardless.
	if err := d.ClearFaults(); err != nil {
		t.Fatal(err)
	}
	rep, err = d.GetAllFaults()
	if err != nil {
		t.Fatal(err)
	}
	if rep.Status.OverTempWarning {
		t.Fatal("transient latch survived the clear")
	}
	if !rep.Channels[3].OpenLoad {
		t.Fatal("persistent fault vanished without its condition going away")
	}

	sim.ClearPersistentChannel(3, uint16(tle92466.CDOpenLoad))
	if err := d.ClearFaults(); err != nil {
		t.Fatal(err)
	}
	any, err := d.HasAnyFault()
	if err != nil || any {
		t.Fatalf("latches after condition removal and clear: %v %v", any, err)
	}
}

func TestVBATWindowChangeClearsStaleLatches(t *testing.T) {
	d, sim := newSimDevice(t, tle92466.DefaultConfig())
	sim.LatchSupplyFault(uint16(tle92466.GD0VBATUndervolt), false)

	if err := d.SetVBATWindow_mV(7000, 26000); err != nil {
		t.Fatal(err)
	}
	st, err := d.GetDeviceStatus()
	if err != nil {
		t.Fatal(err)
	}
	if st.VBATUndervolt || st.ExternalSupplyNotOK {
		t.Fatalf("stale supply latch survived the window change: %+v", st)
	}
}

func TestChannelTelemetry(t *testing.T) {
	d, sim := newSimDevice(t, tle92466.DefaultConfig())
	sim.SetChannelFeedback(0, 16384, 16384, 750, 0x4020)

	tele, err := d.ReadTelemetry(0)
	if err != nil {
		t.Fatal(err)
	}
	if tele.AvgCurrent_mA != 1000 {
		t.Errorf("average current %d mA", tele.AvgCurrent_mA)
	}
	if tele.Duty_0p01pct != 5000 {
		t.Errorf("duty %d", tele.Duty_0p01pct)
	}
	if tele.VBat_mV != 12000 {
		t.Errorf("vbat %d mV", tele.VBat_mV)
	}
	if tele.MinCurrent_mA != 251 || tele.MaxCurrent_mA != 502 {
		t.Errorf("extremes: min=%d max=%d", tele.MinCurrent_mA, tele.MaxCurrent_mA)
	}
}

func TestSupplyFeedback(t *testing.T) {
	d, _ := newSimDevice(t, tle92466.DefaultConfig())
	fb, err := d.ReadSupplyFeedback()
	if err != nil {
		t.Fatal(err)
	}
	if fb.VBat_mV != 12000 || fb.VIO_mV != 3300 || fb.VDD_mV != 1200 {
		t.Fatalf("supply feedback: %+v", fb)
	}
}

func TestPWMPeriodRoundTrip(t *testing.T) {
	d, _ := newSimDevice(t, tle92466.DefaultConfig())
	if err := d.SetPWMPeriod_ns(2, 1_000_000); err != nil {
		t.Fatal(err)
	}
	ns, err := d.GetPWMPeriod_ns(2)
	if err != nil {
		t.Fatal(err)
	}
	if ns != 1_000_000 {
		t.Fatalf("period read back as %d ns", ns)
	}
}

func TestDitherConfigure(t *testing.T) {
	d, _ := newSimDevice(t, tle92466.DefaultConfig())
	cfg := tle92466.DitherConfig{Amplitude_mA: 150, Frequency_Hz: 120, FlatSteps: 4}
	if err := d.SetDither(0, cfg); err != nil {
		t.Fatal(err)
	}
	if err := d.DisableDither(0); err != nil {
		t.Fatal(err)
	}
	// Mission Mode rejects reconfiguration.
	if err := d.EnterMission(); err != nil {
		t.Fatal(err)
	}
	if err := d.SetDither(0, cfg); tle92466.CodeOf(err) != tle92466.CodeWrongMode {
		t.Fatalf("dither in Mission Mode: %v", err)
	}
}

func TestRampEndToEnd(t *testing.T) {
	d, _ := newSimDevice(t, tle92466.DefaultConfig())
	if err := d.EnterMission(); err != nil {
		t.Fatal(err)
	}
	if err := d.RampCurrent(4, 1200, 50, 8); err != nil {
		t.Fatal(err)
	}
	got, err := d.GetCurrentSetpoint_mA(4)
	if err != nil {
		t.Fatal(err)
	}
	if got != 1200 {
		t.Fatalf("ramp landed on %d mA", got)
	}
}

func TestCloseInvalidatesDevice(t *testing.T) {
	d, sim := newSimDevice(t, tle92466.DefaultConfig())
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if sim.IsReady() {
		t.Fatal("transport still up after Close")
	}
	if err := d.ReloadWatchdog(); tle92466.CodeOf(err) != tle92466.CodeNotInitialized {
		t.Fatalf("operation after Close: %v", err)
	}
}
