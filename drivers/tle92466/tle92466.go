// Package tle92466 drives a six-channel low-side current-regulating driver
// IC over a half-duplex, 32-bit framed SPI bus.
//
// The driver owns the frame codec (CRC-checked, three reply layouts), the
// register map with per-register access semantics, the Config/Mission mode
// state machine, the channel/current/PWM/dither control maths, and the
// latched-fault aggregation model. The physical bus is abstracted behind the
// Transport interface; adapters live in the spiport, serialport and simbus
// sub-packages.
//
// The protocol is single-outstanding: every exchange is a blocking 32-bit
// round trip and the driver never pipelines. There is no internal locking —
// a host application that wants concurrent access must serialize through one
// owner of the Device, because the wire protocol itself has no multiplexing.
package tle92466

// Accepted values of the IC version register. All-zero and all-one reads are
// rejected before this list is consulted.
var acceptedVersions = []uint16{0x0101, 0x0102}

// Reset and stabilization timing, microseconds.
const (
	tResetPulse_us = 100
	tStabilize_us  = 1500
)

// Expected CLK_DIV power-up value; a different read is reported through the
// log hook but does not abort init (diagnostic only).
const clkDivDefault = 0x0001

// Config holds construction-time policy. All fields have usable zero-ish
// defaults via DefaultConfig.
type Config struct {
	// CRCEnable provisions CRC checking on the device and enables reply
	// verification once init has configured it.
	CRCEnable bool

	// WatchdogEnable and WatchdogPeriod configure the SPI watchdog.
	// Period is a 3-bit divider code; meaningful only when enabled.
	WatchdogEnable bool
	WatchdogPeriod uint8

	// VIO5V selects the 5 V VIO threshold set; false means 3.3 V.
	VIO5V bool

	// VBATUnder_mV / VBATOver_mV are the default supply window. Zero keeps
	// the hardware defaults.
	VBATUnder_mV int32
	VBATOver_mV  int32

	// DefaultSlew is applied to every channel during init, 0..7.
	DefaultSlew uint8

	// Log, when set, receives one-line diagnostics (w1c readback mismatches,
	// init observations). The driver never formats through fmt so it stays
	// TinyGo-friendly.
	Log func(msg string)
}

// DefaultConfig returns the configuration used by the init sequence unless
// overridden: CRC on, watchdog on at the slowest period, 3.3 V VIO, a
// 6–28 V supply window.
func DefaultConfig() Config {
	return Config{
		CRCEnable:      true,
		WatchdogEnable: true,
		WatchdogPeriod: 7,
		VBATUnder_mV:   6000,
		VBATOver_mV:    28000,
		DefaultSlew:    3,
	}
}

// Validate rejects configurations the hardware cannot express.
func (c Config) Validate() error {
	if c.WatchdogPeriod > 7 {
		return opErr(CodeInvalidParameter, "watchdog period out of range")
	}
	if c.DefaultSlew > 7 {
		return opErr(CodeInvalidParameter, "slew selection out of range")
	}
	if c.VBATUnder_mV < 0 || c.VBATOver_mV < 0 || c.VBATUnder_mV > c.VBATOver_mV {
		return opErr(CodeInvalidParameter, "vbat window invalid")
	}
	return nil
}

// Device represents one physical chip behind a Transport. All mutable state
// (mode, CRC flag, VIO flag, shadow cache) is owned here exclusively.
type Device struct {
	port Transport
	cfg  Config
	log  func(string)

	ready      bool
	mode       Mode
	crcEnabled bool
	vio5V      bool

	// shadow holds the last written value of write-only-effective registers.
	shadow map[uint16]uint16
}

// New constructs an uninitialized Device. Init must succeed before any other
// operation.
func New(port Transport, cfg Config) *Device {
	return &Device{
		port:   port,
		cfg:    cfg,
		log:    cfg.Log,
		shadow: make(map[uint16]uint16),
	}
}

// Init runs the bring-up sequence: transport init, hardware reset pulse,
// stabilization, clock sanity check (diagnostic only), identity
// verification, Config-mode confirmation, default configuration, power-on
// latch clearing. Any register I/O failure aborts with its error kind and
// leaves the device un-ready; nothing is rolled back.
func (d *Device) Init() error {
	if err := d.cfg.Validate(); err != nil {
		return err
	}
	d.ready = false
	d.mode = ModeConfig
	d.crcEnabled = false

	if err := d.port.Init(); err != nil {
		return wrapTransport("Init", addrNone, err)
	}
	if err := d.resetPulse(); err != nil {
		return err
	}

	// CRC is not provisioned yet: everything up to the GLOBAL_CONFIG write
	// runs with verification off.
	d.clockSanityCheck()

	if err := d.VerifyDevice(); err != nil {
		// One bounded re-check; identity reads right after reset release
		// can race the device's own boot.
		if err2 := d.VerifyDevice(); err2 != nil {
			return err2
		}
	}
	if err := d.confirmConfigMode(); err != nil {
		return err
	}
	if err := d.applyDefaults(); err != nil {
		return err
	}
	if err := d.clearPowerOnLatches(); err != nil {
		return err
	}

	d.ready = true
	return nil
}

// Close tears the transport down and invalidates the device.
func (d *Device) Close() error {
	d.ready = false
	if err := d.port.Deinit(); err != nil {
		return wrapTransport("Close", addrNone, err)
	}
	return nil
}

func (d *Device) resetPulse() error {
	if err := d.port.SetControlPin(PinReset, PinActive); err != nil {
		return wrapTransport("Init: reset", addrNone, err)
	}
	if err := d.port.Delay(tResetPulse_us); err != nil {
		return wrapTransport("Init: reset", addrNone, err)
	}
	if err := d.port.SetControlPin(PinReset, PinInactive); err != nil {
		return wrapTransport("Init: reset", addrNone, err)
	}
	if err := d.port.SetControlPin(PinEnable, PinActive); err != nil {
		return wrapTransport("Init: enable", addrNone, err)
	}
	if err := d.port.Delay(tStabilize_us); err != nil {
		return wrapTransport("Init: stabilize", addrNone, err)
	}
	return nil
}

// clockSanityCheck reads CLK_DIV and reports an unexpected value. Errors and
// mismatches are diagnostic only.
func (d *Device) clockSanityCheck() {
	v, err := d.readReg(regClkDiv, crcOff)
	if err != nil {
		d.logf("clock register unreadable", regClkDiv)
		return
	}
	if uint16(v) != clkDivDefault {
		d.logf("unexpected clock divider", regClkDiv)
	}
}

// VerifyDevice reads the identity register and rejects all-zero, all-one,
// and unknown versions. Callers may wrap it in an explicit, bounded retry.
func (d *Device) VerifyDevice() error {
	v, err := d.readReg(regICVers, crcOff)
	if err != nil {
		return err
	}
	id := uint16(v)
	if id == 0x0000 || id == 0xFFFF {
		return regErr(CodeWrongDeviceID, "VerifyDevice", regICVers, nil)
	}
	for _, want := range acceptedVersions {
		if id == want {
			return nil
		}
	}
	return regErr(CodeWrongDeviceID, "VerifyDevice", regICVers, nil)
}

// confirmConfigMode clears the mission bit if the device somehow left reset
// with it set.
func (d *Device) confirmConfigMode() error {
	v, err := d.readReg(regChCtrl, crcOff)
	if err != nil {
		return err
	}
	if ChCtrl(v).Has(CCMission) {
		if err := d.writeReg(regChCtrl, uint16(v)&^uint16(CCMission), crcOff); err != nil {
			return err
		}
	}
	d.mode = ModeConfig
	return nil
}

// applyDefaults provisions CRC/watchdog policy, voltage thresholds, and the
// per-channel defaults (mode off, configured slew, zero setpoint).
func (d *Device) applyDefaults() error {
	var gc GlobalConfig
	if d.cfg.CRCEnable {
		gc |= GCCRCEnable
	}
	if d.cfg.VIO5V {
		gc |= GCVIO5V
	}
	if d.cfg.WatchdogEnable {
		gc |= GCWDEnable
		gc |= GlobalConfig(d.cfg.WatchdogPeriod) << gcWDPeriodShift
	}
	if err := d.writeReg(regGlobalConfig, uint16(gc), crcOff); err != nil {
		return err
	}
	// From here on the device checks frame CRCs (if enabled), and so do we.
	d.crcEnabled = d.cfg.CRCEnable
	d.vio5V = d.cfg.VIO5V

	if d.cfg.VBATUnder_mV != 0 || d.cfg.VBATOver_mV != 0 {
		uv, err := vbatThreshCode(d.cfg.VBATUnder_mV)
		if err != nil {
			return err
		}
		ov, err := vbatThreshCode(d.cfg.VBATOver_mV)
		if err != nil {
			return err
		}
		if err := d.writeReg(regVBatTHUV, uv, crcDefault); err != nil {
			return err
		}
		if err := d.writeReg(regVBatTHOV, ov, crcDefault); err != nil {
			return err
		}
	}

	for ch := uint8(0); ch < NumChannels; ch++ {
		if err := d.writeReg(chReg(ch, ofsMode), uint16(ChModeOff), crcDefault); err != nil {
			return err
		}
		cfgVal := uint16(d.cfg.DefaultSlew) << cfgSlewShift
		if err := d.writeReg(chReg(ch, ofsConfig), cfgVal, crcDefault); err != nil {
			return err
		}
		if err := d.writeReg(chReg(ch, ofsSetpoint), 0, crcDefault); err != nil {
			return err
		}
	}
	return nil
}

// clearPowerOnLatches drops the POR/reset flags and any fault latched while
// the supply ramped.
func (d *Device) clearPowerOnLatches() error {
	return d.clearAllLatches(crcDefault)
}

// ReloadWatchdog rearms the SPI watchdog. The reload register is
// write-only-effective (it reads back as the live countdown), so the write
// goes through the shadow path and is never read-verified.
func (d *Device) ReloadWatchdog() error {
	if !d.ready {
		return opErr(CodeNotInitialized, "ReloadWatchdog")
	}
	return d.writeReg(regWDReload, wdReloadKey, crcDefault)
}

// wdReloadKey is the magic value the reload register expects.
const wdReloadKey = 0xA5A5

// CRCEnabled reports whether reply verification is active.
func (d *Device) CRCEnabled() bool { return d.crcEnabled }

// FaultPinActive samples the sideband fault line.
func (d *Device) FaultPinActive() (bool, error) {
	if !d.ready {
		return false, opErr(CodeNotInitialized, "FaultPinActive")
	}
	lvl, err := d.port.GetControlPin(PinFault)
	if err != nil {
		return false, wrapTransport("FaultPinActive", addrNone, err)
	}
	return lvl == PinActive, nil
}
