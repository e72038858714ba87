package tle92466

// Fault aggregation and latch clearing.
//
// Every fault bit is hardware-latched: it stays set until a 1 is written to
// its position, and it re-latches immediately if the underlying condition is
// still present. A clear that "does not stick" is therefore expected
// behaviour, not a failure.

// Approximate mid-range detection thresholds for the internal rails. The
// datasheet specifies min–max bands; these are working estimates, not
// invariants.
const (
	VIOThresh3V3_mV = 2900
	VIOThresh5V_mV  = 4350
	VDDThreshUV_mV  = 1080
)

// DeviceStatus is the device-level view of the latched flags plus the two
// supply summaries. The summaries are ORs over the leaf flags and stay
// consistent with FaultReport by construction.
type DeviceStatus struct {
	VBATUndervolt bool
	VBATOvervolt  bool
	VIOUndervolt  bool
	VIOOvervolt   bool
	VDDUndervolt  bool
	VDDOvervolt   bool

	ClockFault      bool
	OverTempError   bool
	OverTempWarning bool

	PowerOnReset   bool
	ResetEvent     bool
	WatchdogError  bool
	RegulatorFault bool
	ECCError       bool

	// ExternalSupplyNotOK ORs the VBAT leaf flags; InternalSupplyNotOK ORs
	// the VIO/VDD leaves and the regulator fault.
	ExternalSupplyNotOK bool
	InternalSupplyNotOK bool
}

func statusFrom(d0 GlobalDiag0, d1 GlobalDiag1) DeviceStatus {
	s := DeviceStatus{
		VBATUndervolt:   d0.Has(GD0VBATUndervolt),
		VBATOvervolt:    d0.Has(GD0VBATOvervolt),
		VIOUndervolt:    d0.Has(GD0VIOUndervolt),
		VIOOvervolt:     d0.Has(GD0VIOOvervolt),
		VDDUndervolt:    d0.Has(GD0VDDUndervolt),
		VDDOvervolt:     d0.Has(GD0VDDOvervolt),
		ClockFault:      d0.Has(GD0ClockFault),
		OverTempError:   d0.Has(GD0OverTempError),
		OverTempWarning: d0.Has(GD0OverTempWarn),
		PowerOnReset:    d1.Has(GD1PowerOnReset),
		ResetEvent:      d1.Has(GD1ResetEvent),
		WatchdogError:   d1.Has(GD1WatchdogError),
		RegulatorFault:  d1.Has(GD1RegulatorFault),
		ECCError:        d1.Has(GD1ECCError),
	}
	s.ExternalSupplyNotOK = s.VBATUndervolt || s.VBATOvervolt
	s.InternalSupplyNotOK = s.VIOUndervolt || s.VIOOvervolt ||
		s.VDDUndervolt || s.VDDOvervolt || s.RegulatorFault
	return s
}

func (s DeviceStatus) any() bool {
	return s.VBATUndervolt || s.VBATOvervolt || s.VIOUndervolt || s.VIOOvervolt ||
		s.VDDUndervolt || s.VDDOvervolt || s.ClockFault || s.OverTempError ||
		s.OverTempWarning || s.PowerOnReset || s.ResetEvent || s.WatchdogError ||
		s.RegulatorFault || s.ECCError
}

// ChannelDiagnostics is the decoded per-channel latch register.
type ChannelDiagnostics struct {
	Overcurrent     bool
	ShortToGround   bool
	OpenLoad        bool
	OverTemp        bool
	OpenLoadOrShort bool

	OverTempWarning    bool
	CurrentLowWarning  bool
	CurrentHighWarning bool
	SupplyWarning      bool
}

func channelDiagFrom(v ChDiag) ChannelDiagnostics {
	return ChannelDiagnostics{
		Overcurrent:        v.Has(CDOvercurrent),
		ShortToGround:      v.Has(CDShortToGround),
		OpenLoad:           v.Has(CDOpenLoad),
		OverTemp:           v.Has(CDOverTemp),
		OpenLoadOrShort:    v.Has(CDOpenLoadOrShort),
		OverTempWarning:    v.Has(CDOverTempWarn),
		CurrentLowWarning:  v.Has(CDCurrentLowWarn),
		CurrentHighWarning: v.Has(CDCurrentHighWarn),
		SupplyWarning:      v.Has(CDSupplyWarn),
	}
}

func (c ChannelDiagnostics) any() bool {
	return c.Overcurrent || c.ShortToGround || c.OpenLoad || c.OverTemp ||
		c.OpenLoadOrShort || c.OverTempWarning || c.CurrentLowWarning ||
		c.CurrentHighWarning || c.SupplyWarning
}

// FaultReport aggregates everything. AnyFault is true iff at least one leaf
// flag is.
type FaultReport struct {
	Status   DeviceStatus
	Channels [NumChannels]ChannelDiagnostics
	AnyFault bool
}

// GetDeviceStatus reads and decodes the global diagnostic latches.
func (d *Device) GetDeviceStatus() (DeviceStatus, error) {
	if !d.ready {
		return DeviceStatus{}, opErr(CodeNotInitialized, "GetDeviceStatus")
	}
	d0, err := d.readReg(regGlobalDiag0, crcDefault)
	if err != nil {
		return DeviceStatus{}, err
	}
	d1, err := d.readReg(regGlobalDiag1, crcDefault)
	if err != nil {
		return DeviceStatus{}, err
	}
	return statusFrom(GlobalDiag0(d0), GlobalDiag1(d1)), nil
}

// GetChannelDiagnostics reads one channel's latch register.
func (d *Device) GetChannelDiagnostics(ch uint8) (ChannelDiagnostics, error) {
	if !d.ready {
		return ChannelDiagnostics{}, opErr(CodeNotInitialized, "GetChannelDiagnostics")
	}
	if err := validateChannel(ch, "GetChannelDiagnostics"); err != nil {
		return ChannelDiagnostics{}, err
	}
	v, err := d.readReg(chReg(ch, ofsDiag), crcDefault)
	if err != nil {
		return ChannelDiagnostics{}, err
	}
	return channelDiagFrom(ChDiag(v)), nil
}

// GetAllFaults reads every latch register into one structured report.
func (d *Device) GetAllFaults() (FaultReport, error) {
	var r FaultReport
	st, err := d.GetDeviceStatus()
	if err != nil {
		return r, err
	}
	r.Status = st
	r.AnyFault = st.any()
	for ch := uint8(0); ch < NumChannels; ch++ {
		cd, err := d.GetChannelDiagnostics(ch)
		if err != nil {
			return r, err
		}
		r.Channels[ch] = cd
		r.AnyFault = r.AnyFault || cd.any()
	}
	return r, nil
}

// HasAnyFault is the cheap probe: the two global latch registers plus the
// per-channel summary bits in GLOBAL_DIAG2.
func (d *Device) HasAnyFault() (bool, error) {
	if !d.ready {
		return false, opErr(CodeNotInitialized, "HasAnyFault")
	}
	d0, err := d.readReg(regGlobalDiag0, crcDefault)
	if err != nil {
		return false, err
	}
	d1, err := d.readReg(regGlobalDiag1, crcDefault)
	if err != nil {
		return false, err
	}
	d2, err := d.readReg(regGlobalDiag2, crcDefault)
	if err != nil {
		return false, err
	}
	return d0&uint32(gd0AllMask) != 0 || d1&uint32(gd1AllMask) != 0 ||
		d2&uint32(gd2AllMask) != 0, nil
}

// ClearFaults writes 1s to every clearable latch position. Bits whose
// underlying condition persists re-latch on the next evaluation cycle; that
// is not a clear failure. Clearing an already-clean device is a successful
// no-op.
func (d *Device) ClearFaults() error {
	if !d.ready {
		return opErr(CodeNotInitialized, "ClearFaults")
	}
	return d.clearAllLatches(crcDefault)
}

func (d *Device) clearAllLatches(v crcOpt) error {
	if err := d.writeReg(regGlobalDiag0, uint16(gd0AllMask), v); err != nil {
		return err
	}
	if err := d.writeReg(regGlobalDiag1, uint16(gd1AllMask), v); err != nil {
		return err
	}
	if err := d.writeReg(regGlobalDiag2, gd2AllMask, v); err != nil {
		return err
	}
	for ch := uint8(0); ch < NumChannels; ch++ {
		if err := d.writeReg(chReg(ch, ofsDiag), uint16(cdAllMask), v); err != nil {
			return err
		}
	}
	return nil
}

// SetVBATWindow_mV reprograms the supply under/over-voltage thresholds and
// then clears the VBAT latches: latch state computed against the previous
// thresholds is stale the moment the window moves. The new condition may
// re-latch immediately; the clear itself must not fail for that. Config
// Mode only.
func (d *Device) SetVBATWindow_mV(under_mV, over_mV int32) error {
	if err := d.gate(opGlobalConfig, "SetVBATWindow"); err != nil {
		return err
	}
	if under_mV > over_mV {
		return opErr(CodeInvalidParameter, "SetVBATWindow")
	}
	uv, err := vbatThreshCode(under_mV)
	if err != nil {
		return err
	}
	ov, err := vbatThreshCode(over_mV)
	if err != nil {
		return err
	}
	if err := d.writeReg(regVBatTHUV, uv, crcDefault); err != nil {
		return err
	}
	if err := d.writeReg(regVBatTHOV, ov, crcDefault); err != nil {
		return err
	}
	return d.writeReg(regGlobalDiag0, uint16(gd0VBATMask), crcDefault)
}

// SetVIOMode switches the VIO threshold set between 3.3 V and 5 V and clears
// the VIO latches, which were computed against the previous fixed
// thresholds. Config Mode only.
func (d *Device) SetVIOMode(fiveVolt bool) error {
	if err := d.gate(opGlobalConfig, "SetVIOMode"); err != nil {
		return err
	}
	var val uint16
	if fiveVolt {
		val = uint16(GCVIO5V)
	}
	if err := d.modifyReg(regGlobalConfig, uint16(GCVIO5V), val, crcDefault); err != nil {
		return err
	}
	d.vio5V = fiveVolt
	return d.writeReg(regGlobalDiag0, uint16(gd0VIOMask), crcDefault)
}

// VIO5V reports the tracked VIO voltage-mode selection.
func (d *Device) VIO5V() bool { return d.vio5V }

// SupplyFeedback is the wide-register voltage telemetry.
type SupplyFeedback struct {
	VBat_mV int32
	VIO_mV  int32
	VDD_mV  int32
}

// ReadSupplyFeedback reads the two 22-bit voltage-feedback registers.
func (d *Device) ReadSupplyFeedback() (SupplyFeedback, error) {
	if !d.ready {
		return SupplyFeedback{}, opErr(CodeNotInitialized, "ReadSupplyFeedback")
	}
	v1, err := d.readReg(regFBVolt1, crcDefault)
	if err != nil {
		return SupplyFeedback{}, err
	}
	v2, err := d.readReg(regFBVolt2, crcDefault)
	if err != nil {
		return SupplyFeedback{}, err
	}
	return SupplyFeedback{
		VBat_mV: vbatFB_mV(v1),
		VDD_mV:  railFB_mV(v2),
		VIO_mV:  railFB_mV(v2 >> 11),
	}, nil
}
