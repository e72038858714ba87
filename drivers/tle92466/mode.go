package tle92466

// Mode is the device-level operating state. The device powers up in Config
// Mode; only explicit transitions change it.
type Mode uint8

const (
	ModeConfig Mode = iota
	ModeMission
)

func (m Mode) String() string {
	if m == ModeMission {
		return "mission"
	}
	return "config"
}

// opClass groups mutating operations by the mode they are legal in. Gating
// is one table, not per-method if-chains, so the rules live in one place.
type opClass uint8

const (
	opChannelEnable opClass = iota // enable/disable, incl. paired activation
	opSetpoint
	opChannelMode
	opChannelConfig // slew, open-load threshold, diagnostic current
	opPWMConfig
	opDitherConfig
	opGlobalConfig // thresholds, watchdog policy, VIO mode
	opPairTopology

	opClassCount
)

// requiredMode is the gating table.
var requiredMode = [opClassCount]Mode{
	opChannelEnable: ModeMission,
	opSetpoint:      ModeMission,
	opChannelMode:   ModeConfig,
	opChannelConfig: ModeConfig,
	opPWMConfig:     ModeConfig,
	opDitherConfig:  ModeConfig,
	opGlobalConfig:  ModeConfig,
	opPairTopology:  ModeConfig,
}

// gate fails fast before any bus traffic when the operation is not legal in
// the current mode, or when the device is not initialized.
func (d *Device) gate(op opClass, name string) error {
	if !d.ready {
		return opErr(CodeNotInitialized, name)
	}
	if requiredMode[op] != d.mode {
		return opErr(CodeWrongMode, name)
	}
	return nil
}

// EnterMission sets the mode bit in the central control register and starts
// gating Mission-only operations.
func (d *Device) EnterMission() error {
	if !d.ready {
		return opErr(CodeNotInitialized, "EnterMission")
	}
	if err := d.modifyReg(regChCtrl, uint16(CCMission), uint16(CCMission), crcDefault); err != nil {
		return err
	}
	d.mode = ModeMission
	return nil
}

// EnterConfig clears the mode bit and returns to Config Mode.
func (d *Device) EnterConfig() error {
	if !d.ready {
		return opErr(CodeNotInitialized, "EnterConfig")
	}
	if err := d.modifyReg(regChCtrl, uint16(CCMission), 0, crcDefault); err != nil {
		return err
	}
	d.mode = ModeConfig
	return nil
}

// Mode returns the tracked operating state.
func (d *Device) Mode() Mode { return d.mode }

// Ready reports whether Init has completed successfully.
func (d *Device) Ready() bool { return d.ready }
