package tle92466

// Register map. Addresses fit in the frame's 7-bit field but the map types
// them as uint16. Every register has an access class; the access layer
// switches on it exhaustively, so a new register cannot dodge the
// cache-vs-read decision.

// regClass tags how a register's read path behaves.
type regClass uint8

const (
	// regNormal reads back what was last written (plus live status bits).
	regNormal regClass = iota
	// regWriteOnly is write-only-effective: the hardware read path does not
	// reflect the last write, so read-modify-write goes through the shadow
	// cache.
	regWriteOnly
	// regW1C holds latched flags cleared by writing 1s; reads reflect the
	// current latch state, never the write history.
	regW1C
)

// Central registers.
const (
	regGlobalConfig uint16 = 0x00
	regGlobalDiag0  uint16 = 0x01 // supply / clock / temperature latches
	regGlobalDiag1  uint16 = 0x02 // event latches (POR, reset, WD, regulator, ECC)
	regGlobalDiag2  uint16 = 0x03 // per-channel fault summary, bits [5:0]
	regChCtrl       uint16 = 0x04
	regVBatTHUV     uint16 = 0x06
	regVBatTHOV     uint16 = 0x07
	regWDReload     uint16 = 0x08
	regFBVolt1      uint16 = 0x09 // 22-bit wide reply: VBAT feedback
	regFBVolt2      uint16 = 0x0A // 22-bit wide reply: VDD[10:0] | VIO[21:11]
	regICVers       uint16 = 0x0B
	regICManf       uint16 = 0x0C
	regClkDiv       uint16 = 0x0D
)

// Per-channel register file: base(ch) + offset.
const (
	chBase   uint16 = 0x10
	chStride uint16 = 0x10

	ofsMode       uint16 = 0x0
	ofsConfig     uint16 = 0x1
	ofsSetpoint   uint16 = 0x2
	ofsPeriod     uint16 = 0x3
	ofsDitherCtrl uint16 = 0x4
	ofsDitherStep uint16 = 0x5
	ofsCtrl       uint16 = 0x6 // write-only-effective control flags
	ofsDiag       uint16 = 0x7 // write-1-to-clear latched faults
	ofsFBIAvg     uint16 = 0x8
	ofsFBDuty     uint16 = 0x9
	ofsFBVBat     uint16 = 0xA
	ofsFBIMinMax  uint16 = 0xB
)

// NumChannels is the number of output channels.
const NumChannels = 6

func chReg(ch uint8, offset uint16) uint16 {
	return chBase + chStride*uint16(ch) + offset
}

// channelOffset splits a per-channel address. ok is false for central
// addresses.
func channelOffset(addr uint16) (offset uint16, ok bool) {
	if addr < chBase || addr >= chBase+chStride*NumChannels {
		return 0, false
	}
	return (addr - chBase) % chStride, true
}

// classOf returns the access class of a register address.
func classOf(addr uint16) regClass {
	if ofs, ok := channelOffset(addr); ok {
		switch ofs {
		case ofsCtrl:
			return regWriteOnly
		case ofsDiag:
			return regW1C
		default:
			return regNormal
		}
	}
	switch addr {
	case regGlobalDiag0, regGlobalDiag1, regGlobalDiag2:
		return regW1C
	case regWDReload:
		return regWriteOnly
	default:
		return regNormal
	}
}

// wideRegister reports whether reads of addr answer with a 22-bit reply.
func wideRegister(addr uint16) bool {
	return addr == regFBVolt1 || addr == regFBVolt2
}

// --- GLOBAL_CONFIG bits ---

type GlobalConfig uint16

const (
	GCCRCEnable GlobalConfig = 1 << 0
	GCVIO5V     GlobalConfig = 1 << 1 // 1 = 5 V VIO thresholds, 0 = 3.3 V
	GCWDEnable  GlobalConfig = 1 << 2

	gcWDPeriodShift = 3
	gcWDPeriodMask  = 0x7 << gcWDPeriodShift
)

func (g GlobalConfig) Has(flag GlobalConfig) bool { return g&flag != 0 }

// --- CH_CTRL bits ---

type ChCtrl uint16

const (
	CCMission ChCtrl = 1 << 15 // 1 = Mission Mode

	CCPair03 ChCtrl = 1 << 8
	CCPair12 ChCtrl = 1 << 9
	CCPair45 ChCtrl = 1 << 10
)

func (c ChCtrl) Has(flag ChCtrl) bool { return c&flag != 0 }

// Enabled reports the channel's enable bit, bits [5:0].
func (c ChCtrl) Enabled(ch uint8) bool { return c&(1<<ch) != 0 }

// --- GLOBAL_DIAG0: supply / clock / temperature latches ---

type GlobalDiag0 uint16

const (
	GD0VBATUndervolt GlobalDiag0 = 1 << 0
	GD0VBATOvervolt  GlobalDiag0 = 1 << 1
	GD0VIOUndervolt  GlobalDiag0 = 1 << 2
	GD0VIOOvervolt   GlobalDiag0 = 1 << 3
	GD0VDDUndervolt  GlobalDiag0 = 1 << 4
	GD0VDDOvervolt   GlobalDiag0 = 1 << 5
	GD0ClockFault    GlobalDiag0 = 1 << 6
	GD0OverTempError GlobalDiag0 = 1 << 7
	GD0OverTempWarn  GlobalDiag0 = 1 << 8

	gd0VBATMask GlobalDiag0 = GD0VBATUndervolt | GD0VBATOvervolt
	gd0VIOMask  GlobalDiag0 = GD0VIOUndervolt | GD0VIOOvervolt
	gd0AllMask  GlobalDiag0 = 0x01FF
)

func (d GlobalDiag0) Has(flag GlobalDiag0) bool { return d&flag != 0 }

// --- GLOBAL_DIAG1: event latches ---

type GlobalDiag1 uint16

const (
	GD1PowerOnReset   GlobalDiag1 = 1 << 0
	GD1ResetEvent     GlobalDiag1 = 1 << 1
	GD1WatchdogError  GlobalDiag1 = 1 << 2
	GD1RegulatorFault GlobalDiag1 = 1 << 3
	GD1ECCError       GlobalDiag1 = 1 << 4

	gd1AllMask GlobalDiag1 = 0x001F
)

func (d GlobalDiag1) Has(flag GlobalDiag1) bool { return d&flag != 0 }

// GLOBAL_DIAG2 mirrors the six per-channel fault latches as summary bits
// [5:0]; reading it is the cheap "is anything wrong" probe.
const gd2AllMask uint16 = 0x003F

// --- per-channel MODE register ---

// ChannelMode selects how a channel is driven, MODE bits [2:0].
type ChannelMode uint8

const (
	ChModeOff ChannelMode = iota
	ChModeCurrentControl
	ChModeDirectSPI
	ChModeDirectPin0
	ChModeDirectPin1
	ChModeFreeRun

	chModeMax = ChModeFreeRun
)

// --- per-channel CONFIG register fields ---

const (
	cfgOLThreshShift = 0 // [3:0] open-load threshold select
	cfgOLThreshMask  = 0xF << cfgOLThreshShift
	cfgSlewShift     = 4 // [6:4] slew-rate select
	cfgSlewMask      = 0x7 << cfgSlewShift
	cfgDiagCurShift  = 7 // [9:7] diagnostic-current select
	cfgDiagCurMask   = 0x7 << cfgDiagCurShift
)

// --- per-channel SETPOINT register ---

// Target value occupies bits [14:0].
const setpointMask uint16 = 0x7FFF

// --- per-channel PERIOD register fields ---

const (
	perMantShift = 0 // [7:0] mantissa, zero = invalid
	perMantMask  = 0xFF << perMantShift
	perExpShift  = 8 // [10:8] exponent
	perExpMask   = 0x7 << perExpShift
	perLowRange  = 1 << 11 // additional /8 prescale for long periods
)

// --- per-channel DITHER_CTRL register fields ---

const (
	ditStepsShift = 0 // [7:0] steps per quarter wave
	ditStepsMask  = 0xFF << ditStepsShift
	ditFlatShift  = 8 // [13:8] flat steps at the peaks
	ditFlatMask   = 0x3F << ditFlatShift
	ditDeep       = 1 << 15
)

// --- per-channel CTRL register (write-only-effective) ---

type ChCtrlFlags uint16

const (
	ChFlagDitherEnable ChCtrlFlags = 1 << 0
	ChFlagFreeze       ChCtrlFlags = 1 << 1 // hold the regulated current
	ChFlagAutoZero     ChCtrlFlags = 1 << 2
)

// --- per-channel DIAG register (write-1-to-clear) ---

type ChDiag uint16

const (
	CDOvercurrent     ChDiag = 1 << 0
	CDShortToGround   ChDiag = 1 << 1
	CDOpenLoad        ChDiag = 1 << 2
	CDOverTemp        ChDiag = 1 << 3
	CDOpenLoadOrShort ChDiag = 1 << 4

	CDOverTempWarn    ChDiag = 1 << 8
	CDCurrentLowWarn  ChDiag = 1 << 9
	CDCurrentHighWarn ChDiag = 1 << 10
	CDSupplyWarn      ChDiag = 1 << 11

	cdAllMask ChDiag = 0x0F1F
)

func (d ChDiag) Has(flag ChDiag) bool { return d&flag != 0 }
