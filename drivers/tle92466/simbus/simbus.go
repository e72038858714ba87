// Package simbus provides a register-level model of the driver IC behind the
// tle92466.Transport interface. It answers frames the way the silicon does —
// CRC checking once provisioned, three reply layouts, write-1-to-clear
// latches, a write-only watchdog reload — so the driver stack can be
// exercised end to end without hardware.
package simbus

import (
	"errors"

	"tle92466-go/drivers/tle92466"
)

// Register addresses mirrored from the device datasheet. The model keeps its
// own copy: it stands in for the hardware, not for the driver's map.
const (
	regGlobalConfig uint16 = 0x00
	regGlobalDiag0  uint16 = 0x01
	regGlobalDiag1  uint16 = 0x02
	regGlobalDiag2  uint16 = 0x03
	regChCtrl       uint16 = 0x04
	regVBatTHUV     uint16 = 0x06
	regVBatTHOV     uint16 = 0x07
	regWDReload     uint16 = 0x08
	regFBVolt1      uint16 = 0x09
	regFBVolt2      uint16 = 0x0A
	regICVers       uint16 = 0x0B
	regICManf       uint16 = 0x0C
	regClkDiv       uint16 = 0x0D

	chBase   uint16 = 0x10
	chStride uint16 = 0x10
	channels        = 6

	ofsCtrl uint16 = 0x6
	ofsDiag uint16 = 0x7
)

const (
	porLatch     uint16 = 1 << 0 // GLOBAL_DIAG1 power-on-reset flag
	crcEnableBit uint16 = 1 << 0 // GLOBAL_CONFIG
	wdCountdown  uint16 = 0x00FF // initial reload countdown value

	statusCRCError uint32 = 1 << 1 << 17
	statusReadOnly uint32 = 1 << 2 << 17
)

// ErrNotReady is returned by Transfer32 before Init or after Deinit.
var ErrNotReady = errors.New("simbus: transport not initialized")

// Bus is the simulated device. The zero value is not usable; construct with
// New. Not safe for concurrent use, matching the single-outstanding protocol.
type Bus struct {
	// Identity is the IC version register value, default 0x0102.
	Identity uint16
	// CriticalFault, while true, makes the device answer every frame with
	// the critical-fault layout carrying Health.
	CriticalFault bool
	// Health is the flag byte of critical-fault replies.
	Health tle92466.HealthFlags
	// Calls counts Transfer32 invocations.
	Calls int

	regs    [0x70]uint16
	wide    map[uint16]uint32
	persist map[uint16]uint16 // w1c bits that re-latch right after a clear

	pins  [3]tle92466.PinLevel
	ready bool
}

// New returns a powered-down model with default identity and clock values.
func New() *Bus {
	b := &Bus{
		Identity: 0x0102,
		wide:     make(map[uint16]uint32),
		persist:  make(map[uint16]uint16),
	}
	b.powerOn()
	return b
}

// powerOn loads the reset values and latches the POR flag, the way a supply
// ramp does.
func (b *Bus) powerOn() {
	b.regs = [0x70]uint16{}
	b.regs[regICVers] = b.Identity
	b.regs[regICManf] = 0xC1C1
	b.regs[regClkDiv] = 0x0001
	b.regs[regWDReload] = wdCountdown
	b.regs[regGlobalDiag1] = porLatch
	b.wide[regFBVolt1] = 384_000           // 12.0 V VBAT
	b.wide[regFBVolt2] = 1056<<11 | 384    // 3.3 V VIO, 1.2 V VDD
}

// SetVBATFeedback stages the raw 22-bit VBAT feedback value (31.25 µV/LSB).
func (b *Bus) SetVBATFeedback(raw uint32) { b.wide[regFBVolt1] = raw & 0x3FFFFF }

// SetRailFeedback stages the packed VDD[10:0]|VIO[21:11] feedback value
// (3.125 mV/LSB each).
func (b *Bus) SetRailFeedback(raw uint32) { b.wide[regFBVolt2] = raw & 0x3FFFFF }

// LatchSupplyFault sets bits in the supply/clock/temperature latch register.
// Persistent bits re-latch immediately after every clear, modelling a fault
// condition that is still present.
func (b *Bus) LatchSupplyFault(bits uint16, persistent bool) {
	b.regs[regGlobalDiag0] |= bits
	if persistent {
		b.persist[regGlobalDiag0] |= bits
	}
}

// LatchEventFault sets bits in the event latch register (POR, reset,
// watchdog, regulator, ECC).
func (b *Bus) LatchEventFault(bits uint16, persistent bool) {
	b.regs[regGlobalDiag1] |= bits
	if persistent {
		b.persist[regGlobalDiag1] |= bits
	}
}

// LatchChannelFault sets bits in a channel's diagnostic register and mirrors
// the channel's summary bit in GLOBAL_DIAG2.
func (b *Bus) LatchChannelFault(ch uint8, bits uint16, persistent bool) {
	addr := chBase + chStride*uint16(ch) + ofsDiag
	b.regs[addr] |= bits
	b.regs[regGlobalDiag2] |= 1 << ch
	if persistent {
		b.persist[addr] |= bits
	}
}

// ClearPersistentSupply drops a previously persistent supply fault condition;
// the next latch clear then sticks.
func (b *Bus) ClearPersistentSupply(bits uint16) { b.persist[regGlobalDiag0] &^= bits }

// ClearPersistentChannel drops a persistent channel fault condition.
func (b *Bus) ClearPersistentChannel(ch uint8, bits uint16) {
	b.persist[chBase+chStride*uint16(ch)+ofsDiag] &^= bits
}

// SetChannelFeedback stages the per-channel telemetry registers: average
// current code, duty code, VBAT code (16 mV/LSB) and the packed
// max[15:8]|min[7:0] extremes.
func (b *Bus) SetChannelFeedback(ch uint8, avg, duty, vbat, minmax uint16) {
	base := chBase + chStride*uint16(ch)
	b.regs[base+0x8] = avg
	b.regs[base+0x9] = duty
	b.regs[base+0xA] = vbat
	b.regs[base+0xB] = minmax
}

// Reg exposes raw register state for assertions.
func (b *Bus) Reg(addr uint16) uint16 { return b.regs[addr&0x7F] }

func (b *Bus) Init() error   { b.ready = true; return nil }
func (b *Bus) Deinit() error { b.ready = false; return nil }

func (b *Bus) Transfer32(tx uint32) (uint32, error) {
	if !b.ready {
		return 0, ErrNotReady
	}
	b.Calls++

	if b.CriticalFault {
		// No CRC byte on this layout; upper byte is undefined on real parts.
		return uint32(tle92466.ReplyCritical)<<22 | uint32(b.Health), nil
	}

	if b.regs[regGlobalConfig]&crcEnableBit != 0 && !tle92466.VerifyCRC(tx) {
		return tle92466.WithCRC(statusCRCError), nil
	}

	addr := uint16(tx >> 17 & 0x7F)
	data := uint16(tx)
	if tx&(1<<16) == 0 {
		return b.read(addr), nil
	}
	return b.write(addr, data), nil
}

func (b *Bus) read(addr uint16) uint32 {
	if w, ok := b.wide[addr]; ok {
		return tle92466.WithCRC(uint32(tle92466.Reply22)<<22 | w)
	}
	return tle92466.WithCRC(uint32(b.regs[addr]))
}

func (b *Bus) write(addr uint16, data uint16) uint32 {
	switch {
	case addr == regICVers || addr == regICManf || addr == regClkDiv:
		return tle92466.WithCRC(statusReadOnly | 1<<16 | uint32(data))

	case addr == regWDReload:
		// Write-only-effective: any write rearms the countdown; the read
		// path keeps reporting the live counter.
		b.regs[addr] = wdCountdown

	case addr == regGlobalDiag0 || addr == regGlobalDiag1 || addr == regGlobalDiag2:
		b.clearLatch(addr, data)

	default:
		if ofs, ok := channelOffset(addr); ok && ofs == ofsDiag {
			b.clearLatch(addr, data)
			b.refreshSummary()
			break
		}
		if ofs, ok := channelOffset(addr); ok && ofs == ofsCtrl {
			// Control strobes take effect but the read path reports live
			// regulator state, not write history. Model: reads stay zero.
			break
		}
		b.regs[addr] = data
	}
	return tle92466.WithCRC(1<<16 | uint32(data))
}

func (b *Bus) clearLatch(addr uint16, ones uint16) {
	b.regs[addr] = b.regs[addr]&^ones | b.persist[addr]
}

// refreshSummary recomputes the GLOBAL_DIAG2 per-channel bits from the
// channel latch registers.
func (b *Bus) refreshSummary() {
	var sum uint16
	for ch := uint16(0); ch < channels; ch++ {
		if b.regs[chBase+chStride*ch+ofsDiag] != 0 {
			sum |= 1 << ch
		}
	}
	b.regs[regGlobalDiag2] = b.regs[regGlobalDiag2]&^0x003F | sum
}

func channelOffset(addr uint16) (uint16, bool) {
	if addr < chBase || addr >= chBase+chStride*channels {
		return 0, false
	}
	return (addr - chBase) % chStride, true
}

func (b *Bus) TransferMany(tx []uint32, rx []uint32) error {
	for i, f := range tx {
		r, err := b.Transfer32(f)
		if err != nil {
			return err
		}
		rx[i] = r
	}
	return nil
}

func (b *Bus) Delay(uint32) error { return nil }

func (b *Bus) SetControlPin(pin tle92466.ControlPin, level tle92466.PinLevel) error {
	prev := b.pins[pin]
	b.pins[pin] = level
	// Releasing reset reloads the power-up state, POR latch included.
	if pin == tle92466.PinReset && prev == tle92466.PinActive && level == tle92466.PinInactive {
		b.powerOn()
	}
	return nil
}

func (b *Bus) GetControlPin(pin tle92466.ControlPin) (tle92466.PinLevel, error) {
	if pin == tle92466.PinFault {
		if b.regs[regGlobalDiag0] != 0 || b.regs[regGlobalDiag1] != 0 || b.regs[regGlobalDiag2] != 0 {
			return tle92466.PinActive, nil
		}
		return tle92466.PinInactive, nil
	}
	return b.pins[pin], nil
}

func (b *Bus) IsReady() bool { return b.ready }
