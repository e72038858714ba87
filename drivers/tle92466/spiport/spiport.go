// Package spiport adapts a hardware SPI bus to the tle92466.Transport
// interface. It works against the generic drivers.SPI contract, so the same
// adapter serves TinyGo's machine.SPI on a microcontroller and any host-side
// implementation of the interface.
//
// Chip select is expected to be handled by the SPI implementation (hardware
// CS). The sideband lines — reset, enable, fault — are wired in as functions
// so the adapter stays free of machine-specific pin types.
package spiport

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"

	"tle92466-go/drivers/tle92466"
)

var (
	ErrNotReady   = errors.New("spiport: port not initialized")
	ErrMissingPin = errors.New("spiport: reset and enable pin functions are required")
	ErrLength     = errors.New("spiport: tx/rx length mismatch")
)

// Config wires the sideband lines and timing.
type Config struct {
	// SetReset and SetEnable drive the respective control lines; true means
	// logically active. Both are required.
	SetReset  func(active bool)
	SetEnable func(active bool)

	// ReadFault samples the fault line; true means active. Optional — when
	// nil the line reads as inactive.
	ReadFault func() bool

	// Sleep overrides the delay primitive; nil uses time.Sleep.
	Sleep func(d time.Duration)
}

// Port is a tle92466.Transport over one SPI bus.
type Port struct {
	spi drivers.SPI
	cfg Config

	ready bool
	// Fixed buffers to avoid per-call heap allocations.
	w [4]byte
	r [4]byte
}

func New(spi drivers.SPI, cfg Config) *Port {
	return &Port{spi: spi, cfg: cfg}
}

func (p *Port) Init() error {
	if p.cfg.SetReset == nil || p.cfg.SetEnable == nil {
		return ErrMissingPin
	}
	p.cfg.SetReset(false)
	p.cfg.SetEnable(false)
	p.ready = true
	return nil
}

func (p *Port) Deinit() error {
	if p.ready {
		p.cfg.SetEnable(false)
	}
	p.ready = false
	return nil
}

func (p *Port) Transfer32(tx uint32) (uint32, error) {
	if !p.ready {
		return 0, ErrNotReady
	}
	p.w[0] = byte(tx >> 24)
	p.w[1] = byte(tx >> 16)
	p.w[2] = byte(tx >> 8)
	p.w[3] = byte(tx)
	if err := p.spi.Tx(p.w[:], p.r[:]); err != nil {
		return 0, err
	}
	return uint32(p.r[0])<<24 | uint32(p.r[1])<<16 | uint32(p.r[2])<<8 | uint32(p.r[3]), nil
}

func (p *Port) TransferMany(tx []uint32, rx []uint32) error {
	if len(tx) != len(rx) {
		return ErrLength
	}
	for i, f := range tx {
		r, err := p.Transfer32(f)
		if err != nil {
			return err
		}
		rx[i] = r
	}
	return nil
}

func (p *Port) Delay(microseconds uint32) error {
	d := time.Duration(microseconds) * time.Microsecond
	if p.cfg.Sleep != nil {
		p.cfg.Sleep(d)
	} else {
		time.Sleep(d)
	}
	return nil
}

func (p *Port) SetControlPin(pin tle92466.ControlPin, level tle92466.PinLevel) error {
	active := level == tle92466.PinActive
	switch pin {
	case tle92466.PinReset:
		p.cfg.SetReset(active)
	case tle92466.PinEnable:
		p.cfg.SetEnable(active)
	default:
		return errors.New("spiport: fault line is input only")
	}
	return nil
}

func (p *Port) GetControlPin(pin tle92466.ControlPin) (tle92466.PinLevel, error) {
	if pin != tle92466.PinFault {
		return tle92466.PinInactive, errors.New("spiport: only the fault line is readable")
	}
	if p.cfg.ReadFault != nil && p.cfg.ReadFault() {
		return tle92466.PinActive, nil
	}
	return tle92466.PinInactive, nil
}

func (p *Port) IsReady() bool { return p.ready }
