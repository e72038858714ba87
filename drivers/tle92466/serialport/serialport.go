// Package serialport adapts a byte-oriented bridge — typically a small
// microcontroller relaying frames to the device's SPI pins — to the
// tle92466.Transport interface over a serial port.
//
// Bridge protocol, one request per line of action:
//
//	'X' f3 f2 f1 f0   exchange one 32-bit frame, answers 4 bytes MSB-first
//	'P' pin level     drive a control line, answers 1 ack byte
//	'G' pin           sample a control line, answers 1 level byte
//
// A read that the bridge does not answer within the configured timeout is
// reported as tle92466.CodeTimeout so the driver classifies it correctly.
package serialport

import (
	"errors"
	"time"

	"go.bug.st/serial"

	"tle92466-go/drivers/tle92466"
)

const (
	cmdExchange = 'X'
	cmdSetPin   = 'P'
	cmdGetPin   = 'G'

	ackOK = 0x06
)

var (
	ErrNotReady = errors.New("serialport: port not open")
	ErrBridge   = errors.New("serialport: bridge rejected the request")
	ErrLength   = errors.New("serialport: tx/rx length mismatch")
)

// Config selects the serial device and bridge timing.
type Config struct {
	// Name is the platform device path, e.g. "/dev/ttyACM0".
	Name string
	// BaudRate defaults to 115200 when zero.
	BaudRate int
	// ReadTimeout bounds each bridge answer; defaults to 500 ms.
	ReadTimeout time.Duration
}

// Port is a tle92466.Transport over a serial bridge.
type Port struct {
	cfg  Config
	port serial.Port
}

func New(cfg Config) *Port {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 115200
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 500 * time.Millisecond
	}
	return &Port{cfg: cfg}
}

func (p *Port) Init() error {
	mode := &serial.Mode{
		BaudRate: p.cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(p.cfg.Name, mode)
	if err != nil {
		return err
	}
	if err := port.SetReadTimeout(p.cfg.ReadTimeout); err != nil {
		port.Close()
		return err
	}
	p.port = port
	return nil
}

func (p *Port) Deinit() error {
	if p.port == nil {
		return nil
	}
	err := p.port.Close()
	p.port = nil
	return err
}

// readFull gathers exactly len(buf) bytes. go.bug.st/serial reports a read
// timeout as a zero-byte read, which surfaces here as CodeTimeout.
func (p *Port) readFull(buf []byte) error {
	for got := 0; got < len(buf); {
		n, err := p.port.Read(buf[got:])
		if err != nil {
			return err
		}
		if n == 0 {
			return tle92466.CodeTimeout
		}
		got += n
	}
	return nil
}

func (p *Port) request(req []byte, resp []byte) error {
	if p.port == nil {
		return ErrNotReady
	}
	if _, err := p.port.Write(req); err != nil {
		return err
	}
	return p.readFull(resp)
}

func (p *Port) Transfer32(tx uint32) (uint32, error) {
	req := [5]byte{cmdExchange, byte(tx >> 24), byte(tx >> 16), byte(tx >> 8), byte(tx)}
	var resp [4]byte
	if err := p.request(req[:], resp[:]); err != nil {
		return 0, err
	}
	return uint32(resp[0])<<24 | uint32(resp[1])<<16 | uint32(resp[2])<<8 | uint32(resp[3]), nil
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

// Delay runs host-side; the bridge itself adds no deliberate latency.
func (p *Port) Delay(microseconds uint32) error {
	time.Sleep(time.Duration(microseconds) * time.Microsecond)
	return nil
}

func (p *Port) SetControlPin(pin tle92466.ControlPin, level tle92466.PinLevel) error {
	req := [3]byte{cmdSetPin, byte(pin), byte(level)}
	var resp [1]byte
	if err := p.request(req[:], resp[:]); err != nil {
		return err
	}
	if resp[0] != ackOK {
		return ErrBridge
	}
	return nil
}

func (p *Port) GetControlPin(pin tle92466.ControlPin) (tle92466.PinLevel, error) {
	req := [2]byte{cmdGetPin, byte(pin)}
	var resp [1]byte
	if err := p.request(req[:], resp[:]); err != nil {
		return tle92466.PinInactive, err
	}
	if resp[0] != 0 {
		return tle92466.PinActive, nil
	}
	return tle92466.PinInactive, nil
}

func (p *Port) IsReady() bool { return p.port != nil }
