package tle92466

// PinLevel is the logical level of a control line. Reset and Enable are
// described in logical terms; electrical polarity is the adapter's business.
type PinLevel uint8

const (
	PinInactive PinLevel = iota
	PinActive
)

// ControlPin identifies one of the device's sideband control lines.
type ControlPin uint8

const (
	PinReset ControlPin = iota
	PinEnable
	PinFault // input only
)

// Transport is the half-duplex bus port the driver talks through.
//
// Transfer32 performs exactly one blocking full-duplex 32-bit exchange,
// MSB-first on the wire, and returns the word clocked in during that
// exchange. The driver never pipelines: at most one frame is in flight.
// Timeouts, if the platform has any, surface as errors from Transfer32 and
// should carry CodeTimeout so the driver can classify them.
type Transport interface {
	Init() error
	Deinit() error

	Transfer32(tx uint32) (uint32, error)
	// TransferMany applies Transfer32 to each element in sequence.
	// len(rx) must equal len(tx).
	TransferMany(tx []uint32, rx []uint32) error

	// Delay blocks for at least the given number of microseconds.
	Delay(microseconds uint32) error

	SetControlPin(pin ControlPin, level PinLevel) error
	GetControlPin(pin ControlPin) (PinLevel, error)

	IsReady() bool
}
