package tle92466

import "tle92466-go/x/conv"

// Code is a stable error identifier. It is a string newtype, comparable,
// allocation-free, and implements error, so callers can match with
// errors.Is(err, tle92466.CodeWrongMode).
type Code string

func (c Code) Error() string { return "tle92466: " + string(c) }

// Canonical codes.
const (
	CodeHardware         Code = "hardware_error"    // transport-level failure
	CodeTimeout          Code = "timeout"           // transport-reported timeout
	CodeCRC              Code = "crc_error"         // reply failed CRC verification
	CodeWrongDeviceID    Code = "wrong_device_id"   // identity register rejected
	CodeInvalidChannel   Code = "invalid_channel"   // channel index out of range / not addressable
	CodeInvalidParameter Code = "invalid_parameter" // value outside representable range
	CodeWrongMode        Code = "wrong_mode"        // operation not legal in current mode
	CodeSPIFrame         Code = "spi_frame_error"   // device flagged the request frame
	CodeWriteToReadOnly  Code = "write_to_read_only"
	CodeRegister         Code = "register_error" // internal register-bus fault / verify mismatch
	CodeNotInitialized   Code = "not_initialized"
)

// addrNone marks an Error that carries no register address.
const addrNone uint16 = 0xFFFF

// Error keeps context alongside a Code: the operation, the register address
// involved, and an underlying cause.
type Error struct {
	C    Code
	Op   string
	Addr uint16 // addrNone when not applicable
	Err  error
}

func (e *Error) Error() string {
	s := "tle92466: "
	if e.Op != "" {
		s += e.Op + ": "
	}
	s += string(e.C)
	if e.Addr != addrNone {
		var buf [4]byte
		s += " reg 0x" + string(conv.U16Hex(buf[:], e.Addr))
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match an *Error against a bare Code.
func (e *Error) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Code returns the error's classification.
func (e *Error) Code() Code { return e.C }

// CodeOf extracts a Code from an error chain, defaulting to CodeHardware for
// unclassified errors and "" for nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return CodeHardware
}

func opErr(c Code, op string) *Error {
	return &Error{C: c, Op: op, Addr: addrNone}
}

func regErr(c Code, op string, addr uint16, err error) *Error {
	return &Error{C: c, Op: op, Addr: addr, Err: err}
}

// wrapTransport classifies a transport failure: adapters report timeouts as
// CodeTimeout, everything else collapses to CodeHardware.
func wrapTransport(op string, addr uint16, err error) *Error {
	c := CodeHardware
	if CodeOf(err) == CodeTimeout {
		c = CodeTimeout
	}
	return &Error{C: c, Op: op, Addr: addr, Err: err}
}
