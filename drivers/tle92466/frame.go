package tle92466

// Wire frame, 32 bits, MSB-first on the bus.
//
// Transmit:  [31:24] CRC | [23:17] register address | [16] write flag | [15:0] data
// Receive:   [23:22] selects one of three layouts (see ReplyMode).
//
// The CRC covers the low 24 bits. Reply classification must happen before any
// field access: a critical-fault reply has no CRC byte at all.

// CRC-8 configuration (SAE J1850). Hardware-specified; kept in one place so a
// datasheet correction is a one-line change.
const (
	crcPoly   = 0x1D
	crcInit   = 0xFF
	crcXorOut = 0xFF
)

// crc8 computes the frame checksum over the 24 payload bits, MSB-first.
func crc8(frame uint32) uint8 {
	crc := uint8(crcInit)
	for shift := 16; shift >= 0; shift -= 8 {
		crc ^= uint8(frame >> shift)
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ crcPoly
			} else {
				crc <<= 1
			}
		}
	}
	return crc ^ crcXorOut
}

// EncodeRead builds a read request for the given register address.
func EncodeRead(addr uint16) uint32 {
	f := uint32(addr&0x7F) << 17
	return f | uint32(crc8(f))<<24
}

// EncodeWrite builds a write request carrying a 16-bit value.
func EncodeWrite(addr uint16, value uint16) uint32 {
	f := uint32(addr&0x7F)<<17 | 1<<16 | uint32(value)
	return f | uint32(crc8(f))<<24
}

// WithCRC stamps the checksum byte onto the 24 payload bits of a frame.
// Intended for transports and device models that synthesize reply frames.
func WithCRC(frame uint32) uint32 {
	return frame&0x00FFFFFF | uint32(crc8(frame&0x00FFFFFF))<<24
}

// VerifyCRC reports whether the frame's CRC byte matches its payload.
// Meaningless for critical-fault replies; callers classify first.
func VerifyCRC(frame uint32) bool {
	return uint8(frame>>24) == crc8(frame&0x00FFFFFF)
}

// ReplyMode selects the receive-frame layout, bits [23:22].
type ReplyMode uint8

const (
	Reply16       ReplyMode = 0 // 5-bit status, rw echo, 16-bit data
	Reply22       ReplyMode = 1 // 22-bit wide data
	ReplyCritical ReplyMode = 2 // fixed hardware-health flags, no CRC
)

// SPIStatus is the 5-bit status field of a 16-bit reply. Zero means the
// request was accepted.
type SPIStatus uint8

const (
	StatusFrameError SPIStatus = 1 << 0 // malformed request frame
	StatusCRCError   SPIStatus = 1 << 1 // device saw a parity/CRC error on the request
	StatusReadOnly   SPIStatus = 1 << 2 // write addressed a read-only register
	StatusBusFault   SPIStatus = 1 << 3 // internal register-bus fault
)

// HealthFlags are the fixed hardware-health bits [7:0] of a critical-fault
// reply. When the device is in this state it answers every frame with them.
type HealthFlags uint8

const (
	HealthVDDUndervolt HealthFlags = 1 << 0
	HealthClockLoss    HealthFlags = 1 << 1
	HealthOTPError     HealthFlags = 1 << 2
	HealthInternalRst  HealthFlags = 1 << 3
	HealthOverTempHard HealthFlags = 1 << 4
)

// Reply is the decoded view of one receive frame. Which fields are
// meaningful depends on Mode.
type Reply struct {
	Mode      ReplyMode
	Status    SPIStatus   // Reply16 only
	WriteEcho bool        // Reply16 only
	Data      uint32      // Reply16: 16 bits; Reply22: 22 bits
	Health    HealthFlags // ReplyCritical only
}

// DecodeReply classifies and decodes a receive frame. verify controls CRC
// checking for the two CRC-carrying layouts; a critical-fault reply is never
// CRC-checked and is surfaced as a hardware error carrying the health flags.
func DecodeReply(frame uint32, verify bool) (Reply, error) {
	mode := ReplyMode(frame >> 22 & 0x3)
	switch mode {
	case ReplyCritical:
		r := Reply{Mode: ReplyCritical, Health: HealthFlags(frame & 0xFF)}
		return r, opErr(CodeHardware, "critical-fault reply")
	case Reply22:
		if verify && !VerifyCRC(frame) {
			return Reply{Mode: mode}, opErr(CodeCRC, "decode")
		}
		return Reply{Mode: Reply22, Data: frame & 0x3FFFFF}, nil
	case Reply16:
		if verify && !VerifyCRC(frame) {
			return Reply{Mode: mode}, opErr(CodeCRC, "decode")
		}
		r := Reply{
			Mode:      Reply16,
			Status:    SPIStatus(frame >> 17 & 0x1F),
			WriteEcho: frame&(1<<16) != 0,
			Data:      frame & 0xFFFF,
		}
		// Status is meaningful even when the CRC passed.
		if r.Status != 0 {
			return r, statusErr(r.Status)
		}
		return r, nil
	default:
		return Reply{Mode: mode}, opErr(CodeSPIFrame, "decode: reserved reply mode")
	}
}

// statusErr maps a non-zero 5-bit status to a protocol-level error kind.
func statusErr(s SPIStatus) *Error {
	switch {
	case s&StatusReadOnly != 0:
		return opErr(CodeWriteToReadOnly, "status")
	case s&StatusCRCError != 0:
		return opErr(CodeCRC, "status")
	case s&StatusBusFault != 0:
		return opErr(CodeRegister, "status")
	default:
		return opErr(CodeSPIFrame, "status")
	}
}
