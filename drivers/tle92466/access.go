package tle92466

import "tle92466-go/x/conv"

// Register access layer: one frame in flight, ever. All register I/O of the
// driver funnels through readReg/writeReg/modifyReg.

// crcOpt is the per-call CRC-verification override. Default falls back to
// the device-wide flag; init passes crcOff until CRC mode is provisioned.
type crcOpt uint8

const (
	crcDefault crcOpt = iota
	crcOn
	crcOff
)

func (d *Device) shouldVerify(v crcOpt) bool {
	switch v {
	case crcOn:
		return true
	case crcOff:
		return false
	default:
		return d.crcEnabled
	}
}

// exchange runs one 32-bit round trip and decodes the reply.
func (d *Device) exchange(op string, addr uint16, tx uint32, v crcOpt) (Reply, error) {
	rx, err := d.port.Transfer32(tx)
	if err != nil {
		return Reply{}, wrapTransport(op, addr, err)
	}
	rep, err := DecodeReply(rx, d.shouldVerify(v))
	if err != nil {
		return rep, regErr(CodeOf(err), op, addr, err)
	}
	return rep, nil
}

// readReg reads one register. Wide registers answer with a 22-bit reply;
// everything else with a 16-bit one. A reply of the wrong shape is a frame
// error.
func (d *Device) readReg(addr uint16, v crcOpt) (uint32, error) {
	rep, err := d.exchange("read", addr, EncodeRead(addr), v)
	if err != nil {
		return 0, err
	}
	want := Reply16
	if wideRegister(addr) {
		want = Reply22
	}
	if rep.Mode != want {
		return 0, regErr(CodeSPIFrame, "read: unexpected reply mode", addr, nil)
	}
	return rep.Data, nil
}

// writeReg writes one register and, depending on its access class, verifies:
//
//   - regNormal: read back and compare when verification is in effect; a
//     mismatch is a register error.
//   - regW1C: read back; a mismatch is expected whenever the latch condition
//     persists, so it is logged at most and never fails the write.
//   - regWriteOnly: no read back (the read path lies); refresh the shadow
//     cache instead.
func (d *Device) writeReg(addr uint16, value uint16, v crcOpt) error {
	rep, err := d.exchange("write", addr, EncodeWrite(addr, value), v)
	if err != nil {
		return err
	}
	if rep.Mode != Reply16 {
		return regErr(CodeSPIFrame, "write: unexpected reply mode", addr, nil)
	}

	switch classOf(addr) {
	case regWriteOnly:
		d.shadow[addr] = value
		return nil
	case regW1C:
		if !d.shouldVerify(v) {
			return nil
		}
		got, err := d.readReg(addr, v)
		if err != nil {
			return err
		}
		if uint16(got) != value {
			d.logf("w1c readback mismatch (latch still set)", addr)
		}
		return nil
	default:
		if !d.shouldVerify(v) {
			return nil
		}
		got, err := d.readReg(addr, v)
		if err != nil {
			return err
		}
		if uint16(got) != value {
			return regErr(CodeRegister, "write verify mismatch", addr, nil)
		}
		return nil
	}
}

// modifyReg read-modify-writes the masked bits. For write-only-effective
// registers the pre-write value comes from the shadow cache, never from a
// hardware read that would report stale bits.
func (d *Device) modifyReg(addr uint16, mask, value uint16, v crcOpt) error {
	var cur uint16
	if classOf(addr) == regWriteOnly {
		cur = d.shadow[addr]
	} else {
		got, err := d.readReg(addr, v)
		if err != nil {
			return err
		}
		cur = uint16(got)
	}
	return d.writeReg(addr, cur&^mask|value&mask, v)
}

func (d *Device) logf(msg string, addr uint16) {
	if d.log == nil {
		return
	}
	var buf [4]byte
	d.log("tle92466: " + msg + " reg 0x" + string(conv.U16Hex(buf[:], addr)))
}
