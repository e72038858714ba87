package tle92466

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for addr := uint16(0); addr < 0x80; addr += 7 {
		for _, val := range []uint16{0x0000, 0x0001, 0x7FFF, 0xA5A5, 0xFFFF} {
			tx := EncodeWrite(addr, val)
			if !VerifyCRC(tx) {
				t.Fatalf("write frame addr=0x%02X val=0x%04X fails own CRC", addr, val)
			}
			// A device echoing the data field back produces a clean reply.
			rep, err := DecodeReply(WithCRC(1<<16|uint32(val)), true)
			if err != nil {
				t.Fatalf("decode echo of 0x%04X: %v", val, err)
			}
			if rep.Mode != Reply16 || uint16(rep.Data) != val || !rep.WriteEcho {
				t.Fatalf("echo mismatch: %+v want data 0x%04X", rep, val)
			}
		}
	}
}

func TestVerifyCRCDetectsSingleBitFlips(t *testing.T) {
	frame := EncodeWrite(0x23, 0xC3A5)
	if !VerifyCRC(frame) {
		t.Fatal("reference frame fails CRC")
	}
	for bit := 0; bit < 24; bit++ {
		if VerifyCRC(frame ^ 1<<bit) {
			t.Errorf("flip of payload bit %d not detected", bit)
		}
	}
	for bit := 24; bit < 32; bit++ {
		if VerifyCRC(frame ^ 1<<bit) {
			t.Errorf("flip of CRC bit %d not detected", bit)
		}
	}
}

func TestDecodeWideReply(t *testing.T) {
	raw := uint32(Reply22)<<22 | 0x2FFFFF&0x3FFFFF
	rep, err := DecodeReply(WithCRC(raw), true)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rep.Mode != Reply22 || rep.Data != 0x2FFFFF {
		t.Fatalf("wide decode: %+v", rep)
	}
}

func TestDecodeCriticalFaultSkipsCRC(t *testing.T) {
	// CRC byte deliberately garbage: a critical-fault reply carries none.
	raw := uint32(ReplyCritical)<<22 | uint32(HealthClockLoss|HealthVDDUndervolt) | 0xDE<<24
	rep, err := DecodeReply(raw, true)
	if CodeOf(err) != CodeHardware {
		t.Fatalf("want hardware error, got %v", err)
	}
	if rep.Mode != ReplyCritical {
		t.Fatalf("mode: %v", rep.Mode)
	}
	want := HealthClockLoss | HealthVDDUndervolt
	if rep.Health&want != want {
		t.Fatalf("health flags: %08b", rep.Health)
	}
}

func TestDecodeStatusMapping(t *testing.T) {
	cases := []struct {
		status SPIStatus
		want   Code
	}{
		{StatusFrameError, CodeSPIFrame},
		{StatusCRCError, CodeCRC},
		{StatusReadOnly, CodeWriteToReadOnly},
		{StatusBusFault, CodeRegister},
	}
	for _, c := range cases {
		raw := WithCRC(uint32(c.status) << 17)
		_, err := DecodeReply(raw, true)
		if CodeOf(err) != c.want {
			t.Errorf("status %05b: got %v want %v", c.status, err, c.want)
		}
	}
}

func TestDecodeRejectsBadCRC(t *testing.T) {
	raw := WithCRC(0x1234) ^ 1<<3
	if _, err := DecodeReply(raw, true); CodeOf(err) != CodeCRC {
		t.Fatalf("want CRC error, got %v", err)
	}
	// With verification off the same frame decodes.
	if _, err := DecodeReply(raw, false); err != nil {
		t.Fatalf("unverified decode: %v", err)
	}
}
