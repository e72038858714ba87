package simbus

import (
	"testing"

	"tle92466-go/drivers/tle92466"
)

func TestCRCCheckedOnlyAfterProvisioning(t *testing.T) {
	b := New()
	if err := b.Init(); err != nil {
		t.Fatal(err)
	}

	// Before GLOBAL_CONFIG enables CRC the device ignores the checksum byte.
	bad := tle92466.EncodeRead(regICVers) ^ 0xFF<<24
	rx, err := b.Transfer32(bad)
	if err != nil {
		t.Fatal(err)
	}
	if uint16(rx) != 0x0102 {
		t.Fatalf("identity read: 0x%08X", rx)
	}

	if _, err := b.Transfer32(tle92466.EncodeWrite(regGlobalConfig, crcEnableBit)); err != nil {
		t.Fatal(err)
	}
	rx, err = b.Transfer32(bad)
	if err != nil {
		t.Fatal(err)
	}
	rep, err := tle92466.DecodeReply(rx, true)
	if tle92466.CodeOf(err) != tle92466.CodeCRC {
		t.Fatalf("corrupt request after provisioning: %v (reply %+v)", err, rep)
	}
}

func TestResetReleaseReloadsPowerUpState(t *testing.T) {
	b := New()
	if err := b.Init(); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Transfer32(tle92466.EncodeWrite(regVBatTHUV, 375)); err != nil {
		t.Fatal(err)
	}
	if b.Reg(regVBatTHUV) != 375 {
		t.Fatal("write did not land")
	}

	b.SetControlPin(tle92466.PinReset, tle92466.PinActive)
	b.SetControlPin(tle92466.PinReset, tle92466.PinInactive)

	if b.Reg(regVBatTHUV) != 0 {
		t.Fatal("configuration survived a reset pulse")
	}
	if b.Reg(regGlobalDiag1)&porLatch == 0 {
		t.Fatal("POR flag not latched after reset release")
	}
}

func TestIdentityRegisterIsReadOnly(t *testing.T) {
	b := New()
	if err := b.Init(); err != nil {
		t.Fatal(err)
	}
	rx, err := b.Transfer32(tle92466.EncodeWrite(regICVers, 0xDEAD))
	if err != nil {
		t.Fatal(err)
	}
	_, err = tle92466.DecodeReply(rx, true)
	if tle92466.CodeOf(err) != tle92466.CodeWriteToReadOnly {
		t.Fatalf("identity write: %v", err)
	}
	if b.Reg(regICVers) != 0x0102 {
		t.Fatal("identity register changed")
	}
}

func TestWatchdogReadsAsCountdown(t *testing.T) {
	b := New()
	if err := b.Init(); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Transfer32(tle92466.EncodeWrite(regWDReload, 0xA5A5)); err != nil {
		t.Fatal(err)
	}
	rx, err := b.Transfer32(tle92466.EncodeRead(regWDReload))
	if err != nil {
		t.Fatal(err)
	}
	if uint16(rx) == 0xA5A5 {
		t.Fatal("reload register echoed the written key")
	}
}
