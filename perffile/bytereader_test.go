// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perffile

import "testing"

func TestByteReaderLittleEndian(t *testing.T) {
	r := NewByteReader(false)
	b := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	if got := r.ReadU16(b, 0); got != 0x0201 {
		t.Errorf("ReadU16 = %#x, want 0x0201", got)
	}
	if got := r.ReadU32(b, 0); got != 0x04030201 {
		t.Errorf("ReadU32 = %#x, want 0x04030201", got)
	}
	if got := r.ReadU64(b, 0); got != 0x0807060504030201 {
		t.Errorf("ReadU64 = %#x, want 0x0807060504030201", got)
	}
	if r.FromBigEndian() {
		t.Error("FromBigEndian() = true for a little-endian reader")
	}
}

func TestByteReaderBigEndian(t *testing.T) {
	r := NewByteReader(true)
	b := []byte{0x01, 0x02, 0x03, 0x04}
	if got := r.ReadU32(b, 0); got != 0x01020304 {
		t.Errorf("ReadU32 = %#x, want 0x01020304", got)
	}
	if !r.FromBigEndian() {
		t.Error("FromBigEndian() = false for a big-endian reader")
	}
}

func TestByteReaderSwapEndian(t *testing.T) {
	r := NewByteReader(false)
	swapped := r.SwapEndian()
	if !swapped.FromBigEndian() {
		t.Error("SwapEndian() of a little-endian reader is not big-endian")
	}
	if swapped.SwapEndian().FromBigEndian() {
		t.Error("SwapEndian() twice did not return to little-endian")
	}
}

func TestByteReaderReadU128(t *testing.T) {
	b := make([]byte, 16)
	for i := range b {
		b[i] = byte(i + 1)
	}

	le := NewByteReader(false)
	lo, hi := le.ReadU128(b, 0)
	if lo != le.ReadU64(b, 0) || hi != le.ReadU64(b, 8) {
		t.Errorf("little-endian ReadU128 = (%#x, %#x), want (%#x, %#x)", lo, hi, le.ReadU64(b, 0), le.ReadU64(b, 8))
	}

	be := NewByteReader(true)
	lo, hi = be.ReadU128(b, 0)
	if lo != be.ReadU64(b, 8) || hi != be.ReadU64(b, 0) {
		t.Errorf("big-endian ReadU128 = (%#x, %#x), want (%#x, %#x)", lo, hi, be.ReadU64(b, 8), be.ReadU64(b, 0))
	}
}

func TestByteReaderFixRoundTrip(t *testing.T) {
	const u16 = uint16(0x1234)
	const u32 = uint32(0x12345678)
	const u64 = uint64(0x1122334455667788)

	host := NewByteReader(hostIsBigEndian)
	if got := host.FixU16(u16); got != u16 {
		t.Errorf("FixU16 on a host-endian reader = %#x, want unchanged %#x", got, u16)
	}
	if got := host.FixU32(u32); got != u32 {
		t.Errorf("FixU32 on a host-endian reader = %#x, want unchanged %#x", got, u32)
	}
	if got := host.FixU64(u64); got != u64 {
		t.Errorf("FixU64 on a host-endian reader = %#x, want unchanged %#x", got, u64)
	}

	nonHost := NewByteReader(!hostIsBigEndian)
	if got := nonHost.FixU16(nonHost.FixU16(u16)); got != u16 {
		t.Errorf("FixU16 twice = %#x, want %#x", got, u16)
	}
	if got := nonHost.FixU32(nonHost.FixU32(u32)); got != u32 {
		t.Errorf("FixU32 twice = %#x, want %#x", got, u32)
	}
	if got := nonHost.FixU64(nonHost.FixU64(u64)); got != u64 {
		t.Errorf("FixU64 twice = %#x, want %#x", got, u64)
	}
	if nonHost.FixU16(u16) == u16 {
		t.Error("FixU16 on a non-host-endian reader left the value unchanged")
	}
}
