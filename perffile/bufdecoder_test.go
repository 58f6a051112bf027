// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perffile

import (
	"encoding/binary"
	"testing"
)

func TestBufDecoderShortU64(t *testing.T) {
	bd := &bufDecoder{buf: []byte{1, 2, 3}, order: binary.LittleEndian}
	if got := bd.u64(); got != 0 {
		t.Errorf("u64() on a 3-byte buffer = %d, want 0", got)
	}
	if !bd.truncated {
		t.Error("truncated = false after a short u64 read")
	}
}

func TestBufDecoderExactReadsNotTruncated(t *testing.T) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, 0x1122334455667788)
	bd := &bufDecoder{buf: buf, order: binary.LittleEndian}
	if got := bd.u64(); got != 0x1122334455667788 {
		t.Errorf("u64() = %#x, want 0x1122334455667788", got)
	}
	if bd.truncated {
		t.Error("truncated = true after an exact-length read")
	}
}

func TestBufDecoderShortBytes(t *testing.T) {
	bd := &bufDecoder{buf: []byte{9, 9}, order: binary.LittleEndian}
	dst := make([]byte, 4)
	bd.bytes(dst)
	if !bd.truncated {
		t.Error("truncated = false after a short bytes() read")
	}
	for i, b := range dst {
		if b != 0 {
			t.Errorf("dst[%d] = %d, want 0 on a short read", i, b)
		}
	}
}

func TestBufDecoderShortU64sLeavesZeroes(t *testing.T) {
	bd := &bufDecoder{buf: []byte{1, 2, 3}, order: binary.LittleEndian}
	dst := make([]uint64, 2)
	bd.u64s(dst)
	if !bd.truncated {
		t.Error("truncated = false after a short u64s() read")
	}
	if dst[0] != 0 || dst[1] != 0 {
		t.Errorf("dst = %v, want [0 0] on a short read", dst)
	}
}

func TestBufDecoderSequentialReadsDoNotPanic(t *testing.T) {
	// A trailer shorter than a full sample_id: only 4 bytes remain
	// where PID, TID, Time, StreamID, CPU, Res would all be read.
	bd := &bufDecoder{buf: []byte{0xaa, 0xbb, 0xcc, 0xdd}, order: binary.LittleEndian}
	pid := bd.i32If(true)
	tid := bd.i32If(true) // already out of bytes; must not panic
	tm := bd.u64If(true)
	if tid != 0 || tm != 0 {
		t.Errorf("reads past the end of buf returned non-zero: tid=%d time=%d", tid, tm)
	}
	_ = pid
	if !bd.truncated {
		t.Error("truncated = false after reading past the end of buf")
	}
}
