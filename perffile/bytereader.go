// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perffile

import "encoding/binary"

// A ByteReader does endian-aware primitive reads from borrowed byte
// spans. It holds no state but the file's byte order and never does
// I/O of its own; callers are responsible for bounds-checking the
// spans they pass in.
//
// perf.data files are written in the byte order of the machine that
// recorded them, which the file header's magic number reveals. A
// ByteReader lets the rest of the package (and the tracefs and
// eventheader packages layered on top of it) decode multi-byte
// fields without caring whether that matches the host's own byte
// order.
type ByteReader struct {
	fromBigEndian bool
}

// NewByteReader returns a ByteReader for data encoded in fromBigEndian
// byte order.
func NewByteReader(fromBigEndian bool) ByteReader {
	return ByteReader{fromBigEndian}
}

// FromBigEndian reports whether r reads data in big-endian byte
// order.
func (r ByteReader) FromBigEndian() bool {
	return r.fromBigEndian
}

// HostEndian reports whether r's byte order matches the host's
// native byte order.
func (r ByteReader) HostEndian() bool {
	return r.fromBigEndian == hostIsBigEndian
}

// SwapEndian returns a ByteReader for the opposite byte order of r.
func (r ByteReader) SwapEndian() ByteReader {
	return ByteReader{!r.fromBigEndian}
}

// order returns the binary.ByteOrder matching r.
func (r ByteReader) order() binary.ByteOrder {
	if r.fromBigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (r ByteReader) ReadU16(b []byte, off int) uint16 {
	return r.order().Uint16(b[off:])
}

func (r ByteReader) ReadU32(b []byte, off int) uint32 {
	return r.order().Uint32(b[off:])
}

func (r ByteReader) ReadU64(b []byte, off int) uint64 {
	return r.order().Uint64(b[off:])
}

func (r ByteReader) ReadI8(b []byte, off int) int8 {
	return int8(b[off])
}

func (r ByteReader) ReadI16(b []byte, off int) int16 {
	return int16(r.ReadU16(b, off))
}

func (r ByteReader) ReadI32(b []byte, off int) int32 {
	return int32(r.ReadU32(b, off))
}

func (r ByteReader) ReadI64(b []byte, off int) int64 {
	return int64(r.ReadU64(b, off))
}

// ReadU128 reads a 128-bit value as low, high 64-bit words in r's
// byte order (i.e., for little-endian data, the first 8 bytes are
// the low word).
func (r ByteReader) ReadU128(b []byte, off int) (lo, hi uint64) {
	if r.fromBigEndian {
		return r.ReadU64(b, off+8), r.ReadU64(b, off)
	}
	return r.ReadU64(b, off), r.ReadU64(b, off+8)
}

// FixU16 returns x, byte-swapped if r is not host-endian.
func (r ByteReader) FixU16(x uint16) uint16 {
	if r.HostEndian() {
		return x
	}
	return x<<8 | x>>8
}

// FixU32 returns x, byte-swapped if r is not host-endian.
func (r ByteReader) FixU32(x uint32) uint32 {
	if r.HostEndian() {
		return x
	}
	return x<<24 | (x&0xff00)<<8 | (x>>8)&0xff00 | x>>24
}

// FixU64 returns x, byte-swapped if r is not host-endian.
func (r ByteReader) FixU64(x uint64) uint64 {
	if r.HostEndian() {
		return x
	}
	var out uint64
	for i := 0; i < 8; i++ {
		out = out<<8 | x&0xff
		x >>= 8
	}
	return out
}

// hostIsBigEndian reports whether the host's native byte order is
// big-endian, determined by checking how binary.NativeEndian orders
// a known two-byte value.
var hostIsBigEndian = binary.NativeEndian.Uint16([]byte{0x00, 0x01}) == 1
