// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perffile

import "encoding/binary"

// bufDecoder decodes fixed-layout binary structures out of a byte
// slice, advancing past each field as it's read. Every read is
// bounds-checked: a read that would run past the end of buf leaves
// truncated set and returns the zero value instead of panicking, so a
// record whose declared SampleFormat promises more trailer bytes than
// the record actually has can be decoded as far as it goes rather than
// crashing Records.Next.
type bufDecoder struct {
	buf       []byte
	order     binary.ByteOrder
	truncated bool
}

// take returns the next n bytes of b.buf and advances past them, or
// reports false (and marks b truncated) if fewer than n bytes remain.
func (b *bufDecoder) take(n int) ([]byte, bool) {
	if n > len(b.buf) {
		b.truncated = true
		b.buf = nil
		return nil, false
	}
	x := b.buf[:n]
	b.buf = b.buf[n:]
	return x, true
}

func (b *bufDecoder) skip(n int) {
	b.take(n)
}

func (b *bufDecoder) bytes(x []byte) {
	src, ok := b.take(len(x))
	if !ok {
		for i := range x {
			x[i] = 0
		}
		return
	}
	copy(x, src)
}

func (b *bufDecoder) u16() uint16 {
	x, ok := b.take(2)
	if !ok {
		return 0
	}
	return b.order.Uint16(x)
}

func (b *bufDecoder) u32() uint32 {
	x, ok := b.take(4)
	if !ok {
		return 0
	}
	return b.order.Uint32(x)
}

func (b *bufDecoder) i32() int32 {
	return int32(b.u32())
}

func (b *bufDecoder) u64() uint64 {
	x, ok := b.take(8)
	if !ok {
		return 0
	}
	return b.order.Uint64(x)
}

func (b *bufDecoder) u64s(x []uint64) {
	src, ok := b.take(len(x) * 8)
	if !ok {
		for i := range x {
			x[i] = 0
		}
		return
	}
	for i := range x {
		x[i] = b.order.Uint64(src[i*8:])
	}
}

func (b *bufDecoder) u32If(cond bool) uint32 {
	if cond {
		return b.u32()
	}
	return 0
}

func (b *bufDecoder) i32If(cond bool) int32 {
	if cond {
		return b.i32()
	}
	return 0
}

func (b *bufDecoder) u64If(cond bool) uint64 {
	if cond {
		return b.u64()
	}
	return 0
}

func (b *bufDecoder) cstring() string {
	for i, c := range b.buf {
		if c == 0 {
			x := string(b.buf[:i])
			b.buf = b.buf[i+1:]
			return x
		}
	}
	// No terminator in the remaining bytes: take what's there and
	// mark truncated rather than reporting a (wrong) NUL-terminated
	// string or panicking on an empty buffer.
	x := string(b.buf)
	b.buf = nil
	if len(x) > 0 {
		b.truncated = true
	}
	return x
}

func (b *bufDecoder) lenString() string {
	l := b.u32()
	if l > uint32(len(b.buf)) {
		b.truncated = true
		l = uint32(len(b.buf))
	}
	str := (&bufDecoder{buf: b.buf[:l]}).cstring()
	b.buf = b.buf[l:]
	return str
}

func (b *bufDecoder) stringList() []string {
	out := []string{}
	count := b.u32()
	for i := uint32(0); i < count && !b.truncated; i++ {
		out = append(out, b.lenString())
	}
	return out
}
