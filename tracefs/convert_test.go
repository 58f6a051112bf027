// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tracefs

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertHexDec(t *testing.T) {
	assert.Equal(t, "0xFF", Convert.Hex(255))
	assert.Equal(t, "0x0", Convert.Hex(0))
	assert.Equal(t, "-12", Convert.Dec(-12))
}

func TestConvertHexBytes(t *testing.T) {
	assert.Equal(t, "", Convert.HexBytes(nil))
	assert.Equal(t, "AB", Convert.HexBytes([]byte{0xAB}))
	got := Convert.HexBytes([]byte{0xAB, 0x01, 0xFF})
	assert.Equal(t, "AB 01 FF", got)
	assert.Equal(t, 3*3-1, len(got))
}

func TestConvertFloatSpecials(t *testing.T) {
	assert.Equal(t, "NaN", Convert.Float(math.NaN()))
	assert.Equal(t, "Infinity", Convert.Float(math.Inf(1)))
	assert.Equal(t, "-Infinity", Convert.Float(math.Inf(-1)))
	assert.Equal(t, "1.5", Convert.Float(1.5))
}

func TestConvertIP(t *testing.T) {
	assert.Equal(t, "10.0.0.1", Convert.IPv4([4]byte{10, 0, 0, 1}))
	b := [16]byte{0x20, 0x01, 0x0d, 0xb8}
	assert.NotEmpty(t, Convert.IPv6(b))
}

func TestConvertUnixTime(t *testing.T) {
	tm := Convert.UnixTime32(0)
	assert.Equal(t, 1970, tm.Year())
}

func TestConvertUTF16(t *testing.T) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint16(b[0:2], 'h')
	binary.LittleEndian.PutUint16(b[2:4], 'i')
	binary.LittleEndian.PutUint16(b[4:6], 0)
	binary.LittleEndian.PutUint16(b[6:8], 'x')
	assert.Equal(t, "hi", Convert.UTF16(b, binary.LittleEndian), "stops at embedded NUL")
}

func TestConvertUTF32(t *testing.T) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b[0:4], 'A')
	binary.LittleEndian.PutUint32(b[4:8], 'B')
	assert.Equal(t, "AB", Convert.UTF32(b, binary.LittleEndian))
}

func TestConvertEncodingFromBOM(t *testing.T) {
	cases := []struct {
		b        []byte
		encoding string
		skip     int
	}{
		{[]byte{0xEF, 0xBB, 0xBF, 'x'}, "UTF-8", 3},
		{[]byte{0xFF, 0xFE, 0, 0, 'x'}, "UTF-32LE", 4},
		{[]byte{0, 0, 0xFE, 0xFF, 'x'}, "UTF-32BE", 4},
		{[]byte{0xFF, 0xFE, 'x'}, "UTF-16LE", 2},
		{[]byte{0xFE, 0xFF, 'x'}, "UTF-16BE", 2},
		{[]byte("plain text"), "None", 0},
		{nil, "None", 0},
	}
	for _, c := range cases {
		enc, skip := Convert.EncodingFromBOM(c.b)
		assert.Equal(t, c.encoding, enc)
		assert.Equal(t, c.skip, skip)
	}
}

func TestConvertErrnoLookup(t *testing.T) {
	assert.Equal(t, "ENOENT", Convert.ErrnoLookup(2))
}

func TestConvertBoolean(t *testing.T) {
	assert.Equal(t, "false", Convert.Boolean(0))
	assert.Equal(t, "true", Convert.Boolean(1))
	assert.Equal(t, "5", Convert.Boolean(5), "non-0/1 values render as their signed decimal value, not \"true\"")
	assert.Equal(t, "-1", Convert.Boolean(0xFFFFFFFF))
}
