// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tracefs

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFieldBytesFixed(t *testing.T) {
	field := &FieldFormat{Name: "pid", Offset: 4, Size: 4, Encoding: EncodingSigned32, Signed: true}
	record := make([]byte, 8)
	binary.LittleEndian.PutUint32(record[4:], uint32(int32(-7)))

	v, err := GetFieldBytes(field, record, binary.LittleEndian)
	require.NoError(t, err)
	got, err := v.I32()
	require.NoError(t, err)
	assert.EqualValues(t, -7, got)
}

func TestGetFieldBytesOutOfRange(t *testing.T) {
	field := &FieldFormat{Name: "pid", Offset: 4, Size: 8}
	record := make([]byte, 8)
	_, err := GetFieldBytes(field, record, binary.LittleEndian)
	assert.Error(t, err)
}

func TestGetFieldBytesDataLoc(t *testing.T) {
	field := &FieldFormat{Name: "msg", Offset: 16, Size: 4, IsDynamicArray: true, Encoding: EncodingStringLength}
	record := make([]byte, 32)
	payload := []byte("hello\x00\x00\x00")
	copy(record[24:], payload)
	binary.LittleEndian.PutUint16(record[16:18], 24)
	binary.LittleEndian.PutUint16(record[18:20], uint16(len(payload)))

	v, err := GetFieldBytes(field, record, binary.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, "hello", v.String())
}

func TestGetFieldBytesRelLoc(t *testing.T) {
	field := &FieldFormat{Name: "msg", Offset: 16, Size: 4, IsDynamicArray: true, IsRelLoc: true, Encoding: EncodingStringLength}
	record := make([]byte, 32)
	payload := []byte("hi\x00")
	// __rel_loc offset is relative to the end of the descriptor field itself.
	relOff := 28 - (field.Offset + 4)
	copy(record[28:], payload)
	binary.LittleEndian.PutUint16(record[16:18], uint16(relOff))
	binary.LittleEndian.PutUint16(record[18:20], uint16(len(payload)))

	v, err := GetFieldBytes(field, record, binary.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, "hi", v.String())
}

func TestGetFieldBytesDataLocOutOfRange(t *testing.T) {
	field := &FieldFormat{Name: "msg", Offset: 0, Size: 4, IsDynamicArray: true}
	record := make([]byte, 4)
	binary.LittleEndian.PutUint16(record[0:2], 100) // points way past the record
	binary.LittleEndian.PutUint16(record[2:4], 4)
	_, err := GetFieldBytes(field, record, binary.LittleEndian)
	assert.Error(t, err)
}

func TestGetFieldValueTypes(t *testing.T) {
	record := make([]byte, 16)
	binary.BigEndian.PutUint64(record[0:8], 0x0102030405060708)
	binary.BigEndian.PutUint32(record[8:12], 42)

	u64Field := &FieldFormat{Name: "u64", Offset: 0, Size: 8, Encoding: EncodingUnsigned64}
	v, err := GetFieldValue(u64Field, record, binary.BigEndian)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), v)

	u32Field := &FieldFormat{Name: "u32", Offset: 8, Size: 4, Encoding: EncodingUnsigned32}
	v, err = GetFieldValue(u32Field, record, binary.BigEndian)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), v)
}

func TestValueShortRead(t *testing.T) {
	field := &FieldFormat{Name: "x", Offset: 0, Size: 1}
	record := []byte{0xff}
	v, err := GetFieldBytes(field, record, binary.LittleEndian)
	require.NoError(t, err)
	_, err = v.U32()
	assert.Error(t, err)
}

func TestValueIPv4(t *testing.T) {
	field := &FieldFormat{Name: "addr", Offset: 0, Size: 4}
	record := []byte{127, 0, 0, 1}
	v, err := GetFieldBytes(field, record, binary.LittleEndian)
	require.NoError(t, err)
	ip, err := v.IPv4()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", ip.String())
}

func TestValueElemNumericArray(t *testing.T) {
	// u32[4], as produced by the parser for a fixed-size non-char
	// array field: ElemSize = Size / array length.
	field := &FieldFormat{Name: "vals", Offset: 0, Size: 16, ElemSize: 4, Encoding: EncodingByteArray}
	record := make([]byte, 16)
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint32(record[i*4:], uint32((i+1)*11))
	}

	v, err := GetFieldBytes(field, record, binary.LittleEndian)
	require.NoError(t, err)
	require.Equal(t, 4, v.ElementCount())

	for i := 0; i < 4; i++ {
		elem, err := v.Elem(i)
		require.NoError(t, err)
		got, err := elem.U32()
		require.NoError(t, err)
		assert.EqualValues(t, (i+1)*11, got)
	}

	_, err = v.Elem(4)
	assert.Error(t, err)
	_, err = v.Elem(-1)
	assert.Error(t, err)
}

func TestValueElemScalarIsSingleElement(t *testing.T) {
	field := &FieldFormat{Name: "x", Offset: 0, Size: 4, Encoding: EncodingUnsigned32}
	record := []byte{1, 2, 3, 4}
	v, err := GetFieldBytes(field, record, binary.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, 1, v.ElementCount())

	elem, err := v.Elem(0)
	require.NoError(t, err)
	assert.Equal(t, v.Bytes(), elem.Bytes())

	_, err = v.Elem(1)
	assert.Error(t, err)
}

func TestValueGUID(t *testing.T) {
	field := &FieldFormat{Name: "guid", Offset: 0, Size: 16}
	record := []byte{
		0x04, 0x03, 0x02, 0x01, // data1, little endian
		0x06, 0x05, // data2, little endian
		0x08, 0x07, // data3, little endian
		0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10, // data4, raw bytes
	}
	v, err := GetFieldBytes(field, record, binary.LittleEndian)
	require.NoError(t, err)
	guid, err := v.GUID()
	require.NoError(t, err)
	want := [16]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
	assert.Equal(t, want, guid)
}
