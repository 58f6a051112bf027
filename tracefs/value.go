// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tracefs

import (
	"encoding/binary"
	"fmt"
	"math"
	"net"
)

// Value is a single field's decoded bytes plus enough type
// information to convert it further (see package tracefs's sibling
// Convert table). Value never copies the record buffer it was taken
// from; it borrows a slice into it, so it is only valid as long as
// the caller keeps that buffer alive.
type Value struct {
	Field *FieldFormat
	bytes []byte
	order binary.ByteOrder
}

// GetFieldBytes returns the raw bytes backing field within record,
// resolving __data_loc/__rel_loc indirection if the field uses it.
// order is the byte order record was written in; tracepoint records
// embedded in a perf.data file always inherit the file's own byte
// order (there is no independent per-tracepoint byte order).
func GetFieldBytes(field *FieldFormat, record []byte, order binary.ByteOrder) (Value, error) {
	if field.Offset+field.Size > len(record) {
		return Value{}, fmt.Errorf("tracefs: field %q out of range (offset %d size %d len %d)", field.Name, field.Offset, field.Size, len(record))
	}
	raw := record[field.Offset : field.Offset+field.Size]
	if !field.IsDynamicArray {
		return Value{field, raw, order}, nil
	}
	if len(raw) < 4 {
		return Value{}, fmt.Errorf("tracefs: dynamic array field %q too small", field.Name)
	}
	off := int(order.Uint16(raw[0:2]))
	length := int(order.Uint16(raw[2:4]))
	if field.IsRelLoc {
		off += field.Offset + 4
	}
	if off < 0 || off+length > len(record) {
		return Value{}, fmt.Errorf("tracefs: dynamic array field %q points out of range (off %d len %d record %d)", field.Name, off, length, len(record))
	}
	return Value{field, record[off : off+length], order}, nil
}

// GetFieldValue is a convenience wrapper combining GetFieldBytes with
// whichever typed accessor matches field.Encoding, returning the
// value boxed as interface{}. Prefer the typed accessors when the
// encoding is known statically.
func GetFieldValue(field *FieldFormat, record []byte, order binary.ByteOrder) (interface{}, error) {
	v, err := GetFieldBytes(field, record, order)
	if err != nil {
		return nil, err
	}
	switch field.Encoding {
	case EncodingSigned8:
		return v.I8()
	case EncodingSigned16:
		return v.I16()
	case EncodingSigned32:
		return v.I32()
	case EncodingSigned64:
		return v.I64()
	case EncodingUnsigned8:
		return v.U8()
	case EncodingUnsigned16:
		return v.U16()
	case EncodingUnsigned32:
		return v.U32()
	case EncodingUnsigned64:
		return v.U64()
	case EncodingFloat32:
		return v.F32()
	case EncodingFloat64:
		return v.F64()
	case EncodingStringFixed, EncodingStringLength:
		return v.String(), nil
	default:
		return v.Bytes(), nil
	}
}

func (v Value) Bytes() []byte { return v.bytes }

// ElementCount reports how many array elements v holds, using the
// field's ElemSize (which Parse sets for EncodingStringFixed and
// EncodingByteArray fields). A field with no ElemSize is treated as
// a scalar and has exactly one element.
func (v Value) ElementCount() int {
	if v.Field == nil || v.Field.ElemSize <= 0 {
		return 1
	}
	return len(v.bytes) / v.Field.ElemSize
}

// Elem returns the sub-Value of v's bytes at array index i, bounds
// checked against ElementCount. The result shares v's Field and byte
// order, so the usual typed accessors (U8/U16/U32/...) can be called
// on it directly to decode that one element.
func (v Value) Elem(i int) (Value, error) {
	n := v.ElementCount()
	if i < 0 || i >= n {
		return Value{}, fmt.Errorf("tracefs: element index %d out of range [0,%d)", i, n)
	}
	if v.Field == nil || v.Field.ElemSize <= 0 {
		return v, nil
	}
	sz := v.Field.ElemSize
	return Value{v.Field, v.bytes[i*sz : (i+1)*sz], v.order}, nil
}

func (v Value) U8() (uint8, error) {
	if len(v.bytes) < 1 {
		return 0, errShort(v.Field, 1)
	}
	return v.bytes[0], nil
}

func (v Value) I8() (int8, error) {
	u, err := v.U8()
	return int8(u), err
}

func (v Value) U16() (uint16, error) {
	if len(v.bytes) < 2 {
		return 0, errShort(v.Field, 2)
	}
	return v.order.Uint16(v.bytes), nil
}

func (v Value) I16() (int16, error) {
	u, err := v.U16()
	return int16(u), err
}

func (v Value) U32() (uint32, error) {
	if len(v.bytes) < 4 {
		return 0, errShort(v.Field, 4)
	}
	return v.order.Uint32(v.bytes), nil
}

func (v Value) I32() (int32, error) {
	u, err := v.U32()
	return int32(u), err
}

func (v Value) U64() (uint64, error) {
	if len(v.bytes) < 8 {
		return 0, errShort(v.Field, 8)
	}
	return v.order.Uint64(v.bytes), nil
}

func (v Value) I64() (int64, error) {
	u, err := v.U64()
	return int64(u), err
}

func (v Value) F32() (float32, error) {
	u, err := v.U32()
	return math.Float32frombits(u), err
}

func (v Value) F64() (float64, error) {
	u, err := v.U64()
	return math.Float64frombits(u), err
}

// String decodes a fixed or dynamic character array as a
// NUL-terminated (or whole-buffer, if no NUL appears) string.
func (v Value) String() string {
	for i, c := range v.bytes {
		if c == 0 {
			return string(v.bytes[:i])
		}
	}
	return string(v.bytes)
}

// IPv4 interprets the value's 4 bytes as an IPv4 address in network
// byte order, regardless of the record's own byte order -- addresses
// are always wire/network-order, per the file-endian-vs-network-order
// distinction this package's callers must make explicitly rather than
// inferring from a field's name.
func (v Value) IPv4() (net.IP, error) {
	if len(v.bytes) < 4 {
		return nil, errShort(v.Field, 4)
	}
	return net.IPv4(v.bytes[0], v.bytes[1], v.bytes[2], v.bytes[3]), nil
}

// IPv6 interprets the value's 16 bytes as an IPv6 address, which (like
// IPv4) is always carried in network byte order on the wire.
func (v Value) IPv6() (net.IP, error) {
	if len(v.bytes) < 16 {
		return nil, errShort(v.Field, 16)
	}
	ip := make(net.IP, 16)
	copy(ip, v.bytes[:16])
	return ip, nil
}

// Port interprets the value's 2 bytes as a network-byte-order port
// number (always big-endian on the wire, independent of the file's
// byte order). FormatKind has no port member; the caller decides
// which fields hold ports -- this package never infers "this looks
// like a port" from a field's name or size alone.
func (v Value) Port() (uint16, error) {
	if len(v.bytes) < 2 {
		return 0, errShort(v.Field, 2)
	}
	return binary.BigEndian.Uint16(v.bytes), nil
}

// GUID interprets the value's 16 bytes as a Microsoft-style GUID:
// the first three components (a uint32, two uint16s) are little
// endian regardless of the record's own byte order, while the final
// 8 bytes are a plain big-endian byte sequence. This mixed layout is
// the wire format EventHeader metadata uses for GUID-typed fields.
// The result is in canonical byte order, with the first three
// components big-endian.
func (v Value) GUID() ([16]byte, error) {
	var out [16]byte
	if len(v.bytes) < 16 {
		return out, errShort(v.Field, 16)
	}
	binary.BigEndian.PutUint32(out[0:4], binary.LittleEndian.Uint32(v.bytes[0:4]))
	binary.BigEndian.PutUint16(out[4:6], binary.LittleEndian.Uint16(v.bytes[4:6]))
	binary.BigEndian.PutUint16(out[6:8], binary.LittleEndian.Uint16(v.bytes[6:8]))
	copy(out[8:16], v.bytes[8:16])
	return out, nil
}

func errShort(f *FieldFormat, want int) error {
	name := "?"
	if f != nil {
		name = f.Name
	}
	return fmt.Errorf("tracefs: field %q too short for %d-byte read", name, want)
}
