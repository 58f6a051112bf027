// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eventheader

import "github.com/aclements/go-tracepoint/tracefs"

// FieldEncoding is the base wire encoding of one EventHeader field
// descriptor. The scalar members intentionally reuse the same closed
// set of shapes as tracefs.EncodingKind (see SPEC_FULL.md's rationale
// for sharing the encoding vocabulary between the two packages)
// rather than redeclaring an equivalent enum.
type FieldEncoding uint8

const (
	encodingStruct FieldEncoding = 0x1f // out of tracefs.EncodingKind's range; structs have no scalar shape

	// flagArray marks a field as repeating. The Enumerator reads
	// the element count as a uint16, in the event's byte order,
	// right after the field's encoding and format bytes.
	flagArray FieldEncoding = 0x20
	// flagArrayVariable, only meaningful with flagArray set, marks
	// an array whose element count varies from event to event. The
	// Enumerator does not consult it: every array's count is read
	// the same way, as described for flagArray.
	flagArrayVariable FieldEncoding = 0x40

	encodingMask = 0x1f
)

func (e FieldEncoding) base() tracefs.EncodingKind { return tracefs.EncodingKind(e & encodingMask) }
func (e FieldEncoding) isStruct() bool             { return e&encodingMask == encodingStruct }
func (e FieldEncoding) isArray() bool              { return e&flagArray != 0 }
func (e FieldEncoding) isVariableArray() bool      { return e&flagArray != 0 && e&flagArrayVariable != 0 }

// ItemKind distinguishes the shapes of item a pull from the
// enumerator can produce.
type ItemKind int

const (
	ItemValue ItemKind = iota
	ItemStructBegin
	ItemStructEnd
	ItemArrayBegin
	ItemArrayEnd
)

// ItemInfo describes the item the enumerator is currently positioned
// on, as returned by (*Enumerator).GetItemInfo.
type ItemInfo struct {
	Kind ItemKind

	// Name is the field's name. For ItemStructEnd/ItemArrayEnd
	// this repeats the name given at the matching Begin, letting a
	// caller that skips Begin..End via MoveNextSibling still see
	// which field it skipped.
	Name string

	Encoding FieldEncoding
	Format   tracefs.FormatKind

	// Depth is the struct/array nesting depth of this item, 0 at
	// the event's top level.
	Depth int

	// ArrayIndex and ArrayCount are set when this item is an
	// element of (or the Begin/End bracketing) an array.
	ArrayIndex, ArrayCount int

	// Value holds this item's raw bytes for ItemValue items. It is
	// the zero Value for struct/array boundary items.
	Value Value
}

// Value is an EventHeader field's raw bytes together with the byte
// order to decode them in. Unlike tracefs.Value it is not tied to a
// tracefs.FieldFormat -- EventHeader fields are described by their
// own metadata chain -- but exposes the same family of typed
// accessors so callers already familiar with tracefs.Value feel at
// home.
type Value struct {
	bytes []byte
	le    bool
}

func (v Value) Bytes() []byte { return v.bytes }

func (v Value) order() byteOrder {
	if v.le {
		return littleEndian{}
	}
	return bigEndian{}
}

func (v Value) U8() uint8   { return v.bytes[0] }
func (v Value) I8() int8    { return int8(v.bytes[0]) }
func (v Value) U16() uint16 { return v.order().u16(v.bytes) }
func (v Value) I16() int16  { return int16(v.U16()) }
func (v Value) U32() uint32 { return v.order().u32(v.bytes) }
func (v Value) I32() int32  { return int32(v.U32()) }
func (v Value) U64() uint64 { return v.order().u64(v.bytes) }
func (v Value) I64() int64  { return int64(v.U64()) }

func (v Value) String() string {
	for i, c := range v.bytes {
		if c == 0 {
			return string(v.bytes[:i])
		}
	}
	return string(v.bytes)
}

type byteOrder interface {
	u16([]byte) uint16
	u32([]byte) uint32
	u64([]byte) uint64
}

type littleEndian struct{}

func (littleEndian) u16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
func (littleEndian) u32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
func (littleEndian) u64(b []byte) uint64 {
	var x uint64
	for i := 7; i >= 0; i-- {
		x = x<<8 | uint64(b[i])
	}
	return x
}

type bigEndian struct{}

func (bigEndian) u16(b []byte) uint16 { return uint16(b[1]) | uint16(b[0])<<8 }
func (bigEndian) u32(b []byte) uint32 {
	return uint32(b[3]) | uint32(b[2])<<8 | uint32(b[1])<<16 | uint32(b[0])<<24
}
func (bigEndian) u64(b []byte) uint64 {
	var x uint64
	for i := 0; i < 8; i++ {
		x = x<<8 | uint64(b[i])
	}
	return x
}
