// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eventheader

import (
	"fmt"

	"github.com/aclements/go-tracepoint/tracefs"
)

// maxDepth bounds the struct/array nesting depth Enumerator will
// follow before giving up with ErrStackOverflow, so a corrupt or
// hostile event can't make MoveNext recurse without bound.
const maxDepth = 16

// State is the Enumerator's current position relative to the event
// it's enumerating.
type State int

const (
	StateBeforeFirstItem State = iota
	StateValue
	StateStructBegin
	StateStructEnd
	StateArrayBegin
	StateArrayEnd
	StateAfterLastItem
	StateError
)

// Error is the reason StartEvent or MoveNext stopped making progress.
type Error int

const (
	ErrNone Error = iota
	ErrStackOverflow
	ErrInvalidParameter
	ErrNotSupported
	ErrNoMoreData
	ErrInvalidName
)

func (e Error) Error() string {
	switch e {
	case ErrNone:
		return "eventheader: no error"
	case ErrStackOverflow:
		return "eventheader: struct/array nesting too deep"
	case ErrInvalidParameter:
		return "eventheader: invalid parameter"
	case ErrNotSupported:
		return "eventheader: unsupported event version or encoding"
	case ErrNoMoreData:
		return "eventheader: field descriptor runs past end of event"
	case ErrInvalidName:
		return "eventheader: field name missing terminator"
	default:
		return fmt.Sprintf("eventheader: error %d", int(e))
	}
}

type frameKind int

const (
	frameStruct frameKind = iota
	frameArray
)

type frame struct {
	kind     frameKind
	name     string
	encoding FieldEncoding
	format   tracefs.FormatKind

	remaining    int // fields left (struct) or elements left to start (array)
	arrayCount   int
	arrayIndex   int
	elemIsStruct bool
}

// Enumerator is a pull-based decoder over a single EventHeader
// event's payload (the bytes following the fixed 8-byte Header). It
// holds no allocations beyond its bounded frame stack, so decoding an
// event costs O(nesting depth), not O(event size).
type Enumerator struct {
	header Header
	buf    []byte
	pos    int
	le     bool

	state State
	err   Error
	stack []frame
	cur   ItemInfo
}

// StartEvent begins enumerating the event whose fixed header is hdr
// and whose payload (the bytes after the header) is body.
func (e *Enumerator) StartEvent(hdr Header, body []byte) error {
	*e = Enumerator{
		header: hdr,
		buf:    body,
		le:     hdr.littleEndian(),
		state:  StateBeforeFirstItem,
	}
	return nil
}

// Reset returns the enumerator to the state just after StartEvent,
// so the event can be walked again.
func (e *Enumerator) Reset() {
	e.pos = 0
	e.stack = e.stack[:0]
	e.state = StateBeforeFirstItem
	e.err = ErrNone
	e.cur = ItemInfo{}
}

// State reports the enumerator's current position.
func (e *Enumerator) State() State { return e.state }

// Err returns the reason enumeration stopped, or nil if it has not
// failed.
func (e *Enumerator) Err() error {
	if e.err == ErrNone {
		return nil
	}
	return e.err
}

// GetEventInfo returns the fixed header this enumerator was started
// with.
func (e *Enumerator) GetEventInfo() Header { return e.header }

// GetItemInfo returns the item the enumerator is currently positioned
// on. It is only valid when State() is one of the non-terminal,
// non-error states.
func (e *Enumerator) GetItemInfo() ItemInfo { return e.cur }

func (e *Enumerator) fail(err Error) bool {
	e.state = StateError
	e.err = err
	return false
}

// MoveNext advances to the next item (a value, or a struct/array
// boundary) in the event, in the event's own field order. It returns
// false at the end of the event or on error; distinguish the two with
// Err().
func (e *Enumerator) MoveNext() bool {
	if e.state == StateError || e.state == StateAfterLastItem {
		return false
	}

	if n := len(e.stack); n > 0 {
		top := &e.stack[n-1]
		switch top.kind {
		case frameArray:
			if top.arrayIndex >= top.arrayCount {
				e.emitArrayEnd(top)
				e.stack = e.stack[:n-1]
				return true
			}
			return e.stepArrayElement(top)
		case frameStruct:
			if top.remaining <= 0 {
				e.emitStructEnd(top)
				e.stack = e.stack[:n-1]
				return true
			}
			top.remaining--
			return e.readField()
		}
	}

	if e.pos >= len(e.buf) {
		e.state = StateAfterLastItem
		return false
	}
	return e.readField()
}

// MoveNextSibling skips the remainder of the current struct or array
// (if positioned on its Begin item) and advances to the item
// following its matching End, without decoding the values nested
// inside. For a non-container item it behaves like MoveNext.
func (e *Enumerator) MoveNextSibling() bool {
	if e.cur.Kind == ItemStructBegin || e.cur.Kind == ItemArrayBegin {
		depth := e.cur.Depth
		for e.MoveNext() {
			end := e.cur.Kind == ItemStructEnd || e.cur.Kind == ItemArrayEnd
			if end && e.cur.Depth == depth {
				break
			}
		}
		if e.state == StateError {
			return false
		}
	}
	return e.MoveNext()
}

// MoveNextMetadata advances to the next field descriptor without
// materializing the value of the one just left, which for this
// package's inline metadata+value encoding is equivalent to
// MoveNextSibling (the bytes must be walked regardless to find the
// next descriptor's offset, since array/struct lengths are only
// known by decoding them).
func (e *Enumerator) MoveNextMetadata() bool {
	return e.MoveNextSibling()
}

func (e *Enumerator) depth() int { return len(e.stack) }

func (e *Enumerator) readCString() (string, bool) {
	for i := e.pos; i < len(e.buf); i++ {
		if e.buf[i] == 0 {
			s := string(e.buf[e.pos:i])
			e.pos = i + 1
			return s, true
		}
	}
	return "", false
}

func (e *Enumerator) readU8() (uint8, bool) {
	if e.pos >= len(e.buf) {
		return 0, false
	}
	v := e.buf[e.pos]
	e.pos++
	return v, true
}

func (e *Enumerator) readU16() (uint16, bool) {
	if e.pos+2 > len(e.buf) {
		return 0, false
	}
	v := Value{e.buf[e.pos : e.pos+2], e.le}.U16()
	e.pos += 2
	return v, true
}

// readField decodes one field descriptor (name, encoding, format) at
// the cursor and either emits a value directly or pushes a
// struct/array frame and emits the corresponding Begin item.
func (e *Enumerator) readField() bool {
	name, ok := e.readCString()
	if !ok {
		return e.fail(ErrInvalidName)
	}
	encByte, ok1 := e.readU8()
	fmtByte, ok2 := e.readU8()
	if !ok1 || !ok2 {
		return e.fail(ErrNoMoreData)
	}
	encoding := FieldEncoding(encByte)
	format := tracefs.FormatKind(fmtByte)

	if encoding.isArray() {
		count, ok := e.readU16()
		if !ok {
			return e.fail(ErrNoMoreData)
		}
		if e.depth() >= maxDepth {
			return e.fail(ErrStackOverflow)
		}
		f := frame{
			kind:         frameArray,
			name:         name,
			encoding:     encoding,
			format:       format,
			arrayCount:   int(count),
			elemIsStruct: encoding.base() == tracefs.EncodingKind(encodingStruct),
		}
		e.stack = append(e.stack, f)
		e.cur = ItemInfo{
			Kind: ItemArrayBegin, Name: name, Encoding: encoding, Format: format,
			Depth: e.depth() - 1, ArrayCount: int(count),
		}
		e.state = StateArrayBegin
		return true
	}

	if encoding.isStruct() {
		fieldCount, ok := e.readU8()
		if !ok {
			return e.fail(ErrNoMoreData)
		}
		if e.depth() >= maxDepth {
			return e.fail(ErrStackOverflow)
		}
		e.stack = append(e.stack, frame{kind: frameStruct, name: name, remaining: int(fieldCount)})
		e.cur = ItemInfo{Kind: ItemStructBegin, Name: name, Encoding: encoding, Format: format, Depth: e.depth() - 1}
		e.state = StateStructBegin
		return true
	}

	if isStringKind(encoding.base()) {
		val, ok := e.readStringField(encoding.base())
		if !ok {
			return e.fail(ErrNoMoreData)
		}
		e.cur = ItemInfo{Kind: ItemValue, Name: name, Encoding: encoding, Format: format, Depth: e.depth(), Value: val}
		e.state = StateValue
		return true
	}

	size := scalarSize(encoding.base())
	if size == 0 || e.pos+size > len(e.buf) {
		return e.fail(ErrNotSupported)
	}
	val := Value{e.buf[e.pos : e.pos+size], e.le}
	e.pos += size
	e.cur = ItemInfo{Kind: ItemValue, Name: name, Encoding: encoding, Format: format, Depth: e.depth(), Value: val}
	e.state = StateValue
	return true
}

// stepArrayElement decodes the next element of an in-progress array
// frame, either a scalar value or (for an array of structs) a nested
// struct frame.
func (e *Enumerator) stepArrayElement(top *frame) bool {
	idx := top.arrayIndex
	top.arrayIndex++

	if top.elemIsStruct {
		fieldCount, ok := e.readU8()
		if !ok {
			return e.fail(ErrNoMoreData)
		}
		if e.depth() >= maxDepth {
			return e.fail(ErrStackOverflow)
		}
		e.stack = append(e.stack, frame{kind: frameStruct, name: top.name, remaining: int(fieldCount)})
		e.cur = ItemInfo{
			Kind: ItemStructBegin, Name: top.name, Encoding: top.encoding, Format: top.format,
			Depth: e.depth() - 1, ArrayIndex: idx, ArrayCount: top.arrayCount,
		}
		e.state = StateStructBegin
		return true
	}

	if isStringKind(top.encoding.base()) {
		val, ok := e.readStringField(top.encoding.base())
		if !ok {
			return e.fail(ErrNoMoreData)
		}
		e.cur = ItemInfo{
			Kind: ItemValue, Name: top.name, Encoding: top.encoding, Format: top.format,
			Depth: e.depth(), ArrayIndex: idx, ArrayCount: top.arrayCount, Value: val,
		}
		e.state = StateValue
		return true
	}

	size := scalarSize(top.encoding.base())
	if size == 0 || e.pos+size > len(e.buf) {
		return e.fail(ErrNotSupported)
	}
	val := Value{e.buf[e.pos : e.pos+size], e.le}
	e.pos += size
	e.cur = ItemInfo{
		Kind: ItemValue, Name: top.name, Encoding: top.encoding, Format: top.format,
		Depth: e.depth(), ArrayIndex: idx, ArrayCount: top.arrayCount, Value: val,
	}
	e.state = StateValue
	return true
}

// isStringKind reports whether k is one of the variable-length string
// encodings, which readField/stepArrayElement decode by consuming a
// terminator or length prefix rather than a fixed scalarSize.
func isStringKind(k tracefs.EncodingKind) bool {
	return k == tracefs.EncodingStringFixed || k == tracefs.EncodingStringLength
}

// readStringField consumes one variable-length string field at the
// cursor: EncodingStringFixed reads a NUL-terminated run (or the rest
// of the buffer, if no NUL follows), and EncodingStringLength reads a
// uint16 byte count in the event's byte order followed by that many bytes (this
// also covers the EventHeader wire convention's length-prefixed
// binary fields, which share the same {u16 length, bytes} shape).
func (e *Enumerator) readStringField(k tracefs.EncodingKind) (Value, bool) {
	switch k {
	case tracefs.EncodingStringFixed:
		start := e.pos
		end := start
		for end < len(e.buf) && e.buf[end] != 0 {
			end++
		}
		valEnd := end
		if end < len(e.buf) {
			end++ // consume the terminator
		}
		e.pos = end
		return Value{e.buf[start:valEnd], e.le}, true
	case tracefs.EncodingStringLength:
		n, ok := e.readU16()
		if !ok {
			return Value{}, false
		}
		if e.pos+int(n) > len(e.buf) {
			return Value{}, false
		}
		val := Value{e.buf[e.pos : e.pos+int(n)], e.le}
		e.pos += int(n)
		return val, true
	default:
		return Value{}, false
	}
}

func (e *Enumerator) emitStructEnd(top *frame) {
	e.cur = ItemInfo{Kind: ItemStructEnd, Name: top.name, Depth: e.depth() - 1}
	e.state = StateStructEnd
}

func (e *Enumerator) emitArrayEnd(top *frame) {
	e.cur = ItemInfo{Kind: ItemArrayEnd, Name: top.name, Depth: e.depth() - 1, ArrayCount: top.arrayCount}
	e.state = StateArrayEnd
}

func scalarSize(k tracefs.EncodingKind) int {
	switch k {
	case tracefs.EncodingSigned8, tracefs.EncodingUnsigned8:
		return 1
	case tracefs.EncodingSigned16, tracefs.EncodingUnsigned16:
		return 2
	case tracefs.EncodingSigned32, tracefs.EncodingUnsigned32, tracefs.EncodingFloat32:
		return 4
	case tracefs.EncodingSigned64, tracefs.EncodingUnsigned64, tracefs.EncodingFloat64:
		return 8
	default:
		return 0
	}
}
