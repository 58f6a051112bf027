// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tracefs decodes the textual "format:" descriptors tracefs
// exposes for each ftrace/user_events tracepoint
// (/sys/kernel/tracing/events/<system>/<name>/format) and the raw
// field bytes they describe.
//
// A tracepoint's format text lists a sequence of fields, each with a
// C-ish type string, a byte offset and size within the record, and a
// signedness flag. This package parses that text into a Format and
// then lets callers pull typed values for each field out of a raw
// record buffer -- the same two-step split the teacher package uses
// for perf_event_attr (parse once into a typed struct, decode many
// times from raw bytes).
package tracefs

// EncodingKind identifies the wire shape of a tracepoint field's raw
// bytes, independent of how the C type string described it. Sum type
// over the field encodings this package (and the eventheader package
// layered on top of it) knows how to decode.
type EncodingKind int

//go:generate stringer -type=EncodingKind

const (
	EncodingInvalid EncodingKind = iota
	EncodingSigned8
	EncodingSigned16
	EncodingSigned32
	EncodingSigned64
	EncodingUnsigned8
	EncodingUnsigned16
	EncodingUnsigned32
	EncodingUnsigned64
	EncodingFloat32
	EncodingFloat64
	EncodingStringFixed  // fixed-size char array, NUL-terminated or padded
	EncodingStringLength // __data_loc/__rel_loc dynamic array of char
	EncodingByteArray    // fixed-size non-string byte array (e.g. u8[16])
)

// FormatKind refines how a field's bytes should be printed or
// interpreted beyond its raw EncodingKind -- e.g. an EncodingUnsigned32
// that is specifically an IPv4 address. Parse leaves Kind at
// FormatNone for every field; package eventheader takes it from an
// EventHeader field descriptor's format byte. Nothing in this module
// guesses a FormatKind from a field's name.
type FormatKind int

//go:generate stringer -type=FormatKind

const (
	FormatNone FormatKind = iota
	FormatHex
	FormatSigned
	FormatString
	FormatIPv4
	FormatIPv6
)

// FieldFormat describes one field of a tracepoint's format text.
type FieldFormat struct {
	Name     string
	Encoding EncodingKind
	Kind     FormatKind
	Offset   int
	Size     int
	Signed   bool

	// IsDynamicArray is true for __data_loc/__rel_loc fields: the
	// field's own bytes hold a 4-byte (offset,length) descriptor
	// (or, for __rel_loc, a (relative-offset,length) pair) that
	// points at the variable-length payload elsewhere in the
	// record, rather than holding data directly.
	IsDynamicArray bool

	// IsRelLoc is true for __rel_loc fields, where the offset
	// half of the descriptor is relative to the end of the field
	// itself rather than absolute from the start of the record.
	IsRelLoc bool

	// ElemSize is the size in bytes of a single array element,
	// for EncodingStringFixed (always 1) and EncodingByteArray
	// fields; Size is the size of the whole array. Parse leaves it
	// 0 for every other field.
	ElemSize int
}

// Format is the parsed form of one tracepoint's "format:" text.
type Format struct {
	// Name is the tracepoint's event name, from the "name:" line.
	Name string

	// SystemID is the format's numeric "ID:" line -- the value
	// that appears as the leading u16 of a ring-buffer record and
	// lets a reader dispatch raw bytes to the right Format.
	SystemID uint64

	// CommonFields are the fields shared by every event in a
	// tracing instance (type, flags, preempt count, pid), always
	// first in a record, matching perf's own sample_id convention
	// of keeping header-ish fields first so CommonFieldCount can
	// be deduced once per producer rather than per event.
	CommonFields []FieldFormat

	// Fields are the event-specific fields, in format-text order.
	Fields []FieldFormat

	// IsEventHeader is true when this event follows the
	// EventHeader self-describing convention layered over
	// user_events, detected from the event's Name ending in the
	// "_L<level>K<keyword>" suffix convention (see
	// github.com/microsoft/LinuxTracepoints). When true, callers
	// should decode the event payload with package eventheader
	// rather than by walking Fields directly.
	IsEventHeader bool

	raw string // the format text this was parsed from, for diagnostics
}

// Raw returns the format text Format was parsed from.
func (f *Format) Raw() string { return f.raw }

// FieldByName returns the named field, searching CommonFields then
// Fields, or nil if no such field exists.
func (f *Format) FieldByName(name string) *FieldFormat {
	for i := range f.CommonFields {
		if f.CommonFields[i].Name == name {
			return &f.CommonFields[i]
		}
	}
	for i := range f.Fields {
		if f.Fields[i].Name == name {
			return &f.Fields[i]
		}
	}
	return nil
}
