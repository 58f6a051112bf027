// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tracefs

import (
	"fmt"
	"math"
	"net"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"golang.org/x/sys/unix"
)

// Convert groups the print_fmt-driven textual conversions a field's
// raw Value can be rendered through. Each is a small, independent
// pure function rather than a method on Value, mirroring the
// print_fmt vocabulary tracefs itself exposes (%x, %d, %f, IPv4/IPv6
// specifiers, time_t, wide-character strings, errno symbols, bool).
var Convert convertTable

type convertTable struct{}

// Hex renders an unsigned integer value as uppercase hex with a "0x"
// prefix and no leading zeros (other than the single digit for 0).
func (convertTable) Hex(u uint64) string {
	return "0x" + strings.ToUpper(strconv.FormatUint(u, 16))
}

// HexBytes renders b as uppercase hex pairs separated by single
// spaces, e.g. []byte{0xAB, 0x01} -> "AB 01". The empty slice renders
// as "".
func (convertTable) HexBytes(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, c := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", c)
	}
	return sb.String()
}

// Dec renders a signed integer value in decimal.
func (convertTable) Dec(i int64) string {
	return strconv.FormatInt(i, 10)
}

// Float renders a float64 using Go's shortest round-tripping
// representation, except NaN and the two infinities, which render as
// the unquoted tokens "NaN", "Infinity", and "-Infinity" rather than
// strconv's "NaN"/"+Inf"/"-Inf".
func (convertTable) Float(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// IPv4 renders 4 raw bytes (network order) as dotted-quad text.
func (convertTable) IPv4(b [4]byte) string {
	return fmt.Sprintf("%d.%d.%d.%d", b[0], b[1], b[2], b[3])
}

// IPv6 renders 16 raw bytes (network order) as colon-hex text.
func (convertTable) IPv6(b [16]byte) string {
	ip := make(net.IP, 16)
	copy(ip, b[:])
	return ip.String()
}

// UnixTime32 interprets a 32-bit value as a time_t (seconds since the
// Unix epoch).
func (convertTable) UnixTime32(t uint32) time.Time {
	return time.Unix(int64(t), 0).UTC()
}

// UnixTime64 interprets a 64-bit value as a time_t (seconds since the
// Unix epoch).
func (convertTable) UnixTime64(t uint64) time.Time {
	return time.Unix(int64(t), 0).UTC()
}

// UTF32 decodes a buffer of UTF-32 code units in the given byte
// order into a string, stopping at an embedded NUL code unit if one
// appears before the end of the buffer.
func (convertTable) UTF32(b []byte, order byteOrderUint32) string {
	n := len(b) / 4
	rs := make([]rune, 0, n)
	for i := 0; i < n; i++ {
		r := rune(order.Uint32(b[i*4:]))
		if r == 0 {
			break
		}
		rs = append(rs, r)
	}
	return string(rs)
}

// UTF16 decodes a buffer of UTF-16 code units in the given byte
// order into a string, stopping at an embedded NUL code unit if one
// appears before the end of the buffer.
func (convertTable) UTF16(b []byte, order byteOrderUint16) string {
	n := len(b) / 2
	units := make([]uint16, 0, n)
	for i := 0; i < n; i++ {
		u := order.Uint16(b[i*2:])
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units))
}

// EncodingFromBOM inspects a byte order mark at the start of b and
// reports the UTF encoding it indicates, plus the number of BOM bytes
// to skip. The result is always one of the closed set {"UTF-8",
// "UTF-16LE", "UTF-16BE", "UTF-32LE", "UTF-32BE", "None"} -- absent a
// recognized BOM, the encoding is unknown (None), not guessed from the
// content, so this round-trips against whatever BOM (or lack of one)
// produced it.
func (convertTable) EncodingFromBOM(b []byte) (encoding string, skip int) {
	switch {
	case len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF:
		return "UTF-8", 3
	case len(b) >= 4 && b[0] == 0xFF && b[1] == 0xFE && b[2] == 0 && b[3] == 0:
		return "UTF-32LE", 4
	case len(b) >= 4 && b[0] == 0 && b[1] == 0 && b[2] == 0xFE && b[3] == 0xFF:
		return "UTF-32BE", 4
	case len(b) >= 2 && b[0] == 0xFF && b[1] == 0xFE:
		return "UTF-16LE", 2
	case len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF:
		return "UTF-16BE", 2
	default:
		return "None", 0
	}
}

// ErrnoLookup returns the canonical symbol for a Linux errno value
// (e.g. 2 -> "ENOENT"), or "" if errno is not a recognized value.
// Grounded on golang.org/x/sys/unix's errno table rather than a
// hand-maintained switch.
func (convertTable) ErrnoLookup(errno int) string {
	name := unix.ErrnoName(unix.Errno(errno))
	return name
}

// Boolean renders a 32-bit field as "false"/"true" for 0/1. Any other
// value is not a recognized boolean encoding, so it renders as its
// signed decimal value instead of collapsing every nonzero input to
// "true".
func (convertTable) Boolean(u uint32) string {
	switch u {
	case 0:
		return "false"
	case 1:
		return "true"
	default:
		return strconv.FormatInt(int64(int32(u)), 10)
	}
}

// byteOrderUint32/byteOrderUint16 are the minimal subsets of
// encoding/binary.ByteOrder that UTF32/UTF16 need; declared narrowly
// so callers can pass binary.LittleEndian/BigEndian directly.
type byteOrderUint32 interface {
	Uint32([]byte) uint32
}

type byteOrderUint16 interface {
	Uint16([]byte) uint16
}
