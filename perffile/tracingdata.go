// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perffile

import (
	"encoding/binary"
	"fmt"

	"github.com/aclements/go-tracepoint/tracefs"
)

// TraceFormat is the parsed tracefs format description for one
// tracepoint, as recovered from a perf.data file's TracingData blob.
type TraceFormat = tracefs.Format

// tracingDataMagic is the fixed string every TracingData blob starts
// with, mirroring the "\x17\x08\x44tracing" magic tools/perf itself
// writes.
const tracingDataMagic = "\x17\x08\x44tracing"

// parseTracingDataFeature parses the PERF_HEADER_TRACING_DATA feature
// section, which embeds a copy of every traced tracepoint's tracefs
// "format:" text so a perf.data file is self-contained even when read
// on a machine without the originating kernel's tracefs mounted.
//
// Every format text block recovered is immediately parsed with
// tracefs.Parse and cached in SessionInfo.FormatTable, keyed by the
// format's own numeric ID (the same ID that prefixes each tracepoint
// sample's raw bytes).
func (s *SessionInfo) parseTracingDataFeature(bd bufDecoder) error {
	return s.parseTracingDataBlob(bd.buf, bd.order)
}

// parseTracingDataBlob parses a TracingData blob from raw bytes. It
// is also used directly by pipe-mode files, which carry this same
// blob inline as a RecordTracingData record rather than in a footer
// feature section. order is the file's own byte order; the blob has
// no independent byte order of its own.
func (s *SessionInfo) parseTracingDataBlob(data []byte, order binary.ByteOrder) error {
	if len(data) < len(tracingDataMagic) || string(data[:len(tracingDataMagic)]) != tracingDataMagic {
		return fmt.Errorf("perffile: bad tracing data magic")
	}
	bd := &bufDecoder{buf: data[len(tracingDataMagic):], order: order}

	_ = bd.cstring() // version string, informational only
	_ = bd.buf[0]    // endianness byte of the embedded ftrace binary ints; unused here
	bd.skip(1)
	_ = bd.buf[0] // long_size
	bd.skip(1)

	pageSize := bd.u32()
	_ = pageSize

	readBlob := func() []byte {
		n := bd.u64()
		if n > uint64(len(bd.buf)) {
			n = uint64(len(bd.buf))
		}
		b := bd.buf[:n]
		bd.skip(int(n))
		return b
	}

	headerPage := readBlob()
	headerEvent := readBlob()
	_, _ = headerPage, headerEvent

	ftraceCount := bd.u32()
	for i := uint32(0); i < ftraceCount; i++ {
		s.addFormatBlob(readBlob())
	}

	systemCount := bd.u32()
	for i := uint32(0); i < systemCount; i++ {
		_ = bd.cstring() // system name; format text itself repeats it in "name:"
		eventCount := bd.u32()
		for j := uint32(0); j < eventCount; j++ {
			s.addFormatBlob(readBlob())
		}
	}

	// kallsyms, printk, saved_cmdline: present in the real format
	// but not needed to resolve tracepoint field layouts, so this
	// reader stops once it has every format: text block.
	return nil
}

func (s *SessionInfo) addFormatBlob(text []byte) {
	f, err := tracefs.Parse(string(text))
	if err != nil {
		return
	}
	s.FormatTable[f.SystemID] = f
}
