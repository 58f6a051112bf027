// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perffile

import "time"

// SessionInfo holds the state a Records iterator resolves records
// against: the event attribute table keyed by sample ID, the wall
// clock calibration recorded by the perf tool, and the tracepoint
// format text recovered from the HeaderTracingData feature section.
//
// A File's Session is populated as the file's header and feature
// sections are read; for pipe-mode files it is instead built up
// incrementally as HeaderAttr, TracingData and EventUpdate records
// stream by, so callers that need a complete Session should not rely
// on it being final until the stream ends.
type SessionInfo struct {
	attrByID map[attrID]*EventAttr

	// FormatTable holds the parsed tracefs format description for
	// every tracepoint this session has seen, keyed by the
	// tracepoint's numeric ID (the same ID an EventTracepoint in
	// EventAttr.Event carries, and the leading u16 of a tracepoint
	// sample's Raw bytes).
	//
	// Entries are populated as HeaderTracingData (or, in pipe
	// mode, RecordTracingData) is parsed; see tracingdata.go.
	FormatTable map[uint64]*TraceFormat

	// HasClock reports whether this session recorded a clock
	// calibration at all (PERF_HEADER_CLOCKID or
	// PERF_HEADER_CLOCK_DATA).
	HasClock bool

	// ClockID is the POSIX clock (e.g. CLOCK_MONOTONIC = 1) that
	// RecordCommon.Time is measured against, if known.
	ClockID uint32

	// ClockData, if HasClockData is set, gives a (wall clock,
	// monotonic clock) pair the perf tool sampled at the start of
	// the session, letting Time values be converted to wall
	// clock time. Per the resolution in SPEC_FULL.md, a session
	// carrying both PERF_HEADER_CLOCKID and PERF_HEADER_CLOCK_DATA
	// prefers the latter.
	HasClockData bool
	ClockWallNS  uint64 // wall clock time, nanoseconds since epoch
	ClockMonoNS  uint64 // value of ClockID at that same instant

	// CPUCurrentTime tracks the most recently seen per-CPU time
	// for FinishedRound-bounded merging; maintained by the
	// RecordsTimeOrder merge as it buffers records that carry both
	// a CPU and a time, not by File.New.
	CPUCurrentTime map[uint32]uint64
}

func (s *SessionInfo) init() {
	s.attrByID = make(map[attrID]*EventAttr)
	s.FormatTable = make(map[uint64]*TraceFormat)
	s.CPUCurrentTime = make(map[uint32]uint64)
}

// WallTime converts a RecordCommon.Time value (as measured by
// ClockID) to a wall clock time, using the ClockData calibration. It
// returns the zero Time and false if this session has no clock
// calibration.
func (s *SessionInfo) WallTime(clockTimeNS uint64) (time.Time, bool) {
	if !s.HasClockData {
		return time.Time{}, false
	}
	delta := int64(clockTimeNS) - int64(s.ClockMonoNS)
	return time.Unix(0, int64(s.ClockWallNS)+delta).UTC(), true
}

// AttrByID looks up the EventAttr a sample/non-sample record's ID
// field resolves to.
func (s *SessionInfo) AttrByID(id attrID) (*EventAttr, bool) {
	a, ok := s.attrByID[id]
	return a, ok
}
