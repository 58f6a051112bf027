// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perffile

import "time"

// Status reports whether a SampleEventInfo/NonSampleEventInfo
// accessor was able to fully decode the record it was asked about.
type Status int

const (
	// StatusOK means every field indicated by the event's
	// SampleFormat was present and decoded.
	StatusOK Status = iota

	// StatusTruncatedSample means the record's trailer was
	// shorter than its SampleFormat promised (a short write at
	// the end of a live, still-being-recorded file, or a
	// corrupted record). The fields that could be decoded are
	// still populated; later fields are left at their zero value.
	StatusTruncatedSample

	// StatusNotASample means SampleEventInfo was called on a
	// record that isn't a RecordSample, or NonSampleEventInfo was
	// called on one that is.
	StatusNotASample
)

// SampleEventInfo is the decoded common fields of a RecordSample,
// with wall-clock time resolved via the session's clock calibration
// when available.
type SampleEventInfo struct {
	EventAttr *EventAttr
	PID, TID  int
	CPU       uint32
	Time      uint64 // raw clock value, as recorded
	WallTime  time.Time
	HasWall   bool
}

// NonSampleEventInfo is the decoded sample_id trailer of a
// non-sample record (valid only when the producing EventAttr set
// EventFlagSampleIDAll).
type NonSampleEventInfo struct {
	EventAttr *EventAttr
	PID, TID  int
	CPU       uint32
	Time      uint64
	WallTime  time.Time
	HasWall   bool
}

// SampleEventInfo extracts r.Record's common fields, assuming it's a
// *RecordSample. It returns StatusNotASample for any other record
// type.
func (r *Records) SampleEventInfo() (SampleEventInfo, Status) {
	s, ok := r.Record.(*RecordSample)
	if !ok {
		return SampleEventInfo{}, StatusNotASample
	}
	info := SampleEventInfo{
		EventAttr: s.EventAttr,
		PID:       s.PID,
		TID:       s.TID,
		CPU:       s.CPU,
		Time:      s.Time,
	}
	info.WallTime, info.HasWall = r.f.Session.WallTime(s.Time)
	status := StatusOK
	if s.Truncated || (s.EventAttr != nil && s.Format&SampleFormatTime != 0 && s.Time == 0) {
		status = StatusTruncatedSample
	}
	return info, status
}

// NonSampleEventInfo extracts the sample_id trailer of r.Record,
// assuming it's not a *RecordSample. It returns StatusNotASample for
// a *RecordSample.
func (r *Records) NonSampleEventInfo() (NonSampleEventInfo, Status) {
	if _, ok := r.Record.(*RecordSample); ok {
		return NonSampleEventInfo{}, StatusNotASample
	}
	c := r.Record.Common()
	info := NonSampleEventInfo{
		EventAttr: c.EventAttr,
		PID:       c.PID,
		TID:       c.TID,
		CPU:       c.CPU,
		Time:      c.Time,
	}
	info.WallTime, info.HasWall = r.f.Session.WallTime(c.Time)
	status := StatusOK
	if c.Truncated || (c.EventAttr != nil && c.Format&SampleFormatTime != 0 && c.Time == 0 && !r.f.sampleIDAll) {
		status = StatusTruncatedSample
	}
	return info, status
}
