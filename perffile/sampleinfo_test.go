// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perffile

import "testing"

func TestSampleEventInfoNotASample(t *testing.T) {
	rs := &Records{f: newTestFile(nil), Record: &RecordMmap{}}
	_, status := rs.SampleEventInfo()
	if status != StatusNotASample {
		t.Errorf("status = %v, want StatusNotASample", status)
	}
}

func TestSampleEventInfoOK(t *testing.T) {
	attr := &EventAttr{}
	rs := &Records{
		f: newTestFile(nil),
		Record: &RecordSample{
			RecordCommon: RecordCommon{
				EventAttr: attr,
				PID:       1234,
				TID:       5678,
				CPU:       2,
				Time:      9999,
				Format:    SampleFormatTime,
			},
		},
	}
	info, status := rs.SampleEventInfo()
	if status != StatusOK {
		t.Errorf("status = %v, want StatusOK", status)
	}
	if info.PID != 1234 || info.TID != 5678 || info.CPU != 2 || info.Time != 9999 {
		t.Errorf("info = %+v, unexpected field", info)
	}
	if info.HasWall {
		t.Error("HasWall = true with no clock calibration")
	}
}

func TestSampleEventInfoTruncated(t *testing.T) {
	attr := &EventAttr{}
	rs := &Records{
		f: newTestFile(nil),
		Record: &RecordSample{
			RecordCommon: RecordCommon{
				EventAttr: attr,
				Format:    SampleFormatTime,
				Time:      0,
			},
		},
	}
	_, status := rs.SampleEventInfo()
	if status != StatusTruncatedSample {
		t.Errorf("status = %v, want StatusTruncatedSample", status)
	}
}

func TestSampleEventInfoTruncatedFlag(t *testing.T) {
	// Truncated set directly by the decoder (e.g. a record whose
	// trailer ran out mid-field), independent of the Time==0
	// heuristic: Time is nonzero here, so only the Truncated flag
	// itself can make this StatusTruncatedSample.
	attr := &EventAttr{}
	rs := &Records{
		f: newTestFile(nil),
		Record: &RecordSample{
			RecordCommon: RecordCommon{
				EventAttr: attr,
				Format:    SampleFormatTime,
				Time:      42,
				Truncated: true,
			},
		},
	}
	_, status := rs.SampleEventInfo()
	if status != StatusTruncatedSample {
		t.Errorf("status = %v, want StatusTruncatedSample", status)
	}
}

func TestSampleEventInfoWallTime(t *testing.T) {
	f := newTestFile(nil)
	f.Session.HasClockData = true
	f.Session.ClockWallNS = 1_700_000_000_000_000_000
	f.Session.ClockMonoNS = 1000
	rs := &Records{
		f: f,
		Record: &RecordSample{
			RecordCommon: RecordCommon{Time: 1500, Format: SampleFormatTime},
		},
	}
	info, _ := rs.SampleEventInfo()
	if !info.HasWall {
		t.Fatal("HasWall = false with a clock calibration set")
	}
	wantNS := int64(1_700_000_000_000_000_000) + (1500 - 1000)
	if info.WallTime.UnixNano() != wantNS {
		t.Errorf("WallTime = %v (%d ns), want %d ns", info.WallTime, info.WallTime.UnixNano(), wantNS)
	}
}

func TestNonSampleEventInfoOnSample(t *testing.T) {
	rs := &Records{f: newTestFile(nil), Record: &RecordSample{}}
	_, status := rs.NonSampleEventInfo()
	if status != StatusNotASample {
		t.Errorf("status = %v, want StatusNotASample", status)
	}
}

func TestNonSampleEventInfoOK(t *testing.T) {
	attr := &EventAttr{}
	rs := &Records{
		f: newTestFile(nil),
		Record: &RecordMmap{
			RecordCommon: RecordCommon{
				EventAttr: attr,
				PID:       42,
				Format:    SampleFormatTime,
				Time:      123,
			},
		},
	}
	info, status := rs.NonSampleEventInfo()
	if status != StatusOK {
		t.Errorf("status = %v, want StatusOK", status)
	}
	if info.PID != 42 || info.Time != 123 {
		t.Errorf("info = %+v, unexpected field", info)
	}
}
