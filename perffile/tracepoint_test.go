// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perffile

import (
	"encoding/binary"
	"testing"

	"github.com/aclements/go-tracepoint/tracefs"
)

func newTestFile(formats map[uint64]*tracefs.Format) *File {
	f := &File{}
	f.Session.FormatTable = formats
	return f
}

func TestTracepointFormatNotASample(t *testing.T) {
	rs := &Records{f: newTestFile(nil), Record: &RecordMmap{}}
	if _, _, ok := rs.TracepointFormat(); ok {
		t.Error("TracepointFormat succeeded on a non-sample record")
	}
}

func TestTracepointFormatNoRaw(t *testing.T) {
	rs := &Records{
		f:      newTestFile(nil),
		Record: &RecordSample{RecordCommon: RecordCommon{Format: 0}},
	}
	if _, _, ok := rs.TracepointFormat(); ok {
		t.Error("TracepointFormat succeeded on a sample with no Raw payload")
	}
}

func TestTracepointFormatUnknownID(t *testing.T) {
	raw := []byte{0x2a, 0x00}
	rs := &Records{
		f: newTestFile(map[uint64]*tracefs.Format{99: {Name: "other"}}),
		Record: &RecordSample{
			RecordCommon: RecordCommon{Format: SampleFormatRaw},
			Raw:          raw,
		},
	}
	if _, _, ok := rs.TracepointFormat(); ok {
		t.Error("TracepointFormat succeeded for an id not in FormatTable")
	}
}

func TestTracepointFormatResolves(t *testing.T) {
	format := &tracefs.Format{Name: "sched_switch"}
	raw := []byte{0x05, 0x00, 1, 2, 3}
	rs := &Records{
		f: newTestFile(map[uint64]*tracefs.Format{5: format}),
		Record: &RecordSample{
			RecordCommon: RecordCommon{Format: SampleFormatRaw},
			Raw:          raw,
		},
	}
	got, gotRaw, ok := rs.TracepointFormat()
	if !ok {
		t.Fatal("TracepointFormat failed to resolve a known format")
	}
	if got != format {
		t.Errorf("TracepointFormat returned %+v, want %+v", got, format)
	}
	if len(gotRaw) != len(raw) {
		t.Errorf("TracepointFormat returned %d raw bytes, want %d", len(gotRaw), len(raw))
	}
}

func TestEventHeaderEnumeratorNotEventHeader(t *testing.T) {
	format := &tracefs.Format{Name: "sched_switch", IsEventHeader: false}
	raw := []byte{0x05, 0x00, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	rs := &Records{
		f: newTestFile(map[uint64]*tracefs.Format{5: format}),
		Record: &RecordSample{
			RecordCommon: RecordCommon{Format: SampleFormatRaw},
			Raw:          raw,
		},
	}
	if _, _, ok := rs.EventHeaderEnumerator(); ok {
		t.Error("EventHeaderEnumerator succeeded on a plain tracepoint format")
	}
}

func TestEventHeaderEnumeratorResolves(t *testing.T) {
	format := &tracefs.Format{
		Name:          "MyProvider_L5K3f",
		IsEventHeader: true,
		CommonFields: []tracefs.FieldFormat{
			{Name: "common_type", Offset: 0, Size: 2},
		},
	}

	// raw = [common_type u16][8-byte EventHeader][empty metadata body]
	raw := make([]byte, 2+8)
	binary.LittleEndian.PutUint16(raw[0:2], 5)
	hdr := raw[2:10]
	hdr[0] = 0                                      // flags: big-endian, no pointer64/extension
	hdr[1] = 1                                      // version
	binary.LittleEndian.PutUint16(hdr[2:4], 0x0102) // id
	binary.LittleEndian.PutUint16(hdr[4:6], 0)      // tag
	hdr[6] = 0                                      // opcode
	hdr[7] = byte(2)                                // level

	rs := &Records{
		f: newTestFile(map[uint64]*tracefs.Format{5: format}),
		Record: &RecordSample{
			RecordCommon: RecordCommon{Format: SampleFormatRaw},
			Raw:          raw,
		},
	}
	en, parsedHdr, ok := rs.EventHeaderEnumerator()
	if !ok {
		t.Fatal("EventHeaderEnumerator failed to resolve an EventHeader-convention tracepoint")
	}
	if parsedHdr.ID != 0x0102 {
		t.Errorf("parsed header ID = %#x, want 0x0102", parsedHdr.ID)
	}
	if en.MoveNext() {
		t.Error("MoveNext() succeeded on an empty metadata body")
	}
}

func TestEventHeaderEnumeratorShortPayload(t *testing.T) {
	format := &tracefs.Format{
		Name:          "MyProvider_L5K3f",
		IsEventHeader: true,
		CommonFields: []tracefs.FieldFormat{
			{Name: "common_type", Offset: 0, Size: 2},
		},
	}
	raw := []byte{0x05, 0x00, 1, 2, 3} // too short for the 8-byte header
	rs := &Records{
		f: newTestFile(map[uint64]*tracefs.Format{5: format}),
		Record: &RecordSample{
			RecordCommon: RecordCommon{Format: SampleFormatRaw},
			Raw:          raw,
		},
	}
	if _, _, ok := rs.EventHeaderEnumerator(); ok {
		t.Error("EventHeaderEnumerator succeeded on a too-short payload")
	}
}
