// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perffile

import (
	"encoding/binary"

	"github.com/aclements/go-tracepoint/eventheader"
)

// TracepointFormat resolves the tracefs Format describing r.Record's
// raw tracepoint payload, valid only when r.Record is a *RecordSample
// with SampleFormatRaw set for a PERF_TYPE_TRACEPOINT event. The
// returned []byte is the sample's raw payload, with the leading
// common fields (type id, flags, preempt count, pid) still attached,
// exactly as tracefs.Format.CommonFields describes them.
//
// It returns ok == false if the record isn't a raw tracepoint sample
// or its format ID isn't in r.f.Session.FormatTable (e.g. the file's
// TracingData feature/record was never read, or this is a synthetic
// non-tracepoint PMU event).
func (r *Records) TracepointFormat() (format *TraceFormat, raw []byte, ok bool) {
	s, isSample := r.Record.(*RecordSample)
	if !isSample || s.Format&SampleFormatRaw == 0 || len(s.Raw) < 2 {
		return nil, nil, false
	}
	id := uint64(binary.LittleEndian.Uint16(s.Raw))
	f, ok := r.f.Session.FormatTable[id]
	if !ok {
		return nil, nil, false
	}
	return f, s.Raw, true
}

// EventHeaderEnumerator returns a fresh eventheader.Enumerator over
// r.Record's raw tracepoint payload, if that tracepoint's format
// follows the EventHeader self-describing convention
// (TraceFormat.IsEventHeader). It skips past the format's own common
// fields and the fixed 8-byte EventHeader prefix before starting the
// enumerator, so the caller's first MoveNext call lands on the
// event's first metadata field.
func (r *Records) EventHeaderEnumerator() (en *eventheader.Enumerator, hdr eventheader.Header, ok bool) {
	f, raw, ok := r.TracepointFormat()
	if !ok || !f.IsEventHeader {
		return nil, eventheader.Header{}, false
	}

	commonLen := 0
	for _, cf := range f.CommonFields {
		if end := cf.Offset + cf.Size; end > commonLen {
			commonLen = end
		}
	}
	if commonLen > len(raw) {
		return nil, eventheader.Header{}, false
	}
	payload := raw[commonLen:]

	hdr, err := eventheader.ParseHeader(payload)
	if err != nil {
		return nil, eventheader.Header{}, false
	}
	en = new(eventheader.Enumerator)
	if err := en.StartEvent(hdr, payload[8:]); err != nil {
		return nil, eventheader.Header{}, false
	}
	return en, hdr, true
}
