// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perffile

import (
	"bytes"
	"encoding/binary"
	"reflect"
)

// A RecordFinishedRound marks a synchronization barrier perf emits
// between batches of per-CPU sample buffers it has flushed. It
// carries no information of its own; TimeOrderMerger uses its
// appearance in the record stream to bound how much buffering a
// streaming time-ordered merge needs.
type RecordFinishedRound struct {
	RecordCommon
}

func (r *RecordFinishedRound) Type() RecordType { return RecordTypeFinishedRound }

// A RecordHeaderAttr carries one event's EventAttr and the sample IDs
// that resolve to it. Normal-layout files describe every EventAttr
// upfront in the file header; pipe-layout files instead emit one of
// these per event before any samples referencing it, which is why
// File.Session.AttrByID may not resolve an ID until the matching
// RecordHeaderAttr has been read.
type RecordHeaderAttr struct {
	RecordCommon
	Attr EventAttr
	IDs  []attrID
}

func (r *RecordHeaderAttr) Type() RecordType { return RecordTypeHeaderAttr }

// A RecordTracingData carries a TracingData blob (see tracingdata.go)
// inline, for pipe-layout files. Reading it updates
// File.Session.FormatTable as a side effect, exactly as the
// PERF_HEADER_TRACING_DATA feature section does for normal-layout
// files.
type RecordTracingData struct {
	RecordCommon
}

func (r *RecordTracingData) Type() RecordType { return RecordTypeTracingData }

// A RecordEventUpdate amends a previously-announced EventAttr, most
// commonly to attach its human-readable Name after the fact. Per the
// resolution recorded in DESIGN.md, a later RecordEventUpdate always
// overwrites EventAttr.Name (last writer wins).
type RecordEventUpdate struct {
	RecordCommon
	ID   attrID
	Kind uint64
	Name string
}

func (r *RecordEventUpdate) Type() RecordType { return RecordTypeEventUpdate }

const eventUpdateKindName = 1

func (r *Records) parseHeaderAttr(bd *bufDecoder, hdr *recordHeader, common *RecordCommon) Record {
	o := &RecordHeaderAttr{RecordCommon: *common}

	var fa fileAttr
	br := bytes.NewReader(bd.buf)
	if err := readFileAttrFromReader(br, bd.order, &fa); err != nil {
		r.err = err
		return nil
	}
	o.Attr = fa.Attr

	rest := bd.buf[len(bd.buf)-br.Len():]
	for len(rest) >= 8 {
		o.IDs = append(o.IDs, attrID(bd.order.Uint64(rest)))
		rest = rest[8:]
	}

	for _, id := range o.IDs {
		r.f.Session.attrByID[id] = &o.Attr
	}
	if len(r.f.Events) == 0 || r.f.Events[len(r.f.Events)-1] != &o.Attr {
		r.f.Events = append(r.f.Events, &o.Attr)
	}
	return o
}

func (r *Records) parseTracingData(bd *bufDecoder, hdr *recordHeader, common *RecordCommon) Record {
	o := &RecordTracingData{RecordCommon: *common}
	if err := r.f.Session.parseTracingDataBlob(bd.buf, bd.order); err != nil {
		r.err = err
	}
	return o
}

func (r *Records) parseEventUpdate(bd *bufDecoder, hdr *recordHeader, common *RecordCommon) Record {
	o := &RecordEventUpdate{RecordCommon: *common}
	o.ID = attrID(bd.u64())
	o.Kind = bd.u64()
	if o.Kind == eventUpdateKindName {
		o.Name = bd.cstring()
		if attr, ok := r.f.Session.attrByID[o.ID]; ok {
			attr.Name = o.Name
		}
	}
	return o
}

// readFileAttrFromReader is readFileAttr generalized to any
// io.Reader, for decoding the perf_event_attr embedded in a
// RecordHeaderAttr's bytes rather than a file section.
func readFileAttrFromReader(br *bytes.Reader, bo binary.ByteOrder, fa *fileAttr) error {
	var attr eventAttrVN
	if err := binary.Read(br, bo, &attr.eventAttrV0); err != nil {
		return err
	}
	// Pipe-mode HeaderAttr records always carry the current ABI
	// version's attr size (no Size==0 ABI-v0 fallback, since the
	// recording perf tool and this reader are contemporaries of
	// the same kernel headers in that mode).
	left := int(attr.Size) - binary.Size(&attr.eventAttrV0)
	rattr := reflect.ValueOf(&attr).Elem()
	for i := 1; i < rattr.NumField() && left > 0; i++ {
		field := rattr.Field(i).Addr().Interface()
		if err := binary.Read(br, bo, field); err != nil {
			return err
		}
		left -= binary.Size(field)
	}

	eg := EventGeneric{Type: attr.Type, ID: attr.Config, Config: []uint64{attr.BPAddrOrConfig1, attr.BPLenOrConfig2}}
	if attr.Type == EventTypeBreakpoint {
		eg.ID = uint64(attr.BPType)
	}
	fa.Attr.Event = eg.Decode()
	if attr.Flags&EventFlagFreq == 0 {
		fa.Attr.SamplePeriod = attr.SamplePeriodOrFreq
	} else {
		fa.Attr.SampleFreq = attr.SamplePeriodOrFreq
	}
	fa.Attr.SampleFormat = attr.SampleFormat
	fa.Attr.ReadFormat = attr.ReadFormat
	fa.Attr.Flags = attr.Flags &^ eventFlagPreciseMask
	fa.Attr.Precise = EventPrecision((attr.Flags & eventFlagPreciseMask) >> eventFlagPreciseShift)
	if attr.Flags&EventFlagWakeupWatermark == 0 {
		fa.Attr.WakeupEvents = attr.WakeupEventsOrWatermark
	} else {
		fa.Attr.WakeupWatermark = attr.WakeupEventsOrWatermark
	}
	fa.Attr.SampleRegsUser = attr.SampleRegsUser
	fa.Attr.SampleStackUser = attr.SampleStackUser
	fa.Attr.AuxWatermark = attr.AuxWatermark
	return nil
}
