// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perffile

import (
	"encoding/binary"
	"fmt"
	"io"
)

// recordSource is the minimal interface Records needs from its
// backing byte stream: sequential reads, plus a Seek(0, 1) query for
// the current position. Both *bufferedSectionReader (normal-layout
// files) and *pipeSource (pipe-layout files) implement it.
type recordSource interface {
	io.Reader
	Seek(offset int64, whence int) (int64, error)
}

// A Records is an iterator over the records in a "perf.data" file.
//
// Typical usage is
//
//	rs := file.Records(perffile.RecordsFileOrder)
//	for rs.Next() {
//	  switch r := rs.Record.(type) {
//	    ...
//	  }
//	}
//	if rs.Err() != nil { ... }
type Records struct {
	f   *File
	sr  recordSource
	err error

	// merger, if non-nil, makes this Records a time-ordered view over
	// an inner RecordsFileOrder iterator (see timeorder.go). Next
	// pulls from merger instead of sr/decoding a record itself.
	merger *timeOrderMerger

	// order, if non-nil, drives RecordsCausalOrder/
	// RecordsStableTimeOrder's second pass: the absolute file
	// offsets (RecordCommon.Offset values) of every record, sorted
	// by time-stamp. Next seeks sr to order[orderIdx] before
	// decoding each record, so sr must support absolute seeks
	// (an unbuffered *io.SectionReader) whenever order is set.
	order    []int64
	orderIdx int

	// The current record.  Determine which type of record this is
	// using a type switch.
	Record Record

	// Read buffer.  Reused (and resized) by Next.
	buf []byte

	// Cache for common record types
	recordMmap   RecordMmap
	recordComm   RecordComm
	recordExit   RecordExit
	recordFork   RecordFork
	recordSample RecordSample
}

// Err returns the first error encountered by Records.
func (r *Records) Err() error {
	return r.err
}

// ByteReader returns the byte order this Records' underlying File was
// detected as, for callers decoding raw tracepoint payloads
// themselves (e.g. with tracefs.GetFieldValue).
func (r *Records) ByteReader() ByteReader {
	return r.f.ByteReader()
}

// Next fetches the next record into r.Record.  It returns true if
// successful, and false if it reaches the end of the record stream or
// encounters an error.
//
// The record stored in r.Record may be reused by later invocations of
// Next, so if the caller may need the record after another call to
// Next, it must make its own copy.
func (r *Records) Next() bool {
	// See perf_evsel__parse_sample
	if r.err != nil {
		return false
	}

	if r.merger != nil {
		rec, err := r.merger.next()
		if err != nil {
			r.err = err
			return false
		}
		if rec == nil {
			return false
		}
		r.Record = rec
		return true
	}

	if r.order != nil {
		if r.orderIdx >= len(r.order) {
			return false
		}
		target := r.order[r.orderIdx] - int64(r.f.hdr.Data.Offset)
		if _, err := r.sr.Seek(target, io.SeekStart); err != nil {
			r.err = err
			return false
		}
		r.orderIdx++
	}

	var common RecordCommon
	offset, _ := r.sr.Seek(0, 1)
	common.Offset = offset + int64(r.f.hdr.Data.Offset)

	bo := r.f.order()

	// Read record header
	var hdr recordHeader
	if err := binary.Read(r.sr, bo, &hdr); err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}

	// Read record data
	rlen := int(hdr.Size - 8)
	if rlen > len(r.buf) {
		r.buf = make([]byte, rlen)
	}
	var bd = &bufDecoder{buf: r.buf[:rlen], order: bo}
	if _, err := io.ReadFull(r.sr, bd.buf); err != nil {
		r.err = err
		return false
	}

	// Parse common sample_id fields
	if r.f.sampleIDAll && hdr.Type != RecordTypeSample && hdr.Type < recordTypeUserStart {
		r.parseCommon(bd, &common)
	}

	// Parse record
	// TODO: Don't array out-of-bounds on short records
	switch hdr.Type {
	default:
		// As far as I can tell, RecordTypeRead can never
		// appear in a perf.data file.
		r.Record = &RecordUnknown{hdr, common, bd.buf}

	case RecordTypeMmap:
		r.Record = r.parseMmap(bd, &hdr, &common, false)

	case RecordTypeLost:
		r.Record = r.parseLost(bd, &hdr, &common)

	case RecordTypeComm:
		r.Record = r.parseComm(bd, &hdr, &common)

	case RecordTypeExit:
		r.Record = r.parseExit(bd, &hdr, &common)

	case RecordTypeThrottle:
		r.Record = r.parseThrottle(bd, &hdr, &common, true)

	case RecordTypeUnthrottle:
		r.Record = r.parseThrottle(bd, &hdr, &common, false)

	case RecordTypeFork:
		r.Record = r.parseFork(bd, &hdr, &common)

	case RecordTypeSample:
		r.Record = r.parseSample(bd, &hdr)

	case recordTypeMmap2:
		r.Record = r.parseMmap(bd, &hdr, &common, true)

	case recordTypeAttr:
		r.Record = r.parseHeaderAttr(bd, &hdr, &common)

	case recordTypeTracingData:
		r.Record = r.parseTracingData(bd, &hdr, &common)

	case recordTypeEventUpdate:
		r.Record = r.parseEventUpdate(bd, &hdr, &common)

	case recordTypeFinishedRound:
		r.Record = &RecordFinishedRound{RecordCommon: common}
	}
	if r.err != nil {
		return false
	}
	return true
}

func (r *Records) getAttr(id attrID) *EventAttr {
	if attr, ok := r.f.Session.attrByID[id]; ok {
		return attr
	}
	r.err = fmt.Errorf("event has unknown eventAttr ID %d", id)
	return nil
}

// parseCommon parses the common sample_id structure in the trailer of
// non-sample records.
func (r *Records) parseCommon(bd *bufDecoder, o *RecordCommon) bool {
	// Get EventAttr ID
	if r.f.recordIDOffset == -1 {
		o.ID = 0
	} else {
		idOff := len(bd.buf) + r.f.recordIDOffset
		if idOff < 0 || idOff+8 > len(bd.buf) {
			o.Truncated = true
			return false
		}
		o.ID = attrID(bd.order.Uint64(bd.buf[idOff:]))
	}
	o.EventAttr = r.getAttr(o.ID)
	if o.EventAttr == nil {
		return false
	}

	// Narrow decoder to the trailer
	commonLen := o.EventAttr.SampleFormat.trailerBytes()
	trailer := bd.buf
	truncated := false
	if commonLen > len(trailer) {
		truncated = true
		commonLen = len(trailer)
	}
	bd = &bufDecoder{buf: trailer[len(trailer)-commonLen:], order: bd.order, truncated: truncated}

	// Decode trailer
	t := o.EventAttr.SampleFormat
	o.Format = t
	o.PID = int(bd.i32If(t&SampleFormatTID != 0))
	o.TID = int(bd.i32If(t&SampleFormatTID != 0))
	o.Time = bd.u64If(t&SampleFormatTime != 0)
	bd.u64If(t&SampleFormatID != 0)
	o.StreamID = bd.u64If(t&SampleFormatStreamID != 0)
	o.CPU = bd.u32If(t&SampleFormatCPU != 0)
	o.Res = bd.u32If(t&SampleFormatCPU != 0)
	o.Truncated = bd.truncated
	return true
}

func (r *Records) parseMmap(bd *bufDecoder, hdr *recordHeader, common *RecordCommon, v2 bool) Record {
	o := &r.recordMmap
	o.RecordCommon = *common
	o.Format |= SampleFormatTID

	// Decode hdr.Misc
	o.Data = (hdr.Misc&recordMiscMmapData != 0)

	// Decode fields
	o.PID, o.TID = int(bd.i32()), int(bd.i32())
	o.Addr, o.Len, o.FileOffset = bd.u64(), bd.u64(), bd.u64()
	if v2 {
		if hdr.Misc&recordMiscMmapBuildID != 0 {
			// u8 build ID size, 3 reserved bytes, 20-byte build ID,
			// in place of the device and inode fields.
			var b [24]byte
			bd.bytes(b[:])
			o.BuildID = append([]byte(nil), b[4:4+min(int(b[0]), 20)]...)
			o.Major, o.Minor, o.Ino, o.InoGeneration = 0, 0, 0, 0
		} else {
			o.Major, o.Minor = bd.u32(), bd.u32()
			o.Ino, o.InoGeneration = bd.u64(), bd.u64()
			o.BuildID = nil
		}
		o.Prot, o.Flags = bd.u32(), bd.u32()
	}
	o.Filename = bd.cstring()

	return o
}

func (r *Records) parseLost(bd *bufDecoder, hdr *recordHeader, common *RecordCommon) Record {
	o := &RecordLost{RecordCommon: *common}
	o.Format |= SampleFormatID

	o.ID = attrID(bd.u64())
	o.EventAttr = r.getAttr(o.ID)
	o.NumLost = bd.u64()

	return o
}

func (r *Records) parseComm(bd *bufDecoder, hdr *recordHeader, common *RecordCommon) Record {
	o := &r.recordComm
	o.RecordCommon = *common
	o.Format |= SampleFormatTID

	// Decode hdr.Misc
	o.Exec = (hdr.Misc&recordMiscCommExec != 0)

	// Decode fields
	o.PID, o.TID = int(bd.i32()), int(bd.i32())
	o.Comm = bd.cstring()

	return o
}

func (r *Records) parseExit(bd *bufDecoder, hdr *recordHeader, common *RecordCommon) Record {
	o := &r.recordExit
	o.RecordCommon = *common
	o.Format |= SampleFormatTID | SampleFormatTime

	o.PID, o.PPID = int(bd.i32()), int(bd.i32())
	o.TID, o.PTID = int(bd.i32()), int(bd.i32())
	o.Time = bd.u64()

	return o
}

func (r *Records) parseThrottle(bd *bufDecoder, hdr *recordHeader, common *RecordCommon, enable bool) Record {
	o := &RecordThrottle{RecordCommon: *common, Enable: enable}
	o.Format |= SampleFormatTime | SampleFormatID | SampleFormatStreamID

	o.Time = bd.u64()
	// Throttle events always have an event attr ID, even if the
	// IDs aren't recorded.  So if we see an unknown attr ID, just
	// assume it's the default event.
	id := attrID(bd.u64())
	if r.f.Session.attrByID[id] == nil && r.f.Session.attrByID[0] != nil {
		o.EventAttr = r.f.Session.attrByID[0]
	} else {
		o.EventAttr = r.getAttr(id)
	}
	o.StreamID = bd.u64()

	return o
}

func (r *Records) parseFork(bd *bufDecoder, hdr *recordHeader, common *RecordCommon) Record {
	o := &r.recordFork
	o.RecordCommon = *common
	o.Format |= SampleFormatTID | SampleFormatTime

	o.PID, o.PPID = int(bd.i32()), int(bd.i32())
	o.TID, o.PTID = int(bd.i32()), int(bd.i32())
	o.Time = bd.u64()

	return o
}

func (r *Records) parseSample(bd *bufDecoder, hdr *recordHeader) Record {
	o := &r.recordSample

	// Get sample EventAttr ID
	if r.f.sampleIDOffset == -1 {
		o.ID = 0
	} else if r.f.sampleIDOffset+8 > len(bd.buf) {
		o.Truncated = true
		return o
	} else {
		o.ID = attrID(bd.order.Uint64(bd.buf[r.f.sampleIDOffset:]))
	}
	o.EventAttr = r.getAttr(o.ID)
	if o.EventAttr == nil {
		return nil
	}

	// Decode hdr.Misc
	o.CPUMode = CPUMode(hdr.Misc & recordMiscCPUModeMask)
	o.ExactIP = (hdr.Misc&recordMiscExactIP != 0)

	// Decode the rest of the sample
	t := o.EventAttr.SampleFormat
	o.Format = t
	bd.u64If(t&SampleFormatIdentifier != 0)
	o.IP = bd.u64If(t&SampleFormatIP != 0)
	o.PID = int(bd.i32If(t&SampleFormatTID != 0))
	o.TID = int(bd.i32If(t&SampleFormatTID != 0))
	o.Time = bd.u64If(t&SampleFormatTime != 0)
	o.Addr = bd.u64If(t&SampleFormatAddr != 0)
	bd.u64If(t&SampleFormatID != 0)
	o.StreamID = bd.u64If(t&SampleFormatStreamID != 0)
	o.CPU = bd.u32If(t&SampleFormatCPU != 0)
	o.Res = bd.u32If(t&SampleFormatCPU != 0)
	o.Period = bd.u64If(t&SampleFormatPeriod != 0)

	if t&SampleFormatRead != 0 {
		r.parseReadFormat(bd, o.EventAttr.ReadFormat, &o.SampleRead)
	}

	if t&SampleFormatCallchain != 0 {
		callchainLen := int(bd.u64())
		if o.Callchain == nil || cap(o.Callchain) < callchainLen {
			o.Callchain = make([]uint64, callchainLen)
		} else {
			o.Callchain = o.Callchain[:callchainLen]
		}
		bd.u64s(o.Callchain)
	} else {
		o.Callchain = nil
	}

	rawSize := bd.u32If(t&SampleFormatRaw != 0)
	if t&SampleFormatRaw != 0 {
		if cap(o.Raw) < int(rawSize) {
			o.Raw = make([]byte, rawSize)
		} else {
			o.Raw = o.Raw[:rawSize]
		}
		bd.bytes(o.Raw)
	} else {
		o.Raw = nil
	}

	if t&SampleFormatBranchStack != 0 {
		count := int(bd.u64())
		if o.EventAttr.BranchSampleType&BranchSampleHWIndex != 0 {
			o.BranchHWIndex = int64(bd.u64())
		}
		if cap(o.BranchStack) < count {
			o.BranchStack = make([]BranchRecord, count)
		} else {
			o.BranchStack = o.BranchStack[:count]
		}
		for i := range o.BranchStack {
			o.BranchStack[i].From = bd.u64()
			o.BranchStack[i].To = bd.u64()
			word := bd.u64()
			o.BranchStack[i].Flags = BranchFlags(word & 0xf)
			o.BranchStack[i].Cycles = uint16((word >> 4) & 0xffff)
			o.BranchStack[i].Type = BranchType((word >> 20) & 0xf)
		}
	}

	if t&SampleFormatRegsUser != 0 {
		o.RegsUserABI = SampleRegsABI(bd.u64())
		count := weight(o.EventAttr.SampleRegsUser)
		if cap(o.RegsUser) < count {
			o.RegsUser = make([]uint64, count)
		} else {
			o.RegsUser = o.RegsUser[:count]
		}
		bd.u64s(o.RegsUser)
	}

	if t&SampleFormatStackUser != 0 {
		size := int(bd.u64())
		if cap(o.StackUser) < size {
			o.StackUser = make([]byte, size)
		} else {
			o.StackUser = o.StackUser[:size]
		}
		bd.bytes(o.StackUser)
		if size > 0 {
			o.StackUserDynSize = bd.u64()
		}
	} else {
		o.StackUser = nil
		o.StackUserDynSize = 0
	}

	if t&SampleFormatWeightStruct != 0 {
		full := bd.u64()
		o.Weights.Var1 = uint32(full)
		o.Weights.Var2 = uint16(full >> 32)
		o.Weights.Var3 = uint16(full >> 48)
	} else {
		o.Weight = bd.u64If(t&SampleFormatWeight != 0)
	}

	if t&SampleFormatDataSrc != 0 {
		o.DataSrc = decodeDataSrc(bd.u64())
	}

	transaction := bd.u64If(t&SampleFormatTransaction != 0)
	o.Transaction = Transaction(transaction & 0xffffffff)
	o.AbortCode = uint32(transaction >> 32)

	if t&SampleFormatRegsIntr != 0 {
		o.RegsIntrABI = SampleRegsABI(bd.u64())
		count := weight(o.EventAttr.SampleRegsIntr)
		if cap(o.RegsIntr) < count {
			o.RegsIntr = make([]uint64, count)
		} else {
			o.RegsIntr = o.RegsIntr[:count]
		}
		bd.u64s(o.RegsIntr)
	}

	o.PhysAddr = bd.u64If(t&SampleFormatPhysAddr != 0)
	o.CGroup = bd.u64If(t&SampleFormatCGroup != 0)
	o.DataPageSize = bd.u64If(t&SampleFormatDataPageSize != 0)
	o.CodePageSize = bd.u64If(t&SampleFormatCodePageSize != 0)

	if t&SampleFormatAux != 0 {
		size := int(bd.u64())
		if cap(o.Aux) < size {
			o.Aux = make([]byte, size)
		} else {
			o.Aux = o.Aux[:size]
		}
		bd.bytes(o.Aux)
	} else {
		o.Aux = nil
	}

	o.Truncated = bd.truncated
	return o
}

func (r *Records) parseReadFormat(bd *bufDecoder, f ReadFormat, out *[]Count) {
	n := 1
	if f&ReadFormatGroup != 0 {
		n = int(bd.u64())
	}

	if *out == nil || cap(*out) < n {
		*out = make([]Count, n)
	} else {
		*out = (*out)[:n]
	}

	if f&ReadFormatGroup == 0 {
		o := &(*out)[0]
		o.Value = bd.u64()
		o.TimeEnabled = bd.u64If(f&ReadFormatTotalTimeEnabled != 0)
		o.TimeRunning = bd.u64If(f&ReadFormatTotalTimeRunning != 0)
		if f&ReadFormatID != 0 {
			o.EventAttr = r.getAttr(attrID(bd.u64()))
		} else {
			o.EventAttr = nil
		}
	} else {
		for i := range *out {
			o := &(*out)[i]
			o.TimeEnabled = bd.u64If(f&ReadFormatTotalTimeEnabled != 0)
			o.TimeRunning = bd.u64If(f&ReadFormatTotalTimeRunning != 0)
			o.Value = bd.u64()
			if f&ReadFormatID != 0 {
				o.EventAttr = r.getAttr(attrID(bd.u64()))
			} else {
				o.EventAttr = nil
			}
		}
	}
}

func decodeDataSrc(d uint64) (out DataSrc) {
	// See perf_mem_data_src in include/uapi/linux/perf_event.h
	op := (d >> 0) & 0x1f
	lvl := (d >> 5) & 0x3fff
	snoop := (d >> 19) & 0x1f
	lock := (d >> 24) & 0x3
	dtlb := (d >> 26) & 0x7f

	if op&0x1 != 0 {
		out.Op = DataSrcOpNA
	} else {
		out.Op = DataSrcOp(op >> 1)
	}

	if lvl&0x1 != 0 {
		out.Miss, out.Level = false, DataSrcLevelNA
	} else {
		out.Miss = (lvl & 0x4) != 0
		out.Level = DataSrcLevel(lvl >> 3)
	}

	if snoop&0x1 != 0 {
		out.Snoop = DataSrcSnoopNA
	} else {
		out.Snoop = DataSrcSnoop(snoop >> 1)
	}

	if lock&0x1 != 0 {
		out.Locked = DataSrcLockNA
	} else if lock&0x02 != 0 {
		out.Locked = DataSrcLockLocked
	} else {
		out.Locked = DataSrcLockUnlocked
	}

	if dtlb&0x1 != 0 {
		out.TLB = DataSrcTLBNA
	} else {
		out.TLB = DataSrcTLB(dtlb >> 1)
	}
	return
}

func weight(x uint64) int {
	x -= (x >> 1) & 0x5555555555555555
	x = (x & 0x3333333333333333) + ((x >> 2) & 0x3333333333333333)
	x = (x + (x >> 4)) & 0x0f0f0f0f0f0f0f0f
	return int((x * 0x0101010101010101) >> 56)
}
