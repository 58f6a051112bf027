// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perffile

import "container/heap"

// newTimeOrderRecords returns a Records that merges f's per-CPU
// record streams into time-stamp order using a bounded round buffer,
// rather than RecordsStableTimeOrder's whole-file sort.
//
// perf itself writes records from several per-CPU ring buffers
// interleaved in file order, periodically emitting a
// RecordFinishedRound barrier once it has drained every CPU's buffer
// up to some point in time. Two records on the same CPU are always in
// file order; two records on different CPUs are only guaranteed
// ordered relative to a FinishedRound that separates them. So it's
// sufficient to buffer one round at a time, sort that round's records
// by time, and emit them, rather than sorting the whole file.
//
// If the producer never emits a FinishedRound (some pipe-mode
// producers don't), this degrades to buffering up to maxRoundRecords
// at a time -- bounded, unlike RecordsStableTimeOrder's whole-file
// buffer, but no longer round-accurate.
func newTimeOrderRecords(f *File) *Records {
	inner := f.Records(RecordsFileOrder)
	return &Records{f: f, merger: newTimeOrderMerger(inner)}
}

// timeOrderMerger implements the round-buffered merge. It's driven
// entirely by pulling from an underlying RecordsFileOrder iterator,
// so it works for both normal- and pipe-layout files.
type timeOrderMerger struct {
	inner *Records
	round timeHeap
	seq   int64
	done  bool
	err   error
}

func newTimeOrderMerger(inner *Records) *timeOrderMerger {
	return &timeOrderMerger{inner: inner}
}

// timedRecord pairs a Record with the (time, file order) key it's
// sorted by. seq breaks ties between records with identical
// timestamps, preserving file order among them.
type timedRecord struct {
	rec  Record
	time uint64
	seq  int64
}

type timeHeap []timedRecord

func (h timeHeap) Len() int { return len(h) }
func (h timeHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	return h[i].seq < h[j].seq
}
func (h timeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *timeHeap) Push(x interface{}) { *h = append(*h, x.(timedRecord)) }
func (h *timeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// maxRoundRecords bounds how many records timeOrderMerger will buffer
// in a single round if the producer never emits a FinishedRound.
const maxRoundRecords = 1 << 16

// next returns the next record in time order, or nil, nil at the end
// of the stream.
func (m *timeOrderMerger) next() (Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.round) == 0 && !m.done {
		m.fillRound()
		if m.err != nil {
			return nil, m.err
		}
	}
	if len(m.round) == 0 {
		return nil, nil
	}
	tr := heap.Pop(&m.round).(timedRecord)
	return tr.rec, nil
}

// fillRound pulls records from m.inner into m.round, heap-ordered by
// (time, seq), until it sees a RecordFinishedRound barrier, reaches
// end of stream, or hits maxRoundRecords.
func (m *timeOrderMerger) fillRound() {
	for len(m.round) < maxRoundRecords {
		if !m.inner.Next() {
			m.done = true
			m.err = m.inner.Err()
			return
		}
		rec := m.inner.Record
		if _, ok := rec.(*RecordFinishedRound); ok {
			return
		}
		if c := rec.Common(); c.Format&SampleFormatCPU != 0 && c.Format&SampleFormatTime != 0 {
			m.inner.f.Session.CPUCurrentTime[c.CPU] = c.Time
		}
		m.seq++
		// Copy the record: the underlying Records iterator reuses
		// storage for common record types across calls to Next.
		heap.Push(&m.round, timedRecord{rec: copyRecord(rec), time: rec.Common().Time, seq: m.seq})
	}
}

// copyRecord returns a heap-allocated copy of rec so it survives
// past the next call to the underlying Records.Next.
func copyRecord(rec Record) Record {
	switch r := rec.(type) {
	case *RecordSample:
		cp := *r
		cp.SampleRead = append([]Count(nil), r.SampleRead...)
		cp.Callchain = append([]uint64(nil), r.Callchain...)
		cp.BranchStack = append([]BranchRecord(nil), r.BranchStack...)
		cp.RegsUser = append([]uint64(nil), r.RegsUser...)
		cp.RegsIntr = append([]uint64(nil), r.RegsIntr...)
		cp.StackUser = append([]byte(nil), r.StackUser...)
		cp.Raw = append([]byte(nil), r.Raw...)
		cp.Aux = append([]byte(nil), r.Aux...)
		return &cp
	case *RecordMmap:
		cp := *r
		return &cp
	case *RecordComm:
		cp := *r
		return &cp
	case *RecordLost:
		cp := *r
		return &cp
	case *RecordExit:
		cp := *r
		return &cp
	case *RecordFork:
		cp := *r
		return &cp
	case *RecordThrottle:
		cp := *r
		return &cp
	case *RecordUnknown:
		cp := *r
		cp.Data = append([]byte(nil), r.Data...)
		return &cp
	default:
		return rec
	}
}
