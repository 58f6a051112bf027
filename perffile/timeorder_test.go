// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perffile

import (
	"container/heap"
	"testing"
)

func TestTimeHeapOrdersByTimeThenSeq(t *testing.T) {
	h := &timeHeap{
		{time: 30, seq: 1},
		{time: 10, seq: 2},
		{time: 10, seq: 1},
		{time: 20, seq: 3},
	}
	heap.Init(h)

	var order []int64
	for h.Len() > 0 {
		tr := heap.Pop(h).(timedRecord)
		order = append(order, tr.seq)
	}
	want := []int64{1, 2, 3, 1}
	if len(order) != len(want) {
		t.Fatalf("popped %d records, want %d", len(order), len(want))
	}
	// The two time=10 records (seq 1, seq 2) must come out before the
	// time=20 and time=30 records, in seq order relative to each other.
	if order[0] != 1 || order[1] != 2 {
		t.Errorf("first two pops = %v, want [1 2] (time=10 records, tie-broken by seq)", order[:2])
	}
	if order[2] != 3 {
		t.Errorf("third pop = %d, want 3 (time=20)", order[2])
	}
	if order[3] != 1 {
		t.Errorf("fourth pop = %d, want 1 (time=30)", order[3])
	}
}

func TestCopyRecordSampleIsIndependent(t *testing.T) {
	orig := &RecordSample{
		Callchain: []uint64{1, 2, 3},
		Raw:       []byte{4, 5, 6},
	}
	cp := copyRecord(orig).(*RecordSample)

	cp.Callchain[0] = 99
	cp.Raw[0] = 99
	if orig.Callchain[0] == 99 {
		t.Error("copyRecord did not deep-copy Callchain")
	}
	if orig.Raw[0] == 99 {
		t.Error("copyRecord did not deep-copy Raw")
	}

	// Mutating the original's slice backing array (simulating reuse
	// by a subsequent Records.Next call) must not affect the copy.
	orig.Callchain[1] = 123
	if cp.Callchain[1] == 123 {
		t.Error("copyRecord's Callchain shares storage with the original")
	}
}

func TestCopyRecordUnknownIsIndependent(t *testing.T) {
	orig := &RecordUnknown{Data: []byte{1, 2, 3}}
	cp := copyRecord(orig).(*RecordUnknown)
	cp.Data[0] = 99
	if orig.Data[0] == 99 {
		t.Error("copyRecord did not deep-copy RecordUnknown.Data")
	}
}

func TestCopyRecordMmapSharesNoPointerButIsCopy(t *testing.T) {
	orig := &RecordMmap{Filename: "a.out", Addr: 0x1000}
	cp := copyRecord(orig).(*RecordMmap)
	if cp == orig {
		t.Error("copyRecord returned the same pointer")
	}
	cp.Addr = 0x2000
	if orig.Addr == 0x2000 {
		t.Error("copyRecord's RecordMmap shares storage with the original")
	}
}
