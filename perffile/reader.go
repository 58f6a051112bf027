// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perffile

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
)

// TODO: Type for file format errors.

// A File is a perf.data file. It consists of a sequence of records,
// which can be retrieved with the Records method, as well as several
// optional metadata fields.
//
// perf.data comes in two on-disk layouts. The normal layout (magic
// "PERFILE2") is seekable and indexed: a fixed header names sections
// for the event attribute table and the record data, and a trailer
// holds optional feature sections. The pipe layout (magic
// "PERFILE_") is a flat, unindexed stream of records used when the
// recording tool's output can't be seeked (a pipe, a socket); its
// attrs and feature data instead arrive as synthetic records
// (HeaderAttr, TracingData, ...) interleaved with the samples. New
// and Open require the normal layout; Pipe and OpenPipe require the
// pipe layout.
type File struct {
	// Meta contains the metadata for this profile, such as
	// information about the hardware.
	Meta FileMeta

	// Events lists all events that may appear in this profile.
	Events []*EventAttr

	// Session holds the state a Records iterator resolves records
	// against: clock calibration, the attr lookup table, and
	// parsed tracepoint formats.
	Session SessionInfo

	r      io.ReaderAt
	pipe   io.Reader // set instead of r for pipe-layout files
	closer io.Closer
	hdr    fileHeader

	byteReader ByteReader

	attrs []fileAttr

	sampleIDOffset int // byte offset of AttrID in sample

	sampleIDAll    bool // non-samples have sample_id trailer
	recordIDOffset int  // byte offset of AttrID in non-sample, from end
}

// order returns the byte order this file's records are encoded in.
func (f *File) order() binary.ByteOrder {
	if f.byteReader.FromBigEndian() {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// ByteReader returns the endian-aware reader this file's records
// should be decoded with. Code decoding a tracepoint sample's raw
// payload with tracefs picks binary.BigEndian or binary.LittleEndian
// from its FromBigEndian method rather than assuming the host's own
// byte order.
func (f *File) ByteReader() ByteReader {
	return f.byteReader
}

const (
	magicNormalLE = "PERFILE2"
	magicNormalBE = "2ELIFREP"
	magicPipeLE   = "PERFILE_"
	magicPipeBE   = "_ELIFREP"
)

// New reads a "perf.data" file from r. r must hold the normal,
// seekable layout; use Pipe for the pipe layout.
//
// The caller must keep r open as long as it is using the returned
// *File.
func New(r io.ReaderAt) (*File, error) {
	// See perf_session__open in tools/perf/util/session.c.
	magic := make([]byte, 8)
	if _, err := r.ReadAt(magic, 0); err != nil {
		return nil, err
	}
	switch string(magic) {
	case magicPipeLE, magicPipeBE:
		return nil, fmt.Errorf("pipe-mode perf.data stream; use Pipe instead of New")
	}

	file := &File{r: r, Events: make([]*EventAttr, 0)}
	file.Session.init()

	switch string(magic) {
	case magicNormalLE:
		file.byteReader = NewByteReader(false)
	case magicNormalBE:
		file.byteReader = NewByteReader(true)
	case "PERFFILE":
		return nil, fmt.Errorf("version 1 profiles not supported")
	default:
		return nil, fmt.Errorf("bad or unsupported file magic %q", string(magic))
	}
	bo := file.order()

	// Read and process the file header.
	//
	// See perf_session__read_header in tools/perf/util/header.c
	sr := io.NewSectionReader(r, 0, 1024)
	if err := binary.Read(sr, bo, &file.hdr); err != nil {
		return nil, err
	}
	if file.hdr.Size != uint64(binary.Size(&file.hdr)) {
		return nil, fmt.Errorf("bad header size %d", file.hdr.Size)
	}

	// hdr.Data.Size is the last thing written out by perf, so if
	// it's zero, we're working with a partial file.
	if file.hdr.Data.Size == 0 {
		return nil, fmt.Errorf("truncated data file; was 'perf record' properly terminated?")
	}

	// Read EventAttrs. Note that the attr size is represented in
	// both the file header and in each individual attr, but perf
	// doesn't validate the file-level attr size.
	if file.hdr.AttrSize == 0 {
		return nil, fmt.Errorf("bad attr size 0")
	}
	nAttrs := int(file.hdr.Attrs.Size / file.hdr.AttrSize)
	if nAttrs == 0 {
		return nil, fmt.Errorf("no event types")
	} else if nAttrs > 64*1024 {
		return nil, fmt.Errorf("too many attrs or bad attr size")
	}
	file.attrs = make([]fileAttr, nAttrs)
	attrSR := file.hdr.Attrs.sectionReader(r)
	for i := 0; i < nAttrs; i++ {
		if err := readFileAttr(attrSR, bo, &file.attrs[i]); err != nil {
			return nil, err
		}
		file.Events = append(file.Events, &file.attrs[i].Attr)
	}

	// Read EventAttr IDs and create ID -> EventAttr map
	for i := range file.attrs {
		attr := &file.attrs[i]
		var ids []attrID
		if err := readSlice(attr.IDs.sectionReader(r), bo, &ids); err != nil {
			return nil, err
		}
		for _, id := range ids {
			file.Session.attrByID[id] = &attr.Attr
		}
	}

	if err := file.checkSampleFormats(); err != nil {
		return nil, err
	}

	// Load feature sections.
	sr = io.NewSectionReader(r, int64(file.hdr.Data.Offset+file.hdr.Data.Size), int64(numFeatureBits*binary.Size(fileSection{})))
	for bit := feature(0); bit < feature(numFeatureBits); bit++ {
		if !file.hdr.hasFeature(bit) {
			continue
		}
		sec := fileSection{}
		if err := binary.Read(sr, bo, &sec); err != nil {
			return nil, err
		}
		file.Meta.parse(bit, sec, file.r, bo, &file.Session)
	}

	return file, nil
}

// checkSampleFormats validates that sample formats are consistent
// across all event types and records cross-event sample format
// information.
func (f *File) checkSampleFormats() error {
	firstEvent := &f.attrs[0].Attr
	f.sampleIDOffset = firstEvent.SampleFormat.sampleIDOffset()
	f.recordIDOffset = firstEvent.SampleFormat.recordIDOffset()
	f.sampleIDAll = firstEvent.Flags&EventFlagSampleIDAll != 0
	if len(f.attrs) > 1 {
		if len(f.Session.attrByID) == 0 {
			return fmt.Errorf("file has multiple EventAttrs, but no IDs")
		}
		for _, attr := range f.attrs {
			// See perf_evlist__valid_sample_type.
			x := attr.Attr.SampleFormat.sampleIDOffset()
			if x == -1 {
				return fmt.Errorf("multiple events, but samples have no event ID field")
			} else if f.sampleIDOffset != x {
				return fmt.Errorf("events have incompatible ID offsets %d and %d", f.sampleIDOffset, x)
			}

			x = attr.Attr.SampleFormat.recordIDOffset()
			if x == -1 {
				return fmt.Errorf("multiple events, but records have no event ID field")
			} else if f.recordIDOffset != x {
				return fmt.Errorf("records have incompatible ID offsets %d and %d", f.recordIDOffset, x)
			}

			// See perf_evlist__valid_sample_id_all.
			idAll := attr.Attr.Flags&EventFlagSampleIDAll != 0
			if f.sampleIDAll != idAll {
				return fmt.Errorf("events have incompatible SampleIDAll flags")
			}

			// See perf_evlist__valid_read_format.
			if firstEvent.ReadFormat != attr.Attr.ReadFormat {
				return fmt.Errorf("events have incompatible read formats")
			}
		}
		if firstEvent.SampleFormat&SampleFormatRead != 0 &&
			firstEvent.ReadFormat&ReadFormatID == 0 {
			return fmt.Errorf("bad event read format")
		}
	}
	return nil
}

// Open opens the named "perf.data" file using os.Open, dispatching to
// the normal or pipe layout reader based on the file's magic number.
//
// The caller must call f.Close() on the returned file when it is
// done.
func Open(name string) (*File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	magic := make([]byte, 8)
	if _, err := f.ReadAt(magic, 0); err != nil {
		f.Close()
		return nil, err
	}
	switch string(magic) {
	case magicPipeLE, magicPipeBE:
		ff, err := Pipe(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		ff.closer = f
		return ff, nil
	}
	ff, err := New(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	ff.closer = f
	return ff, nil
}

func readFileAttr(sr *io.SectionReader, bo binary.ByteOrder, fa *fileAttr) error {
	// See read_attr in tools/perf/util/header.c.

	// Read the common prefix of all event attr versions.
	var attr eventAttrVN
	if err := binary.Read(sr, bo, &attr.eventAttrV0); err != nil {
		return err
	}
	if attr.Size == 0 {
		// Assume ABI v0
		attr.Size = 64
	} else if attr.Size > uint32(binary.Size(&attr)) {
		return fmt.Errorf("event attr size %d too large; more recent and unsupported format", attr.Size)
	} else {
		// Read whatever's left. There are specific versions
		// of this structure, but perf doesn't try to
		// distinguish them, so neither do we.
		left := int(attr.Size) - binary.Size(&attr.eventAttrV0)
		rattr := reflect.ValueOf(&attr).Elem()
		for i := 1; i < rattr.NumField() && left > 0; i++ {
			field := rattr.Field(i).Addr().Interface()
			err := binary.Read(sr, bo, field)
			if err != nil {
				return err
			}
			left -= binary.Size(field)
		}
	}

	// Convert on-disk perf_event_attr in to EventAttr.
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

	// Finally, read IDs fileSection, which follows the eventAttr.
	return binary.Read(sr, bo, &fa.IDs)
}

// Close closes the File.
//
// If the File was created using New directly instead of Open, Close
// has no effect.
func (f *File) Close() error {
	var err error
	if f.closer != nil {
		err = f.closer.Close()
		f.closer = nil
	}
	return err
}

// readSlice reads an entire section into a slice.  v must be a
// pointer to a slice; the slice itself may be nil.  The section size
// must be an exact multiple of the size of the element type of v.
func readSlice(sr *io.SectionReader, bo binary.ByteOrder, v interface{}) error {
	// Figure out slice value size
	vt := reflect.TypeOf(v)
	if vt.Kind() != reflect.Ptr || vt.Elem().Kind() != reflect.Slice {
		panic("v must be a pointer to a slice")
	}
	et := vt.Elem().Elem()
	esize := binary.Size(reflect.Zero(et).Interface())
	nelem := int(sr.Size() / int64(esize))
	if sr.Size()%int64(esize) != 0 {
		return fmt.Errorf("section size %d is not a multiple of element size %d", sr.Size(), esize)
	}

	// Create slice
	reflect.ValueOf(v).Elem().Set(reflect.MakeSlice(vt.Elem(), nelem, nelem))

	// Read in to slice
	return binary.Read(sr, bo, v)
}

//go:generate stringer -type=RecordsOrder

type RecordsOrder int

const (
	// RecordsFileOrder requests records in file order. This is
	// efficient because it allows streaming the records directly
	// from the file, but the records may not be in time-stamp or
	// even causal order.
	RecordsFileOrder RecordsOrder = iota

	// RecordsCausalOrder requests records in causal order. This
	// is weakly time-ordered: any two records will be in
	// time-stamp order *unless* those records are both
	// RecordSamples. Currently it is implemented exactly as
	// RecordsStableTimeOrder, at the same cost.
	RecordsCausalOrder

	// RecordsTimeOrder requests records merged across per-CPU
	// streams in time-stamp order, using the round-buffer
	// algorithm in timeorder.go: records are buffered in a single
	// (time, file order) heap between FinishedRound barriers and
	// emitted in ascending (time, file order). Absent barriers, at
	// most maxRoundRecords records are buffered at a time, so
	// records further apart than that in the file are not reordered
	// relative to each other.
	RecordsTimeOrder

	// RecordsStableTimeOrder requests records in time-stamp order
	// using a whole-file two-pass stable sort: first record every
	// offset/timestamp pair, then re-read the file in sorted
	// order. This is more expensive than RecordsTimeOrder but
	// doesn't depend on the producer having emitted FinishedRound
	// barriers.
	RecordsStableTimeOrder
)

// Records returns an iterator over the records in the profile. The
// order argument specifies the order for iterating through the
// records in this File. Callers should choose the least
// resource-intensive iteration order that satisfies their needs.
func (f *File) Records(order RecordsOrder) *Records {
	if order == RecordsTimeOrder {
		return newTimeOrderRecords(f)
	}

	if order == RecordsCausalOrder || order == RecordsStableTimeOrder {
		// Sort the records by making two passes: first record
		// the offsets and time-stamps of all records, then
		// sort this by time-stamp and re-read in the new
		// offset order.
		//
		// See process_finished_round in session.c for how
		// perf does this.

		if f.pipe != nil {
			return &Records{err: fmt.Errorf("pipe-mode files do not support %v", order)}
		}

		rs := f.Records(RecordsFileOrder)
		pos, ts := make([]int64, 0), make([]uint64, 0)
		for rs.Next() {
			c := rs.Record.Common()
			pos = append(pos, c.Offset)
			ts = append(ts, c.Time)
		}
		if rs.Err() != nil {
			return &Records{err: rs.Err()}
		}
		sort.Stable(&timeSorter{pos, ts})
		return &Records{f: f, sr: f.hdr.Data.sectionReader(f.r), order: pos}
	}

	if f.pipe != nil {
		return &Records{f: f, sr: newPipeSource(f.pipe)}
	}
	return &Records{f: f, sr: newBufferedSectionReader(f.hdr.Data.sectionReader(f.r))}
}

type timeSorter struct {
	pos []int64
	ts  []uint64
}

func (s *timeSorter) Len() int {
	return len(s.pos)
}

func (s *timeSorter) Less(i, j int) bool {
	return s.ts[i] < s.ts[j]
}

func (s *timeSorter) Swap(i, j int) {
	s.pos[i], s.pos[j] = s.pos[j], s.pos[i]
	s.ts[i], s.ts[j] = s.ts[j], s.ts[i]
}
