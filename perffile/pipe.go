// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perffile

import (
	"encoding/binary"
	"fmt"
	"io"
)

// pipeHeader is the minimal header a pipe-layout perf.data stream
// starts with: just a magic and a redundant self-size, since there's
// no section index to describe.
type pipeHeader struct {
	Magic [8]byte
	Size  uint64
}

// Pipe reads a pipe-layout "perf.data" stream from r. Unlike New, r
// need only be an io.Reader: a pipe-layout stream carries its event
// attrs and feature data as synthetic records (HeaderAttr,
// TracingData, ...) at the front of the record stream rather than in
// a seekable index, so the whole file never needs random access.
//
// Because the attr table arrives inline, f.Events and f.Session are
// not fully populated until the corresponding HeaderAttr/TracingData
// records have been read from f.Records(...); callers that need them
// upfront should drain records until RecordTypeFinishedRound or EOF,
// or simply read until EventAttr resolution succeeds.
func Pipe(r io.Reader) (*File, error) {
	var hdr pipeHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}

	file := &File{pipe: r, Events: make([]*EventAttr, 0)}
	file.Session.init()

	switch string(hdr.Magic[:]) {
	case magicPipeLE:
		file.byteReader = NewByteReader(false)
	case magicPipeBE:
		file.byteReader = NewByteReader(true)
		// The header's own Size field was read assuming little
		// endian above; nothing in this package uses it, so no
		// correction is needed.
	default:
		return nil, fmt.Errorf("bad or unsupported pipe magic %q", string(hdr.Magic[:]))
	}

	return file, nil
}

// OpenPipe is like Pipe, but also arranges for f.Close to close r if
// r implements io.Closer.
func OpenPipe(r io.Reader) (*File, error) {
	f, err := Pipe(r)
	if err != nil {
		return nil, err
	}
	if c, ok := r.(io.Closer); ok {
		f.closer = c
	}
	return f, nil
}

// pipeSource adapts a plain io.Reader to the recordSource interface
// Records needs, tracking a running byte position since a pipe offers
// no seeking of its own. Its Seek only supports the same
// current-position query bufferedSectionReader supports.
type pipeSource struct {
	r   io.Reader
	pos int64
}

func newPipeSource(r io.Reader) *pipeSource {
	return &pipeSource{r: r}
}

func (p *pipeSource) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.pos += int64(n)
	return n, err
}

func (p *pipeSource) Seek(offset int64, whence int) (int64, error) {
	if offset != 0 || whence != 1 {
		panic("unimplemented seek")
	}
	return p.pos, nil
}
