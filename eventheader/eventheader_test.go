// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eventheader

import "testing"

func TestParseHeader(t *testing.T) {
	buf := []byte{
		byte(HeaderFlagLittleEndian), // flags
		1,                            // version
		0x34, 0x12,                   // id = 0x1234
		0x02, 0x00, // tag = 2
		byte(OpcodeStartActivity), // opcode
		byte(LevelWarning),        // level
	}
	hdr, err := ParseHeader(buf)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if hdr.ID != 0x1234 {
		t.Errorf("ID = %#x, want 0x1234", hdr.ID)
	}
	if hdr.Tag != 2 {
		t.Errorf("Tag = %d, want 2", hdr.Tag)
	}
	if hdr.Opcode != OpcodeStartActivity {
		t.Errorf("Opcode = %v, want OpcodeStartActivity", hdr.Opcode)
	}
	if hdr.Level != LevelWarning {
		t.Errorf("Level = %v, want LevelWarning", hdr.Level)
	}
	if !hdr.littleEndian() {
		t.Error("littleEndian() = false, want true")
	}
}

func TestParseHeaderTooShort(t *testing.T) {
	if _, err := ParseHeader([]byte{1, 2, 3}); err == nil {
		t.Error("ParseHeader succeeded on a too-short buffer")
	}
}

// field builds one EventHeader field descriptor: a NUL-terminated
// name, an encoding byte, a format byte, and the caller-supplied tail
// (an array count, a struct field count, or the value bytes).
func field(name string, enc FieldEncoding, format byte, tail ...byte) []byte {
	b := append([]byte(name), 0)
	b = append(b, byte(enc), format)
	return append(b, tail...)
}

func TestEnumeratorScalarValue(t *testing.T) {
	body := field("x", FieldEncoding(7) /* EncodingUnsigned32 */, 0, 0x78, 0x56, 0x34, 0x12)

	var en Enumerator
	if err := en.StartEvent(Header{Flags: HeaderFlagLittleEndian}, body); err != nil {
		t.Fatalf("StartEvent: %v", err)
	}
	if !en.MoveNext() {
		t.Fatalf("MoveNext() = false, err = %v", en.Err())
	}
	item := en.GetItemInfo()
	if item.Kind != ItemValue || item.Name != "x" {
		t.Fatalf("item = %+v, want a value named x", item)
	}
	if got := item.Value.U32(); got != 0x12345678 {
		t.Errorf("U32() = %#x, want 0x12345678", got)
	}
	if en.MoveNext() {
		t.Error("MoveNext() = true past the last field")
	}
	if en.State() != StateAfterLastItem {
		t.Errorf("State() = %v, want StateAfterLastItem", en.State())
	}
}

func TestEnumeratorStruct(t *testing.T) {
	inner1 := field("a", FieldEncoding(5) /* EncodingUnsigned8 */, 0, 1)
	inner2 := field("b", FieldEncoding(5), 0, 2)
	body := field("s", encodingStruct, 0, 2) // 2 fields follow
	body = append(body, inner1...)
	body = append(body, inner2...)

	var en Enumerator
	en.StartEvent(Header{Flags: HeaderFlagLittleEndian}, body)

	want := []ItemKind{ItemStructBegin, ItemValue, ItemValue, ItemStructEnd}
	for i, w := range want {
		if !en.MoveNext() {
			t.Fatalf("MoveNext() #%d = false, err = %v", i, en.Err())
		}
		if got := en.GetItemInfo().Kind; got != w {
			t.Errorf("item #%d Kind = %v, want %v", i, got, w)
		}
	}
	if en.MoveNext() {
		t.Error("MoveNext() = true past the struct's end")
	}
}

func TestEnumeratorArray(t *testing.T) {
	enc := FieldEncoding(5) | flagArray // array of EncodingUnsigned8
	body := field("arr", enc, 0, 2, 0)  // count = 2, little-endian u16
	body = append(body, 10, 20)

	var en Enumerator
	en.StartEvent(Header{Flags: HeaderFlagLittleEndian}, body)

	want := []ItemKind{ItemArrayBegin, ItemValue, ItemValue, ItemArrayEnd}
	var values []uint8
	for i, w := range want {
		if !en.MoveNext() {
			t.Fatalf("MoveNext() #%d = false, err = %v", i, en.Err())
		}
		item := en.GetItemInfo()
		if item.Kind != w {
			t.Errorf("item #%d Kind = %v, want %v", i, item.Kind, w)
		}
		if item.Kind == ItemValue {
			values = append(values, item.Value.U8())
		}
	}
	if len(values) != 2 || values[0] != 10 || values[1] != 20 {
		t.Errorf("array values = %v, want [10 20]", values)
	}
}

func TestEnumeratorStringLength(t *testing.T) {
	// EncodingStringLength = 12: a little-endian u16 byte count
	// followed by that many bytes. "ab\x00" (length 3) decodes to "ab",
	// matching the worked example of a char[] field whose payload
	// embeds a NUL before its declared length.
	body := field("s", FieldEncoding(12), 0, 3, 0, 'a', 'b', 0)

	var en Enumerator
	en.StartEvent(Header{Flags: HeaderFlagLittleEndian}, body)
	if !en.MoveNext() {
		t.Fatalf("MoveNext(): %v", en.Err())
	}
	item := en.GetItemInfo()
	if item.Kind != ItemValue || item.Name != "s" {
		t.Fatalf("item = %+v, want a value named s", item)
	}
	if got := item.Value.String(); got != "ab" {
		t.Errorf("String() = %q, want \"ab\"", got)
	}
	if en.MoveNext() {
		t.Error("MoveNext() = true past the last field")
	}
}

func TestEnumeratorStringFixed(t *testing.T) {
	// EncodingStringFixed = 11: NUL-terminated, consumed up to (and
	// including) the terminator.
	body := field("s", FieldEncoding(11), 0, 'h', 'i', 0)
	body = append(body, field("after", FieldEncoding(5), 0, 99)...)

	var en Enumerator
	en.StartEvent(Header{Flags: HeaderFlagLittleEndian}, body)
	if !en.MoveNext() {
		t.Fatalf("MoveNext(): %v", en.Err())
	}
	if got := en.GetItemInfo().Value.String(); got != "hi" {
		t.Errorf("String() = %q, want \"hi\"", got)
	}
	if !en.MoveNext() {
		t.Fatalf("MoveNext() after string field: %v", en.Err())
	}
	item := en.GetItemInfo()
	if item.Kind != ItemValue || item.Name != "after" {
		t.Fatalf("item after string field = %+v, want value \"after\"", item)
	}
}

func TestEnumeratorMoveNextSibling(t *testing.T) {
	inner1 := field("a", FieldEncoding(5), 0, 1)
	inner2 := field("b", FieldEncoding(5), 0, 2)
	body := field("s", encodingStruct, 0, 2)
	body = append(body, inner1...)
	body = append(body, inner2...)
	body = append(body, field("after", FieldEncoding(5), 0, 99)...)

	var en Enumerator
	en.StartEvent(Header{Flags: HeaderFlagLittleEndian}, body)
	if !en.MoveNext() || en.GetItemInfo().Kind != ItemStructBegin {
		t.Fatalf("expected first item to be StructBegin")
	}
	if !en.MoveNextSibling() {
		t.Fatalf("MoveNextSibling: %v", en.Err())
	}
	item := en.GetItemInfo()
	if item.Kind != ItemValue || item.Name != "after" {
		t.Fatalf("item after MoveNextSibling = %+v, want value \"after\"", item)
	}
}

func TestEnumeratorTruncated(t *testing.T) {
	body := []byte("x\x00") // name with no encoding/format bytes following

	var en Enumerator
	en.StartEvent(Header{Flags: HeaderFlagLittleEndian}, body)
	if en.MoveNext() {
		t.Fatal("MoveNext() succeeded on a truncated field descriptor")
	}
	if en.Err() == nil {
		t.Error("Err() = nil after a truncated decode")
	}
	if en.State() != StateError {
		t.Errorf("State() = %v, want StateError", en.State())
	}
}

func TestEnumeratorStackOverflow(t *testing.T) {
	var body []byte
	for i := 0; i < maxDepth+1; i++ {
		body = append(body, field("s", encodingStruct, 0, 1)...)
	}
	body = append(body, field("leaf", FieldEncoding(5), 0, 1)...)

	var en Enumerator
	en.StartEvent(Header{Flags: HeaderFlagLittleEndian}, body)
	for en.MoveNext() {
	}
	if en.Err() != ErrStackOverflow {
		t.Errorf("Err() = %v, want ErrStackOverflow", en.Err())
	}
}
