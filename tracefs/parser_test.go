// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tracefs

import "testing"

const schedSwitchFormat = `name: sched_switch
ID: 314
format:
	field:unsigned short common_type;	offset:0;	size:2;	signed:0;
	field:unsigned char common_flags;	offset:2;	size:1;	signed:0;
	field:unsigned char common_preempt_count;	offset:3;	size:1;	signed:0;
	field:int common_pid;	offset:4;	size:4;	signed:1;

	field:char prev_comm[16];	offset:8;	size:16;	signed:0;
	field:pid_t prev_pid;	offset:24;	size:4;	signed:1;
	field:int prev_prio;	offset:28;	size:4;	signed:1;
	field:long prev_state;	offset:32;	size:8;	signed:1;
	field:char next_comm[16];	offset:40;	size:16;	signed:0;
	field:pid_t next_pid;	offset:56;	size:4;	signed:1;
	field:int next_prio;	offset:60;	size:4;	signed:1;
	field:__data_loc char[] msg;	offset:64;	size:4;	signed:0;

print fmt: "prev_comm=%s prev_pid=%d ==> next_comm=%s next_pid=%d", REC->prev_comm, REC->prev_pid, REC->next_comm, REC->next_pid
`

func TestParseSchedSwitch(t *testing.T) {
	f, err := Parse(schedSwitchFormat)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Name != "sched_switch" {
		t.Errorf("Name = %q, want sched_switch", f.Name)
	}
	if f.SystemID != 314 {
		t.Errorf("SystemID = %d, want 314", f.SystemID)
	}
	if len(f.CommonFields) != 4 {
		t.Fatalf("len(CommonFields) = %d, want 4", len(f.CommonFields))
	}
	for _, cf := range f.CommonFields {
		if cf.Name[:7] != "common_" {
			t.Errorf("CommonFields contains non-common field %q", cf.Name)
		}
	}
	if len(f.Fields) != 8 {
		t.Fatalf("len(Fields) = %d, want 8", len(f.Fields))
	}
	if f.Fields[0].Name != "prev_comm" {
		t.Errorf("Fields[0].Name = %q, want prev_comm", f.Fields[0].Name)
	}
	if f.Fields[0].Encoding != EncodingStringFixed {
		t.Errorf("prev_comm Encoding = %v, want EncodingStringFixed", f.Fields[0].Encoding)
	}
	if f.Fields[0].ElemSize != 1 {
		t.Errorf("prev_comm ElemSize = %d, want 1", f.Fields[0].ElemSize)
	}
	msg := f.FieldByName("msg")
	if msg == nil {
		t.Fatal("FieldByName(msg) = nil")
	}
	if !msg.IsDynamicArray || msg.IsRelLoc {
		t.Errorf("msg field = %+v, want IsDynamicArray && !IsRelLoc", msg)
	}
	if f.IsEventHeader {
		t.Error("IsEventHeader = true for a plain tracepoint")
	}
	if f.FieldByName("common_pid") == nil {
		t.Error("FieldByName(common_pid) = nil")
	}
	if f.FieldByName("nonexistent") != nil {
		t.Error("FieldByName(nonexistent) != nil")
	}
}

func TestParseEventHeaderName(t *testing.T) {
	text := "name: MyProvider_L5K3f\nID: 900\nformat:\n\tfield:unsigned short common_type;\toffset:0;\tsize:2;\tsigned:0;\n"
	f, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !f.IsEventHeader {
		t.Error("IsEventHeader = false for a _L5K3f-suffixed name")
	}
}

func TestParseRelLoc(t *testing.T) {
	text := "name: x\nID: 1\nformat:\n\tfield:__rel_loc char[] msg;\toffset:8;\tsize:4;\tsigned:0;\n"
	f, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(f.Fields) != 1 || !f.Fields[0].IsRelLoc {
		t.Fatalf("Fields = %+v, want a single __rel_loc field", f.Fields)
	}
}

func TestParseMissingName(t *testing.T) {
	if _, err := Parse("ID: 1\nformat:\n"); err == nil {
		t.Error("Parse succeeded on text with no name: line")
	}
}

func TestParseBadID(t *testing.T) {
	if _, err := Parse("name: x\nID: not-a-number\n"); err == nil {
		t.Error("Parse succeeded on text with a malformed ID: line")
	}
}

func TestScalarEncoding(t *testing.T) {
	cases := []struct {
		typeStr string
		size    int
		signed  bool
		want    EncodingKind
	}{
		{"int", 4, true, EncodingSigned32},
		{"unsigned int", 4, false, EncodingUnsigned32},
		{"long", 8, true, EncodingSigned64},
		{"short", 2, true, EncodingSigned16},
		{"char", 1, false, EncodingUnsigned8},
		{"float", 4, false, EncodingFloat32},
		{"double", 8, false, EncodingFloat64},
	}
	for _, c := range cases {
		if got := scalarEncoding(c.typeStr, c.size, c.signed); got != c.want {
			t.Errorf("scalarEncoding(%q, %d, %v) = %v, want %v", c.typeStr, c.size, c.signed, got, c.want)
		}
	}
}

func TestSplitDecl(t *testing.T) {
	cases := []struct {
		decl     string
		typeStr  string
		name     string
		arrayLen int
	}{
		{"unsigned char prev_comm[16]", "unsigned char", "prev_comm", 16},
		{"__data_loc char[] name", "__data_loc char", "name", -1},
		{"int prev_prio", "int", "prev_prio", 0},
		{"long prev_state", "long", "prev_state", 0},
	}
	for _, c := range cases {
		typeStr, name, arrayLen := splitDecl(c.decl)
		if typeStr != c.typeStr || name != c.name || arrayLen != c.arrayLen {
			t.Errorf("splitDecl(%q) = (%q, %q, %d), want (%q, %q, %d)",
				c.decl, typeStr, name, arrayLen, c.typeStr, c.name, c.arrayLen)
		}
	}
}
