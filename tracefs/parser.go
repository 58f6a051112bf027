// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tracefs

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// eventHeaderNameRE matches the "_L<level>K<keyword>" suffix the
// EventHeader convention appends to a user_events tracepoint's name,
// e.g. "MyProvider_L5K3f". See
// https://github.com/microsoft/LinuxTracepoints.
var eventHeaderNameRE = regexp.MustCompile(`_L[0-9A-Fa-f]+K[0-9A-Fa-f]+$`)

// Parse parses the textual format description tracefs exposes for a
// single tracepoint (the contents of its "format" file, or the
// equivalent text embedded in a perf.data HeaderTracingData blob).
//
// This accepts the exact text layout tracefs writes:
//
//	name: sched_switch
//	ID: 314
//	format:
//		field:unsigned short common_type;	offset:0;	size:2;	signed:0;
//		...
//
//	print fmt: "..."
func Parse(text string) (*Format, error) {
	f := &Format{raw: text}

	lines := strings.Split(text, "\n")
	inFields := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "name:"):
			f.Name = strings.TrimSpace(strings.TrimPrefix(trimmed, "name:"))
		case strings.HasPrefix(trimmed, "ID:"):
			id, err := strconv.ParseUint(strings.TrimSpace(strings.TrimPrefix(trimmed, "ID:")), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("tracefs: bad ID line %q: %w", trimmed, err)
			}
			f.SystemID = id
		case trimmed == "format:":
			inFields = true
		case strings.HasPrefix(trimmed, "print fmt:"):
			inFields = false
		case inFields && strings.HasPrefix(trimmed, "field:"):
			field, err := parseFieldLine(trimmed)
			if err != nil {
				return nil, err
			}
			f.Fields = append(f.Fields, field)
		}
	}

	if f.Name == "" {
		return nil, fmt.Errorf("tracefs: format text has no name: line")
	}

	// By convention tracefs lists the fields shared by every event
	// (type, flags, preempt_count, pid, ...) first, each named with
	// a "common_" prefix; split them out so callers can deduce
	// CommonFieldCount once per producer instead of per event.
	i := 0
	for i < len(f.Fields) && strings.HasPrefix(f.Fields[i].Name, "common_") {
		i++
	}
	f.CommonFields, f.Fields = f.Fields[:i], f.Fields[i:]

	f.IsEventHeader = eventHeaderNameRE.MatchString(f.Name)

	return f, nil
}

var fieldPartRE = regexp.MustCompile(`(\w+):\s*([^;]*);`)

// parseFieldLine parses a single "field:TYPE NAME[ARRAY];\toffset:N;\tsize:N;\tsigned:0/1;" line.
func parseFieldLine(line string) (FieldFormat, error) {
	var ff FieldFormat
	parts := fieldPartRE.FindAllStringSubmatch(line, -1)
	if len(parts) == 0 {
		return ff, fmt.Errorf("tracefs: malformed field line %q", line)
	}
	var decl string
	for _, p := range parts {
		key, val := p[1], strings.TrimSpace(p[2])
		switch key {
		case "field":
			decl = val
		case "offset":
			n, err := strconv.Atoi(val)
			if err != nil {
				return ff, fmt.Errorf("tracefs: bad offset in %q: %w", line, err)
			}
			ff.Offset = n
		case "size":
			n, err := strconv.Atoi(val)
			if err != nil {
				return ff, fmt.Errorf("tracefs: bad size in %q: %w", line, err)
			}
			ff.Size = n
		case "signed":
			ff.Signed = val == "1"
		}
	}

	typeStr, name, arrayLen := splitDecl(decl)
	ff.Name = name

	switch {
	case typeStr == "__data_loc" || strings.HasPrefix(typeStr, "__data_loc "):
		ff.IsDynamicArray = true
		ff.Encoding = EncodingStringLength
	case typeStr == "__rel_loc" || strings.HasPrefix(typeStr, "__rel_loc "):
		ff.IsDynamicArray = true
		ff.IsRelLoc = true
		ff.Encoding = EncodingStringLength
	case arrayLen > 0 && (typeStr == "char" || typeStr == "unsigned char"):
		ff.Encoding = EncodingStringFixed
		ff.ElemSize = 1
	case arrayLen > 0:
		ff.Encoding = EncodingByteArray
		if ff.Size > 0 && arrayLen > 0 {
			ff.ElemSize = ff.Size / arrayLen
		}
	default:
		ff.Encoding = scalarEncoding(typeStr, ff.Size, ff.Signed)
	}

	return ff, nil
}

// splitDecl splits a C-ish field declaration such as
// "unsigned char prev_comm[16]" or "__data_loc char[] name" into its
// base type, field name, and (if an array) its element count (0 if
// not an array, -1 if the count isn't a literal, as with "[]"). When
// a name follows the brackets, as in the second form, the brackets
// belong to the base type and that trailing word is the field name.
func splitDecl(decl string) (typeStr, name string, arrayLen int) {
	decl = strings.TrimSpace(decl)
	if i := strings.IndexByte(decl, '['); i >= 0 {
		arrayPart := decl[i+1:]
		if j := strings.IndexByte(arrayPart, ']'); j >= 0 {
			if n, err := strconv.Atoi(strings.TrimSpace(arrayPart[:j])); err == nil {
				arrayLen = n
			} else {
				arrayLen = -1 // "[]"-style dynamic marker on the type itself
			}
			if rest := strings.TrimSpace(arrayPart[j+1:]); rest != "" {
				return strings.TrimSpace(decl[:i]), rest, arrayLen
			}
		}
		decl = strings.TrimSpace(decl[:i])
	}
	sp := strings.LastIndexAny(decl, " \t*")
	if sp < 0 {
		return decl, decl, arrayLen
	}
	return strings.TrimSpace(decl[:sp+1]), decl[sp+1:], arrayLen
}

func scalarEncoding(typeStr string, size int, signed bool) EncodingKind {
	switch strings.TrimSpace(typeStr) {
	case "float":
		return EncodingFloat32
	case "double":
		return EncodingFloat64
	}
	switch size {
	case 1:
		if signed {
			return EncodingSigned8
		}
		return EncodingUnsigned8
	case 2:
		if signed {
			return EncodingSigned16
		}
		return EncodingUnsigned16
	case 4:
		if signed {
			return EncodingSigned32
		}
		return EncodingUnsigned32
	case 8:
		if signed {
			return EncodingSigned64
		}
		return EncodingUnsigned64
	}
	return EncodingByteArray
}
