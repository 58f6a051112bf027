// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command perfdump prints the raw contents of a perf.data profile.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"os"
	"reflect"

	"github.com/aclements/go-tracepoint/perffile"
	"github.com/aclements/go-tracepoint/tracefs"
)

func main() {
	var (
		flagInput = flag.String("i", "perf.data", "input perf.data `file`")
		flagOrder = flag.String("order", "time", "sort `order`; one of: file, time, causal")
	)
	flag.Parse()
	order, ok := parseOrder(*flagOrder)
	if flag.NArg() > 0 || !ok {
		flag.Usage()
		os.Exit(1)
	}

	f, err := perffile.Open(*flagInput)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	fmt.Printf("%+v\n", f)

	fmt.Printf("events:\n")
	for _, event := range f.Events {
		fmt.Printf("  %p=%+v\n", event, *event)
	}

	if f.Meta.BuildIDs != nil {
		fmt.Printf("build IDs:\n")
		for _, bid := range f.Meta.BuildIDs {
			fmt.Printf("  %v\n", bid)
		}
	}

	for _, hdr := range []struct {
		label string
		val   interface{}
	}{
		//{"build IDs", &f.Meta.BuildIDs},
		{"hostname", f.Meta.Hostname},
		{"OS release", f.Meta.OSRelease},
		{"version", f.Meta.Version},
		{"arch", f.Meta.Arch},
		{"CPUs online", f.Meta.CPUsOnline},
		{"CPUs available", f.Meta.CPUsAvail},
		{"CPU desc", f.Meta.CPUDesc},
		{"CPUID", f.Meta.CPUID},
		{"total memory", f.Meta.TotalMem},
		{"cmdline", f.Meta.CmdLine},
		{"core groups", f.Meta.CoreGroups},
		{"thread groups", f.Meta.ThreadGroups},
		{"NUMA nodes", f.Meta.NUMANodes},
		{"PMU mappings", f.Meta.PMUMappings},
		{"groups", f.Meta.Groups},
	} {
		if hdr.val == reflect.Zero(reflect.ValueOf(hdr.val).Type()) {
			continue
		}
		fmt.Printf("%s: %v\n", hdr.label, hdr.val)
	}

	rs := f.Records(order)
	for rs.Next() {
		fmt.Printf("%v %+v\n", rs.Record.Type(), rs.Record)
		dumpTracepoint(rs)
	}
	if err := rs.Err(); err != nil {
		log.Fatal(err)
	}
}

// dumpTracepoint prints the decoded tracefs fields (or, for an
// EventHeader-convention tracepoint, the decoded self-describing
// payload) of rs.Record, if it is a raw tracepoint sample this file's
// TracingData feature or inline records resolved a format for.
func dumpTracepoint(rs *perffile.Records) {
	format, raw, ok := rs.TracepointFormat()
	if !ok {
		return
	}

	if en, hdr, ok := rs.EventHeaderEnumerator(); ok {
		fmt.Printf("    %s (eventheader id=%d level=%v opcode=%v):\n", format.Name, hdr.ID, hdr.Level, hdr.Opcode)
		for en.MoveNext() {
			item := en.GetItemInfo()
			fmt.Printf("      %s %v\n", item.Name, item.Kind)
		}
		if err := en.Err(); err != nil {
			fmt.Printf("      (decode error: %v)\n", err)
		}
		return
	}

	order := binary.ByteOrder(binary.LittleEndian)
	if rs.ByteReader().FromBigEndian() {
		order = binary.BigEndian
	}

	fmt.Printf("    %s:\n", format.Name)
	for i := range format.Fields {
		field := &format.Fields[i]
		v, err := tracefs.GetFieldValue(field, raw, order)
		if err != nil {
			fmt.Printf("      %s: (%v)\n", field.Name, err)
			continue
		}
		fmt.Printf("      %s: %v\n", field.Name, v)
	}
}

func parseOrder(order string) (perffile.RecordsOrder, bool) {
	switch order {
	case "file":
		return perffile.RecordsFileOrder, true
	case "time":
		return perffile.RecordsTimeOrder, true
	case "causal":
		return perffile.RecordsCausalOrder, true
	}
	return 0, false
}
