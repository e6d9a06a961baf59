// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command recorder-trace replays a scripted sequence of synthetic
// calls through the tracing core and writes a trace directory,
// standing in for the interception shim that a real POSIX/MPI/HDF5
// host would provide (spec.md §1 places that shim out of scope for
// the core). It exists so the CST/Sequitur/timestamp/merge pipeline
// can be exercised end to end without a real instrumented program,
// the way cmd/dump and cmd/perfdump exercise package perffile in the
// teacher this module is built from.
//
// The script is a line-oriented text format, one event per line:
//
//	enter <tid> <func> [arg1,arg2,...]
//	exit <tid>
//
// tid is an arbitrary non-negative integer standing in for an OS
// thread id. func is either a name from trace.FuncNames or
// "user:<symbol>" for a call recorded under the reserved
// trace.UserFunc id. Blank lines and lines starting with # are
// ignored. enter/exit pairs may nest (cascading calls) and interleave
// across different tids; each tid's exits must match its own enters
// in LIFO order.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/hpc-io/recorder"
	"github.com/hpc-io/recorder/callsig"
	"github.com/hpc-io/recorder/clockid"
	"github.com/hpc-io/recorder/trace"
	"github.com/hpc-io/recorder/transport"
)

func main() {
	var (
		flagOut          = flag.String("o", "", "output trace directory (`dir`, required)")
		flagScript       = flag.String("script", "-", "script `file`, - for stdin")
		flagResolution   = flag.Float64("resolution", 1e-7, "timestamp quantization `resolution` in seconds")
		flagTSCompress   = flag.Bool("ts-compress", false, "zlib-compress the timestamp stream")
		flagInterprocess = flag.Bool("interprocess-compression", false, "run the (single-rank) inter-process merge before writing")
		flagCaptureTID   = flag.Bool("capture-tid", true, "include thread id in call signatures")
		flagCaptureDepth = flag.Bool("capture-depth", true, "include call depth in call signatures")
		flagClockStep    = flag.Float64("clock-step", 1e-6, "seconds advanced per Now() call of the deterministic clock")
	)
	flag.Parse()
	if *flagOut == "" || flag.NArg() > 0 {
		flag.Usage()
		os.Exit(2)
	}

	r, err := openScript(*flagScript)
	if err != nil {
		log.Fatalf("recorder-trace: %v", err)
	}
	defer r.Close()

	cfg := recorder.Config{
		Clock:                   clockid.NewFixed(0, *flagClockStep),
		Transport:               transport.Local{},
		TracesDir:               *flagOut,
		TimeResolution:          *flagResolution,
		TimeCompression:         *flagTSCompress,
		CaptureTID:              *flagCaptureTID,
		CaptureCallDepth:        *flagCaptureDepth,
		InterprocessCompression: *flagInterprocess,
		TracedPOSIX:             true,
		TracedMPI:               true,
		TracedHDF5:              true,
	}
	tr := recorder.New(cfg)
	if tr.Disabled() {
		log.Fatalf("recorder-trace: tracing disabled at startup (see stderr above for the reason)")
	}

	if err := replay(tr, r); err != nil {
		log.Fatalf("recorder-trace: %v", err)
	}

	if err := tr.Finalize(context.Background()); err != nil {
		log.Fatalf("recorder-trace: finalize: %v", err)
	}
	fmt.Printf("wrote trace to %s\n", *flagOut)
}

func openScript(name string) (io.ReadCloser, error) {
	if name == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(name)
}

// replay drives tr with the events in r, maintaining one open-call
// stack per tid so each exit line resolves to the matching enter's
// token without the script having to repeat arguments.
func replay(tr *recorder.Tracer, r io.Reader) error {
	funcByName := funcIndex()
	open := make(map[uint64][]*callsig.Record)

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "enter":
			if len(fields) < 3 {
				return fmt.Errorf("line %d: %q: want \"enter <tid> <func> [args]\"", lineNo, line)
			}
			tid, err := strconv.ParseUint(fields[1], 10, 64)
			if err != nil {
				return fmt.Errorf("line %d: bad tid %q: %w", lineNo, fields[1], err)
			}
			funcID, args, err := resolveFunc(fields[2], funcByName)
			if err != nil {
				return fmt.Errorf("line %d: %w", lineNo, err)
			}
			if len(fields) > 3 {
				args = append(args, strings.Split(fields[3], ",")...)
			}
			rec := tr.EnterCall(clockid.ThreadID(tid), funcID, args)
			open[tid] = append(open[tid], rec)
		case "exit":
			if len(fields) != 2 {
				return fmt.Errorf("line %d: %q: want \"exit <tid>\"", lineNo, line)
			}
			tid, err := strconv.ParseUint(fields[1], 10, 64)
			if err != nil {
				return fmt.Errorf("line %d: bad tid %q: %w", lineNo, fields[1], err)
			}
			stack := open[tid]
			if len(stack) == 0 {
				return fmt.Errorf("line %d: exit on tid %d with no matching enter", lineNo, tid)
			}
			rec := stack[len(stack)-1]
			open[tid] = stack[:len(stack)-1]
			tr.ExitCall(rec)
		default:
			return fmt.Errorf("line %d: unknown event %q", lineNo, fields[0])
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading script: %w", err)
	}
	for tid, stack := range open {
		if len(stack) > 0 {
			return fmt.Errorf("tid %d: %d call(s) entered but never exited", tid, len(stack))
		}
	}
	return nil
}

func funcIndex() map[string]uint8 {
	idx := make(map[string]uint8, len(trace.FuncNames))
	for i, name := range trace.FuncNames {
		idx[name] = uint8(i)
	}
	return idx
}

// resolveFunc maps a script's function token to a func_id and, for a
// "user:<symbol>" token, the synthetic two-argument form
// __cyg_profile_func_exit uses in the C sources (args[0] a filename,
// args[1] the symbol) so Tracer.commit picks up the symbol name for
// the metadata function-name list.
func resolveFunc(token string, byName map[string]uint8) (uint8, []string, error) {
	if sym, ok := strings.CutPrefix(token, "user:"); ok {
		return trace.UserFunc, []string{"???", sym}, nil
	}
	id, ok := byName[token]
	if !ok {
		return 0, nil, fmt.Errorf("unknown function %q", token)
	}
	return id, nil, nil
}
