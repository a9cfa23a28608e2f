// Copyright 2025 The folly Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package goid extracts goroutine identity from the runtime.
//
// The Go runtime assigns every goroutine a monotonically increasing
// 64-bit ID that is never reused for the lifetime of the process. This
// package recovers that ID by parsing the header line of the stack
// trace that runtime.Stack produces for the current goroutine, and can
// enumerate the IDs of every live goroutine from a full trace.
//
// Performance: ID is ~1-2µs per call (dominated by runtime.Stack).
// An assembly fast path reading the goid field of the runtime.g struct
// would bring this to ~1-2ns, at the cost of pinning the package to
// verified Go versions; the portable path is the one that ships.
//
// Stack trace format: "goroutine 123 [running]:\n..."
package goid

import (
	"bytes"
	"runtime"
)

// ID returns the ID of the calling goroutine.
//
// The ID is unique per goroutine and never reused, which makes it a
// safe map key for per-goroutine state even in programs that create
// and destroy many short-lived goroutines.
//
// Returns 0 only if the runtime changes its trace header format, which
// would be caught immediately by this package's tests.
func ID() int64 {
	// Only the first line is needed. 64 bytes covers the header for
	// any representable goroutine ID.
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parseHeader(buf[:n])
}

// Live returns the set of IDs of every goroutine alive at the time of
// the call.
//
// It captures a full stack trace with runtime.Stack(all=true), which
// stops the world briefly. Cost is roughly 1ms per 1000 goroutines, so
// callers are expected to amortize (see the gls sweeper).
func Live() map[int64]struct{} {
	// runtime.Stack truncates silently when the buffer is too small,
	// so grow until the trace fits. A truncated trace would make live
	// goroutines look dead, which is the one failure mode this
	// package must never have.
	buf := make([]byte, 256*1024)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			buf = buf[:n]
			break
		}
		buf = make([]byte, 2*len(buf))
	}
	return parseAllHeaders(buf)
}

// parseHeader extracts the goroutine ID from a trace header line.
//
// Expected format: "goroutine 123 [running]:..."
// Returns the numeric ID (123 in this example) or 0 if the line is not
// a goroutine header. Direct byte parsing, no regex, no allocation.
func parseHeader(buf []byte) int64 {
	const prefix = "goroutine "

	if len(buf) < len(prefix) || string(buf[:len(prefix)]) != prefix {
		return 0
	}

	var gid int64
	for i := len(prefix); i < len(buf); i++ {
		c := buf[i]
		if c < '0' || c > '9' {
			// Non-digit terminates the ID (the space before "[running]").
			break
		}
		gid = gid*10 + int64(c-'0')
	}
	return gid
}

// parseAllHeaders extracts every goroutine ID from the output of
// runtime.Stack(all=true).
//
// Trace bodies never start a line with "goroutine " (frames are
// function names and tab-indented file positions), so scanning each
// line through parseHeader is sufficient.
func parseAllHeaders(buf []byte) map[int64]struct{} {
	live := make(map[int64]struct{})
	for len(buf) > 0 {
		var line []byte
		if i := bytes.IndexByte(buf, '\n'); i >= 0 {
			line, buf = buf[:i], buf[i+1:]
		} else {
			line, buf = buf, nil
		}
		if gid := parseHeader(line); gid != 0 {
			live[gid] = struct{}{}
		}
	}
	return live
}
