// Package zero provides best-effort zeroisation helpers for secret material.
package zero

import "runtime"

// Bytes overwrites b with zeros.
//
// This is a mitigation, not a guarantee: the Go runtime may have copied the
// underlying data (stack growth, GC compaction of unrelated objects, escape
// analysis) before Bytes is called. It is still worth doing.
//
//go:noinline
func Bytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

