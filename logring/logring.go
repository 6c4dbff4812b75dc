// Package logring implements the bounded diagnostic ring buffer exposed to
// the guest at finalization. The ring has a fixed 1024-byte capacity;
// appends past capacity overwrite the oldest bytes. At finalize time the
// contents are exposed as up to two contiguous slices, matching the
// provider's wasm ABI contract (spec.md §3, §6).
package logring

import (
	"fmt"

	"v.io/x/lib/vlog"
)

// Capacity is the fixed size of the ring buffer, per spec.md §3.
const Capacity = 1024

// Ring is a fixed-capacity circular byte buffer. The zero value is an
// empty, ready-to-use ring.
type Ring struct {
	buf         [Capacity]byte
	readOffset  int
	writeOffset int
	length      int
}

// New returns an empty Ring.
func New() *Ring {
	return &Ring{}
}

// Reserve is the ABI-level entry point behind _shopify_function_log_new_utf8_str:
// it reserves length bytes of ring space and returns the destination
// span(s) a trampoline copies the guest's bytes into, plus the number of
// leading source bytes to skip (non-zero only when length itself exceeds
// Capacity). Mirrors provider/src/log.rs's Logs::append, which computes
// destination pointers before the caller's copy happens.
//
// A negative length can only reach here through a malformed ABI call (the
// guest's i32 length argument reinterpreted as negative); it is logged as
// an anomaly and treated as a zero-length reservation rather than
// panicking, since a misbehaving guest must not be able to crash the
// provider.
func (r *Ring) Reserve(length int32) (srcOffset int, first, second []byte) {
	if length < 0 {
		vlog.Errorf("logring: reserve called with negative length %d, treating as 0", length)
		length = 0
	}
	n := int(length)
	if n > Capacity {
		srcOffset = n - Capacity
		n = Capacity
	}

	spaceToEnd := Capacity - r.writeOffset
	if n <= spaceToEnd {
		first = r.buf[r.writeOffset : r.writeOffset+n]
	} else {
		first = r.buf[r.writeOffset:Capacity]
		second = r.buf[:n-spaceToEnd]
	}
	r.writeOffset = (r.writeOffset + n) % Capacity

	if r.length+n <= Capacity {
		r.length += n
	} else {
		overwritten := r.length + n - Capacity
		r.readOffset = (r.readOffset + overwritten) % Capacity
		r.length = Capacity
	}
	return srcOffset, first, second
}

// Append copies p into the ring, overwriting the oldest bytes if needed.
// Convenience wrapper over Reserve for callers that already hold p as a Go
// slice (e.g. provider-internal diagnostics), rather than driving the ABI
// two-phase reserve-then-copy protocol.
func (r *Ring) Append(p []byte) {
	srcOffset, first, second := r.Reserve(int32(len(p)))
	p = p[srcOffset:]
	copy(first, p[:len(first)])
	copy(second, p[len(first):])
}

// Appendf formats a diagnostic line and appends it, trailing a newline.
func (r *Ring) Appendf(format string, args ...any) {
	r.Append([]byte(fmt.Sprintf(format, args...) + "\n"))
}

// Len reports the number of bytes currently held in the ring.
func (r *Ring) Len() int { return r.length }

// ReadPtrs returns up to two contiguous slices spanning the ring's current
// contents in read order, mirroring provider/src/log.rs's read_ptrs (two
// slices because the logical contents may wrap past the end of the
// backing array).
func (r *Ring) ReadPtrs() (first, second []byte) {
	dataToEnd := Capacity - r.readOffset
	if r.length <= dataToEnd {
		return r.buf[r.readOffset : r.readOffset+r.length], nil
	}
	return r.buf[r.readOffset : r.readOffset+dataToEnd], r.buf[:r.length-dataToEnd]
}

// Bytes returns the ring's contents as a single contiguous slice (a copy,
// joining the two ReadPtrs spans if it wrapped). Convenience for callers
// that don't need the raw two-slice ABI view (e.g. the CLI).
func (r *Ring) Bytes() []byte {
	first, second := r.ReadPtrs()
	out := make([]byte, 0, len(first)+len(second))
	out = append(out, first...)
	out = append(out, second...)
	return out
}
