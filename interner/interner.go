// Package interner implements the StringInterner: an append-only byte
// buffer plus a span table that lets the guest cache repeated object keys
// as small integer ids whose storage is owned by the provider. Once
// assigned, a span is never moved or freed. Safe under single-threaded
// access only, per spec.md §5.
package interner

import "fmt"

type span struct {
	offset int
	length int
}

// Interner is the provider-owned string table. The zero value is ready to
// use.
type Interner struct {
	buf   []byte
	spans []span
}

// New returns an empty Interner.
func New() *Interner {
	return &Interner{}
}

// Preallocate appends length zero bytes to the backing buffer, records the
// new span, and returns the assigned id plus the byte slice the caller (the
// trampoline, on behalf of the guest) writes the string's bytes into.
func (in *Interner) Preallocate(length int) (id uint32, dst []byte) {
	offset := len(in.buf)
	in.buf = append(in.buf, make([]byte, length)...)
	id = uint32(len(in.spans))
	in.spans = append(in.spans, span{offset: offset, length: length})
	return id, in.buf[offset : offset+length]
}

// Get returns the byte span previously reserved for id.
func (in *Interner) Get(id uint32) ([]byte, error) {
	if int(id) >= len(in.spans) {
		return nil, fmt.Errorf("interner: id %d out of range (have %d)", id, len(in.spans))
	}
	s := in.spans[id]
	return in.buf[s.offset : s.offset+s.length], nil
}

// Len reports the number of ids assigned so far.
func (in *Interner) Len() int { return len(in.spans) }
