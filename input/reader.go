// Package input implements the lazy, memoized InputReader: a cursor-based
// decoder over an immutable wire-format byte buffer that produces NanBox
// handles on demand and memoizes the byte range of every value it has
// fully skipped, turning repeated descent into the same subtree from
// quadratic into near-linear.
package input

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/shopify/function-wasm-api-go/interner"
	"github.com/shopify/function-wasm-api-go/nanbox"
	"github.com/shopify/function-wasm-api-go/wireformat"
)

// memoEntry records the byte range of one fully- or partially-skipped value.
// hasEnd is false for a re-entrant descent whose end has not yet been
// observed (a recursive skip currently in progress at this start).
type memoEntry struct {
	start  int
	end    int
	hasEnd bool
}

// Reader serves random-access queries over an immutable wire-format buffer.
// It is not safe for concurrent use; the single execution stream per
// Context (spec.md §5) is the only caller.
type Reader struct {
	buf  []byte
	memo []memoEntry
}

// NewReader wraps buf, the raw wire-format input bytes. buf is never copied
// or mutated; the Reader outlives nothing and owns nothing beyond memo state.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Len returns the number of bytes in the backing buffer.
func (r *Reader) Len() int { return len(r.buf) }

func outOfBounds(pos, n int, bufLen int) bool {
	return pos < 0 || n < 0 || pos+n > bufLen
}

// markerAt reads the marker byte at pos and reports it, its inline value
// (for fixed-width tagged markers), and the number of header bytes consumed
// (marker byte plus any out-of-line length field).
func (r *Reader) markerAt(pos int) (m wireformat.Marker, inline int, headerLen int, err error) {
	if pos < 0 || pos >= len(r.buf) {
		return 0, 0, 0, errByteArrayOutOfBounds
	}
	m, inline = wireformat.DecodeMarker(r.buf[pos])
	if m == wireformat.MarkerUnsupported {
		return 0, 0, 0, errDecode
	}
	switch m {
	case wireformat.MarkerStr8:
		if outOfBounds(pos+1, 1, len(r.buf)) {
			return 0, 0, 0, errByteArrayOutOfBounds
		}
		return m, int(r.buf[pos+1]), 2, nil
	case wireformat.MarkerStr16, wireformat.MarkerArray16, wireformat.MarkerMap16:
		if outOfBounds(pos+1, 2, len(r.buf)) {
			return 0, 0, 0, errByteArrayOutOfBounds
		}
		return m, int(binary.BigEndian.Uint16(r.buf[pos+1 : pos+3])), 3, nil
	case wireformat.MarkerStr32, wireformat.MarkerArray32, wireformat.MarkerMap32:
		if outOfBounds(pos+1, 4, len(r.buf)) {
			return 0, 0, 0, errByteArrayOutOfBounds
		}
		return m, int(binary.BigEndian.Uint32(r.buf[pos+1 : pos+5])), 5, nil
	default:
		return m, inline, 1, nil
	}
}

var (
	errDecode              = fmt.Errorf("input: %w", errTag(nanbox.ErrDecodeError))
	errByteArrayOutOfBounds = fmt.Errorf("input: %w", errTag(nanbox.ErrByteArrayOutOfBounds))
)

// errTag lets the sentinel errors above carry their NanBox code through
// errors.Is/As style matching while still being ordinary Go errors.
type errTag nanbox.ErrorCode

func (e errTag) Error() string { return fmt.Sprintf("error code %d", nanbox.ErrorCode(e)) }

// CodeOf extracts the nanbox.ErrorCode carried by an error produced by this
// package, defaulting to DecodeError for anything else.
func CodeOf(err error) nanbox.ErrorCode {
	var tag errTag
	if as(err, &tag) {
		return nanbox.ErrorCode(tag)
	}
	return nanbox.ErrDecodeError
}

func as(err error, target *errTag) bool {
	for err != nil {
		if t, ok := err.(errTag); ok {
			*target = t
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// EncodeValue decodes the value starting at offset and returns the NanBox
// that represents it, without descending into composites.
func (r *Reader) EncodeValue(offset int) (nanbox.Box, error) {
	m, inline, headerLen, err := r.markerAt(offset)
	if err != nil {
		return 0, err
	}
	switch m {
	case wireformat.MarkerNil:
		return nanbox.Null(), nil
	case wireformat.MarkerFalse:
		return nanbox.Bool(false), nil
	case wireformat.MarkerTrue:
		return nanbox.Bool(true), nil
	case wireformat.MarkerFixPos, wireformat.MarkerFixNeg:
		return nanbox.Number(float64(inline)), nil
	case wireformat.MarkerUint8, wireformat.MarkerInt8, wireformat.MarkerUint16, wireformat.MarkerInt16,
		wireformat.MarkerUint32, wireformat.MarkerInt32, wireformat.MarkerUint64, wireformat.MarkerInt64:
		n, err := r.readIntPayload(offset+headerLen, m)
		if err != nil {
			return 0, err
		}
		return nanbox.Number(n), nil
	case wireformat.MarkerFloat32:
		if outOfBounds(offset+headerLen, 4, len(r.buf)) {
			return 0, errByteArrayOutOfBounds
		}
		bits := binary.BigEndian.Uint32(r.buf[offset+headerLen : offset+headerLen+4])
		return nanbox.Number(float64(math.Float32frombits(bits))), nil
	case wireformat.MarkerFloat64:
		if outOfBounds(offset+headerLen, 8, len(r.buf)) {
			return 0, errByteArrayOutOfBounds
		}
		bits := binary.BigEndian.Uint64(r.buf[offset+headerLen : offset+headerLen+8])
		return nanbox.Number(math.Float64frombits(bits)), nil
	case wireformat.MarkerFixStr, wireformat.MarkerStr8, wireformat.MarkerStr16, wireformat.MarkerStr32:
		return nanbox.String(uint32(offset), inline), nil
	case wireformat.MarkerFixArray, wireformat.MarkerArray16, wireformat.MarkerArray32:
		return nanbox.Array(uint32(offset), inline), nil
	case wireformat.MarkerFixMap, wireformat.MarkerMap16, wireformat.MarkerMap32:
		return nanbox.Object(uint32(offset), inline), nil
	default:
		return 0, errDecode
	}
}

func (r *Reader) readIntPayload(pos int, m wireformat.Marker) (float64, error) {
	n := wireformat.PayloadSize(m)
	if outOfBounds(pos, n, len(r.buf)) {
		return 0, errByteArrayOutOfBounds
	}
	b := r.buf[pos : pos+n]
	switch m {
	case wireformat.MarkerUint8:
		return float64(b[0]), nil
	case wireformat.MarkerInt8:
		return float64(int8(b[0])), nil
	case wireformat.MarkerUint16:
		return float64(binary.BigEndian.Uint16(b)), nil
	case wireformat.MarkerInt16:
		return float64(int16(binary.BigEndian.Uint16(b))), nil
	case wireformat.MarkerUint32:
		return float64(binary.BigEndian.Uint32(b)), nil
	case wireformat.MarkerInt32:
		return float64(int32(binary.BigEndian.Uint32(b))), nil
	case wireformat.MarkerUint64:
		return float64(binary.BigEndian.Uint64(b)), nil
	case wireformat.MarkerInt64:
		return float64(int64(binary.BigEndian.Uint64(b))), nil
	default:
		return 0, errDecode
	}
}

// GetValueLength returns the true element/byte count for the composite
// starting at offset: string byte length, or array/object element count.
// Non-composite offsets return 0, matching the spec's "0 on non-composite"
// error payload convention.
func (r *Reader) GetValueLength(offset int) (int, error) {
	m, inline, _, err := r.markerAt(offset)
	if err != nil {
		return 0, err
	}
	switch m {
	case wireformat.MarkerFixStr, wireformat.MarkerStr8, wireformat.MarkerStr16, wireformat.MarkerStr32,
		wireformat.MarkerFixArray, wireformat.MarkerArray16, wireformat.MarkerArray32,
		wireformat.MarkerFixMap, wireformat.MarkerMap16, wireformat.MarkerMap32:
		return inline, nil
	default:
		return 0, nil
	}
}

// GetUtf8StrAddr returns the byte offset, within the reader's backing
// buffer, of the first UTF-8 code unit of the string starting at offset
// (marker and length header skipped). Non-string offsets return 0.
func (r *Reader) GetUtf8StrAddr(offset int) (int, error) {
	m, _, headerLen, err := r.markerAt(offset)
	if err != nil {
		return 0, err
	}
	if !wireformat.IsString(m) {
		return 0, nil
	}
	return offset + headerLen, nil
}

// Bytes returns the raw backing buffer. Used by callers (e.g. the provider
// Context's read_utf8_str trampoline) that need to copy string payloads.
func (r *Reader) Bytes() []byte { return r.buf }

// GetObjectProperty scans the map starting at objOffset for a key matching
// key, returning its value's NanBox, or Null if absent.
func (r *Reader) GetObjectProperty(objOffset int, key []byte) (nanbox.Box, error) {
	m, count, headerLen, err := r.markerAt(objOffset)
	if err != nil {
		return 0, err
	}
	if !wireformat.IsMap(m) {
		return nanbox.Error(nanbox.ErrNotAnObject), errNotAnObject
	}
	cursor := objOffset + headerLen
	hint := r.lowerBound(cursor)
	for i := 0; i < count; i++ {
		keyOffset := cursor
		keyMarker, keyLen, keyHeaderLen, err := r.markerAt(keyOffset)
		if err != nil {
			return 0, err
		}
		if !wireformat.IsString(keyMarker) {
			return 0, errDecode
		}
		keyStart := keyOffset + keyHeaderLen
		if outOfBounds(keyStart, keyLen, len(r.buf)) {
			return 0, errByteArrayOutOfBounds
		}
		candidate := r.buf[keyStart : keyStart+keyLen]
		cursor = keyStart + keyLen

		valueOffset := cursor
		if bytesEqual(candidate, key) {
			return r.EncodeValue(valueOffset)
		}
		end, err := r.skip(cursor, hint)
		if err != nil {
			return 0, err
		}
		cursor = end
	}
	return nanbox.Null(), nil
}

// GetInternedObjectProperty resolves id to its byte span via the interner
// and delegates to the same linear-scan-plus-skip algorithm as
// GetObjectProperty, per the original reference implementation.
func (r *Reader) GetInternedObjectProperty(objOffset int, id uint32, strs *interner.Interner) (nanbox.Box, error) {
	span, err := strs.Get(id)
	if err != nil {
		return 0, err
	}
	return r.GetObjectProperty(objOffset, span)
}

// GetAtIndex returns the NanBox for the element at the zero-based index in
// the array starting at arrOffset.
func (r *Reader) GetAtIndex(arrOffset int, index int) (nanbox.Box, error) {
	m, count, headerLen, err := r.markerAt(arrOffset)
	if err != nil {
		return 0, err
	}
	if !wireformat.IsContainer(m) || wireformat.IsMap(m) {
		return nanbox.Error(nanbox.ErrNotAnArray), errNotAnArray
	}
	if index >= count {
		return nanbox.Error(nanbox.ErrIndexOutOfBounds), errIndexOutOfBounds
	}
	cursor := arrOffset + headerLen
	hint := r.lowerBound(cursor)
	for i := 0; i < index; i++ {
		end, err := r.skip(cursor, hint)
		if err != nil {
			return 0, err
		}
		cursor = end
	}
	return r.EncodeValue(cursor)
}

var (
	errNotAnObject      = fmt.Errorf("input: %w", errTag(nanbox.ErrNotAnObject))
	errNotAnArray       = fmt.Errorf("input: %w", errTag(nanbox.ErrNotAnArray))
	errIndexOutOfBounds = fmt.Errorf("input: %w", errTag(nanbox.ErrIndexOutOfBounds))
)

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// lowerBound returns the smallest memo table index whose start is >= pos;
// used as the "not yet considered" hint for skip's binary search.
func (r *Reader) lowerBound(pos int) int {
	return sort.Search(len(r.memo), func(i int) bool { return r.memo[i].start >= pos })
}

// skip advances past exactly one value starting at cursor, consulting and
// updating the memoization table from hint onward, and returns the offset
// immediately following the value. This is the performance-critical
// primitive: a binary-search hit on a previously-skipped subtree costs
// O(log n) plus O(1) to jump, instead of re-walking the subtree.
func (r *Reader) skip(cursor int, hint int) (int, error) {
	idx := hint + sort.Search(len(r.memo)-hint, func(i int) bool { return r.memo[hint+i].start >= cursor })
	if idx < len(r.memo) && r.memo[idx].start == cursor {
		if r.memo[idx].hasEnd {
			return r.memo[idx].end, nil
		}
		return r.skipBody(cursor, idx)
	}
	r.memo = insertAt(r.memo, idx, memoEntry{start: cursor})
	return r.skipBody(cursor, idx)
}

func insertAt(s []memoEntry, idx int, e memoEntry) []memoEntry {
	s = append(s, memoEntry{})
	copy(s[idx+1:], s[idx:])
	s[idx] = e
	return s
}

// skipBody does the actual marker dispatch and recursion for skip, then
// records the resulting end offset into the memo slot at idx.
func (r *Reader) skipBody(cursor int, idx int) (int, error) {
	m, count, headerLen, err := r.markerAt(cursor)
	if err != nil {
		return 0, err
	}
	pos := cursor + headerLen
	switch {
	case wireformat.IsString(m):
		if outOfBounds(pos, count, len(r.buf)) {
			return 0, errByteArrayOutOfBounds
		}
		pos += count
	case wireformat.IsContainer(m):
		n := count
		if wireformat.IsMap(m) {
			n *= 2
		}
		for i := 0; i < n; i++ {
			hint := r.lowerBound(pos)
			end, err := r.skip(pos, hint)
			if err != nil {
				return 0, err
			}
			pos = end
		}
	default:
		pos += wireformat.PayloadSize(m)
		if outOfBounds(cursor+headerLen, wireformat.PayloadSize(m), len(r.buf)) {
			return 0, errByteArrayOutOfBounds
		}
	}
	if idx < len(r.memo) {
		r.memo[idx].end = pos
		r.memo[idx].hasEnd = true
	}
	return pos, nil
}
