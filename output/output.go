// Package output implements the stateful OutputWriter: a push-down state
// machine that validates a streamed value tree (object length, key/value
// alternation, array length, single top-level value) while emitting the
// wire-format bytes. Every operation returns a WriteResult and, on any
// non-Ok result, leaves the output buffer untouched — per spec.md §4.3's
// writer state law.
package output

import (
	"github.com/shopify/function-wasm-api-go/interner"
	"github.com/shopify/function-wasm-api-go/wireformat"
)

// WriteResult is the status code returned synchronously from every writer
// operation, mirroring spec.md §7's write-side error codes.
type WriteResult uint32

const (
	Ok WriteResult = iota
	IoError
	ExpectedKey
	ObjectLengthError
	ValueAlreadyWritten
	NotAnObject
	ValueNotFinished
	ArrayLengthError
	NotAnArray
)

func (r WriteResult) String() string {
	switch r {
	case Ok:
		return "Ok"
	case IoError:
		return "IoError"
	case ExpectedKey:
		return "ExpectedKey"
	case ObjectLengthError:
		return "ObjectLengthError"
	case ValueAlreadyWritten:
		return "ValueAlreadyWritten"
	case NotAnObject:
		return "NotAnObject"
	case ValueNotFinished:
		return "ValueNotFinished"
	case ArrayLengthError:
		return "ArrayLengthError"
	case NotAnArray:
		return "NotAnArray"
	default:
		return "Unknown"
	}
}

type frameKind int

const (
	kindObject frameKind = iota
	kindArray
)

// frame is one level of the writer's nested-composite spine. Per
// spec.md §9's "Cyclic ownership" design note, the spine is an explicit
// stack of frames rather than a self-referential chain of parent
// pointers; this also makes Finalize's cleanup trivial (drop the stack).
type frame struct {
	kind     frameKind
	length   int
	inserted int
}

// Writer is the stack-like writer state: Start (empty stack, not done),
// a composite (non-empty stack), or End (empty stack, done). The state is
// the sole source of truth for structural correctness.
type Writer struct {
	buf   []byte
	stack []frame
	done  bool
}

// New returns an empty Writer ready to accept a single top-level value.
func New() *Writer {
	return &Writer{}
}

func (w *Writer) top() *frame {
	if len(w.stack) == 0 {
		return nil
	}
	return &w.stack[len(w.stack)-1]
}

// scalarTransition advances the state machine for a non-string scalar
// (bool, null, int, float) and reports whether the caller may proceed to
// emit bytes.
func (w *Writer) scalarTransition() WriteResult {
	top := w.top()
	if top == nil {
		if w.done {
			return ValueAlreadyWritten
		}
		w.done = true
		return Ok
	}
	switch top.kind {
	case kindObject:
		if top.inserted%2 == 0 {
			return ExpectedKey
		}
		top.inserted++
		return Ok
	default: // kindArray
		if top.inserted >= top.length {
			return ArrayLengthError
		}
		top.inserted++
		return Ok
	}
}

// stringTransition advances the state machine for a string write. Strings
// are accepted in either key or value position inside an object; the
// writer does not otherwise distinguish them, per spec.md §4.3.
func (w *Writer) stringTransition() WriteResult {
	top := w.top()
	if top == nil {
		if w.done {
			return ValueAlreadyWritten
		}
		w.done = true
		return Ok
	}
	switch top.kind {
	case kindObject:
		if top.inserted/2 >= top.length {
			return ObjectLengthError
		}
		top.inserted++
		return Ok
	default: // kindArray
		if top.inserted >= top.length {
			return ArrayLengthError
		}
		top.inserted++
		return Ok
	}
}

// startComposite advances the state machine for start_object/start_array
// and pushes a new frame of kind with the declared length.
func (w *Writer) startComposite(kind frameKind, length int) WriteResult {
	top := w.top()
	if top == nil {
		if w.done {
			return ValueAlreadyWritten
		}
	} else {
		switch top.kind {
		case kindObject:
			if top.inserted%2 == 0 {
				return ExpectedKey
			}
			top.inserted++
		default: // kindArray
			if top.inserted >= top.length {
				return ArrayLengthError
			}
			top.inserted++
		}
	}
	w.stack = append(w.stack, frame{kind: kind, length: length})
	return Ok
}

// finishComposite advances the state machine for finish_object/finish_array.
func (w *Writer) finishComposite(kind frameKind) WriteResult {
	notThisKind, mismatchLength := NotAnObject, ObjectLengthError
	if kind == kindArray {
		notThisKind, mismatchLength = NotAnArray, ArrayLengthError
	}
	top := w.top()
	if top == nil {
		return notThisKind
	}
	if top.kind != kind {
		return notThisKind
	}
	want := top.length
	if kind == kindObject {
		want *= 2
	}
	if top.inserted != want {
		return mismatchLength
	}
	w.stack = w.stack[:len(w.stack)-1]
	if len(w.stack) == 0 {
		w.done = true
	}
	return Ok
}

// NewBool writes a boolean scalar.
func (w *Writer) NewBool(v bool) WriteResult {
	r := w.scalarTransition()
	if r != Ok {
		return r
	}
	w.buf = wireformat.AppendBool(w.buf, v)
	return Ok
}

// NewNull writes a null scalar.
func (w *Writer) NewNull() WriteResult {
	r := w.scalarTransition()
	if r != Ok {
		return r
	}
	w.buf = wireformat.AppendNil(w.buf)
	return Ok
}

// NewI32 writes a 32-bit signed integer scalar, encoded in the smallest
// representation that holds it (AppendInt picks the marker).
func (w *Writer) NewI32(v int32) WriteResult {
	r := w.scalarTransition()
	if r != Ok {
		return r
	}
	w.buf = wireformat.AppendInt(w.buf, int64(v))
	return Ok
}

// NewF64 writes a float64 scalar.
func (w *Writer) NewF64(v float64) WriteResult {
	r := w.scalarTransition()
	if r != Ok {
		return r
	}
	w.buf = wireformat.AppendFloat64(w.buf, v)
	return Ok
}

// AllocateUTF8Str reserves length bytes on the output buffer (after a
// string-length header) and returns a slice the caller copies its UTF-8
// bytes into directly, avoiding a second copy across the boundary. The
// returned slice is only valid until the next Writer call that appends to
// buf; callers (the trampoline, on the guest's behalf) must copy
// immediately, exactly as spec.md §4.3 documents for allocate_utf8_str.
func (w *Writer) AllocateUTF8Str(length int) (WriteResult, []byte) {
	r := w.stringTransition()
	if r != Ok {
		return r, nil
	}
	w.buf = wireformat.AppendStrHeader(w.buf, length)
	start := len(w.buf)
	w.buf = append(w.buf, make([]byte, length)...)
	return Ok, w.buf[start : start+length]
}

// WriteInternedUTF8Str looks up id's span in strs and copies it onto the
// output buffer via AllocateUTF8Str, per the interned-write path
// (spec.md §6's ABI table; behavior grounded in
// provider/src/write.rs's write_interned_utf8_str).
func (w *Writer) WriteInternedUTF8Str(id uint32, strs *interner.Interner) WriteResult {
	span, err := strs.Get(id)
	if err != nil {
		return IoError
	}
	r, dst := w.AllocateUTF8Str(len(span))
	if r != Ok {
		return r
	}
	copy(dst, span)
	return Ok
}

// StartObject begins a map of length key/value pairs.
func (w *Writer) StartObject(length int) WriteResult {
	r := w.startComposite(kindObject, length)
	if r != Ok {
		return r
	}
	w.buf = wireformat.AppendMapHeader(w.buf, length)
	return Ok
}

// FinishObject closes the innermost object, requiring exactly 2*length
// inserts.
func (w *Writer) FinishObject() WriteResult {
	return w.finishComposite(kindObject)
}

// StartArray begins an array of length elements.
func (w *Writer) StartArray(length int) WriteResult {
	r := w.startComposite(kindArray, length)
	if r != Ok {
		return r
	}
	w.buf = wireformat.AppendArrayHeader(w.buf, length)
	return Ok
}

// FinishArray closes the innermost array, requiring exactly length inserts.
func (w *Writer) FinishArray() WriteResult {
	return w.finishComposite(kindArray)
}

// Finalize requires the writer to be in the End state (a fully closed
// single top-level value) and returns the accumulated output bytes.
func (w *Writer) Finalize() (WriteResult, []byte) {
	if len(w.stack) != 0 || !w.done {
		return ValueNotFinished, nil
	}
	return Ok, w.buf
}
