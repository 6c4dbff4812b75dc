// Package provider wires the NanBox, InputReader, OutputWriter, and
// StringInterner into a single Context: the trusted module instantiated
// alongside the guest in the sandbox, owning the raw input bytes and
// accumulating the output byte stream. Method names mirror their wasm ABI
// counterparts from spec.md §6 (documented with the export name in a
// comment); this module does not itself run inside a wasm guest, since the
// sandbox loader and module linking are out of scope per spec.md §1.
package provider

import (
	"encoding/binary"
	"fmt"

	"github.com/shopify/function-wasm-api-go/input"
	"github.com/shopify/function-wasm-api-go/interner"
	"github.com/shopify/function-wasm-api-go/logring"
	"github.com/shopify/function-wasm-api-go/nanbox"
	"github.com/shopify/function-wasm-api-go/output"
)

// Context is the per-invocation provider state: one input buffer, one
// writer, one string interner, one log ring. Per spec.md §5, a Context is
// owned by a single logical user and accessed without locks; it is not
// safe for concurrent use.
type Context struct {
	in   *input.Reader
	out  *output.Writer
	strs *interner.Interner
	logs *logring.Ring
}

// New constructs a Context over the raw input bytes. The input buffer is
// never copied or mutated; it outlives every NanBox the guest receives.
// This is the Go analogue of context_new() plus the process-wide
// BYTES/INPUT singletons from provider/src/read.rs, combined behind one
// value instead of split across Rust's `extern "C"` boundary.
func New(inputBytes []byte) *Context {
	return &Context{
		in:   input.NewReader(inputBytes),
		out:  output.New(),
		strs: interner.New(),
		logs: logring.New(),
	}
}

// Logs returns the Context's diagnostic log ring.
func (c *Context) Logs() *logring.Ring { return c.logs }

// Writer exposes the Context's underlying output.Writer directly, for
// callers (e.g. demo's conditional-field writer) that drive it through
// output's own helpers rather than through the ABI-named Output* methods.
func (c *Context) Writer() *output.Writer { return c.out }

// Interner exposes the Context's underlying string interner directly,
// for callers that need to preallocate or resolve ids outside the
// ABI-named Intern/Output* methods.
func (c *Context) Interner() *interner.Interner { return c.strs }

// --- Read side -------------------------------------------------------

// InputGet is the ABI entry point `_shopify_function_input_get`: it
// returns a NanBox for the top-level input value at offset 0.
func (c *Context) InputGet() nanbox.Box {
	box, err := c.in.EncodeValue(0)
	if err != nil {
		return nanbox.Error(input.CodeOf(err))
	}
	return box
}

// InputGetObjProp is the ABI entry point
// `_shopify_function_input_get_obj_prop`: scope must decode to an Object;
// key is the raw UTF-8 bytes to look up.
func (c *Context) InputGetObjProp(scope nanbox.Box, key []byte) nanbox.Box {
	d := scope.Decode()
	if d.Tag != nanbox.TagObject {
		return nanbox.Error(nanbox.ErrNotAnObject)
	}
	box, err := c.in.GetObjectProperty(int(d.Offset), key)
	if err != nil {
		return nanbox.Error(input.CodeOf(err))
	}
	return box
}

// InputGetInternedObjProp is the ABI entry point
// `_shopify_function_input_get_interned_obj_prop`: resolves id through the
// Context's string interner and delegates to the same algorithm as
// InputGetObjProp, per the SUPPLEMENTED feature grounded on
// provider/src/read.rs.
func (c *Context) InputGetInternedObjProp(scope nanbox.Box, id uint32) nanbox.Box {
	d := scope.Decode()
	if d.Tag != nanbox.TagObject {
		return nanbox.Error(nanbox.ErrNotAnObject)
	}
	box, err := c.in.GetInternedObjectProperty(int(d.Offset), id, c.strs)
	if err != nil {
		return nanbox.Error(input.CodeOf(err))
	}
	return box
}

// InputGetAtIndex is the ABI entry point
// `_shopify_function_input_get_at_index`: scope must decode to an Array.
func (c *Context) InputGetAtIndex(scope nanbox.Box, index uint32) nanbox.Box {
	d := scope.Decode()
	if d.Tag != nanbox.TagArray {
		return nanbox.Error(nanbox.ErrNotAnArray)
	}
	box, err := c.in.GetAtIndex(int(d.Offset), int(index))
	if err != nil {
		return nanbox.Error(input.CodeOf(err))
	}
	return box
}

// InputGetValLen is the ABI entry point `_shopify_function_input_get_val_len`:
// returns the exact element/byte count for scope's String/Array/Object,
// 0 for any other tag.
func (c *Context) InputGetValLen(scope nanbox.Box) uint32 {
	d := scope.Decode()
	switch d.Tag {
	case nanbox.TagString, nanbox.TagArray, nanbox.TagObject:
		n, err := c.in.GetValueLength(int(d.Offset))
		if err != nil {
			return 0
		}
		return uint32(n)
	default:
		return 0
	}
}

// InputReadUtf8Str is the ABI entry point
// `_shopify_function_input_read_utf8_str`: copies scope's string payload
// into dst, which must be at least as long as the string. This replaces
// the real ABI's (src, dst, len) pointer triple with a Go slice, since
// there is no shared wasm linear memory between caller and Context here.
func (c *Context) InputReadUtf8Str(scope nanbox.Box, dst []byte) error {
	d := scope.Decode()
	if d.Tag != nanbox.TagString {
		return fmt.Errorf("provider: InputReadUtf8Str: not a string (tag %d)", d.Tag)
	}
	length, err := c.in.GetValueLength(int(d.Offset))
	if err != nil {
		return err
	}
	if len(dst) < length {
		return fmt.Errorf("provider: InputReadUtf8Str: dst too short (%d < %d)", len(dst), length)
	}
	addr, err := c.in.GetUtf8StrAddr(int(d.Offset))
	if err != nil {
		return err
	}
	copy(dst, c.in.Bytes()[addr:addr+length])
	return nil
}

// --- Write side --------------------------------------------------------

// OutputNewBool is the ABI entry point `output_new_bool`.
func (c *Context) OutputNewBool(v bool) output.WriteResult { return c.out.NewBool(v) }

// OutputNewNull is the ABI entry point `output_new_null`.
func (c *Context) OutputNewNull() output.WriteResult { return c.out.NewNull() }

// OutputNewI32 is the ABI entry point `output_new_i32`.
func (c *Context) OutputNewI32(v int32) output.WriteResult { return c.out.NewI32(v) }

// OutputNewF64 is the ABI entry point `output_new_f64`.
func (c *Context) OutputNewF64(v float64) output.WriteResult { return c.out.NewF64(v) }

// OutputNewUtf8Str is the ABI entry point `output_new_utf8_str`: reserves
// len bytes on the output buffer and returns the destination slice the
// caller copies its UTF-8 bytes into directly.
func (c *Context) OutputNewUtf8Str(length int) (output.WriteResult, []byte) {
	return c.out.AllocateUTF8Str(length)
}

// OutputNewInternedUtf8Str is the ABI entry point
// `output_new_interned_utf8_str`.
func (c *Context) OutputNewInternedUtf8Str(id uint32) output.WriteResult {
	return c.out.WriteInternedUTF8Str(id, c.strs)
}

// OutputNewObject is the ABI entry point `output_new_object`.
func (c *Context) OutputNewObject(length int) output.WriteResult { return c.out.StartObject(length) }

// OutputFinishObject is the ABI entry point `output_finish_object`.
func (c *Context) OutputFinishObject() output.WriteResult { return c.out.FinishObject() }

// OutputNewArray is the ABI entry point `output_new_array`.
func (c *Context) OutputNewArray(length int) output.WriteResult { return c.out.StartArray(length) }

// OutputFinishArray is the ABI entry point `output_finish_array`.
func (c *Context) OutputFinishArray() output.WriteResult { return c.out.FinishArray() }

// InternUtf8Str is the ABI entry point `_shopify_function_intern_utf8_str`:
// reserves length bytes in the Context's string interner and returns the
// assigned id plus the destination slice to copy into.
func (c *Context) InternUtf8Str(length int) (id uint32, dst []byte) {
	return c.strs.Preallocate(length)
}

// FinalizeRecord is the 24-byte record spec.md §6 describes
// output_finalize as returning a pointer to: six uint32 fields
// (output_offset/output_len are not meaningful outside a shared linear
// memory, so this Go analogue instead returns the output bytes directly
// alongside the two log spans).
type FinalizeRecord struct {
	Output []byte
	Log1   []byte
	Log2   []byte
}

// Finalize is the ABI entry point `output_finalize`: requires the writer
// to have completed a single top-level value, and returns the
// accumulated output bytes plus the log ring's contents.
func (c *Context) Finalize() (output.WriteResult, FinalizeRecord) {
	result, bytes := c.out.Finalize()
	if result != output.Ok {
		return result, FinalizeRecord{}
	}
	log1, log2 := c.logs.ReadPtrs()
	return output.Ok, FinalizeRecord{Output: bytes, Log1: log1, Log2: log2}
}

// EncodeFinalizeRecord lays FinalizeRecord's two log spans out as the
// 24-byte little-endian record spec.md §6 specifies (offsets are relative
// to the start of the returned buffer, not a shared linear memory
// address, since there is none here): output_offset, output_len,
// log1_offset, log1_len, log2_offset, log2_len.
func EncodeFinalizeRecord(r FinalizeRecord) []byte {
	buf := make([]byte, 24)
	outputOffset := uint32(0)
	outputLen := uint32(len(r.Output))
	log1Offset := outputOffset + outputLen
	log1Len := uint32(len(r.Log1))
	log2Offset := log1Offset + log1Len
	log2Len := uint32(len(r.Log2))

	binary.LittleEndian.PutUint32(buf[0:4], outputOffset)
	binary.LittleEndian.PutUint32(buf[4:8], outputLen)
	binary.LittleEndian.PutUint32(buf[8:12], log1Offset)
	binary.LittleEndian.PutUint32(buf[12:16], log1Len)
	binary.LittleEndian.PutUint32(buf[16:20], log2Offset)
	binary.LittleEndian.PutUint32(buf[20:24], log2Len)
	return buf
}
