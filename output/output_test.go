package output

import (
	"testing"

	"github.com/shopify/function-wasm-api-go/interner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeKey(t *testing.T, w *Writer, key string) {
	t.Helper()
	r, dst := w.AllocateUTF8Str(len(key))
	require.Equal(t, Ok, r)
	copy(dst, key)
}

func TestWriteScalarThenAlreadyWritten(t *testing.T) {
	w := New()
	assert.Equal(t, Ok, w.NewBool(true))
	before := append([]byte(nil), w.buf...)
	assert.Equal(t, ValueAlreadyWritten, w.NewBool(true))
	assert.Equal(t, before, w.buf)
}

func TestWriteStringThenAlreadyWritten(t *testing.T) {
	w := New()
	r, dst := w.AllocateUTF8Str(5)
	require.Equal(t, Ok, r)
	copy(dst, "hello")
	r, _ = w.AllocateUTF8Str(5)
	assert.Equal(t, ValueAlreadyWritten, r)
}

func TestObjectKeyAlternation(t *testing.T) {
	w := New()
	require.Equal(t, Ok, w.StartObject(2))
	assert.Equal(t, ExpectedKey, w.NewBool(true))
	writeKey(t, w, "key")
	assert.Equal(t, Ok, w.NewBool(false))
	assert.Equal(t, ObjectLengthError, w.FinishObject())
	writeKey(t, w, "other_key")
	require.Equal(t, Ok, w.StartObject(0))
	require.Equal(t, Ok, w.FinishObject())
	require.Equal(t, Ok, w.FinishObject())
	assert.Equal(t, ValueAlreadyWritten, w.StartObject(0))
}

func TestArrayLengthEnforced(t *testing.T) {
	w := New()
	require.Equal(t, Ok, w.StartArray(2))
	assert.Equal(t, Ok, w.NewBool(true))
	assert.Equal(t, ArrayLengthError, w.FinishArray())
	require.Equal(t, Ok, w.StartArray(0))
	require.Equal(t, Ok, w.FinishArray())
	require.Equal(t, Ok, w.FinishArray())
	assert.Equal(t, ValueAlreadyWritten, w.StartArray(0))
}

// TestObjectKeyAlternationProperty covers property 7 from spec.md §8: in an
// object of declared length N, non-string scalar writes at even insertion
// counts yield ExpectedKey, and after exactly 2N inserts finish_object
// yields Ok. The too-few case is TestObjectLengthErrorOnTooFewInserts.
func TestObjectKeyAlternationProperty(t *testing.T) {
	const n = 3
	w := New()
	require.Equal(t, Ok, w.StartObject(n))
	for i := 0; i < n; i++ {
		assert.Equal(t, ExpectedKey, w.NewBool(true))
		writeKey(t, w, "k")
		assert.Equal(t, Ok, w.NewI32(int32(i)))
	}
	assert.Equal(t, Ok, w.FinishObject())
}

func TestObjectLengthErrorOnTooFewInserts(t *testing.T) {
	w := New()
	require.Equal(t, Ok, w.StartObject(2))
	writeKey(t, w, "a")
	require.Equal(t, Ok, w.NewI32(1))
	assert.Equal(t, ObjectLengthError, w.FinishObject())
}

func TestWriterStateLawNoBytesOnError(t *testing.T) {
	w := New()
	require.Equal(t, Ok, w.StartObject(1))
	before := append([]byte(nil), w.buf...)
	assert.Equal(t, ExpectedKey, w.NewBool(true))
	assert.Equal(t, before, w.buf)
}

func TestFinalizeRequiresEndState(t *testing.T) {
	w := New()
	_ = w.StartObject(1)
	r, bytes := w.Finalize()
	assert.Equal(t, ValueNotFinished, r)
	assert.Nil(t, bytes)

	w2 := New()
	r, bytes = w2.Finalize()
	assert.Equal(t, ValueNotFinished, r)
	assert.Nil(t, bytes)

	w3 := New()
	require.Equal(t, Ok, w3.NewNull())
	r, bytes = w3.Finalize()
	assert.Equal(t, Ok, r)
	assert.NotNil(t, bytes)
}

func TestNestedObjectEncodesExpectedBytes(t *testing.T) {
	w := New()
	require.Equal(t, Ok, w.StartObject(2))
	writeKey(t, w, "foo")
	require.Equal(t, Ok, w.NewI32(1))
	writeKey(t, w, "bar")
	require.Equal(t, Ok, w.NewI32(2))
	require.Equal(t, Ok, w.FinishObject())
	r, bytes := w.Finalize()
	require.Equal(t, Ok, r)
	assert.Equal(t, byte(0x80|2), bytes[0])
}

func TestWriteInternedUTF8Str(t *testing.T) {
	strs := interner.New()
	id, dst := strs.Preallocate(3)
	copy(dst, "foo")

	w := New()
	require.Equal(t, Ok, w.WriteInternedUTF8Str(id, strs))
	r, bytes := w.Finalize()
	require.Equal(t, Ok, r)
	assert.Equal(t, append([]byte{0xa3}, "foo"...), bytes)
}

func TestConditionalObjectOmitsAbsentFields(t *testing.T) {
	w := New()
	r := WriteConditionalObject(w, []Field{
		{Key: "merchandiseId", Present: true, Write: func(w *Writer) WriteResult {
			r, dst := w.AllocateUTF8Str(2)
			copy(dst, "id")
			return r
		}},
		{Key: "quantity", Present: true, Write: func(w *Writer) WriteResult {
			return w.NewI32(1)
		}},
		{Key: "attributes", Present: false, Write: nil},
		{Key: "image", Present: false, Write: nil},
		{Key: "price", Present: false, Write: nil},
	})
	require.Equal(t, Ok, r)
	res, bytes := w.Finalize()
	require.Equal(t, Ok, res)
	// fixmap with 2 entries
	assert.Equal(t, byte(0x80|2), bytes[0])
}
