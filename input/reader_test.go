package input

import (
	"testing"

	"github.com/shopify/function-wasm-api-go/interner"
	"github.com/shopify/function-wasm-api-go/nanbox"
	"github.com/shopify/function-wasm-api-go/wireformat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeValueScalars(t *testing.T) {
	buf := wireformat.AppendNil(nil)
	buf = wireformat.AppendBool(buf, true)
	buf = wireformat.AppendBool(buf, false)
	buf = wireformat.AppendInt(buf, 42)
	buf = wireformat.AppendFloat64(buf, 3.5)

	r := NewReader(buf)
	pos := 0
	v, err := r.EncodeValue(pos)
	require.NoError(t, err)
	assert.Equal(t, nanbox.TagNull, v.Decode().Tag)
	pos++

	v, err = r.EncodeValue(pos)
	require.NoError(t, err)
	d := v.Decode()
	require.Equal(t, nanbox.TagBool, d.Tag)
	assert.True(t, d.Bool)
	pos++

	v, err = r.EncodeValue(pos)
	require.NoError(t, err)
	d = v.Decode()
	require.Equal(t, nanbox.TagBool, d.Tag)
	assert.False(t, d.Bool)
}

func TestGetValueLengthString(t *testing.T) {
	buf := wireformat.AppendStr(nil, "hello")
	r := NewReader(buf)
	n, err := r.GetValueLength(0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

// TestLengthSaturation is property 3 from spec.md §8: for a string of
// byte length L >= MaxValueLength, the NanBox length field saturates but
// GetValueLength still returns the true length.
func TestLengthSaturation(t *testing.T) {
	s := make([]byte, nanbox.MaxValueLength+500)
	buf := wireformat.AppendStr(nil, string(s))
	r := NewReader(buf)

	box, err := r.EncodeValue(0)
	require.NoError(t, err)
	d := box.Decode()
	assert.True(t, d.Saturated)
	assert.Equal(t, nanbox.MaxValueLength, d.Length)

	n, err := r.GetValueLength(0)
	require.NoError(t, err)
	assert.Equal(t, len(s), n)
}

func TestGetUtf8StrAddr(t *testing.T) {
	buf := wireformat.AppendStr(nil, "hi")
	r := NewReader(buf)
	addr, err := r.GetUtf8StrAddr(0)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(r.Bytes()[addr:addr+2]))
}

func TestGetObjectProperty(t *testing.T) {
	buf := wireformat.AppendMapHeader(nil, 2)
	buf = wireformat.AppendStr(buf, "foo")
	buf = wireformat.AppendInt(buf, 1)
	buf = wireformat.AppendStr(buf, "bar")
	buf = wireformat.AppendInt(buf, 2)

	r := NewReader(buf)
	v, err := r.GetObjectProperty(0, []byte("bar"))
	require.NoError(t, err)
	assert.Equal(t, float64(2), v.Decode().Number)

	missing, err := r.GetObjectProperty(0, []byte("baz"))
	require.NoError(t, err)
	assert.Equal(t, nanbox.TagNull, missing.Decode().Tag)
}

func TestGetObjectPropertyNotAnObject(t *testing.T) {
	buf := wireformat.AppendBool(nil, true)
	r := NewReader(buf)
	_, err := r.GetObjectProperty(0, []byte("foo"))
	assert.Error(t, err)
}

func TestGetAtIndex(t *testing.T) {
	buf := wireformat.AppendArrayHeader(nil, 3)
	buf = wireformat.AppendInt(buf, 10)
	buf = wireformat.AppendInt(buf, 20)
	buf = wireformat.AppendInt(buf, 30)

	r := NewReader(buf)
	v, err := r.GetAtIndex(0, 2)
	require.NoError(t, err)
	assert.Equal(t, float64(30), v.Decode().Number)
}

func TestGetAtIndexOutOfBounds(t *testing.T) {
	buf := wireformat.AppendArrayHeader(nil, 1)
	buf = wireformat.AppendInt(buf, 10)
	r := NewReader(buf)
	_, err := r.GetAtIndex(0, 5)
	assert.Error(t, err)
	assert.Equal(t, nanbox.ErrIndexOutOfBounds, CodeOf(err))
}

func TestGetAtIndexNotAnArray(t *testing.T) {
	buf := wireformat.AppendMapHeader(nil, 0)
	r := NewReader(buf)
	_, err := r.GetAtIndex(0, 0)
	assert.Error(t, err)
	assert.Equal(t, nanbox.ErrNotAnArray, CodeOf(err))
}

func TestGetInternedObjectProperty(t *testing.T) {
	buf := wireformat.AppendMapHeader(nil, 1)
	buf = wireformat.AppendStr(buf, "quantity")
	buf = wireformat.AppendInt(buf, 7)

	r := NewReader(buf)
	strs := interner.New()
	id, dst := strs.Preallocate(len("quantity"))
	copy(dst, "quantity")

	v, err := r.GetInternedObjectProperty(0, id, strs)
	require.NoError(t, err)
	assert.Equal(t, float64(7), v.Decode().Number)
}

// TestSkipIdempotence is property 4 from spec.md §8: calling skip twice on
// the same offset advances the cursor identically, and the memo table
// retains exactly one entry for that offset.
func TestSkipIdempotence(t *testing.T) {
	buf := wireformat.AppendArrayHeader(nil, 2)
	buf = wireformat.AppendMapHeader(buf, 1)
	buf = wireformat.AppendStr(buf, "a")
	buf = wireformat.AppendInt(buf, 1)
	buf = wireformat.AppendInt(buf, 99)

	r := NewReader(buf)
	headerLen := 1
	firstElemOffset := headerLen

	end1, err := r.skip(firstElemOffset, 0)
	require.NoError(t, err)
	end2, err := r.skip(firstElemOffset, 0)
	require.NoError(t, err)
	assert.Equal(t, end1, end2)

	count := 0
	for _, e := range r.memo {
		if e.start == firstElemOffset {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

// TestReaderRevisitDoesNotReparseEarlierElements is property 5 from
// spec.md §8: after GetAtIndex(arr, k), a subsequent GetAtIndex(arr, k)
// must not re-decode elements < k. We approximate "no re-decoding" by
// asserting the memo table does not grow on the repeated call.
func TestReaderRevisitDoesNotReparseEarlierElements(t *testing.T) {
	buf := wireformat.AppendArrayHeader(nil, 5)
	for i := 0; i < 5; i++ {
		buf = wireformat.AppendInt(buf, int64(i))
	}
	r := NewReader(buf)

	_, err := r.GetAtIndex(0, 3)
	require.NoError(t, err)
	memoLenAfterFirst := len(r.memo)

	_, err = r.GetAtIndex(0, 3)
	require.NoError(t, err)
	assert.Equal(t, memoLenAfterFirst, len(r.memo))
}

func TestMemoTableStaysSorted(t *testing.T) {
	buf := wireformat.AppendArrayHeader(nil, 4)
	for i := 0; i < 4; i++ {
		buf = wireformat.AppendInt(buf, int64(i*10))
	}
	r := NewReader(buf)
	_, err := r.GetAtIndex(0, 3)
	require.NoError(t, err)

	for i := 1; i < len(r.memo); i++ {
		assert.LessOrEqual(t, r.memo[i-1].start, r.memo[i].start)
	}
}
