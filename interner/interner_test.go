package interner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreallocateAssignsMonotonicIds(t *testing.T) {
	in := New()
	id0, dst0 := in.Preallocate(3)
	copy(dst0, "foo")
	id1, dst1 := in.Preallocate(5)
	copy(dst1, "hello")

	assert.Equal(t, uint32(0), id0)
	assert.Equal(t, uint32(1), id1)

	got0, err := in.Get(id0)
	require.NoError(t, err)
	assert.Equal(t, []byte("foo"), got0)

	got1, err := in.Get(id1)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got1)
}

func TestGetUnknownIdErrors(t *testing.T) {
	in := New()
	_, err := in.Get(0)
	assert.Error(t, err)
}

func TestSpansNeverMove(t *testing.T) {
	in := New()
	_, dst := in.Preallocate(3)
	copy(dst, "abc")
	for i := 0; i < 100; i++ {
		in.Preallocate(1)
	}
	got, err := in.Get(0)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}

func TestLen(t *testing.T) {
	in := New()
	assert.Equal(t, 0, in.Len())
	in.Preallocate(1)
	in.Preallocate(1)
	assert.Equal(t, 2, in.Len())
}
