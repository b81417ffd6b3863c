package dict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGet(t *testing.T) {
	d := New()
	d.SetString("directory", "/tmp/exp")
	v, err := d.Get("directory")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/exp", v.Str())
}

func TestGetMissing(t *testing.T) {
	d := New()
	_, err := d.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRefUnrefRoundTrip(t *testing.T) {
	// For any sequence of dict_ref/dict_unref, a dict whose refcount
	// returns to zero is freed exactly once.
	d := New()
	assert.EqualValues(t, 1, d.RefCount())
	d.Ref()
	d.Ref()
	assert.EqualValues(t, 3, d.RefCount())
	d.Unref()
	d.Unref()
	assert.EqualValues(t, 1, d.RefCount())
	d.Unref()
	assert.EqualValues(t, 0, d.RefCount())
	assert.Panics(t, func() { d.Unref() })
}

func TestDeleteKeepsOrder(t *testing.T) {
	d := New()
	d.SetString("a", "1")
	d.SetString("b", "2")
	d.SetString("c", "3")
	d.Delete("b")
	assert.Equal(t, []string{"a", "c"}, d.Keys())
}

func TestWireRoundTrip(t *testing.T) {
	d := New()
	d.SetString("remote-host", "localhost")
	d.SetString("remote-port", "24007")
	encoded := Encode(d)
	decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, "localhost", decoded.GetString("remote-host", ""))
	assert.Equal(t, "24007", decoded.GetString("remote-port", ""))
}
