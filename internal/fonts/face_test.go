package fonts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	f := Default()
	require.NotNil(t, f)
	assert.Same(t, f, Default())
	assert.NotEmpty(t, f.Name())
	assert.Greater(t, f.Ascent(), 0.0)
	assert.Less(t, f.Descent(), 0.0)
	assert.NotEmpty(t, f.Data())
}

func TestMeasure(t *testing.T) {
	f := Default()
	assert.Zero(t, f.Measure("", 12))

	w := f.Measure("hello", 12)
	assert.Greater(t, w, 0.0)
	assert.InDelta(t, 2*w, f.Measure("hello", 24), 1e-9)
	assert.InDelta(t, w+f.Measure(" ", 12), f.Measure("hello ", 12), 1e-9)
	assert.Greater(t, f.Measure("WWW", 12), f.Measure("iii", 12))
}

func TestWidthsCoverCodeRange(t *testing.T) {
	w := Default().Widths()
	assert.Len(t, w, LastChar-FirstChar+1)
	assert.Equal(t, Default().Advance('A'), w['A'-FirstChar])
}

func TestEncode(t *testing.T) {
	assert.Equal(t, []byte("hi"), Encode("hi"))
	assert.Equal(t, []byte{'c', 'a', 'f', 0xE9}, Encode("café"))
	assert.Equal(t, []byte("a?b"), Encode("a世b"))
	assert.Equal(t, '?', Encodable('\n'))
	assert.Equal(t, '€', Encodable('€'))
}
