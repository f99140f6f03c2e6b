package bridge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dam/internal/bridge"
	"dam/internal/hub"
)

func TestParamsDefaults(t *testing.T) {
	v := bridge.NewParams().Snapshot()
	assert.Equal(t, "normal", v.Variant)
	assert.True(t, v.Book)
	assert.Equal(t, 4, v.BookPly)
	assert.Equal(t, 1, v.Threads)
	assert.Equal(t, 24, v.TTSize)
	assert.Equal(t, 5, v.BBSize)
}

func TestParamsSet(t *testing.T) {
	p := bridge.NewParams()

	require.NoError(t, p.Set("variant", "frisian"))
	require.NoError(t, p.Set("book", "false"))
	require.NoError(t, p.Set("tt-size", "20"))

	v := p.Snapshot()
	assert.Equal(t, "frisian", v.Variant)
	assert.False(t, v.Book)
	assert.Equal(t, 20, v.TTSize)
}

func TestParamsSetRejectsInvalid(t *testing.T) {
	p := bridge.NewParams()
	before := p.Snapshot()

	assert.ErrorContains(t, p.Set("variant", "checkers"), "variant must be one of")
	assert.ErrorContains(t, p.Set("book", "maybe"), "book must be true or false")
	assert.ErrorContains(t, p.Set("tt-size", "64"), "between 16 and 30")
	assert.ErrorContains(t, p.Set("threads", "zero"), "must be an integer")
	assert.ErrorContains(t, p.Set("no-such", "1"), "unknown parameter")

	// Rejected sets leave state untouched.
	assert.Equal(t, before, p.Snapshot())
}

func TestParamsAdvertise(t *testing.T) {
	lines := bridge.NewParams().Advertise()
	require.Len(t, lines, 7)

	names := make(map[string]bool)
	for _, m := range lines {
		assert.Equal(t, "param", m.Command)
		name, ok := m.Get("name")
		require.True(t, ok)
		names[name] = true

		// Every advertisement must survive the wire.
		parsed, err := hub.Parse(m.String())
		require.NoError(t, err)
		assert.Equal(t, m.Pairs(), parsed.Pairs())
	}
	for _, want := range []string{"variant", "book", "book-ply", "book-margin", "threads", "tt-size", "bb-size"} {
		assert.True(t, names[want], "missing param %s", want)
	}
}
