package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommandAndPairs(t *testing.T) {
	m, err := Parse("pos start moves=\"32-28 19-23\"")
	require.NoError(t, err)
	assert.Equal(t, "pos", m.Command)

	pairs := m.Pairs()
	require.Len(t, pairs, 2)
	assert.Equal(t, Pair{Name: "start"}, pairs[0])
	assert.Equal(t, Pair{Name: "moves", Value: "32-28 19-23"}, pairs[1])
}

func TestParseQuotedValue(t *testing.T) {
	m, err := Parse(`id name=dam author="Dam Project" country=NL`)
	require.NoError(t, err)

	author, ok := m.Get("author")
	require.True(t, ok)
	assert.Equal(t, "Dam Project", author)

	country, ok := m.Get("country")
	require.True(t, ok)
	assert.Equal(t, "NL", country)
}

func TestParseEmptyLine(t *testing.T) {
	for _, line := range []string{"", "   ", "\t", "\n"} {
		_, err := Parse(line)
		assert.ErrorIs(t, err, ErrMissingCommand, "line %q", line)
	}
}

func TestParseFlagPairs(t *testing.T) {
	m, err := Parse("go think ponder")
	require.NoError(t, err)
	assert.Equal(t, "go", m.Command)
	assert.True(t, m.Has("think"))
	assert.True(t, m.Has("ponder"))
	assert.False(t, m.Has("analyze"))
}

func TestParseSkipsMalformedPairs(t *testing.T) {
	m, err := Parse("set-param =broken name=variant value=frisian")
	require.NoError(t, err)

	name, ok := m.Get("name")
	require.True(t, ok)
	assert.Equal(t, "variant", name)
	require.Len(t, m.Pairs(), 2)
}

func TestParseStripsLineTerminator(t *testing.T) {
	m, err := Parse("ping\r\n")
	require.NoError(t, err)
	assert.Equal(t, "ping", m.Command)
	assert.Empty(t, m.Pairs())
}

func TestSerializeQuotesWhitespace(t *testing.T) {
	m := NewMessage("error").Add("message", "unknown command: bogus")
	assert.Equal(t, `error message="unknown command: bogus"`, m.String())
}

func TestRoundTrip(t *testing.T) {
	messages := []*Message{
		NewMessage("pong"),
		NewMessage("done").Add("move", "32-28").Add("ponder", "19-23"),
		NewMessage("id").Add("name", "dam").Add("version", "1.0").
			Add("author", "Dam Project").Add("country", "NL"),
		NewMessage("param").Add("name", "variant").Add("value", "normal").
			Add("type", "enum").Add("values", "normal killer bt frisian losing"),
		NewMessage("go").Add("think", ""),
	}

	for _, m := range messages {
		parsed, err := Parse(m.String())
		require.NoError(t, err, "line %q", m.String())
		assert.Equal(t, m.Command, parsed.Command)
		assert.Equal(t, m.Pairs(), parsed.Pairs(), "line %q", m.String())
	}
}

func TestScannerOrder(t *testing.T) {
	sc := NewScanner("level depth=12 nodes=100000 move-time=2.5")
	cmd, err := sc.Command()
	require.NoError(t, err)
	assert.Equal(t, "level", cmd)

	var names []string
	for !sc.Eos() {
		p, ok := sc.NextPair()
		require.True(t, ok)
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"depth", "nodes", "move-time"}, names)
}
