package resp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeWhitespace(t *testing.T) {
	tokens, err := tokenize([]byte("SET  key   value"))
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, "SET", string(tokens[0]))
	assert.Equal(t, "key", string(tokens[1]))
	assert.Equal(t, "value", string(tokens[2]))
}

func TestTokenizeTabsAndSpacesMixed(t *testing.T) {
	tokens, err := tokenize([]byte("GET\tfoo"))
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "GET", string(tokens[0]))
	assert.Equal(t, "foo", string(tokens[1]))
}

func TestTokenizeQuotedTokenIsVerbatim(t *testing.T) {
	tokens, err := tokenize([]byte(`SET key "hello world"`))
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, "hello world", string(tokens[2]))
}

func TestTokenizeQuotedTokenNoEscapeProcessing(t *testing.T) {
	tokens, err := tokenize([]byte(`SET key "a\nb"`))
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, `a\nb`, string(tokens[2]))
}

func TestTokenizeEmptyQuotedToken(t *testing.T) {
	tokens, err := tokenize([]byte(`SET key ""`))
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, "", string(tokens[2]))
}

func TestTokenizeUnbalancedQuoteIsError(t *testing.T) {
	_, err := tokenize([]byte(`SET key "unterminated`))
	assert.Error(t, err)
}

func TestTokenizeEmptyLineYieldsNoTokens(t *testing.T) {
	tokens, err := tokenize([]byte(""))
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestTokenizeLeadingAndTrailingWhitespace(t *testing.T) {
	tokens, err := tokenize([]byte("   PING   "))
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "PING", string(tokens[0]))
}
