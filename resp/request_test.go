package resp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRequestEmptyBufferIsIncomplete(t *testing.T) {
	complete, tokens, leftover, err := ReadRequest(nil)
	require.NoError(t, err)
	assert.False(t, complete)
	assert.Nil(t, tokens)
	assert.Nil(t, leftover)
}

func TestReadRequestRESPArray(t *testing.T) {
	buf := []byte("*2\r\n$3\r\nGET\r\n$3\r\nfoo\r\n")
	complete, tokens, leftover, err := ReadRequest(buf)
	require.NoError(t, err)
	require.True(t, complete)
	require.Len(t, tokens, 2)
	assert.Equal(t, "GET", string(tokens[0]))
	assert.Equal(t, "foo", string(tokens[1]))
	assert.Empty(t, leftover)
}

func TestReadRequestRESPArrayIncomplete(t *testing.T) {
	buf := []byte("*2\r\n$3\r\nGET\r\n$3\r\nfo")
	complete, _, leftover, err := ReadRequest(buf)
	require.NoError(t, err)
	assert.False(t, complete)
	assert.Equal(t, buf, leftover)
}

func TestReadRequestRESPArrayLeavesTrailingBytesAsLeftover(t *testing.T) {
	buf := []byte("*1\r\n$4\r\nPING\r\n*1\r\n$4\r\nPING\r\n")
	complete, tokens, leftover, err := ReadRequest(buf)
	require.NoError(t, err)
	require.True(t, complete)
	require.Len(t, tokens, 1)
	assert.Equal(t, "PING", string(tokens[0]))
	assert.Equal(t, "*1\r\n$4\r\nPING\r\n", string(leftover))
}

func TestReadRequestRESPArrayOfNonBulkElementIsProtocolError(t *testing.T) {
	buf := []byte("*1\r\n:1\r\n")
	_, _, _, err := ReadRequest(buf)
	assert.Error(t, err)
}

func TestReadRequestRESPNullArrayIsProtocolError(t *testing.T) {
	buf := []byte("*-1\r\n")
	_, _, _, err := ReadRequest(buf)
	assert.Error(t, err)
}

func TestReadRequestTextLine(t *testing.T) {
	buf := []byte("SET key value\r\n")
	complete, tokens, leftover, err := ReadRequest(buf)
	require.NoError(t, err)
	require.True(t, complete)
	require.Len(t, tokens, 3)
	assert.Equal(t, "SET", string(tokens[0]))
	assert.Equal(t, "key", string(tokens[1]))
	assert.Equal(t, "value", string(tokens[2]))
	assert.Empty(t, leftover)
}

func TestReadRequestTextLineIncompleteWithoutCRLF(t *testing.T) {
	buf := []byte("PING")
	complete, _, leftover, err := ReadRequest(buf)
	require.NoError(t, err)
	assert.False(t, complete)
	assert.Equal(t, buf, leftover)
}

func TestReadRequestTextLineRejectsBareLF(t *testing.T) {
	buf := []byte("PING\n")
	_, _, _, err := ReadRequest(buf)
	assert.Error(t, err)
}

func TestReadRequestTextLineLeavesRemainderForNextRequest(t *testing.T) {
	buf := []byte("PING\r\nECHO hi\r\n")
	complete, tokens, leftover, err := ReadRequest(buf)
	require.NoError(t, err)
	require.True(t, complete)
	require.Len(t, tokens, 1)
	assert.Equal(t, "ECHO hi\r\n", string(leftover))
}
