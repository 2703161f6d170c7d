package resp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSimpleString(t *testing.T) {
	n, v, err := Decode([]byte("+OK\r\n"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, KindSimpleString, v.Kind)
	assert.Equal(t, []byte("OK"), v.Str)
}

func TestDecodeError(t *testing.T) {
	n, v, err := Decode([]byte("-ERR bad\r\n"))
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, KindError, v.Kind)
	assert.Equal(t, []byte("ERR bad"), v.Str)
}

func TestDecodeInteger(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{":0\r\n", 0},
		{":1000\r\n", 1000},
		{":-1000\r\n", -1000},
	}
	for _, tt := range tests {
		n, v, err := Decode([]byte(tt.in))
		require.NoError(t, err)
		assert.Equal(t, len(tt.in), n)
		assert.Equal(t, KindInteger, v.Kind)
		assert.Equal(t, tt.want, v.Int)
	}
}

func TestDecodeBulkString(t *testing.T) {
	n, v, err := Decode([]byte("$6\r\nfoobar\r\n"))
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.Equal(t, []byte("foobar"), v.Bulk)
	assert.False(t, v.IsNull)
}

func TestDecodeBulkStringEmpty(t *testing.T) {
	n, v, err := Decode([]byte("$0\r\n\r\n"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, []byte{}, v.Bulk)
}

func TestDecodeBulkStringNull(t *testing.T) {
	n, v, err := Decode([]byte("$-1\r\n"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.True(t, v.IsNull)
}

func TestDecodeArray(t *testing.T) {
	n, v, err := Decode([]byte("*2\r\n$3\r\nGET\r\n$3\r\nkey\r\n"))
	require.NoError(t, err)
	assert.Equal(t, 22, n)
	require.Len(t, v.Array, 2)
	assert.Equal(t, []byte("GET"), v.Array[0].Bulk)
	assert.Equal(t, []byte("key"), v.Array[1].Bulk)
}

func TestDecodeArrayNull(t *testing.T) {
	_, v, err := Decode([]byte("*-1\r\n"))
	require.NoError(t, err)
	assert.True(t, v.IsNull)
}

func TestDecodeNestedArray(t *testing.T) {
	n, v, err := Decode([]byte("*2\r\n*1\r\n:1\r\n$1\r\nx\r\n"))
	require.NoError(t, err)
	assert.Equal(t, 19, n)
	require.Len(t, v.Array, 2)
	assert.Equal(t, KindArray, v.Array[0].Kind)
	assert.Equal(t, int64(1), v.Array[0].Array[0].Int)
}

func TestDecodeIncompleteReportsIncompleteNotError(t *testing.T) {
	tests := [][]byte{
		nil,
		[]byte("$6\r\nfoo"),
		[]byte("*2\r\n$3\r\nGET\r\n"),
		[]byte(":123"),
		[]byte("+OK"),
	}
	for _, in := range tests {
		_, _, err := Decode(in)
		assert.ErrorIs(t, err, ErrIncomplete, "input %q", in)
	}
}

func TestDecodeBulkStringShortOfDeclaredLength(t *testing.T) {
	_, _, err := Decode([]byte("$10\r\nfoo\r\n"))
	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestDecodeMalformedFraming(t *testing.T) {
	tests := []string{
		"+bad\nline\r\n",
		"$abc\r\nx\r\n",
		"*abc\r\n",
		"!nope\r\n",
		"$3\r\nfooXX",
	}
	for _, in := range tests {
		_, _, err := Decode([]byte(in))
		require.Error(t, err, "input %q", in)
		assert.NotErrorIs(t, err, ErrIncomplete, "input %q", in)
	}
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	inputs := []string{
		"+OK\r\n",
		"-ERR oops\r\n",
		":42\r\n",
		":-7\r\n",
		"$5\r\nhello\r\n",
		"$0\r\n\r\n",
		"$-1\r\n",
		"*0\r\n",
		"*2\r\n$3\r\nfoo\r\n$3\r\nbar\r\n",
	}
	for _, in := range inputs {
		n, v, err := Decode([]byte(in))
		require.NoError(t, err, in)
		assert.Equal(t, len(in), n)
		assert.Equal(t, []byte(in), encodeValue(v), "round trip for %q", in)
	}
}

// encodeValue is a test-only mirror encoder for the generic decoder
// Value, independent of AppendReply (which encodes engine.Reply, not
// every raw RESP shape), used solely to exercise the codec round-trip
// property from spec §8.
func encodeValue(v Value) []byte {
	var b []byte
	switch v.Kind {
	case KindSimpleString:
		b = append(b, '+')
		b = append(b, v.Str...)
		b = append(b, '\r', '\n')
	case KindError:
		b = append(b, '-')
		b = append(b, v.Str...)
		b = append(b, '\r', '\n')
	case KindInteger:
		b = appendPrefixedInt(b, ':', v.Int)
	case KindBulkString:
		if v.IsNull {
			b = AppendNull(b)
		} else {
			b = AppendBulk(b, v.Bulk)
		}
	case KindArray:
		if v.IsNull {
			b = append(b, "*-1\r\n"...)
		} else {
			b = appendPrefixedInt(b, '*', int64(len(v.Array)))
			for _, item := range v.Array {
				b = append(b, encodeValue(item)...)
			}
		}
	}
	return b
}
