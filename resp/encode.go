package resp

import (
	"strconv"

	"github.com/kvhub/kvhub/engine"
)

// AppendReply serializes a successful command reply to RESP bytes,
// appending to b and returning the extended slice — the same
// accumulate-and-return style the dispatch layer uses for batching
// replies to several pipelined commands into one write.
func AppendReply(b []byte, r engine.Reply) []byte {
	switch r.Kind {
	case engine.ReplyOk:
		return append(b, "+OK\r\n"...)
	case engine.ReplyNil:
		return AppendNull(b)
	case engine.ReplyInteger:
		return appendPrefixedInt(b, ':', r.Integer)
	case engine.ReplySize:
		b = append(b, ':')
		b = strconv.AppendUint(b, r.Size, 10)
		return append(b, '\r', '\n')
	case engine.ReplyBulkString:
		return AppendBulk(b, r.Bulk)
	case engine.ReplyType:
		b = append(b, '+')
		b = append(b, r.TypeName...)
		return append(b, '\r', '\n')
	case engine.ReplyArray:
		b = appendPrefixedInt(b, '*', int64(len(r.Array)))
		for _, item := range r.Array {
			b = AppendReply(b, item)
		}
		return b
	default:
		return b
	}
}

// AppendResult encodes either a successful Reply or the error produced
// in its place — exactly one of the two is ever appended — so callers
// in the dispatch layer can write the result of Engine.Apply in one
// call regardless of outcome.
func AppendResult(b []byte, r engine.Reply, err error) []byte {
	if err != nil {
		return AppendError(b, err.Error())
	}
	return AppendReply(b, r)
}

// AppendError appends a RESP error reply. msg is used as-is: package
// command's Error.Error() already produces the bit-exact wire strings
// ("ERR ...", "WRONGTYPE ...") this function just frames.
func AppendError(b []byte, msg string) []byte {
	b = append(b, '-')
	b = append(b, msg...)
	return append(b, '\r', '\n')
}

// AppendOK appends the simple string "+OK\r\n".
func AppendOK(b []byte) []byte {
	return append(b, "+OK\r\n"...)
}

// AppendNull appends the null bulk string marker "$-1\r\n".
func AppendNull(b []byte) []byte {
	return append(b, "$-1\r\n"...)
}

// AppendBulk appends a RESP bulk string. A nil or empty bulk encodes as
// "$0\r\n\r\n" — callers that want the null marker instead must use
// AppendNull.
func AppendBulk(b []byte, data []byte) []byte {
	b = appendPrefixedInt(b, '$', int64(len(data)))
	b = append(b, data...)
	return append(b, '\r', '\n')
}

// AppendSimpleString appends a RESP simple string, as used for PING's
// default reply. TYPE replies have the same form but are encoded by
// AppendReply.
func AppendSimpleString(b []byte, s string) []byte {
	b = append(b, '+')
	b = append(b, s...)
	return append(b, '\r', '\n')
}

func appendPrefixedInt(b []byte, marker byte, n int64) []byte {
	b = append(b, marker)
	b = strconv.AppendInt(b, n, 10)
	return append(b, '\r', '\n')
}
