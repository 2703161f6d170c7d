package resp

// Decode parses the next RESP value from b. It returns the number of
// bytes consumed and the decoded Value. A nil error with n == 0 never
// happens: either n > 0 and err is nil, or err is ErrIncomplete (b does
// not yet hold a full value — read more and retry) or a protocol error
// (b will never become valid by appending more bytes).
func Decode(b []byte) (n int, v Value, err error) {
	if len(b) == 0 {
		return 0, Value{}, ErrIncomplete
	}

	kind := Kind(b[0])
	switch kind {
	case KindSimpleString, KindError, KindInteger, KindBulkString, KindArray:
	default:
		return 0, Value{}, protoErr("invalid type byte")
	}

	line, consumed, err := readLine(b[1:])
	if err != nil {
		return 0, Value{}, err
	}
	head := 1 + consumed

	switch kind {
	case KindSimpleString, KindError:
		return head, Value{Kind: kind, Str: dup(line)}, nil

	case KindInteger:
		iv, ok := parseStrictInt(line)
		if !ok {
			return 0, Value{}, protoErr("invalid integer")
		}
		return head, Value{Kind: KindInteger, Int: iv}, nil

	case KindBulkString:
		return decodeBulk(b, head, line)

	case KindArray:
		return decodeArray(b, head, line)
	}

	panic("resp: unreachable")
}

func decodeBulk(b []byte, head int, lenLine []byte) (int, Value, error) {
	size, ok := parseStrictInt(lenLine)
	if !ok || size < -1 {
		return 0, Value{}, protoErr("invalid bulk length")
	}
	if size == -1 {
		return head, Value{Kind: KindBulkString, IsNull: true}, nil
	}
	rest := b[head:]
	if int64(len(rest)) < size+2 {
		return 0, Value{}, ErrIncomplete
	}
	if rest[size] != '\r' || rest[size+1] != '\n' {
		return 0, Value{}, protoErr("invalid bulk string terminator")
	}
	return head + int(size) + 2, Value{Kind: KindBulkString, Bulk: dup(rest[:size])}, nil
}

func decodeArray(b []byte, head int, lenLine []byte) (int, Value, error) {
	count, ok := parseStrictInt(lenLine)
	if !ok || count < -1 {
		return 0, Value{}, protoErr("invalid array length")
	}
	if count == -1 {
		return head, Value{Kind: KindArray, IsNull: true}, nil
	}

	items := make([]Value, 0, count)
	pos := head
	for i := int64(0); i < count; i++ {
		n, v, err := Decode(b[pos:])
		if err != nil {
			return 0, Value{}, err
		}
		items = append(items, v)
		pos += n
	}
	return pos, Value{Kind: KindArray, Array: items}, nil
}

// readLine scans b for a CRLF-terminated line. A bare '\n' not preceded
// by '\r', or a '\r' not immediately followed by '\n', is a protocol
// error: the spec disallows embedded CR or LF inside simple-string and
// error payloads, and this scan doubles as the length-line reader for
// bulk strings and arrays where the same framing rule applies.
func readLine(b []byte) (line []byte, consumed int, err error) {
	for i := 0; i < len(b); i++ {
		switch b[i] {
		case '\r':
			if i+1 >= len(b) {
				return nil, 0, ErrIncomplete
			}
			if b[i+1] != '\n' {
				return nil, 0, protoErr("bare CR in line")
			}
			return b[:i], i + 2, nil
		case '\n':
			return nil, 0, protoErr("bare LF in line")
		}
	}
	return nil, 0, ErrIncomplete
}

// parseStrictInt parses an optional '-' sign followed by decimal
// digits. Unlike strconv.ParseInt it never accepts a leading '+', which
// real RESP peers never emit.
func parseStrictInt(b []byte) (int64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	neg := false
	i := 0
	if b[0] == '-' {
		neg = true
		i = 1
		if len(b) == 1 {
			return 0, false
		}
	}
	var n int64
	for ; i < len(b); i++ {
		c := b[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int64(c-'0')
	}
	if neg {
		n = -n
	}
	return n, true
}

func dup(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
