// Package command defines the shape-checked representation of every
// request kvhub accepts, and the lowering step that turns a raw token
// vector (from either wire codec) into one of them.
package command

import (
	"strconv"
)

// Kind identifies which operation a Command performs.
type Kind int

const (
	Get Kind = iota
	Set
	Exists
	Del
	Rename
	IncrBy
	Strlen
	Append
	Type
	BitCount
	GetRange
	LPush
	RPush
	LLen
	LIndex
	LSet
	LPop
	Keys
	FlushAll
	Ping
	Echo
)

// Command is a tagged variant carrying already-validated arguments for
// one request. Only the fields relevant to Kind are populated.
type Command struct {
	Kind Kind
	Name []byte // command name exactly as received, for error messages

	Key    []byte
	Keys   [][]byte // EXISTS, DEL
	NewKey []byte   // RENAME

	Value  []byte   // SET, APPEND, LSET
	Values [][]byte // LPUSH, RPUSH

	Delta int64 // IncrBy (already sign-adjusted for DECR/DECRBY)
	Index int64 // LINDEX, LSET

	HasRange   bool // BITCOUNT with an explicit range
	Start, End int64

	Message []byte // PING, ECHO
}

// ErrKind enumerates every failure mode surfaced to a client, spanning
// both command lowering and command execution.
type ErrKind int

const (
	ErrUnknownCommand ErrKind = iota
	ErrBadArity
	ErrNoSuchKey
	ErrNotAnInteger
	ErrIntegerOverflow
	ErrWrongType
)

// Error is the single error type returned by lowering and by the engine.
// Its Error() string is bit-exact with the wire protocol's error replies.
type Error struct {
	Kind ErrKind
	Name string // command name, for ErrUnknownCommand / ErrBadArity
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrUnknownCommand:
		return "ERR unknown command '" + e.Name + "'"
	case ErrBadArity:
		return "ERR wrong number of arguments for '" + e.Name + "' command"
	case ErrNoSuchKey:
		return "ERR no such key"
	case ErrNotAnInteger:
		return "ERR value is not an integer or out of range"
	case ErrIntegerOverflow:
		return "ERR increment or decrement would overflow"
	case ErrWrongType:
		return "WRONGTYPE Operation against a key holding the wrong kind of value"
	default:
		return "ERR internal error"
	}
}

func unknownCommand(name []byte) error {
	return &Error{Kind: ErrUnknownCommand, Name: string(name)}
}

func badArity(name []byte) error {
	return &Error{Kind: ErrBadArity, Name: string(name)}
}

func notAnInteger() error {
	return &Error{Kind: ErrNotAnInteger}
}

// parseInt64 parses the strict decimal signed-64-bit form required by
// numeric command arguments (LINDEX's index, *BY's delta, range bounds).
func parseInt64(b []byte) (int64, bool) {
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Lower validates a token vector (args[0] is the command name) and
// produces a Command. Arity mismatches yield ErrBadArity; an
// unrecognized name yields ErrUnknownCommand; malformed numeric
// arguments yield ErrNotAnInteger.
func Lower(args [][]byte) (Command, error) {
	if len(args) == 0 {
		return Command{}, unknownCommand(nil)
	}
	name := args[0]
	switch normalize(name) {
	case "get":
		if len(args) != 2 {
			return Command{}, badArity(name)
		}
		return Command{Kind: Get, Name: name, Key: args[1]}, nil

	case "set":
		if len(args) != 3 {
			return Command{}, badArity(name)
		}
		return Command{Kind: Set, Name: name, Key: args[1], Value: args[2]}, nil

	case "exists":
		if len(args) < 2 {
			return Command{}, badArity(name)
		}
		return Command{Kind: Exists, Name: name, Keys: args[1:]}, nil

	case "del":
		if len(args) < 2 {
			return Command{}, badArity(name)
		}
		return Command{Kind: Del, Name: name, Keys: args[1:]}, nil

	case "rename":
		if len(args) != 3 {
			return Command{}, badArity(name)
		}
		return Command{Kind: Rename, Name: name, Key: args[1], NewKey: args[2]}, nil

	case "incr":
		if len(args) != 2 {
			return Command{}, badArity(name)
		}
		return Command{Kind: IncrBy, Name: name, Key: args[1], Delta: 1}, nil

	case "decr":
		if len(args) != 2 {
			return Command{}, badArity(name)
		}
		return Command{Kind: IncrBy, Name: name, Key: args[1], Delta: -1}, nil

	case "incrby":
		if len(args) != 3 {
			return Command{}, badArity(name)
		}
		delta, ok := parseInt64(args[2])
		if !ok {
			return Command{}, notAnInteger()
		}
		return Command{Kind: IncrBy, Name: name, Key: args[1], Delta: delta}, nil

	case "decrby":
		if len(args) != 3 {
			return Command{}, badArity(name)
		}
		delta, ok := parseInt64(args[2])
		if !ok {
			return Command{}, notAnInteger()
		}
		if delta == -9223372036854775808 { // negating i64::MIN overflows
			return Command{}, &Error{Kind: ErrIntegerOverflow}
		}
		return Command{Kind: IncrBy, Name: name, Key: args[1], Delta: -delta}, nil

	case "strlen":
		if len(args) != 2 {
			return Command{}, badArity(name)
		}
		return Command{Kind: Strlen, Name: name, Key: args[1]}, nil

	case "append":
		if len(args) != 3 {
			return Command{}, badArity(name)
		}
		return Command{Kind: Append, Name: name, Key: args[1], Value: args[2]}, nil

	case "type":
		if len(args) != 2 {
			return Command{}, badArity(name)
		}
		return Command{Kind: Type, Name: name, Key: args[1]}, nil

	case "bitcount":
		switch len(args) {
		case 2:
			return Command{Kind: BitCount, Name: name, Key: args[1]}, nil
		case 4:
			start, ok1 := parseInt64(args[2])
			end, ok2 := parseInt64(args[3])
			if !ok1 || !ok2 {
				return Command{}, notAnInteger()
			}
			return Command{Kind: BitCount, Name: name, Key: args[1], HasRange: true, Start: start, End: end}, nil
		default:
			return Command{}, badArity(name)
		}

	case "getrange":
		if len(args) != 4 {
			return Command{}, badArity(name)
		}
		start, ok1 := parseInt64(args[2])
		end, ok2 := parseInt64(args[3])
		if !ok1 || !ok2 {
			return Command{}, notAnInteger()
		}
		return Command{Kind: GetRange, Name: name, Key: args[1], Start: start, End: end}, nil

	case "lpush":
		if len(args) < 3 {
			return Command{}, badArity(name)
		}
		return Command{Kind: LPush, Name: name, Key: args[1], Values: args[2:]}, nil

	case "rpush":
		if len(args) < 3 {
			return Command{}, badArity(name)
		}
		return Command{Kind: RPush, Name: name, Key: args[1], Values: args[2:]}, nil

	case "llen":
		if len(args) != 2 {
			return Command{}, badArity(name)
		}
		return Command{Kind: LLen, Name: name, Key: args[1]}, nil

	case "lindex":
		if len(args) != 3 {
			return Command{}, badArity(name)
		}
		idx, ok := parseInt64(args[2])
		if !ok {
			return Command{}, notAnInteger()
		}
		return Command{Kind: LIndex, Name: name, Key: args[1], Index: idx}, nil

	case "lset":
		if len(args) != 4 {
			return Command{}, badArity(name)
		}
		idx, ok := parseInt64(args[2])
		if !ok {
			return Command{}, notAnInteger()
		}
		return Command{Kind: LSet, Name: name, Key: args[1], Index: idx, Value: args[3]}, nil

	case "lpop":
		if len(args) != 2 {
			return Command{}, badArity(name)
		}
		return Command{Kind: LPop, Name: name, Key: args[1]}, nil

	case "keys":
		if len(args) != 1 {
			return Command{}, badArity(name)
		}
		return Command{Kind: Keys, Name: name}, nil

	case "flushall":
		if len(args) != 1 {
			return Command{}, badArity(name)
		}
		return Command{Kind: FlushAll, Name: name}, nil

	case "ping":
		switch len(args) {
		case 1:
			return Command{Kind: Ping, Name: name}, nil
		case 2:
			return Command{Kind: Ping, Name: name, Message: args[1]}, nil
		default:
			return Command{}, badArity(name)
		}

	case "echo":
		if len(args) != 2 {
			return Command{}, badArity(name)
		}
		return Command{Kind: Echo, Name: name, Message: args[1]}, nil

	default:
		return Command{}, unknownCommand(name)
	}
}

// normalize lowercases the ASCII letters of a command name into a new
// string; every other byte is copied unchanged.
func normalize(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
