// Package engine holds the in-memory keyspace, its typed value model,
// and the command execution semantics: the hard engineering of kvhub.
// Engine.Apply is the single entry point; every command in package
// command's Kind enumeration is dispatched from there under one mutex
// that serializes the whole keyspace into a linear history of commands.
package engine

import (
	"math/bits"
	"sync"

	"github.com/kvhub/kvhub/command"
)

// Engine owns the keyspace and applies commands to it one at a time.
// The zero value is not usable; construct with New.
type Engine struct {
	mu sync.Mutex
	ks keyspace
}

// New returns an empty Engine ready to accept commands.
func New() *Engine {
	return &Engine{ks: newKeyspace()}
}

// Apply executes cmd against the keyspace and returns its reply. It
// takes exclusive access to the keyspace for the duration of the call
// and never suspends internally — callers (the connection dispatch
// layer) must not hold any lock of their own across Apply, and must not
// call Apply while holding the read buffer that cmd's byte slices may
// still be borrowed from without having copied out what they need.
func (e *Engine) Apply(cmd command.Command) (Reply, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch cmd.Kind {
	case command.Get:
		return e.get(cmd.Key)
	case command.Set:
		return e.set(cmd.Key, cmd.Value)
	case command.Exists:
		return e.exists(cmd.Keys)
	case command.Del:
		return e.del(cmd.Keys)
	case command.Rename:
		return e.rename(cmd.Key, cmd.NewKey)
	case command.IncrBy:
		return e.incrBy(cmd.Key, cmd.Delta)
	case command.Strlen:
		return e.strlen(cmd.Key)
	case command.Append:
		return e.append(cmd.Key, cmd.Value)
	case command.Type:
		return e.typeOf(cmd.Key)
	case command.BitCount:
		return e.bitCount(cmd.Key, cmd.HasRange, cmd.Start, cmd.End)
	case command.GetRange:
		return e.getRange(cmd.Key, cmd.Start, cmd.End)
	case command.LPush:
		return e.push(cmd.Key, cmd.Values, true)
	case command.RPush:
		return e.push(cmd.Key, cmd.Values, false)
	case command.LLen:
		return e.llen(cmd.Key)
	case command.LIndex:
		return e.lindex(cmd.Key, cmd.Index)
	case command.LSet:
		return e.lset(cmd.Key, cmd.Index, cmd.Value)
	case command.LPop:
		return e.lpop(cmd.Key)
	case command.Keys:
		return e.keys()
	case command.FlushAll:
		e.ks = newKeyspace()
		return okReply(), nil
	case command.Ping:
		if cmd.Message != nil {
			return bulkReply(cmd.Message), nil
		}
		return bulkReply([]byte("PONG")), nil
	case command.Echo:
		return bulkReply(cmd.Message), nil
	default:
		return Reply{}, &command.Error{Kind: command.ErrUnknownCommand, Name: string(cmd.Name)}
	}
}

func wrongType() error { return &command.Error{Kind: command.ErrWrongType} }
func noSuchKey() error { return &command.Error{Kind: command.ErrNoSuchKey} }
func notAnInt() error  { return &command.Error{Kind: command.ErrNotAnInteger} }
func overflow() error  { return &command.Error{Kind: command.ErrIntegerOverflow} }

func (e *Engine) get(key []byte) (Reply, error) {
	v, ok := e.ks[string(key)]
	if !ok {
		return nilReply(), nil
	}
	if v.kind == kindList {
		return Reply{}, wrongType()
	}
	return bulkReply(v.bytes()), nil
}

func (e *Engine) set(key, val []byte) (Reply, error) {
	e.ks[string(key)] = integerOrString(val)
	return okReply(), nil
}

func (e *Engine) exists(keys [][]byte) (Reply, error) {
	var n uint64
	for _, k := range keys {
		if _, ok := e.ks[string(k)]; ok {
			n++
		}
	}
	return sizeReply(n), nil
}

func (e *Engine) del(keys [][]byte) (Reply, error) {
	var n uint64
	for _, k := range keys {
		sk := string(k)
		if _, ok := e.ks[sk]; ok {
			delete(e.ks, sk)
			n++
		}
	}
	return sizeReply(n), nil
}

func (e *Engine) rename(key, newKey []byte) (Reply, error) {
	if string(key) == string(newKey) {
		if _, ok := e.ks[string(key)]; !ok {
			return Reply{}, noSuchKey()
		}
		return okReply(), nil
	}
	v, ok := e.ks[string(key)]
	if !ok {
		return Reply{}, noSuchKey()
	}
	delete(e.ks, string(key))
	e.ks[string(newKey)] = v
	return okReply(), nil
}

func (e *Engine) incrBy(key []byte, delta int64) (Reply, error) {
	sk := string(key)
	v, ok := e.ks[sk]
	if !ok {
		e.ks[sk] = integerValue(delta)
		return integerReply(delta), nil
	}

	switch v.kind {
	case kindInteger:
		sum, carry := addOverflows(v.integer, delta)
		if carry {
			return Reply{}, overflow()
		}
		e.ks[sk] = integerValue(sum)
		return integerReply(sum), nil
	case kindString:
		if len(v.str) != 0 {
			return Reply{}, notAnInt()
		}
		e.ks[sk] = integerValue(delta)
		return integerReply(delta), nil
	default: // kindList
		return Reply{}, notAnInt()
	}
}

// addOverflows performs a checked signed 64-bit addition, reporting
// carry == true when a + b cannot be represented as an int64.
func addOverflows(a, b int64) (sum int64, carry bool) {
	sum = a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, true
	}
	return sum, false
}

func (e *Engine) strlen(key []byte) (Reply, error) {
	v, ok := e.ks[string(key)]
	if !ok {
		return sizeReply(0), nil
	}
	if v.kind == kindList {
		return Reply{}, wrongType()
	}
	return sizeReply(uint64(len(v.bytes()))), nil
}

func (e *Engine) append(key, val []byte) (Reply, error) {
	sk := string(key)
	v, ok := e.ks[sk]
	if !ok {
		e.ks[sk] = integerOrString(val)
		return sizeReply(uint64(len(val))), nil
	}
	if v.kind == kindList {
		return Reply{}, wrongType()
	}

	combined := make([]byte, 0, len(v.bytes())+len(val))
	combined = append(combined, v.bytes()...)
	combined = append(combined, val...)
	e.ks[sk] = integerOrString(combined)
	return sizeReply(uint64(len(combined))), nil
}

func (e *Engine) typeOf(key []byte) (Reply, error) {
	v, ok := e.ks[string(key)]
	if !ok {
		return typeReply("none"), nil
	}
	return typeReply(v.typeName()), nil
}

func (e *Engine) bitCount(key []byte, hasRange bool, start, end int64) (Reply, error) {
	v, ok := e.ks[string(key)]
	if !ok {
		return sizeReply(0), nil
	}
	if v.kind == kindList {
		return Reply{}, wrongType()
	}
	b := v.bytes()
	if !hasRange {
		return sizeReply(popcount(b)), nil
	}
	lo, hi, ok2 := resolveRange(start, end, len(b))
	if !ok2 {
		return sizeReply(0), nil
	}
	return sizeReply(popcount(b[lo : hi+1])), nil
}

func popcount(b []byte) uint64 {
	var n uint64
	for _, c := range b {
		n += uint64(bits.OnesCount8(c))
	}
	return n
}

func (e *Engine) getRange(key []byte, start, end int64) (Reply, error) {
	v, ok := e.ks[string(key)]
	if !ok {
		return bulkReply(nil), nil
	}
	if v.kind == kindList {
		return Reply{}, wrongType()
	}
	b := v.bytes()
	lo, hi, ok2 := resolveRange(start, end, len(b))
	if !ok2 {
		return bulkReply([]byte{}), nil
	}
	return bulkReply(append([]byte(nil), b[lo:hi+1]...)), nil
}

func (e *Engine) push(key []byte, values [][]byte, front bool) (Reply, error) {
	sk := string(key)
	v, ok := e.ks[sk]
	if !ok {
		v = emptyListValue()
	} else if v.kind != kindList {
		return Reply{}, wrongType()
	}

	for _, val := range values {
		item := append([]byte(nil), val...)
		if front {
			v.list = append([][]byte{item}, v.list...)
		} else {
			v.list = append(v.list, item)
		}
	}
	e.ks[sk] = v
	return sizeReply(uint64(len(v.list))), nil
}

func (e *Engine) llen(key []byte) (Reply, error) {
	v, ok := e.ks[string(key)]
	if !ok {
		return sizeReply(0), nil
	}
	if v.kind != kindList {
		return Reply{}, wrongType()
	}
	return sizeReply(uint64(len(v.list))), nil
}

// resolveIndex turns a LINDEX/LSET-style signed index into a position
// from the head: non-negative indexes are used as-is, negative -n
// accesses position len-n.
func resolveIndex(index int64, l int) (int, bool) {
	var pos int
	if index >= 0 {
		pos = int(index)
	} else {
		pos = l + int(index)
	}
	if pos < 0 || pos >= l {
		return 0, false
	}
	return pos, true
}

func (e *Engine) lindex(key []byte, index int64) (Reply, error) {
	v, ok := e.ks[string(key)]
	if !ok {
		return nilReply(), nil
	}
	if v.kind != kindList {
		return Reply{}, wrongType()
	}
	pos, ok2 := resolveIndex(index, len(v.list))
	if !ok2 {
		return nilReply(), nil
	}
	return bulkReply(v.list[pos]), nil
}

func (e *Engine) lset(key []byte, index int64, val []byte) (Reply, error) {
	sk := string(key)
	v, ok := e.ks[sk]
	if !ok {
		return Reply{}, noSuchKey()
	}
	if v.kind != kindList {
		return Reply{}, wrongType()
	}
	pos, ok2 := resolveIndex(index, len(v.list))
	if !ok2 {
		return Reply{}, notAnInt()
	}
	v.list[pos] = append([]byte(nil), val...)
	return okReply(), nil
}

func (e *Engine) lpop(key []byte) (Reply, error) {
	sk := string(key)
	v, ok := e.ks[sk]
	if !ok {
		return nilReply(), nil
	}
	if v.kind != kindList {
		return Reply{}, wrongType()
	}
	if len(v.list) == 0 {
		return nilReply(), nil
	}
	head := v.list[0]
	v.list = v.list[1:]
	e.ks[sk] = v
	return bulkReply(head), nil
}

func (e *Engine) keys() (Reply, error) {
	items := make([]Reply, 0, len(e.ks))
	for k := range e.ks {
		items = append(items, bulkReply([]byte(k)))
	}
	return arrayReply(items), nil
}
