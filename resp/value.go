// Package resp implements the wire codecs: a streaming RESP decoder and
// encoder, and a secondary whitespace-delimited text tokenizer used for
// the alternative human-readable input dialect. Only this package and
// package command know anything about bytes on the wire; package engine
// never sees a raw buffer.
package resp

import "errors"

// Kind is the RESP type-marker byte, doubling as the tag of a decoded
// Value.
type Kind byte

const (
	KindSimpleString Kind = '+'
	KindError        Kind = '-'
	KindInteger      Kind = ':'
	KindBulkString   Kind = '$'
	KindArray        Kind = '*'
)

// Value is a single decoded RESP value. Only the fields matching Kind
// are meaningful; IsNull distinguishes the null bulk string ("$-1\r\n")
// and null array ("*-1\r\n") markers from their non-null zero-length
// counterparts.
type Value struct {
	Kind   Kind
	Str    []byte // SimpleString, Error payload
	Int    int64  // Integer payload
	Bulk   []byte // BulkString payload
	Array  []Value
	IsNull bool
}

// ErrIncomplete is returned by Decode when the supplied bytes do not
// yet contain a full message — the caller should read more from the
// connection and retry with the combined buffer, not treat this as a
// protocol violation. ReadRequest reports the same condition as
// complete == false with a nil error.
var ErrIncomplete = errors.New("resp: incomplete")

type protocolError struct{ msg string }

func (e *protocolError) Error() string { return "resp: " + e.msg }

func protoErr(msg string) error { return &protocolError{msg} }
