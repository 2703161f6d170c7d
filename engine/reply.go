package engine

// ReplyKind tags the shape of a Reply so the wire encoder can dispatch
// without inspecting every field.
type ReplyKind int

const (
	ReplyOk ReplyKind = iota
	ReplyNil
	ReplyInteger
	ReplySize
	ReplyBulkString
	ReplyType
	ReplyArray
)

// Reply is the tagged result of a successful command application. The
// encoder in package resp turns one of these into RESP bytes; only the
// field matching Kind is meaningful.
type Reply struct {
	Kind     ReplyKind
	Integer  int64
	Size     uint64
	Bulk     []byte
	TypeName string
	Array    []Reply
}

func okReply() Reply                { return Reply{Kind: ReplyOk} }
func nilReply() Reply                { return Reply{Kind: ReplyNil} }
func integerReply(n int64) Reply     { return Reply{Kind: ReplyInteger, Integer: n} }
func sizeReply(n uint64) Reply       { return Reply{Kind: ReplySize, Size: n} }
func bulkReply(b []byte) Reply       { return Reply{Kind: ReplyBulkString, Bulk: b} }
func typeReply(name string) Reply    { return Reply{Kind: ReplyType, TypeName: name} }
func arrayReply(items []Reply) Reply { return Reply{Kind: ReplyArray, Array: items} }
