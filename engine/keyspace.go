package engine

// keyspace is the mapping from binary keys to values. Keys compare
// bytewise; no ordering is exposed to clients. It is an unexported,
// unsynchronized map — Engine is the only thing that ever touches it,
// and Engine serializes access with its own mutex.
type keyspace map[string]value

func newKeyspace() keyspace {
	return make(keyspace)
}
