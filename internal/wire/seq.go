package wire

// SeqBefore reports whether sequence number a precedes b. Sequence numbers
// wrap at 2^32; a precedes b when b is less than 2^31 steps ahead of it.
func SeqBefore(a, b uint32) bool {
	return int32(a-b) < 0
}

// SeqAfter reports whether a follows b.
func SeqAfter(a, b uint32) bool {
	return SeqBefore(b, a)
}
