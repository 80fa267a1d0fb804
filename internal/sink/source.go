package sink

// Source is caller-owned memory the sink copies from.
type Source interface {
	// Len is the number of bytes the caller asks to write.
	Len() int
	// CopyOut fills dst from the start of the source.  dst is never
	// longer than Len.  A non-nil error means the source could not be
	// read and nothing should be accounted.
	CopyOut(dst []byte) error
}

// Bytes is an in-memory Source.  It never faults.
type Bytes []byte

// Len implements Source.
func (b Bytes) Len() int { return len(b) }

// CopyOut implements Source.
func (b Bytes) CopyOut(dst []byte) error {
	copy(dst, b)
	return nil
}
