package asyncnet

import "sync"

// headerPool recycles receive header buffers. Every receive operation borrows
// one and hands it back as soon as the header has been decoded.
var headerPool = sync.Pool{
	New: func() any {
		b := make([]byte, HeaderSize)
		return &b
	},
}

// getHeaderBuffer returns a zeroed HeaderSize buffer.
func getHeaderBuffer() *[]byte {
	b, ok := headerPool.Get().(*[]byte)
	if !ok || len(*b) != HeaderSize {
		fresh := make([]byte, HeaderSize)
		return &fresh
	}

	clear(*b)

	return b
}

// putHeaderBuffer returns a header buffer to the pool.
func putHeaderBuffer(b *[]byte) {
	if b == nil || len(*b) != HeaderSize {
		return // Don't pool incorrectly sized buffers.
	}
	headerPool.Put(b)
}
