package wire

import "io"

// ByteReader is the minimal interface decoders need: a single-byte reader.
// *bufio.Reader satisfies it directly; Reader(b) wraps a raw []byte.
type ByteReader interface {
	io.ByteReader
}
