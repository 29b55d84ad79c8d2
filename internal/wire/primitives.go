package wire

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/sony-level/chatserver-lab/internal/ids"
	"lukechampine.com/uint128"
)

const uuidLen = 16

// WriteClientId encodes a ClientId as length-16 followed by its 16 raw
// UUID-order bytes.
func WriteClientId(w io.Writer, c ids.ClientId) error {
	return writeUUIDBytes(w, c.Bytes())
}

// WriteServerId encodes a ServerId the same way as a ClientId.
func WriteServerId(w io.Writer, s ids.ServerId) error {
	return writeUUIDBytes(w, s.Bytes())
}

func writeUUIDBytes(w io.Writer, b [16]byte) error {
	if _, err := w.Write([]byte{uuidLen}); err != nil {
		return err
	}
	_, err := w.Write(b[:])
	return err
}

// ReadClientId decodes a ClientId, rejecting any length byte other than 16.
func ReadClientId(r ByteReader) (ids.ClientId, error) {
	b, err := readUUIDBytes(r)
	if err != nil {
		return ids.ClientId{}, err
	}
	return ids.ClientIdFromBytes(b), nil
}

// ReadServerId decodes a ServerId, rejecting any length byte other than 16.
func ReadServerId(r ByteReader) (ids.ServerId, error) {
	b, err := readUUIDBytes(r)
	if err != nil {
		return ids.ServerId{}, err
	}
	return ids.ServerIdFromBytes(b), nil
}

func readUUIDBytes(r ByteReader) ([16]byte, error) {
	var b [16]byte
	l, err := r.ReadByte()
	if err != nil {
		return b, fmt.Errorf("read uuid length: %w", err)
	}
	if l != uuidLen {
		return b, fmt.Errorf("invalid uuid length %d", l)
	}
	for i := range b {
		v, err := r.ReadByte()
		if err != nil {
			return b, fmt.Errorf("read uuid byte %d: %w", i, io.ErrUnexpectedEOF)
		}
		b[i] = v
	}
	return b, nil
}

// WriteString encodes a string as a variable-width byte length followed by
// its UTF-8 bytes. Length is a byte count, not a rune count.
func WriteString(w io.Writer, s string) error {
	if err := WriteU128(w, uint128.From64(uint64(len(s)))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// ReadString decodes a length-prefixed UTF-8 string.
func ReadString(r ByteReader) (string, error) {
	l, err := ReadU128(r)
	if err != nil {
		return "", fmt.Errorf("read string length: %w", err)
	}
	if l.Hi != 0 || l.Lo > maxStringLen {
		return "", fmt.Errorf("string length overflow")
	}
	n := int(l.Lo)
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return "", io.ErrUnexpectedEOF
		}
		buf[i] = b
	}
	if !utf8Valid(buf) {
		return "", fmt.Errorf("invalid utf-8 in string")
	}
	return string(buf), nil
}

// maxStringLen caps decoded string length well above any legitimate chat
// payload to bound allocation from a malformed or adversarial frame.
const maxStringLen = 1 << 20

// WriteRawBytes writes all of b with no length prefix (used for the
// fixed-size nonce/response fields in AuthMessage).
func WriteRawBytes(w io.Writer, b []byte) error {
	_, err := w.Write(b)
	return err
}

// ReadRawBytes reads exactly n raw bytes with no length prefix.
func ReadRawBytes(r ByteReader, n int) ([]byte, error) {
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return nil, io.ErrUnexpectedEOF
		}
		buf[i] = b
	}
	return buf, nil
}

func utf8Valid(b []byte) bool { return utf8.Valid(b) }
