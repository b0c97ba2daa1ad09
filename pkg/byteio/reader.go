package byteio

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/opensvm/svm/pkg/errs"
)

// Reader consumes an encoded message from a byte slice, tracking a read
// offset and surfacing a ParseError tagged with the field name on any
// short read or malformed string.
type Reader struct {
	buf []byte
	off int
}

// NewReader wraps b for sequential field-by-field decoding.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

func (r *Reader) take(n int, field string) ([]byte, error) {
	if r.Remaining() < n {
		return nil, errs.NotEnoughBytes(field)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// GetUint8 reads a single byte.
func (r *Reader) GetUint8(field string) (uint8, error) {
	b, err := r.take(1, field)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// GetUint16 reads a big-endian uint16.
func (r *Reader) GetUint16(field string) (uint16, error) {
	b, err := r.take(2, field)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// GetUint32 reads a big-endian uint32.
func (r *Reader) GetUint32(field string) (uint32, error) {
	b, err := r.take(4, field)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// GetUint64 reads a big-endian uint64.
func (r *Reader) GetUint64(field string) (uint64, error) {
	b, err := r.take(8, field)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// GetAddress reads n raw bytes verbatim.
func (r *Reader) GetAddress(n int, field string) ([]byte, error) {
	b, err := r.take(n, field)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// GetString reads a 1-byte length prefix followed by that many UTF-8 bytes.
func (r *Reader) GetString(field string) (string, error) {
	n, err := r.GetUint8(field)
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n), field)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errs.InvalidUTF8String(field)
	}
	return string(b), nil
}

// GetBytes reads a 2-byte length prefix followed by that many raw bytes.
func (r *Reader) GetBytes(field string) ([]byte, error) {
	n, err := r.GetUint16(field)
	if err != nil {
		return nil, err
	}
	b, err := r.take(int(n), field)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// GetRaw reads n raw bytes with no length prefix.
func (r *Reader) GetRaw(n int, field string) ([]byte, error) {
	b, err := r.take(n, field)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}
