// Package byteio implements the platform's custom big-endian, length-
// prefixed wire primitives, generalizing the per-field encode/decode
// organization the teacher uses for its protobuf-framed messages to a
// from-scratch framing with no protobuf dependency.
package byteio

import "encoding/binary"

// Writer accumulates an encoded message into a growing byte slice.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with an empty backing buffer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the bytes written so far.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// PutUint8 appends a single byte.
func (w *Writer) PutUint8(v uint8) {
	w.buf = append(w.buf, v)
}

// PutUint16 appends a big-endian uint16.
func (w *Writer) PutUint16(v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// PutUint32 appends a big-endian uint32.
func (w *Writer) PutUint32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// PutUint64 appends a big-endian uint64.
func (w *Writer) PutUint64(v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// PutAddress appends n raw bytes verbatim (used for 20-byte addresses and
// any other fixed-width raw field).
func (w *Writer) PutAddress(b []byte) {
	w.buf = append(w.buf, b...)
}

// PutString appends a 1-byte length prefix followed by the UTF-8 bytes of
// s. Panics if s is longer than 255 bytes; callers are expected to have
// validated string length ahead of encoding.
func (w *Writer) PutString(s string) {
	if len(s) > 0xff {
		panic("byteio: string exceeds 1-byte length prefix")
	}
	w.buf = append(w.buf, byte(len(s)))
	w.buf = append(w.buf, s...)
}

// PutBytes appends a 2-byte length prefix followed by b.
func (w *Writer) PutBytes(b []byte) {
	if len(b) > 0xffff {
		panic("byteio: blob exceeds 2-byte length prefix")
	}
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], uint16(len(b)))
	w.buf = append(w.buf, tmp[:]...)
	w.buf = append(w.buf, b...)
}

// PutRaw appends b with no length prefix, for callers that have already
// framed the blob themselves (e.g. a section payload of known size).
func (w *Writer) PutRaw(b []byte) {
	w.buf = append(w.buf, b...)
}
