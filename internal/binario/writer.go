package binario

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Writer is a sequential little-endian byte-stream sink.
type Writer struct {
	w   io.Writer
	pos int64
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Pos returns the number of bytes written so far.
func (w *Writer) Pos() int64 {
	return w.pos
}

// WriteExact writes buf verbatim.
func (w *Writer) WriteExact(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	n, err := w.w.Write(buf)
	w.pos += int64(n)
	if err != nil {
		return fmt.Errorf("binario: write %d bytes: %w", len(buf), err)
	}
	return nil
}

// WriteU32 writes one little-endian uint32.
func (w *Writer) WriteU32(v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return w.WriteExact(buf[:])
}

// WriteU16 writes one little-endian uint16.
func (w *Writer) WriteU16(v uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	return w.WriteExact(buf[:])
}

// WriteU32Array writes vs as consecutive little-endian uint32 values.
func (w *Writer) WriteU32Array(vs []uint32) error {
	if len(vs) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(buf[4*i:4*i+4], v)
	}
	return w.WriteExact(buf)
}

// Tee copies exactly n bytes from r to w, byte for byte, without
// interpreting them.
func (w *Writer) Tee(r *Reader, n int64) error {
	if n <= 0 {
		return nil
	}
	written, err := io.CopyN(w.w, r.r, n)
	r.pos += written
	w.pos += written
	if err != nil {
		return fmt.Errorf("binario: tee %d bytes: %w", n, err)
	}
	return nil
}

// WriteCheckChunkType reads a chunk-type word from r, validates it the same
// way Reader.ReadChunkType does, and writes the same word to w.
func (w *Writer) WriteCheckChunkType(r *Reader, expected uint32, alsoAllowedNull bool) (uint32, error) {
	got, err := r.ReadChunkType(expected, alsoAllowedNull)
	if err != nil {
		return got, err
	}
	return got, w.WriteU32(got)
}
