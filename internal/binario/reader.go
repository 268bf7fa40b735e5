// Package binario is the byte-stream adapter the string pool codec reads
// and writes through. It knows nothing about chunk semantics beyond the
// chunk-type word itself; everything else is plain little-endian integers
// and byte runs.
package binario

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidChunkType is returned by ReadChunkType when the word read from
// the stream is neither the expected chunk type nor, if allowed, the null
// chunk type synonym.
var ErrInvalidChunkType = errors.New("binario: invalid chunk type")

// Reader is a sequential little-endian byte-stream reader positioned at a
// chunk boundary.
type Reader struct {
	r   io.Reader
	pos int64
}

// NewReader wraps r. r is assumed to already be positioned at the start of
// a chunk.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Pos returns the number of bytes consumed from the underlying stream so
// far.
func (r *Reader) Pos() int64 {
	return r.pos
}

// ReadExact fills buf completely or fails.
func (r *Reader) ReadExact(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	n, err := io.ReadFull(r.r, buf)
	r.pos += int64(n)
	if err != nil {
		return fmt.Errorf("binario: read exact %d bytes: %w", len(buf), err)
	}
	return nil
}

// ReadU32 reads one little-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	var buf [4]byte
	if err := r.ReadExact(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// ReadU16 reads one little-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	var buf [2]byte
	if err := r.ReadExact(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

// ReadU32Array reads n little-endian uint32 values.
func (r *Reader) ReadU32Array(n uint32) ([]uint32, error) {
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, 4*int(n))
	if err := r.ReadExact(buf); err != nil {
		return nil, fmt.Errorf("binario: read u32 array of %d: %w", n, err)
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(buf[4*i : 4*i+4])
	}
	return out, nil
}

// Skip discards n bytes from the stream.
func (r *Reader) Skip(n int64) error {
	if n <= 0 {
		return nil
	}
	written, err := io.CopyN(io.Discard, r.r, n)
	r.pos += written
	if err != nil {
		return fmt.Errorf("binario: skip %d bytes: %w", n, err)
	}
	return nil
}

// ReadChunkType reads a uint32 and validates it against expected, or
// against the null chunk type synonym (0x00000000) when alsoAllowedNull is
// set. It returns the word actually read alongside any validation error so
// callers can still branch on the null-chunk form.
func (r *Reader) ReadChunkType(expected uint32, alsoAllowedNull bool) (uint32, error) {
	got, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	if got == expected {
		return got, nil
	}
	if alsoAllowedNull && got == 0 {
		return got, nil
	}
	return got, fmt.Errorf("%w: got 0x%08x, want 0x%08x", ErrInvalidChunkType, got, expected)
}
