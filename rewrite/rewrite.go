// Package rewrite is the top-level engine: it turns a positioned
// reader/writer pair into either a parsed Pool, an unmodified copy, or a
// rewritten chunk whose strings have been replaced according to a
// caller-supplied rename plan.
package rewrite

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/jessie345/arsc-strpool/internal/binario"
	"github.com/jessie345/arsc-strpool/lenprefix"
	"github.com/jessie345/arsc-strpool/stringpool"
)

// Chunk type constants. CHUNK_NULL_TYPE is accepted by Read and WriteAll
// as a synonym for CHUNK_STRINGPOOL_TYPE, for compatibility with certain
// malformed inputs seen in the wild; the rewrite paths do not accept it —
// a rewrite input claiming to be the null chunk has nothing meaningful to
// rewrite.
const (
	ChunkStringPoolType uint32 = 0x001C0001
	ChunkNullType       uint32 = 0x00000000
)

// headerSize is 7 little-endian uint32 fields: chunk type, chunk size,
// string count, style count, flags, strings offset, styles offset.
const headerSize = 28

var (
	// ErrUnalignedPayload is returned when a chunk's string payload size is
	// not a multiple of 4.
	ErrUnalignedPayload = errors.New("rewrite: string payload size is not a multiple of 4")
	// ErrUnalignedStyles is returned when a chunk's style trailer size is
	// not a multiple of 4.
	ErrUnalignedStyles = errors.New("rewrite: style data size is not a multiple of 4")
	// ErrUnexpectedStyles is returned by RewriteSpecNames when the input
	// pool carries styles; spec-name pools never do by convention.
	ErrUnexpectedStyles = errors.New("rewrite: spec-name rewrite input pool has styles")
)

// Logger receives the diagnostic RewriteTableNames logs once it has
// determined the pool's encoding, mirroring the original implementation's
// one-line announcement when it opens the large value pool of a resource
// table (it does not log this for a spec-name pool).
var Logger = log.New(os.Stderr, "rewrite: ", 0)

type header struct {
	chunkSize     uint32
	stringCount   uint32
	styleCount    uint32
	flags         uint32
	stringsOffset uint32
	stylesOffset  uint32
}

func readHeader(r *binario.Reader, alsoAllowedNull bool) (header, error) {
	if _, err := r.ReadChunkType(ChunkStringPoolType, alsoAllowedNull); err != nil {
		return header{}, err
	}
	var h header
	var err error
	if h.chunkSize, err = r.ReadU32(); err != nil {
		return header{}, err
	}
	if h.stringCount, err = r.ReadU32(); err != nil {
		return header{}, err
	}
	if h.styleCount, err = r.ReadU32(); err != nil {
		return header{}, err
	}
	if h.flags, err = r.ReadU32(); err != nil {
		return header{}, err
	}
	if h.stringsOffset, err = r.ReadU32(); err != nil {
		return header{}, err
	}
	if h.stylesOffset, err = r.ReadU32(); err != nil {
		return header{}, err
	}
	return h, nil
}

func encodingFor(flags uint32) lenprefix.Encoding {
	if flags&stringpool.UTF8Flag != 0 {
		return lenprefix.UTF8
	}
	return lenprefix.UTF16LE
}

// payloadSize computes the declared string-payload size from a header,
// the way every read path in this package does: up to stylesOffset if
// styles are present, otherwise up to chunkSize.
func (h header) payloadSize() int64 {
	end := int64(h.chunkSize)
	if h.stylesOffset != 0 {
		end = int64(h.stylesOffset)
	}
	return end - int64(h.stringsOffset)
}

// Read parses a whole string-pool chunk into a Pool. r must be
// positioned at the chunk-type word.
func Read(r *binario.Reader) (*stringpool.Pool, error) {
	h, err := readHeader(r, true)
	if err != nil {
		return nil, err
	}

	stringOffsets, err := r.ReadU32Array(h.stringCount)
	if err != nil {
		return nil, err
	}

	var styleOffsets []uint32
	if h.styleCount != 0 {
		if styleOffsets, err = r.ReadU32Array(h.styleCount); err != nil {
			return nil, err
		}
	}

	pSize := h.payloadSize()
	if pSize%4 != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrUnalignedPayload, pSize)
	}
	payload := make([]byte, pSize)
	if err := r.ReadExact(payload); err != nil {
		return nil, err
	}

	var styles []uint32
	if h.stylesOffset != 0 {
		stylesSize := int64(h.chunkSize) - int64(h.stylesOffset)
		if stylesSize%4 != 0 {
			return nil, fmt.Errorf("%w: got %d", ErrUnalignedStyles, stylesSize)
		}
		if styles, err = r.ReadU32Array(uint32(stylesSize / 4)); err != nil {
			return nil, err
		}
	}

	return stringpool.New(h.flags, stringOffsets, payload, styleOffsets, styles)
}

// WriteAll copies an unmodified string-pool chunk from r to w verbatim.
// It validates the chunk type but never decodes the body.
func WriteAll(r *binario.Reader, w *binario.Writer) error {
	if _, err := w.WriteCheckChunkType(r, ChunkStringPoolType, true); err != nil {
		return err
	}
	chunkSize, err := r.ReadU32()
	if err != nil {
		return err
	}
	if err := w.WriteU32(chunkSize); err != nil {
		return err
	}
	return w.Tee(r, int64(chunkSize)-8)
}

// RewriteSpecNames replaces the entire string table with newNames, in
// order, and forbids styles on the input. It returns the number of bytes
// the enclosing chunk shrank or grew by (remaining = originalSize -
// newSize, to be subtracted from the enclosing chunk's own size field), the
// chunk's total size before and after the rewrite, and the index each
// name was assigned, in newNames' iteration order.
func RewriteSpecNames(r *binario.Reader, w *binario.Writer, newNames []string) (remaining int32, assignedIndex map[string]int, originalSize, newSize uint32, err error) {
	h, err := readHeader(r, false)
	if err != nil {
		return 0, nil, 0, 0, err
	}
	if h.styleCount != 0 {
		return 0, nil, 0, 0, ErrUnexpectedStyles
	}

	// Original offset table and payload are parsed structurally (to stay
	// positioned correctly) but not retained.
	if err := r.Skip(4 * int64(h.stringCount)); err != nil {
		return 0, nil, 0, 0, err
	}
	pSize := h.payloadSize()
	if pSize%4 != 0 {
		return 0, nil, 0, 0, fmt.Errorf("%w: got %d", ErrUnalignedPayload, pSize)
	}
	if err := r.Skip(pSize); err != nil {
		return 0, nil, 0, 0, err
	}

	enc := encodingFor(h.flags)
	stringCountOut := uint32(len(newNames))
	stringsOffsetOut := uint32(headerSize) + 4*stringCountOut

	offsets := make([]uint32, stringCountOut)
	assignedIndex = make(map[string]int, len(newNames))
	var payload []byte
	for i, name := range newNames {
		entry, err := lenprefix.EncodeEntry(enc, name)
		if err != nil {
			return 0, nil, 0, 0, err
		}
		offsets[i] = uint32(len(payload))
		payload = append(payload, entry...)
		assignedIndex[name] = i
	}
	for len(payload)%4 != 0 {
		payload = append(payload, 0)
	}

	totalSize := stringsOffsetOut + uint32(len(payload))

	if err := writeHeader(w, totalSize, stringCountOut, 0, h.flags, stringsOffsetOut, 0); err != nil {
		return 0, nil, 0, 0, err
	}
	if err := w.WriteU32Array(offsets); err != nil {
		return 0, nil, 0, 0, err
	}
	if err := w.WriteExact(payload); err != nil {
		return 0, nil, 0, 0, err
	}

	return int32(h.chunkSize) - int32(totalSize), assignedIndex, h.chunkSize, totalSize, nil
}

// RewriteTableNames substitutes strings at the indices named in rename,
// copying every other entry's bytes verbatim and preserving any style
// trailer unchanged. It returns originalSize - newSize as RewriteSpecNames
// does, plus the chunk's total size before and after the rewrite.
func RewriteTableNames(r *binario.Reader, w *binario.Writer, rename map[int]string) (remaining int32, originalSize, newSize uint32, err error) {
	h, err := readHeader(r, false)
	if err != nil {
		return 0, 0, 0, err
	}

	if h.isUTF8() {
		Logger.Println("resources.arsc character encoding: utf-8")
	} else {
		Logger.Println("resources.arsc character encoding: utf-16")
	}

	originalOffsets, err := r.ReadU32Array(h.stringCount)
	if err != nil {
		return 0, 0, 0, err
	}
	var originalStyleOffsets []uint32
	if h.styleCount != 0 {
		if originalStyleOffsets, err = r.ReadU32Array(h.styleCount); err != nil {
			return 0, 0, 0, err
		}
	}

	pSize := h.payloadSize()
	if pSize%4 != 0 {
		return 0, 0, 0, fmt.Errorf("%w: got %d", ErrUnalignedPayload, pSize)
	}
	originalPayload := make([]byte, pSize)
	if err := r.ReadExact(originalPayload); err != nil {
		return 0, 0, 0, err
	}

	var styles []uint32
	if h.stylesOffset != 0 {
		stylesSize := int64(h.chunkSize) - int64(h.stylesOffset)
		if stylesSize%4 != 0 {
			return 0, 0, 0, fmt.Errorf("%w: got %d", ErrUnalignedStyles, stylesSize)
		}
		if styles, err = r.ReadU32Array(uint32(stylesSize / 4)); err != nil {
			return 0, 0, 0, err
		}
	}

	enc := encodingFor(h.flags)
	stringsOffsetOut := uint32(headerSize) + 4*h.stringCount + 4*h.styleCount

	newOffsets := make([]uint32, h.stringCount)
	var payload []byte
	for i := uint32(0); i < h.stringCount; i++ {
		newOffsets[i] = uint32(len(payload))
		if name, ok := rename[int(i)]; ok {
			entry, err := lenprefix.EncodeEntry(enc, name)
			if err != nil {
				return 0, 0, 0, err
			}
			payload = append(payload, entry...)
			continue
		}

		start := originalOffsets[i]
		var end uint32
		if i == h.stringCount-1 {
			end = uint32(len(originalPayload))
		} else {
			end = originalOffsets[i+1]
		}
		payload = append(payload, originalPayload[start:end]...)
	}
	for len(payload)%4 != 0 {
		payload = append(payload, 0)
	}

	var stylesOffsetOut uint32
	if h.stylesOffset != 0 {
		stylesOffsetOut = stringsOffsetOut + uint32(len(payload))
	}

	totalSize := stringsOffsetOut + uint32(len(payload)) + 4*uint32(len(styles))

	if err := writeHeader(w, totalSize, h.stringCount, h.styleCount, h.flags, stringsOffsetOut, stylesOffsetOut); err != nil {
		return 0, 0, 0, err
	}
	if err := w.WriteU32Array(newOffsets); err != nil {
		return 0, 0, 0, err
	}
	if h.styleCount != 0 {
		if err := w.WriteU32Array(originalStyleOffsets); err != nil {
			return 0, 0, 0, err
		}
	}
	if err := w.WriteExact(payload); err != nil {
		return 0, 0, 0, err
	}
	if h.stylesOffset != 0 {
		if err := w.WriteU32Array(styles); err != nil {
			return 0, 0, 0, err
		}
	}

	return int32(h.chunkSize) - int32(totalSize), h.chunkSize, totalSize, nil
}

func (h header) isUTF8() bool {
	return h.flags&stringpool.UTF8Flag != 0
}

func writeHeader(w *binario.Writer, chunkSize, stringCount, styleCount, flags, stringsOffset, stylesOffset uint32) error {
	for _, v := range []uint32{ChunkStringPoolType, chunkSize, stringCount, styleCount, flags, stringsOffset, stylesOffset} {
		if err := w.WriteU32(v); err != nil {
			return err
		}
	}
	return nil
}
