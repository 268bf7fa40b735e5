// Package stringpool is the in-memory model of a parsed Android string
// pool chunk: header flags, offset table, raw payload, and (for table-name
// pools) an opaque style trailer. A Pool is read-only once constructed.
package stringpool

import (
	"fmt"
	"log"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jessie345/arsc-strpool/lenprefix"
)

// UTF8Flag is the header flag bit (spec §6) that selects the UTF-8 entry
// layout; when clear, entries are UTF-16LE.
const UTF8Flag uint32 = 0x00000100

// decodeCacheSize bounds Pool.Get's decoded-string cache. A table-name
// pool in a large resources.arsc can carry tens of thousands of entries;
// tools that only touch a working subset (find-driven rename-plan
// construction, spot checks) shouldn't keep every decoded string live.
const decodeCacheSize = 4096

// Logger receives the warning Pool.Get logs when it cannot decode an
// entry. It defaults to stderr; callers may replace it.
var Logger = log.New(os.Stderr, "stringpool: ", 0)

// Pool is the parsed representation of a string-pool chunk (spec §3).
type Pool struct {
	isUTF8        bool
	flags         uint32
	stringOffsets []uint32
	payload       []byte
	styleOffsets  []uint32
	styles        []uint32

	cache *lru.Cache[int, string]
}

// New constructs a Pool, checking the invariants that must hold for any
// successfully parsed pool.
func New(flags uint32, stringOffsets []uint32, payload []byte, styleOffsets []uint32, styles []uint32) (*Pool, error) {
	if len(payload)%4 != 0 {
		return nil, fmt.Errorf("stringpool: payload length %d is not a multiple of 4", len(payload))
	}
	for i, off := range stringOffsets {
		if int(off) >= len(payload) {
			return nil, fmt.Errorf("stringpool: string_offsets[%d]=%d is out of bounds for payload of %d bytes", i, off, len(payload))
		}
	}
	if len(styleOffsets) == 0 && len(styles) != 0 {
		return nil, fmt.Errorf("stringpool: styles present (%d words) without style offsets", len(styles))
	}

	cache, err := lru.New[int, string](decodeCacheSize)
	if err != nil {
		return nil, fmt.Errorf("stringpool: allocate decode cache: %w", err)
	}

	return &Pool{
		isUTF8:        flags&UTF8Flag != 0,
		flags:         flags,
		stringOffsets: stringOffsets,
		payload:       payload,
		styleOffsets:  styleOffsets,
		styles:        styles,
		cache:         cache,
	}, nil
}

// IsUTF8 reports whether entries use the UTF-8 layout (header flag 0x100
// set) rather than UTF-16LE.
func (p *Pool) IsUTF8() bool {
	return p.isUTF8
}

// Flags returns the raw header flag word, unchanged from the input.
func (p *Pool) Flags() uint32 {
	return p.flags
}

// Count returns the number of entries in the pool.
func (p *Pool) Count() int {
	return len(p.stringOffsets)
}

// RawOffset returns string_offsets[i], the byte offset of entry i's
// length prefix relative to the start of the payload.
func (p *Pool) RawOffset(i int) (uint32, bool) {
	if i < 0 || i >= len(p.stringOffsets) {
		return 0, false
	}
	return p.stringOffsets[i], true
}

// Payload returns the raw, concatenated entry bytes. Callers must not
// mutate the returned slice.
func (p *Pool) Payload() []byte {
	return p.payload
}

// StringOffsets returns the offset table. Callers must not mutate the
// returned slice.
func (p *Pool) StringOffsets() []uint32 {
	return p.stringOffsets
}

// StyleOffsets returns the style offset table, or nil if the pool carries
// no styles.
func (p *Pool) StyleOffsets() []uint32 {
	return p.styleOffsets
}

// Styles returns the opaque style span words, or nil if the pool carries
// no styles. They are never interpreted by this package.
func (p *Pool) Styles() []uint32 {
	return p.styles
}

// HasStyles reports whether the pool carries a style trailer.
func (p *Pool) HasStyles() bool {
	return len(p.styleOffsets) != 0
}

func (p *Pool) encoding() lenprefix.Encoding {
	if p.isUTF8 {
		return lenprefix.UTF8
	}
	return lenprefix.UTF16LE
}

// Get decodes and returns the string at index i. It returns ("", false)
// both when i is out of range and when the entry is malformed; in the
// latter case it logs a warning via Logger rather than failing outright,
// so a caller doing an exploratory read can survive one corrupt entry.
func (p *Pool) Get(i int) (string, bool) {
	if i < 0 || i >= len(p.stringOffsets) {
		return "", false
	}
	if s, ok := p.cache.Get(i); ok {
		return s, true
	}

	enc := p.encoding()
	start := int(p.stringOffsets[i])
	off, n, err := lenprefix.DecodeEntry(enc, p.payload, start)
	if err != nil {
		Logger.Printf("malformed entry %d: %v", i, err)
		return "", false
	}
	s, err := lenprefix.DecodeString(enc, p.payload[off:off+n])
	if err != nil {
		Logger.Printf("malformed entry %d: %v", i, err)
		return "", false
	}

	p.cache.Add(i, s)
	return s, true
}

// Find returns the index of the first entry whose decoded value equals s,
// comparing UTF-16 code unit by code unit against each entry's declared
// char length, exactly as the original reader does.
//
// This only works for UTF-16LE pools. The original implementation this
// codec is ported from never had a UTF-8 search path; Find preserves that
// limitation and returns (0, false) unconditionally for a UTF-8 pool
// rather than silently giving an answer the original never computed.
func (p *Pool) Find(s string) (int, bool) {
	if p.isUTF8 {
		return 0, false
	}

	target := make([]uint16, 0, len(s))
	for _, r := range []rune(s) {
		if r > 0xFFFF {
			return 0, false
		}
		target = append(target, uint16(r))
	}

	for i, start := range p.stringOffsets {
		off, n, err := lenprefix.DecodeEntry(lenprefix.UTF16LE, p.payload, int(start))
		if err != nil {
			continue
		}
		units, err := lenprefix.CodeUnits(p.payload[off : off+n])
		if err != nil {
			continue
		}
		if equalUint16(units, target) {
			return i, true
		}
	}
	return 0, false
}

func equalUint16(a, b []uint16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
