package rewrite

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jessie345/arsc-strpool/internal/binario"
	"github.com/jessie345/arsc-strpool/lenprefix"
	"github.com/jessie345/arsc-strpool/stringpool"
)

// buildChunk assembles raw string-pool chunk bytes for test fixtures.
func buildChunk(t *testing.T, flags uint32, entries []string, styleOffsets, styles []uint32) []byte {
	t.Helper()

	enc := lenprefix.UTF16LE
	if flags&stringpool.UTF8Flag != 0 {
		enc = lenprefix.UTF8
	}

	var payload []byte
	offsets := make([]uint32, 0, len(entries))
	for _, e := range entries {
		b, err := lenprefix.EncodeEntry(enc, e)
		require.NoError(t, err)
		offsets = append(offsets, uint32(len(payload)))
		payload = append(payload, b...)
	}
	for len(payload)%4 != 0 {
		payload = append(payload, 0)
	}

	stringCount := uint32(len(entries))
	styleCount := uint32(len(styleOffsets))
	stringsOffset := uint32(headerSize) + 4*stringCount + 4*styleCount
	var stylesOffset uint32
	chunkSize := stringsOffset + uint32(len(payload))
	if styleCount > 0 {
		stylesOffset = stringsOffset + uint32(len(payload))
		chunkSize = stylesOffset + 4*uint32(len(styles))
	}

	var buf bytes.Buffer
	w := binario.NewWriter(&buf)
	require.NoError(t, writeHeader(w, chunkSize, stringCount, styleCount, flags, stringsOffset, stylesOffset))
	require.NoError(t, w.WriteU32Array(offsets))
	if styleCount > 0 {
		require.NoError(t, w.WriteU32Array(styleOffsets))
	}
	require.NoError(t, w.WriteExact(payload))
	if styleCount > 0 {
		require.NoError(t, w.WriteU32Array(styles))
	}
	return buf.Bytes()
}

func TestReadEmptyPoolUTF8NoStyles(t *testing.T) {
	raw := buildChunk(t, stringpool.UTF8Flag, nil, nil, nil)
	assert.Equal(t, 28, len(raw))

	pool, err := Read(binario.NewReader(bytes.NewReader(raw)))
	require.NoError(t, err)
	assert.Equal(t, 0, pool.Count())
}

func TestReadSingleUTF8Entry(t *testing.T) {
	raw := buildChunk(t, stringpool.UTF8Flag, []string{"ok"}, nil, nil)
	pool, err := Read(binario.NewReader(bytes.NewReader(raw)))
	require.NoError(t, err)
	s, ok := pool.Get(0)
	require.True(t, ok)
	assert.Equal(t, "ok", s)
}

func TestWriteAllPassThroughIdentity(t *testing.T) {
	raw := buildChunk(t, 0, []string{"foo", "bar"}, nil, nil)
	var out bytes.Buffer
	err := WriteAll(binario.NewReader(bytes.NewReader(raw)), binario.NewWriter(&out))
	require.NoError(t, err)
	assert.Equal(t, raw, out.Bytes())
}

func TestRewriteSpecNamesUTF16LE(t *testing.T) {
	raw := buildChunk(t, 0, []string{"app"}, nil, nil)
	var out bytes.Buffer
	remaining, assigned, originalSize, newSize, err := RewriteSpecNames(binario.NewReader(bytes.NewReader(raw)), binario.NewWriter(&out), []string{"a", "bb"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 0, "bb": 1}, assigned)

	pool, err := Read(binario.NewReader(bytes.NewReader(out.Bytes())))
	require.NoError(t, err)
	require.Equal(t, 2, pool.Count())
	for name, idx := range assigned {
		s, ok := pool.Get(idx)
		require.True(t, ok)
		assert.Equal(t, name, s)
	}
	assert.Equal(t, int32(len(raw))-int32(out.Len()), remaining)
	assert.Equal(t, uint32(len(raw)), originalSize)
	assert.Equal(t, uint32(out.Len()), newSize)
}

func TestRewriteSpecNamesRejectsStyledInput(t *testing.T) {
	raw := buildChunk(t, 0, []string{"app"}, []uint32{0}, []uint32{0})
	var out bytes.Buffer
	_, _, _, _, err := RewriteSpecNames(binario.NewReader(bytes.NewReader(raw)), binario.NewWriter(&out), []string{"x"})
	require.ErrorIs(t, err, ErrUnexpectedStyles)
}

func TestRewriteSpecNamesRejectsTooLongName(t *testing.T) {
	raw := buildChunk(t, 0, nil, nil, nil)
	var out bytes.Buffer
	long := make([]rune, 0x8000)
	for i := range long {
		long[i] = 'a'
	}
	_, _, _, _, err := RewriteSpecNames(binario.NewReader(bytes.NewReader(raw)), binario.NewWriter(&out), []string{string(long)})
	require.ErrorIs(t, err, lenprefix.ErrNameTooLongForShortPrefix)
}

func TestRewriteTableNamesPreservingStyles(t *testing.T) {
	raw := buildChunk(t, 0, []string{"foo", "bar", "baz"}, []uint32{0}, []uint32{0xAABBCCDD})
	var out bytes.Buffer
	remaining, originalSize, newSize, err := RewriteTableNames(binario.NewReader(bytes.NewReader(raw)), binario.NewWriter(&out), map[int]string{1: "BAR"})
	require.NoError(t, err)

	pool, err := Read(binario.NewReader(bytes.NewReader(out.Bytes())))
	require.NoError(t, err)
	require.Equal(t, 3, pool.Count())

	s0, _ := pool.Get(0)
	s1, _ := pool.Get(1)
	s2, _ := pool.Get(2)
	assert.Equal(t, "foo", s0)
	assert.Equal(t, "BAR", s1)
	assert.Equal(t, "baz", s2)

	assert.Equal(t, []uint32{0}, pool.StyleOffsets())
	assert.Equal(t, []uint32{0xAABBCCDD}, pool.Styles())
	assert.Equal(t, int32(len(raw))-int32(out.Len()), remaining)
	assert.Equal(t, uint32(len(raw)), originalSize)
	assert.Equal(t, uint32(out.Len()), newSize)
}

func TestRewriteTableNamesEmptyRenameRoundTrip(t *testing.T) {
	raw := buildChunk(t, 0, []string{"foo", "bar", "baz"}, nil, nil)
	var out bytes.Buffer
	_, _, _, err := RewriteTableNames(binario.NewReader(bytes.NewReader(raw)), binario.NewWriter(&out), map[int]string{})
	require.NoError(t, err)

	original, err := Read(binario.NewReader(bytes.NewReader(raw)))
	require.NoError(t, err)
	rewritten, err := Read(binario.NewReader(bytes.NewReader(out.Bytes())))
	require.NoError(t, err)

	require.Equal(t, original.Count(), rewritten.Count())
	for i := 0; i < original.Count(); i++ {
		a, _ := original.Get(i)
		b, _ := rewritten.Get(i)
		assert.Equal(t, a, b)
	}

	offsets := rewritten.StringOffsets()
	for i := 1; i < len(offsets); i++ {
		assert.Less(t, offsets[i-1], offsets[i])
	}
}

func TestReadMalformedChunkType(t *testing.T) {
	raw := []byte{0xEF, 0xBE, 0xAD, 0xDE}
	_, err := Read(binario.NewReader(bytes.NewReader(raw)))
	require.ErrorIs(t, err, binario.ErrInvalidChunkType)
}

func TestRewriteTableNamesAlignment(t *testing.T) {
	raw := buildChunk(t, stringpool.UTF8Flag, []string{"x"}, nil, nil)
	var out bytes.Buffer
	_, _, _, err := RewriteTableNames(binario.NewReader(bytes.NewReader(raw)), binario.NewWriter(&out), map[int]string{0: "longer"})
	require.NoError(t, err)

	pool, err := Read(binario.NewReader(bytes.NewReader(out.Bytes())))
	require.NoError(t, err)
	assert.Equal(t, 0, len(pool.Payload())%4)
}
