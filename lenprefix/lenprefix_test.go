package lenprefix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeEntryUTF8Roundtrip(t *testing.T) {
	entry, err := EncodeEntry(UTF8, "ok")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x02, 'o', 'k', 0x00}, entry)

	off, n, err := DecodeEntry(UTF8, entry, 0)
	require.NoError(t, err)
	s, err := DecodeString(UTF8, entry[off:off+n])
	require.NoError(t, err)
	assert.Equal(t, "ok", s)
}

func TestEncodeDecodeEntryUTF16LERoundtrip(t *testing.T) {
	entry, err := EncodeEntry(UTF16LE, "a")
	require.NoError(t, err)
	off, n, err := DecodeEntry(UTF16LE, entry, 0)
	require.NoError(t, err)
	s, err := DecodeString(UTF16LE, entry[off:off+n])
	require.NoError(t, err)
	assert.Equal(t, "a", s)
}

func TestEncodeEntryRejectsNonASCIIUTF8(t *testing.T) {
	_, err := EncodeEntry(UTF8, "café")
	require.ErrorIs(t, err, ErrEncodingLengthMismatch)
}

func TestEncodeEntryRejectsTooLongShortPrefix(t *testing.T) {
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}
	_, err := EncodeEntry(UTF8, string(long))
	require.ErrorIs(t, err, ErrNameTooLongForShortPrefix)
}

func TestEncodeEntryRejectsNonBMPUTF16LE(t *testing.T) {
	_, err := EncodeEntry(UTF16LE, "\U0001F600")
	require.ErrorIs(t, err, ErrEncodingLengthMismatch)
}

func TestDecodeEntryLongFormUTF8(t *testing.T) {
	// 200 'a' chars: char_len and byte_len both need the two-byte escape.
	payload := make([]byte, 0, 204)
	payload = append(payload, 0x80|0x00, 0xC8) // 0x00C8 = 200
	payload = append(payload, 0x80|0x00, 0xC8)
	for i := 0; i < 200; i++ {
		payload = append(payload, 'a')
	}
	payload = append(payload, 0x00)

	off, n, err := DecodeEntry(UTF8, payload, 0)
	require.NoError(t, err)
	assert.Equal(t, 200, n)
	s, err := DecodeString(UTF8, payload[off:off+n])
	require.NoError(t, err)
	assert.Len(t, s, 200)
}

func TestCodeUnitsRejectsOddLength(t *testing.T) {
	_, err := CodeUnits([]byte{0x01})
	require.Error(t, err)
}
