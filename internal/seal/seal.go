// Package seal provides tamper-evidence for a rewrite manifest: the
// record a build pipeline keeps of which chunks were rewritten, and by
// how much their size changed. It seals the manifest's own encoded bytes
// as associated data over an empty plaintext, so the manifest stays
// tamper-evident without needing to be secret.
package seal

import (
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrTagMismatch is returned by VerifyStrict when a manifest's recomputed
// tag does not match the tag it was sealed with.
var ErrTagMismatch = errors.New("seal: manifest tag does not match seal")

// ChunkRewrite records one chunk the CLI rewrote.
type ChunkRewrite struct {
	// Offset is the chunk's byte offset in the artifact it came from.
	Offset uint32
	// Kind is "spec-name", "table-name", or "copy".
	Kind string
	// OriginalSize and NewSize are the chunk's total size before and
	// after rewriting.
	OriginalSize uint32
	NewSize      uint32
}

// Manifest is the full record of one rewrite run.
type Manifest struct {
	Chunks []ChunkRewrite
}

// encode serializes m deterministically as a count-prefixed sequence of
// fixed-width and length-prefixed fields.
func (m Manifest) encode() []byte {
	out := appendU32(nil, uint32(len(m.Chunks)))
	for _, c := range m.Chunks {
		out = appendU32(out, c.Offset)
		out = appendString(out, c.Kind)
		out = appendU32(out, c.OriginalSize)
		out = appendU32(out, c.NewSize)
	}
	return out
}

func appendU32(b []byte, v uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return append(b, buf[:]...)
}

func appendString(b []byte, s string) []byte {
	b = appendU32(b, uint32(len(s)))
	return append(b, s...)
}

// Seal computes an XChaCha20-Poly1305 tag over the manifest's encoded
// bytes, treating them as associated data over an empty plaintext — the
// manifest is not secret, only tamper-evident.
func Seal(m Manifest, key [32]byte, nonce [24]byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("seal: %w", err)
	}
	ct := aead.Seal(nil, nonce[:], nil, m.encode())
	return ct[len(ct)-aead.Overhead():], nil
}

// Verify reports whether tag is the correct seal for m under key/nonce,
// comparing in constant time via crypto/subtle.
func Verify(m Manifest, key [32]byte, nonce [24]byte, tag []byte) (bool, error) {
	expected, err := Seal(m, key, nonce)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(expected, tag) == 1, nil
}

// VerifyStrict is Verify but returns ErrTagMismatch instead of a bare
// false, for callers that want a single error check.
func VerifyStrict(m Manifest, key [32]byte, nonce [24]byte, tag []byte) error {
	ok, err := Verify(m, key, nonce, tag)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTagMismatch
	}
	return nil
}
