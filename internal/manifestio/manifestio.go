// Package manifestio is the CLI-facing persistence format for a sealed
// internal/seal.Manifest: a small JSON envelope carrying the manifest's
// chunk records alongside the hex-encoded nonce and tag needed to verify
// it later.
package manifestio

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jessie345/arsc-strpool/internal/seal"
)

type file struct {
	Chunks   []seal.ChunkRewrite `json:"chunks"`
	NonceHex string              `json:"nonce"`
	TagHex   string              `json:"tag"`
}

// WriteSealed computes the seal over m under key/nonce and writes m plus
// the nonce and tag to path as JSON.
func WriteSealed(path string, m seal.Manifest, key [32]byte, nonce [24]byte) error {
	tag, err := seal.Seal(m, key, nonce)
	if err != nil {
		return fmt.Errorf("manifestio: seal: %w", err)
	}
	f := file{
		Chunks:   m.Chunks,
		NonceHex: hex.EncodeToString(nonce[:]),
		TagHex:   hex.EncodeToString(tag),
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("manifestio: marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("manifestio: write %s: %w", path, err)
	}
	return nil
}

// ReadSealed reads a manifest file written by WriteSealed back into its
// manifest, nonce, and tag.
func ReadSealed(path string) (m seal.Manifest, nonce [24]byte, tag []byte, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return m, nonce, nil, fmt.Errorf("manifestio: read %s: %w", path, err)
	}
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return m, nonce, nil, fmt.Errorf("manifestio: parse %s: %w", path, err)
	}
	nb, err := hex.DecodeString(f.NonceHex)
	if err != nil || len(nb) != 24 {
		return m, nonce, nil, fmt.Errorf("manifestio: %s: malformed nonce", path)
	}
	copy(nonce[:], nb)
	tag, err = hex.DecodeString(f.TagHex)
	if err != nil {
		return m, nonce, nil, fmt.Errorf("manifestio: %s: malformed tag", path)
	}
	m = seal.Manifest{Chunks: f.Chunks}
	return m, nonce, tag, nil
}
