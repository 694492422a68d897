package idhash

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// MintKeySize is the size of a Solana public key in bytes.
const MintKeySize = 32

// ErrInvalidMintAddress is returned when a token id is not a base58 ed25519 public key.
var ErrInvalidMintAddress = errors.New("invalid mint address")

// MintAddress derives a Solana-style mint address from 32 seed bytes.
// The seed is clamped into an ed25519 scalar and multiplied by the base point,
// so the result is an on-curve public key, base58 encoded.
func MintAddress(seed [MintKeySize]byte) (string, error) {
	s, err := edwards25519.NewScalar().SetBytesWithClamping(seed[:])
	if err != nil {
		return "", fmt.Errorf("clamp mint seed: %w", err)
	}
	pub := new(edwards25519.Point).ScalarBaseMult(s)
	return base58.Encode(pub.Bytes()), nil
}

// ValidateMintAddress checks that addr decodes to a 32-byte point on the ed25519 curve.
func ValidateMintAddress(addr string) error {
	raw, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMintAddress, err)
	}
	if len(raw) != MintKeySize {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidMintAddress, MintKeySize, len(raw))
	}
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return fmt.Errorf("%w: not on curve", ErrInvalidMintAddress)
	}
	return nil
}
