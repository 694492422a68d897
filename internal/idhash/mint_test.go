package idhash

import (
	"errors"
	"testing"

	"github.com/mr-tron/base58"
)

func TestMintAddress_DeterministicAndValid(t *testing.T) {
	var seed [MintKeySize]byte
	for i := range seed {
		seed[i] = byte(i)
	}

	a, err := MintAddress(seed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := MintAddress(seed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Errorf("MintAddress not deterministic: %s != %s", a, b)
	}
	if err := ValidateMintAddress(a); err != nil {
		t.Errorf("derived address failed validation: %v", err)
	}

	seed[0] ^= 0xff
	c, err := MintAddress(seed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c == a {
		t.Error("different seeds produced the same address")
	}
}

func TestValidateMintAddress_Rejects(t *testing.T) {
	tests := []struct {
		name string
		addr string
	}{
		{"not base58", "0OIl"},
		{"too short", base58.Encode([]byte{1, 2, 3})},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMintAddress(tt.addr)
			if !errors.Is(err, ErrInvalidMintAddress) {
				t.Errorf("expected ErrInvalidMintAddress, got %v", err)
			}
		})
	}
}

func TestNewRunID_Unique(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	if a == b {
		t.Error("run ids should be unique")
	}
	if len(a) != 26 {
		t.Errorf("expected 26-char ULID, got %d", len(a))
	}
}
