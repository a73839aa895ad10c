package envelope

import (
	"bytes"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateKeypair(t *testing.T) {
	kp, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error = %v", err)
	}
	if len(kp.PublicKey) != PublicKeySize {
		t.Errorf("public key length = %d, want %d", len(kp.PublicKey), PublicKeySize)
	}
	if kp.PublicKeyHex != hex.EncodeToString(kp.PublicKey) {
		t.Error("PublicKeyHex does not match PublicKey")
	}

	kp2, err := GenerateKeypair()
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(kp.PublicKey, kp2.PublicKey) {
		t.Error("two generated keypairs share a public key")
	}
}

func TestKeypairFromSeed(t *testing.T) {
	// RFC 8032 §7.1 TEST 1: seed and its derived public key.
	seed, _ := hex.DecodeString("9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60")
	wantPub := "d75a980182b10ab7d54bfed3c964073a0ee172f3daa62325af021a68f707511a"

	kp, err := KeypairFromSeed(seed)
	if err != nil {
		t.Fatalf("KeypairFromSeed() error = %v", err)
	}
	if kp.PublicKeyHex != wantPub {
		t.Errorf("public key = %s, want %s", kp.PublicKeyHex, wantPub)
	}

	// Determinism
	kp2, err := KeypairFromSeed(seed)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(kp.PrivateKey, kp2.PrivateKey) {
		t.Error("same seed produced different private keys")
	}
}

func TestKeypairFromSeed_InvalidSize(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"empty", 0},
		{"short", 16},
		{"long", 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := KeypairFromSeed(make([]byte, tt.size)); !errors.Is(err, ErrInvalidKey) {
				t.Errorf("expected ErrInvalidKey, got %v", err)
			}
		})
	}
}

func TestKeypairFromFile(t *testing.T) {
	seed, _ := hex.DecodeString("9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60")
	path := filepath.Join(t.TempDir(), "identity.key")
	if err := os.WriteFile(path, seed, 0600); err != nil {
		t.Fatal(err)
	}

	kp, err := KeypairFromFile(path)
	if err != nil {
		t.Fatalf("KeypairFromFile() error = %v", err)
	}
	if kp.PublicKeyHex != "d75a980182b10ab7d54bfed3c964073a0ee172f3daa62325af021a68f707511a" {
		t.Errorf("unexpected public key %s", kp.PublicKeyHex)
	}
}

func TestKeypairFromFile_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := KeypairFromFile(filepath.Join(t.TempDir(), "nope")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("wrong size", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "short.key")
		if err := os.WriteFile(path, []byte("too short"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := KeypairFromFile(path); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("expected ErrInvalidKey, got %v", err)
		}
	})
}

func TestPublicKeyFromBytes(t *testing.T) {
	kp, err := GenerateKeypair()
	if err != nil {
		t.Fatal(err)
	}

	pub, err := PublicKeyFromBytes(kp.PublicKey)
	if err != nil {
		t.Fatalf("PublicKeyFromBytes() error = %v", err)
	}
	if !bytes.Equal(pub, kp.PublicKey) {
		t.Error("copied key differs from input")
	}

	// The returned key is a copy, mutating it must not affect the original.
	pub[0] ^= 0xff
	if bytes.Equal(pub, kp.PublicKey) {
		t.Error("PublicKeyFromBytes did not copy")
	}

	if _, err := PublicKeyFromBytes(make([]byte, 31)); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey for short key, got %v", err)
	}
}

func TestPublicKeyFromHex(t *testing.T) {
	pub, err := PublicKeyFromHex("d75a980182b10ab7d54bfed3c964073a0ee172f3daa62325af021a68f707511a")
	if err != nil {
		t.Fatalf("PublicKeyFromHex() error = %v", err)
	}
	if len(pub) != PublicKeySize {
		t.Errorf("length = %d, want %d", len(pub), PublicKeySize)
	}

	if _, err := PublicKeyFromHex("not hex"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
	if _, err := PublicKeyFromHex("d75a"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey for truncated hex, got %v", err)
	}
}
