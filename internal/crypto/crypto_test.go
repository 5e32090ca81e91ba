package crypto_test

import (
	"testing"

	"sealbox/internal/crypto"
)

func TestDHAgreement(t *testing.T) {
	aPriv, aPub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	bPriv, bPub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}

	ab, err := crypto.DH(aPriv, bPub)
	if err != nil {
		t.Fatalf("DH: %v", err)
	}
	ba, err := crypto.DH(bPriv, aPub)
	if err != nil {
		t.Fatalf("DH: %v", err)
	}
	if ab != ba {
		t.Fatal("shared secrets differ")
	}
}

func TestSignVerifyEd25519(t *testing.T) {
	priv, pub, err := crypto.GenerateEd25519()
	if err != nil {
		t.Fatalf("GenerateEd25519: %v", err)
	}
	msg := []byte("attest this")
	sig := crypto.SignEd25519(priv, msg)
	if !crypto.VerifyEd25519(pub, msg, sig) {
		t.Fatal("valid signature rejected")
	}
	sig[0] ^= 0xff
	if crypto.VerifyEd25519(pub, msg, sig) {
		t.Fatal("tampered signature accepted")
	}
}

func TestFingerprintStable(t *testing.T) {
	in := []byte{1, 2, 3}
	a := crypto.Fingerprint(in)
	b := crypto.Fingerprint(in)
	if a != b {
		t.Fatalf("fingerprint not deterministic: %s vs %s", a, b)
	}
	if len(a) != 20 {
		t.Fatalf("fingerprint length = %d, want 20 hex chars", len(a))
	}
	if a == crypto.Fingerprint([]byte{4, 5, 6}) {
		t.Fatal("distinct inputs share a fingerprint")
	}
}
