package sealed_test

import (
	"bytes"
	"testing"

	"sealbox/internal/crypto"
	"sealbox/internal/domain"
	"sealbox/internal/protocol/sealed"
)

func makeRecipient(t *testing.T) (domain.X25519Private, domain.X25519Public) {
	t.Helper()
	priv, pub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	return priv, pub
}

func TestSealUnsealRoundTrip(t *testing.T) {
	priv, pub := makeRecipient(t)

	content := sealed.MessageContent{
		Certificate: domain.SenderCertificate{Sender: "bob", DeviceID: 7, Expiration: 99},
		InnerType:   domain.EnvelopeCiphertext,
		InnerBytes:  []byte("inner payload"),
	}
	blob, err := sealed.Seal(pub, content)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	got, err := sealed.Unseal(priv, pub, blob)
	if err != nil {
		t.Fatalf("Unseal: %v", err)
	}
	if got.Certificate.Sender != "bob" || got.InnerType != domain.EnvelopeCiphertext {
		t.Fatalf("content mismatch: %+v", got)
	}
	if !bytes.Equal(got.InnerBytes, content.InnerBytes) {
		t.Fatalf("inner bytes = %q", got.InnerBytes)
	}
}

func TestUnsealWrongRecipient(t *testing.T) {
	_, pub := makeRecipient(t)
	otherPriv, otherPub := makeRecipient(t)

	blob, err := sealed.Seal(pub, sealed.MessageContent{InnerBytes: []byte("x")})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if _, err := sealed.Unseal(otherPriv, otherPub, blob); err == nil {
		t.Fatal("unseal succeeded with wrong recipient key")
	}
}

func TestUnsealTruncatedBlob(t *testing.T) {
	priv, pub := makeRecipient(t)
	if _, err := sealed.Unseal(priv, pub, make([]byte, 16)); err != sealed.ErrTruncated {
		t.Fatalf("got %v, want ErrTruncated", err)
	}
}

func TestVerifyCertificate(t *testing.T) {
	trustPriv, trustPub, err := crypto.GenerateEd25519()
	if err != nil {
		t.Fatalf("GenerateEd25519: %v", err)
	}
	cert, err := sealed.IssueCertificate(trustPriv, domain.SenderCertificate{
		Sender:     "bob",
		DeviceID:   7,
		Expiration: 1000,
	})
	if err != nil {
		t.Fatalf("IssueCertificate: %v", err)
	}

	if !sealed.VerifyCertificate(trustPub, cert, 999) {
		t.Fatal("valid certificate rejected")
	}
	// Expiration is exclusive.
	if sealed.VerifyCertificate(trustPub, cert, 1000) {
		t.Fatal("certificate accepted at its expiration instant")
	}
	if sealed.VerifyCertificate(trustPub, cert, 1001) {
		t.Fatal("expired certificate accepted")
	}

	// Any field change invalidates the signature.
	forged := cert
	forged.Sender = "mallory"
	if sealed.VerifyCertificate(trustPub, forged, 999) {
		t.Fatal("forged certificate accepted")
	}

	_, rogue, err := crypto.GenerateEd25519()
	if err != nil {
		t.Fatalf("GenerateEd25519: %v", err)
	}
	if sealed.VerifyCertificate(rogue, cert, 999) {
		t.Fatal("certificate accepted under wrong trust root")
	}
}
