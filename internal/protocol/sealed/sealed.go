package sealed

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"sealbox/internal/crypto"
	"sealbox/internal/domain"
	"sealbox/internal/util/memzero"
)

const outerKeyInfo = "sealbox-sealed-sender"

var (
	// ErrTruncated is returned when the outer blob is too short to carry an
	// ephemeral key and a ciphertext.
	ErrTruncated = errors.New("sealed sender blob truncated")
)

// MessageContent is the decrypted outer layer of a sealed-sender envelope: the
// sender certificate plus the inner encrypted message and its type.
type MessageContent struct {
	Certificate domain.SenderCertificate `json:"certificate"`
	ContentHint uint32                   `json:"content_hint,omitempty"`
	GroupID     []byte                   `json:"group_id,omitempty"`
	InnerType   domain.EnvelopeType      `json:"inner_type"`
	InnerBytes  []byte                   `json:"inner_bytes"`
}

// Seal encrypts content to the recipient's identity key under an anonymizing
// outer layer. The blob is an ephemeral X25519 public key followed by a
// ChaCha20-Poly1305 ciphertext; nothing in it identifies the sender.
func Seal(recipientIdentity domain.X25519Public, content MessageContent) ([]byte, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}

	ephPriv, ephPub, err := crypto.GenerateX25519()
	if err != nil {
		return nil, err
	}
	key, err := outerKey(ephPriv, ephPub, recipientIdentity)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(key)
	memzero.Zero(ephPriv[:])

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	// Fresh ephemeral key per message; the zero nonce is used exactly once.
	nonce := make([]byte, aead.NonceSize())
	ct := aead.Seal(nil, nonce, raw, ephPub.Slice())

	blob := make([]byte, 0, 32+len(ct))
	blob = append(blob, ephPub.Slice()...)
	blob = append(blob, ct...)
	return blob, nil
}

// Unseal decrypts the outer layer with the recipient's identity private key.
// It performs no certificate validation; callers must verify the recovered
// certificate before trusting the sender.
func Unseal(
	recipientPriv domain.X25519Private,
	recipientPub domain.X25519Public,
	blob []byte,
) (MessageContent, error) {
	if len(blob) < 32+chacha20poly1305.Overhead {
		return MessageContent{}, ErrTruncated
	}
	var ephPub domain.X25519Public
	copy(ephPub[:], blob[:32])

	key, err := outerKeyRecv(recipientPriv, ephPub, recipientPub)
	if err != nil {
		return MessageContent{}, err
	}
	defer memzero.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return MessageContent{}, err
	}
	nonce := make([]byte, aead.NonceSize())
	raw, err := aead.Open(nil, nonce, blob[32:], ephPub.Slice())
	if err != nil {
		return MessageContent{}, fmt.Errorf("open sealed sender layer: %w", err)
	}

	var content MessageContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return MessageContent{}, err
	}
	return content, nil
}

// outerKey derives the outer AEAD key on the sending side.
func outerKey(
	ephPriv domain.X25519Private,
	ephPub domain.X25519Public,
	recipient domain.X25519Public,
) ([]byte, error) {
	dh, err := crypto.DH(ephPriv, recipient)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(dh[:])
	return deriveOuter(dh[:], ephPub, recipient), nil
}

// outerKeyRecv derives the same key on the receiving side.
func outerKeyRecv(
	recipientPriv domain.X25519Private,
	ephPub domain.X25519Public,
	recipientPub domain.X25519Public,
) ([]byte, error) {
	dh, err := crypto.DH(recipientPriv, ephPub)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(dh[:])
	return deriveOuter(dh[:], ephPub, recipientPub), nil
}

func deriveOuter(dh []byte, ephPub, recipient domain.X25519Public) []byte {
	info := make([]byte, 0, len(outerKeyInfo)+64)
	info = append(info, outerKeyInfo...)
	info = append(info, ephPub.Slice()...)
	info = append(info, recipient.Slice()...)

	r := hkdf.New(sha256.New, dh, nil, info)
	key := make([]byte, chacha20poly1305.KeySize)
	_, _ = io.ReadFull(r, key)
	return key
}
