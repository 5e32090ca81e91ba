package x3dh

import (
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"

	"sealbox/internal/crypto"
	"sealbox/internal/domain"
	"sealbox/internal/util/memzero"
)

const rootKeyInfo = "sealbox-x3dh"

var (
	// ErrBadSignedPreKey is returned when the bundle's signed pre-key
	// signature fails verification against the bundle's signing key.
	ErrBadSignedPreKey = errors.New("signed pre-key signature invalid")
)

// InitiatorRoot derives the shared root key as the initiator from a peer's
// published bundle. It verifies the signed pre-key signature, generates a
// fresh ephemeral key pair, and returns the root key, the identifiers of the
// pre-keys used, and the ephemeral public key the responder needs.
func InitiatorRoot(
	id domain.Identity,
	bundle domain.PreKeyBundle,
) (
	rootKey []byte,
	signedPreKeyID domain.SignedPreKeyID,
	oneTimePreKeyID domain.OneTimePreKeyID,
	ephemeralPublicKey domain.X25519Public,
	err error,
) {
	if !crypto.VerifyEd25519(bundle.SigningKey, bundle.SignedPreKey.Slice(), bundle.SignedPreKeySignature) {
		err = ErrBadSignedPreKey
		return
	}

	ephPriv, ephPub, err := crypto.GenerateX25519()
	if err != nil {
		return
	}

	dh1, err := crypto.DH(id.XPriv, bundle.SignedPreKey) // DH(IKa, SPKb)
	if err != nil {
		return
	}
	dh2, err := crypto.DH(ephPriv, bundle.IdentityKey) // DH(EKa, IKb)
	if err != nil {
		return
	}
	dh3, err := crypto.DH(ephPriv, bundle.SignedPreKey) // DH(EKa, SPKb)
	if err != nil {
		return
	}

	transcript := make([]byte, 0, 32*4)
	transcript = append(transcript, dh1[:]...)
	transcript = append(transcript, dh2[:]...)
	transcript = append(transcript, dh3[:]...)

	var opkID domain.OneTimePreKeyID
	if len(bundle.OneTimePreKeys) > 0 {
		opk := bundle.OneTimePreKeys[0]
		var dh4 [32]byte
		dh4, err = crypto.DH(ephPriv, opk.Pub) // DH(EKa, OPKb)
		if err != nil {
			return
		}
		transcript = append(transcript, dh4[:]...)
		opkID = opk.ID
	}

	rootKey = deriveRoot(transcript)
	memzero.Zero(transcript)
	memzero.Zero(ephPriv[:])
	return rootKey, bundle.SignedPreKeyID, opkID, ephPub, nil
}

// ResponderRoot recomputes the shared root key as the responder from the
// handshake parameters carried in a pre-key message. opkPriv is nil when the
// initiator did not consume a one-time pre-key.
func ResponderRoot(
	id domain.Identity,
	signedPreKeyPriv domain.X25519Private,
	opkPriv *domain.X25519Private,
	pm domain.PreKeyMessage,
) ([]byte, error) {
	dh1, err := crypto.DH(signedPreKeyPriv, pm.InitiatorIdentityKey) // DH(SPKb, IKa)
	if err != nil {
		return nil, err
	}
	dh2, err := crypto.DH(id.XPriv, pm.EphemeralKey) // DH(IKb, EKa)
	if err != nil {
		return nil, err
	}
	dh3, err := crypto.DH(signedPreKeyPriv, pm.EphemeralKey) // DH(SPKb, EKa)
	if err != nil {
		return nil, err
	}

	transcript := make([]byte, 0, 32*4)
	transcript = append(transcript, dh1[:]...)
	transcript = append(transcript, dh2[:]...)
	transcript = append(transcript, dh3[:]...)

	if opkPriv != nil {
		dh4, err := crypto.DH(*opkPriv, pm.EphemeralKey) // DH(OPKb, EKa)
		if err != nil {
			return nil, err
		}
		transcript = append(transcript, dh4[:]...)
	}

	root := deriveRoot(transcript)
	memzero.Zero(transcript)
	return root, nil
}

// deriveRoot runs HKDF-SHA256 over the concatenated DH transcript.
func deriveRoot(transcript []byte) []byte {
	r := hkdf.New(sha256.New, transcript, nil, []byte(rootKeyInfo))
	root := make([]byte, 32)
	_, _ = io.ReadFull(r, root)
	return root
}
