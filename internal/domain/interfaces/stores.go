package interfaces

import domaintypes "sealbox/internal/domain/types"

// IdentityStore persists a local identity's long-term keys.
type IdentityStore interface {
	SaveIdentity(passphrase string, id domaintypes.Identity) error
	LoadIdentity(passphrase string) (domaintypes.Identity, error)
}

// PreKeyStore manages signed and one-time pre-keys on disk.
//
// Load and Remove are deliberately separate operations: the decryption engine
// checks key material before any cryptographic work and consumes it only after
// a successful decrypt, so a failed decrypt leaves the store untouched.
type PreKeyStore interface {
	// Signed pre-keys
	SaveSignedPreKey(
		id domaintypes.SignedPreKeyID,
		priv domaintypes.X25519Private,
		pub domaintypes.X25519Public,
		sig []byte,
	) error
	LoadSignedPreKey(
		id domaintypes.SignedPreKeyID,
	) (
		priv domaintypes.X25519Private,
		pub domaintypes.X25519Public,
		sig []byte,
		ok bool,
		err error,
	)
	RemoveSignedPreKey(id domaintypes.SignedPreKeyID) error

	// One-time pre-keys
	SaveOneTimePreKeys(pairs []domaintypes.OneTimePreKeyPair) error
	LoadOneTimePreKey(id domaintypes.OneTimePreKeyID) (
		priv domaintypes.X25519Private,
		pub domaintypes.X25519Public,
		ok bool,
		err error,
	)
	RemoveOneTimePreKey(id domaintypes.OneTimePreKeyID) error
	ListOneTimePreKeyPublics() ([]domaintypes.OneTimePreKeyPublic, error)

	// Current signed pre-key selection
	SetCurrentSignedPreKeyID(id domaintypes.SignedPreKeyID) error
	CurrentSignedPreKeyID() (domaintypes.SignedPreKeyID, bool, error)
}

// SessionStore persists per-peer ratchet sessions.
type SessionStore interface {
	SaveSession(peer domaintypes.Address, session domaintypes.Session) error
	LoadSession(peer domaintypes.Address) (domaintypes.Session, bool, error)
	RemoveSession(peer domaintypes.Address) error
}

// PreKeyBundleStore caches the last bundle an identity published.
type PreKeyBundleStore interface {
	SavePreKeyBundle(bundle domaintypes.PreKeyBundle) error
	LoadPreKeyBundle(address domaintypes.Address) (domaintypes.PreKeyBundle, bool, error)
}

// ProtocolStore is the complete per-identity key and session state. Exactly
// one exists per local identity; it is never shared between identities.
type ProtocolStore interface {
	IdentityStore
	PreKeyStore
	SessionStore
	PreKeyBundleStore
}
