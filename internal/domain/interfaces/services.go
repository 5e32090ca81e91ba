package interfaces

import domaintypes "sealbox/internal/domain/types"

// IdentityService creates, retrieves, and inspects local identity keys.
type IdentityService interface {
	GenerateIdentity(li domaintypes.LocalIdentity, passphrase string) (
		domaintypes.Identity,
		domaintypes.Fingerprint,
		error,
	)
	LoadIdentity(li domaintypes.LocalIdentity, passphrase string) (domaintypes.Identity, error)
	FingerprintIdentity(
		li domaintypes.LocalIdentity,
		passphrase string,
	) (domaintypes.Fingerprint, error)
}

// PreKeyService generates pre-keys and assembles publishable bundles.
type PreKeyService interface {
	GenerateAndStorePreKeys(
		li domaintypes.LocalIdentity,
		passphrase string,
		count int,
	) (
		domaintypes.X25519Public,
		[]domaintypes.X25519Public,
		error,
	)
	LoadPreKeyBundle(
		li domaintypes.LocalIdentity,
		passphrase string,
		address domaintypes.Address,
	) (
		domaintypes.PreKeyBundle,
		error,
	)
}

// SessionService establishes or retrieves a peer session from its published
// pre-key bundle.
type SessionService interface {
	InitiateSession(
		li domaintypes.LocalIdentity,
		passphrase string,
		peer domaintypes.Address,
		bundle domaintypes.PreKeyBundle,
	) (domaintypes.Session, error)
	GetSession(
		li domaintypes.LocalIdentity,
		peer domaintypes.Address,
	) (domaintypes.Session, bool, error)
}
