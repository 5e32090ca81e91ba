package domain

import (
	interfaces "sealbox/internal/domain/interfaces"
	types "sealbox/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	Address             = types.Address
	DeviceID            = types.DeviceID
	Fingerprint         = types.Fingerprint
	SignedPreKeyID      = types.SignedPreKeyID
	OneTimePreKeyID     = types.OneTimePreKeyID
	LocalIdentity       = types.LocalIdentity
	Identity            = types.Identity
	Envelope            = types.Envelope
	EnvelopeType        = types.EnvelopeType
	DecryptResult       = types.DecryptResult
	SenderCertificate   = types.SenderCertificate
	OneTimePreKeyPair   = types.OneTimePreKeyPair
	OneTimePreKeyPublic = types.OneTimePreKeyPublic
	PreKeyBundle        = types.PreKeyBundle
	PreKeyMessage       = types.PreKeyMessage
	CiphertextMessage   = types.CiphertextMessage
	PreKeyBundleMessage = types.PreKeyBundleMessage
	RatchetHeader       = types.RatchetHeader
	RatchetState        = types.RatchetState
	Handshake           = types.Handshake
	Session             = types.Session
	RecoveryMessage     = types.RecoveryMessage
	X25519Public        = types.X25519Public
	X25519Private       = types.X25519Private
	Ed25519Public       = types.Ed25519Public
	Ed25519Private      = types.Ed25519Private
)

// Local identity constants re-exported for compact call sites.
const (
	Primary   = types.Primary
	Secondary = types.Secondary
)

// Envelope type constants re-exported for compact call sites.
const (
	EnvelopeUnknown            = types.EnvelopeUnknown
	EnvelopeCiphertext         = types.EnvelopeCiphertext
	EnvelopePreKeyBundle       = types.EnvelopePreKeyBundle
	EnvelopeUnidentifiedSender = types.EnvelopeUnidentifiedSender
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	IdentityService   = interfaces.IdentityService
	PreKeyService     = interfaces.PreKeyService
	SessionService    = interfaces.SessionService
	IdentityStore     = interfaces.IdentityStore
	PreKeyStore       = interfaces.PreKeyStore
	SessionStore      = interfaces.SessionStore
	PreKeyBundleStore = interfaces.PreKeyBundleStore
	ProtocolStore     = interfaces.ProtocolStore
	DeliveryQueue     = interfaces.DeliveryQueue
	EnvelopeFeed      = interfaces.EnvelopeFeed
)
