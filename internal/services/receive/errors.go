package receive

import (
	"fmt"

	"sealbox/internal/domain"
)

// ErrorKind enumerates every protocol failure the engine can produce. The set
// is closed: callers switch on it exhaustively instead of inspecting wrapped
// causes or matching strings.
type ErrorKind int

const (
	// KindWrongDestination: the envelope's destination identifier matches no
	// registered local identity.
	KindWrongDestination ErrorKind = iota + 1
	// KindInvalidMessageType: the envelope type is not valid for the resolved
	// local identity (or is a type this client does not handle at all).
	KindInvalidMessageType
	// KindInvalidCertificate: the sealed-sender layer could not be unsealed,
	// or its sender certificate failed trust-root or expiry validation.
	KindInvalidCertificate
	// KindNoSession: a ciphertext arrived for a peer with no established
	// ratchet session.
	KindNoSession
	// KindMissingSignedPreKey: the signed pre-key a key-exchange message
	// references is absent from the store. Recoverable by resend.
	KindMissingSignedPreKey
	// KindMissingOneTimePreKey: the one-time pre-key a key-exchange message
	// references is absent from the store. Recoverable by resend.
	KindMissingOneTimePreKey
)

// String returns a stable name for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindWrongDestination:
		return "wrong destination"
	case KindInvalidMessageType:
		return "invalid message type for destination"
	case KindInvalidCertificate:
		return "invalid sealed sender certificate"
	case KindNoSession:
		return "no session established"
	case KindMissingSignedPreKey:
		return "missing signed pre-key"
	case KindMissingOneTimePreKey:
		return "missing one-time pre-key"
	default:
		return "unknown"
	}
}

// Error is a classified decryption failure. Only the fields relevant to the
// kind are populated.
type Error struct {
	Kind ErrorKind

	Identity        domain.LocalIdentity
	EnvelopeType    domain.EnvelopeType
	Peer            domain.Address
	SignedPreKeyID  domain.SignedPreKeyID
	OneTimePreKeyID domain.OneTimePreKeyID

	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case KindWrongDestination:
		return fmt.Sprintf("envelope destination %q matches no registered identity", e.Peer)
	case KindInvalidMessageType:
		return fmt.Sprintf("%s envelope not valid for %s identity", e.EnvelopeType, e.Identity)
	case KindMissingSignedPreKey:
		return fmt.Sprintf("signed pre-key %q not found", e.SignedPreKeyID)
	case KindMissingOneTimePreKey:
		return fmt.Sprintf("one-time pre-key %q not found", e.OneTimePreKeyID)
	case KindNoSession:
		return fmt.Sprintf("no session established with %q", e.Peer)
	default:
		if e.cause != nil {
			return fmt.Sprintf("%s: %v", e.Kind, e.cause)
		}
		return e.Kind.String()
	}
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error { return e.cause }

// Recoverable reports whether the failure can be repaired by asking the
// sender to resend with fresh key material. Only the two key-material kinds
// qualify; routing, trust, and session failures are never retried.
func (e *Error) Recoverable() bool {
	return e.Kind == KindMissingSignedPreKey || e.Kind == KindMissingOneTimePreKey
}
