package identity

import (
	"fmt"
	"unicode"

	"sealbox/internal/crypto"
	"sealbox/internal/domain"
)

const (
	// minPassphraseLength defines the minimum number of characters required
	// for a passphrase.
	minPassphraseLength = 12
)

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)

	// ErrUnknownIdentity is returned for a local identity with no backing store.
	ErrUnknownIdentity = fmt.Errorf("unknown local identity")
)

// Service manages key creation and access for both local identities.
//
// Each identity contains:
//   - X25519 key pair for Diffie-Hellman (key agreement and ratcheting).
//   - Ed25519 key pair for signing (for example, signing the Signed Pre-Key).
type Service struct {
	stores map[domain.LocalIdentity]domain.IdentityStore
}

// New returns an identity service backed by one store per local identity.
func New(stores map[domain.LocalIdentity]domain.IdentityStore) *Service {
	return &Service{stores: stores}
}

// GenerateIdentity creates new keys for li, saves them encrypted with the
// passphrase, and returns the identity plus a short fingerprint of the X25519
// public key.
func (s *Service) GenerateIdentity(
	li domain.LocalIdentity,
	passphrase string,
) (domain.Identity, domain.Fingerprint, error) {
	store, ok := s.stores[li]
	if !ok {
		return domain.Identity{}, "", fmt.Errorf("%w: %s", ErrUnknownIdentity, li)
	}
	if !isSecurePassphrase(passphrase) {
		return domain.Identity{}, "", ErrWeakPassphrase
	}

	xPriv, xPub, err := crypto.GenerateX25519()
	if err != nil {
		return domain.Identity{}, "", err
	}
	edPriv, edPub, err := crypto.GenerateEd25519()
	if err != nil {
		return domain.Identity{}, "", err
	}

	id := domain.Identity{
		XPub:   xPub,
		XPriv:  xPriv,
		EdPub:  edPub,
		EdPriv: edPriv,
	}
	if err := store.SaveIdentity(passphrase, id); err != nil {
		return domain.Identity{}, "", err
	}
	return id, domain.Fingerprint(crypto.Fingerprint(id.XPub.Slice())), nil
}

// LoadIdentity decrypts and returns li's keys.
func (s *Service) LoadIdentity(li domain.LocalIdentity, passphrase string) (domain.Identity, error) {
	store, ok := s.stores[li]
	if !ok {
		return domain.Identity{}, fmt.Errorf("%w: %s", ErrUnknownIdentity, li)
	}
	return store.LoadIdentity(passphrase)
}

// FingerprintIdentity returns a short fingerprint of li's X25519 public key.
func (s *Service) FingerprintIdentity(
	li domain.LocalIdentity,
	passphrase string,
) (domain.Fingerprint, error) {
	id, err := s.LoadIdentity(li, passphrase)
	if err != nil {
		return "", err
	}
	return domain.Fingerprint(crypto.Fingerprint(id.XPub.Slice())), nil
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)
