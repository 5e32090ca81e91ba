package prekey

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"sealbox/internal/crypto"
	"sealbox/internal/domain"
)

// ErrNoSignedPreKey is returned when a bundle is requested before any signed
// pre-key has been generated.
var ErrNoSignedPreKey = errors.New("no signed pre-key available")

// Service manages pre-key pairs and builds the publishable bundle, per local
// identity.
type Service struct {
	stores map[domain.LocalIdentity]domain.ProtocolStore
}

// New returns a pre-key service over one protocol store per local identity.
func New(stores map[domain.LocalIdentity]domain.ProtocolStore) *Service {
	return &Service{stores: stores}
}

// GenerateAndStorePreKeys creates a signed pre-key pair and count one-time
// pairs for li, marking the new signed pre-key as current. It returns the
// public halves for publishing.
func (s *Service) GenerateAndStorePreKeys(
	li domain.LocalIdentity,
	passphrase string,
	count int,
) (domain.X25519Public, []domain.X25519Public, error) {
	store, ok := s.stores[li]
	if !ok {
		return domain.X25519Public{}, nil, fmt.Errorf("unknown local identity %s", li)
	}
	id, err := store.LoadIdentity(passphrase)
	if err != nil {
		return domain.X25519Public{}, nil, err
	}

	// Signed pre-key
	spkPriv, spkPub, err := crypto.GenerateX25519()
	if err != nil {
		return domain.X25519Public{}, nil, err
	}
	spkID := domain.SignedPreKeyID("spk-" + uuid.NewString())
	sig := crypto.SignEd25519(id.EdPriv, spkPub.Slice())
	if err := store.SaveSignedPreKey(spkID, spkPriv, spkPub, sig); err != nil {
		return domain.X25519Public{}, nil, err
	}
	if err := store.SetCurrentSignedPreKeyID(spkID); err != nil {
		return domain.X25519Public{}, nil, err
	}

	// One-time pre-keys
	pairs := make([]domain.OneTimePreKeyPair, 0, count)
	publics := make([]domain.X25519Public, 0, count)
	for i := 0; i < count; i++ {
		priv, pub, err := crypto.GenerateX25519()
		if err != nil {
			return domain.X25519Public{}, nil, err
		}
		pairs = append(pairs, domain.OneTimePreKeyPair{
			ID:   domain.OneTimePreKeyID("opk-" + uuid.NewString()),
			Priv: priv,
			Pub:  pub,
		})
		publics = append(publics, pub)
	}
	if err := store.SaveOneTimePreKeys(pairs); err != nil {
		return domain.X25519Public{}, nil, err
	}
	return spkPub, publics, nil
}

// LoadPreKeyBundle builds li's public bundle from the current signed pre-key
// and remaining one-time pre-keys, caches it, and returns it.
func (s *Service) LoadPreKeyBundle(
	li domain.LocalIdentity,
	passphrase string,
	address domain.Address,
) (domain.PreKeyBundle, error) {
	store, ok := s.stores[li]
	if !ok {
		return domain.PreKeyBundle{}, fmt.Errorf("unknown local identity %s", li)
	}
	id, err := store.LoadIdentity(passphrase)
	if err != nil {
		return domain.PreKeyBundle{}, err
	}

	spkID, ok, err := store.CurrentSignedPreKeyID()
	if err != nil {
		return domain.PreKeyBundle{}, err
	}
	if !ok {
		return domain.PreKeyBundle{}, ErrNoSignedPreKey
	}
	_, spkPub, sig, found, err := store.LoadSignedPreKey(spkID)
	if err != nil {
		return domain.PreKeyBundle{}, err
	}
	if !found {
		return domain.PreKeyBundle{}, ErrNoSignedPreKey
	}

	oneTime, err := store.ListOneTimePreKeyPublics()
	if err != nil {
		return domain.PreKeyBundle{}, err
	}

	b := domain.PreKeyBundle{
		Address:               address,
		IdentityKey:           id.XPub,
		SigningKey:            id.EdPub,
		SignedPreKeyID:        spkID,
		SignedPreKey:          spkPub,
		SignedPreKeySignature: sig,
		OneTimePreKeys:        oneTime,
	}
	if err := store.SavePreKeyBundle(b); err != nil {
		return domain.PreKeyBundle{}, err
	}
	return b, nil
}

// Compile-time assertion that Service implements domain.PreKeyService.
var _ domain.PreKeyService = (*Service)(nil)
