package session

import (
	"fmt"
	"time"

	"sealbox/internal/domain"
	"sealbox/internal/protocol/ratchet"
	"sealbox/internal/protocol/x3dh"
)

// Service establishes outbound sessions from published bundles and retrieves
// stored ones.
//
// Initiation runs the key agreement against the peer's bundle, seeds the
// ratchet, and persists a session that still carries its handshake parameters.
// The decryption engine clears them once the peer's first reply proves the
// session is live.
type Service struct {
	stores map[domain.LocalIdentity]domain.ProtocolStore
}

// New constructs a session service over one protocol store per local identity.
func New(stores map[domain.LocalIdentity]domain.ProtocolStore) *Service {
	return &Service{stores: stores}
}

// InitiateSession runs the initiator key agreement against the peer's bundle
// and stores the resulting session under li.
func (s *Service) InitiateSession(
	li domain.LocalIdentity,
	passphrase string,
	peer domain.Address,
	bundle domain.PreKeyBundle,
) (domain.Session, error) {
	store, ok := s.stores[li]
	if !ok {
		return domain.Session{}, fmt.Errorf("unknown local identity %s", li)
	}
	id, err := store.LoadIdentity(passphrase)
	if err != nil {
		return domain.Session{}, err
	}

	rootKey, signedPreKeyID, oneTimePreKeyID, ephemeralPublicKey, err := x3dh.InitiatorRoot(id, bundle)
	if err != nil {
		return domain.Session{}, err
	}

	state, err := ratchet.InitAsInitiator(rootKey, bundle.IdentityKey)
	if err != nil {
		return domain.Session{}, err
	}

	session := domain.Session{
		Peer:            peer,
		PeerIdentityKey: bundle.IdentityKey,
		State:           state,
		Handshake: &domain.Handshake{
			InitiatorIdentityKey: id.XPub,
			EphemeralKey:         ephemeralPublicKey,
			SignedPreKeyID:       signedPreKeyID,
			OneTimePreKeyID:      oneTimePreKeyID,
		},
		CreatedUTC: time.Now().Unix(),
	}

	if err := store.SaveSession(peer, session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// GetSession retrieves li's stored session for the given peer.
func (s *Service) GetSession(
	li domain.LocalIdentity,
	peer domain.Address,
) (domain.Session, bool, error) {
	store, ok := s.stores[li]
	if !ok {
		return domain.Session{}, false, fmt.Errorf("unknown local identity %s", li)
	}
	return store.LoadSession(peer)
}

// Compile-time assertion that Service implements domain.SessionService.
var _ domain.SessionService = (*Service)(nil)
