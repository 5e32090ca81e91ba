package receive

import (
	"encoding/json"
	"fmt"
	"time"

	"sealbox/internal/domain"
	"sealbox/internal/protocol/ratchet"
	"sealbox/internal/protocol/x3dh"
)

// decryptIdentified turns an identified envelope (ciphertext or key-exchange)
// into plaintext. Session state is written only after a successful decrypt;
// every failure path leaves the store exactly as it found it.
func (e *Engine) decryptIdentified(st *identityState, env *domain.Envelope) ([]byte, error) {
	switch env.Type {
	case domain.EnvelopeCiphertext:
		return e.decryptCiphertext(st, env)
	case domain.EnvelopePreKeyBundle:
		return e.decryptPreKeyBundle(st, env)
	default:
		// Unreachable: the router and the unseal step only admit the two
		// direct types.
		return nil, fmt.Errorf("unroutable envelope type %s", env.Type)
	}
}

// decryptCiphertext handles traffic on an established session.
func (e *Engine) decryptCiphertext(st *identityState, env *domain.Envelope) ([]byte, error) {
	var msg domain.CiphertextMessage
	if err := json.Unmarshal(env.Content, &msg); err != nil {
		return nil, fmt.Errorf("parse ciphertext message: %w", err)
	}

	sess, ok, err := st.Store.LoadSession(env.Source)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &Error{Kind: KindNoSession, Peer: env.Source}
	}

	pt, err := ratchet.Decrypt(&sess.State, msg.AssociatedData, msg.Header, msg.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("ratchet decrypt from %q: %w", env.Source, err)
	}

	// The peer is demonstrably on this session now; stop echoing handshake
	// parameters if we were the initiator.
	sess.Handshake = nil
	if err := st.Store.SaveSession(env.Source, sess); err != nil {
		return nil, fmt.Errorf("save session %q: %w", env.Source, err)
	}
	return pt, nil
}

// decryptPreKeyBundle handles a key-exchange message: it derives the shared
// root via the handshake parameters, initialises the ratchet as responder,
// and decrypts the first ciphertext. Referenced pre-keys are checked up front
// and consumed only after success.
func (e *Engine) decryptPreKeyBundle(st *identityState, env *domain.Envelope) ([]byte, error) {
	var msg domain.PreKeyBundleMessage
	if err := json.Unmarshal(env.Content, &msg); err != nil {
		return nil, fmt.Errorf("parse pre-key message: %w", err)
	}
	pm := msg.PreKey

	// A peer keeps attaching handshake parameters until it sees our first
	// reply, so follow-up messages of a fresh conversation can reference
	// pre-keys we already consumed. If the session this handshake created
	// already exists, decrypt on it directly.
	if sess, ok, err := st.Store.LoadSession(env.Source); err != nil {
		return nil, err
	} else if ok && sess.PeerIdentityKey == pm.InitiatorIdentityKey {
		pt, err := ratchet.Decrypt(&sess.State, msg.Message.AssociatedData, msg.Message.Header, msg.Message.Ciphertext)
		if err == nil {
			if err := st.Store.SaveSession(env.Source, sess); err != nil {
				return nil, fmt.Errorf("save session %q: %w", env.Source, err)
			}
			return pt, nil
		}
		// Fall through and treat it as a fresh handshake.
	}

	if len(msg.Message.Header.DiffieHellmanPublicKey) != 32 {
		return nil, fmt.Errorf("pre-key message carries malformed ratchet key")
	}

	spkPriv, _, _, ok, err := st.Store.LoadSignedPreKey(pm.SignedPreKeyID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &Error{Kind: KindMissingSignedPreKey, Peer: env.Source, SignedPreKeyID: pm.SignedPreKeyID}
	}

	var opkPriv *domain.X25519Private
	if pm.OneTimePreKeyID != "" {
		priv, _, ok, err := st.Store.LoadOneTimePreKey(pm.OneTimePreKeyID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &Error{Kind: KindMissingOneTimePreKey, Peer: env.Source, OneTimePreKeyID: pm.OneTimePreKeyID}
		}
		opkPriv = &priv
	}

	root, err := x3dh.ResponderRoot(st.Keys, spkPriv, opkPriv, pm)
	if err != nil {
		return nil, fmt.Errorf("derive root key: %w", err)
	}

	var senderRatchetPub domain.X25519Public
	copy(senderRatchetPub[:], msg.Message.Header.DiffieHellmanPublicKey)

	state, err := ratchet.InitAsResponder(root, st.Keys.XPriv, senderRatchetPub)
	if err != nil {
		return nil, err
	}
	pt, err := ratchet.Decrypt(&state, msg.Message.AssociatedData, msg.Message.Header, msg.Message.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("ratchet decrypt from %q: %w", env.Source, err)
	}

	// Success: consume the referenced key material and persist the session as
	// one unit within the exclusive section.
	if err := st.Store.RemoveSignedPreKey(pm.SignedPreKeyID); err != nil {
		return nil, err
	}
	if pm.OneTimePreKeyID != "" {
		if err := st.Store.RemoveOneTimePreKey(pm.OneTimePreKeyID); err != nil {
			return nil, err
		}
	}
	sess := domain.Session{
		Peer:            env.Source,
		PeerIdentityKey: pm.InitiatorIdentityKey,
		State:           state,
		CreatedUTC:      time.Now().Unix(),
	}
	if err := st.Store.SaveSession(env.Source, sess); err != nil {
		return nil, fmt.Errorf("save session %q: %w", env.Source, err)
	}
	return pt, nil
}
