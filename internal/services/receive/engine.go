package receive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"sealbox/internal/domain"
	"sealbox/internal/protocol/ratchet"
	"sealbox/internal/protocol/sealed"
)

// IdentityConfig is one local identity's addressing, keys and protocol store.
type IdentityConfig struct {
	Address  domain.Address
	DeviceID domain.DeviceID
	Keys     domain.Identity
	Store    domain.ProtocolStore
}

// identityState wraps a configured identity with its exclusive section. The
// mutex serialises every session-mutating operation for that identity:
// pre-key lookup, ratchet step, and session store write happen as one unit
// per envelope. The two identities are fully independent resources and are
// never locked together.
type identityState struct {
	mu sync.Mutex
	IdentityConfig
}

// Engine decrypts received envelopes and orchestrates resend recovery.
//
// All store handles are explicit capabilities passed in at construction; the
// engine keeps no global state. Decryption is synchronous and never suspends
// on network I/O; the only outbound activity, the recovery enqueue, happens
// after the exclusive section is released.
type Engine struct {
	log        *zap.Logger
	queue      domain.DeliveryQueue
	trustRoot  domain.Ed25519Public
	identities map[domain.LocalIdentity]*identityState
}

// New constructs an Engine for the given identities. Identities absent from
// the map are simply not registered; envelopes addressed to them fail with a
// wrong-destination error.
func New(
	log *zap.Logger,
	trustRoot domain.Ed25519Public,
	queue domain.DeliveryQueue,
	identities map[domain.LocalIdentity]IdentityConfig,
) *Engine {
	states := make(map[domain.LocalIdentity]*identityState, len(identities))
	for li, cfg := range identities {
		states[li] = &identityState{IdentityConfig: cfg}
	}
	return &Engine{
		log:        log,
		queue:      queue,
		trustRoot:  trustRoot,
		identities: states,
	}
}

// registered returns the address of every configured identity.
func (e *Engine) registered() map[domain.LocalIdentity]domain.Address {
	out := make(map[domain.LocalIdentity]domain.Address, len(e.identities))
	for li, st := range e.identities {
		out[li] = st.Address
	}
	return out
}

// Decrypt routes, unseals if needed, and decrypts one envelope. Each envelope
// gets exactly one attempt; the engine never retries internally. On a
// recoverable key-material failure it additionally schedules a resend request
// to the original sender, then still surfaces the failure to the caller.
func (e *Engine) Decrypt(ctx context.Context, env *domain.Envelope) (domain.DecryptResult, error) {
	li, rerr := resolveIdentity(env, e.registered())
	if rerr != nil {
		e.log.Debug("envelope rejected by router",
			zap.String("envelope_type", env.Type.String()),
			zap.String("kind", rerr.Kind.String()))
		return domain.DecryptResult{}, rerr
	}
	st := e.identities[li]

	st.mu.Lock()
	res, identified, derr := e.decryptLocked(st, li, env)
	st.mu.Unlock()

	if derr != nil {
		var failure *Error
		if errors.As(derr, &failure) && failure.Recoverable() {
			e.requestResend(ctx, st, identified, failure)
		}
		e.log.Debug("envelope decrypt failed",
			zap.String("identity", li.String()),
			zap.String("envelope_type", env.Type.String()),
			zap.Error(derr))
		return domain.DecryptResult{}, derr
	}

	e.log.Debug("envelope decrypted",
		zap.String("identity", li.String()),
		zap.String("peer", identified.Source.String()),
		zap.Bool("sealed_sender", res.SealedSender))
	return res, nil
}

// decryptLocked runs inside the identity's exclusive section. It returns the
// identified envelope alongside any error so the recovery path knows whom to
// address even when the input envelope was anonymous.
func (e *Engine) decryptLocked(
	st *identityState,
	li domain.LocalIdentity,
	env *domain.Envelope,
) (domain.DecryptResult, *domain.Envelope, error) {
	identified := env
	sealedSender := false

	if env.Type == domain.EnvelopeUnidentifiedSender {
		inner, uerr := e.unseal(st, env)
		if uerr != nil {
			return domain.DecryptResult{}, env, uerr
		}
		// Bounded one-level re-entry: only the two direct types are valid
		// inside the sealed layer. A nested unidentified-sender never gets a
		// second unwrap.
		switch inner.Type {
		case domain.EnvelopeCiphertext, domain.EnvelopePreKeyBundle:
		default:
			return domain.DecryptResult{}, inner, &Error{
				Kind:         KindInvalidMessageType,
				Identity:     li,
				EnvelopeType: inner.Type,
			}
		}
		identified = inner
		sealedSender = true
	}

	plaintext, derr := e.decryptIdentified(st, identified)
	if derr != nil {
		return domain.DecryptResult{}, identified, derr
	}
	return domain.DecryptResult{
		Identity:     li,
		Plaintext:    plaintext,
		Envelope:     identified,
		SealedSender: sealedSender,
	}, identified, nil
}

// Encrypt produces an outbound envelope for peer on li's session. It shares
// the identity's exclusive section with Decrypt, since both advance the same
// ratchet state. While the session still carries handshake parameters the
// envelope is emitted as a key-exchange message so the peer can bootstrap.
func (e *Engine) Encrypt(
	ctx context.Context,
	li domain.LocalIdentity,
	peer domain.Address,
	plaintext []byte,
) (domain.Envelope, error) {
	st, ok := e.identities[li]
	if !ok {
		return domain.Envelope{}, fmt.Errorf("identity %s not configured", li)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	sess, ok, err := st.Store.LoadSession(peer)
	if err != nil {
		return domain.Envelope{}, err
	}
	if !ok {
		return domain.Envelope{}, &Error{Kind: KindNoSession, Identity: li, Peer: peer}
	}

	header, ct, err := ratchet.Encrypt(&sess.State, nil, plaintext)
	if err != nil {
		return domain.Envelope{}, err
	}
	body := domain.CiphertextMessage{Header: header, Ciphertext: ct}

	var (
		content []byte
		envType domain.EnvelopeType
	)
	if sess.Handshake != nil {
		envType = domain.EnvelopePreKeyBundle
		content, err = json.Marshal(domain.PreKeyBundleMessage{
			PreKey: domain.PreKeyMessage{
				InitiatorIdentityKey: sess.Handshake.InitiatorIdentityKey,
				EphemeralKey:         sess.Handshake.EphemeralKey,
				SignedPreKeyID:       sess.Handshake.SignedPreKeyID,
				OneTimePreKeyID:      sess.Handshake.OneTimePreKeyID,
			},
			Message: body,
		})
	} else {
		envType = domain.EnvelopeCiphertext
		content, err = json.Marshal(body)
	}
	if err != nil {
		return domain.Envelope{}, err
	}

	// Persist the advanced ratchet state before handing the envelope out, so
	// a crash cannot reuse a message key.
	if err := st.Store.SaveSession(peer, sess); err != nil {
		return domain.Envelope{}, err
	}

	return domain.Envelope{
		Type:            envType,
		Source:          st.Address,
		SourceDevice:    st.DeviceID,
		Destination:     peer,
		ServerTimestamp: time.Now().UnixMilli(),
		Content:         content,
	}, nil
}

// EncryptSealed wraps an outbound message for peer in the anonymizing
// sealed-sender layer. cert is this sender's certificate as issued by the
// trust root; recipientKey is the peer's identity public key.
func (e *Engine) EncryptSealed(
	ctx context.Context,
	li domain.LocalIdentity,
	peer domain.Address,
	recipientKey domain.X25519Public,
	cert domain.SenderCertificate,
	plaintext []byte,
) (domain.Envelope, error) {
	inner, err := e.Encrypt(ctx, li, peer, plaintext)
	if err != nil {
		return domain.Envelope{}, err
	}

	blob, err := sealed.Seal(recipientKey, sealed.MessageContent{
		Certificate: cert,
		InnerType:   inner.Type,
		InnerBytes:  inner.Content,
	})
	if err != nil {
		return domain.Envelope{}, err
	}

	// No source: the whole point of the sealed layer is that the server (and
	// transport) never learn who sent it.
	return domain.Envelope{
		Type:            domain.EnvelopeUnidentifiedSender,
		ServerTimestamp: inner.ServerTimestamp,
		Content:         blob,
	}, nil
}
