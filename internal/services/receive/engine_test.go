package receive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"sealbox/internal/crypto"
	"sealbox/internal/domain"
	"sealbox/internal/protocol/ratchet"
	"sealbox/internal/protocol/x3dh"
	"sealbox/internal/queue"
	"sealbox/internal/store"
)

const testTimestamp int64 = 1_700_000_000_000

type fixture struct {
	engine    *Engine
	queue     *queue.Memory
	trustPriv domain.Ed25519Private
	trustPub  domain.Ed25519Public
	configs   map[domain.LocalIdentity]IdentityConfig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	trustPriv, trustPub, err := crypto.GenerateEd25519()
	if err != nil {
		t.Fatalf("generate trust root: %v", err)
	}
	q := queue.NewMemory(8)
	t.Cleanup(func() { q.Close() })

	home := t.TempDir()
	configs := make(map[domain.LocalIdentity]IdentityConfig)
	for _, li := range []domain.LocalIdentity{domain.Primary, domain.Secondary} {
		xPriv, xPub, err := crypto.GenerateX25519()
		if err != nil {
			t.Fatalf("generate identity keys: %v", err)
		}
		edPriv, edPub, err := crypto.GenerateEd25519()
		if err != nil {
			t.Fatalf("generate signing keys: %v", err)
		}
		ps, err := store.NewProtocolFileStore(home, li)
		if err != nil {
			t.Fatalf("open protocol store: %v", err)
		}
		configs[li] = IdentityConfig{
			Address:  domain.Address("alice." + li.String()),
			DeviceID: 1,
			Keys:     domain.Identity{XPub: xPub, XPriv: xPriv, EdPub: edPub, EdPriv: edPriv},
			Store:    ps,
		}
	}

	return &fixture{
		engine:    New(zap.NewNop(), trustPub, q, configs),
		queue:     q,
		trustPriv: trustPriv,
		trustPub:  trustPub,
		configs:   configs,
	}
}

// publishPreKeys installs a signed and a one-time pre-key for li and returns
// the bundle a peer would fetch from the server.
func (f *fixture) publishPreKeys(t *testing.T, li domain.LocalIdentity) domain.PreKeyBundle {
	t.Helper()
	cfg := f.configs[li]

	spkPriv, spkPub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("generate signed pre-key: %v", err)
	}
	spkID := domain.SignedPreKeyID("spk-" + li.String())
	sig := crypto.SignEd25519(cfg.Keys.EdPriv, spkPub.Slice())
	if err := cfg.Store.SaveSignedPreKey(spkID, spkPriv, spkPub, sig); err != nil {
		t.Fatalf("save signed pre-key: %v", err)
	}

	opkPriv, opkPub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("generate one-time pre-key: %v", err)
	}
	opkID := domain.OneTimePreKeyID("opk-" + li.String())
	if err := cfg.Store.SaveOneTimePreKeys([]domain.OneTimePreKeyPair{{ID: opkID, Priv: opkPriv, Pub: opkPub}}); err != nil {
		t.Fatalf("save one-time pre-keys: %v", err)
	}

	return domain.PreKeyBundle{
		Address:               cfg.Address,
		IdentityKey:           cfg.Keys.XPub,
		SigningKey:            cfg.Keys.EdPub,
		SignedPreKeyID:        spkID,
		SignedPreKey:          spkPub,
		SignedPreKeySignature: sig,
		OneTimePreKeys:        []domain.OneTimePreKeyPublic{{ID: opkID, Pub: opkPub}},
	}
}

// peer models the remote side of a conversation, driving the protocol
// primitives directly the way a second client would.
type peer struct {
	addr domain.Address
	keys domain.Identity
	sess domain.Session
}

func newPeer(t *testing.T, addr domain.Address) *peer {
	t.Helper()
	xPriv, xPub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("generate peer keys: %v", err)
	}
	return &peer{addr: addr, keys: domain.Identity{XPub: xPub, XPriv: xPriv}}
}

// initiate runs the initiator side of the key agreement against bundle.
func (p *peer) initiate(t *testing.T, bundle domain.PreKeyBundle) {
	t.Helper()
	root, spkID, opkID, ephPub, err := x3dh.InitiatorRoot(p.keys, bundle)
	if err != nil {
		t.Fatalf("initiator root: %v", err)
	}
	state, err := ratchet.InitAsInitiator(root, bundle.IdentityKey)
	if err != nil {
		t.Fatalf("init ratchet: %v", err)
	}
	p.sess = domain.Session{
		Peer:            bundle.Address,
		PeerIdentityKey: bundle.IdentityKey,
		State:           state,
		Handshake: &domain.Handshake{
			InitiatorIdentityKey: p.keys.XPub,
			EphemeralKey:         ephPub,
			SignedPreKeyID:       spkID,
			OneTimePreKeyID:      opkID,
		},
	}
}

// preKeyEnvelope encrypts plaintext and wraps it as a key-exchange envelope.
func (p *peer) preKeyEnvelope(t *testing.T, dest domain.Address, plaintext []byte) domain.Envelope {
	t.Helper()
	header, ct, err := ratchet.Encrypt(&p.sess.State, nil, plaintext)
	if err != nil {
		t.Fatalf("peer encrypt: %v", err)
	}
	content, err := json.Marshal(domain.PreKeyBundleMessage{
		PreKey: domain.PreKeyMessage{
			InitiatorIdentityKey: p.sess.Handshake.InitiatorIdentityKey,
			EphemeralKey:         p.sess.Handshake.EphemeralKey,
			SignedPreKeyID:       p.sess.Handshake.SignedPreKeyID,
			OneTimePreKeyID:      p.sess.Handshake.OneTimePreKeyID,
		},
		Message: domain.CiphertextMessage{Header: header, Ciphertext: ct},
	})
	if err != nil {
		t.Fatalf("marshal pre-key message: %v", err)
	}
	return domain.Envelope{
		Type:            domain.EnvelopePreKeyBundle,
		Source:          p.addr,
		SourceDevice:    7,
		Destination:     dest,
		ServerTimestamp: testTimestamp,
		Content:         content,
	}
}

// ciphertextEnvelope encrypts plaintext as established-session traffic.
func (p *peer) ciphertextEnvelope(t *testing.T, dest domain.Address, plaintext []byte) domain.Envelope {
	t.Helper()
	header, ct, err := ratchet.Encrypt(&p.sess.State, nil, plaintext)
	if err != nil {
		t.Fatalf("peer encrypt: %v", err)
	}
	content, err := json.Marshal(domain.CiphertextMessage{Header: header, Ciphertext: ct})
	if err != nil {
		t.Fatalf("marshal ciphertext message: %v", err)
	}
	return domain.Envelope{
		Type:            domain.EnvelopeCiphertext,
		Source:          p.addr,
		SourceDevice:    7,
		Destination:     dest,
		ServerTimestamp: testTimestamp,
		Content:         content,
	}
}

func TestDecryptPreKeyBundleEstablishesSession(t *testing.T) {
	f := newFixture(t)
	bundle := f.publishPreKeys(t, domain.Primary)
	bob := newPeer(t, "bob")
	bob.initiate(t, bundle)

	want := []byte("hello from bob")
	env := bob.preKeyEnvelope(t, "alice.primary", want)
	res, err := f.engine.Decrypt(context.Background(), &env)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(res.Plaintext, want) {
		t.Fatalf("plaintext = %q, want %q", res.Plaintext, want)
	}
	if res.Identity != domain.Primary {
		t.Fatalf("identity = %s, want primary", res.Identity)
	}
	if res.SealedSender {
		t.Fatal("sealed-sender flag set on direct envelope")
	}
	if res.Envelope != &env {
		t.Fatal("direct decrypt must return the input envelope, not a copy")
	}

	// Session persisted, referenced pre-keys consumed.
	st := f.configs[domain.Primary].Store
	if _, ok, err := st.LoadSession("bob"); err != nil || !ok {
		t.Fatalf("session not saved: ok=%v err=%v", ok, err)
	}
	if _, _, _, ok, _ := st.LoadSignedPreKey(bundle.SignedPreKeyID); ok {
		t.Fatal("signed pre-key not consumed")
	}
	if _, _, ok, _ := st.LoadOneTimePreKey(bundle.OneTimePreKeys[0].ID); ok {
		t.Fatal("one-time pre-key not consumed")
	}
}

func TestDecryptPreKeyBundleForSecondaryIdentity(t *testing.T) {
	f := newFixture(t)
	bundle := f.publishPreKeys(t, domain.Secondary)
	bob := newPeer(t, "bob")
	bob.initiate(t, bundle)

	res, err := f.engine.Decrypt(context.Background(), ptr(bob.preKeyEnvelope(t, "alice.secondary", []byte("psst"))))
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if res.Identity != domain.Secondary {
		t.Fatalf("identity = %s, want secondary", res.Identity)
	}

	// The secondary identity's state is isolated from the primary's.
	if _, ok, _ := f.configs[domain.Primary].Store.LoadSession("bob"); ok {
		t.Fatal("session leaked into primary identity store")
	}
}

func TestDecryptCiphertextContinuesSession(t *testing.T) {
	f := newFixture(t)
	bundle := f.publishPreKeys(t, domain.Primary)
	bob := newPeer(t, "bob")
	bob.initiate(t, bundle)

	if _, err := f.engine.Decrypt(context.Background(), ptr(bob.preKeyEnvelope(t, "alice.primary", []byte("first")))); err != nil {
		t.Fatalf("handshake decrypt: %v", err)
	}

	want := []byte("second message, same chain")
	res, err := f.engine.Decrypt(context.Background(), ptr(bob.ciphertextEnvelope(t, "alice.primary", want)))
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(res.Plaintext, want) {
		t.Fatalf("plaintext = %q, want %q", res.Plaintext, want)
	}
}

func TestDecryptPreKeyBundleReplayAfterConsume(t *testing.T) {
	f := newFixture(t)
	bundle := f.publishPreKeys(t, domain.Primary)
	bob := newPeer(t, "bob")
	bob.initiate(t, bundle)

	// Bob has not seen a reply yet, so both messages carry the handshake and
	// reference pre-keys the first decrypt consumes.
	env1 := bob.preKeyEnvelope(t, "alice.primary", []byte("one"))
	env2 := bob.preKeyEnvelope(t, "alice.primary", []byte("two"))

	if _, err := f.engine.Decrypt(context.Background(), &env1); err != nil {
		t.Fatalf("first decrypt: %v", err)
	}
	res, err := f.engine.Decrypt(context.Background(), &env2)
	if err != nil {
		t.Fatalf("second decrypt: %v", err)
	}
	if !bytes.Equal(res.Plaintext, []byte("two")) {
		t.Fatalf("plaintext = %q, want %q", res.Plaintext, "two")
	}
}

func TestDecryptSameEnvelopeTwice(t *testing.T) {
	f := newFixture(t)
	bundle := f.publishPreKeys(t, domain.Primary)
	bob := newPeer(t, "bob")
	bob.initiate(t, bundle)

	env := bob.preKeyEnvelope(t, "alice.primary", []byte("once only"))
	if _, err := f.engine.Decrypt(context.Background(), &env); err != nil {
		t.Fatalf("first decrypt: %v", err)
	}

	// The exact same envelope again: the ratchet already consumed its message
	// key and the referenced pre-keys are gone, so this must fail both ways.
	if _, err := f.engine.Decrypt(context.Background(), &env); err == nil {
		t.Fatal("identical envelope decrypted twice")
	}
}

func TestRecoveryCarriesCurrentRatchetKey(t *testing.T) {
	f := newFixture(t)
	bundle := f.publishPreKeys(t, domain.Primary)
	cfg := f.configs[domain.Primary]
	bob := newPeer(t, "bob")
	bob.initiate(t, bundle)

	if _, err := f.engine.Decrypt(context.Background(), ptr(bob.preKeyEnvelope(t, "alice.primary", []byte("hi")))); err != nil {
		t.Fatalf("handshake decrypt: %v", err)
	}

	// Bob reinstalled: new identity keys, same address, and a bundle alice
	// never published. The handshake fails on the unknown signed pre-key, but
	// a session with bob already exists.
	_, spkPub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("generate signed pre-key: %v", err)
	}
	stale := domain.PreKeyBundle{
		Address:               cfg.Address,
		IdentityKey:           cfg.Keys.XPub,
		SigningKey:            cfg.Keys.EdPub,
		SignedPreKeyID:        "spk-stale",
		SignedPreKey:          spkPub,
		SignedPreKeySignature: crypto.SignEd25519(cfg.Keys.EdPriv, spkPub.Slice()),
	}
	bob2 := newPeer(t, "bob")
	bob2.initiate(t, stale)

	_, err = f.engine.Decrypt(context.Background(), ptr(bob2.preKeyEnvelope(t, "alice.primary", []byte("again?"))))
	var failure *Error
	if !errors.As(err, &failure) || failure.Kind != KindMissingSignedPreKey {
		t.Fatalf("got %v, want missing-signed-pre-key", err)
	}

	sess, ok, err := cfg.Store.LoadSession("bob")
	if err != nil || !ok {
		t.Fatalf("load session: ok=%v err=%v", ok, err)
	}
	select {
	case msg := <-f.queue.Messages():
		if msg.CurrentRatchetKey == nil {
			t.Fatal("recovery message carries no ratchet key despite an existing session")
		}
		if *msg.CurrentRatchetKey != sess.State.DiffieHellmanPublic {
			t.Fatal("recovery ratchet key does not match the stored session")
		}
	case <-time.After(time.Second):
		t.Fatal("no recovery message enqueued")
	}
}

func TestDecryptCiphertextWithoutSession(t *testing.T) {
	f := newFixture(t)
	bob := newPeer(t, "bob")
	// A ratchet state bob invented on his own; alice has no session.
	bob.sess.State = domain.RatchetState{
		SendChainKey: bytes.Repeat([]byte{1}, 32),
		SkippedKeys:  map[string][]byte{},
	}

	_, err := f.engine.Decrypt(context.Background(), ptr(bob.ciphertextEnvelope(t, "alice.primary", []byte("orphan"))))
	var failure *Error
	if !errors.As(err, &failure) || failure.Kind != KindNoSession {
		t.Fatalf("got %v, want no-session", err)
	}
	if failure.Recoverable() {
		t.Fatal("no-session must not trigger recovery")
	}
	select {
	case msg := <-f.queue.Messages():
		t.Fatalf("unexpected recovery message %+v", msg)
	default:
	}
}

func TestDecryptFailureLeavesSessionIntact(t *testing.T) {
	f := newFixture(t)
	bundle := f.publishPreKeys(t, domain.Primary)
	bob := newPeer(t, "bob")
	bob.initiate(t, bundle)

	if _, err := f.engine.Decrypt(context.Background(), ptr(bob.preKeyEnvelope(t, "alice.primary", []byte("first")))); err != nil {
		t.Fatalf("handshake decrypt: %v", err)
	}

	env := bob.ciphertextEnvelope(t, "alice.primary", []byte("tamper me"))
	tampered := env
	tampered.Content = bytes.Replace(env.Content, []byte(`"ciphertext"`), []byte(`"ciphertexz"`), 1)
	if _, err := f.engine.Decrypt(context.Background(), &tampered); err == nil {
		t.Fatal("tampered envelope decrypted")
	}

	// The failed attempt must not have advanced the stored chain.
	res, err := f.engine.Decrypt(context.Background(), &env)
	if err != nil {
		t.Fatalf("replay of original after failed attempt: %v", err)
	}
	if !bytes.Equal(res.Plaintext, []byte("tamper me")) {
		t.Fatalf("plaintext = %q", res.Plaintext)
	}
}

func TestMissingSignedPreKeyIsRecoverable(t *testing.T) {
	f := newFixture(t)
	cfg := f.configs[domain.Primary]

	// Bob works from a bundle alice never actually published.
	spkPriv, spkPub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("generate signed pre-key: %v", err)
	}
	sig := crypto.SignEd25519(cfg.Keys.EdPriv, spkPub.Slice())
	bundle := domain.PreKeyBundle{
		Address:               cfg.Address,
		IdentityKey:           cfg.Keys.XPub,
		SigningKey:            cfg.Keys.EdPub,
		SignedPreKeyID:        "spk-stale",
		SignedPreKey:          spkPub,
		SignedPreKeySignature: sig,
	}
	bob := newPeer(t, "bob")
	bob.initiate(t, bundle)
	env := bob.preKeyEnvelope(t, "alice.primary", []byte("hello?"))

	_, err = f.engine.Decrypt(context.Background(), &env)
	var failure *Error
	if !errors.As(err, &failure) || failure.Kind != KindMissingSignedPreKey {
		t.Fatalf("got %v, want missing-signed-pre-key", err)
	}
	if !failure.Recoverable() {
		t.Fatal("missing signed pre-key must be recoverable")
	}

	select {
	case msg := <-f.queue.Messages():
		if msg.Destination != "bob" || msg.DeviceID != 7 {
			t.Fatalf("recovery addressed to %s/%d, want bob/7", msg.Destination, msg.DeviceID)
		}
		if msg.Timestamp != testTimestamp {
			t.Fatalf("recovery timestamp = %d, want %d", msg.Timestamp, testTimestamp)
		}
		if msg.ID == "" {
			t.Fatal("recovery message has no id")
		}
		if msg.CurrentRatchetKey != nil {
			t.Fatal("no session exists, recovery must not carry a ratchet key")
		}
	case <-time.After(time.Second):
		t.Fatal("no recovery message enqueued")
	}

	// Idempotent retry: once the referenced key material exists, the very same
	// envelope decrypts.
	if err := cfg.Store.SaveSignedPreKey("spk-stale", spkPriv, spkPub, sig); err != nil {
		t.Fatalf("install signed pre-key: %v", err)
	}
	res, err := f.engine.Decrypt(context.Background(), &env)
	if err != nil {
		t.Fatalf("retry after install: %v", err)
	}
	if !bytes.Equal(res.Plaintext, []byte("hello?")) {
		t.Fatalf("plaintext = %q", res.Plaintext)
	}
}

func TestMissingOneTimePreKeyIsRecoverable(t *testing.T) {
	f := newFixture(t)
	bundle := f.publishPreKeys(t, domain.Primary)
	cfg := f.configs[domain.Primary]

	// The referenced one-time pre-key vanished before the message arrived.
	if err := cfg.Store.RemoveOneTimePreKey(bundle.OneTimePreKeys[0].ID); err != nil {
		t.Fatalf("remove one-time pre-key: %v", err)
	}

	bob := newPeer(t, "bob")
	bob.initiate(t, bundle)
	env := bob.preKeyEnvelope(t, "alice.primary", []byte("hello?"))

	_, err := f.engine.Decrypt(context.Background(), &env)
	var failure *Error
	if !errors.As(err, &failure) || failure.Kind != KindMissingOneTimePreKey {
		t.Fatalf("got %v, want missing-one-time-pre-key", err)
	}

	select {
	case msg := <-f.queue.Messages():
		if msg.Destination != "bob" {
			t.Fatalf("recovery addressed to %s, want bob", msg.Destination)
		}
	case <-time.After(time.Second):
		t.Fatal("no recovery message enqueued")
	}

	// The signed pre-key lookup succeeded but nothing may have been consumed.
	if _, _, _, ok, _ := cfg.Store.LoadSignedPreKey(bundle.SignedPreKeyID); !ok {
		t.Fatal("signed pre-key consumed on failed decrypt")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	f := newFixture(t)
	bundle := f.publishPreKeys(t, domain.Primary)
	bob := newPeer(t, "bob")
	bob.initiate(t, bundle)

	if _, err := f.engine.Decrypt(context.Background(), ptr(bob.preKeyEnvelope(t, "alice.primary", []byte("hi alice")))); err != nil {
		t.Fatalf("inbound decrypt: %v", err)
	}

	// Alice replies on the freshly established session; bob decrypts with his
	// own ratchet state.
	reply, err := f.engine.Encrypt(context.Background(), domain.Primary, "bob", []byte("hi bob"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if reply.Type != domain.EnvelopeCiphertext {
		t.Fatalf("reply type = %s, want ciphertext", reply.Type)
	}
	if reply.Source != "alice.primary" {
		t.Fatalf("reply source = %s", reply.Source)
	}

	var msg domain.CiphertextMessage
	if err := json.Unmarshal(reply.Content, &msg); err != nil {
		t.Fatalf("parse reply: %v", err)
	}
	pt, err := ratchet.Decrypt(&bob.sess.State, msg.AssociatedData, msg.Header, msg.Ciphertext)
	if err != nil {
		t.Fatalf("bob decrypt: %v", err)
	}
	if !bytes.Equal(pt, []byte("hi bob")) {
		t.Fatalf("plaintext = %q", pt)
	}
}

func TestEncryptWithoutSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Encrypt(context.Background(), domain.Primary, "stranger", []byte("hi"))
	var failure *Error
	if !errors.As(err, &failure) || failure.Kind != KindNoSession {
		t.Fatalf("got %v, want no-session", err)
	}
}

func ptr(env domain.Envelope) *domain.Envelope { return &env }
