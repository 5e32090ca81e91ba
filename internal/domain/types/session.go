package types

// Handshake echoes the key-exchange parameters an initiator must attach to
// outgoing messages until the peer has demonstrably established the session.
type Handshake struct {
	InitiatorIdentityKey X25519Public    `json:"initiator_identity_key"`
	EphemeralKey         X25519Public    `json:"ephemeral_key"`
	SignedPreKeyID       SignedPreKeyID  `json:"signed_pre_key_id"`
	OneTimePreKeyID      OneTimePreKeyID `json:"one_time_pre_key_id,omitempty"`
}

// Session is the long-lived per-peer ratchet state. It is owned by exactly one
// local identity's protocol store, mutated only under that identity's exclusive
// section, and never shared across identities.
type Session struct {
	Peer            Address      `json:"peer"`
	PeerIdentityKey X25519Public `json:"peer_identity_key"`
	State           RatchetState `json:"state"`
	Handshake       *Handshake   `json:"handshake,omitempty"` // initiator side only
	CreatedUTC      int64        `json:"created_utc"`
}
