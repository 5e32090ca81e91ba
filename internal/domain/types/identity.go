package types

// LocalIdentity selects one of the two cryptographic identities a client
// account owns. The primary identity carries normal traffic; the secondary
// identity exists only to receive key-exchange messages from peers that
// discovered the account out of band.
type LocalIdentity int

const (
	// Primary is the account identity. All established-session and
	// sealed-sender traffic is addressed to it.
	Primary LocalIdentity = iota
	// Secondary is the discovery identity. Only key-exchange messages
	// are valid for it.
	Secondary
)

// String returns a human-readable name for the identity.
func (l LocalIdentity) String() string {
	switch l {
	case Primary:
		return "primary"
	case Secondary:
		return "secondary"
	default:
		return "unknown"
	}
}

// Identity holds a local identity's long-term X25519 and Ed25519 keys.
type Identity struct {
	XPub   X25519Public   `json:"xpub"`
	XPriv  X25519Private  `json:"xpriv"`
	EdPub  Ed25519Public  `json:"edpub"`
	EdPriv Ed25519Private `json:"edpriv"`
}
