package types

// EnvelopeType classifies how an envelope's content must be decrypted.
type EnvelopeType int

const (
	// EnvelopeUnknown is any type this client does not handle.
	EnvelopeUnknown EnvelopeType = iota
	// EnvelopeCiphertext is a message on an established ratchet session.
	EnvelopeCiphertext
	// EnvelopePreKeyBundle is a key-exchange message that establishes a
	// session as a side effect of decryption.
	EnvelopePreKeyBundle
	// EnvelopeUnidentifiedSender hides the sender behind an anonymizing
	// outer layer that must be unsealed first.
	EnvelopeUnidentifiedSender
)

// String returns a short name for the envelope type.
func (t EnvelopeType) String() string {
	switch t {
	case EnvelopeCiphertext:
		return "ciphertext"
	case EnvelopePreKeyBundle:
		return "prekey-bundle"
	case EnvelopeUnidentifiedSender:
		return "unidentified-sender"
	default:
		return "unknown"
	}
}

// Envelope is a received encrypted message container. It is created by the
// transport layer and read-only to the decryption engine; Content stays
// opaque until handed to the protocol layer.
type Envelope struct {
	Type            EnvelopeType `json:"type"`
	Source          Address      `json:"source,omitempty"` // empty for unidentified sender
	SourceDevice    DeviceID     `json:"source_device,omitempty"`
	Destination     Address      `json:"destination,omitempty"` // optional routing hint
	ServerTimestamp int64        `json:"server_timestamp"`
	Content         []byte       `json:"content"`
}

// DecryptResult is the outcome of a successful envelope decryption.
// Envelope is the identified envelope that was actually decrypted: the input
// envelope itself for direct types, or a synthesized one after unsealing.
type DecryptResult struct {
	Identity     LocalIdentity
	Plaintext    []byte
	Envelope     *Envelope
	SealedSender bool
}
