package types

// RecoveryMessage asks the original sender to retransmit a message the
// recipient could not decrypt because pre-key material was missing. It is
// addressed to the sender of the failed envelope and carries the recipient's
// current sender-ratchet key when a session already exists, so the sender can
// re-encrypt against live state.
type RecoveryMessage struct {
	ID                string        `json:"id"`
	Destination       Address       `json:"destination"`
	DeviceID          DeviceID      `json:"device_id"`
	Timestamp         int64         `json:"timestamp"`
	CurrentRatchetKey *X25519Public `json:"current_ratchet_key,omitempty"`
}
