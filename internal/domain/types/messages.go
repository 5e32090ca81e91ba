package types

// CiphertextMessage is the serialized body of a ciphertext envelope: a ratchet
// header plus the sealed payload.
type CiphertextMessage struct {
	Header         RatchetHeader `json:"header"`
	Ciphertext     []byte        `json:"ciphertext"`
	AssociatedData []byte        `json:"associated_data,omitempty"`
}

// PreKeyBundleMessage is the serialized body of a key-exchange envelope: the
// handshake parameters needed to derive the session, plus the first ciphertext
// encrypted under it.
type PreKeyBundleMessage struct {
	PreKey  PreKeyMessage     `json:"pre_key"`
	Message CiphertextMessage `json:"message"`
}
