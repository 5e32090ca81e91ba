package types

// SenderCertificate binds a sender's address, device and identity key, signed
// by the server's trust root. It travels inside the sealed-sender layer and is
// the only proof of origin an unidentified-sender envelope carries.
//
// The certificate is valid only while the envelope's server timestamp is
// strictly below Expiration.
type SenderCertificate struct {
	Sender      Address      `json:"sender"`
	DeviceID    DeviceID     `json:"device_id"`
	IdentityKey X25519Public `json:"identity_key"`
	Expiration  int64        `json:"expiration"`
	Signature   []byte       `json:"signature,omitempty"`
}
