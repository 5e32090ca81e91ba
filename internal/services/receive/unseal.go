package receive

import (
	"sealbox/internal/domain"
	"sealbox/internal/protocol/sealed"
)

// unseal strips the anonymizing outer layer of an unidentified-sender
// envelope and validates the recovered certificate. On success it synthesizes
// the identified envelope that actually gets decrypted: inner type, the
// certificate's sender as source, and the inner bytes as content.
//
// Validation failures never reach the inner ciphertext.
func (e *Engine) unseal(st *identityState, env *domain.Envelope) (*domain.Envelope, *Error) {
	content, err := sealed.Unseal(st.Keys.XPriv, st.Keys.XPub, env.Content)
	if err != nil {
		return nil, &Error{Kind: KindInvalidCertificate, Identity: domain.Primary, cause: err}
	}

	cert := content.Certificate
	if !sealed.VerifyCertificate(e.trustRoot, cert, env.ServerTimestamp) {
		return nil, &Error{Kind: KindInvalidCertificate, Identity: domain.Primary, Peer: cert.Sender}
	}

	return &domain.Envelope{
		Type:            content.InnerType,
		Source:          cert.Sender,
		SourceDevice:    cert.DeviceID,
		Destination:     env.Destination,
		ServerTimestamp: env.ServerTimestamp,
		Content:         content.InnerBytes,
	}, nil
}
