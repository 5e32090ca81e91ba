package sealed

import (
	"encoding/json"

	"sealbox/internal/crypto"
	"sealbox/internal/domain"
)

// IssueCertificate signs cert's payload with the trust root's private key and
// returns the certificate with its signature set. Normally the server does
// this; clients issue certificates only in tests and local tooling.
func IssueCertificate(
	trustPriv domain.Ed25519Private,
	cert domain.SenderCertificate,
) (domain.SenderCertificate, error) {
	payload, err := certPayload(cert)
	if err != nil {
		return domain.SenderCertificate{}, err
	}
	cert.Signature = crypto.SignEd25519(trustPriv, payload)
	return cert, nil
}

// VerifyCertificate checks cert against the trust root at the envelope's
// server timestamp. A certificate whose expiration equals the timestamp is
// already expired; the upper bound is exclusive.
func VerifyCertificate(
	trustRoot domain.Ed25519Public,
	cert domain.SenderCertificate,
	serverTimestamp int64,
) bool {
	payload, err := certPayload(cert)
	if err != nil {
		return false
	}
	if !crypto.VerifyEd25519(trustRoot, payload, cert.Signature) {
		return false
	}
	return serverTimestamp < cert.Expiration
}

// certPayload is the canonical signed form: the certificate with its
// signature stripped.
func certPayload(cert domain.SenderCertificate) ([]byte, error) {
	cert.Signature = nil
	return json.Marshal(cert)
}
