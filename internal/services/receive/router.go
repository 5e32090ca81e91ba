package receive

import "sealbox/internal/domain"

// resolveIdentity decides which local identity an envelope must be decrypted
// under. Pure classification: it never touches session state, so a rejected
// envelope leaves no trace.
//
// Rules, validated in order:
//  1. An explicit destination must match exactly one registered identity.
//  2. The envelope type must be compatible with the resolved identity:
//     ciphertext and unidentified-sender traffic require the primary
//     identity; key-exchange messages are valid for either.
//  3. Without a destination hint, the primary identity is assumed (rule 2
//     still applies).
func resolveIdentity(
	env *domain.Envelope,
	registered map[domain.LocalIdentity]domain.Address,
) (domain.LocalIdentity, *Error) {
	li := domain.Primary
	if env.Destination != "" {
		found := false
		for candidate, addr := range registered {
			if addr == env.Destination {
				li = candidate
				found = true
				break
			}
		}
		if !found {
			return 0, &Error{Kind: KindWrongDestination, Peer: env.Destination}
		}
	}
	if err := checkTypeForIdentity(env.Type, li); err != nil {
		return 0, err
	}
	return li, nil
}

// checkTypeForIdentity enforces rule 2 above. It also rejects envelope types
// this client does not handle.
func checkTypeForIdentity(t domain.EnvelopeType, li domain.LocalIdentity) *Error {
	switch t {
	case domain.EnvelopeCiphertext, domain.EnvelopeUnidentifiedSender:
		// These require an established session or a sender-certificate flow,
		// neither of which the secondary identity supports.
		if li != domain.Primary {
			return &Error{Kind: KindInvalidMessageType, Identity: li, EnvelopeType: t}
		}
		return nil
	case domain.EnvelopePreKeyBundle:
		return nil
	default:
		return &Error{Kind: KindInvalidMessageType, Identity: li, EnvelopeType: t}
	}
}
