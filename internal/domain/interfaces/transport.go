package interfaces

import (
	"context"

	domaintypes "sealbox/internal/domain/types"
)

// EnvelopeFeed streams received envelopes from the transport layer. The feed
// does not interpret envelope content; it only carries the metadata and opaque
// bytes the decryption engine needs.
type EnvelopeFeed interface {
	Next(ctx context.Context) (domaintypes.Envelope, error)
	Close() error
}
