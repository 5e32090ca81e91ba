package store

import (
	"os"
	"path/filepath"

	"sealbox/internal/domain"
)

// ProtocolFileStore is the complete on-disk key and session state for one
// local identity. Each identity gets its own directory; stores are never
// shared between identities.
type ProtocolFileStore struct {
	*IdentityFileStore
	*PreKeyFileStore
	*SessionFileStore
}

// NewProtocolFileStore creates (if needed) a per-identity directory under
// home and returns the composed store rooted there.
func NewProtocolFileStore(home string, li domain.LocalIdentity) (*ProtocolFileStore, error) {
	dir := filepath.Join(home, li.String())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &ProtocolFileStore{
		IdentityFileStore: NewIdentityFileStore(dir),
		PreKeyFileStore:   NewPreKeyFileStore(dir),
		SessionFileStore:  NewSessionFileStore(dir),
	}, nil
}

// Compile-time assertion that ProtocolFileStore implements domain.ProtocolStore.
var _ domain.ProtocolStore = (*ProtocolFileStore)(nil)
