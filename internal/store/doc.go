// Package store provides file-based persistence for sealbox's per-identity
// protocol state.
//
// It contains concrete implementations of the domain storage interfaces,
// serialising data as JSON on disk. All methods are concurrency-safe via
// internal locking. Each local identity owns a distinct directory under the
// configured home; the composed ProtocolFileStore is the unit handed to the
// decryption engine.
//
// The package includes stores for:
//   - Identity keys, passphrase-encrypted (IdentityFileStore)
//   - Signed and one-time pre-keys plus the bundle cache (PreKeyFileStore)
//   - Per-peer ratchet sessions (SessionFileStore)
package store
