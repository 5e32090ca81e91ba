// Package x3dh implements the X3DH key-agreement used to bootstrap a Double
// Ratchet session between two parties.
//
// # Overview
//
// X3DH lets an initiator derive a shared 32-byte root key with a responder who
// has published a pre-key bundle. The bundle contains:
//   - Identity key (X25519)
//   - Signed pre-key (X25519) and its Ed25519 signature
//   - Optional one-time pre-keys (X25519)
//
// # Flows
//
// Initiator:
//  1. Verify the signed pre-key signature.
//  2. Generate an ephemeral X25519 key pair.
//  3. Compute DH values (IKa·SPKb, EKa·IKb, EKa·SPKb[, EKa·OPKb]).
//  4. HKDF over the concatenated DH transcript to produce the root key.
//  5. Return root key, the SPK/OPK identifiers used, and the ephemeral public.
//
// Responder:
//  1. Receive the PreKeyMessage (initiator IK, ephemeral EK, SPKID[, OPKID]).
//  2. Look up the SPK private and optionally the OPK private.
//  3. Compute the symmetric DH set (SPKb·IKa, IKb·EKa, SPKb·EKa[, OPKb·EKa]).
//  4. HKDF the same transcript to the identical root key.
//
// Only public material is sent over the wire. One-time pre-keys, when present,
// improve forward secrecy because the responder deletes them after first use.
package x3dh
