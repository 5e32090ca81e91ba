// Package session performs initiator key agreement and persists per-peer
// sessions.
package session
