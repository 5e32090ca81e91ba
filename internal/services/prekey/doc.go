// Package prekey generates signed and one-time pre-keys and assembles the
// public bundle an identity publishes.
package prekey
