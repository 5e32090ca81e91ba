// Package identity creates and retrieves the long-term key pairs of the two
// local identities.
package identity
