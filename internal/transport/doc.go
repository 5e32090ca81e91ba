// Package transport delivers envelopes from the network to the decryption
// engine. It never inspects envelope content.
package transport
