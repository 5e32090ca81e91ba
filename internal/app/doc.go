// Package app wires stores, services, the delivery queue, and the decryption
// engine together for the CLI.
package app
