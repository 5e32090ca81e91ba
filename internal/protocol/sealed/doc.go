// Package sealed implements the anonymizing outer layer of sealed-sender
// envelopes and the sender certificates carried inside it.
//
// A sealed envelope hides the sender's identity from the server: the outer
// layer is encrypted to the recipient's identity key with an ephemeral X25519
// key, and the true sender is revealed only by the certificate recovered after
// unsealing. Certificates are signed by the server's trust root and expire;
// validation is strict about the boundary (an envelope timestamped exactly at
// expiration is rejected).
package sealed
