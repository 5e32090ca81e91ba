// Package receive is the envelope decryption and session-recovery engine.
//
// It takes an opaque received envelope, determines which local identity it
// targets, decrypts it (directly, via a fresh key exchange, or after
// unsealing an anonymized sender layer), and on recoverable failures
// schedules a resend request back to the original sender.
//
// # Failure taxonomy
//
// Every protocol failure is an *Error with a closed Kind. Routing and trust
// failures (wrong destination, invalid type, bad certificate) are structural
// rejections: no retry, no recovery, no session mutation. A missing session
// is surfaced as-is; the peer must re-initiate out of band. Missing pre-key
// material is the one dual-handling category: the caller sees the failure and
// the original sender is asked, asynchronously, to resend with fresh keys.
//
// # Concurrency
//
// Each local identity's session state is guarded by its own mutex. Pre-key
// lookup, ratchet step, and session write execute as a single exclusive unit
// per envelope; the recovery enqueue happens strictly after release. The two
// identities are independent and are never locked together. Decrypts are not
// cancellable mid-flight; callers that lose interest discard the result.
package receive
