// Package signing holds the cryptographic primitives behind vote receipts:
// per-session key derivation, keyed vote signatures, and the hash chain that
// links audit entries together. Everything here is a pure function of its
// inputs (plus randomness for nonces and receipt ids); persistence and
// policy live in the services layer.
package signing
