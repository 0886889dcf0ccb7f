// Package cryptoutil provides the cryptographic primitives behind
// rate-limit key derivation and secret handling.
//
// It supports:
//   - HMAC-SHA256 keyed hashing with fixed-width hex truncation
//   - KMS-backed decryption of configuration secrets (the rate-limit pepper)
//   - Constant-time hash comparison to prevent timing side-channels
//   - SHA-256 hashing utilities
package cryptoutil
