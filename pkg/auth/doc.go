// Package auth issues and resolves session tokens and defines the
// per-request account context.
//
// Tokens have the form tally_<base64url(32 random bytes)>. Only their SHA256
// hash is stored, so a leaked sessions table cannot be replayed.
package auth
