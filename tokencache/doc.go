// Package tokencache caches verified JWT claims keyed by the raw token.
//
// Signature checks are the expensive part of bearer-token authentication and
// the same token usually arrives many times before it expires. A Verifier
// parses and verifies a token once, stores its registered claims, and on
// every later call only checks that the token has not expired. Expired
// entries are evicted on the read that finds them.
//
// Revoked tokens are kept on a denylist until their own expiry, after which
// the denylist entry is dropped too.
//
// The Keyfunc runs while the cache write lock is held, so it should return
// keys from memory rather than fetch them.
package tokencache
