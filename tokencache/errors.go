package tokencache

import "errors"

var (
	// ErrInvalidToken wraps every verification failure. The underlying
	// jwt error (jwt.ErrTokenExpired, jwt.ErrTokenSignatureInvalid, ...)
	// stays reachable with errors.Is.
	ErrInvalidToken = errors.New("tokencache: invalid token")

	// ErrTokenRevoked is returned for tokens passed to Revoke.
	ErrTokenRevoked = errors.New("tokencache: token revoked")

	// ErrNilKeyfunc is returned by NewVerifier without a Keyfunc.
	ErrNilKeyfunc = errors.New("tokencache: keyfunc is nil")
)
