package cache

import "errors"

// Sentinel errors for key derivation.
var (
	ErrInvalidNamespace = errors.New("cache: namespace is invalid")
	ErrNamespaceTooLong = errors.New("cache: namespace exceeds max length")
)
