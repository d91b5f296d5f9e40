package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// MaxNamespaceLength is the maximum allowed length for a Keyer namespace.
const MaxNamespaceLength = 256

// Keyer derives deterministic string keys from structured inputs.
//
// Contract:
// - Determinism: equal inputs produce equal keys regardless of map iteration order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key derives a key for input within namespace.
	Key(namespace string, input any) (string, error)
}

// HashKeyer derives SHA-256 based keys.
type HashKeyer struct{}

// NewHashKeyer creates a new hash keyer.
func NewHashKeyer() *HashKeyer {
	return &HashKeyer{}
}

// Key returns <namespace>:<hash>, where hash is the first 16 hex characters
// of SHA-256 over the canonical JSON encoding of input.
func (k *HashKeyer) Key(namespace string, input any) (string, error) {
	if err := validateNamespace(namespace); err != nil {
		return "", err
	}

	canonical, err := canonicalJSON(input)
	if err != nil {
		return "", fmt.Errorf("cache: canonicalize input: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return namespace + ":" + hex.EncodeToString(sum[:8]), nil
}

func validateNamespace(ns string) error {
	if strings.TrimSpace(ns) == "" || strings.ContainsAny(ns, "\n\r") {
		return ErrInvalidNamespace
	}
	if len(ns) > MaxNamespaceLength {
		return ErrNamespaceTooLong
	}
	return nil
}

// canonicalJSON encodes v with object keys sorted at every level.
func canonicalJSON(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case map[string]any:
		buf := []byte{'{'}
		for i, k := range slices.Sorted(maps.Keys(val)) {
			if i > 0 {
				buf = append(buf, ',')
			}
			name, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			elem, err := canonicalJSON(val[k])
			if err != nil {
				return nil, err
			}
			buf = append(buf, name...)
			buf = append(buf, ':')
			buf = append(buf, elem...)
		}
		return append(buf, '}'), nil
	case []any:
		buf := []byte{'['}
		for i, e := range val {
			if i > 0 {
				buf = append(buf, ',')
			}
			elem, err := canonicalJSON(e)
			if err != nil {
				return nil, err
			}
			buf = append(buf, elem...)
		}
		return append(buf, ']'), nil
	default:
		// encoding/json already sorts the keys of typed maps.
		return json.Marshal(v)
	}
}

// Ensure HashKeyer implements Keyer
var _ Keyer = (*HashKeyer)(nil)
