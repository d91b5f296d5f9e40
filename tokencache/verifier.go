package tokencache

import (
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/synccache/cache"
	"github.com/jonwraymond/synccache/observe"
)

// Config configures a Verifier.
type Config struct {
	// Keyfunc returns the verification key for a parsed token. Required.
	// It runs without any cache lock held, so it may block on a remote key
	// fetch. Concurrent Verify calls for the same token share one call.
	Keyfunc jwt.Keyfunc

	// Issuer is the expected iss claim. Empty skips the check.
	Issuer string

	// Audience is the expected aud claim. Empty skips the check.
	Audience string

	// Leeway tolerates clock skew on exp, nbf and iat.
	Leeway time.Duration

	// Methods restricts the accepted alg header values. Empty accepts any
	// method the key type supports.
	Methods []string

	// Name is the cache name reported in telemetry.
	// Default: "tokens"
	Name string

	// Instrumentation records cache metrics and debug logs.
	Instrumentation *observe.Instrumentation

	// Now is the clock. Default: time.Now
	Now func() time.Time
}

// Verifier verifies JWTs and caches the result until the token expires.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Errors: failures wrap ErrInvalidToken or ErrTokenRevoked and are never
//     cached.
type Verifier struct {
	keyfunc jwt.Keyfunc
	parser  *jwt.Parser
	leeway  time.Duration
	now     func() time.Time

	verified *cache.Cache[string, *jwt.RegisteredClaims]
	revoked  *cache.Cache[string, time.Time]
	group    singleflight.Group
}

// NewVerifier creates a Verifier.
func NewVerifier(cfg Config) (*Verifier, error) {
	if cfg.Keyfunc == nil {
		return nil, ErrNilKeyfunc
	}
	if cfg.Name == "" {
		cfg.Name = "tokens"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	opts := []jwt.ParserOption{
		jwt.WithLeeway(cfg.Leeway),
		jwt.WithTimeFunc(cfg.Now),
		jwt.WithIssuedAt(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	if len(cfg.Methods) > 0 {
		opts = append(opts, jwt.WithValidMethods(cfg.Methods))
	}

	return &Verifier{
		keyfunc: cfg.Keyfunc,
		parser:  jwt.NewParser(opts...),
		leeway:  cfg.Leeway,
		now:     cfg.Now,
		verified: cache.New[string, *jwt.RegisteredClaims](
			cache.WithName(cfg.Name),
			cache.WithInstrumentation(cfg.Instrumentation),
		),
		revoked: cache.New[string, time.Time](
			cache.WithName(cfg.Name+".revoked"),
			cache.WithInstrumentation(cfg.Instrumentation),
		),
	}, nil
}

// Verify returns the registered claims of token. The first call for a token
// checks its signature and claims; later calls only check expiry. The
// returned claims are a copy.
func (v *Verifier) Verify(token string) (*jwt.RegisteredClaims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, jwt.ErrTokenMalformed)
	}
	if v.isRevoked(token) {
		return nil, ErrTokenRevoked
	}

	claims, ok := v.verified.GetOrRevalidate(token, v.valid)
	if !ok {
		res, err, _ := v.group.Do(token, func() (any, error) {
			return v.verifyAndStore(token)
		})
		if err != nil {
			return nil, err
		}
		claims = res.(*jwt.RegisteredClaims)

		// A Revoke that ran while the token was being verified may have
		// deleted the entry before it was stored.
		if v.isRevoked(token) {
			v.verified.Delete(token)
			return nil, ErrTokenRevoked
		}
	}
	return cloneClaims(claims), nil
}

// verifyAndStore parses token outside any cache lock and publishes the
// claims. An entry stored by a previous flight is reused.
func (v *Verifier) verifyAndStore(token string) (*jwt.RegisteredClaims, error) {
	if c, ok := v.verified.GetOrRevalidate(token, v.valid); ok {
		return c, nil
	}

	parsed, err := v.parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	stored, ok := v.verified.GetOrPopulateWithRevalidation(token,
		func() (*jwt.RegisteredClaims, bool) { return parsed, true },
		v.valid,
	)
	if !ok {
		// A concurrently stored entry for token expired and was evicted.
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, jwt.ErrTokenExpired)
	}
	return stored, nil
}

// Revoke rejects token from now until it expires. The expiry is read from
// the token without verifying it. A token without a readable exp stays
// revoked for the life of the Verifier.
func (v *Verifier) Revoke(token string) {
	var exp time.Time
	if c, ok := v.verified.Get(token); ok {
		exp = expiry(c)
	} else {
		var c jwt.RegisteredClaims
		if _, _, err := v.parser.ParseUnverified(token, &c); err == nil {
			exp = expiry(&c)
		}
	}

	v.revoked.Set(token, exp)
	v.verified.Delete(token)
}

// Sweep evicts expired verified tokens and denylist entries whose token has
// expired. It returns the number of entries removed.
func (v *Verifier) Sweep() int {
	removed := 0
	for _, token := range v.verified.Keys() {
		if _, ok := v.verified.GetOrRevalidate(token, v.valid); !ok {
			removed++
		}
	}
	for _, token := range v.revoked.Keys() {
		if _, ok := v.revoked.GetOrRevalidate(token, v.unexpired); !ok {
			removed++
		}
	}
	return removed
}

// Len returns the number of cached verified tokens.
func (v *Verifier) Len() int {
	return v.verified.Len()
}

// RevokedLen returns the number of denylisted tokens.
func (v *Verifier) RevokedLen() int {
	return v.revoked.Len()
}

func (v *Verifier) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	if _, err := v.parser.ParseWithClaims(token, claims, v.keyfunc); err != nil {
		return nil, err
	}
	return claims, nil
}

func (v *Verifier) isRevoked(token string) bool {
	_, ok := v.revoked.GetOrRevalidate(token, v.unexpired)
	return ok
}

func (v *Verifier) valid(c *jwt.RegisteredClaims) bool {
	return v.unexpired(expiry(c))
}

// unexpired reports whether exp, shifted by the leeway, is still ahead.
// The zero time means no expiry.
func (v *Verifier) unexpired(exp time.Time) bool {
	if exp.IsZero() {
		return true
	}
	return v.now().Before(exp.Add(v.leeway))
}

func expiry(c *jwt.RegisteredClaims) time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

func cloneClaims(c *jwt.RegisteredClaims) *jwt.RegisteredClaims {
	out := *c
	out.Audience = slices.Clone(c.Audience)
	return &out
}
