// Package auth issues and verifies the room-scoped capability tokens that
// gate producer and observer connections. Tokens are self-contained: the room
// is part of the signed payload, so a token is only ever valid for the room
// it was issued for, and expiry is the sole invalidation mechanism.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Version is the token format version prefix.
const Version = "v1"

// Policy bounds the lifetime an issued token may carry and the clock skew
// tolerated during verification.
type Policy struct {
	MinTTL    time.Duration
	MaxTTL    time.Duration
	ClockSkew time.Duration
}

// DefaultPolicy returns the standard issuance policy: 30s-10m lifetime,
// 30s of tolerated clock skew.
func DefaultPolicy() Policy {
	return Policy{
		MinTTL:    30 * time.Second,
		MaxTTL:    10 * time.Minute,
		ClockSkew: 30 * time.Second,
	}
}

// Authority signs and verifies capability tokens with a shared secret.
// Purely computational; safe for concurrent use.
type Authority struct {
	secret []byte
	policy Policy
	now    func() time.Time
}

// New creates an Authority with the default policy.
func New(secret string) *Authority {
	return NewWithPolicy(secret, DefaultPolicy())
}

// NewWithPolicy creates an Authority with a custom issuance policy.
func NewWithPolicy(secret string, policy Policy) *Authority {
	return &Authority{
		secret: []byte(secret),
		policy: policy,
		now:    time.Now,
	}
}

// Issue creates a token authorizing access to room until now+ttl.
// The requested ttl is clamped into the policy range. The token string is
// "v1.<expiry-unix>.<base64url signature>" where the signature covers
// "room|expiry".
func (a *Authority) Issue(room string, ttl time.Duration) (string, time.Time) {
	if ttl < a.policy.MinTTL {
		ttl = a.policy.MinTTL
	} else if ttl > a.policy.MaxTTL {
		ttl = a.policy.MaxTTL
	}
	expiry := a.now().Add(ttl).Truncate(time.Second)
	token := fmt.Sprintf("%s.%d.%s", Version, expiry.Unix(), a.sign(room, expiry.Unix()))
	return token, expiry
}

// Verify reports whether token grants access to room at the current time.
// Rejects on version mismatch, malformed structure, expiry beyond the skew
// allowance, or signature mismatch. The signature check is constant-time.
func (a *Authority) Verify(token, room string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] != Version {
		return false
	}
	expiry, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return false
	}
	if a.now().After(time.Unix(expiry, 0).Add(a.policy.ClockSkew)) {
		return false
	}
	return hmac.Equal([]byte(parts[2]), []byte(a.sign(room, expiry)))
}

func (a *Authority) sign(room string, expiry int64) string {
	mac := hmac.New(sha256.New, a.secret)
	fmt.Fprintf(mac, "%s|%d", room, expiry)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
