// Package auth provides the bearer credential sources used by the budget client.
package auth

import (
	"errors"
	"os"
	"strings"
)

// TokenKey is the key the credential is persisted under in local storage.
const TokenKey = "token"

// EnvVar overrides any persisted credential when set.
const EnvVar = "HBUDGET_TOKEN"

// ErrMissingCredential indicates no token is available for an authenticated call.
var ErrMissingCredential = errors.New("auth: no token found, please log in")

// Source supplies the current bearer token. It is read before every
// authenticated call, so implementations must be cheap and safe for
// concurrent use.
type Source interface {
	Token() (string, bool)
}

// KeyValue is the persistent string store a KVSource reads from.
type KeyValue interface {
	Get(key string) (string, error)
}

// KVSource reads the token from a persistent key-value store.
type KVSource struct {
	KV KeyValue
}

// Token implements Source. Read errors are treated as an absent token.
func (s KVSource) Token() (string, bool) {
	if s.KV == nil {
		return "", false
	}
	v, err := s.KV.Get(TokenKey)
	if err != nil {
		return "", false
	}
	return clean(v)
}

// EnvSource reads the token from HBUDGET_TOKEN.
type EnvSource struct{}

// Token implements Source.
func (EnvSource) Token() (string, bool) {
	return clean(os.Getenv(EnvVar))
}

// Static is a fixed token, mostly useful in tests.
type Static string

// Token implements Source.
func (s Static) Token() (string, bool) {
	return clean(string(s))
}

// Chain returns the first token found, in order.
type Chain []Source

// Token implements Source.
func (c Chain) Token() (string, bool) {
	for _, s := range c {
		if s == nil {
			continue
		}
		if tok, ok := s.Token(); ok {
			return tok, true
		}
	}
	return "", false
}

func clean(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "Bearer" {
		return "", false
	}
	v = strings.TrimSpace(strings.TrimPrefix(v, "Bearer "))
	if v == "" {
		return "", false
	}
	return v, true
}

// Mask shortens a token for display.
func Mask(tok string) string {
	if len(tok) > 16 {
		return tok[:8] + "..." + tok[len(tok)-4:]
	}
	if len(tok) > 4 {
		return tok[:4] + "..."
	}
	return "****"
}
