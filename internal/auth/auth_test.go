package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapKV map[string]string

func (m mapKV) Get(key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func TestKVSource(t *testing.T) {
	tok, ok := KVSource{KV: mapKV{"token": "  abc  "}}.Token()
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	_, ok = KVSource{KV: mapKV{}}.Token()
	assert.False(t, ok, "missing key must report no token")

	_, ok = KVSource{}.Token()
	assert.False(t, ok, "nil store must report no token")
}

func TestStaticStripsBearerPrefix(t *testing.T) {
	tok, ok := Static("Bearer xyz").Token()
	assert.True(t, ok)
	assert.Equal(t, "xyz", tok)

	_, ok = Static("   ").Token()
	assert.False(t, ok)
}

func TestBareBearerIsNoToken(t *testing.T) {
	for _, v := range []string{"Bearer ", "Bearer", "  Bearer   ", "Bearer \t"} {
		_, ok := KVSource{KV: mapKV{"token": v}}.Token()
		assert.False(t, ok, "stored %q must not count as a token", v)
	}

	t.Setenv(EnvVar, "")
	tok, ok := Chain{KVSource{KV: mapKV{"token": "Bearer "}}, Static("Bearer  real")}.Token()
	require.True(t, ok)
	assert.Equal(t, "real", tok)
}

func TestChainFirstWins(t *testing.T) {
	t.Setenv(EnvVar, "")
	c := Chain{EnvSource{}, nil, KVSource{KV: mapKV{"token": "from-kv"}}, Static("fallback")}
	tok, ok := c.Token()
	require.True(t, ok)
	assert.Equal(t, "from-kv", tok)

	t.Setenv(EnvVar, "from-env")
	tok, _ = c.Token()
	assert.Equal(t, "from-env", tok)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "eyJhbGci...wxyz", Mask("eyJhbGciOiJIUzI1NiJ9abcdwxyz"))
	assert.Equal(t, "abcd...", Mask("abcdefg"))
	assert.Equal(t, "****", Mask("abc"))
}

func TestInspect(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "42",
		"exp": exp.Unix(),
	}).SignedString([]byte("irrelevant"))
	require.NoError(t, err)

	info, err := Inspect(tok)
	require.NoError(t, err)
	assert.Equal(t, "42", info.Subject)
	assert.True(t, info.ExpiresAt.Equal(exp))
	assert.False(t, info.Expired(time.Now()))
	assert.True(t, info.Expired(exp.Add(time.Minute)))
}

func TestInspectRejectsGarbage(t *testing.T) {
	_, err := Inspect("not-a-jwt")
	assert.Error(t, err)
}
