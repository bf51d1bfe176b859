package secrets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSecretCache_Expiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := newSecretCache(time.Minute, func() time.Time { return now })

	_, ok := c.get("jwt-signing-key")
	assert.False(t, ok)

	c.put("jwt-signing-key", "s3cret")
	v, ok := c.get("jwt-signing-key")
	assert.True(t, ok)
	assert.Equal(t, "s3cret", v)

	now = now.Add(59 * time.Second)
	_, ok = c.get("jwt-signing-key")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = c.get("jwt-signing-key")
	assert.False(t, ok, "entry expires exactly at its ttl")
}

func TestSecretCache_DefaultTTL(t *testing.T) {
	c := newSecretCache(0, time.Now)
	assert.Equal(t, 5*time.Minute, c.ttl)
}

func TestSecretCache_NilNeverHits(t *testing.T) {
	var c *secretCache
	c.put("smtp-password", "x")
	_, ok := c.get("smtp-password")
	assert.False(t, ok)
}
