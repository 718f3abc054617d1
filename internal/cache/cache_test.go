package cache

import (
	"testing"
	"time"

	"github.com/ReptilePvP/ai-ndresells-sub000/internal/fingerprint"
	"github.com/ReptilePvP/ai-ndresells-sub000/internal/provider"
	"github.com/stretchr/testify/assert"
)

func TestRoundTrip(t *testing.T) {
	c := New[string]()
	fp := fingerprint.Hash([]byte("img"))

	c.Put(fp, provider.Gemini, "record", time.Hour)
	got, ok := c.Get(fp, provider.Gemini)
	assert.True(t, ok)
	assert.Equal(t, "record", got)
}

func TestMissOnDifferentProvider(t *testing.T) {
	c := New[string]()
	fp := fingerprint.Hash([]byte("img"))

	c.Put(fp, provider.Gemini, "record", time.Hour)
	_, ok := c.Get(fp, provider.SerpLens)
	assert.False(t, ok)
}

func TestExpiry(t *testing.T) {
	c := New[string]()
	fp := fingerprint.Hash([]byte("img"))

	c.Put(fp, provider.Gemini, "record", -time.Second)
	_, ok := c.Get(fp, provider.Gemini)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestBlocklistForcesMiss(t *testing.T) {
	c := New[string]()
	fp := fingerprint.Hash([]byte("img"))

	c.Put(fp, provider.Gemini, "record", time.Hour)
	c.Invalidate(fp)

	_, ok := c.Get(fp, provider.Gemini)
	assert.False(t, ok)
	assert.True(t, c.Blocked(fp))

	// A fresh write while blocked still misses on read.
	c.Put(fp, provider.Gemini, "record2", time.Hour)
	_, ok = c.Get(fp, provider.Gemini)
	assert.False(t, ok)

	c.ClearBlock(fp)
	got, ok := c.Get(fp, provider.Gemini)
	assert.True(t, ok)
	assert.Equal(t, "record2", got)
}

func TestInvalidateEvictsAllProviders(t *testing.T) {
	c := New[string]()
	fp := fingerprint.Hash([]byte("img"))

	c.Put(fp, provider.Gemini, "a", time.Hour)
	c.Put(fp, provider.SerpLens, "b", time.Hour)
	c.Invalidate(fp)
	assert.Equal(t, 0, c.Len())
}

func TestSeedBlocklist(t *testing.T) {
	c := New[string]()
	fp := fingerprint.Hash([]byte("img"))

	c.SeedBlocklist([]fingerprint.Fingerprint{fp})
	assert.True(t, c.Blocked(fp))
}

func TestInvalidateIsIdempotent(t *testing.T) {
	c := New[string]()
	fp := fingerprint.Hash([]byte("img"))

	c.Invalidate(fp)
	c.Invalidate(fp)
	assert.True(t, c.Blocked(fp))
}
