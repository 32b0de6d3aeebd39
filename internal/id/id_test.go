package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for range count {
		id, err := Generate(PrefixSession)
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{PrefixSession, PrefixSSE, PrefixToken} {
		t.Run(prefix, func(t *testing.T) {
			id, err := Generate(prefix)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(id, prefix+"-"))
			// NanoID default is 21 characters.
			assert.Len(t, id, len(prefix)+1+21)
		})
	}
}

func TestMustGenerate(t *testing.T) {
	id := MustGenerate("test")
	assert.True(t, strings.HasPrefix(id, "test-"))
}

func TestPhotoRef(t *testing.T) {
	ref := PhotoRef()
	assert.True(t, IsPhotoRef(ref))
	assert.NotEqual(t, ref, PhotoRef())

	assert.False(t, IsPhotoRef("../../etc/passwd"))
	assert.False(t, IsPhotoRef(""))
}

func TestSubscriptionKey(t *testing.T) {
	key, err := SubscriptionKey()
	require.NoError(t, err)

	parts := strings.Split(key, "-")
	require.Len(t, parts, 4)
	assert.Equal(t, "FS", parts[0])
	for _, p := range parts[1:] {
		assert.Len(t, p, 4)
		for _, c := range p {
			assert.Contains(t, keyAlphabet, string(c))
		}
	}
}
