package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashProducesDifferentSaltedDigests(t *testing.T) {
	first, err := Hash("secret1")
	require.NoError(t, err)

	second, err := Hash("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, Verify("secret1", first))
	assert.True(t, Verify("secret1", second))
}

func TestVerifyRejectsWrongPassword(t *testing.T) {
	digest, err := Hash("secret1")
	require.NoError(t, err)

	assert.False(t, Verify("secret2", digest))
	assert.False(t, Verify("", digest))
}

func TestVerifyRejectsMalformedDigest(t *testing.T) {
	assert.False(t, Verify("secret1", "not-a-bcrypt-digest"))
	assert.False(t, Verify("secret1", ""))
}
