package password_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablebook/tablebook/internal/security/password"
)

func TestHashVerifyRoundTrip(t *testing.T) {
	info, err := password.Hash("correct-horse-battery")
	require.NoError(t, err)

	ok, err := password.Verify("correct-horse-battery", info)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyWrongSecret(t *testing.T) {
	info, err := password.Hash("right")
	require.NoError(t, err)

	ok, err := password.Verify("wrong", info)
	require.NoError(t, err, "a wrong guess is not an error")
	assert.False(t, ok)
}

func TestHashNeverRepeatsSalt(t *testing.T) {
	a, err := password.Hash("same secret")
	require.NoError(t, err)
	b, err := password.Hash("same secret")
	require.NoError(t, err)

	assert.NotEqual(t, a.Salt, b.Salt)
	assert.NotEqual(t, a.Hash, b.Hash)
}

func TestIterationsWithinBounds(t *testing.T) {
	for i := 0; i < 20; i++ {
		info, err := password.Hash("s")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, info.Iterations, 1000)
		assert.Less(t, info.Iterations, 2000)
	}
}

func TestVerifyMalformedMaterial(t *testing.T) {
	info, err := password.Hash("s")
	require.NoError(t, err)

	bad := info
	bad.Salt = "not-hex"
	_, err = password.Verify("s", bad)
	assert.Error(t, err)

	bad = info
	bad.Hash = "zz"
	_, err = password.Verify("s", bad)
	assert.Error(t, err)

	bad = info
	bad.Iterations = 0
	_, err = password.Verify("s", bad)
	assert.Error(t, err)
}

func TestVerifyTamperedHash(t *testing.T) {
	info, err := password.Hash("s")
	require.NoError(t, err)

	// flip one hex digit
	first := info.Hash[0]
	repl := byte('0')
	if first == '0' {
		repl = '1'
	}
	info.Hash = string(repl) + info.Hash[1:]

	ok, err := password.Verify("s", info)
	require.NoError(t, err)
	assert.False(t, ok)
}
