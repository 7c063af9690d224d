package security_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/vibast-solutions/ms-go-accounts/app/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashAndVerify(t *testing.T) {
	hasher := security.NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("pw1")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", hash)
	assert.True(t, hasher.Verify("pw1", hash))
	assert.False(t, hasher.Verify("pw2", hash))
}

func TestBcryptHasher_SaltsEveryHash(t *testing.T) {
	hasher := security.NewBcryptHasher(bcrypt.MinCost)

	first, err := hasher.Hash("same-password")
	require.NoError(t, err)
	second, err := hasher.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, hasher.Verify("same-password", first))
	assert.True(t, hasher.Verify("same-password", second))
}

func TestBcryptHasher_MalformedHashNeverMatches(t *testing.T) {
	hasher := security.NewBcryptHasher(bcrypt.MinCost)

	for _, hash := range []string{"", "plain-text", "$2a$04$short", strings.Repeat("x", 60)} {
		assert.False(t, hasher.Verify("pw1", hash), "hash %q", hash)
	}
}

func TestBcryptHasher_ClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.MinCost, security.NewBcryptHasher(0).Cost())
	assert.Equal(t, bcrypt.MaxCost, security.NewBcryptHasher(100).Cost())
	assert.Equal(t, 11, security.NewBcryptHasher(11).Cost())
}

func TestBcryptHasher_RejectsOverlongPassword(t *testing.T) {
	hasher := security.NewBcryptHasher(bcrypt.MinCost)

	_, err := hasher.Hash(strings.Repeat("a", 73))
	require.ErrorIs(t, err, security.ErrPasswordTooLong)
}

func TestBcryptHasher_VerifyRejectsPasswordSharingPrefix(t *testing.T) {
	hasher := security.NewBcryptHasher(bcrypt.MinCost)

	password := strings.Repeat("a", security.MaxPasswordBytes)
	hash, err := hasher.Hash(password)
	require.NoError(t, err)

	assert.True(t, hasher.Verify(password, hash))
	assert.False(t, hasher.Verify(password+"EXTRA", hash))
}

func TestBcryptHasher_ConcurrentUse(t *testing.T) {
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("shared")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, hasher.Verify("shared", hash))
		}()
	}
	wg.Wait()
}
