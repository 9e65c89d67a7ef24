package auth_test

import (
	"testing"
	"time"

	"tutoring-service/internal/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret-key-for-testing", time.Hour)

	t.Run("RoundTrip", func(t *testing.T) {
		token, err := tokens.Issue("a@x.com", "A")
		require.NoError(t, err)

		claims, err := tokens.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", claims.Email)
		assert.Equal(t, "A", claims.Name)
		assert.NotEmpty(t, claims.ID)
		assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
	})

	t.Run("Expired", func(t *testing.T) {
		expired := auth.NewTokenManager("test-secret-key-for-testing", -time.Minute)
		token, err := expired.Issue("a@x.com", "A")
		require.NoError(t, err)

		_, err = tokens.Verify(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		other := auth.NewTokenManager("another-secret", time.Hour)
		token, err := other.Issue("a@x.com", "A")
		require.NoError(t, err)

		_, err = tokens.Verify(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("UnsignedToken", func(t *testing.T) {
		claims := jwt.MapClaims{"email": "a@x.com", "exp": time.Now().Add(time.Hour).Unix()}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = tokens.Verify(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := tokens.Verify("not.a.token")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}
