package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("secret", "shift-service")
	raw, err := m.Generate("att-1", "sess-1", "mod-1", time.Now().Add(time.Hour))
	require.NoError(t, err)

	claims, err := m.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "att-1", claims.Subject)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "mod-1", claims.ModuleID)
}

func TestParseRejectsExpired(t *testing.T) {
	m := NewTokenManager("secret", "shift-service")
	raw, err := m.Generate("att-1", "sess-1", "mod-1", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = m.Parse(raw)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestParseRejectsOtherSecret(t *testing.T) {
	raw, err := NewTokenManager("one", "shift-service").Generate("att-1", "sess-1", "mod-1", time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = NewTokenManager("two", "shift-service").Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := NewTokenManager("secret", "shift-service").Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct horse")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("wrong")))
}
