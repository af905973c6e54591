package service

import (
	"testing"
	"time"

	"github.com/adamkovacs/bookreviews/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTokens_IssueAndVerify(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	userID := primitive.NewObjectID()

	signed, err := tokens.Issue(userID)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	got, err := tokens.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestTokens_VerifyMalformed(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	_, err := tokens.Verify("not-a-token")
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)
}

func TestTokens_VerifyWrongSecret(t *testing.T) {
	userID := primitive.NewObjectID()
	signed, err := NewTokens("secret-a", time.Hour).Issue(userID)
	require.NoError(t, err)

	_, err = NewTokens("secret-b", time.Hour).Verify(signed)
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)
}

func TestTokens_VerifyExpired(t *testing.T) {
	tokens := NewTokens("test-secret", -time.Minute)
	signed, err := tokens.Issue(primitive.NewObjectID())
	require.NoError(t, err)

	_, err = tokens.Verify(signed)
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)
}
