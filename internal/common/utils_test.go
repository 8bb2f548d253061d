package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetAuthorizationToken_ValidBearer(t *testing.T) {
	token, err := GetAuthorizationToken("Bearer abc123")
	assert.NoError(t, err)
	assert.Equal(t, "abc123", token)
}

func TestGetAuthorizationToken_MissingBearerPrefix(t *testing.T) {
	_, err := GetAuthorizationToken("abc123")
	assert.Error(t, err)
}

func TestGetAuthorizationToken_EmptyHeader(t *testing.T) {
	_, err := GetAuthorizationToken("")
	assert.Error(t, err)
}

func TestGetAuthorizationToken_WrongScheme(t *testing.T) {
	_, err := GetAuthorizationToken("Basic abc123")
	assert.Error(t, err)
}
