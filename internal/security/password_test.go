package security_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"field-auth-server/internal/security"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := security.HashPassword("strong-password")
	assert.NoError(t, err)
	assert.NotEqual(t, "strong-password", hash)

	assert.True(t, security.CheckPassword("strong-password", hash))
	assert.False(t, security.CheckPassword("wrong-password", hash))
	assert.False(t, security.CheckPassword("strong-password", "не bcrypt хэш"))
}

// Одинаковые пароли дают разные хэши: соль у каждого своя
func TestHashPassword_Salted(t *testing.T) {
	first, err := security.HashPassword("strong-password")
	assert.NoError(t, err)
	second, err := security.HashPassword("strong-password")
	assert.NoError(t, err)

	assert.NotEqual(t, first, second)
}
