package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"field-auth-server/internal/model"
)

func TestRoleValid(t *testing.T) {
	assert.True(t, model.RoleAdmin.Valid())
	assert.True(t, model.RoleFieldAgent.Valid())
	assert.False(t, model.Role("SUPERUSER").Valid())
	assert.False(t, model.Role("").Valid())
}

// Любой из трёх флагов настройки запрещает обычный вход
func TestRequiresSetup(t *testing.T) {
	tests := []struct {
		name     string
		account  model.Account
		expected bool
	}{
		{"настроенный аккаунт", model.Account{}, false},
		{"обязательная смена пароля", model.Account{MustChangePassword: true}, true},
		{"обязательная смена email", model.Account{MustChangeEmail: true}, true},
		{"первый вход", model.Account{IsFirstLogin: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.account.RequiresSetup())
		})
	}
}

func TestSanitized(t *testing.T) {
	account := &model.Account{
		UUID:         "u1",
		Username:     "bob",
		Email:        "bob@x.com",
		PasswordHash: "hash",
		FirstName:    "Иван",
		LastName:     "Петров",
		Role:         model.RoleFieldAgent,
	}

	info := account.Sanitized()

	assert.Equal(t, "u1", info.UUID)
	assert.Equal(t, "bob", info.Username)
	assert.Equal(t, model.RoleFieldAgent, info.Role)
}
