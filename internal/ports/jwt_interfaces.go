package ports

import (
	"field-auth-server/internal/model"
	"field-auth-server/internal/security"
)

type JWTServiceInterface interface {
	// GenerateAccessToken подписывает access-токен с данными аккаунта.
	// Вторым значением возвращается время жизни токена в секундах
	GenerateAccessToken(account *model.Account) (string, int64, error)
	ValidateJWT(tokenString string) (*security.Claims, error)
}
