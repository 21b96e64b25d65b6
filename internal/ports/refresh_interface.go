package ports

import (
	"context"

	"field-auth-server/internal/model"
)

type RefreshTokenRepository interface {
	Save(ctx context.Context, token *model.RefreshToken) error
	// FindByToken возвращает токен вместе с аккаунтом-владельцем
	FindByToken(ctx context.Context, token string) (*model.RefreshToken, *model.Account, error)
	// MarkRevoked отзывает токен, только если он ещё не отозван.
	// Возвращает true, если состояние изменилось этим вызовом
	MarkRevoked(ctx context.Context, token string) (bool, error)
	RevokeAllForAccount(ctx context.Context, accountUUID string) error
	DeleteExpiredOrRevoked(ctx context.Context) (int64, error)
}

// RefreshTokenManager владеет жизненным циклом refresh-токенов:
// выпуск, проверка, отзыв, массовый отзыв и фоновая очистка
type RefreshTokenManager interface {
	Create(ctx context.Context, accountUUID string, client model.ClientContext) (string, error)
	// Validate возвращает аккаунт-владельца токена. Отсутствующий, просроченный,
	// отозванный токен и токен деактивированного аккаунта неразличимы по ошибке
	Validate(ctx context.Context, token string) (*model.Account, error)
	Revoke(ctx context.Context, token string) (bool, error)
	RevokeAll(ctx context.Context, accountUUID string) error
	Cleanup(ctx context.Context) (int64, error)
}
