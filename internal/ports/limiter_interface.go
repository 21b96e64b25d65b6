package ports

import "context"

// LoginLimiter ограничивает частоту попыток входа по паре username+ip
type LoginLimiter interface {
	// Allow регистрирует попытку и сообщает, не превышен ли лимит
	Allow(ctx context.Context, username, ipAddress string) (bool, error)
	// Reset сбрасывает счётчик после успешного входа
	Reset(ctx context.Context, username, ipAddress string) error
}
