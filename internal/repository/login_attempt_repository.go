package repository

import (
	"context"
	"fmt"
	"net"
	"time"

	"field-auth-server/config"
	"field-auth-server/internal/util"
)

// LoginAttemptRepository считает попытки входа в Redis.
// Счётчик живёт window и сбрасывается после успешного входа
type LoginAttemptRepository struct {
	client      *config.RedisClient
	maxAttempts int
	window      time.Duration
}

func NewLoginAttemptRepository(rdb *config.RedisClient, maxAttempts int, window time.Duration) *LoginAttemptRepository {
	return &LoginAttemptRepository{rdb, maxAttempts, window}
}

// Allow регистрирует попытку входа и сообщает, не превышен ли лимит
func (r *LoginAttemptRepository) Allow(ctx context.Context, username, ipAddress string) (bool, error) {
	key := r.key(username, ipAddress)

	count, err := r.client.Client.Incr(ctx, key).Result()
	if err != nil {
		return false, util.LogError("ошибка инкремента счётчика попыток в Redis", err)
	}

	// TTL выставляется только на первой попытке в окне
	if count == 1 {
		if err := r.client.Client.Expire(ctx, key, r.window).Err(); err != nil {
			return false, util.LogError("ошибка установки TTL счётчика попыток", err)
		}
	}

	return count <= int64(r.maxAttempts), nil
}

// Reset сбрасывает счётчик после успешного входа
func (r *LoginAttemptRepository) Reset(ctx context.Context, username, ipAddress string) error {
	if err := r.client.Client.Del(ctx, r.key(username, ipAddress)).Err(); err != nil {
		return util.LogError("ошибка сброса счётчика попыток в Redis", err)
	}
	return nil
}

func (r *LoginAttemptRepository) key(username, ipAddress string) string {
	return fmt.Sprintf("login_attempts:%s:%s", username, throttleHost(ipAddress))
}

// throttleHost отбрасывает эфемерный порт из RemoteAddr: соединения с одного
// хоста должны попадать в один счётчик независимо от исходного порта
func throttleHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
