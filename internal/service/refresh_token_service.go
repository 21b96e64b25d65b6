package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"field-auth-server/config"
	"field-auth-server/internal/model"
	"field-auth-server/internal/ports"
	"field-auth-server/internal/repository"
	"field-auth-server/internal/util"
)

// refreshTokenBytes : 64 случайных байта, 512 бит энтропии
const refreshTokenBytes = 64

// RefreshTokenService владеет жизненным циклом refresh-токенов
type RefreshTokenService struct {
	tokenRepository ports.RefreshTokenRepository
	jwtConfig       *config.JWTConfig
	now             ports.Clock
}

func NewRefreshTokenService(tokenRepository ports.RefreshTokenRepository, jwtConfig *config.JWTConfig) *RefreshTokenService {
	return &RefreshTokenService{
		tokenRepository: tokenRepository,
		jwtConfig:       jwtConfig,
		now:             time.Now,
	}
}

// NewRefreshTokenServiceWithClock используется в тестах для управления временем
func NewRefreshTokenServiceWithClock(tokenRepository ports.RefreshTokenRepository, jwtConfig *config.JWTConfig, clock ports.Clock) *RefreshTokenService {
	service := NewRefreshTokenService(tokenRepository, jwtConfig)
	service.now = clock
	return service
}

// Create выпускает новый opaque refresh-токен с фиксированным сроком действия.
// Открытое значение токена возвращается единственный раз — здесь
func (s *RefreshTokenService) Create(ctx context.Context, accountUUID string, client model.ClientContext) (string, error) {
	tokenStr, err := util.GenerateSecureToken(refreshTokenBytes)
	if err != nil {
		return "", util.LogError("ошибка генерации refresh-токена", err)
	}

	timeDuration, err := time.ParseDuration(s.jwtConfig.RefreshTokenTTL)
	if err != nil {
		return "", util.LogError("ошибка парсинга", err)
	}

	refreshToken := &model.RefreshToken{
		Token:       tokenStr,
		AccountUUID: accountUUID,
		ExpireAt:    s.now().Add(timeDuration),
		Revoked:     false,
		UserAgent:   client.UserAgent,
		IpAddress:   client.IpAddress,
	}

	if err := s.tokenRepository.Save(ctx, refreshToken); err != nil {
		return "", util.LogError("ошибка сохранения refresh-токена", err)
	}

	return tokenStr, nil
}

// Validate возвращает аккаунт-владельца токена. Отсутствующий, просроченный,
// отозванный токен и токен деактивированного аккаунта дают одну и ту же
// ошибку model.ErrInvalidRefreshToken: по ответу нельзя перечислять токены
func (s *RefreshTokenService) Validate(ctx context.Context, token string) (*model.Account, error) {
	storedToken, account, err := s.tokenRepository.FindByToken(ctx, token)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: токен не найден", model.ErrInvalidRefreshToken)
		}
		return nil, util.LogError("не удалось найти refresh-токен", err)
	}

	if s.now().After(storedToken.ExpireAt) || s.now().Equal(storedToken.ExpireAt) {
		// просроченный токен попутно помечается отозванным: фоновая уборка
		// видит его по одному лишь флагу revoked
		if _, err := s.tokenRepository.MarkRevoked(ctx, token); err != nil {
			log.Printf("не удалось пометить просроченный токен отозванным: %v", err)
		}
		return nil, fmt.Errorf("%w: токен просрочен", model.ErrInvalidRefreshToken)
	}

	if storedToken.Revoked {
		return nil, fmt.Errorf("%w: токен отозван", model.ErrInvalidRefreshToken)
	}

	if !account.IsActive {
		return nil, fmt.Errorf("%w: аккаунт неактивен", model.ErrInvalidRefreshToken)
	}

	return account, nil
}

// Revoke идемпотентно отзывает токен.
// Возвращает true, если токен был отозван именно этим вызовом
func (s *RefreshTokenService) Revoke(ctx context.Context, token string) (bool, error) {
	revoked, err := s.tokenRepository.MarkRevoked(ctx, token)
	if err != nil {
		return false, util.LogError("не удалось отозвать токен", err)
	}
	return revoked, nil
}

// RevokeAll отзывает все токены аккаунта: «выйти везде», деактивация, сброс пароля
func (s *RefreshTokenService) RevokeAll(ctx context.Context, accountUUID string) error {
	if err := s.tokenRepository.RevokeAllForAccount(ctx, accountUUID); err != nil {
		return util.LogError("не удалось отозвать токены аккаунта", err)
	}
	return nil
}

// Cleanup удаляет просроченные и отозванные токены.
// Запускается периодически; для корректности Validate не требуется
func (s *RefreshTokenService) Cleanup(ctx context.Context) (int64, error) {
	deleted, err := s.tokenRepository.DeleteExpiredOrRevoked(ctx)
	if err != nil {
		return 0, util.LogError("ошибка фоновой очистки токенов", err)
	}
	return deleted, nil
}
