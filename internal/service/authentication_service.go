package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"field-auth-server/internal/model"
	"field-auth-server/internal/ports"
	"field-auth-server/internal/repository"
	"field-auth-server/internal/security"
	"field-auth-server/internal/util"
)

type AuthenticationService struct {
	accountRepository   ports.AccountRepository
	refreshTokenManager ports.RefreshTokenManager
	jwtService          ports.JWTServiceInterface
	loginLimiter        ports.LoginLimiter
	now                 ports.Clock
}

func NewAuthenticationService(
	accountRepository ports.AccountRepository,
	refreshTokenManager ports.RefreshTokenManager,
	jwtService ports.JWTServiceInterface,
	loginLimiter ports.LoginLimiter,
) *AuthenticationService {
	return &AuthenticationService{
		accountRepository:   accountRepository,
		refreshTokenManager: refreshTokenManager,
		jwtService:          jwtService,
		loginLimiter:        loginLimiter,
		now:                 time.Now,
	}
}

// NewAuthenticationServiceWithClock используется в тестах для управления временем
func NewAuthenticationServiceWithClock(
	accountRepository ports.AccountRepository,
	refreshTokenManager ports.RefreshTokenManager,
	jwtService ports.JWTServiceInterface,
	loginLimiter ports.LoginLimiter,
	clock ports.Clock,
) *AuthenticationService {
	service := NewAuthenticationService(accountRepository, refreshTokenManager, jwtService, loginLimiter)
	service.now = clock
	return service
}

// Login проверяет учётные данные и выдаёт пару токенов.
// Отсутствующий аккаунт, деактивированный аккаунт и неверный пароль дают одну
// и ту же ошибку model.ErrAuthenticationFailed: по ответу нельзя узнать,
// существует ли username. Для ненастроенного аккаунта вместо токенов
// возвращается RequiresSetup с действующим setup-токеном
func (s *AuthenticationService) Login(ctx context.Context, username, password string, client model.ClientContext) (*model.SessionResult, error) {
	allowed, err := s.loginLimiter.Allow(ctx, username, client.IpAddress)
	if err != nil {
		// недоступность лимитера не должна останавливать вход
		log.Printf("лимитер попыток входа недоступен: %v", err)
	} else if !allowed {
		return nil, fmt.Errorf("%w: повторите позже", model.ErrTooManyAttempts)
	}

	account, err := s.accountRepository.FindByUsername(ctx, username)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w", model.ErrAuthenticationFailed)
		}
		// сбой хранилища — не категория «неверные учётные данные»:
		// вызывающий слой должен видеть инфраструктурную ошибку
		return nil, util.LogError("не удалось найти аккаунт", err)
	}

	if !account.IsActive {
		return nil, fmt.Errorf("%w", model.ErrAuthenticationFailed)
	}

	if !security.CheckPassword(password, account.PasswordHash) {
		return nil, fmt.Errorf("%w", model.ErrAuthenticationFailed)
	}

	if account.RequiresSetup() {
		setupToken := ""
		if account.SetupToken != nil {
			setupToken = *account.SetupToken
		}
		return &model.SessionResult{
			RequiresSetup: true,
			SetupToken:    setupToken,
		}, nil
	}

	if err := s.accountRepository.StampLastLogin(ctx, account.UUID, s.now()); err != nil {
		return nil, util.LogError("не удалось обновить отметку входа", err)
	}

	result, err := issueSession(ctx, account, client, s.jwtService, s.refreshTokenManager)
	if err != nil {
		return nil, err
	}

	if err := s.loginLimiter.Reset(ctx, username, client.IpAddress); err != nil {
		log.Printf("не удалось сбросить счётчик попыток входа: %v", err)
	}

	return result, nil
}

// Refresh выполняет ротацию: проверяет refresh-токен, помечает его использованным
// и выдаёт новую пару. Старый токен гасится условным UPDATE, поэтому из двух
// конкурентных ротаций одного токена выигрывает ровно одна — вторая получает
// model.ErrInvalidRefreshToken. Перехваченный токен нельзя воспроизвести после
// того, как легитимный клиент прошёл ротацию
func (s *AuthenticationService) Refresh(ctx context.Context, refreshToken string, client model.ClientContext) (*model.SessionResult, error) {
	account, err := s.refreshTokenManager.Validate(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	revoked, err := s.refreshTokenManager.Revoke(ctx, refreshToken)
	if err != nil {
		return nil, util.LogError("не удалось использовать токен", err)
	}
	if !revoked {
		// токен успели отозвать между проверкой и ротацией
		return nil, fmt.Errorf("%w: токен уже использован", model.ErrInvalidRefreshToken)
	}

	return issueSession(ctx, account, client, s.jwtService, s.refreshTokenManager)
}

// Logout отзывает refresh-токен. Операция идемпотентна:
// возвращает true, если сессия была завершена именно этим вызовом
func (s *AuthenticationService) Logout(ctx context.Context, refreshToken string) (bool, error) {
	revoked, err := s.refreshTokenManager.Revoke(ctx, refreshToken)
	if err != nil {
		return false, util.LogError("не удалось завершить сессию", err)
	}
	return revoked, nil
}

// LogoutAll завершает все сессии аккаунта на всех устройствах
func (s *AuthenticationService) LogoutAll(ctx context.Context, accountUUID string) error {
	if err := s.refreshTokenManager.RevokeAll(ctx, accountUUID); err != nil {
		return util.LogError("не удалось завершить все сессии", err)
	}
	return nil
}
