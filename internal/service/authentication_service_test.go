package service_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"field-auth-server/internal/model"
	"field-auth-server/internal/security"
	"field-auth-server/internal/service"
)

// ===== MOCKS =====

// MockAccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) CreateAccount(ctx context.Context, account *model.Account) (*model.Account, error) {
	args := m.Called(ctx, account)
	switch v := args.Get(0).(type) {
	case *model.Account:
		return v, args.Error(1)
	case func(context.Context, *model.Account) *model.Account:
		// эхо-режим: репозиторий возвращает то, что сохранил
		return v(ctx, account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) FindByUUID(ctx context.Context, uuid string) (*model.Account, error) {
	args := m.Called(ctx, uuid)
	if a, ok := args.Get(0).(*model.Account); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) FindByUsername(ctx context.Context, username string) (*model.Account, error) {
	args := m.Called(ctx, username)
	if a, ok := args.Get(0).(*model.Account); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	args := m.Called(ctx, email)
	if a, ok := args.Get(0).(*model.Account); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context) ([]model.Account, error) {
	args := m.Called(ctx)
	if accounts, ok := args.Get(0).([]model.Account); ok {
		return accounts, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) AdminExists(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepository) StampLastLogin(ctx context.Context, uuid string, at time.Time) error {
	args := m.Called(ctx, uuid, at)
	return args.Error(0)
}

func (m *MockAccountRepository) FindBySetupToken(ctx context.Context, token string) (*model.Account, error) {
	args := m.Called(ctx, token)
	if a, ok := args.Get(0).(*model.Account); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) RedeemSetupToken(ctx context.Context, account *model.Account, token string) (bool, error) {
	args := m.Called(ctx, account, token)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepository) Deactivate(ctx context.Context, uuid string) (bool, error) {
	args := m.Called(ctx, uuid)
	return args.Bool(0), args.Error(1)
}

// MockRefreshTokenManager
type MockRefreshTokenManager struct {
	mock.Mock
}

func (m *MockRefreshTokenManager) Create(ctx context.Context, accountUUID string, client model.ClientContext) (string, error) {
	args := m.Called(ctx, accountUUID, client)
	return args.String(0), args.Error(1)
}

func (m *MockRefreshTokenManager) Validate(ctx context.Context, token string) (*model.Account, error) {
	args := m.Called(ctx, token)
	if a, ok := args.Get(0).(*model.Account); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRefreshTokenManager) Revoke(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

func (m *MockRefreshTokenManager) RevokeAll(ctx context.Context, accountUUID string) error {
	args := m.Called(ctx, accountUUID)
	return args.Error(0)
}

func (m *MockRefreshTokenManager) Cleanup(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockJWTService
type MockJWTService struct {
	mock.Mock
}

func (m *MockJWTService) GenerateAccessToken(account *model.Account) (string, int64, error) {
	args := m.Called(account)
	return args.String(0), args.Get(1).(int64), args.Error(2)
}

func (m *MockJWTService) ValidateJWT(tokenString string) (*security.Claims, error) {
	args := m.Called(tokenString)
	if claims, ok := args.Get(0).(*security.Claims); ok {
		return claims, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockLoginLimiter
type MockLoginLimiter struct {
	mock.Mock
}

func (m *MockLoginLimiter) Allow(ctx context.Context, username, ipAddress string) (bool, error) {
	args := m.Called(ctx, username, ipAddress)
	return args.Bool(0), args.Error(1)
}

func (m *MockLoginLimiter) Reset(ctx context.Context, username, ipAddress string) error {
	args := m.Called(ctx, username, ipAddress)
	return args.Error(0)
}

// ===== HELPERS =====

var testClient = model.ClientContext{UserAgent: "agent", IpAddress: "127.0.0.1"}

func newTestAuthService() (*service.AuthenticationService, *MockAccountRepository, *MockRefreshTokenManager, *MockJWTService, *MockLoginLimiter) {
	mockAccountRepo := new(MockAccountRepository)
	mockManager := new(MockRefreshTokenManager)
	mockJWTService := new(MockJWTService)
	mockLimiter := new(MockLoginLimiter)

	svc := service.NewAuthenticationService(mockAccountRepo, mockManager, mockJWTService, mockLimiter)

	return svc, mockAccountRepo, mockManager, mockJWTService, mockLimiter
}

func activeAccount(passwordHash string) *model.Account {
	return &model.Account{
		UUID:         "u1",
		Username:     "bob",
		Email:        "bob@x.com",
		PasswordHash: passwordHash,
		Role:         model.RoleFieldAgent,
		IsActive:     true,
	}
}

// ===== TESTS =====

// 1. Пользователь не найден: категория та же, что и при неверном пароле
func TestLogin_UserNotFound(t *testing.T) {
	svc, mockAccountRepo, _, _, mockLimiter := newTestAuthService()
	ctx := context.Background()

	mockLimiter.On("Allow", ctx, "nosuchuser", "127.0.0.1").Return(true, nil)
	mockAccountRepo.On("FindByUsername", ctx, "nosuchuser").
		Return(nil, fmt.Errorf("не найден: %w", sql.ErrNoRows))

	_, err := svc.Login(ctx, "nosuchuser", "whatever", testClient)

	assert.ErrorIs(t, err, model.ErrAuthenticationFailed)
	mockAccountRepo.AssertExpectations(t)
}

// 2. Неверный пароль
func TestLogin_WrongPassword(t *testing.T) {
	svc, mockAccountRepo, _, _, mockLimiter := newTestAuthService()
	ctx := context.Background()

	hash, _ := security.HashPassword("goodpass")
	account := activeAccount(hash)

	mockLimiter.On("Allow", ctx, "bob", "127.0.0.1").Return(true, nil)
	mockAccountRepo.On("FindByUsername", ctx, "bob").Return(account, nil)

	_, err := svc.Login(ctx, "bob", "badpass", testClient)

	assert.ErrorIs(t, err, model.ErrAuthenticationFailed)
	mockAccountRepo.AssertExpectations(t)
}

// 2a. Сбой хранилища — не «неверные учётные данные»: инфраструктурная ошибка
// пробрасывается как есть, чтобы вызывающий слой мог выбрать политику повтора
func TestLogin_StoreUnavailable(t *testing.T) {
	svc, mockAccountRepo, _, _, mockLimiter := newTestAuthService()
	ctx := context.Background()

	mockLimiter.On("Allow", ctx, "bob", "127.0.0.1").Return(true, nil)
	mockAccountRepo.On("FindByUsername", ctx, "bob").
		Return(nil, errors.New("dial tcp 127.0.0.1:5432: i/o timeout"))

	_, err := svc.Login(ctx, "bob", "goodpass", testClient)

	assert.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrAuthenticationFailed)
	assert.NotErrorIs(t, err, model.ErrTooManyAttempts)
}

// 3. Деактивированный аккаунт неотличим от неверного пароля
func TestLogin_InactiveAccount(t *testing.T) {
	svc, mockAccountRepo, _, _, mockLimiter := newTestAuthService()
	ctx := context.Background()

	hash, _ := security.HashPassword("goodpass")
	account := activeAccount(hash)
	account.IsActive = false

	mockLimiter.On("Allow", ctx, "bob", "127.0.0.1").Return(true, nil)
	mockAccountRepo.On("FindByUsername", ctx, "bob").Return(account, nil)

	_, err := svc.Login(ctx, "bob", "goodpass", testClient)

	assert.ErrorIs(t, err, model.ErrAuthenticationFailed)
}

// 4. Ненастроенный аккаунт не получает токены — только RequiresSetup
func TestLogin_RequiresSetup(t *testing.T) {
	svc, mockAccountRepo, _, _, mockLimiter := newTestAuthService()
	ctx := context.Background()

	hash, _ := security.HashPassword("goodpass")
	setupToken := "setup-token-value"

	for _, configure := range []func(*model.Account){
		func(a *model.Account) { a.MustChangePassword = true },
		func(a *model.Account) { a.MustChangeEmail = true },
		func(a *model.Account) { a.IsFirstLogin = true },
	} {
		account := activeAccount(hash)
		account.SetupToken = &setupToken
		configure(account)

		mockLimiter.On("Allow", ctx, "bob", "127.0.0.1").Return(true, nil)
		mockAccountRepo.On("FindByUsername", ctx, "bob").Return(account, nil).Once()

		result, err := svc.Login(ctx, "bob", "goodpass", testClient)

		assert.NoError(t, err)
		assert.True(t, result.RequiresSetup)
		assert.Equal(t, setupToken, result.SetupToken)
		assert.Nil(t, result.Tokens)
		assert.Nil(t, result.Account)
	}
}

// 5. Превышен лимит попыток входа
func TestLogin_TooManyAttempts(t *testing.T) {
	svc, _, _, _, mockLimiter := newTestAuthService()
	ctx := context.Background()

	mockLimiter.On("Allow", ctx, "bob", "127.0.0.1").Return(false, nil)

	_, err := svc.Login(ctx, "bob", "goodpass", testClient)

	assert.ErrorIs(t, err, model.ErrTooManyAttempts)
	mockLimiter.AssertExpectations(t)
}

// 6. Недоступный лимитер не блокирует вход
func TestLogin_LimiterUnavailable(t *testing.T) {
	svc, mockAccountRepo, mockManager, mockJWTService, mockLimiter := newTestAuthService()
	ctx := context.Background()

	hash, _ := security.HashPassword("goodpass")
	account := activeAccount(hash)

	mockLimiter.On("Allow", ctx, "bob", "127.0.0.1").Return(false, errors.New("redis down"))
	mockLimiter.On("Reset", ctx, "bob", "127.0.0.1").Return(errors.New("redis down"))
	mockAccountRepo.On("FindByUsername", ctx, "bob").Return(account, nil)
	mockAccountRepo.On("StampLastLogin", ctx, "u1", mock.Anything).Return(nil)
	mockJWTService.On("GenerateAccessToken", account).Return("acc", int64(900), nil)
	mockManager.On("Create", ctx, "u1", testClient).Return("ref", nil)

	result, err := svc.Login(ctx, "bob", "goodpass", testClient)

	assert.NoError(t, err)
	assert.Equal(t, "acc", result.Tokens.AccessToken)
}

// 7. Ошибка генерации токенов отменяет вход целиком
func TestLogin_GenerateTokensError(t *testing.T) {
	svc, mockAccountRepo, _, mockJWTService, mockLimiter := newTestAuthService()
	ctx := context.Background()

	hash, _ := security.HashPassword("goodpass")
	account := activeAccount(hash)

	mockLimiter.On("Allow", ctx, "bob", "127.0.0.1").Return(true, nil)
	mockAccountRepo.On("FindByUsername", ctx, "bob").Return(account, nil)
	mockAccountRepo.On("StampLastLogin", ctx, "u1", mock.Anything).Return(nil)
	mockJWTService.On("GenerateAccessToken", account).Return("", int64(0), errors.New("token error"))

	_, err := svc.Login(ctx, "bob", "goodpass", testClient)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ошибка генерации токенов")
	mockJWTService.AssertExpectations(t)
}

// 8. Ошибка сохранения refresh-токена отменяет вход целиком
func TestLogin_SaveRefreshTokenError(t *testing.T) {
	svc, mockAccountRepo, mockManager, mockJWTService, mockLimiter := newTestAuthService()
	ctx := context.Background()

	hash, _ := security.HashPassword("goodpass")
	account := activeAccount(hash)

	mockLimiter.On("Allow", ctx, "bob", "127.0.0.1").Return(true, nil)
	mockAccountRepo.On("FindByUsername", ctx, "bob").Return(account, nil)
	mockAccountRepo.On("StampLastLogin", ctx, "u1", mock.Anything).Return(nil)
	mockJWTService.On("GenerateAccessToken", account).Return("acc", int64(900), nil)
	mockManager.On("Create", ctx, "u1", testClient).Return("", errors.New("db error"))

	_, err := svc.Login(ctx, "bob", "goodpass", testClient)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ошибка сохранения refresh токена")
	mockManager.AssertExpectations(t)
}

// 9. Успешный вход
func TestLogin_Success(t *testing.T) {
	svc, mockAccountRepo, mockManager, mockJWTService, mockLimiter := newTestAuthService()
	ctx := context.Background()

	hash, _ := security.HashPassword("goodpass")
	account := activeAccount(hash)

	mockLimiter.On("Allow", ctx, "bob", "127.0.0.1").Return(true, nil)
	mockLimiter.On("Reset", ctx, "bob", "127.0.0.1").Return(nil)
	mockAccountRepo.On("FindByUsername", ctx, "bob").Return(account, nil)
	mockAccountRepo.On("StampLastLogin", ctx, "u1", mock.Anything).Return(nil)
	mockJWTService.On("GenerateAccessToken", account).Return("acc", int64(900), nil)
	mockManager.On("Create", ctx, "u1", testClient).Return("ref", nil)

	result, err := svc.Login(ctx, "bob", "goodpass", testClient)

	assert.NoError(t, err)
	assert.False(t, result.RequiresSetup)
	assert.Equal(t, "acc", result.Tokens.AccessToken)
	assert.Equal(t, "ref", result.Tokens.RefreshToken)
	assert.Equal(t, int64(900), result.Tokens.ExpiresIn)
	assert.Equal(t, "bob", result.Account.Username)

	mockAccountRepo.AssertExpectations(t)
	mockJWTService.AssertExpectations(t)
	mockManager.AssertExpectations(t)
	mockLimiter.AssertExpectations(t)
}

func TestRefresh_InvalidToken(t *testing.T) {
	svc, _, mockManager, _, _ := newTestAuthService()
	ctx := context.Background()

	mockManager.On("Validate", ctx, "badtoken").
		Return(nil, fmt.Errorf("%w: токен не найден", model.ErrInvalidRefreshToken))

	result, err := svc.Refresh(ctx, "badtoken", testClient)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, model.ErrInvalidRefreshToken)
	mockManager.AssertExpectations(t)
}

// Проигравшая из двух конкурентных ротаций получает ErrInvalidRefreshToken
func TestRefresh_LostRevocationRace(t *testing.T) {
	svc, _, mockManager, _, _ := newTestAuthService()
	ctx := context.Background()

	account := activeAccount("hash")

	mockManager.On("Validate", ctx, "token").Return(account, nil)
	mockManager.On("Revoke", ctx, "token").Return(false, nil)

	result, err := svc.Refresh(ctx, "token", testClient)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, model.ErrInvalidRefreshToken)
	mockManager.AssertExpectations(t)
}

func TestRefresh_Success(t *testing.T) {
	svc, _, mockManager, mockJWTService, _ := newTestAuthService()
	ctx := context.Background()

	account := activeAccount("hash")

	mockManager.On("Validate", ctx, "oldtoken").Return(account, nil)
	mockManager.On("Revoke", ctx, "oldtoken").Return(true, nil)
	mockJWTService.On("GenerateAccessToken", account).Return("newacc", int64(900), nil)
	mockManager.On("Create", ctx, "u1", testClient).Return("newref", nil)

	result, err := svc.Refresh(ctx, "oldtoken", testClient)

	assert.NoError(t, err)
	assert.Equal(t, "newacc", result.Tokens.AccessToken)
	assert.Equal(t, "newref", result.Tokens.RefreshToken)
	mockManager.AssertExpectations(t)
	mockJWTService.AssertExpectations(t)
}

// Повторный logout того же токена возвращает false без ошибки
func TestLogout_Idempotent(t *testing.T) {
	svc, _, mockManager, _, _ := newTestAuthService()
	ctx := context.Background()

	mockManager.On("Revoke", ctx, "token").Return(true, nil).Once()
	mockManager.On("Revoke", ctx, "token").Return(false, nil).Once()

	revoked, err := svc.Logout(ctx, "token")
	assert.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = svc.Logout(ctx, "token")
	assert.NoError(t, err)
	assert.False(t, revoked)

	mockManager.AssertExpectations(t)
}

func TestLogoutAll(t *testing.T) {
	svc, _, mockManager, _, _ := newTestAuthService()
	ctx := context.Background()

	mockManager.On("RevokeAll", ctx, "u1").Return(nil)

	err := svc.LogoutAll(ctx, "u1")

	assert.NoError(t, err)
	mockManager.AssertExpectations(t)
}
