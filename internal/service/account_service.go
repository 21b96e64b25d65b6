package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"field-auth-server/config"
	"field-auth-server/internal/model"
	"field-auth-server/internal/ports"
	"field-auth-server/internal/repository"
	"field-auth-server/internal/security"
	"field-auth-server/internal/util"
)

const (
	// setupTokenBytes : 32 случайных байта, 256 бит энтропии
	setupTokenBytes = 32
	// tempPasswordBytes : временный пароль нового аккаунта; никому не сообщается,
	// вход по нему невозможен до погашения setup-токена
	tempPasswordBytes = 12

	defaultAdminUsername = "admin"
)

type AccountService struct {
	accountRepository   ports.AccountRepository
	refreshTokenManager ports.RefreshTokenManager
	jwtService          ports.JWTServiceInterface
	notifier            ports.Notifier
	setupTokenConfig    *config.SetupTokenConfig
	adminConfig         *config.AdminConfig
	now                 ports.Clock
}

func NewAccountService(
	accountRepository ports.AccountRepository,
	refreshTokenManager ports.RefreshTokenManager,
	jwtService ports.JWTServiceInterface,
	notifier ports.Notifier,
	setupTokenConfig *config.SetupTokenConfig,
	adminConfig *config.AdminConfig,
) *AccountService {
	return &AccountService{
		accountRepository:   accountRepository,
		refreshTokenManager: refreshTokenManager,
		jwtService:          jwtService,
		notifier:            notifier,
		setupTokenConfig:    setupTokenConfig,
		adminConfig:         adminConfig,
		now:                 time.Now,
	}
}

// NewAccountServiceWithClock используется в тестах для управления временем
func NewAccountServiceWithClock(
	accountRepository ports.AccountRepository,
	refreshTokenManager ports.RefreshTokenManager,
	jwtService ports.JWTServiceInterface,
	notifier ports.Notifier,
	setupTokenConfig *config.SetupTokenConfig,
	adminConfig *config.AdminConfig,
	clock ports.Clock,
) *AccountService {
	service := NewAccountService(accountRepository, refreshTokenManager, jwtService, notifier, setupTokenConfig, adminConfig)
	service.now = clock
	return service
}

// CreateAccount создаёт аккаунт по запросу администратора. Аккаунт рождается
// ненастроенным: с временным паролем, setup-токеном и флагами обязательной
// настройки. Setup-токен уходит во внешний сервис рассылки; сбой рассылки
// не отменяет создание аккаунта
func (s *AccountService) CreateAccount(ctx context.Context, params model.CreateAccountParams, adminUUID string) (*model.AccountInfo, error) {
	if _, err := s.accountRepository.FindByUsername(ctx, params.Username); err == nil {
		return nil, fmt.Errorf("%w", model.ErrUsernameOrEmailTaken)
	} else if !repository.IsNotFound(err) {
		return nil, util.LogError("[AccountService] ошибка проверки username", err)
	}

	if _, err := s.accountRepository.FindByEmail(ctx, params.Email); err == nil {
		return nil, fmt.Errorf("%w", model.ErrUsernameOrEmailTaken)
	} else if !repository.IsNotFound(err) {
		return nil, util.LogError("[AccountService] ошибка проверки email", err)
	}

	tempPassword, err := util.GenerateSecureToken(tempPasswordBytes)
	if err != nil {
		return nil, util.LogError("[AccountService] ошибка генерации временного пароля", err)
	}

	passwordHash, err := security.HashPassword(tempPassword)
	if err != nil {
		return nil, util.LogError("[AccountService] не удалось создать хэш пароля", err)
	}

	setupToken, expireAt, err := s.newSetupToken()
	if err != nil {
		return nil, err
	}

	account := &model.Account{
		UUID:               uuid.New().String(),
		Username:           params.Username,
		Email:              params.Email,
		PasswordHash:       passwordHash,
		FirstName:          params.FirstName,
		LastName:           params.LastName,
		Role:               params.Role,
		IsActive:           true,
		IsFirstLogin:       true,
		MustChangePassword: true,
		MustChangeEmail:    false,
		SetupToken:         &setupToken,
		SetupTokenExpireAt: &expireAt,
		CreatedBy:          &adminUUID,
	}

	created, err := s.accountRepository.CreateAccount(ctx, account)
	if err != nil {
		// уникальный индекс — последняя линия против гонки двух создателей
		return nil, err
	}

	s.notifyProvisioned(created.Email, setupToken, created.Role)

	return created.Sanitized(), nil
}

// SetupAccount гасит setup-токен: единственный переход аккаунта из состояния
// «требуется настройка» в рабочее. Слот токена очищается безусловно — повторное
// погашение того же значения невозможно. По результату, как и при входе,
// выдаётся пара токенов
func (s *AccountService) SetupAccount(ctx context.Context, params model.SetupAccountParams, client model.ClientContext) (*model.SessionResult, error) {
	account, err := s.accountRepository.FindBySetupToken(ctx, params.SetupToken)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w", model.ErrSetupTokenInvalid)
		}
		return nil, util.LogError("[AccountService] ошибка поиска по setup-токену", err)
	}

	if account.SetupTokenExpireAt == nil || !s.now().Before(*account.SetupTokenExpireAt) {
		return nil, fmt.Errorf("%w: срок действия истёк", model.ErrSetupTokenInvalid)
	}

	if params.NewEmail != account.Email {
		existing, err := s.accountRepository.FindByEmail(ctx, params.NewEmail)
		if err == nil && existing.UUID != account.UUID {
			return nil, fmt.Errorf("%w", model.ErrEmailConflict)
		}
		if err != nil && !repository.IsNotFound(err) {
			return nil, util.LogError("[AccountService] ошибка проверки email", err)
		}
	}

	passwordHash, err := security.HashPassword(params.NewPassword)
	if err != nil {
		return nil, util.LogError("[AccountService] не удалось создать хэш пароля", err)
	}

	lastLogin := s.now()
	account.Email = params.NewEmail
	account.PasswordHash = passwordHash
	account.FirstName = params.FirstName
	account.LastName = params.LastName
	account.LastLoginAt = &lastLogin

	redeemed, err := s.accountRepository.RedeemSetupToken(ctx, account, params.SetupToken)
	if err != nil {
		return nil, err
	}
	if !redeemed {
		// токен успели погасить конкурентно
		return nil, fmt.Errorf("%w: токен уже погашен", model.ErrSetupTokenInvalid)
	}

	account.MustChangePassword = false
	account.MustChangeEmail = false
	account.IsFirstLogin = false
	account.EmailVerified = true
	account.SetupToken = nil
	account.SetupTokenExpireAt = nil

	return issueSession(ctx, account, client, s.jwtService, s.refreshTokenManager)
}

// SeedDefaultAdmin создаёт администратора по умолчанию при первом запуске.
// Повторные запуски ничего не делают. Администратор рождается ненастроенным
// и обязан пройти setup-поток, как любой другой аккаунт
func (s *AccountService) SeedDefaultAdmin(ctx context.Context) error {
	exists, err := s.accountRepository.AdminExists(ctx)
	if err != nil {
		return util.LogError("[AccountService] ошибка проверки наличия администратора", err)
	}
	if exists {
		log.Println("администратор уже существует, сидирование пропущено")
		return nil
	}

	passwordHash, err := security.HashPassword(s.adminConfig.Password)
	if err != nil {
		return util.LogError("[AccountService] не удалось создать хэш пароля администратора", err)
	}

	setupToken, expireAt, err := s.newSetupToken()
	if err != nil {
		return err
	}

	admin := &model.Account{
		UUID:               uuid.New().String(),
		Username:           defaultAdminUsername,
		Email:              s.adminConfig.Email,
		PasswordHash:       passwordHash,
		FirstName:          "Admin",
		LastName:           "System",
		Role:               model.RoleAdmin,
		IsActive:           true,
		IsFirstLogin:       true,
		MustChangePassword: true,
		MustChangeEmail:    true,
		SetupToken:         &setupToken,
		SetupTokenExpireAt: &expireAt,
	}

	created, err := s.accountRepository.CreateAccount(ctx, admin)
	if err != nil {
		return util.LogError("[AccountService] ошибка создания администратора", err)
	}

	s.notifyProvisioned(created.Email, setupToken, created.Role)
	log.Printf("администратор по умолчанию создан: %s", created.Email)

	return nil
}

// GetAccount возвращает проекцию аккаунта без хэша пароля
func (s *AccountService) GetAccount(ctx context.Context, accountUUID string) (*model.AccountInfo, error) {
	account, err := s.accountRepository.FindByUUID(ctx, accountUUID)
	if err != nil {
		return nil, err
	}
	return account.Sanitized(), nil
}

// ListAccounts возвращает проекции всех аккаунтов для административного списка
func (s *AccountService) ListAccounts(ctx context.Context) ([]*model.AccountInfo, error) {
	accounts, err := s.accountRepository.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]*model.AccountInfo, 0, len(accounts))
	for i := range accounts {
		infos = append(infos, accounts[i].Sanitized())
	}
	return infos, nil
}

// DeactivateAccount необратимо деактивирует аккаунт и завершает все его сессии.
// Возвращает true, если аккаунт был деактивирован именно этим вызовом: повторная
// деактивация даёт false, несуществующий uuid — not-found ошибку.
// Access-токены не отзываются поштучно: guard перечитывает аккаунт на каждый
// запрос, поэтому деактивация действует немедленно
func (s *AccountService) DeactivateAccount(ctx context.Context, accountUUID string) (bool, error) {
	deactivated, err := s.accountRepository.Deactivate(ctx, accountUUID)
	if err != nil {
		return false, util.LogError("[AccountService] не удалось деактивировать аккаунт", err)
	}

	if !deactivated {
		// условный UPDATE никого не задел: либо uuid неизвестен,
		// либо аккаунт уже был деактивирован ранее
		if _, err := s.accountRepository.FindByUUID(ctx, accountUUID); err != nil {
			return false, err
		}
	}

	if err := s.refreshTokenManager.RevokeAll(ctx, accountUUID); err != nil {
		return false, util.LogError("[AccountService] не удалось отозвать токены аккаунта", err)
	}

	return deactivated, nil
}

func (s *AccountService) newSetupToken() (string, time.Time, error) {
	setupToken, err := util.GenerateSecureToken(setupTokenBytes)
	if err != nil {
		return "", time.Time{}, util.LogError("[AccountService] ошибка генерации setup-токена", err)
	}

	ttl, err := time.ParseDuration(s.setupTokenConfig.TTL)
	if err != nil {
		return "", time.Time{}, util.LogError("[AccountService] ошибка парсинга", err)
	}

	return setupToken, s.now().Add(ttl), nil
}

// notifyProvisioned отправляет setup-токен сервису рассылки в фоне.
// Сбой доставки логируется и не влияет на результат операции
func (s *AccountService) notifyProvisioned(email, setupToken string, role model.Role) {
	go func() {
		if err := s.notifier.SendProvisioningNotice(context.Background(), email, setupToken, role); err != nil {
			log.Printf("ошибка отправки уведомления о настройке аккаунта: %v", err)
		}
	}()
}
