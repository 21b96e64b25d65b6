package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"field-auth-server/config"
	"field-auth-server/internal/model"
	"field-auth-server/internal/util"
)

// uniqueViolation : код ошибки PostgreSQL для нарушения уникального индекса
const uniqueViolation = pq.ErrorCode("23505")

const accountColumns = `uuid, username, email, password_hash, first_name, last_name, role,
	is_active, is_first_login, must_change_password, must_change_email, email_verified,
	setup_token, setup_token_expire_at, last_login_at, created_by, created_at`

type AccountRepository struct {
	*config.Database
}

func NewAccountRepository(database *config.Database) *AccountRepository {
	return &AccountRepository{database}
}

// CreateAccount : сохраняет новый аккаунт. Нарушение уникальности username
// или email транслируется в model.ErrUsernameOrEmailTaken
func (r *AccountRepository) CreateAccount(ctx context.Context, account *model.Account) (*model.Account, error) {
	query := `
	INSERT INTO accounts (uuid, username, email, password_hash, first_name, last_name, role,
		is_active, is_first_login, must_change_password, must_change_email, email_verified,
		setup_token, setup_token_expire_at, created_by)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	RETURNING ` + accountColumns

	created := &model.Account{}
	err := r.DB.QueryRowxContext(ctx, query,
		account.UUID,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.FirstName,
		account.LastName,
		account.Role,
		account.IsActive,
		account.IsFirstLogin,
		account.MustChangePassword,
		account.MustChangeEmail,
		account.EmailVerified,
		account.SetupToken,
		account.SetupTokenExpireAt,
		account.CreatedBy,
	).StructScan(created)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: %v", model.ErrUsernameOrEmailTaken, pqErr.Constraint)
		}
		return nil, util.LogError("[AccountRepo] ошибка вставки данных в БД", err)
	}

	return created, nil
}

// FindByUUID : ищет аккаунт по UUID
func (r *AccountRepository) FindByUUID(ctx context.Context, uuid string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE uuid = $1`
	var account model.Account
	err := r.DB.GetContext(ctx, &account, query, uuid)
	if err != nil {
		return nil, util.LogError("[AccountRepo] не удалось найти аккаунт в БД", err)
	}
	return &account, nil
}

// FindByUsername : ищет аккаунт по username
func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`
	var account model.Account
	err := r.DB.GetContext(ctx, &account, query, username)
	if err != nil {
		return nil, util.LogError("[AccountRepo] не удалось найти аккаунт по username", err)
	}
	return &account, nil
}

// FindByEmail : ищет аккаунт по email
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	var account model.Account
	err := r.DB.GetContext(ctx, &account, query, email)
	if err != nil {
		return nil, util.LogError("[AccountRepo] не удалось найти аккаунт по email", err)
	}
	return &account, nil
}

// FindBySetupToken : ищет аккаунт по значению setup-токена.
// Срок действия токена проверяет сервисный слой
func (r *AccountRepository) FindBySetupToken(ctx context.Context, token string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE setup_token = $1`
	var account model.Account
	err := r.DB.GetContext(ctx, &account, query, token)
	if err != nil {
		return nil, util.LogError("[AccountRepo] не удалось найти аккаунт по setup-токену", err)
	}
	return &account, nil
}

// ListAccounts : возвращает все аккаунты, новые первыми
func (r *AccountRepository) ListAccounts(ctx context.Context) ([]model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at DESC`
	var accounts []model.Account
	if err := r.DB.SelectContext(ctx, &accounts, query); err != nil {
		return nil, util.LogError("[AccountRepo] не удалось получить список аккаунтов", err)
	}
	return accounts, nil
}

// AdminExists : проверяет, есть ли в системе хотя бы один администратор
func (r *AccountRepository) AdminExists(ctx context.Context) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM accounts WHERE role = $1)`
	err := r.DB.GetContext(ctx, &exists, query, model.RoleAdmin)
	if err != nil {
		return false, util.LogError("[AccountRepo] ошибка проверки наличия администратора", err)
	}
	return exists, nil
}

// StampLastLogin : обновляет отметку последнего входа
func (r *AccountRepository) StampLastLogin(ctx context.Context, uuid string, at time.Time) error {
	query := `UPDATE accounts SET last_login_at = $2 WHERE uuid = $1`
	_, err := r.DB.ExecContext(ctx, query, uuid, at)
	if err != nil {
		return util.LogError("[AccountRepo] не удалось обновить отметку входа", err)
	}
	return nil
}

// RedeemSetupToken : применяет новые учётные данные и безусловно очищает слот
// setup-токена одним условным UPDATE. Условие setup_token = $token гарантирует,
// что из двух конкурентных погашений выигрывает ровно одно: проигравший получает
// false и должен считать токен невалидным
func (r *AccountRepository) RedeemSetupToken(ctx context.Context, account *model.Account, token string) (bool, error) {
	query := `
	UPDATE accounts
	SET email = $2,
		password_hash = $3,
		first_name = $4,
		last_name = $5,
		must_change_password = FALSE,
		must_change_email = FALSE,
		is_first_login = FALSE,
		email_verified = TRUE,
		setup_token = NULL,
		setup_token_expire_at = NULL,
		last_login_at = $6
	WHERE uuid = $1 AND setup_token = $7
	`

	result, err := r.DB.ExecContext(ctx, query,
		account.UUID,
		account.Email,
		account.PasswordHash,
		account.FirstName,
		account.LastName,
		account.LastLoginAt,
		token,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return false, fmt.Errorf("%w: %v", model.ErrEmailConflict, pqErr.Constraint)
		}
		return false, util.LogError("[AccountRepo] не удалось погасить setup-токен", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, util.LogError("[AccountRepo] не удалось проверить, погашен ли setup-токен", err)
	}

	return rowsAffected > 0, nil
}

// Deactivate : необратимо деактивирует аккаунт.
// Возвращает true, если состояние изменилось этим вызовом
func (r *AccountRepository) Deactivate(ctx context.Context, uuid string) (bool, error) {
	query := `UPDATE accounts SET is_active = FALSE WHERE uuid = $1 AND is_active = TRUE`

	result, err := r.DB.ExecContext(ctx, query, uuid)
	if err != nil {
		return false, util.LogError("[AccountRepo] не удалось деактивировать аккаунт", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, util.LogError("[AccountRepo] не удалось проверить, деактивирован ли аккаунт", err)
	}

	return rowsAffected > 0, nil
}

// IsNotFound сообщает, что ошибка репозитория означает отсутствие строки
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
