package repository

import (
	"context"
	"database/sql"
	"errors"

	"field-auth-server/config"
	"field-auth-server/internal/model"
	"field-auth-server/internal/util"
)

type RefreshTokenRepository struct {
	*config.Database
}

func NewRefreshTokenRepository(database *config.Database) *RefreshTokenRepository {
	return &RefreshTokenRepository{database}
}

// Save сохраняет refresh-токен в базе данных
// Возвращает ошибку, если операция не удалась
func (r *RefreshTokenRepository) Save(ctx context.Context, refreshToken *model.RefreshToken) error {
	query := `INSERT INTO refresh_tokens (token, account_uuid, expire_at, revoked, user_agent, ip_address)
				VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.DB.ExecContext(ctx, query,
		refreshToken.Token,
		refreshToken.AccountUUID,
		refreshToken.ExpireAt,
		refreshToken.Revoked,
		refreshToken.UserAgent,
		refreshToken.IpAddress,
	)

	if err != nil {
		return util.LogError("ошибка вставки данных в БД", err)
	}

	return nil
}

// FindByToken ищет refresh-токен по его значению вместе с аккаунтом-владельцем
func (r *RefreshTokenRepository) FindByToken(ctx context.Context, token string) (*model.RefreshToken, *model.Account, error) {
	query := `
	SELECT rt.token, rt.account_uuid, rt.expire_at, rt.revoked, rt.user_agent, rt.ip_address, rt.created_at,
		a.uuid, a.username, a.email, a.password_hash, a.first_name, a.last_name, a.role,
		a.is_active, a.is_first_login, a.must_change_password, a.must_change_email, a.email_verified,
		a.setup_token, a.setup_token_expire_at, a.last_login_at, a.created_by, a.created_at
	FROM refresh_tokens rt
	JOIN accounts a ON a.uuid = rt.account_uuid
	WHERE rt.token = $1`

	refreshToken := &model.RefreshToken{}
	account := &model.Account{}

	err := r.DB.QueryRowContext(ctx, query, token).Scan(
		&refreshToken.Token,
		&refreshToken.AccountUUID,
		&refreshToken.ExpireAt,
		&refreshToken.Revoked,
		&refreshToken.UserAgent,
		&refreshToken.IpAddress,
		&refreshToken.CreatedAt,
		&account.UUID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.FirstName,
		&account.LastName,
		&account.Role,
		&account.IsActive,
		&account.IsFirstLogin,
		&account.MustChangePassword,
		&account.MustChangeEmail,
		&account.EmailVerified,
		&account.SetupToken,
		&account.SetupTokenExpireAt,
		&account.LastLoginAt,
		&account.CreatedBy,
		&account.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, util.LogError("токен не был найден", err)
		}
		return nil, nil, util.LogError("ошибка при выполнении запроса", err)
	}

	return refreshToken, account, nil
}

// MarkRevoked отзывает токен условным UPDATE: изменяются только ещё не отозванные
// строки. Из двух конкурентных ротаций одного токена выигрывает ровно одна —
// проигравшая видит rowsAffected = 0
func (r *RefreshTokenRepository) MarkRevoked(ctx context.Context, token string) (bool, error) {
	query := `UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1 AND revoked = FALSE`

	result, err := r.DB.ExecContext(ctx, query, token)
	if err != nil {
		return false, util.LogError("не удалось отозвать refresh-токен", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, util.LogError("не удалось проверить, отозван ли токен", err)
	}

	return rowsAffected > 0, nil
}

// RevokeAllForAccount безусловно отзывает все токены аккаунта («выйти везде»)
func (r *RefreshTokenRepository) RevokeAllForAccount(ctx context.Context, accountUUID string) error {
	query := `UPDATE refresh_tokens SET revoked = TRUE WHERE account_uuid = $1`

	_, err := r.DB.ExecContext(ctx, query, accountUUID)
	if err != nil {
		return util.LogError("не удалось отозвать токены аккаунта", err)
	}

	return nil
}

// DeleteExpiredOrRevoked удаляет просроченные и отозванные токены.
// Это фоновая уборка: Validate и без неё считает такие строки невалидными
func (r *RefreshTokenRepository) DeleteExpiredOrRevoked(ctx context.Context) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expire_at < now() OR revoked = TRUE`

	result, err := r.DB.ExecContext(ctx, query)
	if err != nil {
		return 0, util.LogError("не удалось удалить отработанные токены", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, util.LogError("не удалось получить количество удалённых токенов", err)
	}

	return rowsAffected, nil
}
