package model

import "time"

// Role : роль аккаунта в системе
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleFieldAgent Role = "FIELD_AGENT"
)

// Valid проверяет, что роль входит в список известных
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleFieldAgent
}

type Account struct {
	UUID               string     `db:"uuid" json:"uuid"`
	Username           string     `db:"username" json:"username"`
	Email              string     `db:"email" json:"email"`
	PasswordHash       string     `db:"password_hash" json:"-"`
	FirstName          string     `db:"first_name" json:"first_name"`
	LastName           string     `db:"last_name" json:"last_name"`
	Role               Role       `db:"role" json:"role"`
	IsActive           bool       `db:"is_active" json:"is_active"`
	IsFirstLogin       bool       `db:"is_first_login" json:"-"`
	MustChangePassword bool       `db:"must_change_password" json:"-"`
	MustChangeEmail    bool       `db:"must_change_email" json:"-"`
	EmailVerified      bool       `db:"email_verified" json:"-"`
	SetupToken         *string    `db:"setup_token" json:"-"`
	SetupTokenExpireAt *time.Time `db:"setup_token_expire_at" json:"-"`
	LastLoginAt        *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedBy          *string    `db:"created_by" json:"-"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
}

// RequiresSetup сообщает, что аккаунт ещё не настроен и обычный вход для него запрещён:
// войти можно только через погашение setup-токена
func (a *Account) RequiresSetup() bool {
	return a.MustChangePassword || a.MustChangeEmail || a.IsFirstLogin
}

// AccountInfo : проекция аккаунта без хэша пароля, отдаётся наружу
type AccountInfo struct {
	UUID      string `json:"uuid"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
}

// Sanitized возвращает проекцию аккаунта для ответов API
func (a *Account) Sanitized() *AccountInfo {
	return &AccountInfo{
		UUID:      a.UUID,
		Username:  a.Username,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Role:      a.Role,
	}
}
