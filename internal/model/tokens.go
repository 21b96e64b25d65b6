package model

import "time"

type RefreshToken struct {
	Token       string    `db:"token"`
	AccountUUID string    `db:"account_uuid"`
	ExpireAt    time.Time `db:"expire_at"`
	Revoked     bool      `db:"revoked"`
	UserAgent   string    `db:"user_agent"`
	IpAddress   string    `db:"ip_address"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// TokensPair содержит пару access и refresh токенов
// swagger:model
type TokensPair struct {
	// Access токен (JWT)
	// example: eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9...
	AccessToken string `json:"accessToken"`

	// Refresh токен (для получения новой пары)
	// example: vcSi0369y1I62wOpxZFpgZ...
	RefreshToken string `json:"refreshToken"`

	// Время жизни access токена в секундах
	// example: 900
	ExpiresIn int64 `json:"expiresIn"`
}

// ClientContext : метаданные клиента, сохраняемые вместе с refresh-токеном
type ClientContext struct {
	UserAgent string
	IpAddress string
}

// SessionResult : итог операции входа или погашения setup-токена.
// Либо выданы токены и проекция аккаунта, либо RequiresSetup вместе
// с действующим setup-токеном аккаунта
type SessionResult struct {
	Account       *AccountInfo `json:"account,omitempty"`
	Tokens        *TokensPair  `json:"tokens,omitempty"`
	RequiresSetup bool         `json:"requiresSetup,omitempty"`
	SetupToken    string       `json:"setupToken,omitempty"`
}
