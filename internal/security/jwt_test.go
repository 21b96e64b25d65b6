package security_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"field-auth-server/config"
	"field-auth-server/internal/model"
	"field-auth-server/internal/security"
)

var issuedAt = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestJWTService(now func() time.Time) *security.JWTService {
	return security.NewJWTServiceWithClock(&config.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenTTL:  "15m",
		RefreshTokenTTL: "168h",
	}, now)
}

func testAccount() *model.Account {
	return &model.Account{
		UUID:     "u1",
		Username: "bob",
		Email:    "bob@x.com",
		Role:     model.RoleFieldAgent,
	}
}

// Выпущенный токен проходит проверку и несёт данные аккаунта
func TestGenerateAndValidateAccessToken(t *testing.T) {
	svc := newTestJWTService(func() time.Time { return issuedAt })

	tokenStr, expiresIn, err := svc.GenerateAccessToken(testAccount())
	assert.NoError(t, err)
	assert.Equal(t, int64(900), expiresIn)

	claims, err := svc.ValidateJWT(tokenStr)
	assert.NoError(t, err)
	assert.Equal(t, "u1", claims.AccountUUID)
	assert.Equal(t, "bob", claims.Username)
	assert.Equal(t, "bob@x.com", claims.Email)
	assert.Equal(t, model.RoleFieldAgent, claims.Role)
	assert.Equal(t, "field-auth-server", claims.Issuer)
	assert.Equal(t, issuedAt.Add(15*time.Minute).Unix(), claims.ExpiresAt.Unix())
}

// Просроченный токен даёт ErrTokenExpired, а не общую ErrTokenInvalid
func TestValidateJWT_Expired(t *testing.T) {
	now := issuedAt
	svc := newTestJWTService(func() time.Time { return now })

	tokenStr, _, err := svc.GenerateAccessToken(testAccount())
	assert.NoError(t, err)

	now = issuedAt.Add(16 * time.Minute)

	_, err = svc.ValidateJWT(tokenStr)
	assert.ErrorIs(t, err, model.ErrTokenExpired)
}

// Токен, подписанный другим секретом, не проходит
func TestValidateJWT_WrongSecret(t *testing.T) {
	svc := newTestJWTService(func() time.Time { return issuedAt })
	other := security.NewJWTServiceWithClock(&config.JWTConfig{
		SecretKey:      "other-secret",
		AccessTokenTTL: "15m",
	}, func() time.Time { return issuedAt })

	tokenStr, _, err := other.GenerateAccessToken(testAccount())
	assert.NoError(t, err)

	_, err = svc.ValidateJWT(tokenStr)
	assert.ErrorIs(t, err, model.ErrTokenInvalid)
}

// Подмена алгоритма подписи отклоняется до проверки подписи
func TestValidateJWT_WrongAlgorithm(t *testing.T) {
	svc := newTestJWTService(func() time.Time { return issuedAt })

	claims := security.Claims{
		AccountUUID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(15 * time.Minute)),
		},
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	assert.NoError(t, err)

	_, err = svc.ValidateJWT(forged)
	assert.ErrorIs(t, err, model.ErrTokenInvalid)
}

func TestValidateJWT_Garbage(t *testing.T) {
	svc := newTestJWTService(func() time.Time { return issuedAt })

	_, err := svc.ValidateJWT("не jwt вовсе")
	assert.ErrorIs(t, err, model.ErrTokenInvalid)
}
