package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"field-auth-server/config"
	"field-auth-server/internal/model"
	"field-auth-server/internal/util"
)

type Claims struct {
	AccountUUID string     `json:"account_uuid"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Role        model.Role `json:"role"`
	jwt.RegisteredClaims
}

type JWTService struct {
	*config.JWTConfig
	now func() time.Time
}

func NewJWTService(cfg *config.JWTConfig) *JWTService {
	return &JWTService{cfg, time.Now}
}

// NewJWTServiceWithClock используется в тестах для управления временем выпуска
func NewJWTServiceWithClock(cfg *config.JWTConfig, clock func() time.Time) *JWTService {
	return &JWTService{cfg, clock}
}

// GenerateAccessToken подписывает короткоживущий access-токен с данными аккаунта.
// Токен самодостаточен: авторизация по нему не требует похода в БД
func (service *JWTService) GenerateAccessToken(account *model.Account) (string, int64, error) {
	timeDuration, err := time.ParseDuration(service.AccessTokenTTL)
	if err != nil {
		return "", 0, util.LogError("ошибка парсинга", err)
	}

	now := service.now()
	claims := Claims{
		AccountUUID: account.UUID,
		Username:    account.Username,
		Email:       account.Email,
		Role:        account.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(timeDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "field-auth-server",
		},
	}

	jwtToken := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	accessToken, err := jwtToken.SignedString([]byte(service.SecretKey))
	if err != nil {
		return "", 0, util.LogError("ошибка подписи токена", err)
	}

	return accessToken, int64(timeDuration.Seconds()), nil
}

// ValidateJWT проверяет подпись и срок действия access-токена.
// Просроченный токен отличается от токена с невалидной подписью:
// вызывающий слой отдаёт разные категории ошибок
func (service *JWTService) ValidateJWT(jwtTokenStr string) (*Claims, error) {
	var claims = &Claims{}

	jwtToken, err := jwt.ParseWithClaims(jwtTokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Header["alg"] != jwt.SigningMethodHS512.Alg() {
			return nil, fmt.Errorf("неверный способ подписи токена: %v", token.Header["alg"])
		}
		return []byte(service.SecretKey), nil
	}, jwt.WithTimeFunc(func() time.Time { return service.now() }))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", model.ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", model.ErrTokenInvalid, err)
	}
	if !jwtToken.Valid {
		return nil, model.ErrTokenInvalid
	}

	return claims, nil
}
