package requestresponse

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"field-auth-server/internal/model"
)

// LoginRequest : тело запроса на аутентификацию
type LoginRequest struct {
	Username string `json:"username" example:"agent01"`
	Password string `json:"password" example:"P@ssw0rd123"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// LoginResponse : ответ на успешную аутентификацию.
// Если аккаунт ещё не настроен, вместо токенов возвращается requiresSetup
type LoginResponse struct {
	Response *model.SessionResult `json:"response"`
}

// RefreshTokenRequest : запрос на обновление пары токенов
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" example:"9f86d081884c7d659a2f..."`
}

func (r RefreshTokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

// RefreshTokenResponse : ответ на успешную ротацию
type RefreshTokenResponse struct {
	Response *model.SessionResult `json:"response"`
}

// LogoutRequest : запрос на завершение сессии
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" example:"9f86d081884c7d659a2f..."`
}

func (r LogoutRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

// LogoutResponse : ответ на завершение сессии
type LogoutResponse struct {
	Response struct {
		// true, если токен был отозван этим запросом,
		// false, если он уже был отозван ранее
		Revoked bool `json:"revoked" example:"true"`
	} `json:"response"`
}

// SetupAccountRequest : погашение setup-токена при первичной настройке аккаунта
type SetupAccountRequest struct {
	SetupToken  string `json:"setup_token" example:"b71a42c93e08f1..."`
	NewEmail    string `json:"new_email" example:"agent01@example.com"`
	NewPassword string `json:"new_password" example:"P@ssw0rd123"`
	FirstName   string `json:"first_name" example:"Амаду"`
	LastName    string `json:"last_name" example:"Диалло"`
}

func (r SetupAccountRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SetupToken, validation.Required),
		validation.Field(&r.NewEmail, validation.Required, is.Email),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(6, 0)),
		validation.Field(&r.FirstName, validation.Required, validation.Length(3, 0)),
		validation.Field(&r.LastName, validation.Required, validation.Length(3, 0)),
	)
}

// CurrentUserResponse : информация о текущем пользователе
type CurrentUserResponse struct {
	Response *model.AccountInfo `json:"response"`
}

// ErrorResponse : единый формат ошибки
type ErrorResponse struct {
	Error   string `json:"error" example:"Unauthorized"`
	Message string `json:"message" example:"неверный логин или пароль"`
	Code    int    `json:"code" example:"401"`
}
