package requestresponse

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"field-auth-server/internal/model"
)

// CreateAccountRequest : создание аккаунта администратором.
// Пароль не передаётся: новый аккаунт получает setup-токен
type CreateAccountRequest struct {
	Email     string     `json:"email" example:"agent01@example.com"`
	Username  string     `json:"username" example:"agent01"`
	FirstName string     `json:"first_name" example:"Амаду"`
	LastName  string     `json:"last_name" example:"Диалло"`
	Role      model.Role `json:"role" example:"FIELD_AGENT"`
}

func (r CreateAccountRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Username, validation.Required, validation.Length(3, 0)),
		validation.Field(&r.FirstName, validation.Required, validation.Length(3, 0)),
		validation.Field(&r.LastName, validation.Required, validation.Length(3, 0)),
		validation.Field(&r.Role, validation.Required, validation.In(model.RoleAdmin, model.RoleFieldAgent)),
	)
}

// CreateAccountResponse : ответ на создание аккаунта
type CreateAccountResponse struct {
	Response *model.AccountInfo `json:"response"`
}

// AccountResponse : ответ на запрос аккаунта
type AccountResponse struct {
	Response *model.AccountInfo `json:"response"`
}

// ListAccountsResponse : ответ на запрос списка аккаунтов
type ListAccountsResponse struct {
	Response []*model.AccountInfo `json:"response"`
}

// DeactivateResponse : ответ на деактивацию аккаунта
type DeactivateResponse struct {
	Response struct {
		UUID        string `json:"uuid" example:"b6a1e1c4-4b1d-4f1e-8b29-1234567890ab"`
		Deactivated bool   `json:"deactivated" example:"true"`
	} `json:"response"`
}
