package ports

import (
	"context"

	"field-auth-server/internal/model"
)

type AuthenticationService interface {
	Login(ctx context.Context, username, password string, client model.ClientContext) (*model.SessionResult, error)
	Refresh(ctx context.Context, refreshToken string, client model.ClientContext) (*model.SessionResult, error)
	Logout(ctx context.Context, refreshToken string) (bool, error)
	LogoutAll(ctx context.Context, accountUUID string) error
}
