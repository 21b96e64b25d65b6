package ports

import (
	"context"
	"time"

	"field-auth-server/internal/model"
)

type AccountRepository interface {
	CreateAccount(ctx context.Context, account *model.Account) (*model.Account, error)
	FindByUUID(ctx context.Context, uuid string) (*model.Account, error)
	FindByUsername(ctx context.Context, username string) (*model.Account, error)
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	ListAccounts(ctx context.Context) ([]model.Account, error)
	AdminExists(ctx context.Context) (bool, error)
	StampLastLogin(ctx context.Context, uuid string, at time.Time) error
	FindBySetupToken(ctx context.Context, token string) (*model.Account, error)
	// RedeemSetupToken применяет новые учётные данные и очищает слот setup-токена
	// одним условным UPDATE. Возвращает false, если токен уже был погашен конкурентно
	RedeemSetupToken(ctx context.Context, account *model.Account, token string) (bool, error)
	Deactivate(ctx context.Context, uuid string) (bool, error)
}

type AccountService interface {
	CreateAccount(ctx context.Context, params model.CreateAccountParams, adminUUID string) (*model.AccountInfo, error)
	SetupAccount(ctx context.Context, params model.SetupAccountParams, client model.ClientContext) (*model.SessionResult, error)
	SeedDefaultAdmin(ctx context.Context) error
	GetAccount(ctx context.Context, uuid string) (*model.AccountInfo, error)
	ListAccounts(ctx context.Context) ([]*model.AccountInfo, error)
	// DeactivateAccount возвращает true, если аккаунт был деактивирован именно
	// этим вызовом; для несуществующего uuid возвращается not-found ошибка
	DeactivateAccount(ctx context.Context, uuid string) (bool, error)
}
