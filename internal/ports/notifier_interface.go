package ports

import (
	"context"

	"field-auth-server/internal/model"
)

// Notifier передаёт setup-токен внешнему сервису рассылки.
// Доставка писем — не зона ответственности этой подсистемы
type Notifier interface {
	SendProvisioningNotice(ctx context.Context, email, setupToken string, role model.Role) error
}
