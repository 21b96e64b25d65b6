package security

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"field-auth-server/internal/model"
	"field-auth-server/internal/repository"
	"field-auth-server/internal/util"
)

type contextKey string

const (
	AccountContextKey contextKey = "account"
)

// AccountResolver достаёт актуальное состояние аккаунта из хранилища.
// Access-токены не отзываются поштучно, поэтому guard на каждый запрос
// перечитывает аккаунт: так деактивация действует сразу, не дожидаясь
// истечения токена
type AccountResolver interface {
	FindByUUID(ctx context.Context, uuid string) (*model.Account, error)
}

// Guard : составная проверка запроса — сначала аутентификация по access-токену,
// затем авторизация по требуемым ролям. Guard не хранит состояния между запросами
type Guard struct {
	jwtService *JWTService
	accounts   AccountResolver
}

func NewGuard(jwtService *JWTService, accounts AccountResolver) *Guard {
	return &Guard{
		jwtService: jwtService,
		accounts:   accounts,
	}
}

// Authenticate проверяет bearer-токен и возвращает живое состояние аккаунта.
// Категории отказа: model.ErrCredentialsMissing, model.ErrTokenInvalid,
// model.ErrTokenExpired, model.ErrAccountInactive. Сбои хранилища
// пробрасываются как есть и не попадают ни в одну из категорий
func (g *Guard) Authenticate(ctx context.Context, bearerToken string) (*model.Account, error) {
	if bearerToken == "" {
		return nil, model.ErrCredentialsMissing
	}

	claims, err := g.jwtService.ValidateJWT(bearerToken)
	if err != nil {
		return nil, err
	}

	account, err := g.accounts.FindByUUID(ctx, claims.AccountUUID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: аккаунт не найден", model.ErrAccountInactive)
		}
		// сбой хранилища не означает, что аккаунт неактивен
		return nil, util.LogError("не удалось загрузить аккаунт", err)
	}

	// аккаунт мог быть деактивирован или возвращён в состояние настройки
	// уже после выпуска токена
	if !account.IsActive || account.RequiresSetup() {
		return nil, model.ErrAccountInactive
	}

	return account, nil
}

// Authorize проверяет, что роль аккаунта входит в требуемый набор.
// Пустой набор означает, что достаточно самой аутентификации
func (g *Guard) Authorize(account *model.Account, requiredRoles ...model.Role) error {
	if len(requiredRoles) == 0 {
		return nil
	}

	for _, role := range requiredRoles {
		if account.Role == role {
			return nil
		}
	}

	return fmt.Errorf("%w: требуются роли %v", model.ErrInsufficientRole, requiredRoles)
}

// AuthenticateAndAuthorize : обе проверки подряд, всегда в этом порядке
func (g *Guard) AuthenticateAndAuthorize(ctx context.Context, bearerToken string, requiredRoles ...model.Role) (*model.Account, error) {
	account, err := g.Authenticate(ctx, bearerToken)
	if err != nil {
		return nil, err
	}

	if err := g.Authorize(account, requiredRoles...); err != nil {
		return nil, err
	}

	return account, nil
}

// Middleware оборачивает защищённые маршруты. Публичные маршруты guard
// не проходят вовсе: их группы объявляются без этого middleware
func (g *Guard) Middleware(requiredRoles ...model.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			bearerToken := BearerFromHeader(request)

			account, err := g.AuthenticateAndAuthorize(request.Context(), bearerToken, requiredRoles...)
			if err != nil {
				log.Printf("запрос отклонён guard-ом: %v", err)
				switch {
				case errors.Is(err, model.ErrInsufficientRole):
					util.HandleError(writer, "недостаточно прав", http.StatusForbidden)
				case errors.Is(err, model.ErrCredentialsMissing),
					errors.Is(err, model.ErrTokenInvalid),
					errors.Is(err, model.ErrTokenExpired),
					errors.Is(err, model.ErrAccountInactive):
					util.HandleError(writer, "unauthorized", http.StatusUnauthorized)
				default:
					util.HandleError(writer, "внутренняя ошибка сервера", http.StatusInternalServerError)
				}
				return
			}

			req := request.WithContext(context.WithValue(request.Context(), AccountContextKey, account))
			next.ServeHTTP(writer, req)
		})
	}
}

// BearerFromHeader извлекает токен из заголовка Authorization.
// Пустая строка означает, что токен не передан
func BearerFromHeader(request *http.Request) string {
	authorizationHeader := request.Header.Get("Authorization")
	if !strings.HasPrefix(authorizationHeader, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(authorizationHeader, "Bearer ")
}

func GetAccountFromContext(ctx context.Context) (*model.Account, error) {
	account, ok := ctx.Value(AccountContextKey).(*model.Account)
	if !ok || account == nil {
		return nil, fmt.Errorf("пользователь не авторизован")
	}
	return account, nil
}
