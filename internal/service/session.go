package service

import (
	"context"

	"field-auth-server/internal/model"
	"field-auth-server/internal/ports"
	"field-auth-server/internal/util"
)

// issueSession выпускает пару access+refresh как одну логическую операцию:
// ошибка подписи или сохранения refresh-токена отменяет выдачу целиком,
// частично выданных токенов не бывает
func issueSession(
	ctx context.Context,
	account *model.Account,
	client model.ClientContext,
	jwtService ports.JWTServiceInterface,
	refreshTokenManager ports.RefreshTokenManager,
) (*model.SessionResult, error) {
	accessToken, expiresIn, err := jwtService.GenerateAccessToken(account)
	if err != nil {
		return nil, util.LogError("ошибка генерации токенов", err)
	}

	refreshToken, err := refreshTokenManager.Create(ctx, account.UUID, client)
	if err != nil {
		return nil, util.LogError("ошибка сохранения refresh токена", err)
	}

	return &model.SessionResult{
		Account: account.Sanitized(),
		Tokens: &model.TokensPair{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresIn:    expiresIn,
		},
	}, nil
}
