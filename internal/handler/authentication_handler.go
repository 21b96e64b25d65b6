package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"field-auth-server/internal/model"
	"field-auth-server/internal/model/requestresponse"
	"field-auth-server/internal/ports"
	"field-auth-server/internal/security"
	"field-auth-server/internal/util"
)

type AuthenticationHandler struct {
	ports.AuthenticationService
	ports.AccountService
}

func NewAuthenticationHandler(
	authenticationService ports.AuthenticationService,
	accountService ports.AccountService,
) *AuthenticationHandler {
	return &AuthenticationHandler{
		authenticationService,
		accountService,
	}
}

func sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	util.HandleError(w, message, statusCode)
}

// Login godoc
// @Summary Аутентификация пользователя
// @Description Получение пары токенов по логину и паролю. Для ненастроенного аккаунта вместо токенов возвращается requiresSetup
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.LoginRequest true "Тело запроса"
// @Success 200 {object} requestresponse.LoginResponse "Успешная аутентификация"
// @Failure 400 {object} requestresponse.ErrorResponse "Некорректный JSON или пустые поля"
// @Failure 401 {object} requestresponse.ErrorResponse "Неверный логин или пароль"
// @Failure 429 {object} requestresponse.ErrorResponse "Слишком много попыток входа"
// @Failure 500 {object} requestresponse.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/auth [post]
func (h *AuthenticationHandler) Login(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	var req requestresponse.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, 400, "некорректный JSON")
		return
	}

	if err := req.Validate(); err != nil {
		sendErrorResponse(w, 400, err.Error())
		return
	}

	client := model.ClientContext{UserAgent: r.UserAgent(), IpAddress: r.RemoteAddr}

	result, err := h.AuthenticationService.Login(ctx, req.Username, req.Password, client)
	if err != nil {
		log.Println(err)
		switch {
		case errors.Is(err, model.ErrTooManyAttempts):
			sendErrorResponse(w, http.StatusTooManyRequests, "слишком много попыток входа")
		case errors.Is(err, model.ErrAuthenticationFailed):
			sendErrorResponse(w, http.StatusUnauthorized, "неверный логин или пароль")
		default:
			sendErrorResponse(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		}
		return
	}

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(requestresponse.LoginResponse{Response: result})
}

// RefreshToken godoc
// @Summary Обновление токенов
// @Description Ротация: отзывает переданный refresh-токен и выдаёт новую пару
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.RefreshTokenRequest true "Тело запроса"
// @Success 200 {object} requestresponse.RefreshTokenResponse "Новые access и refresh токены"
// @Failure 400 {object} requestresponse.ErrorResponse "Неверный JSON"
// @Failure 401 {object} requestresponse.ErrorResponse "Невалидный refresh-токен"
// @Failure 500 {object} requestresponse.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/auth/refresh [post]
func (h *AuthenticationHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	var req requestresponse.RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, 400, "неверный JSON")
		return
	}

	if err := req.Validate(); err != nil {
		sendErrorResponse(w, 400, err.Error())
		return
	}

	client := model.ClientContext{UserAgent: r.UserAgent(), IpAddress: r.RemoteAddr}

	result, err := h.AuthenticationService.Refresh(ctx, req.RefreshToken, client)
	if err != nil {
		log.Println(err)
		if errors.Is(err, model.ErrInvalidRefreshToken) {
			sendErrorResponse(w, http.StatusUnauthorized, "не удалось обновить токены")
		} else {
			sendErrorResponse(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		}
		return
	}

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(requestresponse.RefreshTokenResponse{Response: result})
}

// Logout godoc
// @Summary Завершение авторизованной сессии
// @Description Отзывает refresh-токен. Повторный вызов с тем же токеном возвращает revoked=false
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.LogoutRequest true "Тело запроса"
// @Success 200 {object} requestresponse.LogoutResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/logout [delete]
func (h *AuthenticationHandler) Logout(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	var req requestresponse.LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, 400, "неверный JSON")
		return
	}

	if err := req.Validate(); err != nil {
		sendErrorResponse(w, 400, err.Error())
		return
	}

	revoked, err := h.AuthenticationService.Logout(ctx, req.RefreshToken)
	if err != nil {
		log.Println(err)
		sendErrorResponse(w, http.StatusInternalServerError, "не удалось завершить сессию")
		return
	}

	resp := requestresponse.LogoutResponse{}
	resp.Response.Revoked = revoked

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Println("ошибка кодирования ответа:", err)
	}
}

// LogoutAll godoc
// @Summary Завершение всех сессий пользователя
// @Description Отзывает все refresh-токены текущего пользователя («выйти везде»)
// @Tags Authentication
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.LogoutResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/auth/logout-all [delete]
func (h *AuthenticationHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	account, err := security.GetAccountFromContext(ctx)
	if err != nil {
		sendErrorResponse(w, http.StatusUnauthorized, "не авторизован")
		return
	}

	if err := h.AuthenticationService.LogoutAll(ctx, account.UUID); err != nil {
		log.Println(err)
		sendErrorResponse(w, http.StatusInternalServerError, "не удалось завершить сессии")
		return
	}

	resp := requestresponse.LogoutResponse{}
	resp.Response.Revoked = true

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// SetupAccount godoc
// @Summary Первичная настройка аккаунта
// @Description Гасит одноразовый setup-токен: устанавливает email и пароль, после чего выдаёт пару токенов
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.SetupAccountRequest true "Тело запроса"
// @Success 200 {object} requestresponse.LoginResponse "Аккаунт настроен, выдана пара токенов"
// @Failure 400 {object} requestresponse.ErrorResponse "Некорректный JSON или пустые поля"
// @Failure 401 {object} requestresponse.ErrorResponse "Невалидный или просроченный setup-токен"
// @Failure 409 {object} requestresponse.ErrorResponse "Email уже используется"
// @Failure 500 {object} requestresponse.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/auth/setup-account [post]
func (h *AuthenticationHandler) SetupAccount(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	var req requestresponse.SetupAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, 400, "некорректный JSON")
		return
	}

	if err := req.Validate(); err != nil {
		sendErrorResponse(w, 400, err.Error())
		return
	}

	params := model.SetupAccountParams{
		SetupToken:  req.SetupToken,
		NewEmail:    req.NewEmail,
		NewPassword: req.NewPassword,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
	}
	client := model.ClientContext{UserAgent: r.UserAgent(), IpAddress: r.RemoteAddr}

	result, err := h.AccountService.SetupAccount(ctx, params, client)
	if err != nil {
		log.Println(err)
		switch {
		case errors.Is(err, model.ErrSetupTokenInvalid):
			sendErrorResponse(w, http.StatusUnauthorized, "невалидный или просроченный токен")
		case errors.Is(err, model.ErrEmailConflict):
			sendErrorResponse(w, http.StatusConflict, "email уже используется")
		default:
			sendErrorResponse(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		}
		return
	}

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(requestresponse.LoginResponse{Response: result})
}

// GetCurrentUser godoc
// @Summary Информация о текущем пользователе
// @Description Возвращает проекцию аккаунта, которому принадлежит access-токен
// @Tags Authentication
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.CurrentUserResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/auth/me [get]
func (h *AuthenticationHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	account, err := security.GetAccountFromContext(r.Context())
	if err != nil {
		sendErrorResponse(w, http.StatusUnauthorized, "не авторизован")
		return
	}

	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(requestresponse.CurrentUserResponse{Response: account.Sanitized()})
}
