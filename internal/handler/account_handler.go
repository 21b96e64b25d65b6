package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"field-auth-server/internal/model"
	"field-auth-server/internal/model/requestresponse"
	"field-auth-server/internal/ports"
	"field-auth-server/internal/repository"
	"field-auth-server/internal/security"
)

type AccountHandler struct {
	ports.AccountService
}

func NewAccountHandler(accountService ports.AccountService) *AccountHandler {
	return &AccountHandler{accountService}
}

// CreateAccount godoc
// @Summary Создание аккаунта администратором
// @Description Создаёт ненастроенный аккаунт и отправляет setup-токен сервису рассылки
// @Tags Accounts
// @Accept json
// @Produce json
// @Param body body requestresponse.CreateAccountRequest true "Тело запроса"
// @Param Authorization header string true "Bearer токен администратора" default(Bearer <access_token>)
// @Success 201 {object} requestresponse.CreateAccountResponse
// @Failure 400 {object} requestresponse.ErrorResponse "Некорректный JSON или пустые поля"
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse "Недостаточно прав"
// @Failure 409 {object} requestresponse.ErrorResponse "Username или email уже используются"
// @Failure 500 {object} requestresponse.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/users [post]
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	admin, err := security.GetAccountFromContext(ctx)
	if err != nil {
		sendErrorResponse(w, http.StatusUnauthorized, "не авторизован")
		return
	}

	var req requestresponse.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, 400, "некорректный JSON")
		return
	}

	if err := req.Validate(); err != nil {
		sendErrorResponse(w, 400, err.Error())
		return
	}

	params := model.CreateAccountParams{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	}

	created, err := h.AccountService.CreateAccount(ctx, params, admin.UUID)
	if err != nil {
		log.Println(err)
		if errors.Is(err, model.ErrUsernameOrEmailTaken) {
			sendErrorResponse(w, http.StatusConflict, "username или email уже используются")
		} else {
			sendErrorResponse(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		}
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(requestresponse.CreateAccountResponse{Response: created})
}

// ListAccounts godoc
// @Summary Список аккаунтов
// @Description Возвращает проекции всех аккаунтов, новые первыми. Доступно только администратору
// @Tags Accounts
// @Produce json
// @Param Authorization header string true "Bearer токен администратора" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.ListAccountsResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse "Недостаточно прав"
// @Failure 500 {object} requestresponse.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/users [get]
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	accounts, err := h.AccountService.ListAccounts(r.Context())
	if err != nil {
		log.Println(err)
		sendErrorResponse(w, http.StatusInternalServerError, "не удалось получить список аккаунтов")
		return
	}

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(requestresponse.ListAccountsResponse{Response: accounts})
}

// GetAccount godoc
// @Summary Получение аккаунта
// @Description Возвращает проекцию аккаунта. Доступно администратору и самому владельцу
// @Tags Accounts
// @Produce json
// @Param uuid path string true "UUID аккаунта"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.AccountResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/users/{uuid} [get]
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	requester, err := security.GetAccountFromContext(ctx)
	if err != nil {
		sendErrorResponse(w, http.StatusUnauthorized, "не авторизован")
		return
	}

	accountUUID := chi.URLParam(r, "uuid")
	if requester.Role != model.RoleAdmin && requester.UUID != accountUUID {
		sendErrorResponse(w, http.StatusForbidden, "доступ запрещён")
		return
	}

	account, err := h.AccountService.GetAccount(ctx, accountUUID)
	if err != nil {
		log.Println(err)
		if repository.IsNotFound(err) {
			sendErrorResponse(w, http.StatusNotFound, "аккаунт не найден")
		} else {
			sendErrorResponse(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		}
		return
	}

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(requestresponse.AccountResponse{Response: account})
}

// DeactivateAccount godoc
// @Summary Деактивация аккаунта
// @Description Необратимо деактивирует аккаунт и завершает все его сессии. Для уже деактивированного аккаунта возвращается deactivated=false
// @Tags Accounts
// @Produce json
// @Param uuid path string true "UUID аккаунта"
// @Param Authorization header string true "Bearer токен администратора" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.DeactivateResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse "Аккаунт не найден"
// @Failure 500 {object} requestresponse.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/users/{uuid}/deactivate [post]
func (h *AccountHandler) DeactivateAccount(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	accountUUID := chi.URLParam(r, "uuid")
	if accountUUID == "" {
		sendErrorResponse(w, http.StatusBadRequest, "uuid не указан")
		return
	}

	deactivated, err := h.AccountService.DeactivateAccount(ctx, accountUUID)
	if err != nil {
		log.Println(err)
		if repository.IsNotFound(err) {
			sendErrorResponse(w, http.StatusNotFound, "аккаунт не найден")
		} else {
			sendErrorResponse(w, http.StatusInternalServerError, "не удалось деактивировать аккаунт")
		}
		return
	}

	resp := requestresponse.DeactivateResponse{}
	resp.Response.UUID = accountUUID
	resp.Response.Deactivated = deactivated

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}
