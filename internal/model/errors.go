package model

import "errors"

// Доменные ошибки подсистемы аутентификации. Каждая ошибка — отдельная
// категория для вызывающего слоя; текст намеренно не раскрывает деталей
// (отсутствие пользователя неотличимо от неверного пароля, просроченный
// refresh-токен — от отозванного)
var (
	// ErrAuthenticationFailed : неверный логин или пароль (или аккаунт неактивен)
	ErrAuthenticationFailed = errors.New("неверный логин или пароль")

	// ErrInvalidRefreshToken : refresh-токен не найден, просрочен, отозван
	// или его владелец деактивирован
	ErrInvalidRefreshToken = errors.New("невалидный refresh-токен")

	// ErrTokenInvalid : подпись access-токена не прошла проверку
	ErrTokenInvalid = errors.New("невалидный access-токен")

	// ErrTokenExpired : access-токен просрочен
	ErrTokenExpired = errors.New("access-токен просрочен")

	// ErrCredentialsMissing : в запросе нет bearer-токена
	ErrCredentialsMissing = errors.New("токен не передан")

	// ErrAccountInactive : аккаунт деактивирован или возвращён в состояние настройки
	ErrAccountInactive = errors.New("аккаунт неактивен")

	// ErrInsufficientRole : роль аккаунта не входит в требуемый набор
	ErrInsufficientRole = errors.New("недостаточно прав")

	// ErrSetupTokenInvalid : setup-токен не найден, просрочен или уже погашен
	ErrSetupTokenInvalid = errors.New("невалидный или просроченный setup-токен")

	// ErrEmailConflict : email уже занят другим аккаунтом
	ErrEmailConflict = errors.New("email уже используется")

	// ErrUsernameOrEmailTaken : при создании аккаунта username или email заняты
	ErrUsernameOrEmailTaken = errors.New("username или email уже используются")

	// ErrTooManyAttempts : превышен лимит попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток входа")
)
