package model

// CreateAccountParams : данные нового аккаунта, создаваемого администратором.
// Пароль не входит: аккаунт создаётся с временным паролем и setup-токеном
type CreateAccountParams struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Role      Role
}

// SetupAccountParams : данные погашения setup-токена
type SetupAccountParams struct {
	SetupToken  string
	NewEmail    string
	NewPassword string
	FirstName   string
	LastName    string
}
