package types

// Principal identifies the authenticated caller of a request.
type Principal struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Usuario User   `json:"usuario"`
	Token   string `json:"token"`
}

type RegisterRequest struct {
	Nome  string `json:"nome" validate:"required,min=3,max=100"`
	Login string `json:"login" validate:"required,min=3,max=100"`
	Senha string `json:"senha" validate:"required,min=6,max=100,alphanum"`
}

type LoginRequest struct {
	Login string `json:"login" validate:"required,min=3,max=100"`
	Senha string `json:"senha" validate:"required,min=6,max=100"`
}
