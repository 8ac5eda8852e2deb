package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so the HTTP boundary can map it without looking
// at message text.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Sentinel errors used by repositories, where no user-facing message exists yet.
var (
	ErrNotFound        = errors.New("item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("permission denied")
	ErrValidation      = errors.New("validation failed")
)

// Client-facing messages.
const (
	MsgInternal             = "Erro interno do servidor"
	MsgUnauthorized         = "Não autorizado"
	MsgForbidden            = "Acesso proibido"
	MsgNotFound             = "Recurso não encontrado"
	MsgValidation           = "Erro de validação"
	MsgMethodNotAllowed     = "Método não permitido"
	MsgTooManyRequests      = "Muitas requisições, por favor tente novamente mais tarde."
	MsgTooManyAuthRequests  = "Muitas tentativas de login, por favor tente novamente mais tarde."
	MsgTooManySearchRequest = "Muitas buscas, por favor tente novamente mais tarde."
	MsgNotAuthenticated     = "Usuário não autenticado"
	MsgInvalidCredentials   = "Credenciais inválidas"
	MsgDuplicateLogin       = "Este login já está em uso"
	MsgDuplicateCategory    = "Já existe uma categoria com este nome"
	MsgUserNotFound         = "Usuário não encontrado"
	MsgCategoryNotFound     = "Categoria não encontrada"
	MsgRecipeNotFound       = "Receita não encontrada"
	MsgRecipeEditDenied     = "Você não tem permissão para editar esta receita"
	MsgRecipeDeleteDenied   = "Você não tem permissão para excluir esta receita"
	MsgCategoryDeleted      = "Categoria excluída com sucesso"
	MsgRecipeDeleted        = "Receita excluída com sucesso"
	MsgEmptyUpdate          = "Pelo menos um campo deve ser fornecido para atualização"

	// Used for conflicts raised without a message, such as a unique violation
	// that slipped past the service checks.
	MsgConflictFallback = "Conflito com um recurso existente"
)

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string // Validation only: field -> message.
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrNotFound) and friends match classified errors.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrConflict:
		return e.Kind == KindConflict
	case ErrUnauthenticated:
		return e.Kind == KindUnauthorized
	case ErrForbidden:
		return e.Kind == KindForbidden
	case ErrValidation:
		return e.Kind == KindValidation
	}
	return false
}

func NewValidation(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

func NewUnauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func NewForbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func NewNotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func NewConflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func NewInternal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf classifies any error. Unknown errors are internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthorized
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	}
	return KindInternal
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(k Kind) int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindInternal:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

func defaultMessage(k Kind) string {
	switch k {
	case KindValidation:
		return MsgValidation
	case KindUnauthorized:
		return MsgUnauthorized
	case KindForbidden:
		return MsgForbidden
	case KindNotFound:
		return MsgNotFound
	case KindConflict:
		return MsgConflictFallback
	}
	return MsgInternal
}
