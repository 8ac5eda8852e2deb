package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	"github.com/FACorreiaa/go-recipe-catalog/internal/types"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the envelope around every API payload.
type Response struct {
	Status  string            `json:"status"`
	Data    any               `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Meta    *types.PageMeta   `json:"meta,omitempty"`
}

// ErrorResponse writes an error envelope.
func ErrorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	WriteJSONResponse(w, r, status, Response{Status: StatusError, Message: message})
}

// SuccessResponse writes a success envelope. message may be empty.
func SuccessResponse(w http.ResponseWriter, r *http.Request, status int, data any, message string) {
	WriteJSONResponse(w, r, status, Response{Status: StatusSuccess, Data: data, Message: message})
}

// PaginatedResponse writes a page of results with its metadata.
func PaginatedResponse[T any](w http.ResponseWriter, r *http.Request, page *types.Page[T]) {
	meta := page.Meta
	WriteJSONResponse(w, r, http.StatusOK, Response{Status: StatusSuccess, Data: page.Data, Meta: &meta})
}

// HandleError maps err to its status and writes the envelope. Internal errors
// are logged and replaced by a generic message.
func HandleError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	kind := KindOf(err)
	status := StatusFor(kind)

	resp := Response{Status: StatusError, Message: defaultMessage(kind)}
	var appErr *Error
	if kind != KindInternal && errors.As(err, &appErr) && appErr.Message != "" {
		resp.Message = appErr.Message
		resp.Errors = appErr.Fields
	}

	if kind == KindInternal {
		logger.ErrorContext(r.Context(), "Request failed",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	} else {
		logger.DebugContext(r.Context(), "Request rejected",
			slog.String("kind", kind.String()),
			slog.Any("error", err))
	}

	WriteJSONResponse(w, r, status, resp)
}

// WriteJSONResponse encodes the data to JSON and writes the response header and body.
func WriteJSONResponse(w http.ResponseWriter, r *http.Request, status int, data any) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	js, err := json.Marshal(data)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to marshal JSON response",
			slog.Any("error", err),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		http.Error(w, MsgInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(js); err != nil {
		slog.ErrorContext(r.Context(), "Failed to write response body",
			slog.Any("error", err),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	}
}

// DecodeJSONBody reads and decodes a JSON request body safely.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	maxBytes := 1_048_576
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)

		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")

		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q (wanted %s)", unmarshalTypeError.Field, unmarshalTypeError.Type)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)

		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")

		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)

		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)

		case errors.As(err, &invalidUnmarshalError):
			panic(fmt.Errorf("developer error: invalid argument passed to json.Unmarshal: %w", err))

		default:
			return fmt.Errorf("error decoding JSON body: %w", err)
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

// DecodeAndValidate decodes the body into dst and runs the struct validator.
// Both failures come back as validation errors.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := DecodeJSONBody(w, r, dst); err != nil {
		return NewValidation(MsgValidation, map[string]string{"body": err.Error()})
	}
	return ValidateStruct(dst)
}

// ParseIDParam reads a positive integer URL parameter.
func ParseIDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewValidation(MsgValidation, map[string]string{name: "ID deve ser um número inteiro positivo"})
	}
	return id, nil
}

// ParsePageRequest reads page and pageSize from the query string. Oversized
// pages are clamped to types.MaxPageSize, never rejected.
func ParsePageRequest(r *http.Request) (types.PageRequest, error) {
	q := r.URL.Query()
	fields := map[string]string{}
	req := types.PageRequest{Page: types.DefaultPage, PageSize: types.DefaultPageSize}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			fields["page"] = "Página deve ser um número inteiro positivo"
		} else {
			req.Page = page
		}
	}
	if raw := q.Get("pageSize"); raw != "" {
		size, err := strconv.Atoi(raw)
		switch {
		case err != nil || size < 1:
			fields["pageSize"] = "Tamanho da página deve ser um número inteiro positivo"
		default:
			req.PageSize = size
		}
	}
	if len(fields) > 0 {
		return types.PageRequest{}, NewValidation(MsgValidation, fields)
	}
	return req.Normalize(), nil
}

// ParseOptionalID reads an optional positive integer query parameter.
func ParseOptionalID(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, NewValidation(MsgValidation, map[string]string{name: "ID deve ser um número inteiro positivo"})
	}
	return &id, nil
}

func VerifyAudience(claimsAudience jwt.ClaimStrings, expectedAudience string) bool {
	if expectedAudience == "" {
		return true
	}
	for _, aud := range claimsAudience {
		if aud == expectedAudience {
			return true
		}
	}
	return false
}
