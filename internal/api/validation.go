package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// labels are the human names used in validation messages, keyed by JSON field.
var labels = map[string]string{
	"nome":                  "Nome",
	"login":                 "Login",
	"senha":                 "Senha",
	"modo_preparo":          "Modo de preparo",
	"ingredientes":          "Ingredientes",
	"id_categorias":         "ID da categoria",
	"id_usuarios":           "ID do usuário",
	"tempo_preparo_minutos": "Tempo de preparo",
	"porcoes":               "Porções",
}

// feminine labels take "obrigatória".
var feminine = map[string]bool{"senha": true}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateStruct runs the declarative rules on s and returns a validation
// error carrying one message per failing field.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewInternal("validator misuse", err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return NewValidation(MsgValidation, fields)
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	label, ok := labels[field]
	if !ok {
		label = field
	}
	switch fe.Tag() {
	case "required":
		if feminine[field] {
			return label + " é obrigatória"
		}
		return label + " é obrigatório"
	case "min":
		return fmt.Sprintf("%s deve ter no mínimo %s caracteres", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s deve ter no máximo %s caracteres", label, fe.Param())
	case "alphanum":
		return label + " deve conter apenas letras e números"
	case "gt":
		return label + " deve ser um número positivo"
	}
	return fmt.Sprintf("%s é inválido", label)
}
