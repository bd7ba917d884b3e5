package usecase

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// CaptureLeadInput é o formulário público. As tags seguem a ordem em que
// as regras são verificadas: a primeira violação de cada campo vence.
type CaptureLeadInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Company string `json:"company,omitempty" validate:"max=100"`
	Website string `json:"website,omitempty" validate:"max=255"`
	Problem string `json:"problem" validate:"required,max=1000"`
}

// FieldErrors mapeia nome do campo (json) -> mensagem legível.
type FieldErrors map[string]string

var fieldMessages = map[string]map[string]string{
	"name": {
		"required": "Name is required",
		"max":      "Name must be less than 100 characters",
	},
	"email": {
		"required": "Please enter a valid email address",
		"email":    "Please enter a valid email address",
		"max":      "Email must be less than 255 characters",
	},
	"company": {
		"max": "Company name must be less than 100 characters",
	},
	"website": {
		"max": "Website URL must be less than 255 characters",
	},
	"problem": {
		"required": "Please describe your problem",
		"max":      "Problem description must be less than 1000 characters",
	},
}

var (
	formValidatorOnce sync.Once
	formValidator     *validator.Validate
)

func getFormValidator() *validator.Validate {
	formValidatorOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		formValidator = v
	})
	return formValidator
}

// Normalize remove espaços nas pontas de todos os campos.
func (in CaptureLeadInput) Normalize() CaptureLeadInput {
	return CaptureLeadInput{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Company: strings.TrimSpace(in.Company),
		Website: strings.TrimSpace(in.Website),
		Problem: strings.TrimSpace(in.Problem),
	}
}

// ValidateCaptureLeadInput devolve o input normalizado e, se houver,
// uma mensagem por campo inválido. Nunca retorna erro para input bem tipado.
func ValidateCaptureLeadInput(input CaptureLeadInput) (CaptureLeadInput, FieldErrors) {
	normalized := input.Normalize()

	err := getFormValidator().Struct(normalized)
	if err == nil {
		return normalized, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError só acontece com input não-struct
		return normalized, FieldErrors{"form": "Invalid form submission"}
	}

	fields := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := fields[field]; seen {
			continue
		}
		msg, ok := fieldMessages[field][fe.Tag()]
		if !ok {
			msg = field + " is invalid"
		}
		fields[field] = msg
	}
	return normalized, fields
}
