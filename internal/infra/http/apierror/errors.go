// Package apierror escreve as respostas de erro no formato
// {"error": {"code": "...", "message": "...", "fields": {...}}}.
package apierror

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type Body struct {
	Error  Detail          `json:"error"`
	LeadID string          `json:"lead_id,omitempty"`
	Report *usecase.Report `json:"report,omitempty"`
}

type Detail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

const (
	CodeBadRequest  = "BAD_REQUEST"
	CodeRateLimited = "RATE_LIMITED"
	CodeInternal    = usecase.CodeInternal
	internalMessage = "internal server error"
)

// Status traduz o código de erro do usecase para o status HTTP.
func Status(code string) int {
	switch code {
	case usecase.CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	case usecase.CodeUnauthorized:
		return http.StatusUnauthorized
	case usecase.CodeNotFound:
		return http.StatusNotFound
	case usecase.CodeAlreadyContacted:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case usecase.CodeNotification:
		return http.StatusBadGateway
	case usecase.CodeConfiguration, usecase.CodeFetch:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// FromError monta o corpo a partir de um erro do usecase. Erros técnicos
// expõem só a mensagem, sem a causa.
func FromError(err error) Body {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		return Body{Error: Detail{Code: de.Code, Message: de.Message, Fields: de.Fields}}
	}
	var te *usecase.TechnicalError
	if errors.As(err, &te) {
		return Body{Error: Detail{Code: te.Code, Message: te.Message}}
	}
	return Body{Error: Detail{Code: CodeInternal, Message: internalMessage}}
}

func WriteError(w http.ResponseWriter, err error) {
	Write(w, FromError(err))
}

func Write(w http.ResponseWriter, body Body) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(Status(body.Error.Code))
	_ = json.NewEncoder(w).Encode(body)
}

func BadRequest(w http.ResponseWriter, message string) {
	Write(w, Body{Error: Detail{Code: CodeBadRequest, Message: message}})
}

func Unauthorized(w http.ResponseWriter, message string) {
	Write(w, Body{Error: Detail{Code: usecase.CodeUnauthorized, Message: message}})
}
