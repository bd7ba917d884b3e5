package usecase

import (
	"errors"
	"sort"
	"strings"
)

const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeConfiguration    = "CONFIGURATION_ERROR"
	CodeAlreadyContacted = "ALREADY_CONTACTED"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeNotFound         = "NOT_FOUND"

	CodePersistence  = "PERSISTENCE_ERROR"
	CodeEventLog     = "EVENT_LOG_ERROR"
	CodeNotification = "NOTIFICATION_ERROR"
	CodeFetch        = "FETCH_ERROR"
	CodeQueue        = "QUEUE_ERROR"
	CodeInternal     = "INTERNAL_ERROR"
)

// DomainError: erro causado pela entrada ou pelo estado do lead.
// Sempre bloqueia a operação antes de qualquer efeito colateral.
type DomainError struct {
	Code    string
	Message string
	Fields  map[string]string
}

func (e *DomainError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, ", ") + ")"
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError: falha de infraestrutura (banco, webhook, log de eventos).
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

// ErrorCode devolve o código de um DomainError/TechnicalError, ou "" se não for nenhum dos dois.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	var te *TechnicalError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

func HasCode(err error, code string) bool {
	return err != nil && ErrorCode(err) == code
}

func NewValidationError(fields map[string]string) *DomainError {
	return &DomainError{Code: CodeValidation, Message: "validation failed", Fields: fields}
}

func NewConfigurationError(message string) *DomainError {
	return &DomainError{Code: CodeConfiguration, Message: message}
}

func NewAlreadyContactedError(leadID string) *DomainError {
	return &DomainError{Code: CodeAlreadyContacted, Message: "outreach already sent for lead " + leadID}
}

func NewUnauthorizedError(message string) *DomainError {
	return &DomainError{Code: CodeUnauthorized, Message: message}
}

func NewNotFoundError(message string) *DomainError {
	return &DomainError{Code: CodeNotFound, Message: message}
}

func NewPersistenceError(message string, err error) *TechnicalError {
	return &TechnicalError{Code: CodePersistence, Message: message, Err: err}
}

func NewEventLogError(message string, err error) *TechnicalError {
	return &TechnicalError{Code: CodeEventLog, Message: message, Err: err}
}

func NewNotificationError(message string, err error) *TechnicalError {
	return &TechnicalError{Code: CodeNotification, Message: message, Err: err}
}

func NewFetchError(message string, err error) *TechnicalError {
	return &TechnicalError{Code: CodeFetch, Message: message, Err: err}
}
