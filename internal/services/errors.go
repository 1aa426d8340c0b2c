package services

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrorKind classifies failures so handlers can pick a status and message.
type ErrorKind string

const (
	KindValidation         ErrorKind = "validation"
	KindUnauthenticated    ErrorKind = "unauthenticated"
	KindAuthorization      ErrorKind = "authorization"
	KindNotFound           ErrorKind = "not_found"
	KindConflict           ErrorKind = "conflict"
	KindPaymentFailed      ErrorKind = "payment_failed"
	KindGatewayUnavailable ErrorKind = "gateway_unavailable"
	KindGatewayTimeout     ErrorKind = "gateway_timeout"
	KindPersistence        ErrorKind = "persistence"
)

var kindStatus = map[ErrorKind]int{
	KindValidation:         http.StatusBadRequest,
	KindUnauthenticated:    http.StatusUnauthorized,
	KindAuthorization:      http.StatusForbidden,
	KindNotFound:           http.StatusNotFound,
	KindConflict:           http.StatusConflict,
	KindPaymentFailed:      http.StatusPaymentRequired,
	KindGatewayUnavailable: http.StatusBadGateway,
	KindGatewayTimeout:     http.StatusGatewayTimeout,
	KindPersistence:        http.StatusInternalServerError,
}

// Sentinel errors for the external payment gateway.
var (
	ErrGatewayTimeout     = errors.New("gateway_timeout")
	ErrGatewayUnavailable = errors.New("gateway_unavailable")
	ErrGatewayRejected    = errors.New("gateway_rejected")
)

const genericPersistenceMessage = "A database error occurred. Please try again."

// AppError is returned by the service layer. Message is safe to show to users;
// Err carries the internal cause and is only logged.
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the kind to an HTTP status
func (e *AppError) StatusCode() int {
	if code, ok := kindStatus[e.Kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// Messages returns field errors in a stable order, or the message alone
func (e *AppError) Messages() []string {
	if len(e.Fields) == 0 {
		return []string{e.Message}
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, e.Fields[k])
	}
	return out
}

func newError(kind ErrorKind, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message}
}

// ValidationErrors collects field errors so they can be reported together
type ValidationErrors map[string]string

func (v ValidationErrors) Add(field, message string) {
	if _, exists := v[field]; !exists {
		v[field] = message
	}
}

// Err returns nil when nothing was collected
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(v))
	for _, m := range v {
		msgs = append(msgs, m)
	}
	sort.Strings(msgs)
	return &AppError{
		Kind:    KindValidation,
		Code:    "validation_error",
		Message: strings.Join(msgs, "; "),
		Fields:  map[string]string(v),
	}
}

func validationError(field, message string) *AppError {
	return &AppError{Kind: KindValidation, Code: "validation_error", Message: message, Fields: map[string]string{field: message}}
}

func persistenceError(err error) *AppError {
	return &AppError{Kind: KindPersistence, Code: "database_error", Message: genericPersistenceMessage, Err: err}
}

// asAppError passes AppErrors through and wraps anything else as a persistence failure
func asAppError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return persistenceError(err)
}
