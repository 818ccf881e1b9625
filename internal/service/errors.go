package service

import (
	"errors"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validEmail проверяет адрес тем же правилом email, что и binding-теги gin.
func validEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrUserNotFound       = errors.New("user with this email does not exist")
	ErrMultipleAccounts   = errors.New("multiple accounts found with this email")
	ErrInvalidOTP         = errors.New("invalid otp or otp expired")
	ErrIndexUnavailable   = errors.New("search index is unavailable")
	ErrEmptyQuery         = errors.New("no search query provided")
)

// Тексты ошибок полей в ответах API.
const (
	msgRequired       = "This field is required."
	msgDateFormat     = "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."
	msgEndBeforeStart = "End date must be after start date."
	msgUsernameTaken  = "Username already exists."
	msgMaxLength255   = "Ensure this field has no more than 255 characters."
	msgNonNegative    = "Ensure this value is greater than or equal to 0."
	msgInvalidEmail   = "Enter a valid email address."
)

// ValidationError ошибка входных данных: общее сообщение и/или сообщения по полям.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
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
	return strings.Join(parts, "; ")
}

// Invalid ошибка без привязки к полю.
func Invalid(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

// FieldError ошибка одного поля.
func FieldError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}
