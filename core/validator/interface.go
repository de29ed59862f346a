package validator

import (
	"context"

	"github.com/go-playground/validator/v10"
)

// Validator validates request and config structs.
type Validator interface {
	Struct(s any) error
	StructCtx(ctx context.Context, s any) error
	// Var validates a single value against a tag expression.
	Var(field any, tag string) error
	// Engine exposes the underlying go-playground instance.
	Engine() *validator.Validate
}

// ValidationErrors is returned when one or more fields fail.
type ValidationErrors interface {
	error
	Errors() []FieldError
}

// FieldError describes one failing field.
type FieldError interface {
	Field() string
	Tag() string
	Value() any
	Message() string
	Translate(lang string) string
}

// Option configures a validator.
type Option func(*validatorImpl)

// WithTagName changes the struct tag that holds rules.
func WithTagName(tagName string) Option {
	return func(v *validatorImpl) {
		v.validator.SetTagName(tagName)
	}
}

// WithLanguage sets the language used by Error().
func WithLanguage(lang string) Option {
	return func(v *validatorImpl) {
		v.defaultLang = lang
	}
}
