package validator

import (
	"errors"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

type validationErrors struct {
	fields []FieldError
}

func (ve *validationErrors) Error() string {
	msgs := make([]string, 0, len(ve.fields))
	for _, f := range ve.fields {
		msgs = append(msgs, f.Message())
	}
	return strings.Join(msgs, "; ")
}

func (ve *validationErrors) Errors() []FieldError {
	return ve.fields
}

type fieldError struct {
	fieldError  validator.FieldError
	message     string
	translators map[string]ut.Translator
}

func (fe *fieldError) Field() string {
	return fe.fieldError.Field()
}

func (fe *fieldError) Tag() string {
	return fe.fieldError.Tag()
}

func (fe *fieldError) Value() any {
	return fe.fieldError.Value()
}

func (fe *fieldError) Message() string {
	return fe.message
}

// Translate renders the message in lang, falling back to the default message.
func (fe *fieldError) Translate(lang string) string {
	if trans, ok := fe.translators[lang]; ok {
		return fe.fieldError.Translate(trans)
	}
	return fe.message
}

// IsValidationError reports whether err came from a failed validation.
func IsValidationError(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve)
}

// FieldMessage returns the message for field, or "" when it did not fail.
func FieldMessage(err error, field string) string {
	var ve ValidationErrors
	if !errors.As(err, &ve) {
		return ""
	}
	for _, f := range ve.Errors() {
		if f.Field() == field {
			return f.Message()
		}
	}
	return ""
}
