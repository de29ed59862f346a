package validator

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/vi"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	vi_translations "github.com/go-playground/validator/v10/translations/vi"
)

const (
	LangEnglish    = "en"
	LangVietnamese = "vi"
)

var (
	phonePattern    = regexp.MustCompile(`^(0|\+84)[35789]\d{8}$`)
	discountPattern = regexp.MustCompile(`^[A-Z0-9_-]{3,32}$`)
)

type validatorImpl struct {
	validator   *validator.Validate
	translators map[string]ut.Translator
	defaultLang string
}

// Validate is the shared instance used by config loading and the API clients.
var Validate = New()

// New creates a validator with English and Vietnamese messages and the
// custom "vnphone" rule registered.
func New(opts ...Option) Validator {
	v := &validatorImpl{
		validator:   validator.New(validator.WithRequiredStructEnabled()),
		translators: make(map[string]ut.Translator, 2),
		defaultLang: LangEnglish,
	}

	// report json names rather than Go field names
	v.validator.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.validator.RegisterValidation("vnphone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.validator.RegisterValidation("discountcode", func(fl validator.FieldLevel) bool {
		return discountPattern.MatchString(fl.Field().String())
	})

	for _, opt := range opts {
		opt(v)
	}

	v.initTranslators()
	return v
}

func (v *validatorImpl) initTranslators() {
	enLocale, viLocale := en.New(), vi.New()
	uni := ut.New(enLocale, enLocale, viLocale)

	if trans, ok := uni.GetTranslator(LangEnglish); ok {
		_ = en_translations.RegisterDefaultTranslations(v.validator, trans)
		_ = v.validator.RegisterTranslation("vnphone", trans, func(ut ut.Translator) error {
			return ut.Add("vnphone", "{0} must be a valid Vietnamese phone number", true)
		}, translateField("vnphone"))
		_ = v.validator.RegisterTranslation("discountcode", trans, func(ut ut.Translator) error {
			return ut.Add("discountcode", "{0} must be 3-32 upper-case letters, digits, '-' or '_'", true)
		}, translateField("discountcode"))
		v.translators[LangEnglish] = trans
	}
	if trans, ok := uni.GetTranslator(LangVietnamese); ok {
		_ = vi_translations.RegisterDefaultTranslations(v.validator, trans)
		_ = v.validator.RegisterTranslation("vnphone", trans, func(ut ut.Translator) error {
			return ut.Add("vnphone", "{0} phải là số điện thoại hợp lệ", true)
		}, translateField("vnphone"))
		_ = v.validator.RegisterTranslation("discountcode", trans, func(ut ut.Translator) error {
			return ut.Add("discountcode", "{0} không phải là mã giảm giá hợp lệ", true)
		}, translateField("discountcode"))
		v.translators[LangVietnamese] = trans
	}
}

func translateField(tag string) validator.TranslationFunc {
	return func(ut ut.Translator, fe validator.FieldError) string {
		msg, err := ut.T(tag, fe.Field())
		if err != nil {
			return fe.Error()
		}
		return msg
	}
}

func (v *validatorImpl) Struct(s any) error {
	if s == nil {
		return errors.New("validation target cannot be nil")
	}
	return v.translate(v.validator.Struct(s))
}

func (v *validatorImpl) StructCtx(ctx context.Context, s any) error {
	if s == nil {
		return errors.New("validation target cannot be nil")
	}
	return v.translate(v.validator.StructCtx(ctx, s))
}

func (v *validatorImpl) Var(field any, tag string) error {
	return v.translate(v.validator.Var(field, tag))
}

func (v *validatorImpl) Engine() *validator.Validate {
	return v.validator
}

func (v *validatorImpl) translate(err error) error {
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}

	trans, ok := v.translators[v.defaultLang]
	if !ok {
		trans = v.translators[LangEnglish]
	}

	out := &validationErrors{fields: make([]FieldError, 0, len(ves))}
	for _, fe := range ves {
		out.fields = append(out.fields, &fieldError{
			fieldError:  fe,
			message:     fe.Translate(trans),
			translators: v.translators,
		})
	}
	return out
}
