package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registerForm struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,vnphone"`
	Password string `json:"password" validate:"required,min=6"`
}

func TestValidStruct(t *testing.T) {
	v := New()
	err := v.Struct(&registerForm{
		FullName: "Nguyen Van A",
		Email:    "a@example.com",
		Phone:    "0912345678",
		Password: "secret1",
	})
	assert.NoError(t, err)
}

func TestValidationErrors(t *testing.T) {
	v := New()
	err := v.Struct(&registerForm{Email: "invalid", Phone: "12345", Password: "123"})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	var ve ValidationErrors
	require.ErrorAs(t, err, &ve)
	fields := map[string]string{}
	for _, f := range ve.Errors() {
		fields[f.Field()] = f.Tag()
	}
	assert.Equal(t, map[string]string{
		"fullName": "required",
		"email":    "email",
		"phone":    "vnphone",
		"password": "min",
	}, fields)

	assert.Contains(t, err.Error(), "required")
	assert.Equal(t, "phone must be a valid Vietnamese phone number", FieldMessage(err, "phone"))
	assert.Empty(t, FieldMessage(err, "missing"))
}

func TestVietnameseMessages(t *testing.T) {
	v := New(WithLanguage(LangVietnamese))
	err := v.Struct(&registerForm{FullName: "A", Email: "a@example.com", Password: "secret1", Phone: "999"})
	require.Error(t, err)
	assert.Equal(t, "phone phải là số điện thoại hợp lệ", FieldMessage(err, "phone"))

	var ve ValidationErrors
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "phone must be a valid Vietnamese phone number", ve.Errors()[0].Translate(LangEnglish))
}

func TestVar(t *testing.T) {
	v := New()
	assert.NoError(t, v.Var("+84912345678", "vnphone"))
	assert.Error(t, v.Var("", "required"))
	assert.Error(t, v.Var(0, "gte=1"))
}

func TestDiscountCode(t *testing.T) {
	v := New()
	assert.NoError(t, v.Var("SALE10", "discountcode"))
	assert.NoError(t, v.Var("SUMMER_2024-VIP", "discountcode"))
	assert.Error(t, v.Var("ab", "discountcode"))
	assert.Error(t, v.Var("sale10", "discountcode"))
	assert.Error(t, v.Var("GIẢM GIÁ", "discountcode"))
}

func TestNilTarget(t *testing.T) {
	assert.Error(t, Validate.Struct(nil))
}
