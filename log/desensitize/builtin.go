package desensitize

const masked = "******"

var (
	// PhoneRule 越南手机号 (0912345678 -> 091****678)
	PhoneRule = MustNewContentRule(
		"phone",
		`\b(0[35789]\d)\d{4}(\d{3})\b`,
		"$1****$2",
	)

	// EmailRule 邮箱 (user@example.com -> u***r@example.com)
	EmailRule = MustNewContentRule(
		"email",
		`\b([A-Za-z0-9])[A-Za-z0-9._%+-]*([A-Za-z0-9])@([A-Za-z0-9.-]+\.[A-Za-z]{2,})\b`,
		"$1***$2@$3",
	)

	// CookieRule 认证 Cookie 的值
	CookieRule = MustNewContentRule(
		"cookie",
		`((?:auth_token|refresh_token)=)[^;"\s]+`,
		"${1}"+masked,
	)

	// BearerRule Authorization 头中的令牌
	BearerRule = MustNewContentRule(
		"bearer",
		`(Bearer\s+)[A-Za-z0-9\-_=]+\.[A-Za-z0-9\-_=]+\.?[A-Za-z0-9\-_.+/=]*`,
		"${1}"+masked,
	)

	PasswordRule     = MustNewFieldRule("password", "password", masked)
	NewPasswordRule  = MustNewFieldRule("newPassword", "newPassword", masked)
	TokenRule        = MustNewFieldRule("token", "token", masked)
	RefreshTokenRule = MustNewFieldRule("refreshToken", "refreshToken", masked)
	SecretRule       = MustNewFieldRule("secret", "secret", masked)
)

// BuiltinRules 返回所有内置规则；字段规则在内容规则之前应用
func BuiltinRules() []Rule {
	return []Rule{
		PasswordRule,
		NewPasswordRule,
		TokenRule,
		RefreshTokenRule,
		SecretRule,
		CookieRule,
		BearerRule,
		PhoneRule,
		EmailRule,
	}
}
