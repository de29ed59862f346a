package errors

// 4xx

func BadRequest(format string, args ...any) *Error {
	return New(400, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return New(401, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return New(403, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return New(404, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return New(409, format, args...)
}

func UnprocessableEntity(format string, args ...any) *Error {
	return New(422, format, args...)
}

func TooManyRequests(format string, args ...any) *Error {
	return New(429, format, args...)
}

// 5xx

func Internal(format string, args ...any) *Error {
	return New(500, format, args...)
}

func BadGateway(format string, args ...any) *Error {
	return New(502, format, args...)
}

func ServiceUnavailable(format string, args ...any) *Error {
	return New(503, format, args...)
}

// Client-side kinds. Code 0 means the error never reached the backend.

// Transport reports a network failure.
func Transport(cause error, format string, args ...any) *Error {
	return New(0, format, args...).WithKind(KindTransport).WithCause(cause)
}

// Validation reports invalid user input detected before any request was sent.
func Validation(format string, args ...any) *Error {
	return New(400, format, args...)
}

// Session reports a terminal session failure.
func Session(format string, args ...any) *Error {
	return New(401, format, args...).WithKind(KindSession)
}

func BadRequestWithMetadata(metadata map[string]string, format string, args ...any) *Error {
	return NewWithMetadata(400, metadata, format, args...)
}

func NotFoundWithMetadata(metadata map[string]string, format string, args ...any) *Error {
	return NewWithMetadata(404, metadata, format, args...)
}

// IsAuth reports whether err may be recovered by a token refresh.
func IsAuth(err error) bool {
	return KindOf(err) == KindAuth
}

// IsTransport reports whether err is a network failure.
func IsTransport(err error) bool {
	return KindOf(err) == KindTransport
}

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// IsSession reports whether err is a terminal session failure.
func IsSession(err error) bool {
	return KindOf(err) == KindSession
}
