package errors

import (
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"
)

const (
	UnknownCode       = 500
	MetadataSeparator = ", "
	MetadataPrefix    = "metadata={"
	MetadataSuffix    = "}"
	CausePrefix       = "cause="
)

// Kind classifies an error by how the client is expected to react to it.
type Kind uint8

const (
	// KindBackend is any non-auth error the backend reported with a status code.
	KindBackend Kind = iota
	// KindTransport covers network failures; no automatic recovery.
	KindTransport
	// KindAuth is a 401/403 that may be recovered by a token refresh.
	KindAuth
	// KindValidation is a user-facing input problem; never retried.
	KindValidation
	// KindSession means the session is gone and the user must log in again.
	KindSession
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindSession:
		return "session"
	default:
		return "backend"
	}
}

// Status is the serializable part of an error.
type Status struct {
	Code     int               `json:"code,omitempty"`
	Message  string            `json:"message,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Error is a structured error carrying a status code, a kind and an optional cause.
type Error struct {
	Status
	kind  Kind
	cause error
}

func (e *Error) Error() string {
	var msg strings.Builder

	msg.WriteString("code=")
	msg.WriteString(strconv.Itoa(e.Code))
	msg.WriteString(MetadataSeparator)
	msg.WriteString("kind=")
	msg.WriteString(e.kind.String())
	msg.WriteString(MetadataSeparator)
	msg.WriteString("message=")
	msg.WriteString(e.Message)

	if len(e.Metadata) > 0 {
		msg.WriteString(MetadataSeparator)
		msg.WriteString(MetadataPrefix)
		first := true
		for k, v := range e.Metadata {
			if !first {
				msg.WriteString(", ")
			}
			msg.WriteString(k)
			msg.WriteByte('=')
			msg.WriteString(v)
			first = false
		}
		msg.WriteString(MetadataSuffix)
	}

	if e.cause != nil {
		msg.WriteString(MetadataSeparator)
		msg.WriteString(CausePrefix)
		msg.WriteString(e.cause.Error())
	}

	return msg.String()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// WithMetadata returns a copy of e with m merged into its metadata.
func (e *Error) WithMetadata(m map[string]string) *Error {
	if len(m) == 0 {
		return e
	}

	err := e.clone()
	if err.Metadata == nil {
		err.Metadata = make(map[string]string, len(m))
	}

	maps.Copy(err.Metadata, m)
	return err
}

// WithCause returns a copy of e wrapping cause.
func (e *Error) WithCause(cause error) *Error {
	if cause == nil {
		return e
	}

	err := e.clone()
	err.cause = cause
	return err
}

// WithKind returns a copy of e with a different classification.
func (e *Error) WithKind(kind Kind) *Error {
	err := e.clone()
	err.kind = kind
	return err
}

func (e *Error) clone() *Error {
	var metadata map[string]string
	if len(e.Metadata) > 0 {
		metadata = make(map[string]string, len(e.Metadata))
		maps.Copy(metadata, e.Metadata)
	}

	return &Error{
		Status: Status{
			Code:     e.Code,
			Message:  e.Message,
			Metadata: metadata,
		},
		kind:  e.kind,
		cause: e.cause,
	}
}

// Is reports whether err is an *Error with the same code and message.
func (e *Error) Is(err error) bool {
	var ge *Error
	if errors.As(err, &ge) {
		return e.Code == ge.Code && e.Message == ge.Message
	}
	return false
}

func (e *Error) GetCode() int {
	return e.Code
}

func (e *Error) GetMessage() string {
	return e.Message
}

func (e *Error) GetKind() Kind {
	return e.kind
}

// GetMetadata returns a copy of the metadata.
func (e *Error) GetMetadata() map[string]string {
	if len(e.Metadata) == 0 {
		return nil
	}

	result := make(map[string]string, len(e.Metadata))
	maps.Copy(result, e.Metadata)
	return result
}

func (e *Error) GetCause() error {
	return e.cause
}

// New creates an error with the given code. The kind is derived from the code.
func New(code int, format string, args ...any) *Error {
	var message string
	if len(args) == 0 {
		message = format
	} else {
		message = fmt.Sprintf(format, args...)
	}

	return &Error{
		Status: Status{
			Code:    code,
			Message: message,
		},
		kind: kindOf(code),
	}
}

// NewWithMetadata creates an error with metadata attached.
func NewWithMetadata(code int, metadata map[string]string, format string, args ...any) *Error {
	err := New(code, format, args...)
	if len(metadata) > 0 {
		err.Metadata = make(map[string]string, len(metadata))
		maps.Copy(err.Metadata, metadata)
	}
	return err
}

// FromError converts any error to *Error, searching the chain first.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}

	return New(UnknownCode, "%v", err)
}

// Wrap wraps err with a new code and message. Returns nil if err is nil.
func Wrap(err error, code int, format string, args ...any) *Error {
	if err == nil {
		return nil
	}

	return New(code, format, args...).WithCause(err)
}

// WrapWithMetadata wraps err with metadata and a new message. Returns nil if err is nil.
func WrapWithMetadata(err error, code int, metadata map[string]string, format string, args ...any) *Error {
	if err == nil {
		return nil
	}

	return NewWithMetadata(code, metadata, format, args...).WithCause(err)
}

// KindOf returns the classification of err, or KindBackend for foreign errors.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.kind
	}
	return KindBackend
}

// CodeOf returns the status code carried by err, or 0 for foreign errors.
func CodeOf(err error) int {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code
	}
	return 0
}

func kindOf(code int) Kind {
	switch code {
	case 401, 403:
		return KindAuth
	case 400, 422:
		return KindValidation
	default:
		return KindBackend
	}
}
