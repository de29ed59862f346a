package errors

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(401, "unauthorized access")
	assert.Equal(t, 401, err.GetCode())
	assert.Equal(t, "unauthorized access", err.GetMessage())
	assert.Equal(t, KindAuth, err.GetKind())

	t.Logf("Error: %s", err.Error())
}

func TestKindFromCode(t *testing.T) {
	tests := []struct {
		code int
		kind Kind
	}{
		{401, KindAuth},
		{403, KindAuth},
		{400, KindValidation},
		{422, KindValidation},
		{404, KindBackend},
		{500, KindBackend},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.kind, New(tt.code, "x").GetKind(), "code %d", tt.code)
	}
}

func TestWithMetadata(t *testing.T) {
	err := New(401, "unauthorized")

	same := err.WithMetadata(map[string]string{})
	assert.Same(t, err, same)

	withMeta := err.WithMetadata(map[string]string{"path": "/orders"})
	assert.NotSame(t, err, withMeta)
	assert.Equal(t, "/orders", withMeta.GetMetadata()["path"])
	assert.Nil(t, err.GetMetadata())
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, 503, "service unavailable")

	require.NotNil(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, Wrap(nil, 500, "never"))
}

func TestFromError(t *testing.T) {
	plain := FromError(errors.New("standard error"))
	assert.Equal(t, UnknownCode, plain.GetCode())

	existing := NotFound("order not found")
	assert.Same(t, existing, FromError(existing))

	wrapped := Join(errors.New("other"), existing)
	assert.Same(t, existing, FromError(wrapped))
}

func TestClientKinds(t *testing.T) {
	tr := Transport(io.ErrUnexpectedEOF, "request failed")
	assert.True(t, IsTransport(tr))
	assert.Equal(t, 0, tr.GetCode())
	assert.ErrorIs(t, tr, io.ErrUnexpectedEOF)

	assert.True(t, IsSession(Session("Session expired. Please log in again.")))
	assert.True(t, IsValidation(Validation("quantity must be positive")))
	assert.True(t, IsAuth(Forbidden("no")))
	assert.False(t, IsAuth(errors.New("foreign")))
}

func TestIs(t *testing.T) {
	a := New(404, "not found")
	b := New(404, "not found").WithMetadata(map[string]string{"id": "1"})
	c := New(404, "gone")

	assert.True(t, errors.Is(b, a))
	assert.False(t, errors.Is(c, a))
}

func TestFromResponse(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"json message", 400, `{"message":"Mã giảm giá không hợp lệ"}`, "Mã giảm giá không hợp lệ"},
		{"json error field", 500, `{"error":"boom"}`, "boom"},
		{"plain text", 404, "Order not found", "Order not found"},
		{"empty body", 403, "", "Forbidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.Copy(w, strings.NewReader(tt.body))
			}))
			defer srv.Close()

			resp, err := http.Get(srv.URL + "/discounts/apply-discount")
			require.NoError(t, err)

			e := FromResponse(resp)
			assert.Equal(t, tt.status, e.GetCode())
			assert.Equal(t, tt.message, e.GetMessage())
			assert.Equal(t, "/discounts/apply-discount", e.GetMetadata()["path"])
		})
	}
}
