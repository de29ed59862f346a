package errors

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 * 1024

// backendBody is the error shape returned by the backend.
type backendBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// FromResponse builds an *Error from a non-2xx response. The body is consumed
// and closed. A JSON {"message": "..."} body becomes the error message; plain
// text bodies are used verbatim; an empty body falls back to the status text.
func FromResponse(resp *http.Response) *Error {
	if resp == nil {
		return Internal("nil response")
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	message := messageFromBody(raw)
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	err := New(resp.StatusCode, "%s", message)
	if resp.Request != nil && resp.Request.URL != nil {
		err = err.WithMetadata(map[string]string{
			"method": resp.Request.Method,
			"path":   resp.Request.URL.Path,
		})
	}
	return err
}

func messageFromBody(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return ""
	}

	var body backendBody
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
		return ""
	}

	return text
}
