package http

import "net/http"

// Common Content-Types
const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
	ContentTypeText = "text/plain"
)

// HeaderRequestID carries the logical request id; a retried request reuses it.
const HeaderRequestID = "X-Request-Id"

// HTTP methods re-exported so callers need not import net/http.
const (
	MethodGet    = http.MethodGet
	MethodPost   = http.MethodPost
	MethodPut    = http.MethodPut
	MethodDelete = http.MethodDelete
	MethodPatch  = http.MethodPatch
)
