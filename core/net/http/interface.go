package http

import (
	"context"
	"net/http"
)

// Clienter is the request surface the API resource clients depend on.
type Clienter interface {
	Request(method, url string, body any, opts ...func(*RequestOption)) (*http.Response, error)
}

// Refresher exchanges the refresh credential for a new access credential.
type Refresher func(ctx context.Context) error
