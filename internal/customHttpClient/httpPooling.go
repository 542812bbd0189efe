package customHttpClient

import (
	"net/http"

	"github.com/doclens/doclens/internal/config"
)

var customTransport = &http.Transport{
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// NewPooledClient returns an http client sharing the pooled transport, for
// providers that talk plain HTTPS instead of grpc. Per-call deadlines come
// from the request context, not a client timeout.
func NewPooledClient() *http.Client {
	return &http.Client{Transport: customTransport}
}
