package httpclient

import (
	"net/http"
	"time"
)

const defaultTimeout = 30 * time.Second

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// New returns the client used by the tracker and chat integrations.
func New() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}
