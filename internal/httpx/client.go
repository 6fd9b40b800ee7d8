// Package httpx builds the shared HTTP client handed to the Azure SDK
// clients as their transport.
package httpx

import (
	nethttp "net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	defaultRetryMax     = 3
	defaultRetryWaitMin = 1 * time.Second
	defaultRetryWaitMax = 30 * time.Second
	idleConnTimeout     = 90 * time.Second
)

// NewPooledClient creates an HTTP client with a generous connection pool and
// transport-level retries via retryablehttp. Both the blob and the table
// service client share one instance so repeated calls reuse connections.
//
// Library code never retries; retry and timeout behavior lives entirely in
// this transport, which the SDK clients own.
func NewPooledClient(retryMax int) *nethttp.Client {
	if retryMax < 0 {
		retryMax = defaultRetryMax
	}

	tr := nethttp.DefaultTransport.(*nethttp.Transport).Clone()
	tr.MaxIdleConns = 128
	tr.MaxIdleConnsPerHost = 32
	tr.IdleConnTimeout = idleConnTimeout
	tr.ForceAttemptHTTP2 = true

	rc := retryablehttp.NewClient()
	rc.RetryMax = retryMax
	rc.RetryWaitMin = defaultRetryWaitMin
	rc.RetryWaitMax = defaultRetryWaitMax
	rc.Logger = nil
	rc.HTTPClient = &nethttp.Client{Transport: tr}

	return rc.StandardClient()
}
