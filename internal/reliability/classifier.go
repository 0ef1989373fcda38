package reliability

import (
	"context"
	"errors"
	"net"

	openai "github.com/sashabaranov/go-openai"
)

// IsRetryableHTTPStatus classifies provider HTTP status codes that indicate
// the provider itself is struggling rather than the request being malformed.
func IsRetryableHTTPStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// IsProviderFailure is the breaker's failure matcher for LLM calls. Timeouts,
// connection errors and provider-side throttling open the circuit; a 4xx
// caused by a malformed request does not, because hammering the provider is
// not what broke it.
func IsProviderFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return IsRetryableHTTPStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return IsRetryableHTTPStatus(reqErr.HTTPStatusCode)
	}
	// Unknown failure modes count; the breaker exists to contain surprises.
	return true
}
