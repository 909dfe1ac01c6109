package llm

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorKind is a coarse category of a transport failure.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindAuth
	KindRateLimit
	KindTimeout
	KindConnectivity
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRateLimit:
		return "rate_limit"
	case KindTimeout:
		return "timeout"
	case KindConnectivity:
		return "connectivity"
	default:
		return "unknown"
	}
}

// Hint is a short operator-facing suggestion. Best effort only.
func (k ErrorKind) Hint() string {
	switch k {
	case KindAuth:
		return "check credentials (API key and model access)"
	case KindRateLimit:
		return "rate limit or quota hit, wait before running again"
	case KindTimeout:
		return "request timed out, the endpoint may be overloaded"
	case KindConnectivity:
		return "could not reach the model endpoint, check network and TLS settings"
	default:
		return "unexpected model API error"
	}
}

// Classify maps a provider error onto an ErrorKind using the structured
// error types of the OpenAI and Google client libraries.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return kindFromHTTPStatus(apiErr.HTTPStatusCode)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if kind := kindFromHTTPStatus(reqErr.HTTPStatusCode); kind != KindUnknown {
			return kind
		}
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return kindFromHTTPStatus(gErr.Code)
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.OK && st.Code() != codes.Unknown {
		switch st.Code() {
		case codes.Unauthenticated, codes.PermissionDenied:
			return KindAuth
		case codes.ResourceExhausted:
			return KindRateLimit
		case codes.DeadlineExceeded:
			return KindTimeout
		case codes.Unavailable:
			return KindConnectivity
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindConnectivity
	}

	return KindUnknown
}

func kindFromHTTPStatus(code int) ErrorKind {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return KindAuth
	case code == http.StatusTooManyRequests:
		return KindRateLimit
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return KindTimeout
	case code == http.StatusBadGateway || code == http.StatusServiceUnavailable:
		return KindConnectivity
	default:
		return KindUnknown
	}
}
