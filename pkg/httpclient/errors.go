package httpclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/foodtuck/storefront/pkg/errors"
)

// UpstreamErrorResponse covers the two error envelopes we meet downstream:
// {"error":{"code","message"}} and the content store's
// {"error":{"type","description"}}.
type UpstreamErrorResponse struct {
	Error *struct {
		Code        string `json:"code"`
		Message     string `json:"message"`
		Type        string `json:"type"`
		Description string `json:"description"`
	} `json:"error"`
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into an AppError. The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response, upstream string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperrors.BadGateway(upstream,
			fmt.Errorf("status %d (failed to read body: %w)", resp.StatusCode, err))
	}

	code, message := "", string(bodyBytes)
	var parsed UpstreamErrorResponse
	if json.Unmarshal(bodyBytes, &parsed) == nil && parsed.Error != nil {
		code, message = parsed.Error.Code, parsed.Error.Message
		if code == "" {
			code = parsed.Error.Type
		}
		if message == "" {
			message = parsed.Error.Description
		}
	}

	return mapUpstreamError(resp.StatusCode, code, message, upstream)
}

// FromServerError converts the breaker's 5xx error into the same shape
// ParseResponseError produces.
func FromServerError(err error, upstream string) (error, bool) {
	var se *ServerError
	if !errors.As(err, &se) {
		return nil, false
	}
	resp := &http.Response{
		StatusCode: se.StatusCode,
		Body:       io.NopCloser(bytes.NewReader(se.Body)),
	}
	return ParseResponseError(resp, upstream), true
}

// mapUpstreamError keeps the upstream's failure on the gateway side: the
// storefront caller only ever sees 404, 503 or 502.
func mapUpstreamError(status int, code, message, upstream string) error {
	switch status {
	case http.StatusNotFound:
		return apperrors.NotFound(upstream, message)
	case http.StatusServiceUnavailable, http.StatusTooManyRequests:
		return apperrors.ServiceUnavailable(fmt.Sprintf("%s: %s", upstream, message))
	default:
		return apperrors.BadGateway(upstream, fmt.Errorf("status %d (%s): %s", status, code, message))
	}
}
