package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/mzansiplatess/plates-cli/internal/output"
)

// maxBodyInMessage bounds how much of a plain-text error body is used as
// the error message.
const maxBodyInMessage = 200

// HTTPError is a non-success response. It is the Cause of the
// *output.Error the client returns, so callers that need the raw status or
// body can reach it with errors.As.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if msg := e.ServerMessage(); msg != "" {
		return msg
	}
	return fmt.Sprintf("Request failed (HTTP %d)", e.StatusCode)
}

// ServerMessage extracts the human-readable reason from the body: the
// "error" or "message" field of a JSON body, or the trimmed body itself
// when it is short plain text. Empty when neither applies.
func (e *HTTPError) ServerMessage() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return ""
	}
	if gjson.Valid(body) {
		parsed := gjson.Parse(body)
		for _, path := range []string{"error", "message", "error.message"} {
			if v := parsed.Get(path); v.Type == gjson.String {
				if s := strings.TrimSpace(v.String()); s != "" {
					return s
				}
			}
		}
		return ""
	}
	if strings.HasPrefix(body, "<") {
		return ""
	}
	if len(body) > maxBodyInMessage {
		body = body[:maxBodyInMessage] + "…"
	}
	return body
}

// errorFromResponse maps a non-2xx response onto the output error taxonomy.
func errorFromResponse(status int, body []byte, header http.Header) *output.Error {
	httpErr := &HTTPError{StatusCode: status, Body: string(body)}
	msg := httpErr.ServerMessage()
	withDefault := func(def string) string {
		if msg != "" {
			return msg
		}
		return def
	}

	var e *output.Error
	switch {
	case status == http.StatusUnauthorized:
		e = output.ErrAuth(withDefault("Authentication required"))
	case status == http.StatusForbidden:
		e = output.ErrForbidden(withDefault("Access denied"))
	case status == http.StatusNotFound:
		e = &output.Error{Code: output.CodeNotFound, Message: withDefault("Not found")}
	case status == http.StatusTooManyRequests:
		e = output.ErrRateLimit(parseRetryAfter(header.Get("Retry-After")))
	case status == http.StatusBadGateway, status == http.StatusServiceUnavailable, status == http.StatusGatewayTimeout:
		e = &output.Error{
			Code:      output.CodeAPI,
			Message:   withDefault(fmt.Sprintf("Gateway error (%d)", status)),
			Retryable: true,
		}
	case status >= 400 && status < 500:
		e = &output.Error{Code: output.CodeUsage, Message: httpErr.Error()}
	default:
		e = output.ErrAPI(status, httpErr.Error())
	}
	e.HTTPStatus = status
	e.Cause = httpErr
	return e
}

// parseRetryAfter parses the Retry-After header value in seconds.
func parseRetryAfter(header string) int {
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(strings.TrimSpace(header)); err == nil && seconds > 0 {
		return seconds
	}
	return 0
}
