package observability

import (
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mzansiplatess/plates-cli/internal/api"
)

// sensitiveParams are query parameter names scrubbed from trace output.
var sensitiveParams = map[string]bool{
	"access_token": true,
	"token":        true,
	"api_key":      true,
	"apikey":       true,
	"password":     true,
	"secret":       true,
}

// TraceWriter logs client activity with the session-relative time.
type TraceWriter struct {
	log       logrus.FieldLogger
	startTime time.Time
}

// NewTraceWriter creates a TraceWriter logging to log.
func NewTraceWriter(log logrus.FieldLogger) *TraceWriter {
	return &TraceWriter{log: log, startTime: time.Now()}
}

func (t *TraceWriter) entry() *logrus.Entry {
	return t.log.WithField("elapsed", time.Since(t.startTime).Round(time.Millisecond).String())
}

// WriteOperationStart logs "calling ListRestaurants".
func (t *TraceWriter) WriteOperationStart(op api.OperationInfo) {
	t.entry().WithField("resource", op.Resource).Infof("calling %s", op.Name)
}

// WriteOperationEnd logs the outcome of an operation.
func (t *TraceWriter) WriteOperationEnd(op api.OperationInfo, err error, duration time.Duration) {
	e := t.entry().WithField("duration_ms", duration.Milliseconds())
	if err != nil {
		e.WithError(err).Infof("failed %s", op.Name)
		return
	}
	e.Infof("completed %s", op.Name)
}

// WriteRequestStart logs "-> GET /restaurants" with secrets redacted.
func (t *TraceWriter) WriteRequestStart(info api.RequestInfo) {
	t.entry().WithFields(logrus.Fields{
		"request_id": info.ID,
		"attempt":    info.Attempt,
	}).Infof("-> %s %s", info.Method, scrubURL(info.URL))
}

// WriteRequestEnd logs "<- 200" or the transport error.
func (t *TraceWriter) WriteRequestEnd(info api.RequestInfo, result api.RequestResult) {
	e := t.entry().WithFields(logrus.Fields{
		"request_id":  info.ID,
		"duration_ms": result.Duration.Milliseconds(),
		"bytes":       result.Bytes,
	})
	if result.StatusCode == 0 && result.Err != nil {
		e.WithError(result.Err).Info("<- ERROR")
		return
	}
	e.Infof("<- %d", result.StatusCode)
}

// WriteRetry logs a retry.
func (t *TraceWriter) WriteRetry(info api.RequestInfo, attempt int, err error) {
	t.entry().WithField("request_id", info.ID).WithError(err).Infof("RETRY #%d", attempt)
}

// Reset resets the start time for relative timestamps.
func (t *TraceWriter) Reset() {
	t.startTime = time.Now()
}

// scrubURL redacts sensitive query parameters from a URL.
func scrubURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "[unparseable URL]"
	}

	query := u.Query()
	modified := false
	for key := range query {
		if sensitiveParams[strings.ToLower(key)] {
			query.Set(key, "[REDACTED]")
			modified = true
		}
	}
	if !modified {
		return rawURL
	}
	u.RawQuery = query.Encode()
	return u.String()
}
