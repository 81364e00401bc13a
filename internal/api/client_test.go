package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzansiplatess/plates-cli/internal/config"
	"github.com/mzansiplatess/plates-cli/internal/models"
	"github.com/mzansiplatess/plates-cli/internal/output"
)

type staticToken string

func (s staticToken) AccessToken(context.Context) (string, error) { return string(s), nil }

func testConfig(url string) *config.Config {
	cfg := config.Default()
	cfg.BaseURL = url
	cfg.Timeout = 5 * time.Second
	cfg.RateLimit = 0
	return cfg
}

func newTestClient(t *testing.T, h http.HandlerFunc, tokens TokenProvider, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(testConfig(srv.URL), tokens, opts...)
}

func TestRestaurantsEnvelope(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/restaurants", r.URL.Path)
		gotQuery = r.URL.RawQuery
		_, _ = io.WriteString(w, `{"success":true,"data":[{"_id":"r1","name":"Mama's Kitchen","rating":4.5}]}`)
	}, nil)

	got, err := c.Restaurants(context.Background(), models.SearchParams{City: "Durban"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].ID)
	assert.Equal(t, "Mama's Kitchen", got[0].Name)
	assert.Equal(t, "city=Durban", gotQuery)
}

func TestRestaurantsBareArray(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"_id":"a","name":"A"},{"_id":"b","name":"B"}]`)
	}, nil)

	got, err := c.Restaurants(context.Background(), models.SearchParams{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestEmptyListBodies(t *testing.T) {
	for name, body := range map[string]string{
		"empty body":    "",
		"null data":     `{"success":true,"data":null}`,
		"missing data":  `{"success":true}`,
		"empty array":   `[]`,
		"envelope list": `{"success":true,"data":[]}`,
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, body)
			}, nil)
			got, err := c.Recipes(context.Background(), models.SearchParams{})
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

// A 500 with a plain-text body surfaces the body as the message and keeps
// the status reachable through the HTTPError cause.
func TestServerErrorPlainText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "server error")
	}, nil)

	_, err := c.Restaurants(context.Background(), models.SearchParams{})
	require.Error(t, err)

	e := output.AsError(err)
	assert.Equal(t, output.CodeAPI, e.Code)
	assert.Equal(t, "server error", e.Message)
	assert.Equal(t, 500, e.HTTPStatus)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, 500, httpErr.StatusCode)
	assert.Equal(t, "server error", httpErr.Body)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		status  int
		body    string
		code    string
		message string
	}{
		{401, `{"success":false,"error":"Token expired"}`, output.CodeAuth, "Token expired"},
		{403, ``, output.CodeForbidden, "Access denied"},
		{404, `{"message":"Restaurant not found"}`, output.CodeNotFound, "Restaurant not found"},
		{429, ``, output.CodeRateLimit, "Rate limited"},
		{400, `{"error":"Invalid email"}`, output.CodeUsage, "Invalid email"},
		{503, `<html>down</html>`, output.CodeAPI, "Gateway error (503)"},
		{500, ``, output.CodeAPI, "Request failed (HTTP 500)"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}, nil)
			_, err := c.Events(context.Background(), models.SearchParams{})
			e := output.AsError(err)
			assert.Equal(t, tt.code, e.Code)
			assert.Equal(t, tt.message, e.Message)
			assert.Equal(t, tt.status, e.HTTPStatus)
		})
	}
}

func TestRateLimitRetryAfter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}, nil)
	_, err := c.Events(context.Background(), models.SearchParams{})
	assert.Equal(t, "Try again in 30 seconds", output.AsError(err).Hint)
}

func TestUnsuccessfulEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":false,"error":"Database unavailable"}`)
	}, nil)
	_, err := c.Recipes(context.Background(), models.SearchParams{})
	assert.Equal(t, "Database unavailable", output.AsError(err).Message)
}

func TestMalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"data":{"_id":`)
	}, nil)
	_, err := c.Recipes(context.Background(), models.SearchParams{})
	assert.Equal(t, "Malformed response", output.AsError(err).Message)
}

func TestListRejectsObject(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"data":{"_id":"x"}}`)
	}, nil)
	_, err := c.Recipes(context.Background(), models.SearchParams{})
	e := output.AsError(err)
	assert.Equal(t, "Malformed response", e.Message)
	assert.Contains(t, e.Hint, "expected a list, got object")
}

func TestSingleRecord(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/recipes/bobotie", r.URL.Path)
		_, _ = io.WriteString(w, `{"success":true,"data":{"_id":"bobotie","name":"Bobotie","prepTime":20,"cookTime":45}}`)
	}, nil)

	got, err := c.Recipe(context.Background(), "bobotie")
	require.NoError(t, err)
	assert.Equal(t, "Bobotie", got.Name)
	assert.Equal(t, 65, got.TotalTime())
}

func TestSingleRecordEmptyBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {}, nil)
	_, err := c.Restaurant(context.Background(), "r1")
	e := output.AsError(err)
	assert.Equal(t, "Malformed response", e.Message)
	assert.Equal(t, "Empty body", e.Hint)
}

func TestSingleRecordNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, nil)
	_, err := c.Event(context.Background(), "missing")
	e := output.AsError(err)
	assert.Equal(t, output.CodeNotFound, e.Code)
	assert.Equal(t, "Event not found: missing", e.Message)
	assert.Equal(t, output.ExitNotFound, e.ExitCode())
}

func TestSingleRecordRequiresID(t *testing.T) {
	c := NewClient(testConfig("http://127.0.0.1:1"), nil)
	_, err := c.Restaurant(context.Background(), "")
	assert.Equal(t, output.CodeUsage, output.AsError(err).Code)
}

func TestHeaders(t *testing.T) {
	var auth, reqID, ua string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		reqID = r.Header.Get("X-Request-ID")
		ua = r.Header.Get("User-Agent")
		_, _ = io.WriteString(w, `[]`)
	}, staticToken("abc"))

	_, err := c.Favourites(context.Background(), models.FavouriteRecipe)
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", auth)
	assert.Len(t, reqID, 36)
	assert.Contains(t, ua, "plates-cli/")
}

func TestAnonymousRequestHasNoAuthorization(t *testing.T) {
	var sawAuth bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, sawAuth = r.Header["Authorization"]
		_, _ = io.WriteString(w, `[]`)
	}, staticToken(""))

	_, err := c.Restaurants(context.Background(), models.SearchParams{})
	require.NoError(t, err)
	assert.False(t, sawAuth)
}

func TestTokenProviderErrorStopsRequest(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}, tokenFunc(func(context.Context) (string, error) {
		return "", output.ErrAuth("Session expired")
	}))

	_, err := c.Favourites(context.Background(), "")
	assert.Equal(t, output.CodeAuth, output.AsError(err).Code)
	assert.Zero(t, calls.Load())
}

type tokenFunc func(context.Context) (string, error)

func (f tokenFunc) AccessToken(ctx context.Context) (string, error) { return f(ctx) }

func TestAddAndRemoveFavourite(t *testing.T) {
	var posted map[string]string
	var deleted string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"success":true,"data":{"_id":"f1","itemType":"EVENT","itemId":"e9"}}`)
		case http.MethodDelete:
			deleted = r.URL.Path
			w.WriteHeader(http.StatusNoContent)
		}
	}, staticToken("t"))

	fav, err := c.AddFavourite(context.Background(), models.FavouriteEvent, "e9")
	require.NoError(t, err)
	assert.Equal(t, "f1", fav.ID)
	assert.Equal(t, map[string]string{"itemType": "EVENT", "itemId": "e9"}, posted)

	require.NoError(t, c.RemoveFavourite(context.Background(), "f1"))
	assert.Equal(t, "/favourites/f1", deleted)
}

func TestRetriesRetryableErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Retries = 2
	hooks := &recordingHooks{}
	c := NewClient(cfg, nil, WithHooks(hooks))

	_, err := c.Events(context.Background(), models.SearchParams{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 1, hooks.retries)
	assert.Equal(t, 2, hooks.requests)
	assert.Equal(t, 1, hooks.operations)
}

func TestNoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, nil)

	_, err := c.Events(context.Background(), models.SearchParams{})
	require.Error(t, err)
	assert.True(t, output.AsError(err).Retryable)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNonRetryableNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Retries = 3
	_, err := NewClient(cfg, nil).Events(context.Background(), models.SearchParams{})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(testConfig(url), nil).Restaurants(context.Background(), models.SearchParams{})
	e := output.AsError(err)
	assert.Equal(t, output.CodeNetwork, e.Code)
	assert.Equal(t, "Network error", e.Message)
	assert.NotEmpty(t, e.Hint)
}

func TestBackoffDelay(t *testing.T) {
	for attempt, base := range map[int]time.Duration{1: 500 * time.Millisecond, 2: time.Second, 3: 2 * time.Second} {
		d := backoffDelay(attempt)
		assert.GreaterOrEqual(t, d, base)
		assert.Less(t, d, base+maxJitter)
	}
}

func TestHTTPErrorServerMessage(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	tests := map[string]struct {
		body string
		want string
	}{
		"json error":    {`{"error":"bad"}`, "bad"},
		"json message":  {`{"message":"nope"}`, "nope"},
		"nested":        {`{"error":{"message":"deep"}}`, "deep"},
		"plain":         {"  server error\n", "server error"},
		"html":          {"<html></html>", ""},
		"json no field": {`{"code":1}`, ""},
		"long":          {string(long), string(long[:200]) + "…"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, (&HTTPError{StatusCode: 500, Body: tt.body}).ServerMessage())
		})
	}
}

type recordingHooks struct {
	NopHooks
	mu         sync.Mutex
	operations int
	requests   int
	retries    int
}

func (h *recordingHooks) OnOperationEnd(context.Context, OperationInfo, error, time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.operations++
}

func (h *recordingHooks) OnRequestEnd(context.Context, RequestInfo, RequestResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests++
}

func (h *recordingHooks) OnRetry(context.Context, RequestInfo, int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.retries++
}
