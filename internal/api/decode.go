package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/mzansiplatess/plates-cli/internal/output"
)

var errEmptyBody = errors.New("Empty body") //nolint:staticcheck // user-facing message

// unwrapEnvelope returns the payload of a {success, data, ...} envelope, or
// the body itself when the server answered with a bare value. A false
// success flag is reported as an API error.
func unwrapEnvelope(body []byte) (gjson.Result, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return gjson.Result{}, errEmptyBody
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, output.ErrMalformed(errors.New("response is not valid JSON"))
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return root, nil
	}

	success := root.Get("success")
	if !success.Exists() {
		return root, nil
	}
	if !success.Bool() {
		msg := firstString(root, "error", "message", "error.message")
		if msg == "" {
			msg = "Request was not successful"
		}
		return gjson.Result{}, output.ErrAPI(0, msg)
	}
	return root.Get("data"), nil
}

func firstString(r gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := r.Get(p); v.Type == gjson.String && strings.TrimSpace(v.String()) != "" {
			return strings.TrimSpace(v.String())
		}
	}
	return ""
}

// decodeList decodes a list response. An empty body or a missing/null data
// field is an empty list.
func decodeList[T any](body []byte) ([]T, error) {
	payload, err := unwrapEnvelope(body)
	if errors.Is(err, errEmptyBody) {
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}
	if !payload.Exists() || payload.Type == gjson.Null {
		return []T{}, nil
	}
	if !payload.IsArray() {
		return nil, output.ErrMalformed(fmt.Errorf("expected a list, got %s", kindOf(payload)))
	}

	items := []T{}
	if err := json.Unmarshal([]byte(payload.Raw), &items); err != nil {
		return nil, output.ErrMalformed(err)
	}
	return items, nil
}

// decodeOne decodes a single-record response.
func decodeOne[T any](body []byte) (*T, error) {
	payload, err := unwrapEnvelope(body)
	if errors.Is(err, errEmptyBody) {
		return nil, output.ErrMalformed(err)
	}
	if err != nil {
		return nil, err
	}
	if !payload.Exists() || payload.Type == gjson.Null {
		return nil, output.ErrMalformed(errEmptyBody)
	}
	if !payload.IsObject() {
		return nil, output.ErrMalformed(fmt.Errorf("expected an object, got %s", kindOf(payload)))
	}

	var v T
	if err := json.Unmarshal([]byte(payload.Raw), &v); err != nil {
		return nil, output.ErrMalformed(err)
	}
	return &v, nil
}

func kindOf(r gjson.Result) string {
	switch {
	case r.IsArray():
		return "array"
	case r.IsObject():
		return "object"
	}
	switch r.Type {
	case gjson.String:
		return "string"
	case gjson.Number:
		return "number"
	case gjson.True, gjson.False:
		return "boolean"
	}
	return "null"
}
