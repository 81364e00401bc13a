package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/itchyny/gojq"
)

// ValidateJQ parses a jq program without running it, so bad filters fail
// before any request is made.
func ValidateJQ(program string) error {
	if _, err := gojq.Parse(program); err != nil {
		return ErrUsageHint(fmt.Sprintf("invalid --jq filter: %v", err), "See https://jqlang.github.io/jq/manual/")
	}
	return nil
}

// applyJQ runs program over v (converted to plain JSON values) and writes
// every result as indented JSON, one after another.
func applyJQ(out io.Writer, program string, v any) error {
	query, err := gojq.Parse(program)
	if err != nil {
		return ErrUsage(fmt.Sprintf("invalid --jq filter: %v", err))
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return ErrUsage(fmt.Sprintf("invalid --jq filter: %v", err))
	}

	input, err := toJQInput(v)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	iter := code.Run(input)
	for {
		result, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, isErr := result.(error); isErr {
			var halt *gojq.HaltError
			if errors.As(err, &halt) && halt.Value() == nil {
				return nil
			}
			return ErrUsage(fmt.Sprintf("--jq: %v", err))
		}
		if err := enc.Encode(result); err != nil {
			return err
		}
	}
}

// toJQInput round-trips through JSON; gojq only accepts plain maps, slices
// and scalars.
func toJQInput(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
