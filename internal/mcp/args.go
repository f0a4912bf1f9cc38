package mcp

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mvp-joe/cortex-positions/internal/symbols"
)

// extractArgs are the arguments of extract_symbols and symbol_outline.
// Unset optional flags stay nil so server defaults apply.
type extractArgs struct {
	Path     string `json:"path"`
	Source   string `json:"source"`
	Language string `json:"language"`
	Strict   *bool  `json:"strict"`
	Macros   *bool  `json:"macros"`
}

// findArgs are the arguments of find_symbols.
type findArgs struct {
	Query    string `json:"query"`
	Kind     string `json:"kind"`
	Language string `json:"language"`
	Limit    *int   `json:"limit"`
}

// bindArguments decodes tool call arguments into target by json tag.
// Some clients send every parameter as a string, so "true", "20" and
// JSON-encoded arrays are coerced to the field type.
func bindArguments[T any](request mcp.CallToolRequest, target *T) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			jsonStringHook,
			mapstructure.StringToSliceHookFunc(","),
		),
		Result:  target,
		TagName: "json",
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(request.GetArguments()); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// jsonStringHook parses string values that hold JSON for non-string fields.
func jsonStringHook(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
	if f.Kind() != reflect.String {
		return data, nil
	}
	raw := strings.TrimSpace(data.(string))
	if raw == "" {
		return data, nil
	}

	kind := t.Kind()
	if kind == reflect.Pointer {
		kind = t.Elem().Kind()
	}
	switch {
	case kind == reflect.Slice:
		if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
			slicePtr := reflect.New(t)
			if err := json.Unmarshal([]byte(raw), slicePtr.Interface()); err == nil {
				return slicePtr.Elem().Interface(), nil
			}
		}
	case kind == reflect.Bool:
		if raw == "true" || raw == "false" {
			return raw == "true", nil
		}
	case kind >= reflect.Int && kind <= reflect.Float64:
		var n json.Number
		if err := json.Unmarshal([]byte(raw), &n); err == nil {
			return n, nil
		}
	}
	return data, nil
}

// clamp bounds an optional integer argument to [lo, hi].
func clamp(v *int, def, lo, hi int) int {
	if v == nil {
		return def
	}
	return max(lo, min(hi, *v))
}

// boolOr returns *b, or def when the argument was not given.
func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// parseKind converts an optional kind argument.
func parseKind(s string) (symbols.Kind, error) {
	if s == "" {
		return "", nil
	}
	return symbols.ParseKind(s)
}
