package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Record is one entry of a dataset split, keyed by field name. Values are
// whatever the loader produced: strings, json.Numbers, booleans, lists or
// nested maps. Records are never modified after loading.
type Record map[string]any

// String returns the field as text. A missing field or a null yields "".
// Other values are rendered the way they print in the source data:
// booleans as True/False, numbers as written (floats keep a fractional
// part), lists and maps as JSON.
func (r Record) String(key string) string {
	var s string
	if !r.decode(key, &s) {
		return ""
	}
	return s
}

// Strings returns the field as a list of strings, each element rendered as
// String would. A string holding a JSON array (as CSV cells do) is accepted
// as the list it encodes; any other string is a one-element list. A missing
// or unconvertible field yields an empty list.
func (r Record) Strings(key string) []string {
	var ss []string
	if !r.decode(key, &ss) {
		return nil
	}
	return ss
}

func (r Record) decode(key string, out any) bool {
	v, ok := r[key]
	if !ok || v == nil {
		return false
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			jsonArrayStringHook,
			textHook,
		),
	})
	if err != nil {
		return false
	}
	return decoder.Decode(v) == nil
}

// jsonArrayStringHook expands "[...]" strings into lists when a slice is
// wanted, so list-valued CSV columns decode like their JSON counterparts.
func jsonArrayStringHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Slice {
		return data, nil
	}
	s := strings.TrimSpace(reflect.ValueOf(data).String())
	if !strings.HasPrefix(s, "[") {
		return data, nil
	}
	var items []any
	if err := decodeJSON([]byte(s), &items); err != nil {
		return data, nil
	}
	return items, nil
}

// textHook renders non-string values bound for a string.
func textHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	switch v := data.(type) {
	case bool:
		if v {
			return "True", nil
		}
		return "False", nil
	case float64:
		return formatFloat(v), nil
	case float32:
		return formatFloat(float64(v)), nil
	case []any, map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return data, nil
		}
		return string(b), nil
	}
	return data, nil
}

// formatFloat always shows a fractional part for integral values ("7.0")
// and switches to exponent form outside [1e-4, 1e16).
func formatFloat(f float64) string {
	if abs := math.Abs(f); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

// decodeJSON unmarshals a single JSON value, keeping numbers as json.Number
// so they print exactly as written.
func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}
