package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"spheremap/internal/domain"
	"spheremap/internal/geometry"
)

// ToInt coerces v to an integer id. Integral floats and numeric strings are
// accepted; fractional values, booleans and anything else are not.
func ToInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return uintToInt(uint64(n))
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return uintToInt(n)
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	}
	return 0, false
}

func uintToInt(u uint64) (int64, bool) {
	if u > math.MaxInt64 {
		return 0, false
	}
	return int64(u), true
}

func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// ToBool parses an archived-style flag: bools, numbers (non-zero is true) and
// the strings true/1/yes/on and false/0/no/off/"".
func ToBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1", "yes", "on":
			return true, true
		case "false", "0", "no", "off", "":
			return false, true
		}
		return false, false
	case json.Number:
		f, err := b.Float64()
		if err != nil {
			return false, false
		}
		return f != 0, true
	}
	f := geometry.ToNumber(v, math.NaN())
	if math.IsNaN(f) {
		return false, false
	}
	return f != 0, true
}

// ToPosition accepts a JSON-encoded string, an [x, y] pair or an object
// keyed by any x/y alias. Missing or unusable components default to 0.5.
func ToPosition(v any) domain.Position {
	x, y := 0.5, 0.5
	switch p := v.(type) {
	case string:
		var decoded any
		if err := decodeJSONString(p, &decoded); err == nil && decoded != nil {
			if _, again := decoded.(string); !again {
				return ToPosition(decoded)
			}
		}
	case []any:
		if len(p) >= 2 {
			x = geometry.ToNumber(p[0], 0.5)
			y = geometry.ToNumber(p[1], 0.5)
		}
	case []float64:
		if len(p) >= 2 {
			x = geometry.ToNumber(p[0], 0.5)
			y = geometry.ToNumber(p[1], 0.5)
		}
	case map[string]any:
		rec := Record(p)
		if vx, ok := rec.Lookup(FieldX); ok {
			x = geometry.ToNumber(vx, 0.5)
		}
		if vy, ok := rec.Lookup(FieldY); ok {
			y = geometry.ToNumber(vy, 0.5)
		}
	case Record:
		return ToPosition(map[string]any(p))
	case domain.Position:
		x, y = p.X, p.Y
	}
	return domain.NewPosition(x, y)
}

// ToStrings accepts an array or a comma separated string and keeps the
// trimmed non-empty entries. A string holding a JSON array is decoded first.
func ToStrings(v any) []string {
	out := []string{}
	switch list := v.(type) {
	case string:
		s := strings.TrimSpace(list)
		if strings.HasPrefix(s, "[") {
			var decoded []any
			if err := decodeJSONString(s, &decoded); err == nil {
				return ToStrings(decoded)
			}
		}
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	case []string:
		for _, item := range list {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	case []any:
		for _, item := range list {
			if item == nil {
				continue
			}
			if s := scalarString(item); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// ToMetadata accepts an object or a JSON-encoded object
func ToMetadata(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out
	case Record:
		return ToMetadata(map[string]any(m))
	case string:
		var decoded map[string]any
		if err := decodeJSONString(m, &decoded); err == nil && decoded != nil {
			return decoded
		}
	}
	return make(map[string]any)
}

// ToGroups accepts a list of group objects or bare group ids
func ToGroups(v any) []domain.GroupRef {
	out := []domain.GroupRef{}
	list, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range list {
		switch g := item.(type) {
		case map[string]any:
			rec := Record(g)
			raw, _ := rec.Lookup(FieldID)
			id, ok := ToInt(raw)
			if !ok {
				continue
			}
			out = append(out, domain.GroupRef{ID: id, Name: rec.String(FieldName)})
		default:
			if id, ok := ToInt(g); ok {
				out = append(out, domain.GroupRef{ID: id})
			}
		}
	}
	return out
}

func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return s.String()
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(s)
	case float32, float64:
		return strconv.FormatFloat(geometry.ToNumber(s, 0), 'f', -1, 64)
	}
	return ""
}

func decodeJSONString(s string, dst any) error {
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(s)))
	dec.UseNumber()
	return dec.Decode(dst)
}
