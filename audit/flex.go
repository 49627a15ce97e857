package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Models are loose about JSON types. These decoders accept the common
// variations instead of rejecting the whole report.

type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			*f = flexFloat(v)
		}
	}
	return nil
}

type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var v any
	if err := json.Unmarshal(b, &v); err == nil && v != nil {
		*f = flexString(stringify(v))
	}
	return nil
}

type flexStrings []string

func (f *flexStrings) UnmarshalJSON(b []byte) error {
	var list []any
	if err := json.Unmarshal(b, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s := stringify(item); s != "" {
				out = append(out, s)
			}
		}
		*f = out
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil && strings.TrimSpace(s) != "" {
		*f = []string{strings.TrimSpace(s)}
	}
	return nil
}

// stringify flattens objects such as {"title": "...", "description": "..."}
// into "title: description".
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case map[string]any:
		var parts []string
		for _, key := range []string{"title", "insight", "text", "name", "description", "detail"} {
			if s, ok := t[key].(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, strings.TrimSpace(s))
			}
		}
		return strings.Join(parts, ": ")
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

// rawScore accepts either a bare number or {"score": n, "maxScore": m}.
type rawScore struct {
	Score    float64
	MaxScore float64
}

func (r *rawScore) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var obj struct {
			Score    flexFloat `json:"score"`
			Value    flexFloat `json:"value"`
			MaxScore flexFloat `json:"maxScore"`
			Max      flexFloat `json:"max"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		r.Score = float64(obj.Score)
		if r.Score == 0 {
			r.Score = float64(obj.Value)
		}
		r.MaxScore = float64(obj.MaxScore)
		if r.MaxScore == 0 {
			r.MaxScore = float64(obj.Max)
		}
		return nil
	}
	var f flexFloat
	if err := f.UnmarshalJSON(b); err != nil {
		return err
	}
	r.Score = float64(f)
	return nil
}
