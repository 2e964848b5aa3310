package normalize

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"spotprices/internal/provider"
)

// Summary describes a raw payload for troubleshooting upstream changes.
type Summary struct {
	Type      string          `json:"type"`
	Length    int             `json:"length"`
	Keys      []string        `json:"keys,omitempty"`
	FirstItem json.RawMessage `json:"first_item,omitempty"`
	Shape     string          `json:"shape"`
	Key       string          `json:"shape_key,omitempty"`
}

// Describe summarizes raw and reports the layout Detect picks for day.
func Describe(raw []byte, day provider.Day) Summary {
	res := gjson.ParseBytes(raw)
	layout := Detect(res, day)
	s := Summary{Type: typeName(res), Shape: layout.Shape.String(), Key: layout.Key}

	switch {
	case res.IsArray():
		items := res.Array()
		s.Length = len(items)
		if len(items) > 0 {
			s.FirstItem = json.RawMessage(items[0].Raw)
		}
	case res.IsObject():
		res.ForEach(func(key, _ gjson.Result) bool {
			s.Keys = append(s.Keys, key.String())
			return true
		})
		s.Length = len(s.Keys)
	}
	return s
}

func typeName(r gjson.Result) string {
	switch {
	case r.IsArray():
		return "array"
	case r.IsObject():
		return "object"
	case r.Type == gjson.String:
		return "string"
	case r.Type == gjson.Number:
		return "number"
	case r.Type == gjson.True, r.Type == gjson.False:
		return "bool"
	default:
		return "null"
	}
}
