package predictor

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Lenient JSON scalars. None of them fail to decode: unexpected shapes fall
// back to the zero value.

// Flag decodes any JSON value by truthiness. null, false, 0, "", "0",
// "false", [] and {} are false.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	*f = Flag(truthy(bytes.TrimSpace(data)))
	return nil
}

func truthy(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	switch data[0] {
	case 'n', 'f':
		return false
	case 't':
		return true
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return false
		}
		s = strings.TrimSpace(strings.ToLower(s))
		return s != "" && s != "0" && s != "false"
	case '[':
		var v []json.RawMessage
		return json.Unmarshal(data, &v) == nil && len(v) > 0
	case '{':
		var v map[string]json.RawMessage
		return json.Unmarshal(data, &v) == nil && len(v) > 0
	default:
		n, err := strconv.ParseFloat(string(data), 64)
		return err == nil && n != 0
	}
}

// FlexString accepts a JSON string or number. Valid is false for null, a
// missing field, or any other shape.
type FlexString struct {
	Value string
	Valid bool
}

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*s = FlexString{}
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var v string
		if err := json.Unmarshal(data, &v); err == nil {
			*s = FlexString{Value: v, Valid: true}
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		*s = FlexString{Value: string(data), Valid: true}
	}
	return nil
}

func (s FlexString) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

// FlexFloat accepts a JSON number or a numeric string.
type FlexFloat struct {
	Value float64
	Valid bool
}

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*f = FlexFloat{}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		*f = FlexFloat{Value: v, Valid: true}
	}
	return nil
}

func (f FlexFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}
