package webapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexString decodes a JSON string or number as a string. null leaves it
// empty.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		return nil
	case len(data) > 0 && data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("flex string: %w", err)
		}
		*s = FlexString(n.String())
		return nil
	}
}

func (s FlexString) String() string {
	return string(s)
}

// Ptr returns nil for an empty value.
func (s FlexString) Ptr() *string {
	if s == "" {
		return nil
	}
	v := string(s)
	return &v
}

// FlexInt decodes a JSON number or numeric string. Set reports presence.
type FlexInt struct {
	Value int64
	Set   bool
}

func (i *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		data = []byte(s)
	}

	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("flex int: %w", err)
	}
	i.Value = int64(v)
	i.Set = true
	return nil
}

func (i FlexInt) Ptr() *int64 {
	if !i.Set {
		return nil
	}
	v := i.Value
	return &v
}
