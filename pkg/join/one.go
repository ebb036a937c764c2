package join

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// One holds a to-one relationship delivered as JSON. Objects, one-element
// arrays, empty arrays and null are all accepted and normalised to a single
// optional value when decoded, so callers only ever see Value.
type One[T any] struct {
	Value *T
}

// Get returns the related record or nil.
func (o One[T]) Get() *T { return o.Value }

// UnmarshalJSON implements json.Unmarshaler.
func (o *One[T]) UnmarshalJSON(data []byte) error {
	o.Value = nil
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '[' {
		var many []T
		if err := json.Unmarshal(trimmed, &many); err != nil {
			return fmt.Errorf("decode related list: %w", err)
		}
		if len(many) > 0 {
			first := many[0]
			o.Value = &first
		}
		return nil
	}
	var single T
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return fmt.Errorf("decode related object: %w", err)
	}
	o.Value = &single
	return nil
}

// MarshalJSON writes the value or null.
func (o One[T]) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Scan implements sql.Scanner for json/jsonb columns.
func (o *One[T]) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		o.Value = nil
		return nil
	case []byte:
		return o.UnmarshalJSON(v)
	case string:
		return o.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("cannot scan %T into related record", src)
	}
}
