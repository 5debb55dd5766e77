package service

import (
	"bytes"

	"github.com/bytedance/sonic"
)

// NullableString records whether a JSON string field was absent, null,
// or set. Request validation needs all three states: a missing title
// and an explicit null produce different messages.
type NullableString struct {
	Present bool
	Null    bool
	Value   string
}

func (n *NullableString) UnmarshalJSON(b []byte) error {
	n.Present = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		n.Null = true
		return nil
	}
	return sonic.Unmarshal(b, &n.Value)
}

func (n NullableString) MarshalJSON() ([]byte, error) {
	if !n.Present || n.Null {
		return []byte("null"), nil
	}
	return sonic.Marshal(n.Value)
}
