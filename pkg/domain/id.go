package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is an opaque server identifier. The API may send it as a JSON string or
// a number; either way it is kept as text and sent back verbatim.
type ID string

func (id ID) String() string { return string(id) }

// IsZero reports whether no id was set.
func (id ID) IsZero() bool { return id == "" }

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("domain.ID: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("domain.ID: %s is not a string or number", data)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}
