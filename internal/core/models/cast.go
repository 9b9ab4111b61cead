package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// CastMember is one credited person. Older rows store a bare name, newer rows
// store the full record; both shapes decode into CastMember.
type CastMember struct {
	Name      string `json:"name"`
	Character string `json:"character,omitempty"`
	Photo     string `json:"photo,omitempty"`
}

func (m *CastMember) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*m = CastMember{Name: name}
		return nil
	}
	type plain CastMember
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("cast member: %w", err)
	}
	*m = CastMember(p)
	return nil
}

// MarshalJSON writes name-only members back as bare strings.
func (m CastMember) MarshalJSON() ([]byte, error) {
	if m.Character == "" && m.Photo == "" {
		return json.Marshal(m.Name)
	}
	type plain CastMember
	return json.Marshal(plain(m))
}

// CastList maps the JSONB cast_members column.
type CastList []CastMember

func (c *CastList) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*c = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cast: unsupported source type %T", src)
	}
	if len(data) == 0 {
		*c = nil
		return nil
	}
	var list []CastMember
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*c = list
	return nil
}

func (c CastList) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]CastMember(c))
}
