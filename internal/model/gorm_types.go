package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONStringList stores a []string as a JSON-encoded TEXT column, the same
// inline-serialization choice the source schema makes for target_hosts /
// target_groups / tags rather than a separate join table.
type JSONStringList []string

// Value implements driver.Valuer.
func (l JSONStringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *JSONStringList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("JSONStringList: unsupported Scan type")
	}
	if len(bytes) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// Contains reports whether target is present in the list.
func (l JSONStringList) Contains(target string) bool {
	for _, v := range l {
		if v == target {
			return true
		}
	}
	return false
}
