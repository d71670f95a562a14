package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

const (
	NO_PAGINATION     uint64 = 0
	DEFAULT_PAGE      uint64 = 1
	DEFAULT_PAGE_SIZE uint64 = 20
)

const (
	LANGUAGE_EN_KEY = "en"
	LANGUAGE_CN_KEY = "zh-CN"
)

// JSONMap is a jsonb column holding loosely structured key/value state,
// used for audit before/after snapshots.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported jsonb scan source %T", value)
	}
}
