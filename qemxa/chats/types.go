package chats

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"codeberg.org/qemxa/server/internal/history"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrChatNotFound = errors.New("chat not found")

type Repository struct {
	db *pgxpool.Pool
}

// one row of the chats table, keyed by (vin, user_id)
type Chat struct {
	VIN            string          `json:"vin"`
	UserID         string          `json:"user_id"`
	Messages       Messages        `json:"messages"`
	ServiceHistory json.RawMessage `json:"serviceHistory"`
}

// jsonb message list
type Messages history.History

func (m Messages) Value() (driver.Value, error) {
	if len(m) == 0 {
		return "[]", nil
	}

	bytes, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}

	return string(bytes), nil
}

func (m *Messages) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*m = Messages{}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported messages column type %T", value)
	}
}
