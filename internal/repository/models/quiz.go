package models

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"
)

// JSONText holds a raw JSON document stored in a TEXT, JSONB or CLOB column.
type JSONText []byte

// Value implements the driver.Valuer interface
func (j JSONText) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

// Scan implements the sql.Scanner interface
func (j *JSONText) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = append((*j)[:0], v...)
	case string:
		*j = JSONText(v)
	default:
		return fmt.Errorf("JSONText Scan: unsupported type %T", value)
	}
	return nil
}

// Quiz is the quizzes table row.
type Quiz struct {
	ID          string         `db:"id"`
	OwnerID     string         `db:"owner_id"`
	Slug        string         `db:"slug"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	Status      string         `db:"status"`
	Sessions    JSONText       `db:"sessions"`
	Settings    JSONText       `db:"settings"`
	Design      JSONText       `db:"design"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// QuizResponse is the quiz_responses table row.
type QuizResponse struct {
	ID           string         `db:"id"`
	QuizID       string         `db:"quiz_id"`
	SessionID    string         `db:"session_id"`
	UserAgent    sql.NullString `db:"user_agent"`
	ResponseData JSONText       `db:"response_data"`
	CreatedAt    time.Time      `db:"created_at"`
}
