package data

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// Progress is the reading progress of a book in a user's collection. The zero value
// is not a valid Progress; use ParseProgress or one of the named constants.
type Progress string

const (
	ProgressNotStarted    Progress = "Not started"
	ProgressQuarter       Progress = "25%"
	ProgressHalf          Progress = "50%"
	ProgressThreeQuarters Progress = "75%"
	ProgressCompleted     Progress = "Completed"
)

// Progresses lists every valid progress label in reading order.
var Progresses = []Progress{
	ProgressNotStarted,
	ProgressQuarter,
	ProgressHalf,
	ProgressThreeQuarters,
	ProgressCompleted,
}

// ErrInvalidProgress is returned when a label is not one of Progresses.
var ErrInvalidProgress = errors.New("invalid progress")

// ParseProgress converts a label into a Progress.
func ParseProgress(s string) (Progress, error) {
	for _, p := range Progresses {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidProgress, s)
}

// Valid reports whether p is one of the five progress labels.
func (p Progress) Valid() bool {
	_, err := ParseProgress(string(p))
	return err == nil
}

func (p Progress) String() string {
	return string(p)
}

// UnmarshalJSON rejects labels outside the enumerated set.
func (p *Progress) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseProgress(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Value implements driver.Valuer.
func (p Progress) Value() (driver.Value, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProgress, string(p))
	}
	return string(p), nil
}

// Scan implements sql.Scanner.
func (p *Progress) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Progress", src)
	}
	parsed, err := ParseProgress(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
