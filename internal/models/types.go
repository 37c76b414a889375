package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

var monthKeyPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// MonthKey is a YYYY-MM bucket
type MonthKey string

// ParseMonthKey validates s as a YYYY-MM month key
func ParseMonthKey(s string) (MonthKey, error) {
	s = strings.TrimSpace(s)
	if !monthKeyPattern.MatchString(s) {
		return "", fmt.Errorf("invalid month %q, expected YYYY-MM", s)
	}
	return MonthKey(s), nil
}

// MonthOf returns the month key containing t
func MonthOf(t time.Time) MonthKey {
	return MonthKey(t.Format("2006-01"))
}

// IsValid reports whether the key is a well-formed YYYY-MM value
func (m MonthKey) IsValid() bool {
	return monthKeyPattern.MatchString(string(m))
}

func (m MonthKey) String() string {
	return string(m)
}

// Date is a calendar day, serialized as YYYY-MM-DD in JSON and SQL
type Date struct {
	t time.Time
}

// NewDate truncates t to its calendar day in UTC
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ErrInvalidDate is returned for dates not in YYYY-MM-DD form
var ErrInvalidDate = errors.New("invalid date")

// ParseDate parses a YYYY-MM-DD string
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w %q, expected YYYY-MM-DD", ErrInvalidDate, s)
	}
	return Date{t: t}, nil
}

// Time returns the date as midnight UTC
func (d Date) Time() time.Time {
	return d.t
}

// IsZero reports whether the date is unset
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// Month derives the month key. Transactions never store a month that
// disagrees with their date.
func (d Date) Month() MonthKey {
	return MonthOf(d.t)
}

func (d Date) String() string {
	return d.t.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan implements sql.Scanner
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = NewDate(v.Year(), v.Month(), v.Day())
		return nil
	case []byte:
		return d.scanString(string(v))
	case string:
		return d.scanString(v)
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d *Date) scanString(s string) error {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// GoalExpense is one planned spend inside a monthly goal
type GoalExpense struct {
	CategoryID     string          `json:"category_id"`
	CategoryName   string          `json:"category_name"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
}

// GoalExpenses is stored as a JSONB array, preserving order
type GoalExpenses []GoalExpense

// Total sums the expected amounts
func (e GoalExpenses) Total() decimal.Decimal {
	total := decimal.Zero
	for _, expense := range e {
		total = total.Add(expense.ExpectedAmount)
	}
	return total
}

// Scan implements sql.Scanner
func (e *GoalExpenses) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*e = GoalExpenses{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into GoalExpenses", src)
	}
	var expenses GoalExpenses
	if err := json.Unmarshal(data, &expenses); err != nil {
		return err
	}
	if expenses == nil {
		expenses = GoalExpenses{}
	}
	*e = expenses
	return nil
}

// Value implements driver.Valuer
func (e GoalExpenses) Value() (driver.Value, error) {
	if e == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(e)
}

// JSONDocument holds an opaque JSONB column
type JSONDocument []byte

func (j JSONDocument) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSONDocument) UnmarshalJSON(data []byte) error {
	*j = append((*j)[:0], data...)
	return nil
}

// Scan implements sql.Scanner
func (j *JSONDocument) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = append(JSONDocument(nil), v...)
	case string:
		*j = JSONDocument(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONDocument", src)
	}
	return nil
}

// Value implements driver.Valuer
func (j JSONDocument) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return []byte(j), nil
}
