package lotteryapi

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp is an optional point in time from the external system.
// Decoding never fails: null, empty or unparseable values become absent
// so that one malformed field cannot abort the merge of a whole record.
type Timestamp struct {
	Time  time.Time
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	*t = Timestamp{}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	*t = ParseTimestamp(s)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.UTC().Format(time.RFC3339))
}

// Ptr returns the time in UTC, or nil when absent.
func (t Timestamp) Ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

// ParseTimestamp accepts RFC3339 (with or without zone), "YYYY-MM-DD HH:MM:SS"
// and plain dates. Values without a zone are taken as UTC.
func ParseTimestamp(s string) Timestamp {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: parsed, Valid: true}
		}
	}
	return Timestamp{}
}

// Amount is an optional money value that may arrive as a JSON number or a
// numeric string. Like Timestamp, malformed input decodes to absent.
type Amount struct {
	Decimal decimal.Decimal
	Valid   bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw := string(bytes.Trim(data, `"`))
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	*a = Amount{Decimal: d, Valid: true}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return []byte(a.Decimal.String()), nil
}

// OrZero returns the amount, or zero when absent.
func (a Amount) OrZero() decimal.Decimal {
	if !a.Valid {
		return decimal.Zero
	}
	return a.Decimal
}

// Ptr returns the amount, or nil when absent.
func (a Amount) Ptr() *decimal.Decimal {
	if !a.Valid {
		return nil
	}
	d := a.Decimal
	return &d
}

// looseScalar strips quotes and whitespace from a raw JSON scalar. It
// returns "" for null and for anything that is not a scalar.
func looseScalar(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" || s[0] == '{' || s[0] == '[' {
		return ""
	}
	return strings.TrimSpace(strings.Trim(s, `"`))
}

// looseInt64 accepts a JSON number or numeric string. Anything else is absent.
func looseInt64(raw json.RawMessage) *int64 {
	s := looseScalar(raw)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

func looseInt(raw json.RawMessage) *int {
	v := looseInt64(raw)
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}

// looseBool accepts true/false, their string forms and 1/0.
func looseBool(raw json.RawMessage) *bool {
	s := looseScalar(raw)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}
	return &v
}

func looseString(raw json.RawMessage) *string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}
