package lotteryapi

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	cases := map[string]time.Time{
		"2026-01-20T10:00:00Z":        time.Date(2026, 1, 20, 10, 0, 0, 0, time.UTC),
		"2026-01-20T13:00:00+03:00":   time.Date(2026, 1, 20, 10, 0, 0, 0, time.UTC),
		"2026-01-20T10:00:00.123456":  time.Date(2026, 1, 20, 10, 0, 0, 123456000, time.UTC),
		"2026-01-20 10:00:00":         time.Date(2026, 1, 20, 10, 0, 0, 0, time.UTC),
		"2026-01-20":                  time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC),
		"  2026-01-20T10:00:00Z    ":  time.Date(2026, 1, 20, 10, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got := ParseTimestamp(in)
		require.True(t, got.Valid, in)
		assert.True(t, want.Equal(got.Time), in)
	}

	for _, in := range []string{"", "20 января 2026", "2026-13-45"} {
		assert.False(t, ParseTimestamp(in).Valid, in)
	}
}

func TestMalformedFieldsDegradeToAbsent(t *testing.T) {
	var ticket Ticket
	err := json.Unmarshal([]byte(`{
		"id": 7,
		"draw_id": 3,
		"filled_at": 12345,
		"prize_amount": "lots",
		"created_at": null
	}`), &ticket)
	require.NoError(t, err)

	assert.EqualValues(t, 7, *ticket.ID)
	assert.False(t, ticket.FilledAt.Valid)
	assert.Nil(t, ticket.FilledAt.Ptr())
	assert.False(t, ticket.PrizeAmount.Valid)
	assert.True(t, ticket.PrizeAmount.OrZero().IsZero())
	assert.Nil(t, ticket.PrizeAmount.Ptr())
}

func TestAmount_Forms(t *testing.T) {
	for in, want := range map[string]string{`100`: "100", `"99.90"`: "99.9", `0`: "0"} {
		var a Amount
		require.NoError(t, json.Unmarshal([]byte(in), &a))
		require.True(t, a.Valid, in)
		assert.True(t, a.Decimal.Equal(decimal.RequireFromString(want)), in)
	}

	out, err := json.Marshal(Amount{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}
