package lotteryapi

import "encoding/json"

// Customer is the external customer record.
type Customer struct {
	ID               int64           `json:"id"`
	ExternalID       *string         `json:"external_id"`
	Name             *string         `json:"name"`
	Phone            *string         `json:"phone"`
	Email            *string         `json:"email"`
	Balance          Amount          `json:"balance"`
	AvailableTickets *int            `json:"available_tickets"`
	Birthday         Timestamp       `json:"birthday"`
	Sex              *int            `json:"sex"`
	AdditionalFields json.RawMessage `json:"additional_fields"`
	CreatedAt        Timestamp       `json:"created_at"`
	UpdatedAt        Timestamp       `json:"updated_at"`
}

// Draw statuses published by the external system.
const (
	DrawStatusPending   = "pending"
	DrawStatusActive    = "active"
	DrawStatusCompleted = "completed"
	DrawStatusCancelled = "cancelled"
)

// Draw is the external lottery event record.
type Draw struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Status         string          `json:"status"`
	ScheduledAt    Timestamp       `json:"scheduled_at"`
	ExecutedAt     Timestamp       `json:"executed_at"`
	PrizePool      Amount          `json:"prize_pool"`
	Type           *string         `json:"type"`
	Periodicity    *string         `json:"periodicity"`
	NumbersToPick  *int            `json:"numbers_to_pick"`
	NumbersTotal   *int            `json:"numbers_total"`
	PrizeGrid      json.RawMessage `json:"prize_grid"`
	WinningNumbers []int           `json:"winning_numbers"`
	Statistics     json.RawMessage `json:"statistics"`
}

// Ticket is the external ticket record. ID is nil for tickets the external
// system has not materialised yet.
type Ticket struct {
	ID           *int64    `json:"id"`
	CustomerID   *int64    `json:"customer_id"`
	DrawID       *int64    `json:"draw_id"`
	Numbers      []int     `json:"numbers"`
	IsWinner     *bool     `json:"is_winner"`
	MatchedCount *int      `json:"matched_count"`
	PrizeAmount  Amount    `json:"prize_amount"`
	FilledAt     Timestamp `json:"filled_at"`
	FilledBy     *string   `json:"filled_by"`
	CreatedAt    Timestamp `json:"created_at"`
}

// UnmarshalJSON reads the scalar fields leniently: ids and counts may come
// as numbers or numeric strings, flags as booleans, strings or 1/0, and a
// value of the wrong shape becomes absent. Only numbers must be well formed.
func (t *Ticket) UnmarshalJSON(data []byte) error {
	type plain Ticket
	var aux struct {
		plain
		ID           json.RawMessage `json:"id"`
		CustomerID   json.RawMessage `json:"customer_id"`
		DrawID       json.RawMessage `json:"draw_id"`
		IsWinner     json.RawMessage `json:"is_winner"`
		MatchedCount json.RawMessage `json:"matched_count"`
		FilledBy     json.RawMessage `json:"filled_by"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*t = Ticket(aux.plain)
	t.ID = looseInt64(aux.ID)
	t.CustomerID = looseInt64(aux.CustomerID)
	t.DrawID = looseInt64(aux.DrawID)
	t.IsWinner = looseBool(aux.IsWinner)
	t.MatchedCount = looseInt(aux.MatchedCount)
	t.FilledBy = looseString(aux.FilledBy)
	return nil
}

// CreateTicketRequest issues a ticket to a customer, optionally pre-filled.
type CreateTicketRequest struct {
	CustomerID int64 `json:"customer_id"`
	DrawID     int64 `json:"draw_id"`
	Numbers    []int `json:"numbers,omitempty"`
}

// FillTicketRequest assigns numbers to the customer's first unfilled ticket
// of a draw. The external system picks the ticket.
type FillTicketRequest struct {
	CustomerID int64  `json:"customer_id"`
	DrawID     int64  `json:"draw_id"`
	Numbers    []int  `json:"numbers"`
	FilledBy   string `json:"filled_by,omitempty"`
}
