package fill

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/SlpAus/lotto-mirror-backend/internal/draw"
	"github.com/SlpAus/lotto-mirror-backend/internal/lottery"
	"github.com/SlpAus/lotto-mirror-backend/internal/lotteryapi"
	"github.com/SlpAus/lotto-mirror-backend/internal/ticket"
	"github.com/SlpAus/lotto-mirror-backend/internal/user"
	"github.com/google/logger"
	"github.com/google/uuid"
)

// ErrNoCurrentDraw is returned when there is no draw to fill a ticket for.
var ErrNoCurrentDraw = draw.ErrNoCurrentDraw

// Filler submits a number selection to the external system.
type Filler interface {
	FillTicket(ctx context.Context, req lotteryapi.FillTicketRequest) (*lotteryapi.Ticket, error)
}

// CurrentDraws answers which draw is open for filling.
type CurrentDraws interface {
	Current(ctx context.Context) (*draw.Draw, error)
}

// TicketReconciler merges returned ticket records into the mirror.
type TicketReconciler interface {
	Reconcile(ctx context.Context, userID uint, records []lotteryapi.Ticket) ([]ticket.Ticket, error)
}

// Result reports how a submission ended.
type Result struct {
	State            State           `json:"state"`
	Numbers          lottery.Numbers `json:"numbers"`
	Ticket           *ticket.Ticket  `json:"ticket,omitempty"`
	AvailableTickets int             `json:"availableTickets"`
	// Reason explains a rejection.
	Reason string `json:"reason,omitempty"`
}

// Workflow drives fill sessions:
// choosing_method → (auto | manual_entry) → submitted → {settled, rejected}.
type Workflow struct {
	users   *user.Repository
	draws   CurrentDraws
	api     Filler
	tickets TicketReconciler
	store   SessionStore
	rules   lottery.Rules
	rng     *rand.Rand
	now     func() time.Time
}

func NewWorkflow(users *user.Repository, draws CurrentDraws, api Filler, tickets TicketReconciler, store SessionStore, rules lottery.Rules) *Workflow {
	return &Workflow{
		users:   users,
		draws:   draws,
		api:     api,
		tickets: tickets,
		store:   store,
		rules:   rules,
		now:     time.Now,
	}
}

// eligibility re-reads the user and the current draw. Nothing cached in a
// session is trusted for these checks.
func (w *Workflow) eligibility(ctx context.Context, chatID int64) (*user.User, *draw.Draw, error) {
	u, err := w.users.FindByChatID(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}
	if !u.IsLinked() {
		return nil, nil, user.ErrNotLinked
	}
	if u.AvailableTickets <= 0 {
		return nil, nil, user.ErrNoTicketsAvailable
	}
	d, err := w.draws.Current(ctx)
	if err != nil {
		return nil, nil, err
	}
	if d == nil {
		return nil, nil, ErrNoCurrentDraw
	}
	return u, d, nil
}

// Begin opens a new session for the chat, replacing any previous one.
func (w *Workflow) Begin(ctx context.Context, chatID int64) (*Session, error) {
	u, _, err := w.eligibility(ctx, chatID)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("cannot generate session id: %w", err)
	}
	now := w.now()
	sess := &Session{
		ID:        id.String(),
		ChatID:    chatID,
		UserID:    u.ID,
		State:     StateChoosingMethod,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := w.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (w *Workflow) Get(ctx context.Context, chatID int64) (*Session, error) {
	return w.store.Get(ctx, chatID)
}

// Cancel drops the session unless it is mid-submission.
func (w *Workflow) Cancel(ctx context.Context, chatID int64, sessionID string) error {
	_, err := w.store.Update(ctx, chatID, sessionID, func(s *Session) error {
		if s.State == StateSubmitted {
			return ErrInvalidTransition
		}
		return nil
	})
	if err != nil {
		return err
	}
	return w.store.Delete(ctx, chatID)
}

// ChooseManual switches the session to manual entry.
func (w *Workflow) ChooseManual(ctx context.Context, chatID int64, sessionID string) (*Session, error) {
	return w.store.Update(ctx, chatID, sessionID, func(s *Session) error {
		if s.State != StateChoosingMethod && s.State != StateManualEntry {
			return ErrInvalidTransition
		}
		s.State = StateManualEntry
		s.Method = MethodManual
		s.UpdatedAt = w.now()
		return nil
	})
}

// ChooseAuto generates a selection and submits it.
func (w *Workflow) ChooseAuto(ctx context.Context, chatID int64, sessionID string) (*Result, error) {
	_, d, err := w.eligibility(ctx, chatID)
	if err != nil {
		return nil, err
	}
	numbers := d.Rules(w.rules).Generate(w.rng)
	return w.submit(ctx, chatID, sessionID, MethodAuto, StateChoosingMethod, numbers)
}

// SubmitManual parses and validates free-form input and submits it. On a
// validation failure the session stays in manual entry and the returned
// error is a *lottery.ValidationError.
func (w *Workflow) SubmitManual(ctx context.Context, chatID int64, sessionID, text string) (*Result, error) {
	sess, err := w.store.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if sess.ID != sessionID {
		return nil, ErrSessionMismatch
	}
	if sess.State != StateManualEntry {
		return nil, ErrInvalidTransition
	}

	_, d, err := w.eligibility(ctx, chatID)
	if err != nil {
		return nil, err
	}
	numbers, err := d.Rules(w.rules).ParseAndValidate(text)
	if err != nil {
		return nil, err
	}
	return w.submit(ctx, chatID, sessionID, MethodManual, StateManualEntry, numbers)
}

// submit moves the session from `from` to submitted, sends the selection and
// settles or rejects it. Transient failures put the session back in `from`.
func (w *Workflow) submit(ctx context.Context, chatID int64, sessionID string, method Method, from State, numbers lottery.Numbers) (*Result, error) {
	if _, err := w.store.Update(ctx, chatID, sessionID, func(s *Session) error {
		if s.State != from {
			return ErrInvalidTransition
		}
		s.State = StateSubmitted
		s.Method = method
		s.Numbers = numbers
		s.UpdatedAt = w.now()
		return nil
	}); err != nil {
		return nil, err
	}

	// the counter and the draw may have changed since the session started
	u, d, err := w.eligibility(ctx, chatID)
	if err != nil {
		w.abandon(ctx, chatID)
		return nil, err
	}

	filled, err := w.api.FillTicket(ctx, lotteryapi.FillTicketRequest{
		CustomerID: *u.ExternalID,
		DrawID:     d.ExternalID,
		Numbers:    numbers,
		FilledBy:   string(method),
	})
	if err != nil {
		if lotteryapi.IsRejection(err) {
			logger.Warningf("fill: chat %d rejected by external system: %v", chatID, err)
			w.abandon(ctx, chatID)
			return &Result{
				State:            StateRejected,
				Numbers:          numbers,
				AvailableTickets: u.AvailableTickets,
				Reason:           rejectionReason(err),
			}, nil
		}
		w.restore(ctx, chatID, sessionID, from)
		return nil, fmt.Errorf("fill ticket for chat %d: %w", chatID, err)
	}

	return w.settle(ctx, u, d, filled, numbers), nil
}

func (w *Workflow) settle(ctx context.Context, u *user.User, d *draw.Draw, filled *lotteryapi.Ticket, numbers lottery.Numbers) *Result {
	// the external fill has happened; local bookkeeping must not be cut short
	ctx = context.WithoutCancel(ctx)
	res := &Result{State: StateSettled, Numbers: numbers, AvailableTickets: u.AvailableTickets}

	ok, err := w.users.DecrementAvailableTickets(ctx, u.ID)
	switch {
	case err != nil:
		logger.Errorf("fill: chat %d filled but counter not updated: %v", u.ChatID, err)
	case !ok:
		logger.Warningf("fill: chat %d filled with counter already at zero", u.ChatID)
		res.AvailableTickets = 0
	default:
		res.AvailableTickets = u.AvailableTickets - 1
	}

	record := *filled
	if record.DrawID == nil {
		record.DrawID = &d.ExternalID
	}
	if record.CustomerID == nil {
		record.CustomerID = u.ExternalID
	}
	if len(record.Numbers) == 0 {
		record.Numbers = slices.Clone(numbers)
	}
	rows, err := w.tickets.Reconcile(ctx, u.ID, []lotteryapi.Ticket{record})
	switch {
	case err != nil:
		logger.Errorf("fill: chat %d filled but mirror not updated: %v", u.ChatID, err)
	case len(rows) == 1:
		res.Ticket = &rows[0]
	}

	if err := w.store.Delete(ctx, u.ChatID); err != nil {
		logger.Warningf("fill: cannot drop settled session of chat %d: %v", u.ChatID, err)
	}
	logger.Infof("fill: chat %d settled %s", u.ChatID, numbers)
	return res
}

func (w *Workflow) abandon(ctx context.Context, chatID int64) {
	if err := w.store.Delete(context.WithoutCancel(ctx), chatID); err != nil {
		logger.Warningf("fill: cannot drop session of chat %d: %v", chatID, err)
	}
}

func (w *Workflow) restore(ctx context.Context, chatID int64, sessionID string, state State) {
	_, err := w.store.Update(context.WithoutCancel(ctx), chatID, sessionID, func(s *Session) error {
		s.State = state
		s.UpdatedAt = w.now()
		return nil
	})
	if err != nil && !errors.Is(err, ErrNoSession) {
		logger.Warningf("fill: cannot restore session of chat %d: %v", chatID, err)
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, lotteryapi.ErrNoUnfilledTicket):
		return "no_unfilled_ticket"
	case errors.Is(err, lotteryapi.ErrForbidden):
		return "forbidden"
	default:
		return "conflict"
	}
}
