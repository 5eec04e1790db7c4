package ticket

import (
	"context"
	"errors"
	"fmt"

	"github.com/SlpAus/lotto-mirror-backend/internal/draw"
	"github.com/SlpAus/lotto-mirror-backend/internal/lottery"
	"github.com/SlpAus/lotto-mirror-backend/internal/lotteryapi"
	"github.com/SlpAus/lotto-mirror-backend/internal/user"
	"github.com/google/logger"
	"gorm.io/gorm"
)

// Source is the part of the external client the ticket engine needs.
type Source interface {
	ListCustomerTickets(ctx context.Context, customerID int64, drawID *int64) ([]lotteryapi.Ticket, error)
	CreateTicket(ctx context.Context, req lotteryapi.CreateTicketRequest) (*lotteryapi.Ticket, error)
}

// Resolver links a user to its external customer.
type Resolver interface {
	Resolve(ctx context.Context, u *user.User) error
}

// DrawMirror makes sure referenced draws exist locally.
type DrawMirror interface {
	EnsureMirrored(ctx context.Context, externalIDs []int64)
}

// Syncer is the on-demand ticket sync used by interactive flows.
type Syncer struct {
	api        Source
	linker     Resolver
	draws      DrawMirror
	drawRepo   *draw.Repository
	reconciler *Reconciler
	repo       *Repository
}

func NewSyncer(db *gorm.DB, api Source, linker Resolver, draws DrawMirror) *Syncer {
	return &Syncer{
		api:        api,
		linker:     linker,
		draws:      draws,
		drawRepo:   draw.NewRepository(db),
		reconciler: NewReconciler(db),
		repo:       NewRepository(db),
	}
}

// SyncForUser pulls the user's tickets (optionally of one draw) and merges
// them. An unlinked user is resolved first; when no customer exists the
// error wraps user.ErrNotLinked, other failures pass through. Nothing is
// written in either case.
func (s *Syncer) SyncForUser(ctx context.Context, u *user.User, drawID *int64) ([]Ticket, error) {
	if !u.IsLinked() {
		if err := s.linker.Resolve(ctx, u); err != nil {
			if errors.Is(err, lotteryapi.ErrNotFound) {
				logger.Warningf("ticket: chat %d has no external customer: %v", u.ChatID, err)
				return nil, fmt.Errorf("%w: %w", user.ErrNotLinked, err)
			}
			logger.Errorf("ticket: cannot link chat %d: %v", u.ChatID, err)
			return nil, err
		}
	}

	records, err := s.api.ListCustomerTickets(ctx, *u.ExternalID, drawID)
	if err != nil {
		logger.Errorf("ticket: cannot list tickets of customer %d: %v", *u.ExternalID, err)
		return nil, fmt.Errorf("list tickets of customer %d: %w", *u.ExternalID, err)
	}

	seen := make(map[int64]struct{})
	var drawIDs []int64
	for _, rec := range records {
		if rec.DrawID == nil {
			continue
		}
		if _, ok := seen[*rec.DrawID]; !ok {
			seen[*rec.DrawID] = struct{}{}
			drawIDs = append(drawIDs, *rec.DrawID)
		}
	}
	s.draws.EnsureMirrored(ctx, drawIDs)

	tickets, err := s.reconciler.Reconcile(ctx, u.ID, records)
	if err != nil {
		return nil, err
	}
	logger.Infof("ticket: synced %d tickets for chat %d", len(tickets), u.ChatID)
	return tickets, nil
}

// Result pairs a filled ticket with its outcome.
type Result struct {
	Ticket  Ticket          `json:"ticket"`
	Outcome lottery.Outcome `json:"outcome"`
}

// Results checks the user's filled tickets against a draw's winning numbers.
// A nil drawID selects the latest draw with published results. The draw is
// nil when there is nothing to check against.
func (s *Syncer) Results(ctx context.Context, u *user.User, drawID *int64) (*draw.Draw, []Result, error) {
	var (
		d   *draw.Draw
		err error
	)
	if drawID != nil {
		d, err = s.drawRepo.FindByExternalID(ctx, *drawID)
	} else {
		d, err = s.drawRepo.LatestWithResults(ctx)
	}
	if err != nil || d == nil || !d.HasResults() {
		return d, nil, err
	}

	tickets, err := s.repo.ListForUser(ctx, u.ID, &d.ExternalID)
	if err != nil {
		return nil, nil, err
	}
	results := make([]Result, 0, len(tickets))
	for _, t := range tickets {
		if len(t.Numbers) == 0 {
			continue
		}
		results = append(results, Result{Ticket: t, Outcome: lottery.Calculate(t.Numbers, d.WinningNumbers)})
	}
	return d, results, nil
}

// Issuer hands out new tickets through the external system.
type Issuer struct {
	api        Source
	linker     Resolver
	draws      *draw.Repository
	reconciler *Reconciler
	rules      lottery.Rules
}

func NewIssuer(db *gorm.DB, api Source, linker Resolver, rules lottery.Rules) *Issuer {
	return &Issuer{
		api:        api,
		linker:     linker,
		draws:      draw.NewRepository(db),
		reconciler: NewReconciler(db),
		rules:      rules,
	}
}

// Issue creates a ticket in the current draw, optionally pre-filled. The
// returned ticket is nil when the external system has not materialised it
// yet. The user's projection is refreshed afterwards so the local counter
// picks up the new ticket.
func (i *Issuer) Issue(ctx context.Context, u *user.User, numbers lottery.Numbers) (*Ticket, error) {
	if !u.IsLinked() {
		return nil, user.ErrNotLinked
	}
	current, err := i.draws.Current(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, draw.ErrNoCurrentDraw
	}
	if numbers != nil {
		if err := current.Rules(i.rules).Validate(numbers); err != nil {
			return nil, err
		}
		numbers = numbers.Sorted()
	}

	created, err := i.api.CreateTicket(ctx, lotteryapi.CreateTicketRequest{
		CustomerID: *u.ExternalID,
		DrawID:     current.ExternalID,
		Numbers:    numbers,
	})
	if err != nil {
		return nil, fmt.Errorf("create ticket for customer %d: %w", *u.ExternalID, err)
	}
	if created.DrawID == nil {
		created.DrawID = &current.ExternalID
	}
	if created.CustomerID == nil {
		created.CustomerID = u.ExternalID
	}

	if err := i.linker.Resolve(ctx, u); err != nil {
		logger.Warningf("ticket: issued to chat %d but cannot refresh projection: %v", u.ChatID, err)
	}

	if created.ID == nil || *created.ID == 0 {
		logger.Infof("ticket: issued to chat %d, not materialised yet", u.ChatID)
		return nil, nil
	}
	rows, err := i.reconciler.Reconcile(ctx, u.ID, []lotteryapi.Ticket{*created})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	logger.Infof("ticket: issued ticket %d to chat %d", rows[0].ExternalID, u.ChatID)
	return &rows[0], nil
}
