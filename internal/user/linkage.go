package user

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/SlpAus/lotto-mirror-backend/internal/lotteryapi"
	"github.com/google/logger"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// CustomerSource is the part of the external client the resolver needs.
type CustomerSource interface {
	GetCustomerByPhone(ctx context.Context, phone string) (*lotteryapi.Customer, error)
}

// Linker resolves local users against the external customer system.
type Linker struct {
	repo *Repository
	api  CustomerSource
}

func NewLinker(repo *Repository, api CustomerSource) *Linker {
	return &Linker{repo: repo, api: api}
}

// Resolve fetches the customer by the user's phone and projects it onto u,
// both in memory and in the store. On any failure u and its row are left
// untouched. Calling it again with fresh external data simply overwrites
// the projection.
func (l *Linker) Resolve(ctx context.Context, u *User) error {
	customer, err := l.api.GetCustomerByPhone(ctx, u.Phone)
	if err != nil {
		return fmt.Errorf("resolve customer for chat %d: %w", u.ChatID, err)
	}
	if customer.ID == 0 {
		return fmt.Errorf("resolve customer for chat %d: %w", u.ChatID, lotteryapi.ErrNotFound)
	}
	if u.ExternalID != nil && *u.ExternalID != customer.ID {
		return fmt.Errorf("chat %d is linked to %d, phone now resolves to %d: %w",
			u.ChatID, *u.ExternalID, customer.ID, ErrCustomerMismatch)
	}

	projected := *u
	project(&projected, customer)
	if err := l.repo.saveProjection(ctx, &projected); err != nil {
		return err
	}
	*u = projected
	return nil
}

// TryResolve is Resolve for callers that only need to know whether it worked.
// Failures are logged here.
func (l *Linker) TryResolve(ctx context.Context, u *User) bool {
	if err := l.Resolve(ctx, u); err != nil {
		if errors.Is(err, lotteryapi.ErrNotFound) {
			logger.Warningf("linkage: no external customer for chat %d", u.ChatID)
		} else {
			logger.Errorf("linkage: %v", err)
		}
		return false
	}
	return true
}

// ResolveAll re-resolves every known user and returns the counts.
func (l *Linker) ResolveAll(ctx context.Context) (synced, failed int, err error) {
	users, err := l.repo.List(ctx)
	if err != nil {
		return 0, 0, err
	}
	for i := range users {
		if ctx.Err() != nil {
			return synced, failed, ctx.Err()
		}
		if l.TryResolve(ctx, &users[i]) {
			synced++
		} else {
			failed++
		}
	}
	logger.Infof("linkage: bulk sync finished, %d synced, %d failed, %d total", synced, failed, len(users))
	return synced, failed, nil
}

func project(u *User, c *lotteryapi.Customer) {
	id := c.ID
	u.ExternalID = &id
	u.Name = c.Name
	u.Email = c.Email
	u.Balance = decimal.NullDecimal{Decimal: c.Balance.Decimal, Valid: c.Balance.Valid}
	u.AvailableTickets = 0
	if c.AvailableTickets != nil && *c.AvailableTickets > 0 {
		u.AvailableTickets = *c.AvailableTickets
	}
	u.Birthday = c.Birthday.Ptr()
	u.Sex = c.Sex
	u.AdditionalFields = nil
	if raw := bytes.TrimSpace(c.AdditionalFields); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		u.AdditionalFields = datatypes.JSON(raw)
	}
}
