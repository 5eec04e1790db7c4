package draw

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/SlpAus/lotto-mirror-backend/internal/lottery"
	"github.com/SlpAus/lotto-mirror-backend/internal/lotteryapi"
	"github.com/SlpAus/lotto-mirror-backend/internal/platform/database"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const upsertAttempts = 3

var errMissingExternalID = errors.New("draw record has no id")

// mutableColumns are overwritten on every reconciliation.
var mutableColumns = []string{
	"name", "status", "scheduled_at", "executed_at", "prize_pool",
	"type", "periodicity", "numbers_to_pick", "numbers_total",
	"prize_grid", "winning_numbers", "statistics", "updated_at",
}

// Reconciler merges external draw records into the local mirror.
type Reconciler struct {
	db   *gorm.DB
	repo *Repository
}

func NewReconciler(db *gorm.DB) *Reconciler {
	return &Reconciler{db: db, repo: NewRepository(db)}
}

// Reconcile upserts rec keyed by its external id and returns the stored row.
// Applying the same record any number of times yields one row.
func (r *Reconciler) Reconcile(ctx context.Context, rec lotteryapi.Draw) (*Draw, error) {
	if rec.ID == 0 {
		return nil, errMissingExternalID
	}
	row := fromRecord(rec)

	err := database.WithRetry(upsertAttempts, func() error {
		return r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns(mutableColumns),
		}).Create(&row).Error
	})
	if err != nil {
		return nil, fmt.Errorf("cannot upsert draw %d: %w", rec.ID, err)
	}
	return r.repo.FindByExternalID(ctx, rec.ID)
}

func fromRecord(rec lotteryapi.Draw) Draw {
	d := Draw{
		ExternalID:    rec.ID,
		Name:          rec.Name,
		Status:        rec.Status,
		ScheduledAt:   rec.ScheduledAt.Ptr(),
		ExecutedAt:    rec.ExecutedAt.Ptr(),
		PrizePool:     decimal.NullDecimal{Decimal: rec.PrizePool.Decimal, Valid: rec.PrizePool.Valid},
		Type:          rec.Type,
		Periodicity:   rec.Periodicity,
		NumbersToPick: rec.NumbersToPick,
		NumbersTotal:  rec.NumbersTotal,
		PrizeGrid:     opaque(rec.PrizeGrid),
		Statistics:    opaque(rec.Statistics),
	}
	if len(rec.WinningNumbers) > 0 {
		d.WinningNumbers = lottery.Numbers(rec.WinningNumbers).Sorted()
	}
	return d
}

func opaque(raw []byte) datatypes.JSON {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	return datatypes.JSON(raw)
}
