package ticket

import (
	"context"
	"fmt"

	"github.com/SlpAus/lotto-mirror-backend/internal/draw"
	"github.com/SlpAus/lotto-mirror-backend/internal/lottery"
	"github.com/SlpAus/lotto-mirror-backend/internal/lotteryapi"
	"github.com/SlpAus/lotto-mirror-backend/internal/platform/database"
	"github.com/google/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const upsertAttempts = 3

// mutableColumns are overwritten on every reconciliation. The owning user
// is fixed by the first merge.
var mutableColumns = []string{
	"customer_id", "draw_id", "numbers", "status", "is_winner",
	"matched_count", "prize_amount", "filled_at", "filled_by", "updated_at",
}

// Reconciler merges external ticket records into the local mirror.
type Reconciler struct {
	db    *gorm.DB
	draws *draw.Repository
}

func NewReconciler(db *gorm.DB) *Reconciler {
	return &Reconciler{db: db, draws: draw.NewRepository(db)}
}

// Reconcile upserts each record keyed by its external id and returns the
// resulting rows in input order. Records without an id or a draw id are
// skipped. There is at most one row per external id no matter how many
// times a record is applied.
func (r *Reconciler) Reconcile(ctx context.Context, userID uint, records []lotteryapi.Ticket) ([]Ticket, error) {
	rows := make([]Ticket, 0, len(records))
	drawIDs := make([]int64, 0, len(records))
	for i, rec := range records {
		if rec.ID == nil || *rec.ID == 0 {
			logger.Warningf("ticket: skipping record %d of user %d without external id", i, userID)
			continue
		}
		if rec.DrawID == nil {
			logger.Warningf("ticket: skipping ticket %d of user %d without draw id", *rec.ID, userID)
			continue
		}
		rows = append(rows, fromRecord(userID, rec))
		drawIDs = append(drawIDs, *rec.DrawID)
	}
	if len(rows) == 0 {
		return rows, nil
	}

	completed, err := r.draws.CompletedExternalIDs(ctx, drawIDs)
	if err != nil {
		return nil, fmt.Errorf("cannot read draw states: %w", err)
	}

	out := make([]Ticket, 0, len(rows))
	err = database.WithRetry(upsertAttempts, func() error {
		out = out[:0]
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, row := range rows {
				row.Status = DeriveStatus(row.Numbers, row.IsWinner, completed[row.DrawID])
				if err := tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "external_id"}},
					DoUpdates: clause.AssignmentColumns(mutableColumns),
				}).Create(&row).Error; err != nil {
					return fmt.Errorf("cannot upsert ticket %d: %w", row.ExternalID, err)
				}
				var stored Ticket
				if err := tx.Where("external_id = ?", row.ExternalID).First(&stored).Error; err != nil {
					return fmt.Errorf("cannot reload ticket %d: %w", row.ExternalID, err)
				}
				out = append(out, stored)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func fromRecord(userID uint, rec lotteryapi.Ticket) Ticket {
	t := Ticket{
		ExternalID:   *rec.ID,
		UserID:       userID,
		CustomerID:   rec.CustomerID,
		DrawID:       *rec.DrawID,
		IsWinner:     rec.IsWinner != nil && *rec.IsWinner,
		MatchedCount: rec.MatchedCount,
		PrizeAmount:  decimal.NullDecimal{Decimal: rec.PrizeAmount.Decimal, Valid: rec.PrizeAmount.Valid},
		FilledAt:     rec.FilledAt.Ptr(),
		FilledBy:     rec.FilledBy,
	}
	if len(rec.Numbers) > 0 {
		t.Numbers = lottery.Numbers(rec.Numbers)
	}
	return t
}
