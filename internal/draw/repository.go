package draw

import (
	"context"
	"errors"

	"github.com/SlpAus/lotto-mirror-backend/internal/lotteryapi"
	"github.com/SlpAus/lotto-mirror-backend/internal/platform/database"
	"gorm.io/gorm"
)

var (
	ErrDrawNotFound  = errors.New("draw not found")
	ErrNoCurrentDraw = errors.New("no current draw")
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Current returns the most recently scheduled draw that is pending or
// active, or (nil, nil) when there is none. Unscheduled draws sort last.
func (r *Repository) Current(ctx context.Context) (*Draw, error) {
	var d Draw
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{lotteryapi.DrawStatusPending, lotteryapi.DrawStatusActive}).
		Order("scheduled_at IS NULL").
		Order("scheduled_at DESC").
		Order("id DESC").
		First(&d).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// LatestWithResults returns the most recent completed draw that has winning
// numbers, or (nil, nil).
func (r *Repository) LatestWithResults(ctx context.Context) (*Draw, error) {
	var d Draw
	err := r.db.WithContext(ctx).
		Where("status = ? AND winning_numbers IS NOT NULL", lotteryapi.DrawStatusCompleted).
		Order("executed_at IS NULL").
		Order("executed_at DESC").
		Order("scheduled_at DESC").
		Order("id DESC").
		First(&d).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *Repository) FindByExternalID(ctx context.Context, externalID int64) (*Draw, error) {
	var d Draw
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&d).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrDrawNotFound
		}
		return nil, err
	}
	return &d, nil
}

// MissingExternalIDs returns the ids from the input that have no local row.
func (r *Repository) MissingExternalIDs(ctx context.Context, externalIDs []int64) ([]int64, error) {
	if len(externalIDs) == 0 {
		return nil, nil
	}
	var present []int64
	if err := r.db.WithContext(ctx).Model(&Draw{}).
		Where("external_id IN ?", externalIDs).
		Pluck("external_id", &present).Error; err != nil {
		return nil, err
	}
	have := make(map[int64]struct{}, len(present))
	for _, id := range present {
		have[id] = struct{}{}
	}
	var missing []int64
	for _, id := range externalIDs {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
			have[id] = struct{}{}
		}
	}
	return missing, nil
}

// CompletedExternalIDs returns which of the given draws are completed locally.
func (r *Repository) CompletedExternalIDs(ctx context.Context, externalIDs []int64) (map[int64]bool, error) {
	out := make(map[int64]bool)
	if len(externalIDs) == 0 {
		return out, nil
	}
	var ids []int64
	if err := r.db.WithContext(ctx).Model(&Draw{}).
		Where("external_id IN ? AND status = ?", externalIDs, lotteryapi.DrawStatusCompleted).
		Pluck("external_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
