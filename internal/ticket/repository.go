package ticket

import (
	"context"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListForUser returns a user's tickets, newest draw first. A nil drawID
// returns tickets of every draw.
func (r *Repository) ListForUser(ctx context.Context, userID uint, drawID *int64) ([]Ticket, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if drawID != nil {
		q = q.Where("draw_id = ?", *drawID)
	}
	var tickets []Ticket
	if err := q.Order("draw_id DESC").Order("id").Find(&tickets).Error; err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *Repository) FindByExternalID(ctx context.Context, externalID int64) (*Ticket, error) {
	var t Ticket
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// Count returns the number of mirrored tickets.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Ticket{}).Count(&n).Error
	return n, err
}
