package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/SlpAus/lotto-mirror-backend/internal/platform/database"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidPhone       = errors.New("phone must contain 10 to 15 digits")
	ErrPhoneTaken         = errors.New("phone is registered to another chat")
	ErrNotLinked          = errors.New("user is not linked to an external customer")
	ErrCustomerMismatch   = errors.New("external customer id does not match the linked one")
	ErrNoTicketsAvailable = errors.New("no tickets available")
)

// Repository 封装了 users 表的所有读写。
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) first(ctx context.Context, query string, arg any) (*User, error) {
	var u User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&u).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *Repository) FindByChatID(ctx context.Context, chatID int64) (*User, error) {
	return r.first(ctx, "chat_id = ?", chatID)
}

func (r *Repository) FindByPhone(ctx context.Context, phone string) (*User, error) {
	return r.first(ctx, "phone = ?", phone)
}

// List returns every user ordered by id.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	var users []User
	if err := r.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *Repository) create(ctx context.Context, u *User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

// saveProjection overwrites the externally sourced columns of one user.
// The map form is used so that absent values are written as NULL.
func (r *Repository) saveProjection(ctx context.Context, u *User) error {
	res := r.db.WithContext(ctx).Model(&User{}).Where("id = ?", u.ID).Updates(map[string]any{
		"external_id":       u.ExternalID,
		"name":              u.Name,
		"email":             u.Email,
		"balance":           u.Balance,
		"available_tickets": u.AvailableTickets,
		"birthday":          u.Birthday,
		"sex":               u.Sex,
		"additional_fields": u.AdditionalFields,
	})
	if res.Error != nil {
		return fmt.Errorf("cannot save projection of user %d: %w", u.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DecrementAvailableTickets consumes one ticket from the counter in a single
// conditional UPDATE. It reports false, without error, when the counter was
// already zero.
func (r *Repository) DecrementAvailableTickets(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&User{}).
		Where("id = ? AND available_tickets > 0", id).
		UpdateColumn("available_tickets", gorm.Expr("available_tickets - 1"))
	if res.Error != nil {
		return false, fmt.Errorf("cannot decrement tickets of user %d: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}
