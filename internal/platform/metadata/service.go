package metadata

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PrimeDB migrates the metadata table.
func PrimeDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&Metadata{}); err != nil {
		return fmt.Errorf("cannot migrate metadata table: %w", err)
	}
	return nil
}

// --- Generic Accessors ---

// GetValue retrieves a value for a given key from the metadata table.
// A missing key yields an empty string.
func GetValue(db *gorm.DB, key string) (string, error) {
	var meta Metadata
	err := db.Where("key = ?", key).First(&meta).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return meta.Value, nil
}

// SetValue creates or updates a value for a given key.
func SetValue(db *gorm.DB, key, value string) error {
	meta := Metadata{
		Key:   key,
		Value: value,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&meta).Error
}

// --- Specific Helpers for Type Conversion ---

// GetLastAnnouncedDrawID returns 0 when no draw has been announced yet.
func GetLastAnnouncedDrawID(db *gorm.DB) (int64, error) {
	valueStr, err := GetValue(db, LastAnnouncedDrawIDKey)
	if err != nil {
		return 0, err
	}
	if valueStr == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse metadata %q: %w", LastAnnouncedDrawIDKey, err)
	}
	return id, nil
}

// SetLastAnnouncedDrawID records the draw whose winning numbers were announced.
func SetLastAnnouncedDrawID(db *gorm.DB, drawID int64) error {
	return SetValue(db, LastAnnouncedDrawIDKey, strconv.FormatInt(drawID, 10))
}

// GetLastDrawSyncAt returns the zero time when no sync has completed yet.
func GetLastDrawSyncAt(db *gorm.DB) (time.Time, error) {
	valueStr, err := GetValue(db, LastDrawSyncAtKey)
	if err != nil || valueStr == "" {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, valueStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse metadata %q: %w", LastDrawSyncAtKey, err)
	}
	return t, nil
}

// SetLastDrawSyncAt records the completion time of a draw sync.
func SetLastDrawSyncAt(db *gorm.DB, at time.Time) error {
	return SetValue(db, LastDrawSyncAtKey, at.UTC().Format(time.RFC3339))
}
