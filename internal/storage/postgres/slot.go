package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	slotDatamodel "github.com/frahmantamala/issue-tracker/internal/core/datamodel/slot"
	"github.com/frahmantamala/issue-tracker/internal/storage"
)

// SlotRepository stores slots as rows of storage_slots, one row per key.
type SlotRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSlotRepository(db *gorm.DB) *SlotRepository {
	return &SlotRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *SlotRepository) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, storage.ErrEmptyKey
	}
	var row slotDatamodel.StorageSlot
	err := r.db.WithContext(ctx).Where("slot = ?", key).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("select slot %s: %w", key, err)
	}
	return row.Payload, true, nil
}

func (r *SlotRepository) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return storage.ErrEmptyKey
	}
	row := slotDatamodel.StorageSlot{Slot: key, Payload: value, UpdatedAt: r.now()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert slot %s: %w", key, err)
	}
	return nil
}

func (r *SlotRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *SlotRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
