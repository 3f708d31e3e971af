package slot

import "time"

type StorageSlot struct {
	Slot      string    `gorm:"column:slot;primaryKey;size:128"`
	Payload   string    `gorm:"column:payload;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (StorageSlot) TableName() string {
	return "storage_slots"
}
