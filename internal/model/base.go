package model

import "time"

// BaseModel carries the allocator-assigned 6-digit identifier plus standard
// timestamps. Identifiers are drawn randomly from [100000, 999999] rather
// than counted up, so deleting rows never requires compaction.
type BaseModel struct {
	ID        int       `gorm:"primaryKey;autoIncrement:false" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
