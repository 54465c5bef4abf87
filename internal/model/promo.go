package model

import "time"

// PromoCode is an order-level coupon. UsedCount is incremented when an
// order carrying the code is placed and is never decremented, not even if
// that order is later cancelled.
type PromoCode struct {
	BaseModel
	Code           string       `gorm:"type:varchar(50);uniqueIndex;not null" json:"code" validate:"required"`
	Type           DiscountType `gorm:"type:varchar(20);not null" json:"type" validate:"required,oneof=percentage fixed"`
	Value          float64      `json:"value" validate:"gte=0"`
	IsActive       bool         `gorm:"default:true" json:"isActive"`
	MinOrderAmount *float64     `json:"minOrderAmount,omitempty"`
	UsageLimit     *int         `json:"usageLimit,omitempty"`
	UsedCount      int          `gorm:"default:0" json:"usedCount"`
	StartDate      *time.Time   `json:"startDate,omitempty"`
	EndDate        *time.Time   `json:"endDate,omitempty"`
}
