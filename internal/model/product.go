package model

import "time"

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Discount is embedded as a JSON document on products and variants, and
// copied verbatim onto order items at purchase time as a snapshot.
type Discount struct {
	Type      DiscountType `json:"type" validate:"omitempty,oneof=percentage fixed"`
	Value     float64      `json:"value" validate:"gte=0"`
	IsActive  bool         `json:"isActive"`
	StartDate *time.Time   `json:"startDate,omitempty"`
	EndDate   *time.Time   `json:"endDate,omitempty"`
}

type Category struct {
	BaseModel
	Name string `gorm:"type:varchar(100);not null" json:"name" validate:"required"`
	Slug string `gorm:"type:varchar(120);uniqueIndex;not null" json:"slug"`
}

type Product struct {
	BaseModel
	Name        string    `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Slug        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	BasePrice   float64   `gorm:"not null" json:"basePrice" validate:"gte=0"`
	CategoryID  *int      `gorm:"index" json:"categoryId,omitempty"`
	Category    *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Variants    []Variant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants"`
	Discount    *Discount `gorm:"serializer:json" json:"discount,omitempty"`
	IsActive    bool      `gorm:"default:true" json:"isActive"`
}

// Variant is a purchasable SKU under a product. SKU is unique within its
// product. Stock is the only field the order flow mutates.
type Variant struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	ProductID     int       `gorm:"not null;uniqueIndex:idx_variants_product_sku" json:"productId"`
	SKU           string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_variants_product_sku" json:"sku" validate:"required"`
	Color         string    `gorm:"type:varchar(50)" json:"color"`
	Size          string    `gorm:"type:varchar(50)" json:"size"`
	PriceModifier float64   `gorm:"default:0" json:"priceModifier"`
	Price         *float64  `json:"price,omitempty"` // absolute price override; nil means basePrice + modifier
	Stock         int       `gorm:"not null;default:0" json:"stock" validate:"gte=0"`
	Images        []string  `gorm:"serializer:json" json:"images,omitempty"`
	Discount      *Discount `gorm:"serializer:json" json:"discount,omitempty"`
}

// FindVariant returns the variant with the given SKU, or nil.
func (p *Product) FindVariant(sku string) *Variant {
	for i := range p.Variants {
		if p.Variants[i].SKU == sku {
			return &p.Variants[i]
		}
	}
	return nil
}
