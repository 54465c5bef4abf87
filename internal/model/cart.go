package model

// CartItem is a server-persisted cart line. Price and display fields are
// cached copies for rendering only; checkout always reprices against the
// live catalog.
type CartItem struct {
	ID        uint    `gorm:"primaryKey" json:"-"`
	UserID    int     `gorm:"not null;uniqueIndex:idx_cart_user_product_sku" json:"-"`
	ProductID int     `gorm:"not null;uniqueIndex:idx_cart_user_product_sku" json:"productId" validate:"required"`
	SKU       string  `gorm:"type:varchar(64);not null;uniqueIndex:idx_cart_user_product_sku" json:"sku" validate:"required"`
	Quantity  int     `gorm:"not null" json:"quantity" validate:"gt=0"`
	Name      string  `gorm:"type:varchar(255)" json:"name"`
	Image     string  `gorm:"type:varchar(500)" json:"image"`
	Color     string  `gorm:"type:varchar(50)" json:"color"`
	Size      string  `gorm:"type:varchar(50)" json:"size"`
	Price     float64 `json:"price"`
}
