package model

type OrderStatus string

const (
	OrderProcessing    OrderStatus = "processing"
	OrderConfirmed     OrderStatus = "confirmed"
	OrderShipped       OrderStatus = "shipped"
	OrderDelivered     OrderStatus = "delivered"
	OrderCancelled     OrderStatus = "cancelled"
	OrderReturnRequest OrderStatus = "return-request"
	OrderReturned      OrderStatus = "returned"
)

// ValidOrderStatuses is the enum gate for the admin update path, which is
// not otherwise state-machine enforced.
var ValidOrderStatuses = map[OrderStatus]bool{
	OrderProcessing:    true,
	OrderConfirmed:     true,
	OrderShipped:       true,
	OrderDelivered:     true,
	OrderCancelled:     true,
	OrderReturnRequest: true,
	OrderReturned:      true,
}

type PaymentStatus string

// Payment status is a manually toggled label; there is no gateway.
const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

var ValidPaymentStatuses = map[PaymentStatus]bool{
	PaymentPending:  true,
	PaymentPaid:     true,
	PaymentRefunded: true,
}

type Order struct {
	BaseModel
	UserID          int           `gorm:"index;not null" json:"userId"`
	User            *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Items           []OrderItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	ShippingAddress Address       `gorm:"serializer:json" json:"shippingAddress"`
	PaymentMethod   string        `gorm:"type:varchar(30);default:'cod'" json:"paymentMethod"`
	PaymentStatus   PaymentStatus `gorm:"type:varchar(20);default:'pending'" json:"paymentStatus"`
	OrderStatus     OrderStatus   `gorm:"type:varchar(20);index;default:'processing'" json:"orderStatus"`
	Subtotal        float64       `json:"subtotal"`
	ShippingFee     float64       `json:"shippingFee"`
	Discount        float64       `json:"discount"`
	Total           float64       `json:"total"`
	PromoCode       string        `gorm:"type:varchar(50)" json:"promoCode,omitempty"`
	TrackingNumber  string        `gorm:"type:varchar(100)" json:"trackingNumber,omitempty"`
}

// OrderItem is an immutable snapshot: price, discount, and display fields
// are frozen at purchase time so later catalog edits never alter a placed
// order's totals.
type OrderItem struct {
	ID               uint      `gorm:"primaryKey" json:"-"`
	OrderID          int       `gorm:"index;not null" json:"-"`
	ProductID        int       `json:"productId"`
	SKU              string    `gorm:"type:varchar(64)" json:"sku"`
	Quantity         int       `json:"quantity" validate:"gt=0"`
	PriceAtPurchase  float64   `json:"priceAtPurchase"`
	OriginalPrice    float64   `json:"originalPrice"`
	DiscountSnapshot *Discount `gorm:"serializer:json" json:"discountSnapshot,omitempty"`
	DiscountApplied  bool      `json:"discountApplied"`
	Name             string    `gorm:"type:varchar(255)" json:"name"`
	Image            string    `gorm:"type:varchar(500)" json:"image"`
}

// FindItem returns the line item matching (productID, sku), or nil.
func (o *Order) FindItem(productID int, sku string) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ProductID == productID && o.Items[i].SKU == sku {
			return &o.Items[i]
		}
	}
	return nil
}

// ItemsSubtotal sums priceAtPurchase * quantity over the line items.
func (o *Order) ItemsSubtotal() float64 {
	var sum float64
	for i := range o.Items {
		sum += o.Items[i].PriceAtPurchase * float64(o.Items[i].Quantity)
	}
	return sum
}
