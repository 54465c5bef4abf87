package repository

import (
	"time"

	"go-storefront-api/internal/model"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(order *model.Order) error
	FindAll(opts ListOptions) ([]model.Order, error)
	FindByID(id int) (*model.Order, error)
	FindByUser(userID int) ([]model.Order, error)
	Save(order *model.Order) error
	ReplaceItems(order *model.Order, items []model.OrderItem) error
	Delete(id int) error
	FindProcessingWithProduct(productID int) ([]model.Order, error)
	GetSalesByDay(startDate, endDate time.Time) ([]SalesByDay, error)
	GetDashboardStats(lowStockThreshold int) (*DashboardStats, error)
}

// SalesByDay feeds the admin dashboard chart.
type SalesByDay struct {
	Date    string  `json:"date"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
}

// DashboardStats is the admin overview widget payload.
type DashboardStats struct {
	TotalProducts    int64   `json:"total_products"`
	TotalOrders      int64   `json:"total_orders"`
	LowStockVariants int64   `json:"low_stock_variants"`
	TotalRevenue     float64 `json:"total_revenue"`
}

var orderFilterColumns = map[string]string{
	"userId":        "user_id",
	"orderStatus":   "order_status",
	"paymentStatus": "payment_status",
	"promoCode":     "promo_code",
}

var orderSortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"total":     "total",
	"id":        "id",
}

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) OrderRepository {
	return &orderRepo{db}
}

func (r *orderRepo) Create(order *model.Order) error {
	return r.db.Create(order).Error
}

func (r *orderRepo) FindAll(opts ListOptions) ([]model.Order, error) {
	var orders []model.Order
	q := applyListOptions(r.db.Preload("Items"), opts, orderFilterColumns, orderSortColumns)
	err := q.Find(&orders).Error
	return orders, err
}

func (r *orderRepo) FindByID(id int) (*model.Order, error) {
	var order model.Order
	err := r.db.Preload("Items").First(&order, "id = ?", id).Error
	return &order, err
}

func (r *orderRepo) FindByUser(userID int) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.Preload("Items").Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *orderRepo) Save(order *model.Order) error {
	return r.db.Session(&gorm.Session{FullSaveAssociations: true}).Save(order).Error
}

// ReplaceItems swaps the order's line items wholesale and saves the order.
// Item rows are deleted and re-inserted so removed lines do not linger.
func (r *orderRepo) ReplaceItems(order *model.Order, items []model.OrderItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", order.ID).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].ID = 0
			items[i].OrderID = order.ID
		}
		order.Items = items
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(order).Error
	})
}

func (r *orderRepo) Delete(id int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Order{}, "id = ?", id).Error
	})
}

// FindProcessingWithProduct returns processing orders that carry at least
// one line item for the product. Used by the product-deletion side effect.
func (r *orderRepo) FindProcessingWithProduct(productID int) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.Preload("Items").
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Where("order_items.product_id = ? AND orders.order_status = ?", productID, model.OrderProcessing).
		Distinct("orders.*").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepo) GetSalesByDay(startDate, endDate time.Time) ([]SalesByDay, error) {
	var results []SalesByDay

	rows, err := r.db.Model(&model.Order{}).
		Select("DATE(created_at) as date, COUNT(*) as orders, COALESCE(SUM(total), 0) as revenue").
		Where("created_at BETWEEN ? AND ? AND order_status <> ?", startDate, endDate, model.OrderCancelled).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data SalesByDay
		if err := rows.Scan(&data.Date, &data.Orders, &data.Revenue); err != nil {
			return nil, err
		}
		results = append(results, data)
	}
	return results, nil
}

func (r *orderRepo) GetDashboardStats(lowStockThreshold int) (*DashboardStats, error) {
	var stats DashboardStats

	r.db.Model(&model.Product{}).Count(&stats.TotalProducts)
	r.db.Model(&model.Order{}).Count(&stats.TotalOrders)
	r.db.Model(&model.Variant{}).Where("stock < ?", lowStockThreshold).Count(&stats.LowStockVariants)
	r.db.Model(&model.Order{}).Where("order_status <> ?", model.OrderCancelled).
		Select("COALESCE(SUM(total), 0)").Scan(&stats.TotalRevenue)

	return &stats, nil
}
