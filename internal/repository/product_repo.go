package repository

import (
	"go-storefront-api/internal/model"

	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(product *model.Product) error
	FindAll(opts ListOptions) ([]model.Product, error)
	FindByID(id int) (*model.Product, error)
	FindBySlug(slug string) (*model.Product, error)
	Update(product *model.Product) error
	Delete(id int) error
	AdjustVariantStock(productID int, sku string, delta int) error
	SetProductDiscount(productID int, discount *model.Discount) error
	SetVariantDiscount(productID int, skus []string, discount *model.Discount) error
	CountLowStockVariants(threshold int) (int64, error)
	Count() (int64, error)
}

var productFilterColumns = map[string]string{
	"categoryId": "category_id",
	"isActive":   "is_active",
	"name":       "name",
	"slug":       "slug",
}

var productSortColumns = map[string]string{
	"createdAt": "created_at",
	"basePrice": "base_price",
	"name":      "name",
	"id":        "id",
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(product *model.Product) error {
	return r.db.Create(product).Error
}

func (r *productRepo) FindAll(opts ListOptions) ([]model.Product, error) {
	var products []model.Product
	q := applyListOptions(r.db.Preload("Variants").Preload("Category"), opts, productFilterColumns, productSortColumns)
	err := q.Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(id int) (*model.Product, error) {
	var product model.Product
	err := r.db.Preload("Variants").Preload("Category").First(&product, "id = ?", id).Error
	return &product, err
}

func (r *productRepo) FindBySlug(slug string) (*model.Product, error) {
	var product model.Product
	err := r.db.Preload("Variants").Preload("Category").First(&product, "slug = ?", slug).Error
	return &product, err
}

func (r *productRepo) Update(product *model.Product) error {
	return r.db.Session(&gorm.Session{FullSaveAssociations: true}).Save(product).Error
}

func (r *productRepo) Delete(id int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&model.Variant{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Product{}, "id = ?", id).Error
	})
}

// AdjustVariantStock applies delta to the named variant's stock in one
// conditional write. Decrements only succeed when enough stock remains
// (`stock >= qty` is part of the WHERE clause, so two concurrent orders
// cannot both win the same units). Increments are unconditional: a rollback
// may legitimately push stock past its original level.
func (r *productRepo) AdjustVariantStock(productID int, sku string, delta int) error {
	q := r.db.Model(&model.Variant{}).Where("product_id = ? AND sku = ?", productID, sku)
	if delta < 0 {
		q = q.Where("stock >= ?", -delta)
	}

	res := q.Update("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Variant missing, or not enough stock for a decrement.
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepo) SetProductDiscount(productID int, discount *model.Discount) error {
	res := r.db.Model(&model.Product{}).Where("id = ?", productID).
		Update("discount", discount)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetVariantDiscount applies a discount to the named SKUs of a product in
// a single filtered update.
func (r *productRepo) SetVariantDiscount(productID int, skus []string, discount *model.Discount) error {
	res := r.db.Model(&model.Variant{}).
		Where("product_id = ? AND sku IN ?", productID, skus).
		Update("discount", discount)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepo) CountLowStockVariants(threshold int) (int64, error) {
	var count int64
	err := r.db.Model(&model.Variant{}).Where("stock < ?", threshold).Count(&count).Error
	return count, err
}

func (r *productRepo) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Product{}).Count(&count).Error
	return count, err
}
