package repository

import (
	"go-storefront-api/internal/model"

	"gorm.io/gorm"
)

type PromoRepository interface {
	Create(promo *model.PromoCode) error
	FindAll() ([]model.PromoCode, error)
	FindByCode(code string) (*model.PromoCode, error)
	Update(promo *model.PromoCode) error
	Delete(id int) error
	IncrementUsage(code string) error
}

type promoRepo struct {
	db *gorm.DB
}

func NewPromoRepo(db *gorm.DB) PromoRepository {
	return &promoRepo{db}
}

func (r *promoRepo) Create(promo *model.PromoCode) error {
	return r.db.Create(promo).Error
}

func (r *promoRepo) FindAll() ([]model.PromoCode, error) {
	var promos []model.PromoCode
	err := r.db.Order("created_at DESC").Find(&promos).Error
	return promos, err
}

func (r *promoRepo) FindByCode(code string) (*model.PromoCode, error) {
	var promo model.PromoCode
	err := r.db.First(&promo, "code = ?", code).Error
	return &promo, err
}

func (r *promoRepo) Update(promo *model.PromoCode) error {
	return r.db.Save(promo).Error
}

func (r *promoRepo) Delete(id int) error {
	return r.db.Delete(&model.PromoCode{}, "id = ?", id).Error
}

// IncrementUsage bumps the usage counter in place. Counters only go up:
// cancelling an order does not give the code back.
func (r *promoRepo) IncrementUsage(code string) error {
	return r.db.Model(&model.PromoCode{}).Where("code = ?", code).
		Update("used_count", gorm.Expr("used_count + 1")).Error
}
