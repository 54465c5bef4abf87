package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go-storefront-api/internal/apperr"
	"go-storefront-api/internal/model"
	"go-storefront-api/internal/repository"
	"go-storefront-api/pkg/validator"

	"gorm.io/gorm"
)

type PromoService interface {
	Create(req *model.PromoCode) (*model.PromoCode, error)
	List() ([]model.PromoCode, error)
	Validate(code string) (*model.PromoCode, error)
	Delete(id int) error
}

type promoService struct {
	promoRepo repository.PromoRepository
	ids       *repository.IDAllocator
}

func NewPromoService(promoRepo repository.PromoRepository, ids *repository.IDAllocator) PromoService {
	return &promoService{promoRepo: promoRepo, ids: ids}
}

// promoUsable checks everything about a promo except the minimum order
// amount, which needs a subtotal to compare against.
func promoUsable(p *model.PromoCode, now time.Time) error {
	if !p.IsActive {
		return apperr.Validation("promo code is not active")
	}
	if p.StartDate != nil && now.Before(*p.StartDate) {
		return apperr.Validation("promo code is not valid yet")
	}
	if p.EndDate != nil && now.After(*p.EndDate) {
		return apperr.Validation("promo code has expired")
	}
	if p.UsageLimit != nil && p.UsedCount >= *p.UsageLimit {
		return apperr.Validation("promo code usage limit reached")
	}
	return nil
}

func (s *promoService) Create(req *model.PromoCode) (*model.PromoCode, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		first := errs[0]
		return nil, apperr.Validation(fmt.Sprintf("Validation failed: Field '%s' failed on tag '%s'", first.FailedField, first.Tag))
	}

	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))

	// Duplicate check; a race still surfaces as a unique violation on insert
	if existing, err := s.promoRepo.FindByCode(req.Code); err == nil && existing.ID != 0 {
		return nil, apperr.Conflict("promo code already exists")
	}

	id, err := s.ids.Ensure(&model.PromoCode{}, req.ID)
	if err != nil {
		if errors.Is(err, repository.ErrMalformedID) {
			return nil, apperr.Validation("identifier must be a 6-digit integer")
		}
		if errors.Is(err, repository.ErrIDSpaceExhausted) {
			return nil, apperr.Internal("promo identifier space exhausted")
		}
		return nil, err
	}
	req.ID = id
	req.UsedCount = 0

	if err := s.promoRepo.Create(req); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *promoService) List() ([]model.PromoCode, error) {
	return s.promoRepo.FindAll()
}

// Validate is the public check behind GET /promos/validate/:code. Every
// unusable state answers 400 with the reason.
func (s *promoService) Validate(code string) (*model.PromoCode, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	promo, err := s.promoRepo.FindByCode(normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Validation("invalid promo code")
		}
		return nil, err
	}
	if err := promoUsable(promo, time.Now()); err != nil {
		return nil, err
	}
	return promo, nil
}

func (s *promoService) Delete(id int) error {
	return s.promoRepo.Delete(id)
}
