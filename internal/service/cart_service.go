package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"go-storefront-api/internal/apperr"
	"go-storefront-api/internal/model"
	"go-storefront-api/internal/pricing"
	"go-storefront-api/internal/repository"
	"go-storefront-api/pkg/validator"

	"gorm.io/gorm"
)

type CartService interface {
	Get(userID int) ([]model.CartItem, error)
	Replace(userID int, items []model.CartItem) ([]model.CartItem, error)
	Merge(userID int, local []model.CartItem) ([]model.CartItem, error)
	Revalidate(userID int) ([]model.CartItem, error)
}

type cartService struct {
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
}

func NewCartService(userRepo repository.UserRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{userRepo: userRepo, productRepo: productRepo}
}

func (s *cartService) Get(userID int) ([]model.CartItem, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	return user.CartItems, nil
}

func (s *cartService) Replace(userID int, items []model.CartItem) ([]model.CartItem, error) {
	for i := range items {
		if errs := validator.ValidateStruct(&items[i]); len(errs) > 0 {
			first := errs[0]
			return nil, apperr.Validation(fmt.Sprintf("Validation failed: Field '%s' failed on tag '%s'", first.FailedField, first.Tag))
		}
	}
	if err := s.userRepo.ReplaceCart(userID, items); err != nil {
		return nil, err
	}
	return s.Get(userID)
}

// Merge folds a locally-held cart into the server cart on login:
// quantities add up for matching (productId, sku) pairs, display metadata
// is last-write-wins from the incoming copy. Runs once per login; a failed
// persist is logged and the server cart stands.
func (s *cartService) Merge(userID int, local []model.CartItem) ([]model.CartItem, error) {
	server, err := s.Get(userID)
	if err != nil {
		return nil, err
	}

	merged := make([]model.CartItem, len(server))
	copy(merged, server)

	for _, in := range local {
		if in.Quantity <= 0 {
			continue
		}
		found := false
		for i := range merged {
			if merged[i].ProductID == in.ProductID && merged[i].SKU == in.SKU {
				merged[i].Quantity += in.Quantity
				merged[i].Name = in.Name
				merged[i].Image = in.Image
				merged[i].Color = in.Color
				merged[i].Size = in.Size
				merged[i].Price = in.Price
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, in)
		}
	}

	if err := s.userRepo.ReplaceCart(userID, merged); err != nil {
		log.Printf("cart merge: persist failed for user %d: %v", userID, err)
		return server, nil
	}
	return merged, nil
}

// Revalidate reconciles the cart with the live catalog: vanished or
// inactive products and missing variants drop out, quantities clamp to
// current stock, display fields refresh.
func (s *cartService) Revalidate(userID int) ([]model.CartItem, error) {
	items, err := s.Get(userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	kept := make([]model.CartItem, 0, len(items))
	for _, item := range items {
		product, err := s.productRepo.FindByID(item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		if !product.IsActive {
			continue
		}
		variant := product.FindVariant(item.SKU)
		if variant == nil || variant.Stock <= 0 {
			continue
		}

		if item.Quantity > variant.Stock {
			item.Quantity = variant.Stock
		}
		item.Name = product.Name
		item.Color = variant.Color
		item.Size = variant.Size
		if len(variant.Images) > 0 {
			item.Image = variant.Images[0]
		}
		item.Price = pricing.Apply(
			pricing.UnitPrice(product, variant),
			pricing.Pick(variant.Discount, product.Discount, now),
		)
		kept = append(kept, item)
	}

	if err := s.userRepo.ReplaceCart(userID, kept); err != nil {
		return nil, err
	}
	return kept, nil
}
