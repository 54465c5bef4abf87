package service

import (
	"errors"
	"fmt"
	"log"

	"go-storefront-api/internal/apperr"
	"go-storefront-api/internal/model"
	"go-storefront-api/internal/repository"
	"go-storefront-api/internal/ws"
	"go-storefront-api/pkg/validator"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// ApplyDiscountRequest targets either a whole product (no SKUs) or a set
// of its variants.
type ApplyDiscountRequest struct {
	ProductID int             `json:"productId" validate:"required,entity_id"`
	SKUs      []string        `json:"skus"`
	Discount  *model.Discount `json:"discount" validate:"required"`
}

type CatalogService interface {
	CreateProduct(req *model.Product) (*model.Product, error)
	UpdateProduct(id int, req *model.Product) (*model.Product, error)
	GetProduct(id int) (*model.Product, error)
	GetProductBySlug(s string) (*model.Product, error)
	ListProducts(opts repository.ListOptions) ([]model.Product, error)
	DeleteProduct(id int) error
	ApplyDiscount(req *ApplyDiscountRequest) error
	CreateCategory(req *model.Category) (*model.Category, error)
	ListCategories() ([]model.Category, error)
}

type catalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	orderRepo    repository.OrderRepository
	ids          *repository.IDAllocator
	wsHub        *ws.Hub
}

func NewCatalogService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	orderRepo repository.OrderRepository,
	ids *repository.IDAllocator,
	hub *ws.Hub,
) CatalogService {
	return &catalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		orderRepo:    orderRepo,
		ids:          ids,
		wsHub:        hub,
	}
}

func (s *catalogService) CreateProduct(req *model.Product) (*model.Product, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		first := errs[0]
		return nil, apperr.Validation(fmt.Sprintf("Validation failed: Field '%s' failed on tag '%s'", first.FailedField, first.Tag))
	}

	id, err := s.ids.Ensure(&model.Product{}, req.ID)
	if err != nil {
		if errors.Is(err, repository.ErrMalformedID) {
			return nil, apperr.Validation("identifier must be a 6-digit integer")
		}
		if errors.Is(err, repository.ErrIDSpaceExhausted) {
			return nil, apperr.Internal("product identifier space exhausted")
		}
		return nil, err
	}
	req.ID = id

	if req.Slug == "" {
		req.Slug = slug.Make(req.Name)
	}

	if err := s.productRepo.Create(req); err != nil {
		return nil, err
	}

	s.wsHub.Notify(map[string]interface{}{
		"type":      "product_created",
		"productId": req.ID,
		"name":      req.Name,
	})
	return req, nil
}

func (s *catalogService) UpdateProduct(id int, req *model.Product) (*model.Product, error) {
	existing, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, err
	}

	existing.Name = req.Name
	existing.Description = req.Description
	existing.BasePrice = req.BasePrice
	existing.CategoryID = req.CategoryID
	existing.IsActive = req.IsActive
	existing.Discount = req.Discount
	if req.Slug != "" {
		existing.Slug = req.Slug
	} else if req.Name != "" {
		existing.Slug = slug.Make(req.Name)
	}
	if req.Variants != nil {
		existing.Variants = req.Variants
		for i := range existing.Variants {
			existing.Variants[i].ProductID = existing.ID
		}
	}

	if errs := validator.ValidateStruct(existing); len(errs) > 0 {
		first := errs[0]
		return nil, apperr.Validation(fmt.Sprintf("Validation failed: Field '%s' failed on tag '%s'", first.FailedField, first.Tag))
	}

	if err := s.productRepo.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *catalogService) GetProduct(id int) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, err
	}
	return product, nil
}

func (s *catalogService) GetProductBySlug(slugStr string) (*model.Product, error) {
	product, err := s.productRepo.FindBySlug(slugStr)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, err
	}
	return product, nil
}

func (s *catalogService) ListProducts(opts repository.ListOptions) ([]model.Product, error) {
	return s.productRepo.FindAll(opts)
}

// DeleteProduct removes the product and strips it from every processing
// order: an order left without items is deleted outright, the rest get
// their totals recomputed from what remains. Stock is not released; only
// order creation touches stock.
func (s *catalogService) DeleteProduct(id int) error {
	if _, err := s.GetProduct(id); err != nil {
		return err
	}

	orders, err := s.orderRepo.FindProcessingWithProduct(id)
	if err != nil {
		return err
	}
	for i := range orders {
		order := &orders[i]

		remaining := make([]model.OrderItem, 0, len(order.Items))
		for _, item := range order.Items {
			if item.ProductID != id {
				remaining = append(remaining, item)
			}
		}

		if len(remaining) == 0 {
			if err := s.orderRepo.Delete(order.ID); err != nil {
				log.Printf("product %d delete: failed to remove emptied order %d: %v", id, order.ID, err)
			}
			continue
		}

		order.Subtotal = sumItems(remaining)
		order.Total = order.Subtotal + order.ShippingFee
		if err := s.orderRepo.ReplaceItems(order, remaining); err != nil {
			log.Printf("product %d delete: failed to update order %d: %v", id, order.ID, err)
		}
	}

	return s.productRepo.Delete(id)
}

// ApplyDiscount sets a discount on the product itself, or on the named
// variant SKUs when given.
func (s *catalogService) ApplyDiscount(req *ApplyDiscountRequest) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		first := errs[0]
		return apperr.Validation(fmt.Sprintf("Validation failed: Field '%s' failed on tag '%s'", first.FailedField, first.Tag))
	}

	var err error
	if len(req.SKUs) == 0 {
		err = s.productRepo.SetProductDiscount(req.ProductID, req.Discount)
	} else {
		err = s.productRepo.SetVariantDiscount(req.ProductID, req.SKUs, req.Discount)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("product or variants not found")
	}
	return err
}

func (s *catalogService) CreateCategory(req *model.Category) (*model.Category, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		first := errs[0]
		return nil, apperr.Validation(fmt.Sprintf("Validation failed: Field '%s' failed on tag '%s'", first.FailedField, first.Tag))
	}

	id, err := s.ids.Ensure(&model.Category{}, req.ID)
	if err != nil {
		return nil, apperr.Internal("could not allocate category id")
	}
	req.ID = id
	if req.Slug == "" {
		req.Slug = slug.Make(req.Name)
	}

	if err := s.categoryRepo.Create(req); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *catalogService) ListCategories() ([]model.Category, error) {
	return s.categoryRepo.FindAll()
}
