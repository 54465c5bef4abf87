package service

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"go-storefront-api/internal/apperr"
	"go-storefront-api/internal/model"
	"go-storefront-api/internal/pricing"
	"go-storefront-api/internal/repository"
	"go-storefront-api/internal/ws"
	"go-storefront-api/pkg/validator"

	"gorm.io/gorm"
)

const (
	defaultShippingFlatRate = 49.0
	defaultFreeShippingMin  = 999.0
)

type OrderItemInput struct {
	ProductID int    `json:"productId" validate:"required,entity_id"`
	SKU       string `json:"sku" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type CreateOrderRequest struct {
	UserID          int              `json:"userId" validate:"required,entity_id"`
	Items           []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	ShippingAddress model.Address    `json:"shippingAddress" validate:"required"`
	PaymentMethod   string           `json:"paymentMethod"`
	PromoCode       string           `json:"promoCode"`
}

// AdminOrderUpdate is the restricted field set of the admin PATCH path.
type AdminOrderUpdate struct {
	PaymentStatus   *model.PaymentStatus `json:"paymentStatus"`
	OrderStatus     *model.OrderStatus   `json:"orderStatus"`
	TrackingNumber  *string              `json:"trackingNumber"`
	Items           []OrderItemInput     `json:"items"`
	ShippingAddress *model.Address       `json:"shippingAddress"`
}

// CustomerOrderUpdate is the customer-owned edit surface, gated by the
// lifecycle rules.
type CustomerOrderUpdate struct {
	OrderStatus     *model.OrderStatus `json:"orderStatus"`
	Items           []OrderItemInput   `json:"items"`
	ShippingAddress *model.Address     `json:"shippingAddress"`
}

type OrderService interface {
	Create(req *CreateOrderRequest) (*model.Order, error)
	GetByID(id int) (*model.Order, error)
	List(opts repository.ListOptions) ([]model.Order, error)
	ListByUser(userID int) ([]model.Order, error)
	AdminUpdate(id int, req *AdminOrderUpdate) (*model.Order, error)
	CustomerUpdate(id, userID int, req *CustomerOrderUpdate) (*model.Order, error)
	CustomerCancel(id, userID int) (*model.Order, error)
	Delete(id int) error
}

// reservation is one applied stock decrement, kept so a later failure in
// the same request can hand the units back.
type reservation struct {
	productID int
	sku       string
	qty       int
}

type orderService struct {
	orderRepo        repository.OrderRepository
	productRepo      repository.ProductRepository
	userRepo         repository.UserRepository
	promoRepo        repository.PromoRepository
	ids              *repository.IDAllocator
	wsHub            *ws.Hub
	shippingFlatRate float64
	freeShippingMin  float64
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	promoRepo repository.PromoRepository,
	ids *repository.IDAllocator,
	hub *ws.Hub,
) OrderService {
	return &orderService{
		orderRepo:        orderRepo,
		productRepo:      productRepo,
		userRepo:         userRepo,
		promoRepo:        promoRepo,
		ids:              ids,
		wsHub:            hub,
		shippingFlatRate: envFloat("SHIPPING_FLAT_RATE", defaultShippingFlatRate),
		freeShippingMin:  envFloat("FREE_SHIPPING_MIN", defaultFreeShippingMin),
	}
}

func envFloat(key string, fallback float64) float64 {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	return fallback
}

func (s *orderService) Create(req *CreateOrderRequest) (*model.Order, error) {
	// 1. Validate request shape
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		first := errs[0]
		return nil, apperr.Validation(fmt.Sprintf("Validation failed: Field '%s' failed on tag '%s'", first.FailedField, first.Tag))
	}

	// 2. Orders need a reachable customer
	user, err := s.userRepo.FindByID(req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	if user.Phone == "" {
		return nil, apperr.Validation("a phone number on file is required to place an order")
	}

	now := time.Now()

	// 3. Resolve the promo up front so an unusable code fails before any
	// stock is touched. The minimum-amount check has to wait for the
	// subtotal.
	var promo *model.PromoCode
	if req.PromoCode != "" {
		code := strings.ToUpper(strings.TrimSpace(req.PromoCode))
		p, err := s.promoRepo.FindByCode(code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.Validation("invalid promo code")
			}
			return nil, err
		}
		if err := promoUsable(p, now); err != nil {
			return nil, err
		}
		promo = p
	}

	// 4. Validate, snapshot-price, and reserve item by item. Every applied
	// decrement goes on the rollback list so a later failure can hand the
	// units back before the error propagates.
	var (
		items    []model.OrderItem
		reserved []reservation
	)
	for _, in := range req.Items {
		item, err := s.buildItem(in, now)
		if err != nil {
			s.rollbackReservations(reserved)
			return nil, err
		}

		if err := s.productRepo.AdjustVariantStock(in.ProductID, in.SKU, -in.Quantity); err != nil {
			s.rollbackReservations(reserved)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.State(fmt.Sprintf("insufficient stock for sku %s", in.SKU))
			}
			return nil, err
		}
		reserved = append(reserved, reservation{in.ProductID, in.SKU, in.Quantity})
		items = append(items, *item)
	}

	// 5. Totals
	subtotal := sumItems(items)

	if promo != nil && promo.MinOrderAmount != nil && subtotal < *promo.MinOrderAmount {
		s.rollbackReservations(reserved)
		return nil, apperr.Validation(fmt.Sprintf("order subtotal is below the promo minimum of %.2f", *promo.MinOrderAmount))
	}

	shippingFee := s.shippingFlatRate
	if subtotal >= s.freeShippingMin {
		shippingFee = 0
	}

	var discountAmt float64
	var promoCode string
	if promo != nil {
		promoDiscount := &model.Discount{Type: promo.Type, Value: promo.Value, IsActive: true}
		discountAmt = subtotal - pricing.Apply(subtotal, promoDiscount)
		promoCode = promo.Code
	}

	// 6. Allocate the order id and insert. Any failure past this point
	// still returns the reserved stock.
	id, err := s.ids.Allocate(&model.Order{})
	if err != nil {
		s.rollbackReservations(reserved)
		if errors.Is(err, repository.ErrIDSpaceExhausted) {
			return nil, apperr.Internal("order identifier space exhausted")
		}
		return nil, err
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = "cod"
	}

	order := &model.Order{
		BaseModel:       model.BaseModel{ID: id},
		UserID:          user.ID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   paymentMethod,
		PaymentStatus:   model.PaymentPending,
		OrderStatus:     model.OrderProcessing,
		Subtotal:        subtotal,
		ShippingFee:     shippingFee,
		Discount:        discountAmt,
		Total:           subtotal + shippingFee - discountAmt,
		PromoCode:       promoCode,
	}
	if err := s.orderRepo.Create(order); err != nil {
		s.rollbackReservations(reserved)
		return nil, err
	}

	// 7. Post-insert bookkeeping is best-effort
	if promo != nil {
		if err := s.promoRepo.IncrementUsage(promo.Code); err != nil {
			log.Printf("order %d: failed to count promo use for %s: %v", order.ID, promo.Code, err)
		}
	}
	if err := s.userRepo.ClearCart(user.ID); err != nil {
		log.Printf("order %d: failed to clear cart for user %d: %v", order.ID, user.ID, err)
	}

	s.wsHub.Notify(map[string]interface{}{
		"type":    "order_placed",
		"orderId": order.ID,
		"userId":  order.UserID,
		"total":   order.Total,
		"items":   len(order.Items),
	})

	return order, nil
}

// buildItem validates one line against the live catalog and freezes its
// price and discount snapshot.
func (s *orderService) buildItem(in OrderItemInput, now time.Time) (*model.OrderItem, error) {
	product, err := s.productRepo.FindByID(in.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(fmt.Sprintf("product %d not found", in.ProductID))
		}
		return nil, err
	}
	if !product.IsActive {
		return nil, apperr.NotFound(fmt.Sprintf("product %d is not available", in.ProductID))
	}

	variant := product.FindVariant(in.SKU)
	if variant == nil {
		return nil, apperr.NotFound(fmt.Sprintf("variant %s not found for product %d", in.SKU, in.ProductID))
	}

	unit := pricing.UnitPrice(product, variant)
	discount := pricing.Pick(variant.Discount, product.Discount, now)
	price := pricing.Apply(unit, discount)

	var snapshot *model.Discount
	if discount != nil {
		copied := *discount
		snapshot = &copied
	}

	image := ""
	if len(variant.Images) > 0 {
		image = variant.Images[0]
	}

	return &model.OrderItem{
		ProductID:        product.ID,
		SKU:              variant.SKU,
		Quantity:         in.Quantity,
		PriceAtPurchase:  price,
		OriginalPrice:    unit,
		DiscountSnapshot: snapshot,
		DiscountApplied:  snapshot != nil,
		Name:             product.Name,
		Image:            image,
	}, nil
}

// rollbackReservations hands back previously reserved units. Individual
// failures are logged and swallowed so the error that triggered the
// rollback stays the one the caller sees.
func (s *orderService) rollbackReservations(reserved []reservation) {
	for _, r := range reserved {
		if err := s.productRepo.AdjustVariantStock(r.productID, r.sku, r.qty); err != nil {
			log.Printf("stock rollback failed for product %d sku %s qty %d: %v", r.productID, r.sku, r.qty, err)
		}
	}
}

func sumItems(items []model.OrderItem) float64 {
	var sum float64
	for i := range items {
		sum += items[i].PriceAtPurchase * float64(items[i].Quantity)
	}
	return sum
}

func (s *orderService) GetByID(id int) (*model.Order, error) {
	return s.getOrder(id)
}

func (s *orderService) List(opts repository.ListOptions) ([]model.Order, error) {
	return s.orderRepo.FindAll(opts)
}

func (s *orderService) ListByUser(userID int) ([]model.Order, error) {
	return s.orderRepo.FindByUser(userID)
}

func (s *orderService) AdminUpdate(id int, req *AdminOrderUpdate) (*model.Order, error) {
	order, err := s.getOrder(id)
	if err != nil {
		return nil, err
	}
	if err := validateAdminStatuses(req.OrderStatus, req.PaymentStatus); err != nil {
		return nil, err
	}

	prevStatus := order.OrderStatus
	if req.OrderStatus != nil {
		order.OrderStatus = *req.OrderStatus
	}
	if req.PaymentStatus != nil {
		order.PaymentStatus = *req.PaymentStatus
	}
	if req.TrackingNumber != nil {
		order.TrackingNumber = *req.TrackingNumber
	}
	if req.ShippingAddress != nil {
		order.ShippingAddress = *req.ShippingAddress
	}

	if req.Items != nil {
		items, err := s.mergeItems(order, req.Items, time.Now())
		if err != nil {
			return nil, err
		}
		order.Subtotal = sumItems(items)
		order.Total = order.Subtotal + order.ShippingFee
		if err := s.orderRepo.ReplaceItems(order, items); err != nil {
			return nil, err
		}
	} else if err := s.orderRepo.Save(order); err != nil {
		return nil, err
	}

	if prevStatus != order.OrderStatus {
		s.notifyStatusChange(order, prevStatus)
	}
	return order, nil
}

func (s *orderService) CustomerUpdate(id, userID int, req *CustomerOrderUpdate) (*model.Order, error) {
	order, err := s.getOrder(id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperr.Forbidden("order belongs to another customer")
	}

	now := time.Now()

	// Status toggles (cancel, return request, withdrawal) are their own
	// path and bypass the processing-only edit rule.
	if req.OrderStatus != nil && *req.OrderStatus != order.OrderStatus {
		if err := validateCustomerTransition(order, *req.OrderStatus, now); err != nil {
			return nil, err
		}
		prevStatus := order.OrderStatus
		order.OrderStatus = *req.OrderStatus
		if err := s.orderRepo.Save(order); err != nil {
			return nil, err
		}
		s.notifyStatusChange(order, prevStatus)
		return order, nil
	}

	if !canCustomerEdit(order) {
		return nil, apperr.State("order can no longer be edited (status: " + string(order.OrderStatus) + ")")
	}

	if req.ShippingAddress != nil {
		order.ShippingAddress = *req.ShippingAddress
	}

	if req.Items != nil {
		items, err := s.mergeItems(order, req.Items, now)
		if err != nil {
			return nil, err
		}
		order.Subtotal = sumItems(items)
		order.Total = order.Subtotal + order.ShippingFee
		if err := s.orderRepo.ReplaceItems(order, items); err != nil {
			return nil, err
		}
		return order, nil
	}

	if err := s.orderRepo.Save(order); err != nil {
		return nil, err
	}
	return order, nil
}

// mergeItems resolves an edited item list: lines matching an existing
// (productId, sku) keep their frozen snapshot with the caller's quantity,
// new lines get current catalog pricing. Stock is not re-reserved on edits.
func (s *orderService) mergeItems(order *model.Order, inputs []OrderItemInput, now time.Time) ([]model.OrderItem, error) {
	items := make([]model.OrderItem, 0, len(inputs))
	for _, in := range inputs {
		if in.Quantity <= 0 {
			return nil, apperr.Validation(fmt.Sprintf("quantity must be positive for sku %s", in.SKU))
		}

		if existing := order.FindItem(in.ProductID, in.SKU); existing != nil {
			item := *existing
			item.ID = 0
			item.Quantity = in.Quantity
			items = append(items, item)
			continue
		}

		item, err := s.buildItem(in, now)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

func (s *orderService) CustomerCancel(id, userID int) (*model.Order, error) {
	cancelled := model.OrderCancelled
	return s.CustomerUpdate(id, userID, &CustomerOrderUpdate{OrderStatus: &cancelled})
}

func (s *orderService) Delete(id int) error {
	if _, err := s.getOrder(id); err != nil {
		return err
	}
	return s.orderRepo.Delete(id)
}

func (s *orderService) getOrder(id int) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order not found")
		}
		return nil, err
	}
	return order, nil
}

func (s *orderService) notifyStatusChange(order *model.Order, prev model.OrderStatus) {
	s.wsHub.Notify(map[string]interface{}{
		"type":    "order_status_changed",
		"orderId": order.ID,
		"from":    prev,
		"to":      order.OrderStatus,
	})
}
