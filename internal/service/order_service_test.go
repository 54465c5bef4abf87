package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"go-storefront-api/internal/apperr"
	"go-storefront-api/internal/model"
	"go-storefront-api/internal/repository"
)

type testEnv struct {
	db          *gorm.DB
	orders      OrderService
	catalog     CatalogService
	carts       CartService
	promos      PromoService
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	promoRepo   repository.PromoRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// One in-memory sqlite database per test; a second pooled connection
	// would see an empty database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Category{},
		&model.Product{},
		&model.Variant{},
		&model.User{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.PromoCode{},
	))

	ids := repository.NewIDAllocator(db)
	productRepo := repository.NewProductRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	promoRepo := repository.NewPromoRepo(db)
	userRepo := repository.NewUserRepo(db)

	return &testEnv{
		db:          db,
		orders:      NewOrderService(orderRepo, productRepo, userRepo, promoRepo, ids, nil),
		catalog:     NewCatalogService(productRepo, categoryRepo, orderRepo, ids, nil),
		carts:       NewCartService(userRepo, productRepo),
		promos:      NewPromoService(promoRepo, ids),
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		promoRepo:   promoRepo,
	}
}

func (e *testEnv) seedUser(t *testing.T, id int, phone string) *model.User {
	t.Helper()
	user := &model.User{
		BaseModel: model.BaseModel{ID: id},
		Email:     fmt.Sprintf("user%d@example.com", id),
		FullName:  "Test Customer",
		Phone:     phone,
		Role:      model.RoleCustomer,
		IsActive:  true,
	}
	require.NoError(t, user.SetPassword("secret-password"))
	require.NoError(t, e.userRepo.Create(user))
	return user
}

func (e *testEnv) seedProduct(t *testing.T, id int, name string, basePrice float64, variants ...model.Variant) *model.Product {
	t.Helper()
	product := &model.Product{
		BaseModel: model.BaseModel{ID: id},
		Name:      name,
		Slug:      name + "-slug",
		BasePrice: basePrice,
		Variants:  variants,
		IsActive:  true,
	}
	require.NoError(t, e.productRepo.Create(product))
	return product
}

func (e *testEnv) variantStock(t *testing.T, productID int, sku string) int {
	t.Helper()
	product, err := e.productRepo.FindByID(productID)
	require.NoError(t, err)
	variant := product.FindVariant(sku)
	require.NotNil(t, variant)
	return variant.Stock
}

func shippingAddress() model.Address {
	return model.Address{
		Line1:      "1 Test Street",
		City:       "Testville",
		PostalCode: "12345",
		Country:    "US",
	}
}

func appErrCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	return appErr.Code
}

func TestCreateOrderReservesStockAndComputesTotals(t *testing.T) {
	e := newTestEnv(t)
	user := e.seedUser(t, 200001, "5551234567")
	e.seedProduct(t, 100001, "Tee", 100, model.Variant{SKU: "SKU-A", Stock: 3})

	order, err := e.orders.Create(&CreateOrderRequest{
		UserID:          user.ID,
		Items:           []OrderItemInput{{ProductID: 100001, SKU: "SKU-A", Quantity: 2}},
		ShippingAddress: shippingAddress(),
	})
	require.NoError(t, err)

	assert.True(t, repository.IsWellFormedID(order.ID))
	assert.Equal(t, model.OrderProcessing, order.OrderStatus)
	assert.Equal(t, model.PaymentPending, order.PaymentStatus)
	require.Len(t, order.Items, 1)
	assert.InDelta(t, 100.0, order.Items[0].PriceAtPurchase, 1e-9)
	assert.InDelta(t, 100.0, order.Items[0].OriginalPrice, 1e-9)
	assert.False(t, order.Items[0].DiscountApplied)
	assert.InDelta(t, 200.0, order.Subtotal, 1e-9)
	assert.InDelta(t, defaultShippingFlatRate, order.ShippingFee, 1e-9)
	assert.InDelta(t, 200.0+defaultShippingFlatRate, order.Total, 1e-9)

	assert.Equal(t, 1, e.variantStock(t, 100001, "SKU-A"))
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	e := newTestEnv(t)
	user := e.seedUser(t, 200001, "5551234567")
	e.seedProduct(t, 100001, "Tee", 100, model.Variant{SKU: "SKU-A", Stock: 3})

	req := &CreateOrderRequest{
		UserID:          user.ID,
		Items:           []OrderItemInput{{ProductID: 100001, SKU: "SKU-A", Quantity: 2}},
		ShippingAddress: shippingAddress(),
	}

	_, err := e.orders.Create(req)
	require.NoError(t, err)
	assert.Equal(t, 1, e.variantStock(t, 100001, "SKU-A"))

	// Only 1 left; a second order for 2 must fail and leave stock at 1
	_, err = e.orders.Create(req)
	require.Error(t, err)
	assert.Equal(t, "state_error", appErrCode(t, err))
	assert.Equal(t, 1, e.variantStock(t, 100001, "SKU-A"))
}

func TestCreateOrderRollsBackOnPartialFailure(t *testing.T) {
	e := newTestEnv(t)
	user := e.seedUser(t, 200001, "5551234567")
	e.seedProduct(t, 100001, "Tee", 100, model.Variant{SKU: "SKU-A", Stock: 3})

	_, err := e.orders.Create(&CreateOrderRequest{
		UserID: user.ID,
		Items: []OrderItemInput{
			{ProductID: 100001, SKU: "SKU-A", Quantity: 2},
			{ProductID: 100001, SKU: "SKU-MISSING", Quantity: 1},
		},
		ShippingAddress: shippingAddress(),
	})
	require.Error(t, err)
	assert.Equal(t, "not_found", appErrCode(t, err))

	// The reservation taken for SKU-A must have been handed back
	assert.Equal(t, 3, e.variantStock(t, 100001, "SKU-A"))
}

func TestCreateOrderRequiresPhoneOnFile(t *testing.T) {
	e := newTestEnv(t)
	user := e.seedUser(t, 200001, "")
	e.seedProduct(t, 100001, "Tee", 100, model.Variant{SKU: "SKU-A", Stock: 3})

	_, err := e.orders.Create(&CreateOrderRequest{
		UserID:          user.ID,
		Items:           []OrderItemInput{{ProductID: 100001, SKU: "SKU-A", Quantity: 1}},
		ShippingAddress: shippingAddress(),
	})
	require.Error(t, err)
	assert.Equal(t, "validation_error", appErrCode(t, err))
	assert.Equal(t, 3, e.variantStock(t, 100001, "SKU-A"))
}

func TestPriceSnapshotSurvivesDiscountChanges(t *testing.T) {
	e := newTestEnv(t)
	user := e.seedUser(t, 200001, "5551234567")
	e.seedProduct(t, 100001, "Tee", 100, model.Variant{SKU: "SKU-A", Stock: 5})

	require.NoError(t, e.productRepo.SetProductDiscount(100001, &model.Discount{
		Type: model.DiscountPercentage, Value: 20, IsActive: true,
	}))

	order, err := e.orders.Create(&CreateOrderRequest{
		UserID:          user.ID,
		Items:           []OrderItemInput{{ProductID: 100001, SKU: "SKU-A", Quantity: 1}},
		ShippingAddress: shippingAddress(),
	})
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.InDelta(t, 80.0, order.Items[0].PriceAtPurchase, 1e-9)
	assert.InDelta(t, 100.0, order.Items[0].OriginalPrice, 1e-9)
	assert.True(t, order.Items[0].DiscountApplied)
	require.NotNil(t, order.Items[0].DiscountSnapshot)

	// Kill the discount after the fact
	require.NoError(t, e.productRepo.SetProductDiscount(100001, nil))

	reloaded, err := e.orders.GetByID(order.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.InDelta(t, 80.0, reloaded.Items[0].PriceAtPurchase, 1e-9)
	assert.InDelta(t, order.Total, reloaded.Total, 1e-9)
	require.NotNil(t, reloaded.Items[0].DiscountSnapshot)
	assert.InDelta(t, 20.0, reloaded.Items[0].DiscountSnapshot.Value, 1e-9)
}

func TestVariantDiscountTakesPrecedence(t *testing.T) {
	e := newTestEnv(t)
	user := e.seedUser(t, 200001, "5551234567")
	e.seedProduct(t, 100001, "Tee", 100, model.Variant{
		SKU:   "SKU-A",
		Stock: 5,
		Discount: &model.Discount{
			Type: model.DiscountFixed, Value: 10, IsActive: true,
		},
	})
	require.NoError(t, e.productRepo.SetProductDiscount(100001, &model.Discount{
		Type: model.DiscountPercentage, Value: 50, IsActive: true,
	}))

	order, err := e.orders.Create(&CreateOrderRequest{
		UserID:          user.ID,
		Items:           []OrderItemInput{{ProductID: 100001, SKU: "SKU-A", Quantity: 1}},
		ShippingAddress: shippingAddress(),
	})
	require.NoError(t, err)
	require.Len(t, order.Items, 1)

	// Fixed -10 from the variant, not -50% from the product
	assert.InDelta(t, 90.0, order.Items[0].PriceAtPurchase, 1e-9)
	require.NotNil(t, order.Items[0].DiscountSnapshot)
	assert.Equal(t, model.DiscountFixed, order.Items[0].DiscountSnapshot.Type)
}

func TestPromoCodeAppliedAndCounted(t *testing.T) {
	e := newTestEnv(t)
	user := e.seedUser(t, 200001, "5551234567")
	e.seedProduct(t, 100001, "Tee", 100, model.Variant{SKU: "SKU-A", Stock: 5})

	promo := &model.PromoCode{
		BaseModel: model.BaseModel{ID: 300001},
		Code:      "SAVE10",
		Type:      model.DiscountPercentage,
		Value:     10,
		IsActive:  true,
	}
	require.NoError(t, e.promoRepo.Create(promo))

	order, err := e.orders.Create(&CreateOrderRequest{
		UserID:          user.ID,
		Items:           []OrderItemInput{{ProductID: 100001, SKU: "SKU-A", Quantity: 2}},
		ShippingAddress: shippingAddress(),
		PromoCode:       "save10",
	})
	require.NoError(t, err)

	assert.Equal(t, "SAVE10", order.PromoCode)
	assert.InDelta(t, 20.0, order.Discount, 1e-9)
	assert.InDelta(t, 200.0+defaultShippingFlatRate-20.0, order.Total, 1e-9)

	stored, err := e.promoRepo.FindByCode("SAVE10")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsedCount)
}

func TestPromoMinimumRollsBackReservations(t *testing.T) {
	e := newTestEnv(t)
	user := e.seedUser(t, 200001, "5551234567")
	e.seedProduct(t, 100001, "Tee", 100, model.Variant{SKU: "SKU-A", Stock: 5})

	minAmount := 500.0
	require.NoError(t, e.promoRepo.Create(&model.PromoCode{
		BaseModel:      model.BaseModel{ID: 300001},
		Code:           "BIGSPEND",
		Type:           model.DiscountFixed,
		Value:          50,
		IsActive:       true,
		MinOrderAmount: &minAmount,
	}))

	_, err := e.orders.Create(&CreateOrderRequest{
		UserID:          user.ID,
		Items:           []OrderItemInput{{ProductID: 100001, SKU: "SKU-A", Quantity: 1}},
		ShippingAddress: shippingAddress(),
		PromoCode:       "BIGSPEND",
	})
	require.Error(t, err)
	assert.Equal(t, "validation_error", appErrCode(t, err))

	// Reserved stock must come back when the promo minimum fails
	assert.Equal(t, 5, e.variantStock(t, 100001, "SKU-A"))
}

func TestCustomerEditGuardOnShippedOrder(t *testing.T) {
	e := newTestEnv(t)
	user := e.seedUser(t, 200001, "5551234567")
	e.seedProduct(t, 100001, "Tee", 100, model.Variant{SKU: "SKU-A", Stock: 5})

	order, err := e.orders.Create(&CreateOrderRequest{
		UserID:          user.ID,
		Items:           []OrderItemInput{{ProductID: 100001, SKU: "SKU-A", Quantity: 1}},
		ShippingAddress: shippingAddress(),
	})
	require.NoError(t, err)

	shipped := model.OrderShipped
	_, err = e.orders.AdminUpdate(order.ID, &AdminOrderUpdate{OrderStatus: &shipped})
	require.NoError(t, err)

	_, err = e.orders.CustomerUpdate(order.ID, user.ID, &CustomerOrderUpdate{
		Items: []OrderItemInput{{ProductID: 100001, SKU: "SKU-A", Quantity: 3}},
	})
	require.Error(t, err)
	assert.Equal(t, "state_error", appErrCode(t, err))

	// The order must be untouched
	reloaded, err := e.orders.GetByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderShipped, reloaded.OrderStatus)
	require.Len(t, reloaded.Items, 1)
	assert.Equal(t, 1, reloaded.Items[0].Quantity)
}

func TestCustomerEditKeepsSnapshotsAndRepricesNewItems(t *testing.T) {
	e := newTestEnv(t)
	user := e.seedUser(t, 200001, "5551234567")
	e.seedProduct(t, 100001, "Tee", 100,
		model.Variant{SKU: "SKU-A", Stock: 5},
		model.Variant{SKU: "SKU-B", Stock: 5},
	)

	require.NoError(t, e.productRepo.SetProductDiscount(100001, &model.Discount{
		Type: model.DiscountPercentage, Value: 20, IsActive: true,
	}))

	order, err := e.orders.Create(&CreateOrderRequest{
		UserID:          user.ID,
		Items:           []OrderItemInput{{ProductID: 100001, SKU: "SKU-A", Quantity: 1}},
		ShippingAddress: shippingAddress(),
	})
	require.NoError(t, err)
	require.InDelta(t, 80.0, order.Items[0].PriceAtPurchase, 1e-9)

	// The sale ends before the customer edits the order
	require.NoError(t, e.productRepo.SetProductDiscount(100001, nil))

	updated, err := e.orders.CustomerUpdate(order.ID, user.ID, &CustomerOrderUpdate{
		Items: []OrderItemInput{
			{ProductID: 100001, SKU: "SKU-A", Quantity: 3},
			{ProductID: 100001, SKU: "SKU-B", Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Items, 2)

	// Matched line keeps its frozen price, the new line gets today's
	itemA := updated.FindItem(100001, "SKU-A")
	itemB := updated.FindItem(100001, "SKU-B")
	require.NotNil(t, itemA)
	require.NotNil(t, itemB)
	assert.InDelta(t, 80.0, itemA.PriceAtPurchase, 1e-9)
	assert.Equal(t, 3, itemA.Quantity)
	assert.InDelta(t, 100.0, itemB.PriceAtPurchase, 1e-9)

	assert.InDelta(t, 80*3+100, updated.Subtotal, 1e-9)
	assert.InDelta(t, updated.Subtotal+updated.ShippingFee, updated.Total, 1e-9)

	// Edits never touch stock: only creation reserved 1 unit of SKU-A
	assert.Equal(t, 4, e.variantStock(t, 100001, "SKU-A"))
	assert.Equal(t, 5, e.variantStock(t, 100001, "SKU-B"))
}

func TestCustomerCancelOnlyWhileProcessing(t *testing.T) {
	e := newTestEnv(t)
	user := e.seedUser(t, 200001, "5551234567")
	e.seedProduct(t, 100001, "Tee", 100, model.Variant{SKU: "SKU-A", Stock: 5})

	order, err := e.orders.Create(&CreateOrderRequest{
		UserID:          user.ID,
		Items:           []OrderItemInput{{ProductID: 100001, SKU: "SKU-A", Quantity: 1}},
		ShippingAddress: shippingAddress(),
	})
	require.NoError(t, err)

	cancelled, err := e.orders.CustomerCancel(order.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, cancelled.OrderStatus)

	// Cancelled orders do not release stock; only creation touches it
	assert.Equal(t, 4, e.variantStock(t, 100001, "SKU-A"))

	// A second cancel is an illegal transition now
	_, err = e.orders.CustomerCancel(order.ID, user.ID)
	require.Error(t, err)
	assert.Equal(t, "state_error", appErrCode(t, err))
}

func TestCustomerCannotTouchForeignOrder(t *testing.T) {
	e := newTestEnv(t)
	owner := e.seedUser(t, 200001, "5551234567")
	stranger := e.seedUser(t, 200002, "5559876543")
	e.seedProduct(t, 100001, "Tee", 100, model.Variant{SKU: "SKU-A", Stock: 5})

	order, err := e.orders.Create(&CreateOrderRequest{
		UserID:          owner.ID,
		Items:           []OrderItemInput{{ProductID: 100001, SKU: "SKU-A", Quantity: 1}},
		ShippingAddress: shippingAddress(),
	})
	require.NoError(t, err)

	_, err = e.orders.CustomerCancel(order.ID, stranger.ID)
	require.Error(t, err)
	assert.Equal(t, "forbidden", appErrCode(t, err))
}

func TestReturnRequestThroughService(t *testing.T) {
	e := newTestEnv(t)
	user := e.seedUser(t, 200001, "5551234567")
	e.seedProduct(t, 100001, "Tee", 100, model.Variant{SKU: "SKU-A", Stock: 5})

	order, err := e.orders.Create(&CreateOrderRequest{
		UserID:          user.ID,
		Items:           []OrderItemInput{{ProductID: 100001, SKU: "SKU-A", Quantity: 1}},
		ShippingAddress: shippingAddress(),
	})
	require.NoError(t, err)

	delivered := model.OrderDelivered
	_, err = e.orders.AdminUpdate(order.ID, &AdminOrderUpdate{OrderStatus: &delivered})
	require.NoError(t, err)

	// Age the order past the return window; UpdateColumn skips the
	// auto-touched timestamp.
	stale := time.Now().Add(-49 * time.Hour)
	require.NoError(t, e.db.Model(&model.Order{}).Where("id = ?", order.ID).
		UpdateColumn("updated_at", stale).Error)

	returnRequest := model.OrderReturnRequest
	_, err = e.orders.CustomerUpdate(order.ID, user.ID, &CustomerOrderUpdate{OrderStatus: &returnRequest})
	require.Error(t, err)
	assert.Equal(t, "state_error", appErrCode(t, err))

	// Inside the window it goes through
	fresh := time.Now().Add(-47 * time.Hour)
	require.NoError(t, e.db.Model(&model.Order{}).Where("id = ?", order.ID).
		UpdateColumn("updated_at", fresh).Error)

	updated, err := e.orders.CustomerUpdate(order.ID, user.ID, &CustomerOrderUpdate{OrderStatus: &returnRequest})
	require.NoError(t, err)
	assert.Equal(t, model.OrderReturnRequest, updated.OrderStatus)

	// Withdrawal back to delivered has no window
	require.NoError(t, e.db.Model(&model.Order{}).Where("id = ?", order.ID).
		UpdateColumn("updated_at", time.Now().Add(-30*24*time.Hour)).Error)

	withdrawn, err := e.orders.CustomerUpdate(order.ID, user.ID, &CustomerOrderUpdate{OrderStatus: &delivered})
	require.NoError(t, err)
	assert.Equal(t, model.OrderDelivered, withdrawn.OrderStatus)
}

func TestOrderPlacementClearsCart(t *testing.T) {
	e := newTestEnv(t)
	user := e.seedUser(t, 200001, "5551234567")
	e.seedProduct(t, 100001, "Tee", 100, model.Variant{SKU: "SKU-A", Stock: 5})

	require.NoError(t, e.userRepo.ReplaceCart(user.ID, []model.CartItem{
		{ProductID: 100001, SKU: "SKU-A", Quantity: 2, Name: "Tee"},
	}))

	_, err := e.orders.Create(&CreateOrderRequest{
		UserID:          user.ID,
		Items:           []OrderItemInput{{ProductID: 100001, SKU: "SKU-A", Quantity: 2}},
		ShippingAddress: shippingAddress(),
	})
	require.NoError(t, err)

	items, err := e.carts.Get(user.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestProductDeletionStripsProcessingOrders(t *testing.T) {
	e := newTestEnv(t)
	user := e.seedUser(t, 200001, "5551234567")
	e.seedProduct(t, 100001, "Tee", 100, model.Variant{SKU: "SKU-A", Stock: 10})
	e.seedProduct(t, 100002, "Mug", 50, model.Variant{SKU: "SKU-M", Stock: 10})

	// Order 1 only carries the doomed product, order 2 carries both
	soloOrder, err := e.orders.Create(&CreateOrderRequest{
		UserID:          user.ID,
		Items:           []OrderItemInput{{ProductID: 100001, SKU: "SKU-A", Quantity: 1}},
		ShippingAddress: shippingAddress(),
	})
	require.NoError(t, err)

	mixedOrder, err := e.orders.Create(&CreateOrderRequest{
		UserID: user.ID,
		Items: []OrderItemInput{
			{ProductID: 100001, SKU: "SKU-A", Quantity: 1},
			{ProductID: 100002, SKU: "SKU-M", Quantity: 2},
		},
		ShippingAddress: shippingAddress(),
	})
	require.NoError(t, err)

	require.NoError(t, e.catalog.DeleteProduct(100001))

	// The order that became item-less is gone
	_, err = e.orders.GetByID(soloOrder.ID)
	require.Error(t, err)
	assert.Equal(t, "not_found", appErrCode(t, err))

	// The mixed order lost the line and got repriced
	reloaded, err := e.orders.GetByID(mixedOrder.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.Equal(t, 100002, reloaded.Items[0].ProductID)
	assert.InDelta(t, 100.0, reloaded.Subtotal, 1e-9)
	assert.InDelta(t, reloaded.Subtotal+reloaded.ShippingFee, reloaded.Total, 1e-9)
}

func TestAdminUpdateRejectsUnknownStatus(t *testing.T) {
	e := newTestEnv(t)
	user := e.seedUser(t, 200001, "5551234567")
	e.seedProduct(t, 100001, "Tee", 100, model.Variant{SKU: "SKU-A", Stock: 5})

	order, err := e.orders.Create(&CreateOrderRequest{
		UserID:          user.ID,
		Items:           []OrderItemInput{{ProductID: 100001, SKU: "SKU-A", Quantity: 1}},
		ShippingAddress: shippingAddress(),
	})
	require.NoError(t, err)

	bogus := model.OrderStatus("teleported")
	_, err = e.orders.AdminUpdate(order.ID, &AdminOrderUpdate{OrderStatus: &bogus})
	require.Error(t, err)
	assert.Equal(t, "validation_error", appErrCode(t, err))
}
