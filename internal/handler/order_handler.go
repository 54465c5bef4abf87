package handler

import (
	"go-storefront-api/internal/apperr"
	"go-storefront-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(s service.OrderService) *OrderHandler {
	return &OrderHandler{service: s}
}

func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var req service.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid JSON body")
	}

	// Customers always order for themselves; staff may order on behalf of
	// a customer by supplying userId.
	if !isStaff(c) || req.UserID == 0 {
		req.UserID = currentUserID(c)
	}

	order, err := h.service.Create(&req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

func (h *OrderHandler) List(c *fiber.Ctx) error {
	opts, err := parseListOptions(c)
	if err != nil {
		return err
	}

	// Customers only ever see their own orders.
	if !isStaff(c) {
		if opts.Filter == nil {
			opts.Filter = map[string]interface{}{}
		}
		opts.Filter["userId"] = currentUserID(c)
	}

	orders, err := h.service.List(opts)
	if err != nil {
		return err
	}
	return c.JSON(orders)
}

func (h *OrderHandler) Get(c *fiber.Ctx) error {
	id, err := parseEntityID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.service.GetByID(id)
	if err != nil {
		return err
	}
	if !isStaff(c) && order.UserID != currentUserID(c) {
		return apperr.NotFound("order not found")
	}
	return c.JSON(order)
}

func (h *OrderHandler) AdminUpdate(c *fiber.Ctx) error {
	id, err := parseEntityID(c, "id")
	if err != nil {
		return err
	}

	var req service.AdminOrderUpdate
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid JSON body")
	}

	order, err := h.service.AdminUpdate(id, &req)
	if err != nil {
		return err
	}
	return c.JSON(order)
}

func (h *OrderHandler) CustomerUpdate(c *fiber.Ctx) error {
	id, err := parseEntityID(c, "id")
	if err != nil {
		return err
	}

	var req service.CustomerOrderUpdate
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid JSON body")
	}

	order, err := h.service.CustomerUpdate(id, currentUserID(c), &req)
	if err != nil {
		return err
	}
	return c.JSON(order)
}

func (h *OrderHandler) CustomerCancel(c *fiber.Ctx) error {
	id, err := parseEntityID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.service.CustomerCancel(id, currentUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(order)
}

func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	id, err := parseEntityID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Delete(id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Order deleted"})
}
