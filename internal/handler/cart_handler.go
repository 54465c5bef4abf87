package handler

import (
	"go-storefront-api/internal/apperr"
	"go-storefront-api/internal/model"
	"go-storefront-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CartHandler struct {
	service service.CartService
}

func NewCartHandler(s service.CartService) *CartHandler {
	return &CartHandler{service: s}
}

func (h *CartHandler) Get(c *fiber.Ctx) error {
	items, err := h.service.Get(currentUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(items)
}

func (h *CartHandler) Replace(c *fiber.Ctx) error {
	var items []model.CartItem
	if err := c.BodyParser(&items); err != nil {
		return apperr.Validation("invalid JSON body")
	}
	saved, err := h.service.Replace(currentUserID(c), items)
	if err != nil {
		return err
	}
	return c.JSON(saved)
}

// Merge folds the client-held cart into the server cart on login.
func (h *CartHandler) Merge(c *fiber.Ctx) error {
	var items []model.CartItem
	if err := c.BodyParser(&items); err != nil {
		return apperr.Validation("invalid JSON body")
	}
	merged, err := h.service.Merge(currentUserID(c), items)
	if err != nil {
		return err
	}
	return c.JSON(merged)
}

func (h *CartHandler) Revalidate(c *fiber.Ctx) error {
	items, err := h.service.Revalidate(currentUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(items)
}
