package handler

import (
	"go-storefront-api/internal/apperr"
	"go-storefront-api/internal/model"
	"go-storefront-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type PromoHandler struct {
	service service.PromoService
}

func NewPromoHandler(s service.PromoService) *PromoHandler {
	return &PromoHandler{service: s}
}

func (h *PromoHandler) Validate(c *fiber.Ctx) error {
	promo, err := h.service.Validate(c.Params("code"))
	if err != nil {
		return err
	}
	return c.JSON(promo)
}

func (h *PromoHandler) Create(c *fiber.Ctx) error {
	var promo model.PromoCode
	if err := c.BodyParser(&promo); err != nil {
		return apperr.Validation("invalid JSON body")
	}
	created, err := h.service.Create(&promo)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *PromoHandler) List(c *fiber.Ctx) error {
	promos, err := h.service.List()
	if err != nil {
		return err
	}
	return c.JSON(promos)
}

func (h *PromoHandler) Delete(c *fiber.Ctx) error {
	id, err := parseEntityID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Delete(id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Promo code deleted"})
}
