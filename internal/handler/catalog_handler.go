package handler

import (
	"go-storefront-api/internal/apperr"
	"go-storefront-api/internal/model"
	"go-storefront-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CatalogHandler struct {
	service service.CatalogService
}

func NewCatalogHandler(s service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: s}
}

func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	opts, err := parseListOptions(c)
	if err != nil {
		return err
	}
	products, err := h.service.ListProducts(opts)
	if err != nil {
		return err
	}
	return c.JSON(products)
}

func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	id, err := parseEntityID(c, "id")
	if err != nil {
		return err
	}
	product, err := h.service.GetProduct(id)
	if err != nil {
		return err
	}
	return c.JSON(product)
}

func (h *CatalogHandler) GetProductBySlug(c *fiber.Ctx) error {
	product, err := h.service.GetProductBySlug(c.Params("slug"))
	if err != nil {
		return err
	}
	return c.JSON(product)
}

func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	var product model.Product
	if err := c.BodyParser(&product); err != nil {
		return apperr.Validation("invalid JSON body")
	}
	created, err := h.service.CreateProduct(&product)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *CatalogHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := parseEntityID(c, "id")
	if err != nil {
		return err
	}
	var product model.Product
	if err := c.BodyParser(&product); err != nil {
		return apperr.Validation("invalid JSON body")
	}
	updated, err := h.service.UpdateProduct(id, &product)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

func (h *CatalogHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := parseEntityID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteProduct(id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Product deleted"})
}

func (h *CatalogHandler) ApplyDiscount(c *fiber.Ctx) error {
	var req service.ApplyDiscountRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid JSON body")
	}
	if err := h.service.ApplyDiscount(&req); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Discount applied"})
}

func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.service.ListCategories()
	if err != nil {
		return err
	}
	return c.JSON(categories)
}

func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var category model.Category
	if err := c.BodyParser(&category); err != nil {
		return apperr.Validation("invalid JSON body")
	}
	created, err := h.service.CreateCategory(&category)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}
