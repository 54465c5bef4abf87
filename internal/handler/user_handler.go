package handler

import (
	"go-storefront-api/internal/apperr"
	"go-storefront-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	service service.UserService
}

func NewUserHandler(s service.UserService) *UserHandler {
	return &UserHandler{service: s}
}

func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	user, err := h.service.GetByID(currentUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	var req service.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid JSON body")
	}
	user, err := h.service.UpdateProfile(currentUserID(c), &req)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	users, err := h.service.List()
	if err != nil {
		return err
	}
	return c.JSON(users)
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, err := parseEntityID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.service.GetByID(id)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	id, err := parseEntityID(c, "id")
	if err != nil {
		return err
	}
	var req service.AdminUserUpdate
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid JSON body")
	}
	user, err := h.service.AdminUpdate(id, &req)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, err := parseEntityID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Delete(id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "User deleted"})
}
