package handler

import (
	"go-storefront-api/internal/apperr"
	"go-storefront-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	service service.AuthService
}

func NewAuthHandler(s service.AuthService) *AuthHandler {
	return &AuthHandler{service: s}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req service.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid JSON body")
	}
	user, err := h.service.Register(&req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid JSON body")
	}
	resp, err := h.service.Login(&req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
