package handler

import (
	"encoding/json"
	"strconv"

	"go-storefront-api/internal/apperr"
	"go-storefront-api/internal/model"
	"go-storefront-api/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// parseEntityID parses a 6-digit identifier route param.
func parseEntityID(c *fiber.Ctx, param string) (int, error) {
	id, err := strconv.Atoi(c.Params(param))
	if err != nil || !repository.IsWellFormedID(id) {
		return 0, apperr.Validation("malformed identifier: " + c.Params(param))
	}
	return id, nil
}

// Session helpers read what the auth middleware stored.
func currentUserID(c *fiber.Ctx) int {
	if id, ok := c.Locals("user_id").(int); ok {
		return id
	}
	return 0
}

func currentUserRole(c *fiber.Ctx) string {
	if role, ok := c.Locals("user_role").(string); ok {
		return role
	}
	return ""
}

func isStaff(c *fiber.Ctx) bool {
	role := currentUserRole(c)
	return role == model.RoleAdmin || role == model.RoleEditor
}

// parseListOptions decodes the filter/sort/limit/skip query surface.
// filter and sort are JSON-encoded objects.
func parseListOptions(c *fiber.Ctx) (repository.ListOptions, error) {
	opts := repository.ListOptions{}

	if raw := c.Query("filter"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts.Filter); err != nil {
			return opts, apperr.Validation("filter must be a JSON object")
		}
	}
	if raw := c.Query("sort"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts.Sort); err != nil {
			return opts, apperr.Validation("sort must be a JSON object")
		}
	}
	opts.Limit = c.QueryInt("limit")
	opts.Skip = c.QueryInt("skip")
	return opts, nil
}
