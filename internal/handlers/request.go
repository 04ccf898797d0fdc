package handlers

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// parseBody decodes and validates the JSON body. The returned message is
// empty on success.
func parseBody(c *fiber.Ctx, dst any) string {
	if err := c.BodyParser(dst); err != nil {
		return "Invalid request body"
	}
	return validateStruct(dst)
}

func validateStruct(value any) string {
	err := validate.Struct(value)
	if err == nil {
		return ""
	}
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
		return fieldErrors[0].Field() + " is invalid"
	}
	return "Invalid request body"
}

func actorFromLocals(c *fiber.Ctx) (int64, string, bool) {
	role, ok := c.Locals("role").(string)
	if !ok || role == "" {
		return 0, "", false
	}
	actorID, err := parseProfileUserID(c)
	if err != nil || actorID <= 0 {
		return 0, "", false
	}
	return actorID, role, true
}

func parseProfileUserID(c *fiber.Ctx) (int64, error) {
	userIDValue := c.Locals("user_id")
	userIDStr, ok := userIDValue.(string)
	if !ok {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(userIDStr, 10, 64)
}

func parseIDParam(c *fiber.Ctx, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func parseTimeQuery(c *fiber.Ctx, name string) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	parsed, err := parseFlexibleTime(raw)
	if err != nil {
		return nil, false
	}
	return &parsed, true
}

// parseFlexibleTime accepts RFC3339 timestamps and plain YYYY-MM-DD dates.
func parseFlexibleTime(raw string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, nil
	}
	return time.Parse(time.DateOnly, raw)
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}
