package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/bakery/internal/services"
)

// MenuClassHandler exposes menu class CRUD endpoints.
type MenuClassHandler struct {
	classes *services.MenuClassService
	timeout time.Duration
}

// NewMenuClassHandler constructs MenuClassHandler.
func NewMenuClassHandler(classes *services.MenuClassService, timeout time.Duration) *MenuClassHandler {
	return &MenuClassHandler{classes: classes, timeout: timeout}
}

type menuClassRequest struct {
	Name      *string `json:"name"`
	Intro     *string `json:"intro"`
	OrderType *string `json:"orderType"`
}

// ListMenuClasses returns every menu class.
func (h *MenuClassHandler) ListMenuClasses(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	classes, err := h.classes.List(ctx)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"menuClass": classes})
}

// GetMenuClass returns one menu class or null.
func (h *MenuClassHandler) GetMenuClass(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	class, err := h.classes.Get(ctx, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"menuClass": class})
}

// CreateMenuClass adds a menu class.
func (h *MenuClassHandler) CreateMenuClass(c *fiber.Ctx) error {
	var req menuClassRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	class, err := h.classes.Create(ctx, deref(req.Name), deref(req.Intro), deref(req.OrderType))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"menuClass": class})
}

// UpdateMenuClass changes the provided fields of a menu class.
func (h *MenuClassHandler) UpdateMenuClass(c *fiber.Ctx) error {
	var req menuClassRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	class, err := h.classes.Update(ctx, c.Params("id"), services.UpdateMenuClassInput{
		Name:      req.Name,
		Intro:     req.Intro,
		OrderType: req.OrderType,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"menuClass": class})
}

// DeleteMenuClass removes an empty menu class.
func (h *MenuClassHandler) DeleteMenuClass(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	class, err := h.classes.Delete(ctx, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"menuClass": class})
}
