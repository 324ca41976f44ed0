package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/bakery/internal/models"
	"github.com/example/bakery/internal/services"
)

// MenuHandler exposes menu CRUD endpoints.
type MenuHandler struct {
	menus   *services.MenuService
	timeout time.Duration
}

// NewMenuHandler constructs MenuHandler.
func NewMenuHandler(menus *services.MenuService, timeout time.Duration) *MenuHandler {
	return &MenuHandler{menus: menus, timeout: timeout}
}

type menuRequest struct {
	Name        *string              `json:"name"`
	Price       *int                 `json:"price"`
	Tag         *string              `json:"tag"`
	MenuClassID string               `json:"menuClassId"`
	Stock       *int                 `json:"stock"`
	OrderType   *string              `json:"orderType"`
	IsPickup    *bool                `json:"isPickup"`
	IsDelivery  *bool                `json:"isDelivery"`
	IsPresent   *bool                `json:"isPresent"`
	ImageURL    *string              `json:"imageUrl"`
	Intro       *string              `json:"intro"`
	Options     *[]models.MenuOption `json:"options"`
}

// ListMenus returns the whole catalog.
func (h *MenuHandler) ListMenus(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	menus, err := h.menus.List(ctx)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"menu": menus})
}

// GetMenu returns one menu or null.
func (h *MenuHandler) GetMenu(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	menu, err := h.menus.Get(ctx, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"menu": menu})
}

// CreateMenu adds a menu to a menu class.
func (h *MenuHandler) CreateMenu(c *fiber.Ctx) error {
	var req menuRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	input := services.CreateMenuInput{
		Name:        deref(req.Name),
		Tag:         deref(req.Tag),
		MenuClassID: req.MenuClassID,
		Stock:       req.Stock,
		OrderType:   deref(req.OrderType),
		IsPickup:    deref(req.IsPickup),
		IsDelivery:  deref(req.IsDelivery),
		IsPresent:   deref(req.IsPresent),
		ImageURL:    deref(req.ImageURL),
		Intro:       deref(req.Intro),
		Price:       deref(req.Price),
	}
	if req.Options != nil {
		input.Options = *req.Options
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	menu, err := h.menus.Create(ctx, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"menu": menu})
}

// UpdateMenu changes the provided fields of a menu.
func (h *MenuHandler) UpdateMenu(c *fiber.Ctx) error {
	var req menuRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	menu, err := h.menus.Update(ctx, c.Params("id"), services.UpdateMenuInput{
		Name:       req.Name,
		Price:      req.Price,
		Tag:        req.Tag,
		Stock:      req.Stock,
		OrderType:  req.OrderType,
		IsPickup:   req.IsPickup,
		IsDelivery: req.IsDelivery,
		IsPresent:  req.IsPresent,
		ImageURL:   req.ImageURL,
		Intro:      req.Intro,
		Options:    req.Options,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"menu": menu})
}

// DeleteMenu removes a menu from the catalog.
func (h *MenuHandler) DeleteMenu(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	menu, err := h.menus.Delete(ctx, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"menu": menu})
}

// RegisterMenuRoutes mounts the menu endpoints on router.
func (h *MenuHandler) RegisterMenuRoutes(router fiber.Router) {
	router.Get("/", h.ListMenus)
	router.Get("/:id", h.GetMenu)
	router.Post("/", h.CreateMenu)
	router.Patch("/:id", h.UpdateMenu)
	router.Delete("/:id", h.DeleteMenu)
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
