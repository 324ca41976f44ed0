package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/bakery/internal/services"
)

// ShippingHandler exposes the shipping address endpoints.
type ShippingHandler struct {
	shippings *services.ShippingService
	timeout   time.Duration
}

// NewShippingHandler constructs ShippingHandler.
func NewShippingHandler(shippings *services.ShippingService, timeout time.Duration) *ShippingHandler {
	return &ShippingHandler{shippings: shippings, timeout: timeout}
}

type shippingRequest struct {
	Token         string  `json:"token"`
	Name          *string `json:"name"`
	Phone         *string `json:"phone"`
	Address       *string `json:"address"`
	AddressDetail *string `json:"addressDetail"`
	Request       *string `json:"request"`
	Tag           *string `json:"tag"`
}

func (r shippingRequest) input() services.ShippingInput {
	return services.ShippingInput{
		Name:          r.Name,
		Phone:         r.Phone,
		Address:       r.Address,
		AddressDetail: r.AddressDetail,
		Request:       r.Request,
		Tag:           r.Tag,
	}
}

// ListShippings returns every shipping address.
func (h *ShippingHandler) ListShippings(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	shippings, err := h.shippings.List(ctx)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"shipping": shippings})
}

// ListUserShippings returns the addresses of one user.
func (h *ShippingHandler) ListUserShippings(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	shippings, err := h.shippings.ListByUser(ctx, c.Params("userId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"shipping": shippings})
}

// CreateShipping adds an address for a user.
func (h *ShippingHandler) CreateShipping(c *fiber.Ctx) error {
	var req shippingRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	shipping, err := h.shippings.Create(ctx, c.Params("userId"), req.input())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"shipping": shipping})
}

// UpdateShipping changes an address of the token's owner.
func (h *ShippingHandler) UpdateShipping(c *fiber.Ctx) error {
	var req shippingRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	shipping, err := h.shippings.Update(ctx, c.Params("id"), sessionToken(c, req.Token), req.input())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"shipping": shipping})
}

// DeleteShipping removes an address of the token's owner.
func (h *ShippingHandler) DeleteShipping(c *fiber.Ctx) error {
	var req tokenRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	shipping, err := h.shippings.Delete(ctx, c.Params("id"), sessionToken(c, req.Token))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"shipping": shipping})
}
