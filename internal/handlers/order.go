package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/bakery/internal/services"
)

// OrderHandler manages order endpoints, including the legacy personal orders.
type OrderHandler struct {
	orders   *services.OrderService
	personal *services.PersonalOrderService
	timeout  time.Duration
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(orders *services.OrderService, personal *services.PersonalOrderService, timeout time.Duration) *OrderHandler {
	return &OrderHandler{orders: orders, personal: personal, timeout: timeout}
}

type orderLineRequest struct {
	MenuID   string `json:"menuId"`
	Quantity int    `json:"quantity"`
	Option   string `json:"option"`
}

type createOrderRequest struct {
	Product      []orderLineRequest `json:"product"`
	ShippingID   string             `json:"shippingId"`
	MileageUse   int                `json:"mileageUse"`
	Coupon       string             `json:"coupon"`
	Payment      string             `json:"payment"`
	DeliveryDate *time.Time         `json:"deliveryDate"`
	PickupDate   *time.Time         `json:"pickupDate"`
	Type         string             `json:"type"`
	Status       string             `json:"status"`
	OrderPrice   int                `json:"orderPrice"`
	PayedMoney   int                `json:"payedMoney"`
}

type updateOrderRequest struct {
	ShippingID   *string    `json:"shippingId"`
	Status       *string    `json:"status"`
	DeliveryDate *time.Time `json:"deliveryDate"`
	PickupDate   *time.Time `json:"pickupDate"`
}

type createPersonalOrderRequest struct {
	Product    []orderLineRequest `json:"product"`
	OrdererID  string             `json:"ordererId"`
	ShippingID string             `json:"shippingId"`
	MileageUse int                `json:"mileageUse"`
	Coupon     string             `json:"coupon"`
	Payment    string             `json:"payment"`
	Status     string             `json:"status"`
}

func lineInputs(lines []orderLineRequest) []services.OrderLineInput {
	out := make([]services.OrderLineInput, 0, len(lines))
	for _, l := range lines {
		out = append(out, services.OrderLineInput{
			MenuID:   l.MenuID,
			Quantity: l.Quantity,
			Option:   l.Option,
		})
	}
	return out
}

// ListOrders returns every order.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	orders, err := h.orders.List(ctx)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"order": orders})
}

// GetOrder returns one order or null.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	order, err := h.orders.Get(ctx, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"order": order})
}

// CreateOrder places an order for the user in the path.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req createOrderRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	order, err := h.orders.Create(ctx, c.Params("ordererId"), services.CreateOrderInput{
		Product:      lineInputs(req.Product),
		ShippingID:   req.ShippingID,
		MileageUse:   req.MileageUse,
		Coupon:       req.Coupon,
		Payment:      req.Payment,
		DeliveryDate: req.DeliveryDate,
		PickupDate:   req.PickupDate,
		Type:         req.Type,
		Status:       req.Status,
		OrderPrice:   req.OrderPrice,
		PayedMoney:   req.PayedMoney,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"order": order})
}

// UpdateOrder changes shipping, status or dates of an order.
func (h *OrderHandler) UpdateOrder(c *fiber.Ctx) error {
	var req updateOrderRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	order, err := h.orders.Update(ctx, c.Params("id"), services.UpdateOrderInput{
		ShippingID:   req.ShippingID,
		Status:       req.Status,
		DeliveryDate: req.DeliveryDate,
		PickupDate:   req.PickupDate,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"order": order})
}

// DeleteOrder removes an order.
func (h *OrderHandler) DeleteOrder(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	order, err := h.orders.Delete(ctx, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"order": order})
}

// ListPersonalOrders returns every personal order.
func (h *OrderHandler) ListPersonalOrders(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	orders, err := h.personal.List(ctx)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"personalOrder": orders})
}

// CreatePersonalOrder stores a personal order.
func (h *OrderHandler) CreatePersonalOrder(c *fiber.Ctx) error {
	var req createPersonalOrderRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	order, err := h.personal.Create(ctx, services.CreatePersonalOrderInput{
		Product:    lineInputs(req.Product),
		OrdererID:  req.OrdererID,
		ShippingID: req.ShippingID,
		MileageUse: req.MileageUse,
		Coupon:     req.Coupon,
		Payment:    req.Payment,
		Status:     req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"personalOrder": order})
}
