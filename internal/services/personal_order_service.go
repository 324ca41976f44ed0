package services

import (
	"context"
	"errors"

	"github.com/example/bakery/internal/database"
	"github.com/example/bakery/internal/models"
)

// PersonalOrderService keeps the legacy standalone order records. They are
// not embedded anywhere.
type PersonalOrderService struct {
	store  database.Store
	orders *OrderService
}

// NewPersonalOrderService constructs PersonalOrderService. Product lines and
// shipping addresses are resolved through orders.
func NewPersonalOrderService(store database.Store, orders *OrderService) *PersonalOrderService {
	return &PersonalOrderService{store: store, orders: orders}
}

// CreatePersonalOrderInput holds the fields of a personal order.
type CreatePersonalOrderInput struct {
	Product    []OrderLineInput
	OrdererID  string
	ShippingID string
	MileageUse int
	Coupon     string
	Payment    string
	Status     string
}

// List returns every personal order.
func (s *PersonalOrderService) List(ctx context.Context) ([]models.PersonalOrder, error) {
	var orders []models.PersonalOrder
	if err := s.store.Find(ctx, database.PersonalOrders, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Create stores a personal order.
func (s *PersonalOrderService) Create(ctx context.Context, input CreatePersonalOrderInput) (*models.PersonalOrder, error) {
	if len(input.Product) == 0 {
		return nil, badRequest("product is required")
	}
	if input.OrdererID == "" {
		return nil, badRequest("ordererId is required")
	}
	if input.ShippingID == "" {
		return nil, badRequest("shipping is required")
	}
	if input.Payment == "" {
		return nil, badRequest("payment is required")
	}
	if input.MileageUse < 0 {
		return nil, badRequest("mileageUse must not be negative")
	}

	ordererID, err := parseID(input.OrdererID, "orderer")
	if err != nil {
		return nil, err
	}
	var orderer models.User
	if err := s.store.FindByID(ctx, database.Users, ordererID, &orderer); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, badRequest("invalid orderer")
		}
		return nil, err
	}

	shipping, err := s.orders.shipping(ctx, input.ShippingID)
	if err != nil {
		return nil, err
	}
	product, err := s.orders.lines(ctx, input.Product)
	if err != nil {
		return nil, err
	}

	order := models.PersonalOrder{
		Product:    product,
		Orderer:    orderer.ID,
		Shipping:   *shipping,
		MileageUse: input.MileageUse,
		Payment:    input.Payment,
		Status:     input.Status,
	}
	if input.Coupon != "" {
		coupon, err := parseID(input.Coupon, "coupon")
		if err != nil {
			return nil, err
		}
		order.Coupon = &coupon
	}
	if order.Status == "" {
		order.Status = models.OrderStatusPaid
	}

	if err := s.store.Insert(ctx, database.PersonalOrders, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
