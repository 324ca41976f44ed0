package services

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/example/bakery/internal/database"
	"github.com/example/bakery/internal/models"
)

// OrderNotifier is told about every placed order.
type OrderNotifier interface {
	NotifyNewOrder(order OrderNotification) error
}

// OrderService places and manages orders. Each order is mirrored into the
// orders array of its orderer.
type OrderService struct {
	store    database.Store
	sync     *Synchronizer
	notifier OrderNotifier
}

// NewOrderService constructs OrderService. notifier may be nil.
func NewOrderService(store database.Store, sync *Synchronizer, notifier OrderNotifier) *OrderService {
	return &OrderService{store: store, sync: sync, notifier: notifier}
}

// OrderLineInput references one menu of an order.
type OrderLineInput struct {
	MenuID   string
	Quantity int
	Option   string
}

// CreateOrderInput holds the fields accepted when placing an order.
type CreateOrderInput struct {
	Product      []OrderLineInput
	ShippingID   string
	MileageUse   int
	Coupon       string
	Payment      string
	DeliveryDate *time.Time
	PickupDate   *time.Time
	Type         string
	Status       string
	OrderPrice   int
	PayedMoney   int
}

// UpdateOrderInput holds the optional fields of an order update.
type UpdateOrderInput struct {
	ShippingID   *string
	Status       *string
	DeliveryDate *time.Time
	PickupDate   *time.Time
}

// List returns every order.
func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := s.store.Find(ctx, database.Orders, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Get returns the order or nil when none has that id.
func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	oid, err := parseID(id, "order")
	if err != nil {
		return nil, err
	}
	var order models.Order
	if err := s.store.FindByID(ctx, database.Orders, oid, &order); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// Create places an order for ordererID. Product lines, the orderer and the
// shipping address are snapshotted into the order.
func (s *OrderService) Create(ctx context.Context, ordererID string, input CreateOrderInput) (*models.Order, error) {
	if len(input.Product) == 0 {
		return nil, badRequest("product is required")
	}
	if ordererID == "" {
		return nil, badRequest("ordererId is required")
	}
	ordererOID, err := parseID(ordererID, "orderer")
	if err != nil {
		return nil, err
	}
	if input.ShippingID == "" {
		return nil, badRequest("shippingId is required")
	}
	if input.Payment == "" {
		return nil, badRequest("payment is required")
	}
	if input.OrderPrice <= 0 {
		return nil, badRequest("orderPrice is required")
	}
	if input.PayedMoney <= 0 {
		return nil, badRequest("payedMoney is required")
	}
	if input.MileageUse < 0 {
		return nil, badRequest("mileageUse must not be negative")
	}

	var coupon primitive.ObjectID
	if input.Coupon != "" {
		if coupon, err = parseID(input.Coupon, "coupon"); err != nil {
			return nil, err
		}
	}

	var orderer models.User
	if err := s.store.FindByID(ctx, database.Users, ordererOID, &orderer); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, badRequest("invalid orderer")
		}
		return nil, err
	}
	if input.MileageUse > orderer.Mileage {
		return nil, badRequest("mileage use should not be more than the order's mileage")
	}

	shipping, err := s.shipping(ctx, input.ShippingID)
	if err != nil {
		return nil, err
	}
	product, err := s.lines(ctx, input.Product)
	if err != nil {
		return nil, err
	}

	order := models.Order{
		Product:      product,
		Orderer:      orderer.AsOrderer(),
		Shipping:     *shipping,
		MileageUse:   input.MileageUse,
		Payment:      input.Payment,
		DeliveryDate: input.DeliveryDate,
		PickupDate:   input.PickupDate,
		Type:         input.Type,
		Status:       input.Status,
		OrderPrice:   input.OrderPrice,
		PayedMoney:   input.PayedMoney,
	}
	if input.Coupon != "" {
		order.Coupon = &coupon
	}
	if order.Type == "" {
		order.Type = models.DefaultOrderKind
	}
	if order.Status == "" {
		order.Status = models.OrderStatusPaid
	}

	if err := s.sync.Create(ctx, OrderLink, orderer.ID, &order); err != nil {
		return nil, err
	}

	s.notify(order)
	return &order, nil
}

// Update changes shipping, status or dates on the order and its embedded copy.
// A missing order yields nil without error.
func (s *OrderService) Update(ctx context.Context, id string, input UpdateOrderInput) (*models.Order, error) {
	oid, err := parseID(id, "order")
	if err != nil {
		return nil, err
	}

	set := database.Fields{}
	if input.ShippingID != nil {
		shipping, err := s.shipping(ctx, *input.ShippingID)
		if err != nil {
			return nil, err
		}
		set["shipping"] = *shipping
	}
	if input.Status != nil {
		if *input.Status == "" {
			return nil, badRequest("status is required")
		}
		set["status"] = *input.Status
	}
	if input.DeliveryDate != nil {
		set["deliveryDate"] = *input.DeliveryDate
	}
	if input.PickupDate != nil {
		set["pickupDate"] = *input.PickupDate
	}

	var order models.Order
	if err := s.sync.Update(ctx, OrderLink, oid, set, &order); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// Delete removes the order and its embedded copy.
func (s *OrderService) Delete(ctx context.Context, id string) (*models.Order, error) {
	oid, err := parseID(id, "order")
	if err != nil {
		return nil, err
	}
	var order models.Order
	if err := s.sync.Delete(ctx, OrderLink, oid, &order); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, badRequest("invalid order")
		}
		return nil, err
	}
	return &order, nil
}

func (s *OrderService) shipping(ctx context.Context, id string) (*models.Shipping, error) {
	if id == "" {
		return nil, badRequest("shippingId is required")
	}
	oid, err := parseID(id, "shipping")
	if err != nil {
		return nil, err
	}
	var shipping models.Shipping
	if err := s.store.FindByID(ctx, database.Shippings, oid, &shipping); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, badRequest("invalid shipping")
		}
		return nil, err
	}
	return &shipping, nil
}

// lines resolves each line against the catalog and snapshots the menu.
func (s *OrderService) lines(ctx context.Context, input []OrderLineInput) ([]models.Menu, error) {
	product := make([]models.Menu, 0, len(input))
	for _, line := range input {
		if line.MenuID == "" {
			return nil, badRequest("menuId is required")
		}
		if line.Quantity <= 0 {
			return nil, badRequest("quantity is required")
		}
		id, err := primitive.ObjectIDFromHex(line.MenuID)
		if err != nil {
			return nil, badRequest("invalid menu id")
		}
		var menu models.Menu
		if err := s.store.FindByID(ctx, database.Menus, id, &menu); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return nil, badRequest("invalid menu")
			}
			return nil, err
		}
		snap := menu.Snapshot(line.Quantity)
		snap.Option = line.Option
		product = append(product, snap)
	}
	return product, nil
}

func (s *OrderService) notify(order models.Order) {
	if s.notifier == nil {
		return
	}

	items := make([]OrderItemNotification, 0, len(order.Product))
	for _, p := range order.Product {
		items = append(items, OrderItemNotification{
			Name:     p.Name,
			Option:   p.Option,
			Quantity: p.Quantity,
			Price:    p.Price,
		})
	}
	msg := OrderNotification{
		OrderID:    order.ID.Hex(),
		Items:      items,
		ItemCount:  order.ItemCount(),
		OrderPrice: order.OrderPrice,
		PayedMoney: order.PayedMoney,
		MileageUse: order.MileageUse,
		UserName:   order.Orderer.Username,
		UserPhone:  order.Orderer.Phone,
		Address:    order.Shipping.Address,
		Payment:    order.Payment,
		OrderType:  order.Type,
		Status:     order.Status,
	}

	go func() {
		if err := s.notifier.NotifyNewOrder(msg); err != nil {
			log.Printf("[Order] notification for %s failed: %v", msg.OrderID, err)
		}
	}()
}
