package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/example/bakery/internal/database"
	"github.com/example/bakery/internal/models"
)

type recordingNotifier struct {
	sent chan OrderNotification
}

func (n *recordingNotifier) NotifyNewOrder(order OrderNotification) error {
	n.sent <- order
	return nil
}

func TestShippingLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "kim@example.com", "session-1")

	shipping := f.shipping(t, owner)
	assert.Equal(t, owner.ID, shipping.User)
	assert.Equal(t, "home", shipping.Tag)

	stored := f.loadUser(t, owner.ID)
	require.Len(t, stored.Shippings, 1)
	assert.Equal(t, shipping.ID, stored.Shippings[0].ID)

	list, err := f.shippings.ListByUser(ctx, owner.ID.Hex())
	require.NoError(t, err)
	require.Len(t, list, 1)

	address := "2 Oven Street"
	_, err = f.shippings.Update(ctx, shipping.ID.Hex(), "wrong", ShippingInput{Address: &address})
	requireRequestError(t, err, "token is wrong")
	_, err = f.shippings.Update(ctx, shipping.ID.Hex(), "", ShippingInput{Address: &address})
	requireRequestError(t, err, "token is required")

	updated, err := f.shippings.Update(ctx, shipping.ID.Hex(), "session-1", ShippingInput{Address: &address})
	require.NoError(t, err)
	assert.Equal(t, "2 Oven Street", updated.Address)
	assert.Equal(t, "2 Oven Street", f.loadUser(t, owner.ID).Shippings[0].Address)

	missing, err := f.shippings.Update(ctx, primitive.NewObjectID().Hex(), "session-1", ShippingInput{Address: &address})
	require.NoError(t, err)
	assert.Nil(t, missing)

	deleted, err := f.shippings.Delete(ctx, shipping.ID.Hex(), "session-1")
	require.NoError(t, err)
	assert.Equal(t, shipping.ID, deleted.ID)
	assert.Empty(t, f.loadUser(t, owner.ID).Shippings)

	_, err = f.shippings.Delete(ctx, shipping.ID.Hex(), "session-1")
	requireRequestError(t, err, "invalid shipping")
}

func TestShippingCreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	name, phone, address := "home", "010", "road"

	_, err := f.shippings.Create(ctx, "", ShippingInput{Name: &name, Phone: &phone, Address: &address})
	requireRequestError(t, err, "userId is required")
	_, err = f.shippings.Create(ctx, primitive.NewObjectID().Hex(), ShippingInput{Phone: &phone, Address: &address})
	requireRequestError(t, err, "name is required")
	_, err = f.shippings.Create(ctx, primitive.NewObjectID().Hex(), ShippingInput{Name: &name, Phone: &phone, Address: &address})
	requireRequestError(t, err, "no matched user")

	all, err := f.shippings.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestOrderLifecycle(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{sent: make(chan OrderNotification, 1)}
	f := newFixtureWith(t, newTestStore(t), notifier)

	class := f.class(t, "bread")
	bagel := f.menu(t, class, "bagel", 2000)
	orderer := f.user(t, "kim@example.com", "session-1")
	shipping := f.shipping(t, orderer)

	order, err := f.orders.Create(ctx, orderer.ID.Hex(), CreateOrderInput{
		Product:    []OrderLineInput{{MenuID: bagel.ID.Hex(), Quantity: 3, Option: "sesame"}},
		ShippingID: shipping.ID.Hex(),
		MileageUse: 500,
		Payment:    "card",
		OrderPrice: 6000,
		PayedMoney: 5500,
	})
	require.NoError(t, err)
	assert.Equal(t, "personal", order.Type)
	assert.Equal(t, "paid", order.Status)
	assert.Equal(t, orderer.ID, order.Orderer.ID)
	assert.Equal(t, shipping.Address, order.Shipping.Address)
	require.Len(t, order.Product, 1)
	assert.Equal(t, 3, order.Product[0].Quantity)
	assert.Equal(t, "sesame", order.Product[0].Option)
	assert.Equal(t, 3, order.ItemCount())

	select {
	case sent := <-notifier.sent:
		assert.Equal(t, order.ID.Hex(), sent.OrderID)
		assert.Equal(t, 6000, sent.OrderPrice)
		assert.Equal(t, 3, sent.ItemCount)
		require.Len(t, sent.Items, 1)
		assert.Equal(t, "bagel", sent.Items[0].Name)
	case <-time.After(time.Second):
		t.Fatal("order notification was not sent")
	}

	stored := f.loadUser(t, orderer.ID)
	require.Len(t, stored.Orders, 1)
	assert.Equal(t, order.ID, stored.Orders[0].ID)

	status := "shipped"
	updated, err := f.orders.Update(ctx, order.ID.Hex(), UpdateOrderInput{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "shipped", updated.Status)
	assert.Equal(t, "shipped", f.loadUser(t, orderer.ID).Orders[0].Status)

	empty := ""
	_, err = f.orders.Update(ctx, order.ID.Hex(), UpdateOrderInput{Status: &empty})
	requireRequestError(t, err, "status is required")

	deleted, err := f.orders.Delete(ctx, order.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, order.ID, deleted.ID)
	assert.Empty(t, f.loadUser(t, orderer.ID).Orders)

	_, err = f.orders.Delete(ctx, order.ID.Hex())
	requireRequestError(t, err, "invalid order")
}

func TestOrderCreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	class := f.class(t, "bread")
	bagel := f.menu(t, class, "bagel", 2000)
	orderer := f.user(t, "kim@example.com", "session-1")
	shipping := f.shipping(t, orderer)

	valid := func() CreateOrderInput {
		return CreateOrderInput{
			Product:    []OrderLineInput{{MenuID: bagel.ID.Hex(), Quantity: 1}},
			ShippingID: shipping.ID.Hex(),
			Payment:    "card",
			OrderPrice: 2000,
			PayedMoney: 2000,
		}
	}

	tests := []struct {
		name    string
		orderer string
		mutate  func(*CreateOrderInput)
		want    string
	}{
		{"no product", orderer.ID.Hex(), func(in *CreateOrderInput) { in.Product = nil }, "product is required"},
		{"no orderer", "", func(*CreateOrderInput) {}, "ordererId is required"},
		{"malformed orderer", "nope", func(*CreateOrderInput) {}, "invalid orderer id"},
		{"no shipping", orderer.ID.Hex(), func(in *CreateOrderInput) { in.ShippingID = "" }, "shippingId is required"},
		{"no payment", orderer.ID.Hex(), func(in *CreateOrderInput) { in.Payment = "" }, "payment is required"},
		{"unknown orderer", primitive.NewObjectID().Hex(), func(*CreateOrderInput) {}, "invalid orderer"},
		{"no price", orderer.ID.Hex(), func(in *CreateOrderInput) { in.OrderPrice = 0 }, "orderPrice is required"},
		{"too much mileage", orderer.ID.Hex(), func(in *CreateOrderInput) { in.MileageUse = 5000 }, "mileage use should not be more than the order's mileage"},
		{"unknown shipping", orderer.ID.Hex(), func(in *CreateOrderInput) { in.ShippingID = primitive.NewObjectID().Hex() }, "invalid shipping"},
		{"unknown menu", orderer.ID.Hex(), func(in *CreateOrderInput) { in.Product[0].MenuID = primitive.NewObjectID().Hex() }, "invalid menu"},
		{"zero quantity", orderer.ID.Hex(), func(in *CreateOrderInput) { in.Product[0].Quantity = 0 }, "quantity is required"},
		{"malformed coupon", orderer.ID.Hex(), func(in *CreateOrderInput) { in.Coupon = "nope" }, "invalid coupon id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := valid()
			tt.mutate(&input)
			_, err := f.orders.Create(ctx, tt.orderer, input)
			requireRequestError(t, err, tt.want)
		})
	}

	orders, err := f.orders.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Empty(t, f.loadUser(t, orderer.ID).Orders)
}

func TestPersonalOrderIsNotEmbedded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	personal := NewPersonalOrderService(f.store, f.orders)

	class := f.class(t, "bread")
	bagel := f.menu(t, class, "bagel", 2000)
	orderer := f.user(t, "kim@example.com", "session-1")
	shipping := f.shipping(t, orderer)

	_, err := personal.Create(ctx, CreatePersonalOrderInput{
		Product:   []OrderLineInput{{MenuID: bagel.ID.Hex(), Quantity: 1}},
		OrdererID: orderer.ID.Hex(),
		Payment:   "card",
	})
	requireRequestError(t, err, "shipping is required")

	order, err := personal.Create(ctx, CreatePersonalOrderInput{
		Product:    []OrderLineInput{{MenuID: bagel.ID.Hex(), Quantity: 2}},
		OrdererID:  orderer.ID.Hex(),
		ShippingID: shipping.ID.Hex(),
		Payment:    "card",
	})
	require.NoError(t, err)
	assert.Equal(t, "paid", order.Status)
	assert.Equal(t, orderer.ID, order.Orderer)

	list, err := personal.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, order.ID, list[0].ID)
	assert.Empty(t, f.loadUser(t, orderer.ID).Orders)
}

func TestSyncGapIsCountedAndPrimaryWriteKept(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	f := newFixtureWith(t, failingEmbeds{Store: store}, nil)
	class := f.class(t, "bread")

	menu := f.menu(t, class, "bagel", 2000)

	var stored models.Menu
	require.NoError(t, store.FindByID(ctx, database.Menus, menu.ID, &stored))
	assert.Empty(t, f.loadClass(t, class.ID).Menus)
	assert.Equal(t, float64(1), counterValue(t, f.metrics.SyncGaps.WithLabelValues("menu", "create")))

	_, err := f.menus.Delete(ctx, menu.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, float64(1), counterValue(t, f.metrics.SyncGaps.WithLabelValues("menu", "delete")))
}

// offlineStore fails every read.
type offlineStore struct {
	database.Store
}

func (offlineStore) FindByID(context.Context, database.Collection, primitive.ObjectID, any) error {
	return errStoreOffline
}

func (offlineStore) FindOne(context.Context, database.Collection, database.Filter, any) error {
	return errStoreOffline
}

var errStoreOffline = errors.New("store offline")

func TestPresenceChecksRunBeforeStoreReads(t *testing.T) {
	ctx := context.Background()
	f := newFixtureWith(t, offlineStore{Store: newTestStore(t)}, nil)
	id := primitive.NewObjectID().Hex()

	input := CreateOrderInput{
		Product:    []OrderLineInput{{MenuID: id, Quantity: 1}},
		ShippingID: id,
		Payment:    "card",
		PayedMoney: 2000,
	}
	_, err := f.orders.Create(ctx, id, input)
	requireRequestError(t, err, "orderPrice is required")

	input.OrderPrice = 2000
	input.PayedMoney = 0
	_, err = f.orders.Create(ctx, id, input)
	requireRequestError(t, err, "payedMoney is required")

	input.PayedMoney = 2000
	input.MileageUse = -1
	_, err = f.orders.Create(ctx, id, input)
	requireRequestError(t, err, "mileageUse must not be negative")

	input.MileageUse = 0
	_, err = f.orders.Create(ctx, id, input)
	assert.ErrorIs(t, err, errStoreOffline)

	empty := ""
	for i := 0; i < 5; i++ {
		_, err = f.shippings.Update(ctx, id, "session-1", ShippingInput{Name: &empty, Phone: &empty, Address: &empty})
		requireRequestError(t, err, "name is required")
	}
	_, err = f.shippings.Update(ctx, id, "session-1", ShippingInput{Phone: &empty, Address: &empty})
	requireRequestError(t, err, "phone is required")

	tag := "office"
	_, err = f.shippings.Update(ctx, id, "session-1", ShippingInput{Tag: &tag})
	assert.ErrorIs(t, err, errStoreOffline)
}
