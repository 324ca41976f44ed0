package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm/logger"

	"github.com/example/bakery/internal/database"
	"github.com/example/bakery/internal/metrics"
	"github.com/example/bakery/internal/models"
)

type fixture struct {
	store     database.Store
	metrics   *metrics.Metrics
	menus     *MenuService
	classes   *MenuClassService
	shippings *ShippingService
	orders    *OrderService
	cart      *CartManager
}

func newTestStore(t *testing.T) database.Store {
	t.Helper()
	conn, err := database.OpenSQL("sqlite", ":memory:", logger.Silent)
	require.NoError(t, err)
	store, err := database.NewSQLStore(conn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, newTestStore(t), nil)
}

func newFixtureWith(t *testing.T, store database.Store, notifier OrderNotifier) *fixture {
	t.Helper()
	m := metrics.New()
	sync := NewSynchronizer(store, m)
	orders := NewOrderService(store, sync, notifier)
	return &fixture{
		store:     store,
		metrics:   m,
		menus:     NewMenuService(store, sync),
		classes:   NewMenuClassService(store),
		shippings: NewShippingService(store, sync),
		orders:    orders,
		cart:      NewCartManager(store),
	}
}

// user stores a signed-in user whose session token is live for an hour.
func (f *fixture) user(t *testing.T, email, token string) models.User {
	t.Helper()
	expiration := time.Now().Add(time.Hour)
	user := models.User{
		Name:            "tester",
		Email:           email,
		Phone:           models.DefaultPhone,
		Token:           token,
		TokenExpiration: &expiration,
		Mileage:         1000,
	}
	require.NoError(t, f.store.Insert(context.Background(), database.Users, &user))
	return user
}

func (f *fixture) class(t *testing.T, name string) *models.MenuClass {
	t.Helper()
	class, err := f.classes.Create(context.Background(), name, name+" of the day", "")
	require.NoError(t, err)
	return class
}

func (f *fixture) menu(t *testing.T, class *models.MenuClass, name string, price int) *models.Menu {
	t.Helper()
	stock := 10
	menu, err := f.menus.Create(context.Background(), CreateMenuInput{
		Name:        name,
		Price:       price,
		Tag:         "best",
		MenuClassID: class.ID.Hex(),
		Stock:       &stock,
	})
	require.NoError(t, err)
	return menu
}

func (f *fixture) shipping(t *testing.T, owner models.User) *models.Shipping {
	t.Helper()
	name, phone, address := "home", "01012345678", "1 Bakery Road"
	shipping, err := f.shippings.Create(context.Background(), owner.ID.Hex(), ShippingInput{
		Name:    &name,
		Phone:   &phone,
		Address: &address,
	})
	require.NoError(t, err)
	return shipping
}

func (f *fixture) loadUser(t *testing.T, id primitive.ObjectID) models.User {
	t.Helper()
	var user models.User
	require.NoError(t, f.store.FindByID(context.Background(), database.Users, id, &user))
	return user
}

func (f *fixture) loadClass(t *testing.T, id primitive.ObjectID) models.MenuClass {
	t.Helper()
	var class models.MenuClass
	require.NoError(t, f.store.FindByID(context.Background(), database.MenuClasses, id, &class))
	return class
}

func requireRequestError(t *testing.T, err error, message string) {
	t.Helper()
	require.Error(t, err)
	require.True(t, IsRequestError(err), "expected a request error, got %v", err)
	require.EqualError(t, err, message)
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, c.Write(&metric))
	return metric.GetCounter().GetValue()
}

// failingEmbeds rejects every embedded-array write.
type failingEmbeds struct {
	database.Store
}

func (failingEmbeds) PushEmbedded(context.Context, database.Collection, primitive.ObjectID, string, any) error {
	return errEmbeddedWrite
}

func (failingEmbeds) SetEmbedded(context.Context, database.Collection, string, primitive.ObjectID, database.Fields) (int64, error) {
	return 0, errEmbeddedWrite
}

func (failingEmbeds) PullEmbedded(context.Context, database.Collection, string, primitive.ObjectID) (int64, error) {
	return 0, errEmbeddedWrite
}

var errEmbeddedWrite = errors.New("owner unavailable")
