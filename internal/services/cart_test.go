package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/example/bakery/internal/models"
)

func TestApplyDelta(t *testing.T) {
	menu := models.Menu{BaseModel: models.BaseModel{ID: primitive.NewObjectID()}, Name: "bagel", Price: 2000}

	var user models.User
	applyDelta(&user, menu, 2)
	require.Len(t, user.Cart, 1)
	assert.Equal(t, 2, user.Cart[0].Quantity)
	assert.True(t, user.Cart[0].IsChecked)

	applyDelta(&user, menu, 3)
	require.Len(t, user.Cart, 1)
	assert.Equal(t, 5, user.Cart[0].Quantity)

	applyDelta(&user, menu, -5)
	assert.Empty(t, user.Cart)

	applyDelta(&user, menu, -1)
	assert.Empty(t, user.Cart)

	applyDelta(&user, menu, 1)
	assert.True(t, removeEntry(&user, menu.ID))
	assert.False(t, removeEntry(&user, menu.ID))
	assert.Empty(t, user.Cart)
}

func TestAddToCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	class := f.class(t, "bread")
	bagel := f.menu(t, class, "bagel", 2000)
	user := f.user(t, "kim@example.com", "session-1")

	got, err := f.cart.AddToCart(ctx, "session-1", bagel.ID.Hex(), 2)
	require.NoError(t, err)
	require.Len(t, got.Cart, 1)
	assert.Equal(t, 2, got.Cart[0].Quantity)
	assert.Empty(t, got.Token)

	stored := f.loadUser(t, user.ID)
	require.Len(t, stored.Cart, 1)
	assert.Equal(t, bagel.ID, stored.Cart[0].ID)
	assert.Equal(t, 2, stored.Cart[0].Quantity)
	assert.Equal(t, "session-1", stored.Token)

	got, err = f.cart.AddToCart(ctx, "session-1", bagel.ID.Hex(), -5)
	require.NoError(t, err)
	assert.Empty(t, got.Cart)
	assert.Empty(t, f.loadUser(t, user.ID).Cart)

	got, err = f.cart.AddToCart(ctx, "session-1", bagel.ID.Hex(), -1)
	require.NoError(t, err)
	assert.Empty(t, got.Cart)
}

func TestAddToCartRejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	class := f.class(t, "bread")
	bagel := f.menu(t, class, "bagel", 2000)
	user := f.user(t, "kim@example.com", "session-1")

	_, err := f.cart.AddToCart(ctx, "", bagel.ID.Hex(), 1)
	requireRequestError(t, err, "token is required")
	_, err = f.cart.AddToCart(ctx, "session-1", "", 1)
	requireRequestError(t, err, "menuId is required")
	_, err = f.cart.AddToCart(ctx, "session-1", bagel.ID.Hex(), 0)
	requireRequestError(t, err, "quantity is required")
	_, err = f.cart.AddToCart(ctx, "other", bagel.ID.Hex(), 1)
	requireRequestError(t, err, "no matched user")
	_, err = f.cart.AddToCart(ctx, "session-1", primitive.NewObjectID().Hex(), 1)
	requireRequestError(t, err, "no matched menu")

	f.cart.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = f.cart.AddToCart(ctx, "session-1", bagel.ID.Hex(), 1)
	requireRequestError(t, err, "token is expired")

	assert.Empty(t, f.loadUser(t, user.ID).Cart)
}

func TestCartCheckAndRemove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	class := f.class(t, "bread")
	bagel := f.menu(t, class, "bagel", 2000)
	baguette := f.menu(t, class, "baguette", 4000)
	user := f.user(t, "kim@example.com", "session-1")

	_, err := f.cart.AddToCart(ctx, "session-1", bagel.ID.Hex(), 1)
	require.NoError(t, err)
	_, err = f.cart.AddToCart(ctx, "session-1", baguette.ID.Hex(), 1)
	require.NoError(t, err)

	got, err := f.cart.SetChecked(ctx, "session-1", bagel.ID.Hex(), false, false)
	require.NoError(t, err)
	require.Len(t, got.Cart, 2)
	assert.False(t, got.Cart[0].IsChecked)
	assert.True(t, got.Cart[1].IsChecked)

	got, err = f.cart.SetChecked(ctx, "session-1", "", false, true)
	require.NoError(t, err)
	for _, entry := range got.Cart {
		assert.False(t, entry.IsChecked)
	}
	for _, entry := range f.loadUser(t, user.ID).Cart {
		assert.False(t, entry.IsChecked)
	}

	_, err = f.cart.SetChecked(ctx, "session-1", "", true, false)
	requireRequestError(t, err, "menuId is required")

	got, err = f.cart.RemoveFromCart(ctx, "session-1", bagel.ID.Hex())
	require.NoError(t, err)
	require.Len(t, got.Cart, 1)
	assert.Equal(t, baguette.ID, got.Cart[0].ID)

	got, err = f.cart.RemoveFromCart(ctx, "session-1", bagel.ID.Hex())
	require.NoError(t, err)
	require.Len(t, got.Cart, 1)

	_, err = f.cart.RemoveFromCart(ctx, "session-1", primitive.NewObjectID().Hex())
	requireRequestError(t, err, "no matched menu")
}

func TestCartKeepsSnapshotAfterCatalogChange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	class := f.class(t, "bread")
	bagel := f.menu(t, class, "bagel", 2000)
	user := f.user(t, "kim@example.com", "session-1")

	_, err := f.cart.AddToCart(ctx, "session-1", bagel.ID.Hex(), 1)
	require.NoError(t, err)

	price := 9000
	_, err = f.menus.Update(ctx, bagel.ID.Hex(), UpdateMenuInput{Price: &price})
	require.NoError(t, err)
	_, err = f.menus.Delete(ctx, bagel.ID.Hex())
	require.NoError(t, err)

	cart := f.loadUser(t, user.ID).Cart
	require.Len(t, cart, 1)
	assert.Equal(t, 2000, cart[0].Price)

	got, err := f.cart.RemoveFromCart(ctx, "session-1", bagel.ID.Hex())
	require.NoError(t, err)
	assert.Empty(t, got.Cart)
}
