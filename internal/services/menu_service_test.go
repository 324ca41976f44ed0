package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMenuCreateEmbedsOneCopy(t *testing.T) {
	f := newFixture(t)
	class := f.class(t, "bread")

	menu := f.menu(t, class, "croissant", 3500)
	assert.Equal(t, class.ID, menu.MenuClass.ID)
	assert.Equal(t, "bread", menu.MenuClass.Name)
	assert.Equal(t, "delivery", menu.OrderType)
	assert.True(t, menu.IsChecked)

	stored := f.loadClass(t, class.ID)
	require.Len(t, stored.Menus, 1)
	assert.Equal(t, menu.ID, stored.Menus[0].ID)
	assert.Equal(t, 3500, stored.Menus[0].Price)
}

func TestMenuCreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	class := f.class(t, "bread")
	stock := 3

	tests := []struct {
		name  string
		input CreateMenuInput
		want  string
	}{
		{"missing name", CreateMenuInput{Price: 1, Tag: "t", MenuClassID: class.ID.Hex(), Stock: &stock}, "name is required"},
		{"zero price", CreateMenuInput{Name: "n", Tag: "t", MenuClassID: class.ID.Hex(), Stock: &stock}, "price is required"},
		{"missing tag", CreateMenuInput{Name: "n", Price: 1, MenuClassID: class.ID.Hex(), Stock: &stock}, "tag is required"},
		{"missing class", CreateMenuInput{Name: "n", Price: 1, Tag: "t", Stock: &stock}, "menu class id is required"},
		{"missing stock", CreateMenuInput{Name: "n", Price: 1, Tag: "t", MenuClassID: class.ID.Hex()}, "stock is required"},
		{"malformed class", CreateMenuInput{Name: "n", Price: 1, Tag: "t", MenuClassID: "nope", Stock: &stock}, "invalid menu class id"},
		{"unknown class", CreateMenuInput{Name: "n", Price: 1, Tag: "t", MenuClassID: primitive.NewObjectID().Hex(), Stock: &stock}, "invalid menu class"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.menus.Create(ctx, tt.input)
			requireRequestError(t, err, tt.want)
		})
	}

	menus, err := f.menus.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, menus)
	assert.Empty(t, f.loadClass(t, class.ID).Menus)
}

func TestMenuUpdateReachesEmbeddedCopy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	class := f.class(t, "bread")
	bagel := f.menu(t, class, "bagel", 2000)
	baguette := f.menu(t, class, "baguette", 4000)

	price := 2500
	updated, err := f.menus.Update(ctx, bagel.ID.Hex(), UpdateMenuInput{Price: &price})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, 2500, updated.Price)
	assert.Equal(t, "bagel", updated.Name)

	stored := f.loadClass(t, class.ID)
	require.Len(t, stored.Menus, 2)
	assert.Equal(t, 2500, stored.Menus[0].Price)
	assert.Equal(t, baguette.ID, stored.Menus[1].ID)
	assert.Equal(t, 4000, stored.Menus[1].Price)

	negative := -1
	_, err = f.menus.Update(ctx, bagel.ID.Hex(), UpdateMenuInput{Price: &negative})
	requireRequestError(t, err, "price must be positive")

	missing, err := f.menus.Update(ctx, primitive.NewObjectID().Hex(), UpdateMenuInput{Price: &price})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMenuDeleteRemovesEmbeddedCopy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	class := f.class(t, "bread")
	menu := f.menu(t, class, "bagel", 2000)

	deleted, err := f.menus.Delete(ctx, menu.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, menu.ID, deleted.ID)
	assert.Empty(t, f.loadClass(t, class.ID).Menus)

	got, err := f.menus.Get(ctx, menu.ID.Hex())
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = f.menus.Delete(ctx, menu.ID.Hex())
	requireRequestError(t, err, "invalid menu")
}

func TestMenuClassRenamePropagates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	class := f.class(t, "bread")
	menu := f.menu(t, class, "bagel", 2000)

	name := "breads"
	renamed, err := f.classes.Update(ctx, class.ID.Hex(), UpdateMenuClassInput{Name: &name})
	require.NoError(t, err)
	require.NotNil(t, renamed)
	assert.Equal(t, "breads", renamed.Name)
	require.Len(t, renamed.Menus, 1)
	assert.Equal(t, "breads", renamed.Menus[0].MenuClass.Name)

	stored, err := f.menus.Get(ctx, menu.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "breads", stored.MenuClass.Name)
}

func TestMenuClassLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.classes.Create(ctx, "", "intro", "")
	requireRequestError(t, err, "name is required")
	_, err = f.classes.Create(ctx, "cake", "", "")
	requireRequestError(t, err, "intro is required")

	class := f.class(t, "cake")
	assert.Equal(t, "delivery", class.OrderType)
	menu := f.menu(t, class, "cheesecake", 6000)

	_, err = f.classes.Delete(ctx, class.ID.Hex())
	requireRequestError(t, err, "menu class still has menus")

	_, err = f.menus.Delete(ctx, menu.ID.Hex())
	require.NoError(t, err)

	deleted, err := f.classes.Delete(ctx, class.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, class.ID, deleted.ID)

	_, err = f.classes.Delete(ctx, class.ID.Hex())
	requireRequestError(t, err, "invalid menu class")

	got, err := f.classes.Get(ctx, class.ID.Hex())
	require.NoError(t, err)
	assert.Nil(t, got)
}
