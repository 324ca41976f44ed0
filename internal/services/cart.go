package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/example/bakery/internal/database"
	"github.com/example/bakery/internal/models"
)

// CartManager edits the cart embedded in a user document. Carts hold menu
// snapshots and are never touched by catalog edits.
type CartManager struct {
	store database.Store
	now   func() time.Time
}

// NewCartManager constructs a CartManager.
func NewCartManager(store database.Store) *CartManager {
	return &CartManager{store: store, now: time.Now}
}

// AddToCart changes the quantity of menuID in the cart by delta. A new entry is
// created for a positive delta; an entry whose quantity drops to zero or below
// is removed.
func (m *CartManager) AddToCart(ctx context.Context, token, menuID string, delta int) (*models.User, error) {
	if token == "" {
		return nil, badRequest("token is required")
	}
	if menuID == "" {
		return nil, badRequest("menuId is required")
	}
	if delta == 0 {
		return nil, badRequest("quantity is required")
	}

	user, err := m.userByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	menu, err := m.menu(ctx, menuID)
	if err != nil {
		return nil, err
	}

	applyDelta(user, menu, delta)
	return m.save(ctx, user)
}

// SetChecked marks one entry, or every entry when all is set, as checked or
// unchecked for checkout.
func (m *CartManager) SetChecked(ctx context.Context, token, menuID string, checked, all bool) (*models.User, error) {
	if token == "" {
		return nil, badRequest("token is required")
	}
	if menuID == "" && !all {
		return nil, badRequest("menuId is required")
	}

	var id primitive.ObjectID
	if !all {
		var err error
		if id, err = parseID(menuID, "menu"); err != nil {
			return nil, err
		}
	}

	user, err := m.userByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if !setChecked(user.Cart, id, checked, all) {
		user.ClearCredentials()
		return user, nil
	}
	return m.save(ctx, user)
}

// RemoveFromCart drops the entry for menuID regardless of its quantity.
func (m *CartManager) RemoveFromCart(ctx context.Context, token, menuID string) (*models.User, error) {
	if token == "" {
		return nil, badRequest("token is required")
	}
	if menuID == "" {
		return nil, badRequest("menuId is required")
	}
	id, err := parseID(menuID, "menu")
	if err != nil {
		return nil, err
	}

	user, err := m.userByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if !removeEntry(user, id) {
		// a menu that is neither in the cart nor in the catalog is unknown
		if _, err := m.menu(ctx, menuID); err != nil {
			return nil, err
		}
		user.ClearCredentials()
		return user, nil
	}
	return m.save(ctx, user)
}

func (m *CartManager) userByToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if err := m.store.FindOne(ctx, database.Users, database.Filter{"token": token}, &user); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, badRequest("no matched user")
		}
		return nil, err
	}
	if user.TokenExpired(m.now()) {
		return nil, badRequest("token is expired")
	}
	return &user, nil
}

func (m *CartManager) menu(ctx context.Context, menuID string) (models.Menu, error) {
	var menu models.Menu
	id, err := primitive.ObjectIDFromHex(menuID)
	if err != nil {
		return menu, badRequest("no matched menu")
	}
	if err := m.store.FindByID(ctx, database.Menus, id, &menu); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return menu, badRequest("no matched menu")
		}
		return menu, err
	}
	return menu, nil
}

func (m *CartManager) save(ctx context.Context, user *models.User) (*models.User, error) {
	if err := m.store.ReplaceByID(ctx, database.Users, user.ID, user); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, badRequest("no matched user")
		}
		return nil, err
	}
	user.ClearCredentials()
	return user, nil
}

func applyDelta(user *models.User, menu models.Menu, delta int) {
	if i := user.CartEntry(menu.ID); i >= 0 {
		entry := &user.Cart[i]
		if delta < 0 && entry.Quantity <= 0 {
			return
		}
		entry.Quantity += delta
		if entry.Quantity <= 0 {
			user.Cart = append(user.Cart[:i], user.Cart[i+1:]...)
		}
		return
	}

	if delta < 0 {
		return
	}
	entry := menu.Snapshot(delta)
	entry.IsChecked = true
	user.Cart = append(user.Cart, entry)
}

func setChecked(cart []models.Menu, menuID primitive.ObjectID, checked, all bool) bool {
	changed := false
	for i := range cart {
		if all || cart[i].ID == menuID {
			cart[i].IsChecked = checked
			changed = true
		}
	}
	return changed
}

func removeEntry(user *models.User, menuID primitive.ObjectID) bool {
	i := user.CartEntry(menuID)
	if i < 0 {
		return false
	}
	user.Cart = append(user.Cart[:i], user.Cart[i+1:]...)
	return true
}
