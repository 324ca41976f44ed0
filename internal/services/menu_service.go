package services

import (
	"context"
	"errors"

	"github.com/example/bakery/internal/database"
	"github.com/example/bakery/internal/models"
)

// MenuService manages the menu catalog. Every menu is mirrored into the
// menus array of its menu class.
type MenuService struct {
	store database.Store
	sync  *Synchronizer
}

// NewMenuService constructs MenuService.
func NewMenuService(store database.Store, sync *Synchronizer) *MenuService {
	return &MenuService{store: store, sync: sync}
}

// CreateMenuInput holds the fields accepted when creating a menu.
type CreateMenuInput struct {
	Name        string
	Price       int
	Tag         string
	MenuClassID string
	Stock       *int
	OrderType   string
	IsPickup    bool
	IsDelivery  bool
	IsPresent   bool
	ImageURL    string
	Intro       string
	Options     []models.MenuOption
}

// UpdateMenuInput holds the optional fields of a menu update.
type UpdateMenuInput struct {
	Name       *string
	Price      *int
	Tag        *string
	Stock      *int
	OrderType  *string
	IsPickup   *bool
	IsDelivery *bool
	IsPresent  *bool
	ImageURL   *string
	Intro      *string
	Options    *[]models.MenuOption
}

// List returns every menu.
func (s *MenuService) List(ctx context.Context) ([]models.Menu, error) {
	var menus []models.Menu
	if err := s.store.Find(ctx, database.Menus, nil, &menus); err != nil {
		return nil, err
	}
	return menus, nil
}

// Get returns the menu or nil when none has that id.
func (s *MenuService) Get(ctx context.Context, id string) (*models.Menu, error) {
	oid, err := parseID(id, "menu")
	if err != nil {
		return nil, err
	}
	var menu models.Menu
	if err := s.store.FindByID(ctx, database.Menus, oid, &menu); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &menu, nil
}

// Create adds a menu to an existing menu class.
func (s *MenuService) Create(ctx context.Context, input CreateMenuInput) (*models.Menu, error) {
	if input.Name == "" {
		return nil, badRequest("name is required")
	}
	if input.Price <= 0 {
		return nil, badRequest("price is required")
	}
	if input.Tag == "" {
		return nil, badRequest("tag is required")
	}
	if input.MenuClassID == "" {
		return nil, badRequest("menu class id is required")
	}
	if input.Stock == nil {
		return nil, badRequest("stock is required")
	}

	classID, err := parseID(input.MenuClassID, "menu class")
	if err != nil {
		return nil, err
	}
	var class models.MenuClass
	if err := s.store.FindByID(ctx, database.MenuClasses, classID, &class); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, badRequest("invalid menu class")
		}
		return nil, err
	}

	menu := models.Menu{
		Name:       input.Name,
		Price:      input.Price,
		Tag:        input.Tag,
		MenuClass:  class.Ref(),
		Stock:      *input.Stock,
		OrderType:  input.OrderType,
		IsPickup:   input.IsPickup,
		IsDelivery: input.IsDelivery,
		IsPresent:  input.IsPresent,
		ImageURL:   input.ImageURL,
		Intro:      input.Intro,
		Options:    input.Options,
		IsChecked:  true,
	}
	if menu.OrderType == "" {
		menu.OrderType = models.DefaultOrderType
	}

	if err := s.sync.Create(ctx, MenuLink, class.ID, &menu); err != nil {
		return nil, err
	}
	return &menu, nil
}

// Update changes the given fields on the menu and on its embedded copy. A
// missing menu yields nil without error.
func (s *MenuService) Update(ctx context.Context, id string, input UpdateMenuInput) (*models.Menu, error) {
	oid, err := parseID(id, "menu")
	if err != nil {
		return nil, err
	}

	set := database.Fields{}
	if input.Name != nil {
		if *input.Name == "" {
			return nil, badRequest("name is required")
		}
		set["name"] = *input.Name
	}
	if input.Price != nil {
		if *input.Price <= 0 {
			return nil, badRequest("price must be positive")
		}
		set["price"] = *input.Price
	}
	if input.Tag != nil {
		set["tag"] = *input.Tag
	}
	if input.Stock != nil {
		set["stock"] = *input.Stock
	}
	if input.OrderType != nil {
		set["orderType"] = *input.OrderType
	}
	if input.IsPickup != nil {
		set["isPickup"] = *input.IsPickup
	}
	if input.IsDelivery != nil {
		set["isDelivery"] = *input.IsDelivery
	}
	if input.IsPresent != nil {
		set["isPresent"] = *input.IsPresent
	}
	if input.ImageURL != nil {
		set["imageUrl"] = *input.ImageURL
	}
	if input.Intro != nil {
		set["intro"] = *input.Intro
	}
	if input.Options != nil {
		set["options"] = *input.Options
	}

	var menu models.Menu
	if err := s.sync.Update(ctx, MenuLink, oid, set, &menu); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &menu, nil
}

// Delete removes the menu from the catalog and from its menu class. Carts and
// orders keep their snapshots.
func (s *MenuService) Delete(ctx context.Context, id string) (*models.Menu, error) {
	oid, err := parseID(id, "menu")
	if err != nil {
		return nil, err
	}
	var menu models.Menu
	if err := s.sync.Delete(ctx, MenuLink, oid, &menu); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, badRequest("invalid menu")
		}
		return nil, err
	}
	return &menu, nil
}
