package services

import (
	"context"
	"errors"
	"log"

	"github.com/example/bakery/internal/database"
	"github.com/example/bakery/internal/models"
)

// MenuClassService manages menu classes.
type MenuClassService struct {
	store database.Store
}

// NewMenuClassService constructs MenuClassService.
func NewMenuClassService(store database.Store) *MenuClassService {
	return &MenuClassService{store: store}
}

// UpdateMenuClassInput holds the optional fields of a menu class update.
type UpdateMenuClassInput struct {
	Name      *string
	Intro     *string
	OrderType *string
}

// List returns every menu class with its embedded menus.
func (s *MenuClassService) List(ctx context.Context) ([]models.MenuClass, error) {
	var classes []models.MenuClass
	if err := s.store.Find(ctx, database.MenuClasses, nil, &classes); err != nil {
		return nil, err
	}
	return classes, nil
}

// Get returns the menu class or nil when none has that id.
func (s *MenuClassService) Get(ctx context.Context, id string) (*models.MenuClass, error) {
	oid, err := parseID(id, "menu class")
	if err != nil {
		return nil, err
	}
	var class models.MenuClass
	if err := s.store.FindByID(ctx, database.MenuClasses, oid, &class); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &class, nil
}

// Create adds an empty menu class.
func (s *MenuClassService) Create(ctx context.Context, name, intro, orderType string) (*models.MenuClass, error) {
	if name == "" {
		return nil, badRequest("name is required")
	}
	if intro == "" {
		return nil, badRequest("intro is required")
	}
	if orderType == "" {
		orderType = models.DefaultOrderType
	}

	class := models.MenuClass{Name: name, Intro: intro, OrderType: orderType}
	if err := s.store.Insert(ctx, database.MenuClasses, &class); err != nil {
		return nil, err
	}
	return &class, nil
}

// Update changes the given fields. A rename is carried to the menuClass
// reference of every member menu, both top-level and embedded.
func (s *MenuClassService) Update(ctx context.Context, id string, input UpdateMenuClassInput) (*models.MenuClass, error) {
	oid, err := parseID(id, "menu class")
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
	if input.Intro != nil {
		if *input.Intro == "" {
			return nil, badRequest("intro is required")
		}
		set["intro"] = *input.Intro
	}
	if input.OrderType != nil {
		set["orderType"] = *input.OrderType
	}

	var class models.MenuClass
	if err := s.store.UpdateByID(ctx, database.MenuClasses, oid, set, &class); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if input.Name != nil {
		if err := s.rename(ctx, &class); err != nil {
			log.Printf("[MenuClass] rename of %s not propagated: %v", class.ID.Hex(), err)
		}
	}
	return &class, nil
}

func (s *MenuClassService) rename(ctx context.Context, class *models.MenuClass) error {
	if _, err := s.store.UpdateMany(ctx, database.Menus,
		database.Filter{"menuClass._id": class.ID},
		database.Fields{"menuClass.name": class.Name},
	); err != nil {
		return err
	}

	stale := false
	for i := range class.Menus {
		if class.Menus[i].MenuClass.Name != class.Name {
			class.Menus[i].MenuClass.Name = class.Name
			stale = true
		}
	}
	if !stale {
		return nil
	}
	var renamed models.MenuClass
	if err := s.store.UpdateByID(ctx, database.MenuClasses, class.ID, database.Fields{"menus": class.Menus}, &renamed); err != nil {
		return err
	}
	*class = renamed
	return nil
}

// Delete removes a menu class that no longer holds menus.
func (s *MenuClassService) Delete(ctx context.Context, id string) (*models.MenuClass, error) {
	oid, err := parseID(id, "menu class")
	if err != nil {
		return nil, err
	}

	var class models.MenuClass
	if err := s.store.FindByID(ctx, database.MenuClasses, oid, &class); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, badRequest("invalid menu class")
		}
		return nil, err
	}
	if len(class.Menus) > 0 {
		return nil, badRequest("menu class still has menus")
	}

	if err := s.store.DeleteByID(ctx, database.MenuClasses, oid, nil); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, badRequest("invalid menu class")
		}
		return nil, err
	}
	return &class, nil
}
