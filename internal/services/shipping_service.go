package services

import (
	"context"
	"errors"
	"time"

	"github.com/example/bakery/internal/database"
	"github.com/example/bakery/internal/models"
)

// ShippingService manages delivery addresses. Each address is mirrored into the
// shippings array of its owner.
type ShippingService struct {
	store database.Store
	sync  *Synchronizer
	now   func() time.Time
}

// NewShippingService constructs ShippingService.
func NewShippingService(store database.Store, sync *Synchronizer) *ShippingService {
	return &ShippingService{store: store, sync: sync, now: time.Now}
}

// ShippingInput holds the address fields. On update only non-nil fields apply.
type ShippingInput struct {
	Name          *string
	Phone         *string
	Address       *string
	AddressDetail *string
	Request       *string
	Tag           *string
}

// List returns every shipping address.
func (s *ShippingService) List(ctx context.Context) ([]models.Shipping, error) {
	var shippings []models.Shipping
	if err := s.store.Find(ctx, database.Shippings, nil, &shippings); err != nil {
		return nil, err
	}
	return shippings, nil
}

// ListByUser returns the addresses owned by userID.
func (s *ShippingService) ListByUser(ctx context.Context, userID string) ([]models.Shipping, error) {
	oid, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}
	var shippings []models.Shipping
	if err := s.store.Find(ctx, database.Shippings, database.Filter{"user": oid}, &shippings); err != nil {
		return nil, err
	}
	return shippings, nil
}

// Create adds an address for userID.
func (s *ShippingService) Create(ctx context.Context, userID string, input ShippingInput) (*models.Shipping, error) {
	if userID == "" {
		return nil, badRequest("userId is required")
	}
	if value(input.Name) == "" {
		return nil, badRequest("name is required")
	}
	if value(input.Phone) == "" {
		return nil, badRequest("phone is required")
	}
	if value(input.Address) == "" {
		return nil, badRequest("address is required")
	}

	oid, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := s.store.FindByID(ctx, database.Users, oid, &user); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, badRequest("no matched user")
		}
		return nil, err
	}

	shipping := models.Shipping{
		Name:          *input.Name,
		Phone:         *input.Phone,
		Address:       *input.Address,
		AddressDetail: value(input.AddressDetail),
		Request:       value(input.Request),
		Tag:           value(input.Tag),
		User:          user.ID,
	}
	if shipping.Tag == "" {
		shipping.Tag = models.DefaultShippingTag
	}

	if err := s.sync.Create(ctx, ShippingLink, user.ID, &shipping); err != nil {
		return nil, err
	}
	return &shipping, nil
}

// Update changes an address after checking its owner's session token. A
// missing address yields nil without error.
func (s *ShippingService) Update(ctx context.Context, id, token string, input ShippingInput) (*models.Shipping, error) {
	set := database.Fields{}
	for _, f := range []struct {
		name     string
		value    *string
		required bool
	}{
		{"name", input.Name, true},
		{"phone", input.Phone, true},
		{"address", input.Address, true},
		{"addressDetail", input.AddressDetail, false},
		{"request", input.Request, false},
		{"tag", input.Tag, false},
	} {
		if f.value == nil {
			continue
		}
		if f.required && *f.value == "" {
			return nil, badRequest("%s is required", f.name)
		}
		set[f.name] = *f.value
	}

	current, err := s.owned(ctx, id, token)
	if err != nil || current == nil {
		return nil, err
	}

	var shipping models.Shipping
	if err := s.sync.Update(ctx, ShippingLink, current.ID, set, &shipping); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shipping, nil
}

// Delete removes an address after checking its owner's session token.
func (s *ShippingService) Delete(ctx context.Context, id, token string) (*models.Shipping, error) {
	current, err := s.owned(ctx, id, token)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, badRequest("invalid shipping")
	}

	var shipping models.Shipping
	if err := s.sync.Delete(ctx, ShippingLink, current.ID, &shipping); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, badRequest("invalid shipping")
		}
		return nil, err
	}
	return &shipping, nil
}

// owned loads the address and verifies token against its owner. A missing
// address is returned as nil.
func (s *ShippingService) owned(ctx context.Context, id, token string) (*models.Shipping, error) {
	oid, err := parseID(id, "shipping")
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, badRequest("token is required")
	}

	var shipping models.Shipping
	if err := s.store.FindByID(ctx, database.Shippings, oid, &shipping); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if _, err := loadOwner(ctx, s.store, shipping.User, token, s.now()); err != nil {
		return nil, err
	}
	return &shipping, nil
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
