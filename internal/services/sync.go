package services

import (
	"context"
	"errors"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/example/bakery/internal/database"
	"github.com/example/bakery/internal/metrics"
)

// Link describes a child collection whose documents are also embedded, as
// snapshots, in an array field of an owner collection.
type Link struct {
	Name  string
	Child database.Collection
	Owner database.Collection
	// Field is the owner's array holding the embedded copies.
	Field string
	// OwnerKey is the child field that points at the owner.
	OwnerKey string
}

var (
	MenuLink = Link{
		Name:     "menu",
		Child:    database.Menus,
		Owner:    database.MenuClasses,
		Field:    "menus",
		OwnerKey: "menuClass._id",
	}
	ShippingLink = Link{
		Name:     "shipping",
		Child:    database.Shippings,
		Owner:    database.Users,
		Field:    "shippings",
		OwnerKey: "user",
	}
	OrderLink = Link{
		Name:     "order",
		Child:    database.Orders,
		Owner:    database.Users,
		Field:    "orders",
		OwnerKey: "orderer._id",
	}
)

// Links lists every denormalized relationship.
var Links = []Link{MenuLink, ShippingLink, OrderLink}

// Synchronizer writes a child document and then mirrors the change into the
// embedded copies held by its owner. The primary write always comes first and
// is never rolled back: a failed embedded write is logged and counted, and
// left for the Reconciler.
type Synchronizer struct {
	store   database.Store
	metrics *metrics.Metrics
}

// NewSynchronizer constructs a Synchronizer.
func NewSynchronizer(store database.Store, m *metrics.Metrics) *Synchronizer {
	return &Synchronizer{store: store, metrics: m}
}

// Create inserts doc into the child collection and pushes a snapshot of it into
// the owner's array. The owner must have been resolved by the caller.
func (s *Synchronizer) Create(ctx context.Context, link Link, ownerID primitive.ObjectID, doc any) error {
	if err := s.store.Insert(ctx, link.Child, doc); err != nil {
		return err
	}
	if err := s.store.PushEmbedded(ctx, link.Owner, ownerID, link.Field, doc); err != nil {
		s.gap(link, "create", ownerID, err)
	}
	return nil
}

// Update sets fields on the child and on every embedded copy of it. out
// receives the updated child. database.ErrNotFound is returned when the child
// does not exist, in which case nothing is written.
func (s *Synchronizer) Update(ctx context.Context, link Link, id primitive.ObjectID, set database.Fields, out any) error {
	if err := s.store.UpdateByID(ctx, link.Child, id, set, out); err != nil {
		return err
	}
	if len(set) == 0 {
		return nil
	}
	if _, err := s.store.SetEmbedded(ctx, link.Owner, link.Field, id, set); err != nil {
		s.gap(link, "update", id, err)
	}
	return nil
}

// Delete removes the child and pulls it from every owner. out receives the
// deleted child.
func (s *Synchronizer) Delete(ctx context.Context, link Link, id primitive.ObjectID, out any) error {
	if err := s.store.DeleteByID(ctx, link.Child, id, out); err != nil {
		return err
	}
	if _, err := s.store.PullEmbedded(ctx, link.Owner, link.Field, id); err != nil {
		s.gap(link, "delete", id, err)
	}
	return nil
}

func (s *Synchronizer) gap(link Link, op string, id primitive.ObjectID, err error) {
	if errors.Is(err, context.Canceled) {
		log.Printf("[Sync] %s %s %s: embedded write canceled", link.Name, op, id.Hex())
	} else {
		log.Printf("[Sync] %s %s %s: embedded write into %s.%s failed: %v", link.Name, op, id.Hex(), link.Owner, link.Field, err)
	}
	s.metrics.SyncGap(link.Name, op)
}
