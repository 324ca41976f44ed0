package services

import (
	"context"
	"log"
	"reflect"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/example/bakery/internal/database"
	"github.com/example/bakery/internal/metrics"
	"github.com/example/bakery/internal/models"
)

// Reconciler rebuilds every embedded array from the canonical collections. It
// repairs the gaps the Synchronizer leaves when an embedded write fails and is
// safe to run any number of times.
type Reconciler struct {
	store   database.Store
	metrics *metrics.Metrics
}

// NewReconciler constructs a Reconciler.
func NewReconciler(store database.Store, m *metrics.Metrics) *Reconciler {
	return &Reconciler{store: store, metrics: m}
}

// ReconcileReport counts the owners rebuilt per link.
type ReconcileReport map[string]int

// Total returns the number of rebuilt owners across links.
func (r ReconcileReport) Total() int {
	total := 0
	for _, n := range r {
		total += n
	}
	return total
}

// Run compares each owner's embedded array with the children that point at it
// and rewrites the arrays that differ.
func (r *Reconciler) Run(ctx context.Context) (ReconcileReport, error) {
	report := ReconcileReport{}

	if err := r.menus(ctx, report); err != nil {
		return report, err
	}
	if err := r.users(ctx, report); err != nil {
		return report, err
	}

	log.Printf("[Reconcile] rebuilt %d owner documents", report.Total())
	return report, nil
}

func (r *Reconciler) menus(ctx context.Context, report ReconcileReport) error {
	var menus []models.Menu
	if err := r.store.Find(ctx, database.Menus, nil, &menus); err != nil {
		return err
	}
	byClass := map[primitive.ObjectID][]models.Menu{}
	for _, m := range menus {
		byClass[m.MenuClass.ID] = append(byClass[m.MenuClass.ID], m)
	}

	var classes []models.MenuClass
	if err := r.store.Find(ctx, database.MenuClasses, nil, &classes); err != nil {
		return err
	}
	for _, class := range classes {
		want := nonNil(byClass[class.ID])
		if sameSnapshots(class.Menus, want, stripMenu) {
			continue
		}
		if err := r.rebuild(ctx, MenuLink, class.ID, want, report); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reconciler) users(ctx context.Context, report ReconcileReport) error {
	var shippings []models.Shipping
	if err := r.store.Find(ctx, database.Shippings, nil, &shippings); err != nil {
		return err
	}
	byUser := map[primitive.ObjectID][]models.Shipping{}
	for _, s := range shippings {
		byUser[s.User] = append(byUser[s.User], s)
	}

	var orders []models.Order
	if err := r.store.Find(ctx, database.Orders, nil, &orders); err != nil {
		return err
	}
	byOrderer := map[primitive.ObjectID][]models.Order{}
	for _, o := range orders {
		byOrderer[o.Orderer.ID] = append(byOrderer[o.Orderer.ID], o)
	}

	var users []models.User
	if err := r.store.Find(ctx, database.Users, nil, &users); err != nil {
		return err
	}
	for _, user := range users {
		wantShippings := nonNil(byUser[user.ID])
		if !sameSnapshots(user.Shippings, wantShippings, stripShipping) {
			if err := r.rebuild(ctx, ShippingLink, user.ID, wantShippings, report); err != nil {
				return err
			}
		}
		wantOrders := nonNil(byOrderer[user.ID])
		if !sameSnapshots(user.Orders, wantOrders, stripOrder) {
			if err := r.rebuild(ctx, OrderLink, user.ID, wantOrders, report); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Reconciler) rebuild(ctx context.Context, link Link, ownerID primitive.ObjectID, children any, report ReconcileReport) error {
	if err := r.store.UpdateByID(ctx, link.Owner, ownerID, database.Fields{link.Field: children}, nil); err != nil {
		return err
	}
	log.Printf("[Reconcile] rebuilt %s.%s of %s", link.Owner, link.Field, ownerID.Hex())
	report[link.Name]++
	r.metrics.Repaired(link.Name)
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// sameSnapshots compares embedded copies with their canonical documents,
// ignoring timestamps, which embedded updates do not refresh.
func sameSnapshots[T any](have, want []T, strip func(T) T) bool {
	if len(have) != len(want) {
		return false
	}
	for i := range have {
		if !reflect.DeepEqual(strip(have[i]), strip(want[i])) {
			return false
		}
	}
	return true
}

func stripMenu(m models.Menu) models.Menu {
	m.BaseModel = models.BaseModel{ID: m.ID}
	return m
}

func stripShipping(s models.Shipping) models.Shipping {
	s.BaseModel = models.BaseModel{ID: s.ID}
	return s
}

func stripOrder(o models.Order) models.Order {
	o.BaseModel = models.BaseModel{ID: o.ID}
	return o
}
