package database

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names one logical collection of documents.
type Collection string

const (
	Users          Collection = "users"
	Menus          Collection = "menus"
	MenuClasses    Collection = "menuclasses"
	Shippings      Collection = "shippings"
	Orders         Collection = "orders"
	PersonalOrders Collection = "personalorders"
)

var (
	// ErrNotFound is returned when no document matches.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("duplicate document")
)

// Fields is a set of field assignments keyed by document field name. Keys may be
// dotted paths into sub-documents ("menuClass.name").
type Fields map[string]any

// Filter matches documents whose fields equal the given values. Dotted keys
// traverse sub-documents and arrays ("orders._id").
type Filter map[string]any

// Store persists documents. Every method is atomic for a single document;
// nothing spans documents.
type Store interface {
	Insert(ctx context.Context, coll Collection, doc any) error
	FindByID(ctx context.Context, coll Collection, id primitive.ObjectID, out any) error
	FindOne(ctx context.Context, coll Collection, filter Filter, out any) error
	// Find decodes every match into out, which must point to a slice.
	Find(ctx context.Context, coll Collection, filter Filter, out any) error
	// UpdateByID sets fields and decodes the updated document into out when out is not nil.
	UpdateByID(ctx context.Context, coll Collection, id primitive.ObjectID, set Fields, out any) error
	UpdateMany(ctx context.Context, coll Collection, filter Filter, set Fields) (int64, error)
	ReplaceByID(ctx context.Context, coll Collection, id primitive.ObjectID, doc any) error
	// DeleteByID removes the document and decodes it into out when out is not nil.
	DeleteByID(ctx context.Context, coll Collection, id primitive.ObjectID, out any) error
	DeleteMany(ctx context.Context, coll Collection, filter Filter) (int64, error)

	// PushEmbedded appends elem to the array field of one owner document.
	PushEmbedded(ctx context.Context, coll Collection, ownerID primitive.ObjectID, field string, elem any) error
	// SetEmbedded updates, on every owner, the element of the array field whose
	// _id equals elemID. Sibling elements are left untouched.
	SetEmbedded(ctx context.Context, coll Collection, field string, elemID primitive.ObjectID, set Fields) (int64, error)
	// PullEmbedded removes the element whose _id equals elemID from every owner.
	PullEmbedded(ctx context.Context, coll Collection, field string, elemID primitive.ObjectID) (int64, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type inserter interface {
	BeforeInsert(now time.Time)
}

type toucher interface {
	Touch(now time.Time)
}

func beforeInsert(doc any, now time.Time) {
	if d, ok := doc.(inserter); ok {
		d.BeforeInsert(now)
	}
}

func touch(doc any, now time.Time) {
	if d, ok := doc.(toucher); ok {
		d.Touch(now)
	}
}

// withUpdatedAt copies set and stamps updatedAt.
func withUpdatedAt(set Fields, now time.Time) Fields {
	out := make(Fields, len(set)+1)
	for k, v := range set {
		out[k] = v
	}
	out["updatedAt"] = now
	return out
}
