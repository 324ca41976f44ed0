package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BaseModel provides the id and timestamps shared by every document.
type BaseModel struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// BeforeInsert ensures ids and timestamps are set for new documents.
func (b *BaseModel) BeforeInsert(now time.Time) {
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

// Touch stamps the update time before a whole-document write.
func (b *BaseModel) Touch(now time.Time) {
	b.UpdatedAt = now
}
