package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultOrderKind   = "personal"
	OrderStatusPaid    = "paid"
	DefaultShippingTag = "home"
)

// Shipping is a delivery address owned by a user.
type Shipping struct {
	BaseModel     `bson:",inline"`
	Name          string             `bson:"name" json:"name"`
	Phone         string             `bson:"phone" json:"phone"`
	Address       string             `bson:"address" json:"address"`
	AddressDetail string             `bson:"addressDetail,omitempty" json:"addressDetail,omitempty"`
	Request       string             `bson:"request" json:"request"`
	Tag           string             `bson:"tag" json:"tag"`
	User          primitive.ObjectID `bson:"user" json:"user"`
}

// Order is a placed order. Product, Orderer and Shipping are snapshots taken at
// placement time.
type Order struct {
	BaseModel    `bson:",inline"`
	Product      []Menu              `bson:"product" json:"product"`
	Orderer      Orderer             `bson:"orderer" json:"orderer"`
	Shipping     Shipping            `bson:"shipping" json:"shipping"`
	MileageUse   int                 `bson:"mileageUse" json:"mileageUse"`
	Coupon       *primitive.ObjectID `bson:"coupon,omitempty" json:"coupon,omitempty"`
	Payment      string              `bson:"payment" json:"payment"`
	DeliveryDate *time.Time          `bson:"deliveryDate,omitempty" json:"deliveryDate,omitempty"`
	PickupDate   *time.Time          `bson:"pickupDate,omitempty" json:"pickupDate,omitempty"`
	Type         string              `bson:"type" json:"type"`
	Status       string              `bson:"status" json:"status"`
	OrderPrice   int                 `bson:"orderPrice" json:"orderPrice"`
	PayedMoney   int                 `bson:"payedMoney" json:"payedMoney"`
}

// ItemCount returns the number of units across all order lines.
func (o *Order) ItemCount() int {
	total := 0
	for _, p := range o.Product {
		total += p.Quantity
	}
	return total
}

// PersonalOrder is the legacy standalone order record. It is never embedded.
type PersonalOrder struct {
	BaseModel  `bson:",inline"`
	Product    []Menu              `bson:"product" json:"product"`
	Orderer    primitive.ObjectID  `bson:"orderer" json:"orderer"`
	Shipping   Shipping            `bson:"shipping" json:"shipping"`
	MileageUse int                 `bson:"mileageUse" json:"mileageUse"`
	Coupon     *primitive.ObjectID `bson:"coupon,omitempty" json:"coupon,omitempty"`
	Payment    string              `bson:"payment" json:"payment"`
	Status     string              `bson:"status" json:"status"`
}
