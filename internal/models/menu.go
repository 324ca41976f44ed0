package models

import (
	"encoding/json"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultOrderType = "delivery"

// MenuClassRef is the back-reference a menu keeps to its class.
type MenuClassRef struct {
	ID   primitive.ObjectID `bson:"_id" json:"id"`
	Name string             `bson:"name" json:"name"`
}

// MenuOption is a selectable variant of a menu.
type MenuOption struct {
	Name  string `bson:"name" json:"name"`
	Price int    `bson:"price" json:"price"`
}

// Menu is a bakery item. Quantity, Option and IsChecked only carry meaning when
// the menu is embedded in a cart or an order line.
type Menu struct {
	BaseModel  `bson:",inline"`
	Name       string       `bson:"name" json:"name"`
	Price      int          `bson:"price" json:"price"`
	Tag        string       `bson:"tag" json:"tag"`
	MenuClass  MenuClassRef `bson:"menuClass" json:"menuClass"`
	Stock      int          `bson:"stock" json:"stock"`
	OrderType  string       `bson:"orderType" json:"orderType"`
	IsPickup   bool         `bson:"isPickup" json:"isPickup"`
	IsDelivery bool         `bson:"isDelivery" json:"isDelivery"`
	IsPresent  bool         `bson:"isPresent" json:"isPresent"`
	ImageURL   string       `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Intro      string       `bson:"intro,omitempty" json:"intro,omitempty"`
	Options    []MenuOption `bson:"options,omitempty" json:"options,omitempty"`
	Quantity   int          `bson:"quantity,omitempty" json:"quantity,omitempty"`
	Option     string       `bson:"option,omitempty" json:"option,omitempty"`
	IsChecked  bool         `bson:"isChecked" json:"isChecked"`
}

// Snapshot copies the menu for embedding in a cart or order line.
func (m Menu) Snapshot(quantity int) Menu {
	snap := m
	snap.Options = append([]MenuOption(nil), m.Options...)
	snap.Quantity = quantity
	return snap
}

// MenuClass groups menus and embeds a copy of each.
type MenuClass struct {
	BaseModel `bson:",inline"`
	Name      string `bson:"name" json:"name"`
	Intro     string `bson:"intro" json:"intro"`
	Menus     []Menu `bson:"menus,omitempty" json:"menus"`
	OrderType string `bson:"orderType" json:"orderType"`
}

// MarshalJSON renders a class without menus with an empty menus array.
func (c MenuClass) MarshalJSON() ([]byte, error) {
	type plain MenuClass
	out := plain(c)
	if out.Menus == nil {
		out.Menus = []Menu{}
	}
	return json.Marshal(out)
}

// Ref returns the back-reference stored on member menus.
func (c *MenuClass) Ref() MenuClassRef {
	return MenuClassRef{ID: c.ID, Name: c.Name}
}
