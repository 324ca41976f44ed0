package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultPhone is stored for social sign-ups that do not share a phone number.
const DefaultPhone = "01000000000"

// User represents a customer together with the collections denormalized into it.
type User struct {
	BaseModel       `bson:",inline"`
	Name            string     `bson:"name" json:"name"`
	Email           string     `bson:"email" json:"email"`
	Phone           string     `bson:"phone" json:"phone"`
	ProfileImageURL string     `bson:"profileImageUrl,omitempty" json:"profileImageUrl,omitempty"`
	Token           string     `bson:"token,omitempty" json:"token,omitempty"`
	SocialToken     string     `bson:"socialToken,omitempty" json:"socialToken,omitempty"`
	TokenExpiration *time.Time `bson:"tokenExpiration,omitempty" json:"tokenExpiration,omitempty"`
	SocialID        string     `bson:"socialId,omitempty" json:"socialId,omitempty"`
	Mileage         int        `bson:"mileage" json:"mileage"`
	Shippings       []Shipping `bson:"shippings,omitempty" json:"shippings"`
	Orders          []Order    `bson:"orders,omitempty" json:"orders"`
	Cart            []Menu     `bson:"cart,omitempty" json:"cart"`
}

// MarshalJSON renders missing embedded arrays as [] rather than null.
func (u User) MarshalJSON() ([]byte, error) {
	type plain User
	out := plain(u)
	if out.Shippings == nil {
		out.Shippings = []Shipping{}
	}
	if out.Orders == nil {
		out.Orders = []Order{}
	}
	if out.Cart == nil {
		out.Cart = []Menu{}
	}
	return json.Marshal(out)
}

// ClearCredentials drops every authentication field from the in-memory copy.
// The stored document is not affected.
func (u *User) ClearCredentials() {
	u.Token = ""
	u.ClearProviderCredentials()
}

// ClearProviderCredentials drops the social-login fields but keeps the session token.
func (u *User) ClearProviderCredentials() {
	u.SocialToken = ""
	u.SocialID = ""
}

// TokenExpired reports whether the session token is unusable at now.
func (u *User) TokenExpired(now time.Time) bool {
	return u.TokenExpiration == nil || now.After(*u.TokenExpiration)
}

// CartEntry returns the index of the cart entry for menuID or -1.
func (u *User) CartEntry(menuID primitive.ObjectID) int {
	for i := range u.Cart {
		if u.Cart[i].ID == menuID {
			return i
		}
	}
	return -1
}

// Orderer is the user snapshot stored inside an order.
type Orderer struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Username string             `bson:"username" json:"username"`
	Phone    string             `bson:"phone" json:"phone"`
	Email    string             `bson:"email" json:"email"`
}

// AsOrderer snapshots the user for an order.
func (u *User) AsOrderer() Orderer {
	return Orderer{
		ID:       u.ID,
		Username: u.Name,
		Phone:    u.Phone,
		Email:    u.Email,
	}
}
