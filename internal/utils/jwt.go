package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type sessionClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// GenerateSessionToken signs a session token for userID issued at now. Each
// call yields a distinct token, even for the same user and instant.
func GenerateSessionToken(secret string, userID primitive.ObjectID, now time.Time, ttl time.Duration) (string, error) {
	claims := &sessionClaims{
		UserID: userID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseSessionToken validates the signature and expiry and returns the user ID.
func ParseSessionToken(secret, tokenString string) (primitive.ObjectID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return primitive.NilObjectID, err
	}

	if claims, ok := token.Claims.(*sessionClaims); ok && token.Valid {
		return primitive.ObjectIDFromHex(claims.UserID)
	}

	return primitive.NilObjectID, jwt.ErrTokenInvalidClaims
}
