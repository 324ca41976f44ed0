package services

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequestError is a rejection caused by the caller's input: a missing field,
// an unknown reference or a bad token. Handlers answer it with 400.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

func badRequest(format string, args ...any) error {
	return &RequestError{Message: fmt.Sprintf(format, args...)}
}

// IsRequestError reports whether err carries a RequestError.
func IsRequestError(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr)
}

// parseID validates a hex object id; what names the entity in the error.
func parseID(hex, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, badRequest("invalid %s id", what)
	}
	return id, nil
}
