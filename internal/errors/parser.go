package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a client-safe error code and message.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError translates persistence errors into client-safe codes. Driver
// messages never reach the client.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "internal server error"}
	}

	errLower := strings.ToLower(err.Error())

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: notFoundMessage(context)}
	}

	// postgres 23505 / sqlite UNIQUE
	if strings.Contains(errLower, "duplicate key") || strings.Contains(errLower, "unique constraint") {
		return parseDuplicateKeyError(errLower)
	}

	// postgres 23503
	if strings.Contains(errLower, "foreign key constraint") {
		if strings.Contains(errLower, "still referenced") {
			return ErrorInfo{Code: ResourceConflict, Message: "the record is still referenced by other data"}
		}
		return ErrorInfo{Code: ResourceNotFound, Message: "a referenced record does not exist"}
	}

	// postgres 23502 / sqlite NOT NULL
	if strings.Contains(errLower, "not-null constraint") || strings.Contains(errLower, "not null constraint") {
		return ErrorInfo{Code: ValidationRequired, Message: "a required field is missing"}
	}

	// postgres 23514
	if strings.Contains(errLower, "check constraint") {
		return ErrorInfo{Code: ValidationInvalidInput, Message: "invalid input"}
	}

	if strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "timeout") {
		return ErrorInfo{Code: InternalExternalAPI, Message: "an upstream service is unavailable, try again later"}
	}

	return ErrorInfo{Code: InternalServerError, Message: defaultMessage(context)}
}

func parseDuplicateKeyError(errLower string) ErrorInfo {
	switch {
	case strings.Contains(errLower, "username"):
		return ErrorInfo{Code: AuthUsernameExists, Message: "username is already taken"}
	case strings.Contains(errLower, "email"):
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "email is already registered"}
	case strings.Contains(errLower, "slug"):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "slug is already in use"}
	case strings.Contains(errLower, "cart_product") || strings.Contains(errLower, "cart_items.cart_id"):
		return ErrorInfo{Code: CartConflict, Message: "the product is already in the cart"}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: "the record already exists"}
}

func notFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "category"):
		return "category not found"
	case strings.Contains(contextLower, "product"):
		return "product not found"
	case strings.Contains(contextLower, "cart"):
		return "cart item not found"
	case strings.Contains(contextLower, "order"):
		return "order not found"
	case strings.Contains(contextLower, "user"), strings.Contains(contextLower, "customer"):
		return "user not found"
	}
	return "the requested resource was not found"
}

func defaultMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "create"):
		return "failed to create the record, try again later"
	case strings.Contains(contextLower, "update"):
		return "failed to update the record, try again later"
	case strings.Contains(contextLower, "delete"):
		return "failed to delete the record, try again later"
	}
	return "internal server error, try again later"
}

// ParseAndRespond writes the parsed error as the response body.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	info := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   info.Code,
		Message: info.Message,
	})
}
