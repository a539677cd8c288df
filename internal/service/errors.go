package service

import "errors"

var (
	ErrValidation        = errors.New("validation error")  // 400
	ErrUnauthorized      = errors.New("unauthorized")      // 401
	ErrForbidden         = errors.New("not authorized")    // 403
	ErrNotFound          = errors.New("not found")         // 404
	ErrInsufficientStock = errors.New("insufficient stock") // 400, names the product
)
