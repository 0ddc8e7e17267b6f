package domain

import "errors"

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists is returned when a resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidCart is returned when a submitted cart is malformed: empty,
	// non-positive quantities, unknown or inactive products, or a total that
	// does not match the line items
	ErrInvalidCart = errors.New("invalid cart")

	// ErrInsufficientStock is returned when a sale requests more units than
	// a product has in stock at commit time
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrStoreUnavailable is returned when the backing store cannot be
	// reached or the transaction cannot be committed. The whole operation
	// is safe to retry: nothing was persisted.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidCredentials is returned on failed login attempts
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrForbidden is returned when the caller's role does not permit the operation
	ErrForbidden = errors.New("forbidden")
)
