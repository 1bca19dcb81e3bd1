package apperrors

import "errors"

// Standardized Engine Errors
var (
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrMaxOpenOrders      = errors.New("maximum open orders limit reached")
	ErrOrderTooLarge      = errors.New("order quantity exceeds max position size")
	ErrAlreadyInitialized = errors.New("grid already initialized")
	ErrNotActive          = errors.New("strategy is not active")
	ErrStateCorrupted     = errors.New("persisted state corrupted")
)
