package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("operation failed")
	ErrInvalidExecContext = errors.New("invalid executor context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Entitlement / planner errors
	ErrEntitlementRequired  = errors.New("entitlement required")
	ErrEmptyCatalog         = errors.New("recipe catalog is empty")
	ErrGenerationInProgress = errors.New("plan generation already in progress")
	ErrRateLimited          = errors.New("rate limited")
)
