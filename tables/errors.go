package tables

import (
	"errors"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

// Common table operation errors
var (
	// ErrInvalidEntity indicates an entity is missing PartitionKey or RowKey
	ErrInvalidEntity = errors.New("invalid entity")
	// ErrBatchTooLarge indicates an attempt to exceed the batch operation ceiling
	ErrBatchTooLarge = errors.New("batch exceeds maximum operation count")
	// ErrMixedPartitionKeys indicates an attempt to mix partition keys in one batch
	ErrMixedPartitionKeys = errors.New("batch cannot span partition keys")
	// ErrNotFound indicates the target table or entity does not exist
	ErrNotFound = errors.New("not found")
)

// Service error codes returned by the Azure table service.
const (
	codeTableNotFound     = "TableNotFound"
	codeTableExists       = "TableAlreadyExists"
	codeResourceNotFound  = "ResourceNotFound"
	codeEntityNotFound    = "EntityNotFound"
	codeEntityExists      = "EntityAlreadyExists"
	codeTableBeingDeleted = "TableBeingDeleted"
)

// IsNotFound checks if an error means the target table or entity is absent.
// Matches both the package sentinel and the service's error codes, so callers
// can treat mock-store and live-store failures uniformly.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.ErrorCode {
		case codeTableNotFound, codeResourceNotFound, codeEntityNotFound:
			return true
		}
		return respErr.StatusCode == 404
	}
	return false
}

// IsConflict checks if an error means the target table or entity already
// exists (or a table is still being deleted server-side).
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.ErrorCode {
		case codeTableExists, codeEntityExists, codeTableBeingDeleted:
			return true
		}
		return respErr.StatusCode == 409
	}
	return false
}
