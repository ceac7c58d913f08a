package shared

import "errors"

var (
	// ErrInvalidParameter indicates a report request rejected at the boundary.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrDataIntegrity indicates master data that cannot be resolved.
	ErrDataIntegrity = errors.New("data integrity violation")
	// ErrConfiguration indicates missing company or currency configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrDataSource indicates a ledger query collaborator failure.
	ErrDataSource = errors.New("data source error")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
)
