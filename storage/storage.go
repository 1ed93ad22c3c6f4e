package storage

import (
	"context"

	"github.com/sig-0/ufrates/storage/types"
)

// Storage is an abstraction over resolved UF cell values
type Storage interface {
	// Get fetches the cell value stored for the key, if any
	Get(context.Context, types.LookupKey) (string, bool, error)

	// Save stores the cell value for the key
	Save(context.Context, types.LookupKey, string) error

	// Len returns the number of stored keys
	Len() int
}
