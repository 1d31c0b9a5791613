package product

import (
	"context"
	"time"
)

// Product is a persisted name/price pair. ID and CreatedAt are assigned
// by the store; rows are never updated or deleted.
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

type Store interface {
	// EnsureSchema creates the products table when it does not exist.
	EnsureSchema(ctx context.Context) error
	// List returns products newest first, restricted to names containing
	// search when search is non-empty.
	List(ctx context.Context, search string) ([]Product, error)
	Insert(ctx context.Context, name string, price float64) (Product, error)
	Ping(ctx context.Context) error
}

// StorageError reports a driver failure. Its message is the driver's.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
