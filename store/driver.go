package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that a store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)
	Migrate(ctx context.Context) error

	// TimeBlock model related methods.
	CreateTimeBlock(ctx context.Context, create *TimeBlock) (*TimeBlock, error)
	ListTimeBlocks(ctx context.Context, find *FindTimeBlock) ([]*TimeBlock, error)
	UpdateTimeBlock(ctx context.Context, update *UpdateTimeBlock) (*TimeBlock, error)
	DeleteTimeBlock(ctx context.Context, delete *DeleteTimeBlock) error
}
