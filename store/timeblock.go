package store

import (
	"context"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/blockwise/engine/timeblock"
)

// TimeBlock is a stored calendar entry: one planned or completed activity
// on a single day. Dates are YYYY-MM-DD strings so lexicographic range
// scans match chronological order in every driver.
type TimeBlock struct {
	UID             string
	UserID          string
	Date            string
	Category        string
	Title           string
	CreatedTs       int64
	UpdatedTs       int64
	ID              int32
	Hour            int32
	StartMinute     int32
	DurationMinutes int32
	Completed       bool
}

// EngineBlock converts the stored row into the engine's block value.
func (t *TimeBlock) EngineBlock() timeblock.Block {
	return timeblock.Block{
		ID:              t.UID,
		Date:            timeblock.Date(t.Date),
		Hour:            int(t.Hour),
		StartMinute:     int(t.StartMinute),
		DurationMinutes: int(t.DurationMinutes),
		Category:        timeblock.NormalizeCategory(t.Category),
		Completed:       t.Completed,
		Title:           t.Title,
	}
}

// FindTimeBlock is the find condition for time blocks.
type FindTimeBlock struct {
	ID        *int32
	UID       *string
	UserID    *string
	Date      *string
	DateFrom  *string // inclusive
	DateTo    *string // inclusive
	Category  *string
	Completed *bool
	Limit     *int
	Offset    *int
}

// UpdateTimeBlock is the update condition for a time block, keyed by UID.
// Nil fields are left untouched.
type UpdateTimeBlock struct {
	Date            *string
	Hour            *int32
	StartMinute     *int32
	DurationMinutes *int32
	Category        *string
	Completed       *bool
	Title           *string
	UpdatedTs       *int64
	UID             string
}

// DeleteTimeBlock is the delete condition for a time block.
type DeleteTimeBlock struct {
	UID string
}

// CreateTimeBlock creates a time block. A missing UID is generated and
// missing timestamps are filled in.
func (s *Store) CreateTimeBlock(ctx context.Context, create *TimeBlock) (*TimeBlock, error) {
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	if create.UpdatedTs == 0 {
		create.UpdatedTs = create.CreatedTs
	}
	return s.driver.CreateTimeBlock(ctx, create)
}

// ListTimeBlocks lists time blocks ordered by (date, hour, start_minute).
func (s *Store) ListTimeBlocks(ctx context.Context, find *FindTimeBlock) ([]*TimeBlock, error) {
	return s.driver.ListTimeBlocks(ctx, find)
}

// GetTimeBlock returns the first matching time block, or nil when none
// matches.
func (s *Store) GetTimeBlock(ctx context.Context, find *FindTimeBlock) (*TimeBlock, error) {
	blocks, err := s.driver.ListTimeBlocks(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, nil
	}
	return blocks[0], nil
}

// UpdateTimeBlock updates a time block. The updated_ts is bumped unless the
// caller supplies one.
func (s *Store) UpdateTimeBlock(ctx context.Context, update *UpdateTimeBlock) (*TimeBlock, error) {
	if update.UpdatedTs == nil {
		now := time.Now().Unix()
		update.UpdatedTs = &now
	}
	return s.driver.UpdateTimeBlock(ctx, update)
}

// DeleteTimeBlock deletes a time block.
func (s *Store) DeleteTimeBlock(ctx context.Context, delete *DeleteTimeBlock) error {
	return s.driver.DeleteTimeBlock(ctx, delete)
}
