package store

import (
	"context"

	"github.com/hrygo/blockwise/engine/timeblock"
)

// BlockSource adapts the store to the engine's read-only history port.
type BlockSource struct {
	store *Store
}

// NewBlockSource creates a history source backed by the store.
func NewBlockSource(s *Store) *BlockSource {
	return &BlockSource{store: s}
}

// GetBlocks returns the user's blocks with dates in [from, to], ordered by
// (date, hour, start_minute).
func (b *BlockSource) GetBlocks(ctx context.Context, userID string, from, to timeblock.Date) ([]timeblock.Block, error) {
	dateFrom, dateTo := string(from), string(to)
	rows, err := b.store.ListTimeBlocks(ctx, &FindTimeBlock{
		UserID:   &userID,
		DateFrom: &dateFrom,
		DateTo:   &dateTo,
	})
	if err != nil {
		return nil, err
	}

	blocks := make([]timeblock.Block, 0, len(rows))
	for _, row := range rows {
		blocks = append(blocks, row.EngineBlock())
	}
	return blocks, nil
}
