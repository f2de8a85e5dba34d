package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hrygo/blockwise/store"
)

const timeBlockFields = "id, uid, user_id, date, hour, start_minute, duration_minutes, category, completed, title, created_ts, updated_ts"

func scanTimeBlock(row interface{ Scan(dest ...any) error }) (*store.TimeBlock, error) {
	var block store.TimeBlock
	err := row.Scan(
		&block.ID,
		&block.UID,
		&block.UserID,
		&block.Date,
		&block.Hour,
		&block.StartMinute,
		&block.DurationMinutes,
		&block.Category,
		&block.Completed,
		&block.Title,
		&block.CreatedTs,
		&block.UpdatedTs,
	)
	if err != nil {
		return nil, err
	}
	return &block, nil
}

func (db *DB) CreateTimeBlock(ctx context.Context, create *store.TimeBlock) (*store.TimeBlock, error) {
	query := `
		INSERT INTO time_block (uid, user_id, date, hour, start_minute, duration_minutes, category, completed, title, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + timeBlockFields
	block, err := scanTimeBlock(db.db.QueryRowContext(ctx, query,
		create.UID,
		create.UserID,
		create.Date,
		create.Hour,
		create.StartMinute,
		create.DurationMinutes,
		create.Category,
		create.Completed,
		create.Title,
		create.CreatedTs,
		create.UpdatedTs,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create time block: %w", err)
	}
	return block, nil
}

func (db *DB) ListTimeBlocks(ctx context.Context, find *store.FindTimeBlock) ([]*store.TimeBlock, error) {
	query := `SELECT ` + timeBlockFields + ` FROM time_block WHERE 1=1`
	var args []interface{}
	argIndex := 1

	appendCond := func(cond string, value interface{}) {
		query += fmt.Sprintf(" AND %s = $%d", cond, argIndex)
		args = append(args, value)
		argIndex++
	}
	if find.ID != nil {
		appendCond("id", *find.ID)
	}
	if find.UID != nil {
		appendCond("uid", *find.UID)
	}
	if find.UserID != nil {
		appendCond("user_id", *find.UserID)
	}
	if find.Date != nil {
		appendCond("date", *find.Date)
	}
	if find.DateFrom != nil {
		query += fmt.Sprintf(" AND date >= $%d", argIndex)
		args = append(args, *find.DateFrom)
		argIndex++
	}
	if find.DateTo != nil {
		query += fmt.Sprintf(" AND date <= $%d", argIndex)
		args = append(args, *find.DateTo)
		argIndex++
	}
	if find.Category != nil {
		appendCond("category", *find.Category)
	}
	if find.Completed != nil {
		appendCond("completed", *find.Completed)
	}

	query += " ORDER BY date, hour, start_minute"

	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, *find.Limit)
		argIndex++
		if find.Offset != nil {
			query += fmt.Sprintf(" OFFSET $%d", argIndex)
			args = append(args, *find.Offset)
		}
	}

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list time blocks: %w", err)
	}
	defer rows.Close()

	var blocks []*store.TimeBlock
	for rows.Next() {
		block, err := scanTimeBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan time block: %w", err)
		}
		blocks = append(blocks, block)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list time blocks: %w", err)
	}
	return blocks, nil
}

func (db *DB) UpdateTimeBlock(ctx context.Context, update *store.UpdateTimeBlock) (*store.TimeBlock, error) {
	var set []string
	var args []interface{}
	argIndex := 1

	appendSet := func(field string, value interface{}) {
		set = append(set, fmt.Sprintf("%s = $%d", field, argIndex))
		args = append(args, value)
		argIndex++
	}
	if update.Date != nil {
		appendSet("date", *update.Date)
	}
	if update.Hour != nil {
		appendSet("hour", *update.Hour)
	}
	if update.StartMinute != nil {
		appendSet("start_minute", *update.StartMinute)
	}
	if update.DurationMinutes != nil {
		appendSet("duration_minutes", *update.DurationMinutes)
	}
	if update.Category != nil {
		appendSet("category", *update.Category)
	}
	if update.Completed != nil {
		appendSet("completed", *update.Completed)
	}
	if update.Title != nil {
		appendSet("title", *update.Title)
	}
	if update.UpdatedTs != nil {
		appendSet("updated_ts", *update.UpdatedTs)
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	query := `UPDATE time_block SET ` + strings.Join(set, ", ") +
		fmt.Sprintf(" WHERE uid = $%d RETURNING %s", argIndex, timeBlockFields)
	args = append(args, update.UID)

	block, err := scanTimeBlock(db.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to update time block: %w", err)
	}
	return block, nil
}

func (db *DB) DeleteTimeBlock(ctx context.Context, delete *store.DeleteTimeBlock) error {
	query := `DELETE FROM time_block WHERE uid = $1`
	result, err := db.db.ExecContext(ctx, query, delete.UID)
	if err != nil {
		return fmt.Errorf("failed to delete time block: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
