package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/blockwise/store"
)

func (d *DB) CreateTimeBlock(ctx context.Context, create *store.TimeBlock) (*store.TimeBlock, error) {
	stmt := `
		INSERT INTO time_block (uid, user_id, date, hour, start_minute, duration_minutes, category, completed, title, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, uid, user_id, date, hour, start_minute, duration_minutes, category, completed, title, created_ts, updated_ts
	`
	var block store.TimeBlock
	err := d.db.QueryRowContext(ctx, stmt,
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
	).Scan(
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
		return nil, errors.Wrap(err, "failed to create time block")
	}
	return &block, nil
}

func (d *DB) ListTimeBlocks(ctx context.Context, find *store.FindTimeBlock) ([]*store.TimeBlock, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = ?"), append(args, *find.UID)
	}
	if find.UserID != nil {
		where, args = append(where, "user_id = ?"), append(args, *find.UserID)
	}
	if find.Date != nil {
		where, args = append(where, "date = ?"), append(args, *find.Date)
	}
	if find.DateFrom != nil {
		where, args = append(where, "date >= ?"), append(args, *find.DateFrom)
	}
	if find.DateTo != nil {
		where, args = append(where, "date <= ?"), append(args, *find.DateTo)
	}
	if find.Category != nil {
		where, args = append(where, "category = ?"), append(args, *find.Category)
	}
	if find.Completed != nil {
		where, args = append(where, "completed = ?"), append(args, *find.Completed)
	}

	query := `SELECT id, uid, user_id, date, hour, start_minute, duration_minutes, category, completed, title, created_ts, updated_ts
		FROM time_block
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY date, hour, start_minute`

	if find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
		if find.Offset != nil {
			query += " OFFSET ?"
			args = append(args, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list time blocks")
	}
	defer rows.Close()

	var blocks []*store.TimeBlock
	for rows.Next() {
		var block store.TimeBlock
		err := rows.Scan(
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
			return nil, errors.Wrap(err, "failed to scan time block")
		}
		blocks = append(blocks, &block)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return blocks, nil
}

func (d *DB) UpdateTimeBlock(ctx context.Context, update *store.UpdateTimeBlock) (*store.TimeBlock, error) {
	set, args := []string{}, []any{}

	if update.Date != nil {
		set, args = append(set, "date = ?"), append(args, *update.Date)
	}
	if update.Hour != nil {
		set, args = append(set, "hour = ?"), append(args, *update.Hour)
	}
	if update.StartMinute != nil {
		set, args = append(set, "start_minute = ?"), append(args, *update.StartMinute)
	}
	if update.DurationMinutes != nil {
		set, args = append(set, "duration_minutes = ?"), append(args, *update.DurationMinutes)
	}
	if update.Category != nil {
		set, args = append(set, "category = ?"), append(args, *update.Category)
	}
	if update.Completed != nil {
		set, args = append(set, "completed = ?"), append(args, *update.Completed)
	}
	if update.Title != nil {
		set, args = append(set, "title = ?"), append(args, *update.Title)
	}
	if update.UpdatedTs != nil {
		set, args = append(set, "updated_ts = ?"), append(args, *update.UpdatedTs)
	}
	if len(set) == 0 {
		return nil, errors.New("no fields to update")
	}
	args = append(args, update.UID)

	stmt := `UPDATE time_block SET ` + strings.Join(set, ", ") + ` WHERE uid = ?
		RETURNING id, uid, user_id, date, hour, start_minute, duration_minutes, category, completed, title, created_ts, updated_ts`
	var block store.TimeBlock
	err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
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
		return nil, errors.Wrap(err, "failed to update time block")
	}
	return &block, nil
}

func (d *DB) DeleteTimeBlock(ctx context.Context, delete *store.DeleteTimeBlock) error {
	stmt := `DELETE FROM time_block WHERE uid = ?`
	result, err := d.db.ExecContext(ctx, stmt, delete.UID)
	if err != nil {
		return errors.Wrap(err, "failed to delete time block")
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
