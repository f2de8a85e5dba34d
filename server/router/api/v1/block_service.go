package v1

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/blockwise/engine/timeblock"
	"github.com/hrygo/blockwise/store"
)

// BlockService provides time block CRUD APIs. Blocks are the persisted
// calendar entries the engine reads; accepted suggestions come back through
// CreateTimeBlock like any manual entry.
type BlockService struct {
	Store *store.Store
}

// TimeBlock is the wire shape of a stored time block.
type TimeBlock struct {
	UID             string `json:"uid"`
	UserID          string `json:"userId"`
	Date            string `json:"date"`
	Hour            int32  `json:"hour"`
	StartMinute     int32  `json:"startMinute"`
	DurationMinutes int32  `json:"durationMinutes"`
	Category        string `json:"category"`
	Completed       bool   `json:"completed"`
	Title           string `json:"title,omitempty"`
	CreatedTs       int64  `json:"createdTs"`
	UpdatedTs       int64  `json:"updatedTs"`
}

// timeBlockFromStore converts a store.TimeBlock to its wire shape.
func timeBlockFromStore(b *store.TimeBlock) *TimeBlock {
	return &TimeBlock{
		UID:             b.UID,
		UserID:          b.UserID,
		Date:            b.Date,
		Hour:            b.Hour,
		StartMinute:     b.StartMinute,
		DurationMinutes: b.DurationMinutes,
		Category:        b.Category,
		Completed:       b.Completed,
		Title:           b.Title,
		CreatedTs:       b.CreatedTs,
		UpdatedTs:       b.UpdatedTs,
	}
}

type createTimeBlockRequest struct {
	Date            string `json:"date"`
	Hour            int32  `json:"hour"`
	StartMinute     int32  `json:"startMinute"`
	DurationMinutes int32  `json:"durationMinutes"`
	Category        string `json:"category"`
	Completed       bool   `json:"completed"`
	Title           string `json:"title"`
}

type updateTimeBlockRequest struct {
	Date            *string `json:"date"`
	Hour            *int32  `json:"hour"`
	StartMinute     *int32  `json:"startMinute"`
	DurationMinutes *int32  `json:"durationMinutes"`
	Category        *string `json:"category"`
	Completed       *bool   `json:"completed"`
	Title           *string `json:"title"`
}

// CreateTimeBlock creates a block for the user. The UID is always server
// generated.
func (s *BlockService) CreateTimeBlock(c echo.Context) error {
	userID := c.Param("user")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user is required")
	}

	var req createTimeBlockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if _, err := timeblock.ParseDate(req.Date); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
	}
	if req.Hour < 0 || req.Hour > 23 {
		return echo.NewHTTPError(http.StatusBadRequest, "hour must be between 0 and 23")
	}
	if req.StartMinute < 0 || req.StartMinute > 59 {
		return echo.NewHTTPError(http.StatusBadRequest, "startMinute must be between 0 and 59")
	}
	if req.DurationMinutes <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "durationMinutes must be positive")
	}
	category := req.Category
	if category == "" {
		category = string(timeblock.CategoryUnknown)
	}

	created, err := s.Store.CreateTimeBlock(c.Request().Context(), &store.TimeBlock{
		UserID:          userID,
		Date:            req.Date,
		Hour:            req.Hour,
		StartMinute:     req.StartMinute,
		DurationMinutes: req.DurationMinutes,
		Category:        category,
		Completed:       req.Completed,
		Title:           req.Title,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create time block").SetInternal(err)
	}
	return c.JSON(http.StatusOK, timeBlockFromStore(created))
}

// ListTimeBlocks lists the user's blocks, optionally bounded to an inclusive
// date range and narrowed by a CEL filter expression.
func (s *BlockService) ListTimeBlocks(c echo.Context) error {
	userID := c.Param("user")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user is required")
	}

	find := &store.FindTimeBlock{UserID: &userID}
	if raw := c.QueryParam("from"); raw != "" {
		if _, err := timeblock.ParseDate(raw); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from date, expected YYYY-MM-DD")
		}
		find.DateFrom = &raw
	}
	if raw := c.QueryParam("to"); raw != "" {
		if _, err := timeblock.ParseDate(raw); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to date, expected YYYY-MM-DD")
		}
		find.DateTo = &raw
	}

	limit := 100
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = parsed
	}

	// The filter narrows rows after the range scan, so the row limit only
	// goes into SQL when no filter runs.
	filterStr := c.QueryParam("filter")
	var filter func(*store.TimeBlock) (bool, error)
	if filterStr != "" {
		compiled, err := compileBlockFilter(filterStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		filter = compiled
	} else {
		find.Limit = &limit
	}

	blocks, err := s.Store.ListTimeBlocks(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list time blocks").SetInternal(err)
	}

	result := make([]*TimeBlock, 0, len(blocks))
	for _, block := range blocks {
		if filter != nil {
			keep, err := filter(block)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}
			if !keep {
				continue
			}
		}
		result = append(result, timeBlockFromStore(block))
		if len(result) >= limit {
			break
		}
	}
	return c.JSON(http.StatusOK, result)
}

// UpdateTimeBlock applies a partial update to a block by UID. Absent fields
// stay untouched.
func (s *BlockService) UpdateTimeBlock(c echo.Context) error {
	uid := c.Param("uid")
	if uid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "uid is required")
	}

	var req updateTimeBlockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}

	update := &store.UpdateTimeBlock{UID: uid}
	changed := false
	if req.Date != nil {
		if _, err := timeblock.ParseDate(*req.Date); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		}
		update.Date = req.Date
		changed = true
	}
	if req.Hour != nil {
		if *req.Hour < 0 || *req.Hour > 23 {
			return echo.NewHTTPError(http.StatusBadRequest, "hour must be between 0 and 23")
		}
		update.Hour = req.Hour
		changed = true
	}
	if req.StartMinute != nil {
		if *req.StartMinute < 0 || *req.StartMinute > 59 {
			return echo.NewHTTPError(http.StatusBadRequest, "startMinute must be between 0 and 59")
		}
		update.StartMinute = req.StartMinute
		changed = true
	}
	if req.DurationMinutes != nil {
		if *req.DurationMinutes <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "durationMinutes must be positive")
		}
		update.DurationMinutes = req.DurationMinutes
		changed = true
	}
	if req.Category != nil {
		update.Category = req.Category
		changed = true
	}
	if req.Completed != nil {
		update.Completed = req.Completed
		changed = true
	}
	if req.Title != nil {
		update.Title = req.Title
		changed = true
	}
	if !changed {
		return echo.NewHTTPError(http.StatusBadRequest, "no fields to update")
	}

	updated, err := s.Store.UpdateTimeBlock(c.Request().Context(), update)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "time block not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update time block").SetInternal(err)
	}
	return c.JSON(http.StatusOK, timeBlockFromStore(updated))
}

// DeleteTimeBlock deletes a block by UID.
func (s *BlockService) DeleteTimeBlock(c echo.Context) error {
	uid := c.Param("uid")
	if uid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "uid is required")
	}

	err := s.Store.DeleteTimeBlock(c.Request().Context(), &store.DeleteTimeBlock{UID: uid})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "time block not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete time block").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"deleted": true})
}
