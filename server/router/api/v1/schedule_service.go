package v1

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/blockwise/engine"
	"github.com/hrygo/blockwise/engine/timeblock"
)

// ScheduleService provides the scheduling APIs: behavior profiles, slot
// suggestions for single tasks and batches, and generated day templates.
type ScheduleService struct {
	Engine *engine.Engine
}

type scheduleTaskRequest struct {
	Task timeblock.Task `json:"task"`
	Date string         `json:"date"`
}

type scheduleBatchRequest struct {
	Tasks []timeblock.Task `json:"tasks"`
	Date  string           `json:"date"`
}

// GetUserProfile returns the behavior profile computed over the trailing
// window. windowDays overrides the configured window when positive.
func (s *ScheduleService) GetUserProfile(c echo.Context) error {
	userID := c.Param("user")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user is required")
	}

	windowDays := 0
	if raw := c.QueryParam("windowDays"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid windowDays format")
		}
		windowDays = parsed
	}

	profile, err := s.Engine.GetProfile(c.Request().Context(), userID, windowDays)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to compute profile").SetInternal(err)
	}
	return c.JSON(http.StatusOK, profile)
}

// ScheduleTask suggests a slot for one task on one date. When no slot fits,
// it answers 409 Conflict carrying the deterministic reason.
func (s *ScheduleService) ScheduleTask(c echo.Context) error {
	userID := c.Param("user")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user is required")
	}

	var req scheduleTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	date, err := requestDate(req.Date)
	if err != nil {
		return err
	}

	suggestion, err := s.Engine.ScheduleOne(c.Request().Context(), userID, req.Task, date)
	if err != nil {
		if errors.Is(err, engine.ErrNoSlotAvailable) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to schedule task").SetInternal(err)
	}
	return c.JSON(http.StatusOK, suggestion)
}

// ScheduleBatch places a batch of tasks on one date. Tasks that find no slot
// are reported in the result, not as an error status.
func (s *ScheduleService) ScheduleBatch(c echo.Context) error {
	userID := c.Param("user")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user is required")
	}

	var req scheduleBatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	date, err := requestDate(req.Date)
	if err != nil {
		return err
	}

	result, err := s.Engine.ScheduleMany(c.Request().Context(), userID, req.Tasks, date)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to schedule batch").SetInternal(err)
	}
	return c.JSON(http.StatusOK, result)
}

// GetDayTemplate returns a generated day plan for the date, today when the
// date query is empty.
func (s *ScheduleService) GetDayTemplate(c echo.Context) error {
	userID := c.Param("user")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user is required")
	}

	date := timeblock.DateOf(time.Now())
	if raw := c.QueryParam("date"); raw != "" {
		parsed, err := timeblock.ParseDate(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		}
		date = parsed
	}

	template, err := s.Engine.GenerateTemplate(c.Request().Context(), userID, date)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate template").SetInternal(err)
	}
	return c.JSON(http.StatusOK, template)
}

// requestDate validates a required date field from a request body.
func requestDate(raw string) (timeblock.Date, error) {
	if raw == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "date is required")
	}
	date, err := timeblock.ParseDate(raw)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
	}
	return date, nil
}
