package v1

import (
	"github.com/labstack/echo/v4"

	"github.com/hrygo/blockwise/engine"
	"github.com/hrygo/blockwise/internal/profile"
	"github.com/hrygo/blockwise/store"
)

type APIV1Service struct {
	// Domain Services
	ScheduleService *ScheduleService
	BlockService    *BlockService

	// Shared Infra
	Profile *profile.Profile
	Store   *store.Store
	Engine  *engine.Engine
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store, engine *engine.Engine) *APIV1Service {
	return &APIV1Service{
		ScheduleService: &ScheduleService{Engine: engine},
		BlockService:    &BlockService{Store: store},
		Profile:         profile,
		Store:           store,
		Engine:          engine,
	}
}

// RegisterRoutes registers the v1 REST endpoints with the given Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	apiV1Group := echoServer.Group("/api/v1")

	// Scheduling endpoints read history and return suggestions; they never
	// write blocks. Accepting a suggestion is a plain block create.
	apiV1Group.GET("/users/:user/profile", s.ScheduleService.GetUserProfile)
	apiV1Group.POST("/users/:user/schedule", s.ScheduleService.ScheduleTask)
	apiV1Group.POST("/users/:user/schedule/batch", s.ScheduleService.ScheduleBatch)
	apiV1Group.GET("/users/:user/template", s.ScheduleService.GetDayTemplate)

	apiV1Group.POST("/users/:user/blocks", s.BlockService.CreateTimeBlock)
	apiV1Group.GET("/users/:user/blocks", s.BlockService.ListTimeBlocks)
	apiV1Group.PATCH("/blocks/:uid", s.BlockService.UpdateTimeBlock)
	apiV1Group.DELETE("/blocks/:uid", s.BlockService.DeleteTimeBlock)
}
