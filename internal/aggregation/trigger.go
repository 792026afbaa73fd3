package aggregation

import (
	"errors"
	"log/slog"
	"net/http"

	httperr "github.com/oa-device/oaParkingMonitor/internal/core/errors"

	"github.com/gin-gonic/gin"
)

// TriggerService exposes on-demand aggregation runs over HTTP.
// It drives the same Runner as the scheduler, so a manual trigger and a
// scheduled tick can never fold concurrently.
type TriggerService struct {
	runner *Runner
}

func NewTriggerService(runner *Runner) *TriggerService {
	if runner == nil {
		panic("aggregation: runner must not be nil")
	}
	return &TriggerService{runner: runner}
}

// RegisterRoutes registers the aggregation trigger routes.
func (s *TriggerService) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/aggregations/run", s.RunHandler)
}

// RunHandler executes one aggregation run and reports the structured result.
func (s *TriggerService) RunHandler(c *gin.Context) {
	result, err := s.runner.Run(c.Request.Context())
	if err != nil {
		if errors.Is(err, ErrRunInProgress) {
			c.JSON(http.StatusConflict, httperr.ErrorResponse{
				ErrorType: httperr.HttpRunInProgressError,
				Message:   err.Error(),
			})
			return
		}

		slog.Error("[AggregationTrigger] Run failed", "error", err)
		c.JSON(http.StatusInternalServerError, result)
		return
	}

	c.JSON(http.StatusOK, result)
}
