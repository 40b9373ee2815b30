package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/dailydraw/services"
	"github.com/cppla/dailydraw/utils"
)

// SchedulerController exposes the rollover to an external cron.
type SchedulerController struct {
	rollover *services.Rollover
}

// NewSchedulerController creates a SchedulerController.
func NewSchedulerController(rollover *services.Rollover) *SchedulerController {
	return &SchedulerController{rollover: rollover}
}

// DailyRollover answers only ok or error; details go to the log.
func (s *SchedulerController) DailyRollover(ctx *gin.Context) {
	report, err := s.rollover.Run(ctx.Request.Context())
	if err != nil {
		utils.Logger.Error("daily rollover failed", zap.String("run", report.RunID), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"status": "error"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}
