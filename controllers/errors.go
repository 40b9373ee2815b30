package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/dailydraw/middleware"
	"github.com/cppla/dailydraw/services"
	"github.com/cppla/dailydraw/utils"
)

type errorMapping struct {
	err    error
	status int
	code   int
}

var serviceErrors = []errorMapping{
	{services.ErrUnauthenticated, http.StatusUnauthorized, 40100},
	{services.ErrForbidden, http.StatusForbidden, 40300},
	{services.ErrNotFound, http.StatusNotFound, 40400},
	{services.ErrInvalidImage, http.StatusBadRequest, 40010},
	{services.ErrSelfVote, http.StatusBadRequest, 40011},
	{services.ErrTooShort, http.StatusBadRequest, 40012},
	{services.ErrTooLong, http.StatusBadRequest, 40013},
	{services.ErrProfane, http.StatusBadRequest, 40014},
	{services.ErrAlreadySubmittedToday, http.StatusConflict, 40901},
	{services.ErrAlreadyVoted, http.StatusConflict, 40902},
	{services.ErrAlreadyProposedToday, http.StatusConflict, 40903},
	{services.ErrNotPending, http.StatusConflict, 40904},
	{services.ErrDayAlreadyClosed, http.StatusConflict, 40905},
	{services.ErrPayloadTooLarge, http.StatusRequestEntityTooLarge, 41301},
	{services.ErrRateLimited, http.StatusTooManyRequests, 42902},
}

// respondError writes the envelope for a service error. Unknown errors are logged and hidden.
func respondError(ctx *gin.Context, err error) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			utils.Error(ctx, m.status, m.code, m.err.Error())
			return
		}
	}
	utils.Logger.Error("request failed",
		zap.String("path", ctx.FullPath()),
		zap.String("user", currentUsername(ctx)),
		zap.Error(err),
	)
	utils.Error(ctx, http.StatusInternalServerError, 50000, "internal server error")
}

// currentUsername is "" for anonymous requests.
func currentUsername(ctx *gin.Context) string {
	return ctx.GetString(middleware.ContextUsernameKey)
}

func getUserID(ctx *gin.Context) (uint, bool) {
	v, ok := ctx.Get(middleware.ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// dayParam reads ?date=, defaulting to today. ok is false after a 400 was written.
func dayParam(ctx *gin.Context, clock services.Clock) (string, bool) {
	day := ctx.Query("date")
	if day == "" {
		return services.Today(clock), true
	}
	if !services.ValidDay(day) {
		utils.Error(ctx, http.StatusBadRequest, 40015, "date must be YYYY-MM-DD")
		return "", false
	}
	return day, true
}
