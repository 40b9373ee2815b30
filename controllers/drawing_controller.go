package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/dailydraw/config"
	"github.com/cppla/dailydraw/services"
	"github.com/cppla/dailydraw/utils"
)

// DrawingController serves the daily prompt, drawing submissions, votes and the podium.
type DrawingController struct {
	ledger   *services.Ledger
	prompts  *services.PromptEngine
	chain    *services.PromptChain
	rollover *services.Rollover
	clock    services.Clock
}

// NewDrawingController creates a DrawingController.
func NewDrawingController(ledger *services.Ledger, prompts *services.PromptEngine, chain *services.PromptChain, rollover *services.Rollover, clock services.Clock) *DrawingController {
	if clock == nil {
		clock = services.SystemClock{}
	}
	return &DrawingController{ledger: ledger, prompts: prompts, chain: chain, rollover: rollover, clock: clock}
}

// Init returns everything the client needs on first load.
func (d *DrawingController) Init(ctx *gin.Context) {
	day := services.Today(d.clock)
	prompt, source, err := d.chain.Resolve(ctx.Request.Context(), day)
	if err != nil {
		respondError(ctx, err)
		return
	}
	user := currentUsername(ctx)
	profile, err := services.Profile(ctx.Request.Context(), d.ledger, d.prompts, user, day, config.Get().IsModerator(user))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{
		"date":         day,
		"prompt":       prompt,
		"promptSource": source,
		"username":     user,
		"profile":      profile,
	})
}

// Prompt returns the active prompt of a day.
func (d *DrawingController) Prompt(ctx *gin.Context) {
	day, ok := dayParam(ctx, d.clock)
	if !ok {
		return
	}
	prompt, source, err := d.chain.Resolve(ctx.Request.Context(), day)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"date": day, "prompt": prompt, "source": source})
}

// Submit enters the caller's drawing for today.
func (d *DrawingController) Submit(ctx *gin.Context) {
	var req struct {
		ImageBase64 string `json:"imageBase64" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	day := services.Today(d.clock)
	postRef, err := d.rollover.DailyPostRef(ctx.Request.Context(), day)
	if err != nil {
		respondError(ctx, err)
		return
	}
	id, err := d.ledger.Submit(ctx.Request.Context(), currentUsername(ctx), day, req.ImageBase64, postRef)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"id": id, "date": day})
}

// Submissions lists a day's gallery with the caller's vote flags.
func (d *DrawingController) Submissions(ctx *gin.Context) {
	day, ok := dayParam(ctx, d.clock)
	if !ok {
		return
	}
	views, err := d.ledger.ListForDay(ctx.Request.Context(), day, currentUsername(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"date": day, "submissions": views})
}

// Vote casts the caller's vote on a submission.
func (d *DrawingController) Vote(ctx *gin.Context) {
	var req struct {
		SubmissionID string `json:"submissionId" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40021, "invalid request payload")
		return
	}
	count, err := d.ledger.Vote(ctx.Request.Context(), req.SubmissionID, currentUsername(ctx), services.Today(d.clock))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"submissionId": req.SubmissionID, "voteCount": count})
}

// Leaderboard returns a day's top three.
func (d *DrawingController) Leaderboard(ctx *gin.Context) {
	day, ok := dayParam(ctx, d.clock)
	if !ok {
		return
	}
	entries, err := d.ledger.Leaderboard(ctx.Request.Context(), day)
	if err != nil {
		respondError(ctx, err)
		return
	}
	_, closed, err := d.ledger.WinRecord(ctx.Request.Context(), day)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"date": day, "closed": closed, "entries": entries})
}

// Profile returns the caller's wins, badge and today's participation.
func (d *DrawingController) Profile(ctx *gin.Context) {
	user := currentUsername(ctx)
	day := services.Today(d.clock)
	profile, err := services.Profile(ctx.Request.Context(), d.ledger, d.prompts, user, day, config.Get().IsModerator(user))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, profile)
}
