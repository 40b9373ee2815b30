package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/dailydraw/services"
	"github.com/cppla/dailydraw/utils"
)

// PromptController handles community topic proposals and moderator prompt controls.
type PromptController struct {
	prompts *services.PromptEngine
	clock   services.Clock
}

// NewPromptController creates a PromptController.
func NewPromptController(prompts *services.PromptEngine, clock services.Clock) *PromptController {
	if clock == nil {
		clock = services.SystemClock{}
	}
	return &PromptController{prompts: prompts, clock: clock}
}

// Submit records the caller's proposal for today.
func (p *PromptController) Submit(ctx *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}
	id, err := p.prompts.Propose(ctx.Request.Context(), currentUsername(ctx), services.Today(p.clock), req.Text)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"id": id})
}

// Vote casts the caller's vote on a pending proposal.
func (p *PromptController) Vote(ctx *gin.Context) {
	id := ctx.Param("id")
	count, err := p.prompts.VoteOnProposal(ctx.Request.Context(), id, currentUsername(ctx), services.Today(p.clock))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"id": id, "voteCount": count})
}

// List returns pending proposals by effective score.
func (p *PromptController) List(ctx *gin.Context) {
	ideas, err := p.prompts.ListPending(ctx.Request.Context(), currentUsername(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"prompts": ideas})
}

// Top returns the proposal promoted for today, or null.
func (p *PromptController) Top(ctx *gin.Context) {
	day := services.Today(p.clock)
	text, ok, err := p.prompts.SelectedFor(ctx.Request.Context(), day)
	if err != nil {
		respondError(ctx, err)
		return
	}
	var selected interface{}
	if ok {
		selected = text
	}
	utils.Success(ctx, gin.H{"date": day, "prompt": selected})
}

// Select makes a pending proposal today's prompt.
func (p *PromptController) Select(ctx *gin.Context) {
	text, err := p.prompts.AdminSelect(ctx.Request.Context(), ctx.Param("id"), services.Today(p.clock))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"id": ctx.Param("id"), "prompt": text})
}

// Reject retires a pending proposal.
func (p *PromptController) Reject(ctx *gin.Context) {
	if err := p.prompts.AdminReject(ctx.Request.Context(), ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"id": ctx.Param("id"), "status": "rejected"})
}

// Override sets the global prompt override; an empty prompt clears it.
func (p *PromptController) Override(ctx *gin.Context) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40031, "invalid request payload")
		return
	}
	if err := p.prompts.SetOverride(ctx.Request.Context(), req.Prompt); err != nil {
		respondError(ctx, err)
		return
	}
	message := "prompt override set"
	if req.Prompt == "" {
		message = "prompt override cleared, using default rotation"
	}
	utils.Respond(ctx, http.StatusOK, 0, message, gin.H{"prompt": req.Prompt})
}
