package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cppla/dailydraw/models"
	"github.com/cppla/dailydraw/services"
	"github.com/cppla/dailydraw/utils"
)

// PostReader reads announcement posts. *services.GormAnnouncer implements it.
type PostReader interface {
	ListPosts(ctx context.Context, page, pageSize int) ([]models.Post, int64, error)
	GetPost(ctx context.Context, ref string) (models.Post, error)
}

// PostController serves the daily announcements and their results comments.
type PostController struct {
	posts    PostReader
	rollover *services.Rollover
}

// NewPostController creates a PostController.
func NewPostController(posts PostReader, rollover *services.Rollover) *PostController {
	return &PostController{posts: posts, rollover: rollover}
}

// ListPosts returns announcements, newest first.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	posts, total, err := p.posts.ListPosts(ctx.Request.Context(), page, pageSize)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.SuccessPage(ctx, posts, total, page, pageSize)
}

// GetPost returns one announcement with its comments.
func (p *PostController) GetPost(ctx *gin.Context) {
	post, err := p.posts.GetPost(ctx.Request.Context(), ctx.Param("ref"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, post)
}

// CreateDailyPost lets a moderator publish today's announcement by hand.
func (p *PostController) CreateDailyPost(ctx *gin.Context) {
	ref, err := p.rollover.CreateDailyPost(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "post created", gin.H{"ref": ref})
}
