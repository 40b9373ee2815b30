package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cppla/dailydraw/models"
	"github.com/cppla/dailydraw/utils"
)

// Announcer publishes the day's announcement post and its follow-up comments.
type Announcer interface {
	CreatePost(ctx context.Context, day, title string) (string, error)
	PostComment(ctx context.Context, ref, body string) error
}

// GormAnnouncer keeps announcements in the relational database.
type GormAnnouncer struct {
	db *gorm.DB
}

// NewGormAnnouncer creates an announcer on db.
func NewGormAnnouncer(db *gorm.DB) *GormAnnouncer {
	return &GormAnnouncer{db: db}
}

// CreatePost stores a new announcement for day and returns its public ref.
func (a *GormAnnouncer) CreatePost(ctx context.Context, day, title string) (string, error) {
	post := models.Post{
		Ref:    uuid.NewString(),
		DayKey: day,
		Title:  title,
	}
	if err := a.db.WithContext(ctx).Create(&post).Error; err != nil {
		return "", fmt.Errorf("create announcement: %w", err)
	}
	return post.Ref, nil
}

// PostComment attaches a markdown comment to the post ref.
func (a *GormAnnouncer) PostComment(ctx context.Context, ref, body string) error {
	var post models.Post
	if err := a.db.WithContext(ctx).Where("ref = ?", ref).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("load announcement: %w", err)
	}
	comment := models.Comment{
		PostID: post.ID,
		Body:   body,
		HTML:   utils.RenderMarkdown(body),
	}
	if err := a.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// ListPosts returns announcements newest first.
func (a *GormAnnouncer) ListPosts(ctx context.Context, page, pageSize int) ([]models.Post, int64, error) {
	var (
		posts []models.Post
		total int64
	)
	q := a.db.WithContext(ctx).Model(&models.Post{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// GetPost loads an announcement with its comments.
func (a *GormAnnouncer) GetPost(ctx context.Context, ref string) (models.Post, error) {
	var post models.Post
	err := a.db.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("ref = ?", ref).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return post, ErrNotFound
	}
	return post, err
}

// FormatResults renders the winners table posted when a day closes.
func FormatResults(day string, entries []models.LeaderboardEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## 🏆 Daily Draw Challenge – Winners (%s)\n\n", day)
	b.WriteString("| Place | Artist | Votes |\n")
	b.WriteString("|:--|:--|:--|\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "| %d | u/%s | %d |\n", e.Rank, e.Username, e.VoteCount)
	}
	b.WriteString("\nGreat work everyone! See you tomorrow for the next prompt.")
	return b.String()
}
