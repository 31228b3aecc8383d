package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/snapgramhq/snapgram/models"
	"github.com/snapgramhq/snapgram/utils"
)

// previewRunes is the display truncation width of the operator listings.
const previewRunes = 50

// AdminController serves the read-only operator listings. Nothing here
// mutates state.
type AdminController struct {
	db *gorm.DB
}

// NewAdminController creates an AdminController.
func NewAdminController(db *gorm.DB) *AdminController {
	return &AdminController{db: db}
}

type adminPostRow struct {
	ID           uint      `json:"id"`
	Author       string    `json:"author"`
	Anonymous    bool      `json:"anonymous"`
	Caption      string    `json:"caption_preview"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type adminCommentRow struct {
	ID        uint      `json:"id"`
	PostID    uint      `json:"post_id"`
	User      string    `json:"user"`
	Preview   string    `json:"preview"`
	CreatedAt time.Time `json:"created_at"`
}

// ListPosts returns the operator post listing: author display name honoring
// the anonymous flag, truncated caption, like/comment counts and a clickable
// thumbnail URL when an image is present.
func (a *AdminController) ListPosts(ctx *gin.Context) {
	var posts []models.Post
	err := a.db.
		Preload("Author").
		Preload("Likes").
		Preload("Comments").
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to list posts")
		return
	}

	rows := make([]adminPostRow, 0, len(posts))
	for i := range posts {
		post := &posts[i]
		row := adminPostRow{
			ID:           post.ID,
			Author:       post.AuthorName(),
			Anonymous:    post.Anonymous,
			Caption:      CaptionPreview(post.Caption),
			LikeCount:    len(post.Likes),
			CommentCount: len(post.Comments),
			CreatedAt:    post.CreatedAt,
		}
		if post.ImagePath != "" {
			row.ThumbnailURL = "/media/" + post.ImagePath
		}
		rows = append(rows, row)
	}

	utils.Success(ctx, gin.H{"items": rows})
}

// ListComments returns the operator comment listing with flattened previews.
func (a *AdminController) ListComments(ctx *gin.Context) {
	var comments []models.Comment
	err := a.db.
		Preload("User").
		Order("created_at DESC").
		Find(&comments).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to list comments")
		return
	}

	rows := make([]adminCommentRow, 0, len(comments))
	for _, c := range comments {
		rows = append(rows, adminCommentRow{
			ID:        c.ID,
			PostID:    c.PostID,
			User:      c.User.Username,
			Preview:   CommentPreview(c.Text),
			CreatedAt: c.CreatedAt,
		})
	}

	utils.Success(ctx, gin.H{"items": rows})
}

// CaptionPreview truncates a caption for list display.
func CaptionPreview(s string) string {
	return truncate(s, previewRunes)
}

// CommentPreview flattens newlines to spaces, trims, and truncates.
func CommentPreview(s string) string {
	flat := strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	return truncate(flat, previewRunes)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
