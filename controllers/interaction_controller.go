package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/snapgramhq/snapgram/models"
	"github.com/snapgramhq/snapgram/utils"
)

const maxCommentRunes = 500

// InteractionController handles the like toggle and comment creation.
type InteractionController struct {
	db *gorm.DB
}

// NewInteractionController creates an InteractionController.
func NewInteractionController(db *gorm.DB) *InteractionController {
	return &InteractionController{db: db}
}

// ToggleLike creates a like for (post, caller) when absent and removes it when
// present. The response is always a redirect back to the referring page; the
// caller infers the new state from the re-rendered page.
func (i *InteractionController) ToggleLike(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}

	var post models.Post
	if err := i.db.First(&post, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
		return
	}

	var like models.Like
	err := i.db.Where("post_id = ? AND user_id = ?", post.ID, userID).First(&like).Error
	switch {
	case err == nil:
		if err := i.db.Delete(&like).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to remove like")
			return
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		createErr := i.db.Create(&models.Like{PostID: post.ID, UserID: userID}).Error
		// A toggle racing itself hits the composite unique index; the pair is
		// already liked, which is the state this branch wanted.
		if createErr != nil && !errors.Is(createErr, gorm.ErrDuplicatedKey) {
			utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to record like")
			return
		}
	default:
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to check like state")
		return
	}

	utils.InvalidateByPrefix(feedCachePrefix)
	redirectBack(ctx, "")
}

// AddComment appends a comment to a post. A failed length validation is
// swallowed: the caller is redirected with nothing persisted and no notice.
func (i *InteractionController) AddComment(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40121, "unauthorized")
		return
	}

	var post models.Post
	if err := i.db.First(&post, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40403, "post not found")
		return
	}

	text := utils.Sanitize(strings.TrimSpace(ctx.PostForm("text")))
	if text == "" || len([]rune(text)) > maxCommentRunes {
		redirectBack(ctx, "")
		return
	}

	comment := models.Comment{
		PostID: post.ID,
		UserID: userID,
		Text:   text,
	}
	if err := i.db.Create(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to create comment")
		return
	}

	utils.InvalidateByPrefix(feedCachePrefix)
	redirectBack(ctx, "Comment added successfully!")
}
