package controllers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/snapgramhq/snapgram/models"
	"github.com/snapgramhq/snapgram/utils"
)

// StatsController provides aggregate content statistics.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetStats returns aggregate counts. Failures degrade to zero instead of
// failing the whole endpoint.
func (s *StatsController) GetStats(ctx *gin.Context) {
	var userCount, postCount, commentCount, likeCount int64

	if err := s.db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		userCount = 0
	}
	if err := s.db.Model(&models.Post{}).Count(&postCount).Error; err != nil {
		postCount = 0
	}
	if err := s.db.Model(&models.Comment{}).Count(&commentCount).Error; err != nil {
		commentCount = 0
	}
	if err := s.db.Model(&models.Like{}).Count(&likeCount).Error; err != nil {
		likeCount = 0
	}

	utils.Success(ctx, gin.H{
		"user_count":    userCount,
		"post_count":    postCount,
		"comment_count": commentCount,
		"like_count":    likeCount,
	})
}
