package controllers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/snapgramhq/snapgram/middleware"
)

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}

func getUsername(ctx *gin.Context) string {
	value, exists := ctx.Get(middleware.ContextUsernameKey)
	if !exists {
		return ""
	}
	uname, _ := value.(string)
	return uname
}

func parsePage(pageStr string) int {
	page := 1
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	return page
}

// redirectWithNotice issues the post-mutation redirect carrying the queued
// success notice as a query parameter for the page to display.
func redirectWithNotice(ctx *gin.Context, target, notice string) {
	if notice != "" {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target = target + sep + "notice=" + url.QueryEscape(notice)
	}
	ctx.Redirect(http.StatusFound, target)
}

// redirectBack returns to the referring page, falling back to the feed.
func redirectBack(ctx *gin.Context, notice string) {
	target := ctx.Request.Referer()
	if target == "" {
		target = "/"
	}
	redirectWithNotice(ctx, target, notice)
}
