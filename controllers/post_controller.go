package controllers

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/snapgramhq/snapgram/config"
	"github.com/snapgramhq/snapgram/models"
	"github.com/snapgramhq/snapgram/utils"
)

// feedPageSize is the fixed number of posts per feed page.
const feedPageSize = 10

// feedCachePrefix keys cached anonymous feed pages; every content mutation
// invalidates the whole prefix.
const feedCachePrefix = "cache:feed:"

const maxCaptionRunes = 2000

// PostController manages the feed and CRUD operations for posts.
type PostController struct {
	db *gorm.DB
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db}
}

// Home returns one page of the public feed: posts newest-first with author,
// likes and oldest-first comments attached. For an authenticated caller each
// post carries a derived liked_by_user flag; anonymously it is always false.
func (p *PostController) Home(ctx *gin.Context) {
	page := parsePage(ctx.Query("page"))
	userID, authed := getUserID(ctx)

	// Only anonymous pages are cacheable; liked_by_user is caller-specific.
	cacheKey := feedCachePrefix + "page=" + ctx.DefaultQuery("page", "1")
	if !authed {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}

	posts, total, err := p.loadPosts(p.db, page)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to load feed")
		return
	}
	decoratePosts(posts, userID, authed, true)

	payload := gin.H{
		"items": posts,
		"pagination": gin.H{
			"page":        page,
			"page_size":   feedPageSize,
			"total":       total,
			"total_pages": int((total + feedPageSize - 1) / feedPageSize),
		},
	}
	if !authed {
		wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
		utils.CacheSetJSON(cacheKey, wrapper, 0)
	}
	utils.Success(ctx, payload)
}

// MyPosts lists the caller's own posts newest-first with likes/comments attached.
func (p *PostController) MyPosts(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	posts, total, err := p.loadPosts(p.db.Where("author_id = ?", userID), parsePage(ctx.Query("page")))
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to list your posts")
		return
	}
	// The owner always sees their own identity, anonymous flag or not.
	decoratePosts(posts, userID, true, false)

	utils.Success(ctx, gin.H{"items": posts, "total": total})
}

// NewPostPage returns what the create form renders: the upload constraints.
func (p *PostController) NewPostPage(ctx *gin.Context) {
	utils.Success(ctx, gin.H{
		"caption_max_length": maxCaptionRunes,
		"image_extensions":   []string{"jpg", "jpeg", "png", "gif"},
		"image_max_bytes":    utils.MaxImageBytes,
		"video_extensions":   []string{"mp4", "mov", "avi", "mkv"},
		"video_max_bytes":    utils.MaxVideoBytes,
	})
}

// CreatePost persists a new post for the authenticated caller. The request is
// a multipart form with caption, anonymous flag and image and/or video files;
// at least one medium is mandatory.
func (p *PostController) CreatePost(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}
	username := getUsername(ctx)

	form := parsePostForm(ctx)
	if errs := form.validate(true); len(errs) > 0 {
		utils.ValidationError(ctx, 40030, errs)
		return
	}

	post := models.Post{
		AuthorID:  userID,
		Caption:   form.caption,
		Anonymous: form.anonymous,
	}

	mediaRoot := config.Get().MediaRoot
	if form.image != nil {
		rel, err := utils.SaveMedia(mediaRoot, utils.MediaImage, username, form.image)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to store image")
			return
		}
		post.ImagePath = rel
	}
	if form.video != nil {
		rel, err := utils.SaveMedia(mediaRoot, utils.MediaVideo, username, form.video)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to store video")
			return
		}
		post.VideoPath = rel
	}

	if err := p.db.Create(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to create post")
		return
	}

	utils.InvalidateByPrefix(feedCachePrefix)
	redirectWithNotice(ctx, "/", "Post created successfully!")
}

// EditPostPage returns the post for form prefill. The lookup is scoped to the
// caller, so a non-owner gets a not-found.
func (p *PostController) EditPostPage(ctx *gin.Context) {
	post, ok := p.ownedPost(ctx)
	if !ok {
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

// EditPost updates a post under the same validation rules as creation.
// Replacement media files are optional; the post must still carry at least
// one medium after the edit.
func (p *PostController) EditPost(ctx *gin.Context) {
	post, ok := p.ownedPost(ctx)
	if !ok {
		return
	}
	username := getUsername(ctx)

	form := parsePostForm(ctx)
	errs := form.validate(false)

	// Project the post-edit media state before touching anything.
	imageAfter := post.ImagePath
	if form.removeImage {
		imageAfter = ""
	}
	if form.image != nil {
		imageAfter = "pending"
	}
	videoAfter := post.VideoPath
	if form.removeVideo {
		videoAfter = ""
	}
	if form.video != nil {
		videoAfter = "pending"
	}
	if imageAfter == "" && videoAfter == "" {
		if errs == nil {
			errs = map[string]string{}
		}
		errs["media"] = "At least one image or video must be uploaded."
	}
	if len(errs) > 0 {
		utils.ValidationError(ctx, 40031, errs)
		return
	}

	mediaRoot := config.Get().MediaRoot
	oldImage, oldVideo := post.ImagePath, post.VideoPath

	if form.image != nil {
		rel, err := utils.SaveMedia(mediaRoot, utils.MediaImage, username, form.image)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to store image")
			return
		}
		post.ImagePath = rel
	} else if form.removeImage {
		post.ImagePath = ""
	}
	if form.video != nil {
		rel, err := utils.SaveMedia(mediaRoot, utils.MediaVideo, username, form.video)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to store video")
			return
		}
		post.VideoPath = rel
	} else if form.removeVideo {
		post.VideoPath = ""
	}

	post.Caption = form.caption
	post.Anonymous = form.anonymous

	if err := p.db.Save(post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50035, "failed to update post")
		return
	}

	if oldImage != "" && oldImage != post.ImagePath {
		utils.RemoveMedia(mediaRoot, oldImage)
	}
	if oldVideo != "" && oldVideo != post.VideoPath {
		utils.RemoveMedia(mediaRoot, oldVideo)
	}

	utils.InvalidateByPrefix(feedCachePrefix)
	redirectWithNotice(ctx, "/my-posts/", "Post updated successfully!")
}

// DeletePostPage returns the confirmation summary for the delete page.
func (p *PostController) DeletePostPage(ctx *gin.Context) {
	post, ok := p.ownedPost(ctx)
	if !ok {
		return
	}

	var likeCount, commentCount int64
	p.db.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&likeCount)
	p.db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&commentCount)

	utils.Success(ctx, gin.H{
		"post":          post,
		"like_count":    likeCount,
		"comment_count": commentCount,
	})
}

// DeletePost removes the post together with its likes and comments in one
// transaction, then deletes the stored media files.
func (p *PostController) DeletePost(ctx *gin.Context) {
	post, ok := p.ownedPost(ctx)
	if !ok {
		return
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(post).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50036, "failed to delete post")
		return
	}

	mediaRoot := config.Get().MediaRoot
	utils.RemoveMedia(mediaRoot, post.ImagePath)
	utils.RemoveMedia(mediaRoot, post.VideoPath)

	utils.InvalidateByPrefix(feedCachePrefix)
	redirectWithNotice(ctx, "/my-posts/", "Post deleted successfully!")
}

// ownedPost resolves :id scoped to the authenticated caller. A non-owner gets
// the same not-found as a missing post, never a forbidden.
func (p *PostController) ownedPost(ctx *gin.Context) (*models.Post, bool) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40112, "unauthorized")
		return nil, false
	}

	var post models.Post
	err := p.db.Where("id = ? AND author_id = ?", ctx.Param("id"), userID).First(&post).Error
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return nil, false
	}
	return &post, true
}

// loadPosts fetches one feed page off the given (possibly scoped) query.
func (p *PostController) loadPosts(q *gorm.DB, page int) ([]*models.Post, int64, error) {
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Model(&models.Post{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []*models.Post
	err := q.Model(&models.Post{}).
		Preload("Author").
		Preload("Likes").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Comments.User").
		Order("created_at DESC").
		Offset((page - 1) * feedPageSize).
		Limit(feedPageSize).
		Find(&posts).Error
	return posts, total, err
}

// decoratePosts fills the derived display fields. hideAnonymous strips the
// real author identity from anonymous posts for public consumption; the
// ownership link in author_id is untouched server-side but not serialized
// with a username.
func decoratePosts(posts []*models.Post, userID uint, authed bool, hideAnonymous bool) {
	for _, post := range posts {
		post.DisplayAuthor = post.AuthorName()
		post.LikeCount = len(post.Likes)
		post.CommentCount = len(post.Comments)
		post.LikedByUser = false
		if authed {
			for _, like := range post.Likes {
				if like.UserID == userID {
					post.LikedByUser = true
					break
				}
			}
		}
		if hideAnonymous && post.Anonymous {
			post.Author = models.User{}
		}
	}
}

// postForm carries the parsed multipart fields of the create/edit flows.
type postForm struct {
	caption     string
	anonymous   bool
	image       *multipart.FileHeader
	video       *multipart.FileHeader
	removeImage bool
	removeVideo bool
}

func parsePostForm(ctx *gin.Context) *postForm {
	f := &postForm{
		caption:     utils.Sanitize(strings.TrimSpace(ctx.PostForm("caption"))),
		anonymous:   parseBool(ctx.PostForm("anonymous")),
		removeImage: parseBool(ctx.PostForm("remove_image")),
		removeVideo: parseBool(ctx.PostForm("remove_video")),
	}
	if fh, err := ctx.FormFile("image"); err == nil {
		f.image = fh
	}
	if fh, err := ctx.FormFile("video"); err == nil {
		f.video = fh
	}
	return f
}

// validate returns per-field errors. requireMedia is set on creation, where a
// post without any media is rejected outright; edits check the projected
// media state separately.
func (f *postForm) validate(requireMedia bool) map[string]string {
	errs := map[string]string{}

	if len([]rune(f.caption)) > maxCaptionRunes {
		errs["caption"] = "Caption cannot exceed 2000 characters."
	}
	if requireMedia && f.image == nil && f.video == nil {
		errs["media"] = "At least one image or video must be uploaded."
	}
	if f.image != nil {
		if msg := utils.ValidateMedia(utils.MediaImage, f.image); msg != "" {
			errs["image"] = msg
		}
	}
	if f.video != nil {
		if msg := utils.ValidateMedia(utils.MediaVideo, f.video); msg != "" {
			errs["video"] = msg
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes":
		return true
	default:
		return false
	}
}
