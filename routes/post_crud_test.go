package routes

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/snapgramhq/snapgram/models"
)

func TestCreatePostRequiresMedia(t *testing.T) {
	r, db := newTestRouter(t)
	token := signup(t, r, "alice")

	w := doMultipart(t, r, "/create/", token, map[string]string{"caption": "no media"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("create without media: code %d body %s", w.Code, w.Body.String())
	}
	errs, _ := decodeData(t, w)["errors"].(map[string]any)
	if _, ok := errs["media"]; !ok {
		t.Fatalf("expected media error, got %v", errs)
	}
	if n := postCount(t, db); n != 0 {
		t.Fatalf("nothing may be persisted on validation failure, have %d posts", n)
	}
}

func TestCreatePostRejectsBadUploads(t *testing.T) {
	r, db := newTestRouter(t)
	token := signup(t, r, "alice")

	cases := []struct {
		name  string
		file  upload
		field string
	}{
		{"disallowed extension", upload{field: "image", name: "evil.exe", content: tinyPNG}, "image"},
		{"content not an image", upload{field: "image", name: "fake.png", content: []byte("just some text here, long enough")}, "image"},
		{"video extension on image field", upload{field: "image", name: "clip.mp4", content: tinyMP4}, "image"},
		{"content not a video", upload{field: "video", name: "fake.mp4", content: []byte("definitely not an mp4 container")}, "video"},
	}

	for _, tc := range cases {
		w := doMultipart(t, r, "/create/", token, nil, []upload{tc.file})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: code %d body %s", tc.name, w.Code, w.Body.String())
		}
		errs, _ := decodeData(t, w)["errors"].(map[string]any)
		if _, ok := errs[tc.field]; !ok {
			t.Fatalf("%s: expected error on %q, got %v", tc.name, tc.field, errs)
		}
	}
	if n := postCount(t, db); n != 0 {
		t.Fatalf("no post may survive a rejected upload, have %d", n)
	}
}

func TestCreatePostStoresMediaUnderAuthorDirectory(t *testing.T) {
	r, db := newTestRouter(t)
	token := signup(t, r, "alice")

	w := doMultipart(t, r, "/create/", token,
		map[string]string{"caption": "beach"},
		[]upload{{field: "image", name: "beach.png", content: tinyPNG}},
	)
	if w.Code != http.StatusFound {
		t.Fatalf("create code %d body %s", w.Code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != "/?notice=Post+created+successfully%21" {
		t.Fatalf("unexpected redirect %q", loc)
	}

	var post models.Post
	if err := db.First(&post).Error; err != nil {
		t.Fatalf("post not persisted: %v", err)
	}
	if post.ImagePath != "posts/images/alice/beach.png" {
		t.Fatalf("media path keyed by author and filename, got %q", post.ImagePath)
	}

	stored := filepath.Join(os.Getenv("MEDIA_ROOT"), "posts", "images", "alice", "beach.png")
	if _, err := os.Stat(stored); err != nil {
		t.Fatalf("media file should exist at %s: %v", stored, err)
	}
}

func TestCreatePostWithVideoOnly(t *testing.T) {
	r, db := newTestRouter(t)
	token := signup(t, r, "alice")

	w := doMultipart(t, r, "/create/", token, nil,
		[]upload{{field: "video", name: "clip.mp4", content: tinyMP4}})
	if w.Code != http.StatusFound {
		t.Fatalf("video-only post must be accepted: code %d body %s", w.Code, w.Body.String())
	}

	var post models.Post
	if err := db.First(&post).Error; err != nil {
		t.Fatalf("post not persisted: %v", err)
	}
	if post.VideoPath == "" || post.ImagePath != "" {
		t.Fatalf("expected video-only post, got image=%q video=%q", post.ImagePath, post.VideoPath)
	}
}

func TestEditPostNonOwnerSeesNotFound(t *testing.T) {
	r, db := newTestRouter(t)
	tokenA := signup(t, r, "alice")
	tokenC := signup(t, r, "carol")

	postID := createImagePost(t, r, db, tokenA, "original", false)

	w := doMultipart(t, r, fmt.Sprintf("/posts/%d/edit/", postID), tokenC,
		map[string]string{"caption": "hijacked"}, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("non-owner edit must be a not-found, code %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/posts/%d/edit/", postID), tokenC, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("non-owner edit page must be a not-found, code %d", w.Code)
	}

	var post models.Post
	db.First(&post, postID)
	if post.Caption != "original" {
		t.Fatalf("post must be unchanged, caption %q", post.Caption)
	}
}

func TestEditPostUpdatesFields(t *testing.T) {
	r, db := newTestRouter(t)
	token := signup(t, r, "alice")
	postID := createImagePost(t, r, db, token, "before", false)

	w := doMultipart(t, r, fmt.Sprintf("/posts/%d/edit/", postID), token,
		map[string]string{"caption": "after", "anonymous": "on"}, nil)
	if w.Code != http.StatusFound {
		t.Fatalf("edit code %d body %s", w.Code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != "/my-posts/?notice=Post+updated+successfully%21" {
		t.Fatalf("edit should land on the own-posts view, got %q", loc)
	}

	var post models.Post
	db.First(&post, postID)
	if post.Caption != "after" || !post.Anonymous {
		t.Fatalf("edit not applied: caption=%q anonymous=%v", post.Caption, post.Anonymous)
	}
	if post.ImagePath == "" {
		t.Fatal("untouched media must survive an edit")
	}
}

func TestEditPostCannotDropLastMedium(t *testing.T) {
	r, db := newTestRouter(t)
	token := signup(t, r, "alice")
	postID := createImagePost(t, r, db, token, "keep me", false)

	w := doMultipart(t, r, fmt.Sprintf("/posts/%d/edit/", postID), token,
		map[string]string{"caption": "keep me", "remove_image": "on"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("removing the only medium must fail validation, code %d", w.Code)
	}

	var post models.Post
	db.First(&post, postID)
	if post.ImagePath == "" {
		t.Fatal("image must still be attached after the rejected edit")
	}
}

func TestDeletePostCascades(t *testing.T) {
	r, db := newTestRouter(t)
	tokenA := signup(t, r, "alice")
	tokenB := signup(t, r, "bob")
	postID := createImagePost(t, r, db, tokenA, "short lived", false)

	if w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/posts/%d/like/", postID), tokenB, nil); w.Code != http.StatusFound {
		t.Fatalf("like code %d", w.Code)
	}
	if w := doMultipart(t, r, fmt.Sprintf("/posts/%d/comment/", postID), tokenB,
		map[string]string{"text": "nice"}, nil); w.Code != http.StatusFound {
		t.Fatalf("comment code %d", w.Code)
	}

	// Confirmation page first, with the collateral counts.
	w := doJSON(t, r, http.MethodGet, fmt.Sprintf("/posts/%d/delete/", postID), tokenA, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete confirmation code %d", w.Code)
	}
	data := decodeData(t, w)
	if data["like_count"].(float64) != 1 || data["comment_count"].(float64) != 1 {
		t.Fatalf("confirmation should count collateral rows, got %v", data)
	}

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/posts/%d/delete/", postID), tokenA, nil)
	if w.Code != http.StatusFound {
		t.Fatalf("delete code %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/my-posts/?notice=Post+deleted+successfully%21" {
		t.Fatalf("delete should land on the own-posts view, got %q", loc)
	}

	var posts, likes, comments int64
	db.Model(&models.Post{}).Count(&posts)
	db.Model(&models.Like{}).Count(&likes)
	db.Model(&models.Comment{}).Count(&comments)
	if posts != 0 || likes != 0 || comments != 0 {
		t.Fatalf("cascade left orphans: posts=%d likes=%d comments=%d", posts, likes, comments)
	}
}

func TestDeletePostNonOwnerSeesNotFound(t *testing.T) {
	r, db := newTestRouter(t)
	tokenA := signup(t, r, "alice")
	tokenC := signup(t, r, "carol")
	postID := createImagePost(t, r, db, tokenA, "mine", false)

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/posts/%d/delete/", postID), tokenC, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("non-owner delete must be a not-found, code %d", w.Code)
	}
	if n := postCount(t, db); n != 1 {
		t.Fatalf("post must survive, have %d", n)
	}
}

func TestMyPostsListsOnlyOwn(t *testing.T) {
	r, db := newTestRouter(t)
	tokenA := signup(t, r, "alice")
	tokenB := signup(t, r, "bob")
	createImagePost(t, r, db, tokenA, "alice 1", false)
	createImagePost(t, r, db, tokenB, "bob 1", false)
	createImagePost(t, r, db, tokenA, "alice 2", false)

	w := doJSON(t, r, http.MethodGet, "/my-posts/", tokenA, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("my-posts code %d", w.Code)
	}
	items := feedItems(t, decodeData(t, w))
	if len(items) != 2 {
		t.Fatalf("alice owns 2 posts, got %d", len(items))
	}
	for _, it := range items {
		if it["caption"] == "bob 1" {
			t.Fatal("my-posts leaked another user's post")
		}
	}
}
