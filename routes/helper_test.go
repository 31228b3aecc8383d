package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/snapgramhq/snapgram/config"
	"github.com/snapgramhq/snapgram/models"
)

// tinyPNG is a minimal buffer carrying the PNG magic number.
var tinyPNG = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

// tinyMP4 carries an ISO media "ftyp" box with the isom brand.
var tinyMP4 = []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm', 0, 0, 0, 0}

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	cfg := config.Get()
	cfg.DBDriver = "sqlite"
	cfg.SQLitePath = filepath.Join(t.TempDir(), "test.db")

	db, err := config.OpenDatabase(cfg, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Post{}, &models.Like{}, &models.Comment{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return SetupRouter(db), db
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Code    int            `json:"code"`
		Message string         `json:"message"`
		Data    map[string]any `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return envelope.Data
}

func signup(t *testing.T, r *gin.Engine, username string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/signup/", "", gin.H{
		"username": username,
		"password": "secret-1",
		"confirm":  "secret-1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("signup %s: code %d body %s", username, w.Code, w.Body.String())
	}
	data := decodeData(t, w)
	token, _ := data["token"].(string)
	if token == "" {
		t.Fatalf("signup %s: no token in %v", username, data)
	}
	return token
}

type upload struct {
	field, name string
	content     []byte
}

// doMultipart posts a multipart form, the shape of the create/edit flows.
func doMultipart(t *testing.T, r *gin.Engine, path, token string, fields map[string]string, files []upload) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(f.content); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// createImagePost creates a post with a one-image upload and returns its ID.
func createImagePost(t *testing.T, r *gin.Engine, db *gorm.DB, token, caption string, anonymous bool) uint {
	t.Helper()

	fields := map[string]string{"caption": caption}
	if anonymous {
		fields["anonymous"] = "on"
	}
	w := doMultipart(t, r, "/create/", token, fields, []upload{
		{field: "image", name: fmt.Sprintf("pic-%d.png", postCount(t, db)+1), content: tinyPNG},
	})
	if w.Code != http.StatusFound {
		t.Fatalf("create post: code %d body %s", w.Code, w.Body.String())
	}

	var post models.Post
	if err := db.Order("id DESC").First(&post).Error; err != nil {
		t.Fatalf("load created post: %v", err)
	}
	return post.ID
}

func postCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.Post{}).Count(&n).Error; err != nil {
		t.Fatalf("count posts: %v", err)
	}
	return n
}
