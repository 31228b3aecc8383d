package routes

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/snapgramhq/snapgram/models"
)

func TestSignupAutoLogin(t *testing.T) {
	r, db := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/signup/", "", gin.H{
		"username": "alice",
		"password": "secret-1",
		"confirm":  "secret-1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("signup code %d body %s", w.Code, w.Body.String())
	}
	data := decodeData(t, w)
	token, _ := data["token"].(string)
	if token == "" {
		t.Fatalf("expected session token, got %v", data)
	}
	if notice, _ := data["notice"].(string); notice != "Account created for alice!" {
		t.Fatalf("unexpected notice %q", data["notice"])
	}

	var user models.User
	if err := db.Where("username = ?", "alice").First(&user).Error; err != nil {
		t.Fatalf("user not persisted: %v", err)
	}
	if user.PasswordHash == "" || user.PasswordHash == "secret-1" {
		t.Fatalf("password must be stored hashed, got %q", user.PasswordHash)
	}

	// The token is a live session.
	w = doJSON(t, r, http.MethodGet, "/profile/", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("profile with fresh token: code %d", w.Code)
	}
}

func TestSignupValidation(t *testing.T) {
	r, db := newTestRouter(t)
	signup(t, r, "alice")

	cases := []struct {
		name  string
		body  gin.H
		field string
	}{
		{"duplicate username", gin.H{"username": "alice", "password": "secret-1", "confirm": "secret-1"}, "username"},
		{"short username", gin.H{"username": "a", "password": "secret-1", "confirm": "secret-1"}, "username"},
		{"bad username charset", gin.H{"username": "al ice", "password": "secret-1", "confirm": "secret-1"}, "username"},
		{"short password", gin.H{"username": "bob", "password": "abc", "confirm": "abc"}, "password"},
		{"password mismatch", gin.H{"username": "bob", "password": "secret-1", "confirm": "secret-2"}, "confirm"},
	}

	for _, tc := range cases {
		w := doJSON(t, r, http.MethodPost, "/signup/", "", tc.body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: code %d body %s", tc.name, w.Code, w.Body.String())
		}
		data := decodeData(t, w)
		errs, _ := data["errors"].(map[string]any)
		if _, ok := errs[tc.field]; !ok {
			t.Fatalf("%s: expected error on %q, got %v", tc.name, tc.field, errs)
		}
	}

	var users int64
	db.Model(&models.User{}).Count(&users)
	if users != 1 {
		t.Fatalf("no user should have been created by invalid signups, have %d", users)
	}
}

func TestLoginAndBadCredentials(t *testing.T) {
	r, _ := newTestRouter(t)
	signup(t, r, "alice")

	w := doJSON(t, r, http.MethodPost, "/login/", "", gin.H{"username": "alice", "password": "secret-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("login code %d body %s", w.Code, w.Body.String())
	}
	if token, _ := decodeData(t, w)["token"].(string); token == "" {
		t.Fatal("login should return a token")
	}

	w = doJSON(t, r, http.MethodPost, "/login/", "", gin.H{"username": "alice", "password": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: code %d", w.Code)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	r, _ := newTestRouter(t)
	token := signup(t, r, "alice")

	w := doJSON(t, r, http.MethodPost, "/logout/", token, nil)
	if w.Code != http.StatusFound {
		t.Fatalf("logout code %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Fatalf("logout should redirect to site root, got %q", loc)
	}

	w = doJSON(t, r, http.MethodGet, "/profile/", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("revoked token should be rejected, code %d", w.Code)
	}
}

func TestProfileRequiresAuth(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/profile/", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("profile without token: code %d", w.Code)
	}
}
