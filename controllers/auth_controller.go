package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/snapgramhq/snapgram/models"
	"github.com/snapgramhq/snapgram/utils"
)

// AuthController handles registration, login and session teardown.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// Signup registers a new account with bcrypt hashing and logs the user in
// immediately by issuing a session token.
func (a *AuthController) Signup(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" form:"username"`
		Password string `json:"password" form:"password"`
		Confirm  string `json:"confirm" form:"confirm"`
	}

	var req request
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	fieldErrs := map[string]string{}

	req.Username = strings.TrimSpace(req.Username)
	if l := len([]rune(req.Username)); l < 2 || l > 32 {
		fieldErrs["username"] = "Username must be 2-32 characters long."
	} else if !validUsername(req.Username) {
		fieldErrs["username"] = "Username may only contain letters, digits, '-' and '_'."
	} else {
		var existing models.User
		if err := a.db.Where("username = ?", req.Username).First(&existing).Error; err == nil {
			fieldErrs["username"] = "A user with that username already exists."
		}
	}

	if len(req.Password) < 6 || len(req.Password) > 64 || !validPassword(req.Password) {
		fieldErrs["password"] = "Password must be 6-64 characters of letters, digits and -_."
	} else if req.Password != req.Confirm {
		fieldErrs["confirm"] = "The two password fields didn't match."
	}

	if len(fieldErrs) > 0 {
		utils.ValidationError(ctx, 40002, fieldErrs)
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}

	user := models.User{
		Username:     req.Username,
		PasswordHash: hash,
	}
	if err := a.db.Create(&user).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create user")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, utils.SessionDuration)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{
		"token":  token,
		"user":   user,
		"notice": "Account created for " + user.Username + "!",
	})
}

// Login verifies user credentials and issues a session token.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" form:"username" binding:"required"`
		Password string `json:"password" form:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	var user models.User
	if err := a.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, utils.SessionDuration)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "user": user})
}

// Logout revokes the presented token for its remaining lifetime and sends the
// caller back to the site root.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "invalid authorization header")
		return
	}

	token := strings.TrimSpace(parts[1])
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}

	expiresAt := claims.ExpiresAt.Time
	utils.BlacklistToken(token, expiresAt)

	ctx.Redirect(http.StatusFound, "/")
}

// Profile serves the static profile placeholder. It takes no parameters.
func (a *AuthController) Profile(ctx *gin.Context) {
	utils.Success(ctx, gin.H{
		"page":     "profile",
		"username": getUsername(ctx),
	})
}

func validUsername(s string) bool {
	for _, r := range s {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '-' || r == '_' {
			continue
		}
		return false
	}
	return true
}

func validPassword(s string) bool {
	for _, r := range s {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '-' || r == '_' || r == '.' {
			continue
		}
		return false
	}
	return true
}
