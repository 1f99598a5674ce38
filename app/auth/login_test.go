package auth

import (
	"net/http"
	"testing"

	"blogapi/internal"
	"blogapi/internal/model"
	"blogapi/pkg/middleware"
	"blogapi/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newLoginRouter(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	viper.Set("jwt.secret", "test-secret")

	db, err := gorm.Open(sqlite.Open(":memory:"))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}))

	argon := security.NewArgon()

	hash, err := argon.GenerateFromPassword("Correct1!")
	require.NoError(t, err)

	err = db.Create(&model.User{
		ID:           "u1",
		Name:         "Test User",
		Email:        "user@example.com",
		PasswordHash: hash,
		IsActive:     true,
	}).Error
	require.NoError(t, err)

	d := &internal.Deps{DB: db, Argon: argon}

	router := gin.New()
	router.Use(middleware.NewRequestIDMiddleware())
	router.POST("/api/auth/login", func(c *gin.Context) { Login(c, d) })
	router.POST("/api/auth/logout", Logout)

	return router
}

func TestLogin(t *testing.T) {
	router := newLoginRouter(t)

	rec := postJSON(t, router, "/api/auth/login", gin.H{
		"email":    "user@example.com",
		"password": "Correct1!",
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token_type":"bearer"`)

	ck := cookieByName(t, rec, "access_token")
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
	assert.Equal(t, 1800, ck.MaxAge)
}

func TestLoginWrongPassword(t *testing.T) {
	router := newLoginRouter(t)

	rec := postJSON(t, router, "/api/auth/login", gin.H{
		"email":    "user@example.com",
		"password": "Wrong456?",
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password")
}

func TestLoginUnknownEmail(t *testing.T) {
	router := newLoginRouter(t)

	rec := postJSON(t, router, "/api/auth/login", gin.H{
		"email":    "nobody@example.com",
		"password": "Correct1!",
	}, nil)

	// Same response as a wrong password so accounts can't be enumerated
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password")
}

func TestLogoutClearsCookie(t *testing.T) {
	router := newLoginRouter(t)

	rec := postJSON(t, router, "/api/auth/logout", gin.H{}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var cleared bool
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "access_token" && ck.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}
