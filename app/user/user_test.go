package user

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"blogapi/internal"
	"blogapi/internal/model"
	"blogapi/pkg/middleware"
	"blogapi/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newUserRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Post{}))

	d := &internal.Deps{DB: db, Argon: security.NewArgon()}

	router := gin.New()
	router.Use(middleware.NewRequestIDMiddleware())

	u := router.Group("/api/users")
	{
		u.GET("", func(c *gin.Context) { List(c, d) })
		u.GET("/:id", func(c *gin.Context) { Fetch(c, d) })
		u.POST("", func(c *gin.Context) { Register(c, d) })
		u.PUT("/:id", func(c *gin.Context) { Update(c, d) })
		u.DELETE("/:id", func(c *gin.Context) { Delete(c, d) })
	}

	return router, db
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	return rec
}

func registerUser(t *testing.T, router *gin.Engine, name, email string) model.User {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/api/users", gin.H{
		"name":     name,
		"email":    email,
		"password": "Valid123!",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var user model.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	require.NotEmpty(t, user.ID)

	return user
}

func TestRegister(t *testing.T) {
	router, db := newUserRouter(t)

	user := registerUser(t, router, "Alice", "alice@example.com")
	assert.Equal(t, "Alice", user.Name)
	assert.Len(t, user.ID, 16)

	// The hash never leaves the server
	var stored model.User
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	assert.NotEmpty(t, stored.PasswordHash)
	assert.NotContains(t, stored.PasswordHash, "Valid123!")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	router, _ := newUserRouter(t)

	registerUser(t, router, "Alice", "alice@example.com")

	rec := doJSON(t, router, http.MethodPost, "/api/users", gin.H{
		"name":     "Other Alice",
		"email":    "alice@example.com",
		"password": "Valid123!",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email already registered")
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	router, _ := newUserRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/users", gin.H{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "alllowercase",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterRejectsBadEmail(t *testing.T) {
	router, _ := newUserRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/users", gin.H{
		"name":     "Alice",
		"email":    "not-an-email",
		"password": "Valid123!",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFetch(t *testing.T) {
	router, _ := newUserRouter(t)

	user := registerUser(t, router, "Alice", "alice@example.com")

	rec := doJSON(t, router, http.MethodGet, "/api/users/"+user.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice@example.com")

	rec = doJSON(t, router, http.MethodGet, "/api/users/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "User not found")
}

func TestListPaging(t *testing.T) {
	router, _ := newUserRouter(t)

	registerUser(t, router, "Alice", "alice@example.com")
	registerUser(t, router, "Bob", "bob@example.com")
	registerUser(t, router, "Carol", "carol@example.com")

	rec := doJSON(t, router, http.MethodGet, "/api/users?skip=1&limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var users []model.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Len(t, users, 1)

	rec = doJSON(t, router, http.MethodGet, "/api/users?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdate(t *testing.T) {
	router, _ := newUserRouter(t)

	user := registerUser(t, router, "Alice", "alice@example.com")

	rec := doJSON(t, router, http.MethodPut, "/api/users/"+user.ID, gin.H{
		"name":     "Alice Updated",
		"email":    "alice2@example.com",
		"password": "Fresh456?",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "alice2@example.com")
}

func TestDeleteCascadesPosts(t *testing.T) {
	router, db := newUserRouter(t)

	user := registerUser(t, router, "Alice", "alice@example.com")

	err := db.Create(&model.Post{Title: "first", OwnerID: user.ID}).Error
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodDelete, "/api/users/"+user.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "User deleted successfully")

	var posts int64
	require.NoError(t, db.Model(&model.Post{}).Where("owner_id = ?", user.ID).Count(&posts).Error)
	assert.EqualValues(t, 0, posts)

	rec = doJSON(t, router, http.MethodDelete, "/api/users/"+user.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
