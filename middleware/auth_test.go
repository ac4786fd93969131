package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"protocol-review-api/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const secret = "middleware-secret"

func newRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.User{}))

	router := gin.New()
	router.Use(CORSMiddleware("https://portal.example"), SecurityHeaders())
	authed := router.Group("", AuthMiddleware(secret, db))
	authed.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": CurrentUserID(c), "roles": CurrentRoles(c)})
	})
	authed.GET("/admin", RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router, db
}

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, userID int, ttl time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(method, Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	})
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func get(router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	router, db := newRouter(t)

	user := models.User{Email: "vet@example.edu", Roles: "VETERINARIAN,OWNER"}
	require.NoError(t, db.Create(&user).Error)
	now := time.Now()
	gone := models.User{Email: "gone@example.edu", DeleteAt: &now}
	require.NoError(t, db.Create(&gone).Error)

	rec := get(router, "/me", sign(t, jwt.SigningMethodHS256, []byte(secret), user.UserID, time.Hour))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"roles":["VETERINARIAN"]}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	assert.Equal(t, http.StatusUnauthorized, get(router, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(router, "/me", sign(t, jwt.SigningMethodHS256, []byte("other"), user.UserID, time.Hour)).Code)
	assert.Equal(t, http.StatusUnauthorized, get(router, "/me", sign(t, jwt.SigningMethodHS256, []byte(secret), user.UserID, -time.Minute)).Code)
	assert.Equal(t, http.StatusUnauthorized, get(router, "/me", sign(t, jwt.SigningMethodHS512, []byte(secret), user.UserID, time.Hour)).Code)
	assert.Equal(t, http.StatusUnauthorized, get(router, "/me", sign(t, jwt.SigningMethodHS256, []byte(secret), gone.UserID, time.Hour)).Code)
}

func TestRequireRole(t *testing.T) {
	router, db := newRouter(t)

	vet := models.User{Email: "vet@example.edu", Roles: "VETERINARIAN"}
	admin := models.User{Email: "admin@example.edu", Roles: "ADMIN"}
	require.NoError(t, db.Create(&vet).Error)
	require.NoError(t, db.Create(&admin).Error)

	assert.Equal(t, http.StatusForbidden, get(router, "/admin", sign(t, jwt.SigningMethodHS256, []byte(secret), vet.UserID, time.Hour)).Code)
	assert.Equal(t, http.StatusNoContent, get(router, "/admin", sign(t, jwt.SigningMethodHS256, []byte(secret), admin.UserID, time.Hour)).Code)
}

func TestCORSMiddleware(t *testing.T) {
	router, _ := newRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/me", nil)
	req.Header.Set("Origin", "https://portal.example")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://portal.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/me", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
