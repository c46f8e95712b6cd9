package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/wista110/sports-nurse-web-sub001/internal/models"
	"github.com/wista110/sports-nurse-web-sub001/internal/service"
)

func cronRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/cron/run", CronAuth(secret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return r
}

func TestCronAuth_ValidSecret(t *testing.T) {
	r := cronRouter("top-secret")

	req, _ := http.NewRequest("POST", "/cron/run", nil)
	req.Header.Set("X-Cron-Secret", "top-secret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCronAuth_WrongSecret(t *testing.T) {
	r := cronRouter("top-secret")

	req, _ := http.NewRequest("POST", "/cron/run", nil)
	req.Header.Set("X-Cron-Secret", "guess")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCronAuth_MissingSecret(t *testing.T) {
	r := cronRouter("top-secret")

	req, _ := http.NewRequest("POST", "/cron/run", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func authRouter(tokens *service.TokenManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(tokens), func(c *gin.Context) {
		userID, _ := c.MustGet(ContextUserIDKey).(uuid.UUID)
		c.JSON(http.StatusOK, gin.H{
			"user_id": userID.String(),
			"role":    c.GetString(ContextRoleKey),
		})
	})
	return r
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	tokens := service.NewTokenManager("test-secret", 15*time.Minute)
	r := authRouter(tokens)

	user := &models.User{ID: uuid.New(), Role: models.RoleNurse}
	token, _, err := tokens.Generate(user)
	assert.NoError(t, err)

	req, _ := http.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), user.ID.String())
	assert.Contains(t, w.Body.String(), models.RoleNurse)
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	r := authRouter(service.NewTokenManager("test-secret", 15*time.Minute))

	req, _ := http.NewRequest("GET", "/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_ForgedToken(t *testing.T) {
	issuer := service.NewTokenManager("other-secret", 15*time.Minute)
	r := authRouter(service.NewTokenManager("test-secret", 15*time.Minute))

	token, _, err := issuer.Generate(&models.User{ID: uuid.New(), Role: models.RoleAdmin})
	assert.NoError(t, err)

	req, _ := http.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func roleRouter(contextRole string, allowed ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if contextRole != "" {
			c.Set(ContextRoleKey, contextRole)
		}
	})
	r.GET("/guarded", RequireRole(allowed...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRequireRole_Allowed(t *testing.T) {
	r := roleRouter(models.RoleOrganizer, models.RoleOrganizer, models.RoleAdmin)

	req, _ := http.NewRequest("GET", "/guarded", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole_Forbidden(t *testing.T) {
	r := roleRouter(models.RoleNurse, models.RoleOrganizer)

	req, _ := http.NewRequest("GET", "/guarded", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRole_NoRole(t *testing.T) {
	r := roleRouter("", models.RoleOrganizer)

	req, _ := http.NewRequest("GET", "/guarded", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUUIDValidator(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/jobs/:id", UUIDValidator("id"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req, _ := http.NewRequest("GET", "/jobs/not-a-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req, _ = http.NewRequest("GET", "/jobs/11111111-1111-1111-1111-111111111111", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
