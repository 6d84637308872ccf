package middlewares

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/montazreklam/jobs_backend/config"
	"github.com/montazreklam/jobs_backend/models"
	"github.com/montazreklam/jobs_backend/utils"
)

// Requires a running redis and mysql; the fallback path below populates the
// user cache so the second request must not touch the database.
func TestSessionMiddlewareCachesUserAfterDbFallback(t *testing.T) {
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}
	gin.SetMode(gin.TestMode)
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	username := "session-cache-check"
	user := models.User{
		Username: username,
		Name:     "Session Cache Check",
		Password: "x",
		IsActive: utils.NewTrue(),
		Role:     models.UserRoleStandard,
	}
	if err := config.GetDB().Where("username = ?", username).FirstOrCreate(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	token := "session-cache-check-token"
	if err := config.SetRedisValue("Token:"+token, username, 0); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	if err := utils.RemoveRedisItem[models.User](username); err != nil {
		t.Fatalf("clear user cache: %v", err)
	}

	r := gin.New()
	r.Use(SessionMiddleware())
	r.GET("/session-info", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/session-info", nil)
	req.Header.Set("token", token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	cached, err := utils.RetrieveRedis[models.User](username)
	if err != nil {
		t.Fatalf("RetrieveRedis: %v", err)
	}
	if cached == nil || cached.Username != username {
		t.Fatalf("user not cached after db fallback: %+v", cached)
	}
}
