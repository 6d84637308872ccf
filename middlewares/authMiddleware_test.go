package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/montazreklam/jobs_backend/models"
	"github.com/montazreklam/jobs_backend/utils"
)

func authTestRouter(t *testing.T) (*gin.Engine, *int, *bool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var gotUserId int
	var gotIsAdmin bool
	r := gin.New()
	r.Use(AuthMiddleware())
	r.GET("/session-info", func(c *gin.Context) {
		gotUserId, _ = utils.GetUserIdFromContext(c.Request.Context())
		gotIsAdmin, _ = utils.GetIsAdminFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})
	return r, &gotUserId, &gotIsAdmin
}

func TestAuthMiddlewareAcceptsMintedToken(t *testing.T) {
	r, gotUserId, gotIsAdmin := authTestRouter(t)

	token, err := utils.JwtGenerate(7, string(models.UserRoleAdmin))
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/session-info", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if *gotUserId != 7 || !*gotIsAdmin {
		t.Fatalf("context user=%d admin=%v, want 7 true", *gotUserId, *gotIsAdmin)
	}
}

func TestAuthMiddlewareRejectsBadToken(t *testing.T) {
	r, _, _ := authTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/session-info", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAuthMiddlewarePassesThroughWithoutHeader(t *testing.T) {
	r, gotUserId, _ := authTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/session-info", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if *gotUserId != 0 {
		t.Fatalf("user id leaked into context: %d", *gotUserId)
	}
}
