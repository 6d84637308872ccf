package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/montazreklam/jobs_backend/config"
	"github.com/montazreklam/jobs_backend/models"
	"github.com/montazreklam/jobs_backend/utils"
)

func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token == "" {
			c.Next()
			return
		}
		username, exists, err := config.GetRedisValue("Token:" + token)
		if err != nil || !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), token)
		ctx = utils.SetUsernameInContext(ctx, username)

		user, err := utils.RetrieveRedis[models.User](username)
		if err == nil && user == nil {
			if found, dbErr := models.GetUserByUsername(ctx, username); dbErr == nil {
				user = found
				// cache the fallback so the next request skips the DB
				if cacheErr := utils.StoreRedis[models.User](found, username); cacheErr != nil {
					config.LogError(config.GetLogger(), "middlewares", "SessionMiddleware",
						"user cache write failed", username, cacheErr)
				}
			}
		}
		if user != nil {
			ctx = utils.SetUserIdInContext(ctx, user.ID)
			ctx = utils.SetUserNameInContext(ctx, user.Name)
			ctx = utils.SetIsAdminInContext(ctx, user.Role == models.UserRoleAdmin)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
