package middlewares

import (
	"net/http"
	"strings"

	"bitbucket.org/mmdatafocus/tariff_backend/config"
	"bitbucket.org/mmdatafocus/tariff_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Session is what the identity service stores under "Token:<token>".
type Session struct {
	AdminId   int    `json:"admin_id"`
	AdminName string `json:"admin_name"`
	UtilityId string `json:"utility_id"`
}

const (
	headerToken         = "token"
	headerUtilityId     = "X-Utility-Id"
	headerCorrelationId = "X-Correlation-Id"
)

// SessionMiddleware resolves the caller from the token header. Requests without a token
// pass through without identity, and services refuse them when they need a utility.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		correlationId := strings.TrimSpace(c.Request.Header.Get(headerCorrelationId))
		if correlationId == "" {
			correlationId = uuid.NewString()
		}
		ctx = utils.SetCorrelationIdInContext(ctx, correlationId)
		c.Header(headerCorrelationId, correlationId)

		token := c.Request.Header.Get(headerToken)
		if token == "" {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
			return
		}

		var session Session
		exists, err := config.GetRedisObject(ctx, "Token:"+token, &session)
		if err != nil || !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		// a multi-utility admin picks the utility per request
		utilityId := session.UtilityId
		if requested := strings.TrimSpace(c.Request.Header.Get(headerUtilityId)); requested != "" && utilityId == "" {
			utilityId = requested
		}

		ctx = utils.SetTokenInContext(ctx, token)
		ctx = utils.SetAdminIdInContext(ctx, session.AdminId)
		ctx = utils.SetAdminNameInContext(ctx, session.AdminName)
		if utilityId != "" {
			ctx = utils.SetUtilityIdInContext(ctx, utilityId)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
