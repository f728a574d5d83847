package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/observability/performance"
	"github.com/gin-gonic/gin"
)

const (
	SessionTokenHeader = "X-Spotlight-Token"
	SysOpTokenHeader   = "X-Sysop-Token"

	// SessionIDParam is the route parameter naming the editor session.
	SessionIDParam = "id"
)

// TokenVerifier checks that a token grants access to a session.
type TokenVerifier interface {
	VerifyToken(token, sessionID string) error
}

// SessionAuth rejects requests whose token was not issued for the session
// named in the path. Websocket clients may pass the token as ?token=.
func SessionAuth(verifier TokenVerifier, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param(SessionIDParam)
		marker := perfTracker.StartOperation("middleware:session_auth", sessionID)
		defer marker.Complete()

		token := c.GetHeader(SessionTokenHeader)
		if token == "" {
			token = c.Query("token")
		}

		if token == "" {
			err := errors.New(SessionTokenHeader + " header or token query param is required")
			marker.SetError(err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		if err := verifier.VerifyToken(token, sessionID); err != nil {
			logger.Session().Warn("Session token rejected",
				"sessionId", logging.MaskSessionID(sessionID), "path", c.Request.URL.Path, "error", err.Error())
			marker.SetError(err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session token"})
			return
		}

		c.Next()
	}
}

// SysOpAuth guards operational routes with a shared token. With no token
// configured the routes are disabled.
func SysOpAuth(token string, logger *logging.ChanneledLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "sysop access is disabled"})
			return
		}

		given := c.GetHeader(SysOpTokenHeader)
		if given == "" {
			given = c.Query("token")
		}
		if subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
			logger.System().Warn("Sysop authentication failed", "path", c.Request.URL.Path, "clientIp", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid sysop token"})
			return
		}
		c.Next()
	}
}
