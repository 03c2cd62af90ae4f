package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yeremiapane/restaurant-storefront/models"
	"github.com/yeremiapane/restaurant-storefront/utils"
)

const (
	// SessionCookie carries the session token for browser clients.
	SessionCookie = "auth_token"
	// SessionHeader returns a freshly issued token to API clients.
	SessionHeader = "X-Session-Token"
)

// Context keys set by SessionMiddleware.
const (
	CtxSessionID = "session_id"
	CtxUserID    = "user_id"
	CtxRole      = "role"
	CtxToken     = "token"
)

// ExtractToken reads the token from the Authorization header, the session
// cookie or the token query parameter, in that order.
func ExtractToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	return c.Query("token")
}

// SessionMiddleware resolves the caller's session. A missing, revoked or
// invalid token starts a new guest session instead of failing the request.
func SessionMiddleware(tokens *utils.TokenManager, secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := ExtractToken(c); tokenString != "" {
			if claims, err := tokens.ParseToken(tokenString); err == nil {
				setSession(c, claims.SessionID, claims.UserID, claims.Role, tokenString)
				c.Next()
				return
			}
		}

		sessionID := uuid.NewString()
		tokenString, err := tokens.GenerateToken(sessionID, 0, models.RoleUser)
		if err != nil {
			utils.ErrorLogger.WithError(err).Error("Error issuing guest session")
			utils.RespondError(c, http.StatusInternalServerError, err)
			c.Abort()
			return
		}
		IssueSessionCookie(c, tokenString, int(tokens.TTL().Seconds()), secureCookie)
		setSession(c, sessionID, 0, models.RoleUser, tokenString)
		c.Next()
	}
}

// IssueSessionCookie hands a token to the client as cookie and header.
func IssueSessionCookie(c *gin.Context, token string, maxAge int, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, maxAge, "/", "", secure, true)
	c.Header(SessionHeader, token)
}

func setSession(c *gin.Context, sessionID string, userID uint, role, token string) {
	c.Set(CtxSessionID, sessionID)
	c.Set(CtxUserID, userID)
	c.Set(CtxRole, role)
	c.Set(CtxToken, token)
}
