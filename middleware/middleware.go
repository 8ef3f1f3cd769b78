package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	C "memberbase/config"
	"memberbase/model/store"
	U "memberbase/util"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/xid"
	log "github.com/sirupsen/logrus"
)

// scope constants.
const SCOPE_REQ_ID = "reqId"
const SCOPE_LOGGED_IN_USER = "loggedInUserId"

// session keys.
const SESSION_KEY_USER_ID = "user_id"

// CustomCors for customised cors configuration based on conditions.
func CustomCors() gin.HandlerFunc {
	return func(c *gin.Context) {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowCredentials = true

		if C.IsDevelopment() {
			corsConfig.AllowOrigins = []string{"http://localhost:8080",
				"http://localhost:3000", "http://localhost:8090"}
		} else {
			corsConfig.AllowOrigins = []string{"https://" + C.GetAPPDomain()}
		}

		// Applys custom cors and proceed.
		cors.New(corsConfig)(c)
		c.Next()
	}
}

// RequestIdGenerator assigns a correlation id to every request. All
// log lines for the request carry it.
func RequestIdGenerator() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := xid.New().String()
		U.SetScope(c, SCOPE_REQ_ID, reqID)
		c.Writer.Header().Set("X-Req-Id", reqID)
		c.Next()
	}
}

// Logger writes one structured line per request after completion.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.WithFields(log.Fields{
			"req_id":  U.GetScopeByKeyAsString(c, SCOPE_REQ_ID),
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Info("Request processed.")
	}
}

// Recovery converts handler panics into a 500 without killing the
// process.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(log.Fields{
					"req_id": U.GetScopeByKeyAsString(c, SCOPE_REQ_ID),
					"panic":  r,
					"stack":  string(debug.Stack()),
				}).Error("Panic on request.")
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					gin.H{"error": "Internal server error."})
			}
		}()
		c.Next()
	}
}

func AddSecurityHeadersForAppRoutes() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("X-Frame-Options", "DENY")
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		c.Writer.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// SetLoggedInUser - Request scope set from the session cookie.
// Aborts with 401 when no user is logged in.
func SetLoggedInUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		userID, ok := session.Get(SESSION_KEY_USER_ID).(uint64)
		if !ok || userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error": "Unauthorized access. Login required."})
			return
		}

		U.SetScope(c, SCOPE_LOGGED_IN_USER, userID)
		c.Next()
	}
}

// RequireAdmin - Allows only site admins. Must run after
// SetLoggedInUser.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := U.GetScopeByKeyAsUint64(c, SCOPE_LOGGED_IN_USER)
		if userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error": "Unauthorized access. Login required."})
			return
		}

		user, errCode := store.GetStore().GetUser(userID)
		if errCode != http.StatusFound || !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden,
				gin.H{"error": "Forbidden. Admin access required."})
			return
		}
		c.Next()
	}
}
