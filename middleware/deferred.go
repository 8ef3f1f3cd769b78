package middleware

import (
	U "memberbase/util"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const keyAfterResponseCallbacks = "afterResponseCallbacks"

// RunAfterResponse registers fn to run once the response has been
// flushed to the client. Requires the AfterResponse middleware on the
// route. Used by the webhook handler to acknowledge the vendor within
// milliseconds and sync invoices afterwards.
func RunAfterResponse(c *gin.Context, fn func()) {
	var callbacks []func()
	if existing, exists := c.Get(keyAfterResponseCallbacks); exists {
		callbacks = existing.([]func())
	}
	c.Set(keyAfterResponseCallbacks, append(callbacks, fn))
}

// AfterResponse executes the callbacks registered through
// RunAfterResponse after the handler chain has written the response.
// Callback panics are logged and never propagated, the HTTP
// transaction is already complete.
func AfterResponse() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		registered, exists := c.Get(keyAfterResponseCallbacks)
		if !exists {
			return
		}

		c.Writer.Flush()

		reqID := U.GetScopeByKeyAsString(c, SCOPE_REQ_ID)
		for _, fn := range registered.([]func()) {
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.WithFields(log.Fields{"req_id": reqID, "panic": r}).
							Error("Panic on after response callback.")
					}
				}()
				fn()
			}()
		}
	}
}
