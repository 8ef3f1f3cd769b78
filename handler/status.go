package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	C "memberbase/config"
)

// StatusHandler reports liveness and which billing provider the
// process is pointed at.
func StatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "success",
		"environment":      C.GetConfig().Env,
		"billing_provider": C.GetBillingProvider(),
	})
}
