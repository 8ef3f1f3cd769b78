package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func sendDeferredRequest(r *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/deferred", nil)
	r.ServeHTTP(w, req)
	return w
}

func TestRunAfterResponseOrder(t *testing.T) {
	gin.SetMode(gin.TestMode)

	order := make([]string, 0)
	r := gin.New()
	r.Use(AfterResponse())
	r.GET("/deferred", func(c *gin.Context) {
		RunAfterResponse(c, func() { order = append(order, "first") })
		RunAfterResponse(c, func() { order = append(order, "second") })
		order = append(order, "handler")
		c.JSON(http.StatusOK, "ok")
	})

	w := sendDeferredRequest(r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"handler", "first", "second"}, order)
}

func TestAfterResponsePanicIsolation(t *testing.T) {
	gin.SetMode(gin.TestMode)

	secondRan := false
	r := gin.New()
	r.Use(AfterResponse())
	r.GET("/deferred", func(c *gin.Context) {
		RunAfterResponse(c, func() { panic("sync blew up") })
		RunAfterResponse(c, func() { secondRan = true })
		c.JSON(http.StatusOK, "ok")
	})

	w := sendDeferredRequest(r)

	// The client already has its 200, the panic stays in the log.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, secondRan)
}

func TestAfterResponseWithoutCallbacks(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(AfterResponse())
	r.GET("/deferred", func(c *gin.Context) {
		c.JSON(http.StatusOK, "ok")
	})

	w := sendDeferredRequest(r)
	assert.Equal(t, http.StatusOK, w.Code)
}
