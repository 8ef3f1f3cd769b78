package handler

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"memberbase/billing"
	C "memberbase/config"
	mid "memberbase/middleware"
)

// InitAppRoutes registers all app routes. The billing service is
// constructed once at startup and handed to the handlers that need it,
// a nil service disables the vendor dependent paths gracefully.
func InitAppRoutes(r *gin.Engine, svc billing.Service) {
	r.Use(sessions.Sessions("memberbase_session", C.GetServices().SessionStore))

	r.GET("/status", StatusHandler)

	// Signature authenticated, no session. Registered for any method so
	// the handler can reject non POST with 401 as the vendor expects.
	r.Any("/billing/xero/webhooks", mid.AfterResponse(), XeroWebhooksHandler(svc))

	authorized := r.Group("/", mid.SetLoggedInUser())
	authorized.GET("/billing/invoices/:id/view", InvoiceViewRedirectHandler(svc))

	admin := r.Group("/admin", mid.SetLoggedInUser(), mid.RequireAdmin(), mid.AfterResponse())
	admin.POST("/invoices/:id/resync", ResyncInvoiceHandler(svc))
	admin.POST("/memberships/:id/invoice", ChargeMembershipHandler(svc))
	admin.POST("/organisation_memberships/:id/invoice", ChargeOrganisationMembershipHandler(svc))
}
