package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"memberbase/billing"
	C "memberbase/config"
	mid "memberbase/middleware"
	"memberbase/model/store"
	U "memberbase/util"
)

// ChargeMembershipHandler raises the annual invoice for an individual
// membership. Billing details are pushed to the provider first, then
// the invoice is created against the member's account and emailed out.
func ChargeMembershipHandler(svc billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		membershipID := U.ParseUint64(c.Params.ByName("id"))
		if membershipID == 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid membership id."})
			return
		}
		if svc == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "No billing service configured."})
			return
		}
		logCtx := log.WithFields(log.Fields{
			"membership_id": membershipID,
			"req_id":        U.GetScopeByKeyAsString(c, mid.SCOPE_REQ_ID),
		})

		membership, errCode := store.GetStore().GetMembership(membershipID)
		if errCode != http.StatusFound {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Membership not found."})
			return
		}

		if err := svc.UpdateUserBillingDetails(membership.UserID); err != nil {
			logCtx.WithError(err).Error("Failed to update billing details before charging membership.")
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				gin.H{"error": "Failed to update billing details."})
			return
		}

		account, errCode := store.GetStore().GetOrCreateUserAccount(membership.UserID)
		if errCode != http.StatusFound && errCode != http.StatusCreated {
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				gin.H{"error": "Failed to get billing account."})
			return
		}

		periodStart, periodEnd := U.MembershipYearBounds(membership.Year)
		request := &billing.CreateInvoiceRequest{
			AccountID:   account.ID,
			Description: fmt.Sprintf("Membership %d", membership.Year),
			Items: []billing.InvoiceItem{
				{
					Description: fmt.Sprintf("Annual membership, %s to %s",
						periodStart.Format("2 Jan 2006"), periodEnd.Format("2 Jan 2006")),
					Quantity:   1,
					UnitAmount: C.GetMembershipFee(),
				},
			},
			MembershipID: &membership.ID,
		}
		invoice, err := svc.CreateInvoice(request)
		if err != nil {
			logCtx.WithError(err).Error("Failed to create membership invoice.")
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				gin.H{"error": "Failed to create invoice."})
			return
		}

		if err := svc.EmailInvoice(invoice); err != nil {
			// Invoice is already created at the vendor, emailing is best
			// effort here.
			logCtx.WithError(err).Error("Failed to email membership invoice.")
		}
		c.JSON(http.StatusCreated, gin.H{"invoice": invoice})
	}
}

// ChargeOrganisationMembershipHandler is the organisation counterpart,
// invoicing the per seat annual fee against the organisation account.
func ChargeOrganisationMembershipHandler(svc billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		membershipID := U.ParseUint64(c.Params.ByName("id"))
		if membershipID == 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid membership id."})
			return
		}
		if svc == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "No billing service configured."})
			return
		}
		logCtx := log.WithFields(log.Fields{
			"organisation_membership_id": membershipID,
			"req_id":                     U.GetScopeByKeyAsString(c, mid.SCOPE_REQ_ID),
		})

		membership, errCode := store.GetStore().GetOrganisationMembership(membershipID)
		if errCode != http.StatusFound {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Membership not found."})
			return
		}

		if err := svc.UpdateOrganisationBillingDetails(membership.OrganisationID); err != nil {
			logCtx.WithError(err).Error("Failed to update billing details before charging membership.")
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				gin.H{"error": "Failed to update billing details."})
			return
		}

		account, errCode := store.GetStore().GetOrCreateOrganisationAccount(membership.OrganisationID)
		if errCode != http.StatusFound && errCode != http.StatusCreated {
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				gin.H{"error": "Failed to get billing account."})
			return
		}

		periodStart, periodEnd := U.MembershipYearBounds(membership.Year)
		request := &billing.CreateInvoiceRequest{
			AccountID:   account.ID,
			Description: fmt.Sprintf("Organisation membership %d", membership.Year),
			Items: []billing.InvoiceItem{
				{
					Description: fmt.Sprintf("Organisation membership per seat, %s to %s",
						periodStart.Format("2 Jan 2006"), periodEnd.Format("2 Jan 2006")),
					Quantity:   membership.Seats,
					UnitAmount: C.GetOrganisationFeePerSeat(),
				},
			},
			OrganisationMembershipID: &membership.ID,
		}
		invoice, err := svc.CreateInvoice(request)
		if err != nil {
			logCtx.WithError(err).Error("Failed to create organisation membership invoice.")
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				gin.H{"error": "Failed to create invoice."})
			return
		}

		if err := svc.EmailInvoice(invoice); err != nil {
			logCtx.WithError(err).Error("Failed to email organisation membership invoice.")
		}
		c.JSON(http.StatusCreated, gin.H{"invoice": invoice})
	}
}
