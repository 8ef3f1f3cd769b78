package postgres

import (
	"net/http"
	"time"

	C "memberbase/config"
	"memberbase/model/model"

	"github.com/jinzhu/gorm"
	log "github.com/sirupsen/logrus"
)

func (pg *Postgres) GetMembership(id uint64) (*model.Membership, int) {
	if id == 0 {
		return nil, http.StatusBadRequest
	}
	db := C.GetServices().Db

	var membership model.Membership
	if err := db.Where("id = ?", id).First(&membership).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, http.StatusNotFound
		}
		log.WithError(err).WithField("id", id).Error("Failed to get membership.")
		return nil, http.StatusInternalServerError
	}
	return &membership, http.StatusFound
}

func (pg *Postgres) CreateMembership(membership *model.Membership) int {
	if membership == nil || membership.UserID == 0 || membership.Year == 0 {
		return http.StatusBadRequest
	}
	if membership.Status == "" {
		membership.Status = model.MembershipStatusPendingPayment
	}
	db := C.GetServices().Db

	if err := db.Create(membership).Error; err != nil {
		log.WithError(err).WithFields(log.Fields{"user_id": membership.UserID,
			"year": membership.Year}).Error("Failed to create membership.")
		return http.StatusInternalServerError
	}
	return http.StatusCreated
}

func (pg *Postgres) GetOrganisationMembership(id uint64) (*model.OrganisationMembership, int) {
	if id == 0 {
		return nil, http.StatusBadRequest
	}
	db := C.GetServices().Db

	var membership model.OrganisationMembership
	if err := db.Where("id = ?", id).First(&membership).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, http.StatusNotFound
		}
		log.WithError(err).WithField("id", id).Error("Failed to get organisation membership.")
		return nil, http.StatusInternalServerError
	}
	return &membership, http.StatusFound
}

func (pg *Postgres) CreateOrganisationMembership(membership *model.OrganisationMembership) int {
	if membership == nil || membership.OrganisationID == 0 || membership.Year == 0 {
		return http.StatusBadRequest
	}
	if membership.Status == "" {
		membership.Status = model.MembershipStatusPendingPayment
	}
	if membership.Seats == 0 {
		membership.Seats = 1
	}
	db := C.GetServices().Db

	if err := db.Create(membership).Error; err != nil {
		log.WithError(err).WithFields(log.Fields{"organisation_id": membership.OrganisationID,
			"year": membership.Year}).Error("Failed to create organisation membership.")
		return http.StatusInternalServerError
	}
	return http.StatusCreated
}

// ApproveMembershipsForInvoice activates the membership the invoice
// paid for. Runs when a sync first observes the invoice as paid.
// Idempotent, an already active membership is left untouched.
func (pg *Postgres) ApproveMembershipsForInvoice(invoice *model.Invoice) int {
	if invoice == nil {
		return http.StatusBadRequest
	}
	db := C.GetServices().Db
	now := time.Now().UTC()

	if invoice.MembershipID != nil {
		update := db.Model(&model.Membership{}).
			Where("id = ? AND status = ?", *invoice.MembershipID,
				model.MembershipStatusPendingPayment).
			Updates(map[string]interface{}{
				"status": model.MembershipStatusActive, "approved_at": now})
		if update.Error != nil {
			log.WithError(update.Error).WithField("membership_id", *invoice.MembershipID).
				Error("Failed to approve membership.")
			return http.StatusInternalServerError
		}
		if update.RowsAffected == 0 {
			return http.StatusOK
		}
		log.WithFields(log.Fields{"membership_id": *invoice.MembershipID,
			"invoice_id": invoice.ID}).Info("Approved membership for paid invoice.")
		return http.StatusAccepted
	}

	if invoice.OrganisationMembershipID != nil {
		update := db.Model(&model.OrganisationMembership{}).
			Where("id = ? AND status = ?", *invoice.OrganisationMembershipID,
				model.MembershipStatusPendingPayment).
			Updates(map[string]interface{}{
				"status": model.MembershipStatusActive, "approved_at": now})
		if update.Error != nil {
			log.WithError(update.Error).WithField("organisation_membership_id",
				*invoice.OrganisationMembershipID).Error("Failed to approve organisation membership.")
			return http.StatusInternalServerError
		}
		if update.RowsAffected == 0 {
			return http.StatusOK
		}
		log.WithFields(log.Fields{"organisation_membership_id": *invoice.OrganisationMembershipID,
			"invoice_id": invoice.ID}).Info("Approved organisation membership for paid invoice.")
		return http.StatusAccepted
	}

	return http.StatusOK
}
