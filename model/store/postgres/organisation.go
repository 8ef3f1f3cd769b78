package postgres

import (
	"net/http"

	C "memberbase/config"
	"memberbase/model/model"

	"github.com/jinzhu/gorm"
	log "github.com/sirupsen/logrus"
)

func (pg *Postgres) GetOrganisation(id uint64) (*model.Organisation, int) {
	if id == 0 {
		return nil, http.StatusBadRequest
	}
	db := C.GetServices().Db

	var organisation model.Organisation
	if err := db.Where("id = ?", id).First(&organisation).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, http.StatusNotFound
		}
		log.WithError(err).WithField("id", id).Error("Failed to get organisation.")
		return nil, http.StatusInternalServerError
	}
	return &organisation, http.StatusFound
}

func (pg *Postgres) IsOrganisationAdmin(organisationID, userID uint64) (bool, int) {
	if organisationID == 0 || userID == 0 {
		return false, http.StatusBadRequest
	}
	db := C.GetServices().Db

	var admin model.OrganisationAdmin
	err := db.Where("organisation_id = ? AND user_id = ?",
		organisationID, userID).First(&admin).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return false, http.StatusFound
		}
		log.WithError(err).WithFields(log.Fields{"organisation_id": organisationID,
			"user_id": userID}).Error("Failed to check organisation admin.")
		return false, http.StatusInternalServerError
	}
	return true, http.StatusFound
}
