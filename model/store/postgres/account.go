package postgres

import (
	"net/http"

	C "memberbase/config"
	"memberbase/model/model"

	"github.com/jinzhu/gorm"
	log "github.com/sirupsen/logrus"
)

func (pg *Postgres) GetAccount(id uint64) (*model.Account, int) {
	if id == 0 {
		return nil, http.StatusBadRequest
	}
	db := C.GetServices().Db

	var account model.Account
	if err := db.Where("id = ?", id).First(&account).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, http.StatusNotFound
		}
		log.WithError(err).WithField("id", id).Error("Failed to get account.")
		return nil, http.StatusInternalServerError
	}
	return &account, http.StatusFound
}

// GetOrCreateUserAccount returns the user's billing account, creating
// it on first billing need. One account per user.
func (pg *Postgres) GetOrCreateUserAccount(userID uint64) (*model.Account, int) {
	if userID == 0 {
		return nil, http.StatusBadRequest
	}
	db := C.GetServices().Db

	var account model.Account
	err := db.Where("user_id = ?", userID).First(&account).Error
	if err == nil {
		return &account, http.StatusFound
	}
	if !gorm.IsRecordNotFoundError(err) {
		log.WithError(err).WithField("user_id", userID).Error("Failed to get user account.")
		return nil, http.StatusInternalServerError
	}

	account = model.Account{UserID: &userID}
	if err := db.Create(&account).Error; err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Failed to create user account.")
		return nil, http.StatusInternalServerError
	}
	return &account, http.StatusCreated
}

func (pg *Postgres) GetOrCreateOrganisationAccount(organisationID uint64) (*model.Account, int) {
	if organisationID == 0 {
		return nil, http.StatusBadRequest
	}
	db := C.GetServices().Db

	var account model.Account
	err := db.Where("organisation_id = ?", organisationID).First(&account).Error
	if err == nil {
		return &account, http.StatusFound
	}
	if !gorm.IsRecordNotFoundError(err) {
		log.WithError(err).WithField("organisation_id", organisationID).
			Error("Failed to get organisation account.")
		return nil, http.StatusInternalServerError
	}

	account = model.Account{OrganisationID: &organisationID}
	if err := db.Create(&account).Error; err != nil {
		log.WithError(err).WithField("organisation_id", organisationID).
			Error("Failed to create organisation account.")
		return nil, http.StatusInternalServerError
	}
	return &account, http.StatusCreated
}

// GetAccountBillingDetails resolves the owner's display name and email
// for the billing contact.
func (pg *Postgres) GetAccountBillingDetails(account *model.Account) (*model.AccountBillingDetails, int) {
	if account == nil || !account.HasExactlyOneOwner() {
		return nil, http.StatusBadRequest
	}

	if account.UserID != nil {
		user, errCode := pg.GetUser(*account.UserID)
		if errCode != http.StatusFound {
			return nil, errCode
		}
		return &model.AccountBillingDetails{Name: user.FullName(), Email: user.Email},
			http.StatusFound
	}

	organisation, errCode := pg.GetOrganisation(*account.OrganisationID)
	if errCode != http.StatusFound {
		return nil, errCode
	}
	return &model.AccountBillingDetails{Name: organisation.Name,
		Email: organisation.BillingEmail}, http.StatusFound
}

func (pg *Postgres) GetXeroContactForAccount(accountID uint64) (*model.XeroContact, int) {
	if accountID == 0 {
		return nil, http.StatusBadRequest
	}
	db := C.GetServices().Db

	var contact model.XeroContact
	if err := db.Where("account_id = ?", accountID).First(&contact).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, http.StatusNotFound
		}
		log.WithError(err).WithField("account_id", accountID).
			Error("Failed to get xero contact for account.")
		return nil, http.StatusInternalServerError
	}
	return &contact, http.StatusFound
}

// SaveXeroContact persists the vendor contact id for an account. The
// mapping is written once and never updated.
func (pg *Postgres) SaveXeroContact(accountID uint64, contactID string) (*model.XeroContact, int) {
	if accountID == 0 || contactID == "" {
		return nil, http.StatusBadRequest
	}
	db := C.GetServices().Db

	existing, errCode := pg.GetXeroContactForAccount(accountID)
	if errCode == http.StatusFound {
		return existing, http.StatusConflict
	}
	if errCode != http.StatusNotFound {
		return nil, errCode
	}

	contact := model.XeroContact{AccountID: accountID, ContactID: contactID}
	if err := db.Create(&contact).Error; err != nil {
		log.WithError(err).WithFields(log.Fields{"account_id": accountID,
			"contact_id": contactID}).Error("Failed to save xero contact.")
		return nil, http.StatusInternalServerError
	}
	return &contact, http.StatusCreated
}
