package postgres

import (
	"net/http"

	C "memberbase/config"
	"memberbase/model/model"

	"github.com/jinzhu/gorm"
	log "github.com/sirupsen/logrus"
)

func (pg *Postgres) GetUser(id uint64) (*model.User, int) {
	if id == 0 {
		return nil, http.StatusBadRequest
	}
	db := C.GetServices().Db

	var user model.User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, http.StatusNotFound
		}
		log.WithError(err).WithField("id", id).Error("Failed to get user.")
		return nil, http.StatusInternalServerError
	}
	return &user, http.StatusFound
}

func (pg *Postgres) GetUserByEmail(email string) (*model.User, int) {
	if email == "" {
		return nil, http.StatusBadRequest
	}
	db := C.GetServices().Db

	var user model.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, http.StatusNotFound
		}
		log.WithError(err).WithField("email", email).Error("Failed to get user by email.")
		return nil, http.StatusInternalServerError
	}
	return &user, http.StatusFound
}
