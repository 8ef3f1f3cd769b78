package model

import "time"

type Organisation struct {
	ID uint64 `gorm:"primary_key:true;" json:"id"`

	Name         string `gorm:"type:varchar(255);not null;" json:"name"`
	BillingEmail string `gorm:"type:varchar(100)" json:"billing_email"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrganisationAdmin maps a user to an organisation they administer.
// Billing details and invoice access for an organisation account are
// resolved through these rows.
type OrganisationAdmin struct {
	ID             uint64 `gorm:"primary_key:true;" json:"id"`
	OrganisationID uint64 `gorm:"not null;" json:"organisation_id"`
	UserID         uint64 `gorm:"not null;" json:"user_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
