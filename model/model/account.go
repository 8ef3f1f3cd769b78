package model

import "time"

// Account is the billing account a user or an organisation owns. Exactly
// one of UserID and OrganisationID is set, enforced with a check
// constraint on the table.
type Account struct {
	ID uint64 `gorm:"primary_key:true;" json:"id"`

	UserID         *uint64 `json:"user_id"`
	OrganisationID *uint64 `json:"organisation_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Account) HasExactlyOneOwner() bool {
	return (a.UserID != nil) != (a.OrganisationID != nil)
}

func (a *Account) IsOrganisationAccount() bool {
	return a.OrganisationID != nil
}

// AccountBillingDetails is the owner's name and email as sent to the
// billing provider.
type AccountBillingDetails struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// XeroContact links an account to the contact created for it on Xero.
// One contact per account.
type XeroContact struct {
	ID        uint64 `gorm:"primary_key:true;" json:"id"`
	AccountID uint64 `gorm:"not null;unique_index" json:"account_id"`

	// ContactID is the identifier assigned by Xero.
	ContactID string `gorm:"type:varchar(100);not null;" json:"contact_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
