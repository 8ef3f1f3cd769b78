package model

import "time"

const (
	MembershipStatusPendingPayment = "pending_payment"
	MembershipStatusActive         = "active"
	MembershipStatusExpired        = "expired"
)

// Membership is an individual membership for a calendar year. It is
// created pending payment and approved once its invoice is paid.
type Membership struct {
	ID     uint64 `gorm:"primary_key:true;" json:"id"`
	UserID uint64 `gorm:"not null;" json:"user_id"`

	Year   int    `gorm:"not null;" json:"year"`
	Status string `gorm:"type:varchar(32);not null;" json:"status"`

	ApprovedAt *time.Time `json:"approved_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Membership) IsActive() bool {
	return m.Status == MembershipStatusActive
}

// OrganisationMembership is the organisation counterpart, covering a
// number of seats for the year.
type OrganisationMembership struct {
	ID             uint64 `gorm:"primary_key:true;" json:"id"`
	OrganisationID uint64 `gorm:"not null;" json:"organisation_id"`

	Year   int    `gorm:"not null;" json:"year"`
	Seats  int    `gorm:"not null;default:1" json:"seats"`
	Status string `gorm:"type:varchar(32);not null;" json:"status"`

	ApprovedAt *time.Time `json:"approved_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *OrganisationMembership) IsActive() bool {
	return m.Status == MembershipStatusActive
}
