package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Donor global, org-independent giver identity (public.donor_profiles).
// Email is stored normalized.
type Donor struct {
	ID             string          `db:"id"`
	FirstName      string          `db:"first_name"`
	LastName       string          `db:"last_name"`
	Email          string          `db:"email"`
	Phone          string          `db:"phone"`
	Address        string          `db:"address"`
	Country        string          `db:"country"`
	StateProvince  string          `db:"state_province"`
	City           string          `db:"city"`
	AuthUserID     string          `db:"auth_user_id"`
	TotalDonations decimal.Decimal `db:"total_donations"`
	DonationCount  int             `db:"donation_count"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// FullName "first last", or "Unknown" when both are blank
func (d *Donor) FullName() string {
	name := strings.TrimSpace(d.FirstName + " " + d.LastName)
	if name == "" {
		return "Unknown"
	}
	return name
}

// OrgDonorLink per-org relationship and totals (public.orgs_donors), unique on (org_id, donor_id)
type OrgDonorLink struct {
	OrgID          string          `db:"org_id"`
	DonorID        string          `db:"donor_id"`
	TotalDonations decimal.Decimal `db:"total_donations"`
	DonationCount  int             `db:"donation_count"`
	CreatedAt      time.Time       `db:"created_at"`
}

// NormalizeEmail lower-cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
