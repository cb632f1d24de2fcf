package service

import (
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/umar1110/Donation-Plantform-Server/internal/config"
	"github.com/umar1110/Donation-Plantform-Server/internal/domain"
)

// DonorInput inline donor data for the new-donor variant
type DonorInput struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone,omitempty"`
	Address       string `json:"address,omitempty"`
	Country       string `json:"country,omitempty"`
	StateProvince string `json:"state_province,omitempty"`
	City          string `json:"city,omitempty"`
}

// DonationRequest raw donation input before defaults and validation.
// Optional amounts are pointers so an omitted split part can be told apart from zero.
type DonationRequest struct {
	OrgID                  string           `json:"-"`
	DonorID                string           `json:"donor_id,omitempty"`
	Donor                  *DonorInput      `json:"donor,omitempty"`
	Amount                 decimal.Decimal  `json:"amount"`
	IsAmountSplit          bool             `json:"is_amount_split"`
	TaxDeductibleAmount    *decimal.Decimal `json:"tax_deductible_amount,omitempty"`
	TaxNonDeductibleAmount *decimal.Decimal `json:"tax_non_deductible_amount,omitempty"`
	Currency               string           `json:"currency,omitempty"`
	PaymentMethod          string           `json:"payment_method,omitempty"`
	Message                string           `json:"message,omitempty"`
	Note                   string           `json:"note,omitempty"`
	IsAnonymous            bool             `json:"is_anonymous"`
	DonationDate           *time.Time       `json:"donation_date,omitempty"`
}

// Validator applies the defaults table and rejects malformed input before any transaction opens
type Validator struct {
	defaults config.DonationDefaults
	now      func() time.Time
}

func NewValidator(defaults config.DonationDefaults, now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{defaults: defaults, now: now}
}

// Normalize returns the donation to persist and, for the new-donor variant, the donor to create.
// Non-split donations are normalized to deductible = amount, non-deductible = 0.
func (v *Validator) Normalize(req *DonationRequest) (*domain.Donation, *domain.Donor, error) {
	if strings.TrimSpace(req.OrgID) == "" {
		return nil, nil, domain.NewValidationError("org_id", "is required")
	}
	if !req.Amount.IsPositive() {
		return nil, nil, domain.NewValidationError("amount", "must be positive")
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = v.defaults.Currency
	}
	if len(currency) != 3 {
		return nil, nil, domain.NewValidationError("currency", "must be a 3-letter code")
	}

	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if method == "" {
		method = v.defaults.PaymentMethod
	}
	if !v.allowedMethod(method) {
		return nil, nil, domain.NewValidationError("payment_method", "must be one of "+strings.Join(v.defaults.PaymentMethods, ", "))
	}

	deductible, nonDeductible, err := v.splitAmounts(req)
	if err != nil {
		return nil, nil, err
	}

	donor, err := v.donorResolution(req)
	if err != nil {
		return nil, nil, err
	}

	date := v.now().UTC()
	if req.DonationDate != nil && !req.DonationDate.IsZero() {
		date = req.DonationDate.UTC()
	}

	d := &domain.Donation{
		OrgID:                  req.OrgID,
		Amount:                 req.Amount,
		IsAmountSplit:          req.IsAmountSplit,
		TaxDeductibleAmount:    deductible,
		TaxNonDeductibleAmount: nonDeductible,
		Currency:               currency,
		PaymentMethod:          method,
		Message:                strings.TrimSpace(req.Message),
		Note:                   strings.TrimSpace(req.Note),
		IsAnonymous:            req.IsAnonymous,
		DonationDate:           date,
	}
	if req.DonorID != "" {
		id := req.DonorID
		d.DonorID = &id
	}
	return d, donor, nil
}

func (v *Validator) allowedMethod(method string) bool {
	for _, m := range v.defaults.PaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}

// splitAmounts: |deductible + nonDeductible - amount| <= tolerance, inclusive
func (v *Validator) splitAmounts(req *DonationRequest) (decimal.Decimal, decimal.Decimal, error) {
	if !req.IsAmountSplit {
		return req.Amount, decimal.Zero, nil
	}

	deductible := decimal.Zero
	if req.TaxDeductibleAmount != nil {
		deductible = *req.TaxDeductibleAmount
	}
	nonDeductible := decimal.Zero
	if req.TaxNonDeductibleAmount != nil {
		nonDeductible = *req.TaxNonDeductibleAmount
	}
	if deductible.IsNegative() {
		return decimal.Zero, decimal.Zero, domain.NewValidationError("tax_deductible_amount", "cannot be negative")
	}
	if nonDeductible.IsNegative() {
		return decimal.Zero, decimal.Zero, domain.NewValidationError("tax_non_deductible_amount", "cannot be negative")
	}

	diff := deductible.Add(nonDeductible).Sub(req.Amount).Abs()
	if diff.GreaterThan(v.defaults.SplitTolerance) {
		return decimal.Zero, decimal.Zero, domain.NewValidationError("tax_deductible_amount",
			"tax deductible and non-deductible amounts must add up to the total amount")
	}
	return deductible, nonDeductible, nil
}

// donorResolution enforces exactly one donor source for non-anonymous donations and none for anonymous ones
func (v *Validator) donorResolution(req *DonationRequest) (*domain.Donor, error) {
	hasID := strings.TrimSpace(req.DonorID) != ""
	hasData := req.Donor != nil

	if req.IsAnonymous {
		if hasID || hasData {
			return nil, domain.NewValidationError("donor", "anonymous donations cannot reference a donor")
		}
		return nil, nil
	}
	if hasID && hasData {
		return nil, domain.NewValidationError("donor", "provide either donor_id or donor, not both")
	}
	if !hasID && !hasData {
		return nil, domain.NewValidationError("donor", "donor_id or donor is required")
	}
	if hasID {
		return nil, nil
	}

	in := req.Donor
	donor := &domain.Donor{
		FirstName:     strings.TrimSpace(in.FirstName),
		LastName:      strings.TrimSpace(in.LastName),
		Email:         domain.NormalizeEmail(in.Email),
		Phone:         strings.TrimSpace(in.Phone),
		Address:       strings.TrimSpace(in.Address),
		Country:       strings.TrimSpace(in.Country),
		StateProvince: strings.TrimSpace(in.StateProvince),
		City:          strings.TrimSpace(in.City),
	}
	if donor.FirstName == "" {
		return nil, domain.NewValidationError("donor.first_name", "is required")
	}
	if donor.LastName == "" {
		return nil, domain.NewValidationError("donor.last_name", "is required")
	}
	if donor.Email == "" {
		return nil, domain.NewValidationError("donor.email", "is required")
	}
	if addr, err := mail.ParseAddress(donor.Email); err != nil || addr.Address != donor.Email {
		return nil, domain.NewValidationError("donor.email", "invalid email address")
	}
	return donor, nil
}
