package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/umar1110/Donation-Plantform-Server/common/database"
	"github.com/umar1110/Donation-Plantform-Server/internal/config"
	"github.com/umar1110/Donation-Plantform-Server/internal/domain"
	"github.com/umar1110/Donation-Plantform-Server/internal/mail"
	"github.com/umar1110/Donation-Plantform-Server/internal/repository"
)

// DonationResult what one committed donation produced.
// DonorCreated and DonorLinked only shape the response message; the stored effect is the same.
type DonationResult struct {
	Donation       *domain.Donation `json:"donation"`
	Receipt        *domain.Receipt  `json:"receipt"`
	Donor          *domain.Donor    `json:"donor,omitempty"`
	DonorCreated   bool             `json:"donor_created"`
	DonorLinked    bool             `json:"donor_linked"`
	EmailScheduled bool             `json:"email_scheduled"`
}

// DonationService the issuance pipeline: every donation commits donor totals, link totals,
// the donation row and its receipt in exactly one transaction.
type DonationService struct {
	db         *sql.DB
	orgs       repository.OrgsRepository
	donors     repository.DonorsRepository
	donations  repository.DonationsRepository
	receipts   repository.ReceiptsRepository
	dispatcher mail.Dispatcher
	validator  *Validator
	defaults   config.DonationDefaults
	now        func() time.Time
	logger     *zap.Logger
}

// NewDonationService wires the pipeline. now may be nil.
func NewDonationService(
	db *sql.DB,
	orgs repository.OrgsRepository,
	donors repository.DonorsRepository,
	donations repository.DonationsRepository,
	receipts repository.ReceiptsRepository,
	dispatcher mail.Dispatcher,
	defaults config.DonationDefaults,
	now func() time.Time,
	logger *zap.Logger,
) *DonationService {
	if now == nil {
		now = time.Now
	}
	return &DonationService{
		db:         db,
		orgs:       orgs,
		donors:     donors,
		donations:  donations,
		receipts:   receipts,
		dispatcher: dispatcher,
		validator:  NewValidator(defaults, now),
		defaults:   defaults,
		now:        now,
		logger:     logger,
	}
}

// CreateDonation validates req and routes it to the matching variant
func (s *DonationService) CreateDonation(ctx context.Context, req *DonationRequest) (*DonationResult, error) {
	donation, donor, err := s.validator.Normalize(req)
	if err != nil {
		return nil, err
	}

	switch {
	case donation.IsAnonymous:
		return s.CreateAnonymousDonation(ctx, donation)
	case donation.DonorID != nil:
		return s.CreateDonationForDonor(ctx, donation, *donation.DonorID)
	default:
		return s.CreateDonorAndDonation(ctx, donor, donation)
	}
}

// CreateAnonymousDonation records a donation with no donor and a placeholder receipt name.
// No email is sent.
func (s *DonationService) CreateAnonymousDonation(ctx context.Context, donation *domain.Donation) (*DonationResult, error) {
	if !donation.IsAnonymous {
		return nil, fmt.Errorf("donation is not marked as anonymous: %w", domain.ErrInvalidState)
	}
	donation.DonorID = nil

	result := &DonationResult{Donation: donation}
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.donations.InsertDonation(ctx, tx, donation); err != nil {
			return err
		}
		receipt, err := s.issueReceipt(ctx, tx, donation, nil)
		if err != nil {
			return err
		}
		result.Receipt = receipt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, result)
	return result, nil
}

// CreateDonationForDonor records a donation for an existing donor.
// A donor not yet linked to the org is linked as part of the totals update.
func (s *DonationService) CreateDonationForDonor(ctx context.Context, donation *domain.Donation, donorID string) (*DonationResult, error) {
	result := &DonationResult{Donation: donation}
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		donor, err := s.donors.GetDonor(ctx, tx, donorID)
		if err != nil {
			return err
		}
		result.Donor = donor
		receipt, err := s.recordForDonor(ctx, tx, donation, donor)
		if err != nil {
			return err
		}
		result.Receipt = receipt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, result)
	return result, nil
}

// CreateDonorAndDonation resolves the donor globally by email, links or creates it, then records the donation.
// A donor already linked to this org is a domain.ErrConflict. The email index decides which of two
// racing requests creates the donor and the link's unique key decides which one links it.
func (s *DonationService) CreateDonorAndDonation(ctx context.Context, input *domain.Donor, donation *domain.Donation) (*DonationResult, error) {
	if input == nil {
		return nil, domain.NewValidationError("donor", "is required")
	}

	result := &DonationResult{Donation: donation}
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		donor, err := s.donors.FindDonorByEmail(ctx, tx, input.Email)
		if err != nil {
			return err
		}

		if donor == nil {
			created, err := s.donors.InsertDonor(ctx, tx, input)
			if err != nil {
				return err
			}
			if created {
				donor = input
				result.DonorCreated = true
			} else {
				// another request committed this email first; link to that donor instead
				donor, err = s.donors.FindDonorByEmail(ctx, tx, input.Email)
				if err != nil {
					return err
				}
				if donor == nil {
					return fmt.Errorf("donor email changed concurrently: %w", domain.ErrTransientStorage)
				}
			}
		}

		linked, err := s.donors.LinkDonor(ctx, tx, donation.OrgID, donor.ID)
		if err != nil {
			return err
		}
		if !linked {
			return fmt.Errorf("donor with this email already exists in your organization: %w", domain.ErrConflict)
		}
		result.DonorLinked = !result.DonorCreated
		result.Donor = donor

		receipt, err := s.recordForDonor(ctx, tx, donation, donor)
		if err != nil {
			return err
		}
		result.Receipt = receipt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, result)
	return result, nil
}

// recordForDonor updates both running totals, inserts the donation and issues the receipt
func (s *DonationService) recordForDonor(ctx context.Context, tx *sql.Tx, donation *domain.Donation, donor *domain.Donor) (*domain.Receipt, error) {
	donorID := donor.ID
	donation.DonorID = &donorID

	amount := donation.TotalsAmount()
	if err := s.donors.UpdateDonorTotals(ctx, tx, donor.ID, amount); err != nil {
		return nil, err
	}
	if err := s.donors.AddOrgDonorTotals(ctx, tx, donation.OrgID, donor.ID, amount); err != nil {
		return nil, err
	}
	if err := s.donations.InsertDonation(ctx, tx, donation); err != nil {
		return nil, err
	}
	return s.issueReceipt(ctx, tx, donation, donor)
}

// issueReceipt snapshots org, donor and donation facts under a freshly allocated number.
// It runs inside the caller's transaction. A rollback undoes the allocation along with
// everything else, so the next committed donation takes that number.
func (s *DonationService) issueReceipt(ctx context.Context, tx *sql.Tx, donation *domain.Donation, donor *domain.Donor) (*domain.Receipt, error) {
	org, err := s.orgs.GetOrg(ctx, tx, donation.OrgID)
	if err != nil {
		return nil, err
	}

	seq, err := s.orgs.AllocateReceiptSequence(ctx, tx, donation.OrgID, s.now().UTC().Year())
	if err != nil {
		return nil, err
	}
	prefix := seq.Prefix
	if prefix == "" {
		prefix = s.defaults.FallbackReceiptPrefix
	}

	donationDate := donation.DonationDate
	if donationDate.IsZero() {
		donationDate = s.now().UTC()
	}

	receipt := &domain.Receipt{
		OrgID:                  donation.OrgID,
		DonationID:             donation.ID,
		ReceiptNumber:          domain.FormatReceiptNumber(prefix, seq.Year, seq.Sequence),
		DonorName:              s.defaults.AnonymousDonorName,
		Amount:                 donation.Amount,
		Currency:               donation.Currency,
		IsAmountSplit:          donation.IsAmountSplit,
		TaxDeductibleAmount:    donation.TaxDeductibleAmount,
		TaxNonDeductibleAmount: donation.TaxNonDeductibleAmount,
		PaymentMethod:          donation.PaymentMethod,
		DonationDate:           donationDate,
		OrgName:                org.Name,
		OrgABN:                 org.ABN,
		OrgAddress:             org.FullAddress(),
		RetentionUntil:         domain.RetentionUntil(donationDate, s.defaults.RetentionYears),
		Status:                 domain.ReceiptStatusIssued,
	}
	if donor != nil {
		receipt.DonorName = donor.FullName()
		if donor.Email != "" {
			email := donor.Email
			receipt.DonorEmail = &email
		}
	}

	if err := s.receipts.InsertReceipt(ctx, tx, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// committed runs strictly after commit. Email problems are logged and never surface to the caller.
func (s *DonationService) committed(ctx context.Context, result *DonationResult) {
	s.logger.Info("Donation committed",
		zap.String("org_id", result.Donation.OrgID),
		zap.String("donation_id", result.Donation.ID),
		zap.String("receipt_number", result.Receipt.ReceiptNumber),
		zap.Bool("anonymous", result.Donation.IsAnonymous),
	)

	if s.dispatcher == nil {
		return
	}
	email, ok, err := mail.BuildReceiptEmail(result.Receipt)
	if err != nil {
		s.logger.Error("Failed to build receipt email",
			zap.String("receipt_id", result.Receipt.ID),
			zap.Error(err),
		)
		return
	}
	if !ok {
		return
	}
	if err := s.dispatcher.Dispatch(context.WithoutCancel(ctx), email); err != nil {
		s.logger.Error("Failed to schedule receipt email",
			zap.String("receipt_id", result.Receipt.ID),
			zap.Error(err),
		)
		return
	}
	result.EmailScheduled = true
	s.logger.Info("Receipt email scheduled",
		zap.String("receipt_id", result.Receipt.ID),
		zap.String("receipt_number", result.Receipt.ReceiptNumber),
	)
}
