package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/umar1110/Donation-Plantform-Server/common/database"
	"github.com/umar1110/Donation-Plantform-Server/internal/domain"
)

// PostgresDonorsRepository DonorsRepository on lib/pq
type PostgresDonorsRepository struct{}

// NewPostgresDonorsRepository creates the repository
func NewPostgresDonorsRepository() *PostgresDonorsRepository {
	return &PostgresDonorsRepository{}
}

var _ DonorsRepository = (*PostgresDonorsRepository)(nil)

const donorColumns = `
	id::text,
	first_name,
	last_name,
	email,
	COALESCE(phone, ''),
	COALESCE(address, ''),
	COALESCE(country, ''),
	COALESCE(state_province, ''),
	COALESCE(city, ''),
	COALESCE(auth_user_id::text, ''),
	COALESCE(total_donations, 0),
	COALESCE(donation_count, 0),
	created_at,
	updated_at`

func scanDonor(row interface{ Scan(...any) error }) (*domain.Donor, error) {
	var d domain.Donor
	err := row.Scan(
		&d.ID,
		&d.FirstName,
		&d.LastName,
		&d.Email,
		&d.Phone,
		&d.Address,
		&d.Country,
		&d.StateProvince,
		&d.City,
		&d.AuthUserID,
		&d.TotalDonations,
		&d.DonationCount,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *PostgresDonorsRepository) GetDonor(ctx context.Context, q DBTX, donorID string) (*domain.Donor, error) {
	query := `SELECT ` + donorColumns + ` FROM public.donor_profiles WHERE id = $1`
	d, err := scanDonor(q.QueryRowContext(ctx, query, donorID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("donor %s: %w", donorID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get donor: %w", database.ClassifyError(err))
	}
	return d, nil
}

func (r *PostgresDonorsRepository) FindDonorByEmail(ctx context.Context, q DBTX, email string) (*domain.Donor, error) {
	query := `SELECT ` + donorColumns + ` FROM public.donor_profiles WHERE LOWER(email) = $1`
	d, err := scanDonor(q.QueryRowContext(ctx, query, domain.NormalizeEmail(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find donor by email: %w", database.ClassifyError(err))
	}
	return d, nil
}

func (r *PostgresDonorsRepository) InsertDonor(ctx context.Context, q DBTX, donor *domain.Donor) (bool, error) {
	if donor.ID == "" {
		donor.ID = uuid.New().String()
	}
	donor.Email = domain.NormalizeEmail(donor.Email)

	query := `
		INSERT INTO public.donor_profiles (
			id, first_name, last_name, email, phone, address, country, state_province, city,
			total_donations, donation_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, 0)
		ON CONFLICT ((LOWER(email))) DO NOTHING
		RETURNING created_at, updated_at`
	err := q.QueryRowContext(ctx, query,
		donor.ID,
		donor.FirstName,
		donor.LastName,
		donor.Email,
		nullString(donor.Phone),
		nullString(donor.Address),
		nullString(donor.Country),
		nullString(donor.StateProvince),
		nullString(donor.City),
	).Scan(&donor.CreatedAt, &donor.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert donor: %w", database.ClassifyError(err))
	}
	donor.TotalDonations = decimal.Zero
	donor.DonationCount = 0
	return true, nil
}

func (r *PostgresDonorsRepository) LinkDonor(ctx context.Context, q DBTX, orgID, donorID string) (bool, error) {
	result, err := q.ExecContext(ctx, `
		INSERT INTO public.orgs_donors (org_id, donor_id, total_donations, donation_count)
		VALUES ($1, $2, 0, 0)
		ON CONFLICT (org_id, donor_id) DO NOTHING`,
		orgID, donorID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to link donor: %w", database.ClassifyError(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to link donor: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresDonorsRepository) GetLink(ctx context.Context, q DBTX, orgID, donorID string) (*domain.OrgDonorLink, error) {
	var link domain.OrgDonorLink
	err := q.QueryRowContext(ctx, `
		SELECT org_id::text, donor_id::text, COALESCE(total_donations, 0), COALESCE(donation_count, 0), created_at
		FROM public.orgs_donors
		WHERE org_id = $1 AND donor_id = $2`,
		orgID, donorID,
	).Scan(&link.OrgID, &link.DonorID, &link.TotalDonations, &link.DonationCount, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get org donor link: %w", database.ClassifyError(err))
	}
	return &link, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *PostgresDonorsRepository) SearchByOrg(ctx context.Context, q DBTX, orgID, term string, limit int) ([]*domain.Donor, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
	rows, err := q.QueryContext(ctx, `
		SELECT d.id::text, d.first_name, d.last_name, d.email,
		       COALESCE(d.phone, ''), COALESCE(d.address, ''), COALESCE(d.country, ''),
		       COALESCE(d.state_province, ''), COALESCE(d.city, ''), COALESCE(d.auth_user_id::text, ''),
		       COALESCE(d.total_donations, 0), COALESCE(d.donation_count, 0), d.created_at, d.updated_at
		FROM public.donor_profiles d
		INNER JOIN public.orgs_donors od ON od.donor_id = d.id
		WHERE od.org_id = $1
		  AND (LOWER(d.email) LIKE $2 OR LOWER(d.first_name) LIKE $2 OR LOWER(d.last_name) LIKE $2)
		ORDER BY d.first_name, d.last_name
		LIMIT $3`,
		orgID, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search donors: %w", database.ClassifyError(err))
	}
	defer rows.Close()

	donors := []*domain.Donor{}
	for rows.Next() {
		d, err := scanDonor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan donor: %w", err)
		}
		donors = append(donors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate donors: %w", database.ClassifyError(err))
	}
	return donors, nil
}

func (r *PostgresDonorsRepository) UpdateDonorTotals(ctx context.Context, q DBTX, donorID string, amount decimal.Decimal) error {
	result, err := q.ExecContext(ctx, `
		UPDATE public.donor_profiles
		SET total_donations = COALESCE(total_donations, 0) + $1,
		    donation_count = COALESCE(donation_count, 0) + 1,
		    updated_at = NOW()
		WHERE id = $2`,
		amount, donorID,
	)
	if err != nil {
		return fmt.Errorf("failed to update donor totals: %w", database.ClassifyError(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update donor totals: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("donor %s: %w", donorID, domain.ErrNotFound)
	}
	return nil
}

func (r *PostgresDonorsRepository) AddOrgDonorTotals(ctx context.Context, q DBTX, orgID, donorID string, amount decimal.Decimal) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO public.orgs_donors (org_id, donor_id, total_donations, donation_count)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (org_id, donor_id) DO UPDATE
		SET total_donations = COALESCE(orgs_donors.total_donations, 0) + EXCLUDED.total_donations,
		    donation_count = COALESCE(orgs_donors.donation_count, 0) + 1`,
		orgID, donorID, amount,
	)
	if err != nil {
		return fmt.Errorf("failed to update org donor totals: %w", database.ClassifyError(err))
	}
	return nil
}
