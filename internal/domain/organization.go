package domain

import "time"

// Organization status values
const (
	OrgStatusProvisional = "provisional"
	OrgStatusActive      = "active"
)

// Organization tenant root (public.orgs)
type Organization struct {
	ID            string `db:"id"`
	Name          string `db:"name"`
	Subdomain     string `db:"subdomain"`
	SchemaName    string `db:"schema_name"` // tenant namespace
	Description   string `db:"description"`
	Website       string `db:"website"`
	ABN           string `db:"abn"` // registration id printed on receipts
	Type          string `db:"type"`
	Address       string `db:"address"`
	City          string `db:"city"`
	StateProvince string `db:"state_province"`
	Country       string `db:"country"`

	// ReceiptSequence and ReceiptSequenceYear are written only by the sequence allocator.
	ReceiptPrefix       string `db:"receipt_prefix"`
	ReceiptSequence     int    `db:"receipt_sequence"`
	ReceiptSequenceYear int    `db:"receipt_sequence_year"`

	Status     string     `db:"status"`
	OwnerID    string     `db:"owner_id"`
	OwnerEmail string     `db:"owner_email"`
	CreatedAt  time.Time  `db:"created_at"`
	DeletedAt  *time.Time `db:"deleted_at"`
}

// FullAddress joins the non-empty address parts for the receipt snapshot
func (o *Organization) FullAddress() string {
	out := ""
	for _, part := range []string{o.Address, o.City, o.StateProvince, o.Country} {
		if part == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += part
	}
	return out
}

// ReceiptSequence result of one allocation
type ReceiptSequence struct {
	Prefix   string
	Sequence int
	Year     int
}
