package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/umar1110/Donation-Plantform-Server/internal/domain"
)

func TestGenerateReceiptRegister(t *testing.T) {
	email := "jane@example.org"
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	receipts := []*domain.Receipt{
		{
			ReceiptNumber:          "NSW-2025-00001",
			DonorName:              "Anonymous Donor",
			Amount:                 decimal.NewFromInt(50),
			Currency:               "AUD",
			TaxDeductibleAmount:    decimal.NewFromInt(50),
			TaxNonDeductibleAmount: decimal.Zero,
			PaymentMethod:          "cash",
			DonationDate:           date,
			RetentionUntil:         date.AddDate(7, 0, 0),
			Status:                 domain.ReceiptStatusIssued,
		},
		{
			ReceiptNumber:          "NSW-2025-00002",
			DonorName:              "Jane Doe",
			DonorEmail:             &email,
			Amount:                 decimal.RequireFromString("100.00"),
			Currency:               "AUD",
			IsAmountSplit:          true,
			TaxDeductibleAmount:    decimal.RequireFromString("60.00"),
			TaxNonDeductibleAmount: decimal.RequireFromString("40.00"),
			PaymentMethod:          "stripe",
			DonationDate:           date,
			RetentionUntil:         date.AddDate(7, 0, 0),
			EmailSent:              true,
			Status:                 domain.ReceiptStatusVoid,
		},
	}

	data, err := GenerateReceiptRegister("Hope Trust", 2025, receipts)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Receipts 2025"}, f.GetSheetList())
	rows, err := f.GetRows("Receipts 2025")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, ReceiptRegisterHeader, rows[0])

	assert.Equal(t, "NSW-2025-00001", rows[1][0])
	assert.Equal(t, "2025-03-14", rows[1][1])
	assert.Equal(t, "", rows[1][3])
	assert.Equal(t, "No", rows[1][10])

	assert.Equal(t, "NSW-2025-00002", rows[2][0])
	assert.Equal(t, "jane@example.org", rows[2][3])
	assert.Equal(t, "60", rows[2][6])
	assert.Equal(t, "void", rows[2][9])
	assert.Equal(t, "Yes", rows[2][10])
	assert.Equal(t, "2032-03-14", rows[2][11])
}

func TestGenerateReceiptRegister_Empty(t *testing.T) {
	data, err := GenerateReceiptRegister("Hope Trust", 2024, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Receipts 2024")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
