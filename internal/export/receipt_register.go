package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/umar1110/Donation-Plantform-Server/internal/domain"
)

// ReceiptRegisterHeader columns of the yearly receipt register
var ReceiptRegisterHeader = []string{
	"Receipt Number",
	"Donation Date",
	"Donor Name",
	"Donor Email",
	"Amount",
	"Currency",
	"Tax Deductible",
	"Non-Deductible",
	"Payment Method",
	"Status",
	"Email Sent",
	"Retain Until",
}

var registerColumnWidths = []float64{18, 14, 28, 30, 12, 10, 14, 14, 16, 10, 11, 14}

// GenerateReceiptRegister renders receipts as a single-sheet XLSX, one row per receipt in the given order.
// Amounts are written as numbers so the sheet can total them.
func GenerateReceiptRegister(orgName string, year int, receipts []*domain.Receipt) ([]byte, error) {
	f := excelize.NewFile()

	sheetName := fmt.Sprintf("Receipts %d", year)
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range ReceiptRegisterHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheetName, name, name, registerColumnWidths[col]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, r := range receipts {
		row := i + 2
		if err := f.SetSheetRow(sheetName, fmt.Sprintf("A%d", row), &[]interface{}{
			r.ReceiptNumber,
			r.DonationDate.Format("2006-01-02"),
			r.DonorName,
			stringOrEmpty(r.DonorEmail),
			r.Amount.InexactFloat64(),
			r.Currency,
			r.TaxDeductibleAmount.InexactFloat64(),
			r.TaxNonDeductibleAmount.InexactFloat64(),
			r.PaymentMethod,
			r.Status,
			yesNo(r.EmailSent),
			r.RetentionUntil.Format("2006-01-02"),
		}); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", row, err)
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   fmt.Sprintf("%s receipt register %d", orgName, year),
		Creator: orgName,
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set document properties: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
