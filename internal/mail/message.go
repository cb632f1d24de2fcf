package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/umar1110/Donation-Plantform-Server/internal/domain"
)

// ReceiptEmail one queued receipt email. Attempt counts prior failed deliveries.
type ReceiptEmail struct {
	ReceiptID     string `json:"receipt_id"`
	OrgID         string `json:"org_id"`
	ReceiptNumber string `json:"receipt_number"`
	To            string `json:"to"`
	Subject       string `json:"subject"`
	HTML          string `json:"html"`
	Text          string `json:"text"`
	Attempt       int    `json:"attempt"`
}

var receiptHTML = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html><body>
<h2>{{.OrgName}}</h2>
{{if .OrgABN}}<p>ABN {{.OrgABN}}</p>{{end}}
{{if .OrgAddress}}<p>{{.OrgAddress}}</p>{{end}}
<p>Receipt <strong>{{.ReceiptNumber}}</strong></p>
<p>Received from {{.DonorName}} on {{.Date}}</p>
<table>
<tr><td>Amount</td><td>{{.Currency}} {{.Amount}}</td></tr>
<tr><td>Tax deductible</td><td>{{.Currency}} {{.Deductible}}</td></tr>
{{if .Split}}<tr><td>Non-deductible</td><td>{{.Currency}} {{.NonDeductible}}</td></tr>{{end}}
<tr><td>Payment method</td><td>{{.PaymentMethod}}</td></tr>
</table>
</body></html>`))

type receiptView struct {
	OrgName       string
	OrgABN        string
	OrgAddress    string
	ReceiptNumber string
	DonorName     string
	Date          string
	Currency      string
	Amount        string
	Deductible    string
	NonDeductible string
	Split         bool
	PaymentMethod string
}

// BuildReceiptEmail renders the email for a committed receipt.
// ok is false when the receipt has no donor email (anonymous donations).
func BuildReceiptEmail(r *domain.Receipt) (email *ReceiptEmail, ok bool, err error) {
	if r.DonorEmail == nil || strings.TrimSpace(*r.DonorEmail) == "" {
		return nil, false, nil
	}

	view := receiptView{
		OrgName:       r.OrgName,
		OrgABN:        r.OrgABN,
		OrgAddress:    r.OrgAddress,
		ReceiptNumber: r.ReceiptNumber,
		DonorName:     r.DonorName,
		Date:          r.DonationDate.Format("02/01/2006"),
		Currency:      r.Currency,
		Amount:        r.Amount.StringFixed(2),
		Deductible:    r.TaxDeductibleAmount.StringFixed(2),
		NonDeductible: r.TaxNonDeductibleAmount.StringFixed(2),
		Split:         r.IsAmountSplit,
		PaymentMethod: r.PaymentMethod,
	}

	var html bytes.Buffer
	if err := receiptHTML.Execute(&html, view); err != nil {
		return nil, false, fmt.Errorf("failed to render receipt email: %w", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "%s\n", view.OrgName)
	if view.OrgABN != "" {
		fmt.Fprintf(&text, "ABN %s\n", view.OrgABN)
	}
	fmt.Fprintf(&text, "Receipt %s\n", view.ReceiptNumber)
	fmt.Fprintf(&text, "Received from %s on %s\n", view.DonorName, view.Date)
	fmt.Fprintf(&text, "Amount: %s %s\n", view.Currency, view.Amount)
	fmt.Fprintf(&text, "Tax deductible: %s %s\n", view.Currency, view.Deductible)
	if view.Split {
		fmt.Fprintf(&text, "Non-deductible: %s %s\n", view.Currency, view.NonDeductible)
	}

	return &ReceiptEmail{
		ReceiptID:     r.ID,
		OrgID:         r.OrgID,
		ReceiptNumber: r.ReceiptNumber,
		To:            *r.DonorEmail,
		Subject:       fmt.Sprintf("Your Donation Receipt %s - %s", r.ReceiptNumber, r.OrgName),
		HTML:          html.String(),
		Text:          text.String(),
	}, true, nil
}
