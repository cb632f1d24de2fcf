package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/umar1110/Donation-Plantform-Server/internal/domain"
)

// ReceiptOperations lookup, resend, register export and status changes
type ReceiptOperations interface {
	GetReceiptForDonation(ctx context.Context, orgID, donationID string) (*domain.Receipt, error)
	ResendReceipt(ctx context.Context, orgID, receiptID string) (*domain.Receipt, error)
	ExportRegister(ctx context.Context, org *domain.Organization, year int) ([]byte, error)
	VoidReceipt(ctx context.Context, orgID, receiptID string) error
}

type ReceiptsHandler struct {
	Orgs     OrgResolver
	Receipts ReceiptOperations
	Logger   *zap.Logger
}

func NewReceiptsHandler(orgs OrgResolver, receipts ReceiptOperations, logger *zap.Logger) *ReceiptsHandler {
	return &ReceiptsHandler{Orgs: orgs, Receipts: receipts, Logger: logger}
}

// ExportRegister GET /api/v1/receipts/export?year=2025, defaulting to the current year
func (h *ReceiptsHandler) ExportRegister(w http.ResponseWriter, r *http.Request) {
	org, err := resolveOrg(r, h.Orgs)
	if err != nil {
		writeError(w, h.Logger, "resolve org", err)
		return
	}

	year := parseInt(r.URL.Query().Get("year"), time.Now().UTC().Year())
	data, err := h.Receipts.ExportRegister(r.Context(), org, year)
	if err != nil {
		writeError(w, h.Logger, "export receipts", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="receipts_%s_%d.xlsx"`, org.Subdomain, year))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// GetByDonation GET /api/v1/receipts/donation/{donationId}
func (h *ReceiptsHandler) GetByDonation(w http.ResponseWriter, r *http.Request, donationID string) {
	org, err := resolveOrg(r, h.Orgs)
	if err != nil {
		writeError(w, h.Logger, "resolve org", err)
		return
	}
	rc, err := h.Receipts.GetReceiptForDonation(r.Context(), org.ID, donationID)
	if err != nil {
		writeError(w, h.Logger, "get receipt", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(receiptToJSON(rc)))
}

// SendReceipt POST /api/v1/receipts/{id}/send
func (h *ReceiptsHandler) SendReceipt(w http.ResponseWriter, r *http.Request, receiptID string) {
	org, err := resolveOrg(r, h.Orgs)
	if err != nil {
		writeError(w, h.Logger, "resolve org", err)
		return
	}
	rc, err := h.Receipts.ResendReceipt(r.Context(), org.ID, receiptID)
	if err != nil {
		writeError(w, h.Logger, "send receipt", err)
		return
	}
	writeJSON(w, http.StatusAccepted, OkMessage("Receipt email scheduled", map[string]any{
		"id":             rc.ID,
		"receipt_number": rc.ReceiptNumber,
		"to":             *rc.DonorEmail,
	}))
}

// VoidReceipt POST /api/v1/receipts/{id}/void
func (h *ReceiptsHandler) VoidReceipt(w http.ResponseWriter, r *http.Request, receiptID string) {
	org, err := resolveOrg(r, h.Orgs)
	if err != nil {
		writeError(w, h.Logger, "resolve org", err)
		return
	}
	if err := h.Receipts.VoidReceipt(r.Context(), org.ID, receiptID); err != nil {
		writeError(w, h.Logger, "void receipt", err)
		return
	}
	writeJSON(w, http.StatusOK, OkMessage("Receipt voided", map[string]string{"id": receiptID, "status": domain.ReceiptStatusVoid}))
}

func receiptToJSON(rc *domain.Receipt) map[string]any {
	out := map[string]any{
		"id":                        rc.ID,
		"org_id":                    rc.OrgID,
		"donation_id":               rc.DonationID,
		"receipt_number":            rc.ReceiptNumber,
		"donor_name":                rc.DonorName,
		"donor_email":               rc.DonorEmail,
		"amount":                    rc.Amount,
		"currency":                  rc.Currency,
		"is_amount_split":           rc.IsAmountSplit,
		"tax_deductible_amount":     rc.TaxDeductibleAmount,
		"tax_non_deductible_amount": rc.TaxNonDeductibleAmount,
		"payment_method":            rc.PaymentMethod,
		"donation_date":             rc.DonationDate,
		"org_name":                  rc.OrgName,
		"org_abn":                   rc.OrgABN,
		"org_address":               rc.OrgAddress,
		"retention_until":           rc.RetentionUntil,
		"email_sent":                rc.EmailSent,
		"status":                    rc.Status,
		"created_at":                rc.CreatedAt,
	}
	if rc.EmailSentAt != nil {
		out["email_sent_at"] = rc.EmailSentAt
	}
	return out
}
