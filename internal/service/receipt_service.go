package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/kodisha/rentcore/internal/domain"
	"github.com/kodisha/rentcore/internal/sink"
	"github.com/kodisha/rentcore/internal/util"
	"github.com/shopspring/decimal"
)

// historicalDebtPattern extracts the literal "Includes historical debt:
// KSH <N> (<details>)" annotation out of a PaymentHistory's free-text
// Notes field.
var historicalDebtPattern = regexp.MustCompile(`Includes historical debt: KSH ([\d.]+) \(([^)]*)\)`)

// ReceiptService builds a Receipt record from a completed PaymentHistory
// and hands it to the external rendering sink.
type ReceiptService struct {
	historyRepo domain.PaymentHistoryRepository
	tenantRepo  domain.TenantRepository
	sink        sink.ReceiptSink
}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService(historyRepo domain.PaymentHistoryRepository, tenantRepo domain.TenantRepository, receiptSink sink.ReceiptSink) *ReceiptService {
	return &ReceiptService{historyRepo: historyRepo, tenantRepo: tenantRepo, sink: receiptSink}
}

// Stream assembles the receipt for a completed payment and writes it to
// w via the configured sink. Receipts are only issuable when the
// payment's status is completed.
func (s *ReceiptService) Stream(ctx context.Context, landlordID, paymentID string, w io.Writer) error {
	history, err := s.historyRepo.GetByID(paymentID)
	if err != nil {
		return err
	}
	if history.LandlordID != landlordID {
		return domain.ErrPaymentNotFound
	}
	if history.Status != domain.PaymentStatusCompleted {
		return domain.ErrPaymentNotCompleted
	}

	receipt, err := s.buildReceipt(landlordID, history)
	if err != nil {
		return err
	}
	return s.sink.Stream(ctx, receipt, w)
}

func (s *ReceiptService) buildReceipt(landlordID string, history *domain.PaymentHistory) (domain.Receipt, error) {
	propertyName, unitNumber := "", ""
	tenant, err := s.tenantRepo.GetByID(landlordID, history.TenantID)
	if err == nil && tenant != nil {
		if tenant.PropertyName != nil {
			propertyName = *tenant.PropertyName
		}
		if tenant.UnitNumber != nil {
			unitNumber = *tenant.UnitNumber
		}
	}

	historicalDebt := decimal.Zero
	historicalDebtDetails := ""
	currentMonthRent := history.MonthlyRent
	if m := historicalDebtPattern.FindStringSubmatch(history.Notes); m != nil {
		if parsed, err := decimal.NewFromString(m[1]); err == nil {
			historicalDebt = parsed
			historicalDebtDetails = strings.TrimSpace(m[2])
			currentMonthRent = history.MonthlyRent.Sub(historicalDebt)
		}
	}

	return domain.Receipt{
		ReceiptNumber:         receiptNumber(history.ID),
		TenantName:            tenantName(tenant),
		PropertyName:          propertyName,
		UnitNumber:            unitNumber,
		PaymentPeriod:         fmt.Sprintf("%s %d", util.MonthName(history.ForMonth), history.ForYear),
		PaymentDate:           history.PaymentDate.Format("2006-01-02"),
		AmountPaid:            history.Amount,
		MonthlyRent:           history.MonthlyRent,
		CurrentMonthRent:      currentMonthRent,
		HistoricalDebt:        historicalDebt,
		HistoricalDebtDetails: historicalDebtDetails,
		UtilityCharges:        history.UtilityCharges,
		TotalUtilityCost:      history.TotalUtilityCost,
		TransactionID:         history.TransactionID,
	}, nil
}

func tenantName(tenant *domain.Tenant) string {
	if tenant == nil {
		return ""
	}
	return tenant.FullName
}

// receiptNumber is upper(hex(id)[:12]). The PaymentHistory
// id is a UUID string, not raw bytes, so the hex digest of its own bytes
// stands in for "hex(id)" here.
func receiptNumber(id string) string {
	digest := hex.EncodeToString([]byte(id))
	if len(digest) > 12 {
		digest = digest[:12]
	}
	return strings.ToUpper(digest)
}

