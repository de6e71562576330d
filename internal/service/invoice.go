package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sugu-inc/modern-billing/internal/domain/account"
	"github.com/sugu-inc/modern-billing/internal/domain/invoice"
	"github.com/sugu-inc/modern-billing/internal/domain/plan"
	"github.com/sugu-inc/modern-billing/internal/domain/subscription"
	"github.com/sugu-inc/modern-billing/internal/domain/usage"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/idgen"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/pricing"
	"github.com/sugu-inc/modern-billing/internal/taxoracle"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// InvoiceService implements the Invoice Assembler (spec.md §4.3).
type InvoiceService struct {
	invoices  invoice.Repository
	subs      subscription.Repository
	plans     plan.Repository
	accounts  account.Repository
	usageRepo usage.Repository
	credits   *CreditService
	tax       taxoracle.Oracle
	fallback  taxoracle.Oracle
	webhooks  *WebhookService
	logger    *logger.Logger

	// DueDays is how many days after assembly the invoice's due_date falls
	// (spec.md §4.3: "net terms default to 0, i.e. due on issue").
	DueDays int
}

// NewInvoiceService wires the Invoice Assembler.
func NewInvoiceService(
	invoices invoice.Repository,
	subs subscription.Repository,
	plans plan.Repository,
	accounts account.Repository,
	usageRepo usage.Repository,
	credits *CreditService,
	tax taxoracle.Oracle,
	fallback taxoracle.Oracle,
	webhooks *WebhookService,
	log *logger.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoices: invoices, subs: subs, plans: plans, accounts: accounts,
		usageRepo: usageRepo, credits: credits, tax: tax, fallback: fallback, webhooks: webhooks, logger: log,
	}
}

// emit fans an event out through the outbox, tolerating a nil webhooks
// service (unit tests construct services without one).
func (s *InvoiceService) emit(ctx context.Context, now time.Time, eventType types.EventType, data any) {
	if s.webhooks == nil {
		return
	}
	if err := s.webhooks.Emit(ctx, now, eventType, data); err != nil {
		s.logger.Errorw("webhook emit failed", "error", err, "event_type", eventType)
	}
}

// GenerateForPeriod assembles the billing-cycle invoice for a subscription's
// just-closed period (spec.md §4.3 generate(), driven by the billing_cycle
// scheduler at §4.9). Steps, in order:
//
//	(a) assert no non-void invoice already exists for (subscription, period_start)
//	(b) emit the subscription base-fee line item, then one usage line item
//	    per metered metric recorded in the period
//	(c) subtotal
//	(d) tax via the Tax Oracle, honoring tax_exempt / reverse-charge
//	(e) allocate the next monotonic invoice number and persist the invoice
//	    (status=open, or paid when nothing is due)
//	(f) apply available account credit FIFO to an open invoice, marking it
//	    paid once credit covers amount_due
func (s *InvoiceService) GenerateForPeriod(ctx context.Context, sub *subscription.Subscription, periodStart, periodEnd time.Time) (*invoice.Invoice, error) {
	if !sub.IsBillable() {
		return nil, nil
	}

	exists, err := s.invoices.ExistsForPeriod(ctx, sub.ID, periodStart)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ierr.NewErrorf("invoice already exists for subscription %s period starting %s", sub.ID, periodStart).
			Mark(ierr.ErrAlreadyExists)
	}

	p, err := s.plans.Get(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}
	acc, err := s.accounts.Get(ctx, sub.AccountID)
	if err != nil {
		return nil, err
	}

	lineItems := []invoice.LineItem{{
		Description: fmt.Sprintf("%s (x%d)", p.Name, sub.Quantity),
		Amount:      p.Amount * sub.Quantity,
		Quantity:    sub.Quantity,
		Type:        types.LineItemTypeSubscription,
	}}

	usageLines, err := s.rateUsageLines(ctx, sub, p, periodStart, periodEnd, types.LineItemTypeUsage)
	if err != nil {
		return nil, err
	}
	lineItems = append(lineItems, usageLines...)

	return s.assemble(ctx, sub, acc, lineItems, periodStart, periodEnd, nil, nil)
}

// rateUsageLines builds one line item per metric recorded against sub in
// [periodStart, periodEnd), rated through the plan's usage-tier algorithm
// (spec.md §4.2/§4.7).
func (s *InvoiceService) rateUsageLines(ctx context.Context, sub *subscription.Subscription, p *plan.Plan, periodStart, periodEnd time.Time, lineType types.LineItemType) ([]invoice.LineItem, error) {
	if p.ResolvedUsageType() == types.UsageTypeNone {
		return nil, nil
	}
	metrics, err := s.usageRepo.ListMetrics(ctx, sub.ID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	tiers := make([]pricing.Tier, len(p.Tiers))
	for i, t := range p.Tiers {
		tiers[i] = pricing.Tier{UpTo: t.UpTo, UnitAmount: t.UnitAmount}
	}

	var lines []invoice.LineItem
	for _, metric := range metrics {
		total, err := s.usageRepo.Sum(ctx, sub.ID, metric, periodStart, periodEnd)
		if err != nil {
			return nil, err
		}
		if total == 0 {
			continue
		}
		amount, err := pricing.RateUsage(total, tiers, p.IsGraduated())
		if err != nil {
			return nil, err
		}
		lines = append(lines, invoice.LineItem{
			Description: fmt.Sprintf("usage: %s (%d units)", metric, total),
			Amount:      amount,
			Quantity:    total,
			Type:        lineType,
		})
	}
	return lines, nil
}

// assemble runs the shared tax/credit/numbering pipeline (steps c-f) over a
// caller-built line-item set and persists the resulting invoice. dueDate,
// when non-nil, overrides the default DueDays net-terms calculation
// (spec.md §4.3 create_proration_invoice: "due_date = now + 7 days"); meta
// is merged onto the invoice's Metadata (e.g. proration=true,
// supplemental=true).
func (s *InvoiceService) assemble(ctx context.Context, sub *subscription.Subscription, acc *account.Account, lineItems []invoice.LineItem, periodStart, periodEnd time.Time, dueDate *time.Time, meta map[string]string) (*invoice.Invoice, error) {
	now := time.Now().UTC()

	inv := &invoice.Invoice{
		ID:             idgen.NewUUID(),
		AccountID:      acc.ID,
		SubscriptionID: &sub.ID,
		Currency:       acc.Currency,
		Status:         types.InvoiceStatusDraft,
		LineItems:      lineItems,
		PeriodStart:    &periodStart,
		PeriodEnd:      &periodEnd,
		Metadata:       meta,
		BaseModel:      types.NewBaseModel(now, "system"),
	}

	subtotal := inv.Subtotal()
	if subtotal < 0 {
		subtotal = 0
	}

	taxResult := s.calculateTax(ctx, acc, subtotal, inv.LineItems)
	inv.Tax = taxResult.Amount
	inv.AmountDue = subtotal + inv.Tax

	if inv.AmountDue <= 0 {
		inv.Status = types.InvoiceStatusPaid
		inv.PaidAt = &now
	} else {
		inv.Status = types.InvoiceStatusOpen
	}
	if dueDate != nil {
		inv.DueDate = *dueDate
	} else {
		inv.DueDate = now.AddDate(0, 0, s.DueDays)
	}

	number, err := s.invoices.NextInvoiceNumber(ctx)
	if err != nil {
		return nil, err
	}
	inv.Number = fmt.Sprintf("INV-%06d", number)

	if err := inv.Validate(); err != nil {
		return nil, err
	}
	if err := s.invoices.Create(ctx, inv); err != nil {
		return nil, err
	}

	s.emit(ctx, now, types.EventInvoiceCreated, inv)
	if inv.Status == types.InvoiceStatusPaid {
		s.emit(ctx, now, types.EventInvoicePaid, inv)
	}

	if inv.Status == types.InvoiceStatusOpen && s.credits != nil {
		if _, err := s.credits.ApplyAvailable(ctx, inv); err != nil {
			return inv, err
		}
		if inv.AmountDue-inv.AmountPaid <= 0 {
			inv.Status = types.InvoiceStatusPaid
			inv.PaidAt = &now
			if err := s.invoices.Update(ctx, inv); err != nil {
				return inv, err
			}
			s.emit(ctx, now, types.EventInvoicePaid, inv)
		}
	}

	return inv, nil
}

// calculateTax honors tax_exempt and EU reverse-charge (spec.md §4.3 step
// d), falling back to a flat rate when the primary oracle errors (§9).
func (s *InvoiceService) calculateTax(ctx context.Context, acc *account.Account, amount int64, lineItems []invoice.LineItem) taxoracle.Result {
	if acc.TaxExempt {
		return taxoracle.Exempt(taxoracle.ReasonTaxExempt)
	}
	if acc.HasValidVATID() {
		return taxoracle.Exempt(taxoracle.ReasonReverseCharge)
	}

	loc := taxoracle.Location{Country: acc.TaxID}
	taxLines := make([]taxoracle.LineItem, len(lineItems))
	for i, li := range lineItems {
		taxLines[i] = taxoracle.LineItem{Description: li.Description, Amount: li.Amount}
	}
	return taxoracle.CalculateWithFallback(ctx, s.tax, s.fallback, loc, amount, acc.Currency, taxLines)
}

// CreateProrationInvoice issues an immediate out-of-cycle invoice for a
// mid-period plan change (spec.md §4.2 step 3 / §4.3's "proration invoice"
// variant): one proration_credit line for the unused remainder of the old
// plan and one proration_charge line for the new plan over the same span.
func (s *InvoiceService) CreateProrationInvoice(ctx context.Context, sub *subscription.Subscription, acc *account.Account, oldAmount, newAmount int64, changeAt time.Time) (*invoice.Invoice, error) {
	result := pricing.Prorate(sub.CurrentPeriodStart, sub.CurrentPeriodEnd, changeAt, oldAmount, newAmount)
	if result.Credit == 0 && result.Charge == 0 {
		return nil, nil
	}

	lineItems := []invoice.LineItem{
		{Description: "Proration credit for previous plan", Amount: result.Credit, Quantity: 1, Type: types.LineItemTypeProrationCredit},
		{Description: "Proration charge for new plan", Amount: result.Charge, Quantity: 1, Type: types.LineItemTypeProrationCharge},
	}
	dueDate := time.Now().UTC().AddDate(0, 0, 7)
	meta := map[string]string{"proration": "true"}
	return s.assemble(ctx, sub, acc, lineItems, changeAt, sub.CurrentPeriodEnd, &dueDate, meta)
}

// CreateLateUsageInvoice issues a supplemental invoice for usage that
// arrived after its period's invoice had already closed (spec.md §4.7: "a
// supplemental invoice is generated" when the original invoice is
// paid/void; otherwise the usage is folded into the still-open invoice by
// the caller instead of calling this).
func (s *InvoiceService) CreateLateUsageInvoice(ctx context.Context, sub *subscription.Subscription, acc *account.Account, lateRecords []*usage.Record, periodStart, periodEnd time.Time) (*invoice.Invoice, error) {
	p, err := s.plans.Get(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}
	if p.ResolvedUsageType() == types.UsageTypeNone || len(lateRecords) == 0 {
		return nil, nil
	}

	totals := map[string]int64{}
	for _, r := range lateRecords {
		totals[r.Metric] += r.Quantity
	}

	tiers := make([]pricing.Tier, len(p.Tiers))
	for i, t := range p.Tiers {
		tiers[i] = pricing.Tier{UpTo: t.UpTo, UnitAmount: t.UnitAmount}
	}

	var lineItems []invoice.LineItem
	for metric, total := range totals {
		amount, err := pricing.RateUsage(total, tiers, p.IsGraduated())
		if err != nil {
			return nil, err
		}
		lineItems = append(lineItems, invoice.LineItem{
			Description: fmt.Sprintf("late usage: %s (%d units)", metric, total),
			Amount:      amount,
			Quantity:    total,
			Type:        types.LineItemTypeLateUsage,
		})
	}
	meta := map[string]string{"supplemental": "true"}
	return s.assemble(ctx, sub, acc, lineItems, periodStart, periodEnd, nil, meta)
}

// Void implements spec.md §4.3 void(): allowed only from {draft, open,
// past_due}; any amount already paid is returned as a credit rather than a
// cash refund.
func (s *InvoiceService) Void(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := s.invoices.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !inv.CanVoid() {
		return nil, ierr.NewErrorf("invoice %s cannot be voided from status %s", id, inv.Status).
			WithHint("void is only permitted from draft, open, or past_due").
			Mark(ierr.ErrInvalidOperation)
	}

	now := time.Now().UTC()
	if s.credits != nil {
		if err := s.credits.RefundFromVoid(ctx, inv); err != nil {
			return nil, err
		}
	}
	inv.Status = types.InvoiceStatusVoid
	inv.VoidedAt = &now
	inv.UpdatedAt = now
	if err := s.invoices.Update(ctx, inv); err != nil {
		return nil, err
	}
	s.emit(ctx, now, types.EventInvoiceVoided, inv)
	return inv, nil
}

// MarkOverdue transitions an open invoice past its due_date to past_due
// (spec.md §4.3's overdue-detection sweep, invoked by the same scheduler
// pass that drives dunning).
func (s *InvoiceService) MarkOverdue(ctx context.Context, inv *invoice.Invoice) error {
	if inv.Status != types.InvoiceStatusOpen {
		return nil
	}
	inv.Status = types.InvoiceStatusPastDue
	inv.UpdatedAt = time.Now().UTC()
	return s.invoices.Update(ctx, inv)
}

// MarkPaid records a successful payment against an invoice (spec.md §4.4
// callback into the Invoice Assembler on payment success).
func (s *InvoiceService) MarkPaid(ctx context.Context, inv *invoice.Invoice, amount int64) error {
	now := time.Now().UTC()
	inv.AmountPaid += amount
	justPaid := false
	if inv.AmountPaid >= inv.AmountDue && inv.Status != types.InvoiceStatusPaid {
		inv.Status = types.InvoiceStatusPaid
		inv.PaidAt = &now
		justPaid = true
	}
	inv.UpdatedAt = now
	if err := s.invoices.Update(ctx, inv); err != nil {
		return err
	}
	if justPaid {
		s.emit(ctx, now, types.EventInvoicePaid, inv)
	}
	return nil
}

// Get fetches a single invoice.
func (s *InvoiceService) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	return s.invoices.Get(ctx, id)
}
