package printer

import (
	"fmt"
	"io"
	"strings"

	"github.com/warungclub/warung/internal/catalog"
	"github.com/warungclub/warung/internal/order"
	"github.com/warungclub/warung/internal/shift"
)

// Renders plain-text documents for 32-column thermal printers. Output is
// returned as a string; the caller hands it to the print spooler.

const lineWidth = 32

// Printer submits rendered documents to a spool destination. A failed
// submission is reported once; whether to reprint is the caller's call.
type Printer struct {
	spool io.Writer
}

func NewPrinter(spool io.Writer) *Printer {
	return &Printer{spool: spool}
}

func (pr *Printer) PrintReceipt(o *order.Order, p *catalog.Profile) error {
	return pr.submit(Receipt(o, p))
}

func (pr *Printer) PrintShiftReport(s *shift.Summary, p *catalog.Profile) error {
	return pr.submit(ShiftReport(s, p))
}

func (pr *Printer) submit(job string) error {
	if _, err := io.WriteString(pr.spool, job); err != nil {
		return fmt.Errorf("cannot submit print job: %w", err)
	}
	return nil
}

// Receipt renders a customer receipt for the order.
func Receipt(o *order.Order, p *catalog.Profile) string {
	var b strings.Builder

	writeHeader(&b, p)

	if o.SequentialID > 0 {
		b.WriteString(center(fmt.Sprintf("Order #%d", o.SequentialID)))
	}
	b.WriteString(center(o.CreatedAt.Format("02 Jan 2006 15:04")))
	if o.TableNumber != "" {
		b.WriteString(center("Table " + o.TableNumber))
	}
	if o.CustomerName != "" {
		b.WriteString(center(o.CustomerName))
	}
	b.WriteString(divider())

	currency := currencyOf(p)
	for _, it := range o.Items {
		b.WriteString(truncate(it.Name) + "\n")
		b.WriteString(row(
			fmt.Sprintf("  %d x %s", it.Quantity, amount(currency, it.Price)),
			amount(currency, it.Price*int64(it.Quantity)),
		))
		if it.Note != "" {
			b.WriteString(truncate("  * "+it.Note) + "\n")
		}
	}

	b.WriteString(divider())
	b.WriteString(row("Subtotal", amount(currency, o.Subtotal)))
	if o.Discount > 0 {
		b.WriteString(row("Discount", "-"+amount(currency, o.Discount)))
	}
	if o.ServiceCharge > 0 {
		b.WriteString(row("Service", amount(currency, o.ServiceCharge)))
	}
	if o.TaxAmount > 0 {
		b.WriteString(row("Tax", amount(currency, o.TaxAmount)))
	}
	b.WriteString(row("TOTAL", amount(currency, o.Total)))

	if o.IsPaid {
		b.WriteString(divider())
		b.WriteString(row("Paid", strings.ToUpper(o.PaymentMethod)))
	}

	if p != nil && p.ReceiptFooter != "" {
		b.WriteString(divider())
		b.WriteString(center(p.ReceiptFooter))
	}

	return b.String()
}

// ShiftReport renders the end-of-shift reconciliation document.
func ShiftReport(s *shift.Summary, p *catalog.Profile) string {
	var b strings.Builder

	writeHeader(&b, p)
	b.WriteString(center("SHIFT REPORT"))
	b.WriteString(divider())

	b.WriteString(row("Opened", s.OpenedAt.Format("02 Jan 15:04")))
	b.WriteString(row("Closed", s.ClosedAt.Format("02 Jan 15:04")))
	b.WriteString(divider())

	currency := currencyOf(p)
	b.WriteString(row("Start cash", amount(currency, s.StartCash)))
	b.WriteString(row("Cash sales", amount(currency, s.CashRevenue)))
	b.WriteString(row("Non-cash sales", amount(currency, s.NonCashRevenue)))
	b.WriteString(row("Expenses", "-"+amount(currency, s.TotalExpenses)))
	b.WriteString(divider())

	b.WriteString(row("Expected cash", amount(currency, s.ExpectedCash)))
	b.WriteString(row("Counted cash", amount(currency, s.ClosingCash)))
	b.WriteString(row("Difference", signedAmount(currency, s.CashDifference)))
	b.WriteString(divider())

	b.WriteString(row("Revenue", amount(currency, s.Revenue)))
	b.WriteString(row("Net revenue", amount(currency, s.NetRevenue)))
	b.WriteString(row("Transactions", fmt.Sprintf("%d", s.Transactions)))

	return b.String()
}

func writeHeader(b *strings.Builder, p *catalog.Profile) {
	if p == nil {
		return
	}
	if p.Name != "" {
		b.WriteString(center(p.Name))
	}
	if p.Address != "" {
		b.WriteString(center(p.Address))
	}
	if p.Phone != "" {
		b.WriteString(center(p.Phone))
	}
	b.WriteString(divider())
}

func currencyOf(p *catalog.Profile) string {
	if p != nil && p.Currency != "" {
		return p.Currency
	}
	return "Rp"
}

// amount renders an integer currency value with dot thousands grouping,
// e.g. 25000 -> "Rp 25.000".
func amount(currency string, v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}

	digits := fmt.Sprintf("%d", v)
	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)

	s := currency + " " + strings.Join(groups, ".")
	if neg {
		return "-" + s
	}
	return s
}

func signedAmount(currency string, v int64) string {
	if v > 0 {
		return "+" + amount(currency, v)
	}
	return amount(currency, v)
}

// row writes a left label and right value padded to the line width.
func row(label, value string) string {
	pad := lineWidth - len(label) - len(value)
	if pad < 1 {
		pad = 1
	}
	return label + strings.Repeat(" ", pad) + value + "\n"
}

func center(s string) string {
	s = truncate(s)
	pad := (lineWidth - len(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + s + "\n"
}

func truncate(s string) string {
	if len(s) <= lineWidth {
		return s
	}
	return s[:lineWidth]
}

func divider() string {
	return strings.Repeat("-", lineWidth) + "\n"
}
