package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/printhouse-ops/printhouse/internal/invoices"
	"github.com/printhouse-ops/printhouse/internal/orders"
)

var invoiceTemplate = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Invoice.InvoiceNumber}}</title>
<style>
body { font-family: sans-serif; margin: 48px; color: #1a1a1a; }
h1 { font-size: 20px; }
table { width: 100%; border-collapse: collapse; margin-top: 24px; }
th, td { text-align: left; padding: 6px 8px; border-bottom: 1px solid #ccc; }
td.amount, th.amount { text-align: right; }
.meta { color: #555; font-size: 12px; }
.total td { font-weight: bold; border-top: 2px solid #1a1a1a; }
</style>
</head>
<body>
<h1>Invoice {{.Invoice.InvoiceNumber}}</h1>
<p class="meta">Order {{.Order.OrderNumber}} · issued {{.Invoice.IssuedAt.Format "2 Jan 2006"}} · due {{.Invoice.DueAt.Format "2 Jan 2006"}}</p>
<table>
<tr><th>Description</th><th class="amount">Amount</th></tr>
<tr><td>Print order {{.Order.OrderNumber}}</td><td class="amount">{{printf "%.2f" .Invoice.TotalAmount}}</td></tr>
{{range .Payments}}<tr><td>Payment {{.Reference}} ({{.Status}})</td><td class="amount">{{printf "%.2f" .Amount}}</td></tr>
{{end}}<tr class="total"><td>Balance due</td><td class="amount">{{printf "%.2f" .Order.BalanceDue}}</td></tr>
</table>
</body>
</html>`))

// InvoiceDocument bundles everything the invoice PDF shows.
type InvoiceDocument struct {
	Invoice  *invoices.Invoice
	Order    *orders.Order
	Payments []orders.Payment
}

// InvoiceHTML renders the printable invoice document.
func InvoiceHTML(doc InvoiceDocument) (string, error) {
	if doc.Invoice == nil || doc.Order == nil {
		return "", fmt.Errorf("report: incomplete invoice document")
	}
	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("render invoice html: %w", err)
	}
	return buf.String(), nil
}

// FileName returns a safe download name for the invoice PDF.
func FileName(inv *invoices.Invoice) string {
	if inv == nil {
		return "invoice.pdf"
	}
	return strings.ToLower(inv.InvoiceNumber) + ".pdf"
}
