package billing

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

const (
	pageMargin  = 15.0
	tableWidth  = 180.0
	qtyColWidth = 15.0
	amtColWidth = 30.0
	lineHeight  = 6.0
)

// RenderPDF renders an assembled document to an A4 PDF.
func RenderPDF(doc *Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(tableWidth, 10, fmt.Sprintf("%s %s", doc.Title, doc.InvoiceNo), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(tableWidth, lineHeight, doc.Date.Format("2 January 2006"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	half := tableWidth / 2
	top := pdf.GetY()
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(half, lineHeight, "From", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(half, 5, doc.RecipientName+"\n"+doc.RecipientAddress, "", "L", false)
	fromBottom := pdf.GetY()

	pdf.SetXY(pageMargin+half, top)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(half, lineHeight, "Billed to", "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(half, 5, doc.PayerName+"\n"+doc.PayerAddress, "", "L", false)
	if pdf.GetY() < fromBottom {
		pdf.SetY(fromBottom)
	}
	pdf.Ln(6)

	descWidth := tableWidth - qtyColWidth - amtColWidth
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(qtyColWidth, lineHeight, "Qty", "B", 0, "L", false, 0, "")
	pdf.CellFormat(descWidth, lineHeight, "Description", "B", 0, "L", false, 0, "")
	pdf.CellFormat(amtColWidth, lineHeight, fmt.Sprintf("Amount (%s)", doc.Currency), "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range doc.Rows {
		qty := ""
		desc := row.Description
		if row.SubItem {
			desc = "    " + desc
		} else if row.Quantity > 0 {
			qty = fmt.Sprintf("%d", row.Quantity)
		}
		pdf.CellFormat(qtyColWidth, lineHeight, qty, "", 0, "L", false, 0, "")
		pdf.CellFormat(descWidth, lineHeight, desc, "", 0, "L", false, 0, "")
		pdf.CellFormat(amtColWidth, lineHeight, row.Amount.StringFixed(2), "", 1, "R", false, 0, "")
	}

	if doc.VATRate != nil {
		pdf.CellFormat(qtyColWidth+descWidth, lineHeight,
			fmt.Sprintf("Including VAT at %s%%", doc.VATRate.String()), "T", 0, "L", false, 0, "")
		pdf.CellFormat(amtColWidth, lineHeight, doc.VATAmount.StringFixed(2), "T", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(qtyColWidth+descWidth, lineHeight+2, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(amtColWidth, lineHeight+2, doc.Total.StringFixed(2), "T", 1, "R", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(tableWidth, 5, doc.PaymentTerms, "", "L", false)
	if doc.PaymentDetails != "" {
		pdf.Ln(2)
		pdf.MultiCell(tableWidth, 5, doc.PaymentDetails, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render %s %s: %w", doc.Title, doc.InvoiceNo, err)
	}
	return buf.Bytes(), nil
}
