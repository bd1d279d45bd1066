package orders

import (
	"bytes"
	"fmt"

	"agriconnect/models"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

// RenderReceipt builds a one-page PDF receipt with a QR code of the order id.
func RenderReceipt(o models.Order) ([]byte, error) {
	qrPNG, err := qrcode.Encode("order:"+o.ID.Hex(), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("generate qr code: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "AgriConnect Order Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	lines := []string{
		fmt.Sprintf("Order ID: %s", o.ID.Hex()),
		fmt.Sprintf("Date: %s", o.CreatedAt.Format("02 Jan 2006 15:04")),
		fmt.Sprintf("Customer: %s", o.CustomerName),
		fmt.Sprintf("Status: %s", o.Status),
		fmt.Sprintf("Payment: %s (%s)", o.PaymentMethod, o.PaymentStatus),
		fmt.Sprintf("Deliver to: %s", o.DeliveryAddress),
	}
	for _, l := range lines {
		pdf.Cell(0, 8, l)
		pdf.Ln(7)
	}
	pdf.Ln(5)

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 160, 20, 35, 35, false, imageOpts, 0, "")

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(80, 8, "Item", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 8, "Qty", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Price", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Subtotal", "1", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	for _, it := range o.Items {
		pdf.CellFormat(80, 8, it.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 8, fmt.Sprintf("%d %s", it.Quantity, it.Unit), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, fmt.Sprintf("%.2f", it.Price), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, fmt.Sprintf("%.2f", it.Subtotal()), "1", 1, "R", false, 0, "")
	}

	totals := [][2]string{
		{"Items total", fmt.Sprintf("%.2f", o.TotalAmount)},
		{"Delivery fee", fmt.Sprintf("%.2f", o.DeliveryFee)},
		{"Grand total", fmt.Sprintf("%.2f", o.GrandTotal())},
	}
	for _, t := range totals {
		pdf.CellFormat(145, 8, t[0], "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, t[1], "1", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
