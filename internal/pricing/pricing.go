// Package pricing computes order totals in whole cents.
package pricing

import "math"

// Line is the minimal pricing view of an order line.
type Line struct {
	UnitCents int
	Quantity  int
}

// Totals represents a priced order. All amounts are in cents.
type Totals struct {
	SubtotalCents int `json:"subtotal_cents"`
	TaxCents      int `json:"tax_cents"`
	TotalCents    int `json:"total_cents"`
}

// ComputeTotals sums the lines and applies taxRate with round-half-up on
// whole cents. Point-of-sale convention: a half cent of tax always rounds
// up, never to even. Empty input yields all-zero totals.
//
// The rate is converted to an integer parts-per-million factor before
// multiplying, so the half-up boundary is exact for any decimal tax rate
// regardless of how the rate's float64 form erred in binary.
func ComputeTotals(lines []Line, taxRate float64) Totals {
	var subtotal int
	for _, l := range lines {
		subtotal += l.UnitCents * l.Quantity
	}
	ppm := int(math.Round(taxRate * 1e6))
	tax := (subtotal*ppm + 500_000) / 1_000_000
	return Totals{
		SubtotalCents: subtotal,
		TaxCents:      tax,
		TotalCents:    subtotal + tax,
	}
}
