package pricing

import "testing"

func TestComputeTotalsEmpty(t *testing.T) {
	got := ComputeTotals(nil, 0.07)
	if got.SubtotalCents != 0 || got.TaxCents != 0 || got.TotalCents != 0 {
		t.Errorf("ComputeTotals(nil) = %+v, want all zeros", got)
	}
}

func TestComputeTotalsGeorgiaTax(t *testing.T) {
	// Two street tacos at $2.50 with 7% tax.
	got := ComputeTotals([]Line{{UnitCents: 250, Quantity: 2}}, 0.07)
	if got.SubtotalCents != 500 {
		t.Errorf("subtotal = %d, want 500", got.SubtotalCents)
	}
	if got.TaxCents != 35 {
		t.Errorf("tax = %d, want 35", got.TaxCents)
	}
	if got.TotalCents != 535 {
		t.Errorf("total = %d, want 535", got.TotalCents)
	}
}

func TestComputeTotalsRoundsHalfUp(t *testing.T) {
	// 250 * 0.07 = 17.5 cents of tax. Half a cent rounds up, not to even.
	got := ComputeTotals([]Line{{UnitCents: 250, Quantity: 1}}, 0.07)
	if got.TaxCents != 18 {
		t.Errorf("tax = %d, want 18 (half-up)", got.TaxCents)
	}

	// 150 * 0.05 = 7.5: again the .5 boundary, odd target.
	got = ComputeTotals([]Line{{UnitCents: 150, Quantity: 1}}, 0.05)
	if got.TaxCents != 8 {
		t.Errorf("tax = %d, want 8 (half-up)", got.TaxCents)
	}
}

func TestComputeTotalsExactOnBinaryUnfriendlyRates(t *testing.T) {
	// Rates like 8.25% have no exact float64 form; the product can land a
	// hair off the .5 boundary. The cent math must still round half up as
	// if the rate were exact decimal.
	cases := []struct {
		subtotal int
		rate     float64
		wantTax  int
	}{
		{200, 0.0825, 17}, // 16.5 exactly
		{100, 0.065, 7},   // 6.5 exactly
		{1000, 0.0825, 83}, // 82.5 exactly
		{200, 0.07125, 15}, // 14.25 rounds down
	}
	for _, tc := range cases {
		got := ComputeTotals([]Line{{UnitCents: tc.subtotal, Quantity: 1}}, tc.rate)
		if got.TaxCents != tc.wantTax {
			t.Errorf("tax on %d at %v = %d, want %d", tc.subtotal, tc.rate, got.TaxCents, tc.wantTax)
		}
	}
}

func TestComputeTotalsOrderIndependent(t *testing.T) {
	a := Line{UnitCents: 999, Quantity: 3}
	b := Line{UnitCents: 125, Quantity: 2}

	fwd := ComputeTotals([]Line{a, b}, 0.07)
	rev := ComputeTotals([]Line{b, a}, 0.07)

	if fwd != rev {
		t.Errorf("totals depend on line order: %+v vs %+v", fwd, rev)
	}
	if want := 999*3 + 125*2; fwd.SubtotalCents != want {
		t.Errorf("subtotal = %d, want %d", fwd.SubtotalCents, want)
	}
	if fwd.TotalCents != fwd.SubtotalCents+fwd.TaxCents {
		t.Errorf("total %d != subtotal %d + tax %d", fwd.TotalCents, fwd.SubtotalCents, fwd.TaxCents)
	}
}

func TestComputeTotalsTaxOnCombinedSubtotal(t *testing.T) {
	// Tax is computed once on the combined subtotal, not per line.
	a := []Line{{UnitCents: 250, Quantity: 1}}
	b := []Line{{UnitCents: 250, Quantity: 1}}
	both := append(append([]Line{}, a...), b...)

	separate := ComputeTotals(a, 0.07).TaxCents + ComputeTotals(b, 0.07).TaxCents
	combined := ComputeTotals(both, 0.07).TaxCents

	// 17.5 + 17.5 rounds to 18+18=36 separately but 35 combined.
	if separate != 36 || combined != 35 {
		t.Errorf("separate tax = %d (want 36), combined tax = %d (want 35)", separate, combined)
	}
}
