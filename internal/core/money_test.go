package core_test

import (
	"errors"
	"testing"

	"caterer-billing/internal/core"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeLine(t *testing.T) {
	tests := []struct {
		name      string
		quantity  string
		rate      string
		gstPct    string
		wantAmt   string
		wantGST   string
		expectErr bool
	}{
		{
			name:     "Basic line",
			quantity: "2", rate: "100", gstPct: "5",
			wantAmt: "200.00", wantGST: "10.00",
		},
		{
			name:     "Fractional quantity rounds half up",
			quantity: "1.5", rate: "33.33", gstPct: "18",
			// 1.5 * 33.33 = 49.995 -> 50.00; 50.00 * 0.18 = 9.00
			wantAmt: "50.00", wantGST: "9.00",
		},
		{
			name:     "GST rounds at the line",
			quantity: "1", rate: "99.99", gstPct: "12",
			// 99.99 * 0.12 = 11.9988 -> 12.00
			wantAmt: "99.99", wantGST: "12.00",
		},
		{
			name:     "Zero GST",
			quantity: "3", rate: "10", gstPct: "0",
			wantAmt: "30.00", wantGST: "0.00",
		},
		{
			name:     "Zero rate is allowed",
			quantity: "5", rate: "0", gstPct: "5",
			wantAmt: "0.00", wantGST: "0.00",
		},
		{
			name:     "Zero quantity rejected",
			quantity: "0", rate: "100", gstPct: "5",
			expectErr: true,
		},
		{
			name:     "Negative quantity rejected",
			quantity: "-1", rate: "100", gstPct: "5",
			expectErr: true,
		},
		{
			name:     "Negative rate rejected",
			quantity: "1", rate: "-100", gstPct: "5",
			expectErr: true,
		},
		{
			name:     "GST above 100 rejected",
			quantity: "1", rate: "100", gstPct: "101",
			expectErr: true,
		},
		{
			name:     "Negative GST rejected",
			quantity: "1", rate: "100", gstPct: "-5",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := core.ComputeLine(dec(tt.quantity), dec(tt.rate), dec(tt.gstPct))

			if tt.expectErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				var ve *core.ValidationError
				if !errors.As(err, &ve) {
					t.Errorf("expected ValidationError, got %T: %v", err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Amount.StringFixed(2) != tt.wantAmt {
				t.Errorf("amount: got %s, want %s", got.Amount.StringFixed(2), tt.wantAmt)
			}
			if got.GSTAmount.StringFixed(2) != tt.wantGST {
				t.Errorf("gst amount: got %s, want %s", got.GSTAmount.StringFixed(2), tt.wantGST)
			}
		})
	}
}

func TestComputeTotals_LineLevelRounding(t *testing.T) {
	// Three lines of 33.335 would aggregate-round to 100.01, but line-level
	// rounding gives 33.34 each, totalling 100.02. The calculator must do the
	// latter so bill totals match the per-line display.
	var items []core.DistributionItem
	for i := 0; i < 3; i++ {
		la, err := core.ComputeLine(dec("0.5"), dec("66.67"), dec("5"))
		if err != nil {
			t.Fatalf("ComputeLine: %v", err)
		}
		items = append(items, core.DistributionItem{Amount: la.Amount, GSTAmount: la.GSTAmount})
	}

	totals := core.ComputeTotals(items)
	if got := totals.TotalAmount.StringFixed(2); got != "100.02" {
		t.Errorf("total amount: got %s, want 100.02", got)
	}
	wantGrand := totals.TotalAmount.Add(totals.TotalGSTAmount).StringFixed(2)
	if got := totals.GrandTotal.StringFixed(2); got != wantGrand {
		t.Errorf("grand total: got %s, want %s", got, wantGrand)
	}
}

func TestComputeTotals_GrandTotal(t *testing.T) {
	la1, _ := core.ComputeLine(dec("2"), dec("100"), dec("5"))
	la2, _ := core.ComputeLine(dec("1"), dec("250.50"), dec("12"))

	items := []core.DistributionItem{
		{Amount: la1.Amount, GSTAmount: la1.GSTAmount},
		{Amount: la2.Amount, GSTAmount: la2.GSTAmount},
	}
	totals := core.ComputeTotals(items)

	if got := totals.TotalAmount.StringFixed(2); got != "450.50" {
		t.Errorf("total amount: got %s, want 450.50", got)
	}
	// 10.00 + 30.06
	if got := totals.TotalGSTAmount.StringFixed(2); got != "40.06" {
		t.Errorf("total gst: got %s, want 40.06", got)
	}
	if got := totals.GrandTotal.StringFixed(2); got != "490.56" {
		t.Errorf("grand total: got %s, want 490.56", got)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      string
		expectErr bool
	}{
		{name: "Plain decimal", input: "123.45", want: "123.45"},
		{name: "Whitespace trimmed", input: " 10 ", want: "10.00"},
		{name: "Empty rejected", input: "", expectErr: true},
		{name: "Blank rejected", input: "   ", expectErr: true},
		{name: "Non-numeric rejected", input: "ten", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := core.ParseAmount("amount", tt.input)
			if tt.expectErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				var ve *core.ValidationError
				if !errors.As(err, &ve) {
					t.Errorf("expected ValidationError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.StringFixed(2) != tt.want {
				t.Errorf("got %s, want %s", got.StringFixed(2), tt.want)
			}
		})
	}
}
