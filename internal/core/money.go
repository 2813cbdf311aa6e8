package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineAmounts is the computed money for one distribution line.
type LineAmounts struct {
	Amount    decimal.Decimal
	GSTAmount decimal.Decimal
}

// BillTotals is the aggregate over a distribution's lines.
type BillTotals struct {
	TotalAmount    decimal.Decimal
	TotalGSTAmount decimal.Decimal
	GrandTotal     decimal.Decimal
}

// round2 rounds to 2 decimal places, half away from zero. All amounts in this
// package are non-negative, so this is exactly round-half-up.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ComputeLine derives amount and GST for a single line:
// amount = round2(quantity * rate), gstAmount = round2(amount * gstPct / 100).
// Rounding happens at the line, before aggregation, so line display and bill
// totals can never disagree by a cent.
func ComputeLine(quantity, rate, gstPct decimal.Decimal) (LineAmounts, error) {
	if quantity.IsZero() || quantity.IsNegative() {
		return LineAmounts{}, validationf("quantity", "must be > 0, got %s", quantity)
	}
	if rate.IsNegative() {
		return LineAmounts{}, validationf("rate", "must be >= 0, got %s", rate)
	}
	if gstPct.IsNegative() || gstPct.GreaterThan(hundred) {
		return LineAmounts{}, validationf("gst_percentage", "must be between 0 and 100, got %s", gstPct)
	}

	amount := round2(quantity.Mul(rate))
	gst := round2(amount.Mul(gstPct).Div(hundred))
	return LineAmounts{Amount: amount, GSTAmount: gst}, nil
}

// ComputeTotals sums already-rounded line amounts into bill totals.
// grandTotal = round2(totalAmount + totalGSTAmount).
func ComputeTotals(items []DistributionItem) BillTotals {
	totalAmount := decimal.Zero
	totalGST := decimal.Zero
	for _, it := range items {
		totalAmount = totalAmount.Add(it.Amount)
		totalGST = totalGST.Add(it.GSTAmount)
	}
	totalAmount = round2(totalAmount)
	totalGST = round2(totalGST)
	return BillTotals{
		TotalAmount:    totalAmount,
		TotalGSTAmount: totalGST,
		GrandTotal:     round2(totalAmount.Add(totalGST)),
	}
}

// ParseAmount parses a decimal-safe wire string into a decimal.
// Rejects blank and malformed values instead of coercing them to zero.
func ParseAmount(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, validationf(field, "must not be empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, validationf(field, "invalid decimal %q", s)
	}
	return d, nil
}
