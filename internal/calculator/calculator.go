// Package calculator holds the derived financial and performance metrics.
// Every function is pure and works on rows that were already filtered by
// visibility; money is summed with exact decimal arithmetic and ratios never
// divide by zero.
package calculator

import (
	"time"

	"github.com/edutour/sales-crm/internal/domain"
	"github.com/shopspring/decimal"
)

// ratioPlaces is the number of decimals kept on percentages
const ratioPlaces = 2

var hundred = decimal.NewFromInt(100)

// Profitability is the outcome of a sale after its costs
type Profitability struct {
	TotalExpenses float64
	Profit        float64
	ProfitMargin  float64
}

// SaleProfitability computes expense total, profit and margin for a sale.
// Cancelled expenses do not count. The margin is 0 when revenue is 0.
func SaleProfitability(revenue float64, expenses []domain.Expense) Profitability {
	total := decimal.Zero
	for _, e := range expenses {
		if e.PaymentStatus == domain.PaymentStatusCancelled {
			continue
		}
		total = total.Add(decimal.NewFromFloat(e.Amount))
	}

	rev := decimal.NewFromFloat(revenue)
	profit := rev.Sub(total)

	return Profitability{
		TotalExpenses: total.InexactFloat64(),
		Profit:        profit.InexactFloat64(),
		ProfitMargin:  percent(profit, rev),
	}
}

// Rate returns actual as a percentage of target, or 0 when target is not positive
func Rate(actual, target float64) float64 {
	return percent(decimal.NewFromFloat(actual), decimal.NewFromFloat(target))
}

func percent(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}
	return part.Mul(hundred).Div(whole).Round(ratioPlaces).InexactFloat64()
}

// Sum adds amounts exactly
func Sum(amounts []float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total.InexactFloat64()
}

// Actuals are the counts and revenue achieved in a period
type Actuals struct {
	Visits  int64
	Offers  int64
	Deals   int64
	Revenue float64
}

// Rates are attainment percentages against a target
type Rates struct {
	VisitRate   float64
	OfferRate   float64
	DealRate    float64
	RevenueRate float64
}

// PerformanceRates compares actuals with target. A nil target yields zero rates.
func PerformanceRates(target *domain.SalesTarget, actual Actuals) Rates {
	if target == nil {
		return Rates{}
	}
	return Rates{
		VisitRate:   Rate(float64(actual.Visits), float64(target.VisitTarget)),
		OfferRate:   Rate(float64(actual.Offers), float64(target.OfferTarget)),
		DealRate:    Rate(float64(actual.Deals), float64(target.DealTarget)),
		RevenueRate: Rate(actual.Revenue, target.RevenueTarget),
	}
}

// CurrencyTotals holds the commission sums in one currency
type CurrencyTotals struct {
	BySource map[domain.CommissionSourceType]float64
	Total    float64
}

// CommissionTotals sums commissions per currency, then per source type within
// each currency. Amounts in different currencies are never added together.
// Rows without a currency count as fallbackCurrency.
func CommissionTotals(commissions []domain.Commission, fallbackCurrency string) map[string]CurrencyTotals {
	type sums struct {
		bySource map[domain.CommissionSourceType]decimal.Decimal
		total    decimal.Decimal
	}
	byCurrency := make(map[string]*sums)
	for _, c := range commissions {
		currency := c.Currency
		if currency == "" {
			currency = fallbackCurrency
		}
		acc, ok := byCurrency[currency]
		if !ok {
			acc = &sums{bySource: make(map[domain.CommissionSourceType]decimal.Decimal)}
			byCurrency[currency] = acc
		}
		amount := decimal.NewFromFloat(c.Amount)
		acc.bySource[c.SourceType] = acc.bySource[c.SourceType].Add(amount)
		acc.total = acc.total.Add(amount)
	}

	totals := make(map[string]CurrencyTotals, len(byCurrency))
	for currency, acc := range byCurrency {
		bySource := make(map[domain.CommissionSourceType]float64, len(acc.bySource))
		for source, total := range acc.bySource {
			bySource[source] = total.InexactFloat64()
		}
		totals[currency] = CurrencyTotals{BySource: bySource, Total: acc.total.InexactFloat64()}
	}
	return totals
}

// PeriodWindow returns the UTC half-open window [from, to) covering the given
// month of year, or the whole calendar year when month is nil.
func PeriodWindow(year int, month *int) (time.Time, time.Time) {
	if month != nil {
		from := time.Date(year, time.Month(*month), 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 1, 0)
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0)
}

// OfferTotal returns the explicit total or students times price per student
func OfferTotal(studentCount int, pricePerStudent float64, explicit *float64) float64 {
	if explicit != nil {
		return *explicit
	}
	return decimal.NewFromFloat(pricePerStudent).Mul(decimal.NewFromInt(int64(studentCount))).Round(2).InexactFloat64()
}
