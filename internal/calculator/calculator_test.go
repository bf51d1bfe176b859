package calculator_test

import (
	"math"
	"testing"
	"time"

	"github.com/edutour/sales-crm/internal/calculator"
	"github.com/edutour/sales-crm/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaleProfitability_IgnoresCancelledExpenses(t *testing.T) {
	expenses := []domain.Expense{
		{Amount: 2000, PaymentStatus: domain.PaymentStatusPaid},
		{Amount: 500, PaymentStatus: domain.PaymentStatusCancelled},
	}

	p := calculator.SaleProfitability(10000, expenses)

	assert.Equal(t, 2000.0, p.TotalExpenses)
	assert.Equal(t, 8000.0, p.Profit)
	assert.Equal(t, 80.0, p.ProfitMargin)
}

func TestSaleProfitability_PendingExpensesCount(t *testing.T) {
	expenses := []domain.Expense{
		{Amount: 1000.10, PaymentStatus: domain.PaymentStatusPending},
		{Amount: 0.20, PaymentStatus: domain.PaymentStatusPaid},
	}

	p := calculator.SaleProfitability(3000, expenses)

	assert.Equal(t, 1000.30, p.TotalExpenses)
	assert.Equal(t, 1999.70, p.Profit)
	assert.Equal(t, 66.66, p.ProfitMargin)
}

func TestSaleProfitability_ZeroRevenue(t *testing.T) {
	p := calculator.SaleProfitability(0, []domain.Expense{{Amount: 300, PaymentStatus: domain.PaymentStatusPaid}})

	assert.Equal(t, 0.0, p.ProfitMargin)
	assert.False(t, math.IsNaN(p.ProfitMargin))
	assert.False(t, math.IsInf(p.ProfitMargin, 0))
	assert.Equal(t, -300.0, p.Profit)
}

func TestSaleProfitability_NoExpenses(t *testing.T) {
	p := calculator.SaleProfitability(5000, nil)

	assert.Equal(t, 0.0, p.TotalExpenses)
	assert.Equal(t, 5000.0, p.Profit)
	assert.Equal(t, 100.0, p.ProfitMargin)
}

func TestRate(t *testing.T) {
	tests := []struct {
		name           string
		actual, target float64
		want           float64
	}{
		{"zero target", 5, 0, 0},
		{"negative target", 5, -10, 0},
		{"half", 5, 10, 50},
		{"over target", 15, 10, 150},
		{"rounded", 1, 3, 33.33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calculator.Rate(tt.actual, tt.target))
		})
	}
}

func TestPerformanceRates(t *testing.T) {
	target := &domain.SalesTarget{VisitTarget: 0, OfferTarget: 4, DealTarget: 2, RevenueTarget: 20000}
	actual := calculator.Actuals{Visits: 7, Offers: 3, Deals: 1, Revenue: 5000}

	rates := calculator.PerformanceRates(target, actual)

	assert.Equal(t, 0.0, rates.VisitRate)
	assert.Equal(t, 75.0, rates.OfferRate)
	assert.Equal(t, 50.0, rates.DealRate)
	assert.Equal(t, 25.0, rates.RevenueRate)
}

func TestPerformanceRates_NoTarget(t *testing.T) {
	rates := calculator.PerformanceRates(nil, calculator.Actuals{Visits: 3})
	assert.Equal(t, calculator.Rates{}, rates)
}

func TestSum_IsExact(t *testing.T) {
	assert.Equal(t, 0.3, calculator.Sum([]float64{0.1, 0.2}))
	assert.Equal(t, 0.0, calculator.Sum(nil))
}

func TestCommissionTotals(t *testing.T) {
	commissions := []domain.Commission{
		{SourceType: domain.CommissionSourceSale, Amount: 100.10, Currency: "EUR"},
		{SourceType: domain.CommissionSourceSale, Amount: 50.20, Currency: "EUR"},
		{SourceType: domain.CommissionSourceManual, Amount: 25},
	}

	totals := calculator.CommissionTotals(commissions, "EUR")

	require.Len(t, totals, 1)
	eur := totals["EUR"]
	assert.Equal(t, 150.30, eur.BySource[domain.CommissionSourceSale])
	assert.Equal(t, 25.0, eur.BySource[domain.CommissionSourceManual])
	assert.NotContains(t, eur.BySource, domain.CommissionSourceTargetBonus)
	assert.Equal(t, 175.30, eur.Total)
}

func TestCommissionTotals_KeepsCurrenciesApart(t *testing.T) {
	commissions := []domain.Commission{
		{SourceType: domain.CommissionSourceSale, Amount: 100, Currency: "EUR"},
		{SourceType: domain.CommissionSourceSale, Amount: 80, Currency: "GBP"},
		{SourceType: domain.CommissionSourceTargetBonus, Amount: 20, Currency: "GBP"},
	}

	totals := calculator.CommissionTotals(commissions, "EUR")

	require.Len(t, totals, 2)
	assert.Equal(t, 100.0, totals["EUR"].Total)
	assert.Equal(t, 100.0, totals["EUR"].BySource[domain.CommissionSourceSale])
	assert.Equal(t, 100.0, totals["GBP"].Total)
	assert.Equal(t, 80.0, totals["GBP"].BySource[domain.CommissionSourceSale])
	assert.Equal(t, 20.0, totals["GBP"].BySource[domain.CommissionSourceTargetBonus])
	assert.Empty(t, calculator.CommissionTotals(nil, "EUR"))
}

func TestPeriodWindow(t *testing.T) {
	month := 12
	from, to := calculator.PeriodWindow(2024, &month)
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), to)

	from, to = calculator.PeriodWindow(2024, nil)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), to)
}

func TestOfferTotal(t *testing.T) {
	assert.Equal(t, 4997.50, calculator.OfferTotal(25, 199.90, nil))

	explicit := 4500.0
	assert.Equal(t, 4500.0, calculator.OfferTotal(25, 199.90, &explicit))
}
