package reconcile

import (
	"strings"

	"github.com/opentrade-labs/mobridge/internal/broker"
	"github.com/opentrade-labs/mobridge/internal/types"
)

// cashMarginParticulars is the margin report row that carries the account's
// available cash margin.
const cashMarginParticulars = "total available margin for cash"

// AvailableMargin extracts the available cash margin from a margin summary.
// Returns 0 when the row is absent.
func AvailableMargin(rows []broker.MarginRow) float64 {
	for _, row := range rows {
		if strings.EqualFold(strings.TrimSpace(row.Particulars), cashMarginParticulars) {
			return row.Amount
		}
	}

	return 0
}

// BuildHolding converts one holding row into the UI-ready view. The last
// traded price is expected in currency units (already descaled).
func BuildHolding(name, symbol string, qty, buyAvg, ltp float64) types.CanonicalHolding {
	return types.CanonicalHolding{
		Name:       name,
		Symbol:     symbol,
		Quantity:   qty,
		BuyAverage: Round2(buyAvg),
		LTP:        Round2(ltp),
		PnL:        Round2((ltp - buyAvg) * qty),
	}
}

// HoldingsAccumulator folds holding rows into the per-account invested value
// and total P&L used by the account summary.
type HoldingsAccumulator struct {
	invested float64
	totalPnL float64
}

// Add accumulates one holding's contribution. The buy average is the raw
// unrounded value; the holding's own BuyAverage is rounded for display and
// would drift the invested total on large quantities.
func (a *HoldingsAccumulator) Add(holding types.CanonicalHolding, buyAvg float64) {
	a.invested += holding.Quantity * buyAvg
	a.totalPnL += holding.PnL
}

// Summary derives the account summary: current value is invested plus total
// P&L, and net gain measures (current value + available margin) against the
// account's capital baseline.
func (a *HoldingsAccumulator) Summary(name string, capital, availableMargin float64) types.AccountSummary {
	currentValue := a.invested + a.totalPnL

	return types.AccountSummary{
		Name:            name,
		Capital:         Round2(capital),
		Invested:        Round2(a.invested),
		PnL:             Round2(a.totalPnL),
		CurrentValue:    Round2(currentValue),
		AvailableMargin: Round2(availableMargin),
		NetGain:         Round2((currentValue + availableMargin) - capital),
	}
}
