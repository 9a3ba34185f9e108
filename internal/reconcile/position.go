package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/opentrade-labs/mobridge/internal/broker"
	"github.com/opentrade-labs/mobridge/internal/types"
)

// Round2 rounds a currency amount to 2 decimal places.
func Round2(value float64) float64 {
	rounded, _ := decimal.NewFromFloat(value).Round(2).Float64()

	return rounded
}

// AggregatePosition computes the net position view from one raw position
// row. Net quantity is buy minus sell fills; averages are zero when the
// corresponding side has no fills. Unrealized P&L marks the open side to
// the last traded price, and net profit adds the booked (realized) P&L,
// rounded to 2 decimal places.
func AggregatePosition(name string, raw broker.RawPosition) types.CanonicalPosition {
	netQty := raw.BuyQuantity - raw.SellQuantity

	buyAvg := 0.0
	if raw.BuyQuantity > 0 {
		buyAvg = raw.BuyAmount / float64(raw.BuyQuantity)
	}

	sellAvg := 0.0
	if raw.SellQuantity > 0 {
		sellAvg = raw.SellAmount / float64(raw.SellQuantity)
	}

	unrealized := 0.0

	switch {
	case netQty > 0:
		unrealized = (raw.LTP - buyAvg) * float64(netQty)
	case netQty < 0:
		unrealized = (sellAvg - raw.LTP) * float64(-netQty)
	}

	return types.CanonicalPosition{
		Name:        name,
		Symbol:      raw.Symbol,
		NetQuantity: netQty,
		BuyAverage:  Round2(buyAvg),
		SellAverage: Round2(sellAvg),
		NetProfit:   Round2(unrealized + raw.BookedPnL),
	}
}
