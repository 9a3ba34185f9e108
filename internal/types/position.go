package types

type PositionBucket string

const (
	PositionOpen   PositionBucket = "open"
	PositionClosed PositionBucket = "closed"
)

// CanonicalPosition is the UI-ready view of one net position for one account.
// NetQuantity is signed: positive means net long.
type CanonicalPosition struct {
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol"`
	NetQuantity int     `json:"quantity"`
	BuyAverage  float64 `json:"buy_avg"`
	SellAverage float64 `json:"sell_avg"`
	// NetProfit is realized plus unrealized P&L, rounded to 2 decimal places.
	NetProfit float64 `json:"net_profit"`
}

// Bucket classifies the position: flat positions are closed, the rest open.
func (p CanonicalPosition) Bucket() PositionBucket {
	if p.NetQuantity == 0 {
		return PositionClosed
	}

	return PositionOpen
}

// CanonicalHolding is the UI-ready view of one demat holding row.
type CanonicalHolding struct {
	Name       string  `json:"name"`
	Symbol     string  `json:"symbol"`
	Quantity   float64 `json:"quantity"`
	BuyAverage float64 `json:"buy_avg"`
	LTP        float64 `json:"ltp"`
	PnL        float64 `json:"pnl"`
}
