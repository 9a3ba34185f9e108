package reconcile

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/opentrade-labs/mobridge/internal/broker"
	"github.com/opentrade-labs/mobridge/internal/types"
)

type ClassifyTestSuite struct {
	suite.Suite
}

func TestClassifyTestSuite(t *testing.T) {
	suite.Run(t, new(ClassifyTestSuite))
}

func (suite *ClassifyTestSuite) TestBuckets() {
	tests := []struct {
		status string
		bucket types.OrderBucket
	}{
		{"Confirm", types.BucketPending},
		{"ORDER CONFIRMED", types.BucketPending},
		{"Traded", types.BucketTraded},
		{"traded", types.BucketTraded},
		{"Rejected", types.BucketRejected},
		{"Error", types.BucketRejected},
		{"Cancelled", types.BucketCancelled},
		{"Cancel Pending", types.BucketCancelled},
		{"Sent to Exchange", types.BucketOthers},
		{"", types.BucketOthers},
		// Priority: confirm beats cancel when both substrings appear.
		{"Cancel Confirm", types.BucketPending},
	}

	for _, tc := range tests {
		suite.Equal(tc.bucket, ClassifyOrderStatus(tc.status), "status %q", tc.status)
	}
}

func (suite *ClassifyTestSuite) TestEveryStatusLandsInExactlyOneBucket() {
	statuses := []string{"Confirm", "Traded", "Rejected", "Cancelled", "Unknown", ""}

	counts := make(map[types.OrderBucket]int)
	for _, status := range statuses {
		counts[ClassifyOrderStatus(status)]++
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	suite.Equal(len(statuses), total)
}

func (suite *ClassifyTestSuite) TestCanonicalizeOrder() {
	raw := broker.RawOrder{
		Symbol:        "RELIANCE",
		BuyOrSell:     "BUY",
		OrderQty:      5,
		Price:         2500.5,
		OrderStatus:   "Confirm",
		UniqueOrderID: "XY123",
	}

	order := CanonicalizeOrder("Alice", raw)
	suite.Equal("Alice", order.Name)
	suite.Equal("RELIANCE", order.Symbol)
	suite.Equal("BUY", order.Side)
	suite.Equal(5, order.Quantity)
	suite.Equal("XY123", order.OrderID)
}

type PositionTestSuite struct {
	suite.Suite
}

func TestPositionTestSuite(t *testing.T) {
	suite.Run(t, new(PositionTestSuite))
}

func (suite *PositionTestSuite) TestLongPosition() {
	raw := broker.RawPosition{
		Symbol:       "RELIANCE",
		Exchange:     "NSE",
		SymbolToken:  2885,
		BuyQuantity:  100,
		SellQuantity: 40,
		BuyAmount:    10000,
		SellAmount:   4400,
		BookedPnL:    0,
		LTP:          110,
		ProductName:  "",
		ProductType:  "",
	}

	pos := AggregatePosition("Alice", raw)
	suite.Equal(60, pos.NetQuantity)
	suite.Equal(100.0, pos.BuyAverage)
	suite.Equal(110.0, pos.SellAverage)
	// (110 - 100) * 60 unrealized, no booked P&L.
	suite.Equal(600.0, pos.NetProfit)
	suite.Equal(types.PositionOpen, pos.Bucket())
}

func (suite *PositionTestSuite) TestShortPosition() {
	raw := broker.RawPosition{
		Symbol:       "TCS",
		Exchange:     "NSE",
		SymbolToken:  11536,
		BuyQuantity:  0,
		SellQuantity: 10,
		BuyAmount:    0,
		SellAmount:   35000,
		BookedPnL:    0,
		LTP:          3450,
		ProductName:  "",
		ProductType:  "",
	}

	pos := AggregatePosition("Bob", raw)
	suite.Equal(-10, pos.NetQuantity)
	suite.Zero(pos.BuyAverage)
	suite.Equal(3500.0, pos.SellAverage)
	// (3500 - 3450) * 10 short gain.
	suite.Equal(500.0, pos.NetProfit)
	suite.Equal(types.PositionOpen, pos.Bucket())
}

func (suite *PositionTestSuite) TestClosedPositionCarriesOnlyBookedPnL() {
	raw := broker.RawPosition{
		Symbol:       "INFY",
		Exchange:     "NSE",
		SymbolToken:  1594,
		BuyQuantity:  50,
		SellQuantity: 50,
		BuyAmount:    75000,
		SellAmount:   76250,
		BookedPnL:    1250,
		LTP:          1530,
		ProductName:  "",
		ProductType:  "",
	}

	pos := AggregatePosition("Alice", raw)
	suite.Zero(pos.NetQuantity)
	suite.Equal(1250.0, pos.NetProfit)
	suite.Equal(types.PositionClosed, pos.Bucket())
}

func (suite *PositionTestSuite) TestRound2() {
	suite.Equal(1.23, Round2(1.2345))
	suite.Equal(1.24, Round2(1.235))
	suite.Equal(-2.57, Round2(-2.567))
	suite.Zero(Round2(0))
}

type HoldingsTestSuite struct {
	suite.Suite
}

func TestHoldingsTestSuite(t *testing.T) {
	suite.Run(t, new(HoldingsTestSuite))
}

func (suite *HoldingsTestSuite) TestAvailableMargin() {
	rows := []broker.MarginRow{
		{Particulars: "Total Orders", Amount: 3},
		{Particulars: " Total Available Margin for Cash ", Amount: 54321.5},
	}

	suite.Equal(54321.5, AvailableMargin(rows))
	suite.Zero(AvailableMargin(nil))
	suite.Zero(AvailableMargin([]broker.MarginRow{{Particulars: "other", Amount: 9}}))
}

func (suite *HoldingsTestSuite) TestBuildHolding() {
	holding := BuildHolding("Alice", "RELIANCE", 10, 2500, 2600)
	suite.Equal("Alice", holding.Name)
	suite.Equal(10.0, holding.Quantity)
	suite.Equal(2500.0, holding.BuyAverage)
	suite.Equal(2600.0, holding.LTP)
	suite.Equal(1000.0, holding.PnL)
}

func (suite *HoldingsTestSuite) TestSummary() {
	var acc HoldingsAccumulator

	acc.Add(BuildHolding("Alice", "RELIANCE", 10, 2500, 2600), 2500)
	acc.Add(BuildHolding("Alice", "TCS", 5, 3400, 3300), 3400)

	summary := acc.Summary("Alice", 50000, 8000)
	suite.Equal("Alice", summary.Name)
	// 10*2500 + 5*3400 invested.
	suite.Equal(42000.0, summary.Invested)
	// +1000 on RELIANCE, -500 on TCS.
	suite.Equal(500.0, summary.PnL)
	suite.Equal(42500.0, summary.CurrentValue)
	suite.Equal(8000.0, summary.AvailableMargin)
	// 42500 + 8000 - 50000.
	suite.Equal(500.0, summary.NetGain)
}

func (suite *HoldingsTestSuite) TestInvestedUsesUnroundedBuyAverage() {
	var acc HoldingsAccumulator

	// 300 shares at 31/3: the display average rounds to 10.33, but the
	// invested total must come from the raw average (exactly 3100).
	buyAvg := 31.0 / 3.0
	holding := BuildHolding("Alice", "XYZ", 300, buyAvg, 12)
	suite.Equal(10.33, holding.BuyAverage)

	acc.Add(holding, buyAvg)

	summary := acc.Summary("Alice", 0, 0)
	suite.Equal(3100.0, summary.Invested)
}

func (suite *HoldingsTestSuite) TestEmptySummary() {
	var acc HoldingsAccumulator

	summary := acc.Summary("Bob", 10000, 10000)
	suite.Zero(summary.Invested)
	suite.Zero(summary.CurrentValue)
	suite.Zero(summary.NetGain)
}
