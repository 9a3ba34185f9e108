package payload

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/opentrade-labs/mobridge/internal/broker"
	"github.com/opentrade-labs/mobridge/internal/symbols"
)

type SquareOffTestSuite struct {
	suite.Suite
}

func TestSquareOffTestSuite(t *testing.T) {
	suite.Run(t, new(SquareOffTestSuite))
}

func position(buyQty, sellQty int, token int64) broker.RawPosition {
	return broker.RawPosition{
		Symbol:       "NIFTY",
		Exchange:     "NSE",
		SymbolToken:  token,
		BuyQuantity:  buyQty,
		SellQuantity: sellQty,
		BuyAmount:    0,
		SellAmount:   0,
		BookedPnL:    0,
		LTP:          0,
		ProductName:  "",
		ProductType:  "",
	}
}

func (suite *SquareOffTestSuite) TestFlatPositionProducesNoOrder() {
	_, open := BuildSquareOff("C001", position(50, 50, 53179), symbols.LotSizes{})
	suite.False(open)
}

func (suite *SquareOffTestSuite) TestLongPositionSells() {
	payload, open := BuildSquareOff("C001", position(250, 0, 53179), symbols.LotSizes{"53179": 75})
	suite.Require().True(open)

	suite.Equal("C001", payload.ClientCode)
	suite.Equal("SELL", payload.BuyOrSell)
	suite.Equal("MARKET", payload.OrderType)
	suite.Equal("DAY", payload.OrderDuration)
	suite.Equal("SQUAREOFF", payload.Tag)
	// 250 / 75 truncates to 3 lots.
	suite.Equal(3, payload.QuantityInLot)
	suite.Zero(payload.Price)
	suite.Zero(payload.TriggerPrice)
}

func (suite *SquareOffTestSuite) TestShortPositionBuys() {
	payload, open := BuildSquareOff("C001", position(0, 150, 53179), symbols.LotSizes{"53179": 75})
	suite.Require().True(open)

	suite.Equal("BUY", payload.BuyOrSell)
	suite.Equal(2, payload.QuantityInLot)
}

func (suite *SquareOffTestSuite) TestLotCountNeverBelowOne() {
	payload, open := BuildSquareOff("C001", position(10, 0, 53179), symbols.LotSizes{"53179": 75})
	suite.Require().True(open)
	suite.Equal(1, payload.QuantityInLot)
}

func (suite *SquareOffTestSuite) TestUnknownTokenTradesWholeQuantity() {
	payload, open := BuildSquareOff("C001", position(40, 0, 99999), symbols.LotSizes{})
	suite.Require().True(open)
	suite.Equal(40, payload.QuantityInLot)
}

func (suite *SquareOffTestSuite) TestProductTypeCarriesOver() {
	pos := position(10, 0, 2885)
	pos.ProductName = "NORMAL"

	payload, open := BuildSquareOff("C001", pos, symbols.LotSizes{})
	suite.Require().True(open)
	suite.Equal("NORMAL", payload.ProductType)
}

func (suite *SquareOffTestSuite) TestProductTypeDefaultsToDelivery() {
	payload, open := BuildSquareOff("C001", position(10, 0, 2885), symbols.LotSizes{})
	suite.Require().True(open)
	suite.Equal("CNC", payload.ProductType)
}

func (suite *SquareOffTestSuite) TestExchangeDefaultsToNSE() {
	pos := position(10, 0, 2885)
	pos.Exchange = ""

	payload, open := BuildSquareOff("C001", pos, symbols.LotSizes{})
	suite.Require().True(open)
	suite.Equal("NSE", payload.Exchange)
}
