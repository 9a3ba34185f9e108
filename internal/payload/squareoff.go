package payload

import (
	"strconv"

	"github.com/opentrade-labs/mobridge/internal/broker"
	"github.com/opentrade-labs/mobridge/internal/symbols"
	"github.com/opentrade-labs/mobridge/internal/types"
)

// defaultProductType is the cash-and-carry code used when the position row
// carries no product information.
const defaultProductType = "CNC"

// squareOffTag marks orders placed by the square-off path.
const squareOffTag = "SQUAREOFF"

// BuildSquareOff derives the opposite-side market order that flattens one
// position. Returns false when the position is already flat, in which case
// no order should be placed. The offsetting quantity is converted to lots
// via the minimum-lot-size table keyed by the position's security token:
// lots = max(1, quantity / lotSize). Product type carries over from the
// position row.
func BuildSquareOff(clientCode string, pos broker.RawPosition, lotSizes symbols.LotSizes) (broker.OrderPayload, bool) {
	netQty := pos.BuyQuantity - pos.SellQuantity
	if netQty == 0 {
		return broker.OrderPayload{}, false
	}

	side := types.SideSell
	quantity := netQty

	if netQty < 0 {
		side = types.SideBuy
		quantity = -netQty
	}

	token := strconv.FormatInt(pos.SymbolToken, 10)

	lots := quantity / lotSizes.Get(token)
	if lots < 1 {
		lots = 1
	}

	product := pos.ProductName
	if product == "" {
		product = pos.ProductType
	}

	if product == "" {
		product = defaultProductType
	}

	exchange := pos.Exchange
	if exchange == "" {
		exchange = "NSE"
	}

	return broker.OrderPayload{
		ClientCode:    clientCode,
		Exchange:      exchange,
		SymbolToken:   pos.SymbolToken,
		BuyOrSell:     string(side),
		OrderType:     string(types.OrderTypeMarket),
		ProductType:   product,
		OrderDuration: "DAY",
		Price:         0,
		TriggerPrice:  0,
		QuantityInLot: lots,
		DisclosedQty:  0,
		AMOOrder:      "N",
		AlgoID:        "",
		GoodTillDate:  "",
		Tag:           squareOffTag,
	}, true
}
