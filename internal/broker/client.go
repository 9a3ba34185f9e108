// Package broker models the brokerage API as an opaque authenticated
// capability. Query operations return the broker's raw rows plus its status
// envelope; mutating operations are normalized into a canonical Result at
// this boundary so callers never interpret raw broker responses themselves.
package broker

import (
	"context"
	"strings"

	"github.com/moznion/go-optional"
)

// Client is the authenticated broker capability for one account.
type Client interface {
	// Login authenticates the account. On success the client becomes the
	// account's session handle for the process lifetime.
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)
	// OrderBook returns the account's order rows for the trading day.
	OrderBook(ctx context.Context, req OrderBookRequest) (OrderBookResponse, error)
	// Positions returns the account's raw position rows.
	Positions(ctx context.Context, clientCode string) (PositionsResponse, error)
	// Holdings returns the account's demat holdings. On a non-success
	// response it retries the alternate calling conventions accepted by
	// older broker API versions before giving up.
	Holdings(ctx context.Context, clientCode string) (HoldingsResponse, error)
	// LastTradedPrice returns the scaled last traded price for one scrip.
	// The broker reports paise; divide by 100 for currency units.
	LastTradedPrice(ctx context.Context, req LTPRequest) (LTPResponse, error)
	// MarginSummary returns the account's margin report rows.
	MarginSummary(ctx context.Context, clientCode string) (MarginResponse, error)
	// PlaceOrder submits a new order.
	PlaceOrder(ctx context.Context, payload OrderPayload) (Result, error)
	// ModifyOrder modifies a pending order.
	ModifyOrder(ctx context.Context, payload ModifyPayload) (Result, error)
	// CancelOrder cancels a pending order.
	CancelOrder(ctx context.Context, orderID, clientCode string) (Result, error)
}

// Dialer creates unauthenticated clients. One client is dialed per account;
// the session layer logs it in and caches it as the account's session.
type Dialer interface {
	Dial(apiKey string) Client
}

// Envelope is the status/message pair every broker response carries.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Success reports whether the envelope carries the broker's success status.
func (e Envelope) Success() bool {
	return strings.EqualFold(e.Status, "SUCCESS")
}

// LoginRequest carries the credentials for one authentication attempt.
type LoginRequest struct {
	UserID   string `json:"userid"`
	Password string `json:"password"`
	PAN      string `json:"2FA"`
	// OTP is the current time-based one-time code, empty when the account
	// has no TOTP seed.
	OTP string `json:"totp"`
	// VendorInfo labels the session; the broker expects the client code.
	VendorInfo string `json:"vendorinfo"`
}

// LoginResponse is the broker's authentication reply.
type LoginResponse struct {
	Envelope
	AuthToken string `json:"AuthToken"`
}

// OrderBookRequest scopes an order-book query to one account and day.
type OrderBookRequest struct {
	ClientCode string `json:"clientcode"`
	// DateTimeStamp is the day cutoff formatted "02-Jan-2006 15:04:05".
	DateTimeStamp string `json:"datetimestamp"`
}

// RawOrder is one order row as the broker reports it.
type RawOrder struct {
	Symbol        string  `json:"symbol"`
	BuyOrSell     string  `json:"buyorsell"`
	OrderQty      int     `json:"orderqty"`
	Price         float64 `json:"price"`
	OrderStatus   string  `json:"orderstatus"`
	UniqueOrderID string  `json:"uniqueorderid"`
}

// OrderBookResponse is the broker's order-book reply.
type OrderBookResponse struct {
	Envelope
	Data []RawOrder `json:"data"`
}

// RawPosition is one position row as the broker reports it. Buy/sell
// quantities and amounts are running fill aggregates for the day.
type RawPosition struct {
	Symbol         string  `json:"symbol"`
	Exchange       string  `json:"exchange"`
	SymbolToken    int64   `json:"symboltoken"`
	BuyQuantity    int     `json:"buyquantity"`
	SellQuantity   int     `json:"sellquantity"`
	BuyAmount      float64 `json:"buyamount"`
	SellAmount     float64 `json:"sellamount"`
	BookedPnL      float64 `json:"bookedprofitloss"`
	LTP            float64 `json:"LTP"`
	ProductName    string  `json:"productname"`
	ProductType    string  `json:"producttype"`
}

// PositionsResponse is the broker's positions reply.
type PositionsResponse struct {
	Envelope
	Data []RawPosition `json:"data"`
}

// RawHolding is one demat holding row. Field fallbacks cover the spellings
// different broker API versions use.
type RawHolding struct {
	ScripName      string  `json:"scripname"`
	Symbol         string  `json:"symbol"`
	DPQuantity     float64 `json:"dpquantity"`
	Quantity       float64 `json:"quantity"`
	BuyAvgPrice    float64 `json:"buyavgprice"`
	AvgPrice       float64 `json:"avgprice"`
	NSESymbolToken int64   `json:"nsesymboltoken"`
	SymbolToken    int64   `json:"symboltoken"`
	Token          int64   `json:"token"`
}

// DisplaySymbol returns the holding's symbol, preferring the scrip name.
func (h RawHolding) DisplaySymbol() string {
	if h.ScripName != "" {
		return h.ScripName
	}

	return h.Symbol
}

// EffectiveQuantity prefers the demat quantity over the plain quantity field.
func (h RawHolding) EffectiveQuantity() float64 {
	if h.DPQuantity != 0 {
		return h.DPQuantity
	}

	return h.Quantity
}

// EffectiveBuyAverage prefers the buy-average field over the plain average.
func (h RawHolding) EffectiveBuyAverage() float64 {
	if h.BuyAvgPrice != 0 {
		return h.BuyAvgPrice
	}

	return h.AvgPrice
}

// EffectiveToken returns the scrip token for LTP lookups, zero when missing.
func (h RawHolding) EffectiveToken() int64 {
	if h.NSESymbolToken != 0 {
		return h.NSESymbolToken
	}

	if h.SymbolToken != 0 {
		return h.SymbolToken
	}

	return h.Token
}

// HoldingsResponse is the broker's demat holdings reply.
type HoldingsResponse struct {
	Envelope
	Data []RawHolding `json:"data"`
}

// LTPRequest scopes a last-traded-price query to one scrip.
type LTPRequest struct {
	ClientCode string `json:"clientcode"`
	Exchange   string `json:"exchange"`
	ScripCode  int64  `json:"scripcode"`
}

// LTPResponse is the broker's last-traded-price reply. The value is in
// paise; divide by 100 for currency units.
type LTPResponse struct {
	Envelope
	Data struct {
		LTP float64 `json:"ltp"`
	} `json:"data"`
}

// MarginRow is one row of the margin summary report.
type MarginRow struct {
	Particulars string  `json:"particulars"`
	Amount      float64 `json:"amount"`
}

// MarginResponse is the broker's margin summary reply.
type MarginResponse struct {
	Envelope
	Data []MarginRow `json:"data"`
}

// OrderPayload is the wire shape of a new order.
type OrderPayload struct {
	ClientCode    string  `json:"clientcode"`
	Exchange      string  `json:"exchange"`
	SymbolToken   int64   `json:"symboltoken"`
	BuyOrSell     string  `json:"buyorsell"`
	OrderType     string  `json:"ordertype"`
	ProductType   string  `json:"producttype"`
	OrderDuration string  `json:"orderduration"`
	Price         float64 `json:"price"`
	TriggerPrice  float64 `json:"triggerprice"`
	QuantityInLot int     `json:"quantityinlot"`
	DisclosedQty  int     `json:"disclosedquantity"`
	AMOOrder      string  `json:"amoorder"`
	AlgoID        string  `json:"algoid"`
	GoodTillDate  string  `json:"goodtilldate"`
	Tag           string  `json:"tag"`
}

// ModifyPayload is the wire shape of an order modification. Optional fields
// are emitted only when set; the broker keeps its current value for any
// field that is absent.
type ModifyPayload struct {
	ClientCode       string `json:"clientcode"`
	UniqueOrderID    string `json:"uniqueorderid"`
	NewOrderDuration string `json:"neworderduration"`
	NewDisclosedQty  int    `json:"newdisclosedquantity"`
	// LastModifiedTime is stamped "02-Jan-2006 15:04:05" at build time.
	LastModifiedTime string                   `json:"lastmodifiedtime"`
	NewOrderType     optional.Option[string]  `json:"newordertype,omitempty"`
	NewQuantityInLot optional.Option[int]     `json:"newquantityinlot,omitempty"`
	NewPrice         optional.Option[float64] `json:"newprice,omitempty"`
	NewTriggerPrice  optional.Option[float64] `json:"newtriggerprice,omitempty"`
}
