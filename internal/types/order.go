package types

import (
	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"

	"github.com/opentrade-labs/mobridge/pkg/errors"
)

type Side string

type OrderType string

type OrderBucket string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Broker order-type codes as the broker API expects them on the wire.
const (
	OrderTypeMarket     OrderType = "MARKET"
	OrderTypeLimit      OrderType = "LIMIT"
	OrderTypeStopLoss   OrderType = "STOPLOSS"
	OrderTypeStopMarket OrderType = "SL-M"
)

// The five canonical order-status buckets.
const (
	BucketPending   OrderBucket = "pending"
	BucketTraded    OrderBucket = "traded"
	BucketRejected  OrderBucket = "rejected"
	BucketCancelled OrderBucket = "cancelled"
	BucketOthers    OrderBucket = "others"
)

// OrderBuckets lists the canonical buckets in display order.
var OrderBuckets = []OrderBucket{
	BucketPending,
	BucketTraded,
	BucketRejected,
	BucketCancelled,
	BucketOthers,
}

// OrderRequest is one outbound order for one account in a batch-place call.
type OrderRequest struct {
	ClientID string `json:"client_id" validate:"required"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	// SecurityID is the broker's numeric symbol token.
	SecurityID     int64   `json:"security_id" validate:"required"`
	Side           Side    `json:"action" validate:"required,oneof=BUY SELL"`
	OrderType      string  `json:"ordertype" validate:"required"`
	ProductType    string  `json:"producttype" validate:"required"`
	OrderDuration  string  `json:"orderduration" validate:"required"`
	Price          float64 `json:"price" validate:"gte=0"`
	TriggerPrice   float64 `json:"triggerprice" validate:"gte=0"`
	QuantityInLots int     `json:"qty" validate:"required,gt=0"`
	DisclosedQty   int     `json:"disclosedquantity" validate:"gte=0"`
	// AMOOrder is "Y" for after-market orders, "N" otherwise.
	AMOOrder string `json:"amoorder"`
	Tag      string `json:"tag"`
}

// Validate validates the OrderRequest struct.
func (o *OrderRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrderRequest, "invalid order request", err)
	}

	return nil
}

// ModifyRequest is a partial user intent to change one pending order.
// Absent optional fields mean "keep the broker's current value". Price,
// trigger and quantity are raw user input strings; the payload builder only
// emits fields that parse to positive numbers.
type ModifyRequest struct {
	Name    string `json:"name"`
	OrderID string `json:"order_id"`
	// OrderType is the user-facing type token (e.g. "LIMIT", "SL_MARKET").
	// None means the type is inferred from price/trigger presence, or left
	// unchanged when neither is given.
	OrderType    optional.Option[string] `json:"orderType"`
	Price        string                  `json:"price"`
	TriggerPrice string                  `json:"triggerPrice"`
	Quantity     string                  `json:"quantity"`
	Validity     string                  `json:"validity"`
}

// CancelRequest identifies one pending order to cancel.
type CancelRequest struct {
	Name    string `json:"name"`
	OrderID string `json:"order_id"`
}

// CloseRequest identifies one open position to square off.
type CloseRequest struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// CanonicalOrder is the UI-ready view of one broker order row.
// Derived, read-only, recomputed on every fetch.
type CanonicalOrder struct {
	Name     string  `json:"name"`
	Symbol   string  `json:"symbol"`
	Side     string  `json:"transaction_type"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Status   string  `json:"status"`
	OrderID  string  `json:"order_id"`
}
