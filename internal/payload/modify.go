// Package payload derives minimal broker-valid request payloads from partial
// user intent plus freshly fetched broker state.
package payload

import (
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/opentrade-labs/mobridge/internal/broker"
	"github.com/opentrade-labs/mobridge/internal/types"
	"github.com/opentrade-labs/mobridge/pkg/errors"
)

// orderTypeMap maps normalized user-facing order-type tokens to broker
// codes. An empty code means "leave the order's type unchanged".
var orderTypeMap = map[string]types.OrderType{
	"LIMIT":            types.OrderTypeLimit,
	"MARKET":           types.OrderTypeMarket,
	"STOP_LOSS":        types.OrderTypeStopLoss,
	"STOPLOSS":         types.OrderTypeStopLoss,
	"SL":               types.OrderTypeStopLoss,
	"SL_LIMIT":         types.OrderTypeStopLoss,
	"STOP_LOSS_MARKET": types.OrderTypeStopMarket,
	"STOPLOSS_MARKET":  types.OrderTypeStopMarket,
	"SL_MARKET":        types.OrderTypeStopMarket,
	"NO_CHANGE":        "",
	"":                 "",
}

// ResolveOrderType maps a user-facing order-type token to a broker code.
// A recognized token maps through the fixed table. An absent, empty or
// NO_CHANGE token means "keep the broker's current type" and yields the
// empty code unless a positive price or trigger forces an inference. An
// unrecognized token is always inferred: both present means stop-limit,
// trigger alone stop-market, price alone limit, neither market.
func ResolveOrderType(token optional.Option[string], hasPrice, hasTrigger bool) types.OrderType {
	normalized := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(token.TakeOr(""))), "-", "_")

	mapped, known := orderTypeMap[normalized]
	if known && mapped != "" {
		return mapped
	}

	if known && !hasPrice && !hasTrigger {
		// Explicit or implicit no-change with nothing to infer from.
		return ""
	}

	switch {
	case hasPrice && hasTrigger:
		return types.OrderTypeStopLoss
	case hasTrigger:
		return types.OrderTypeStopMarket
	case hasPrice:
		return types.OrderTypeLimit
	default:
		return types.OrderTypeMarket
	}
}

// parsePositive parses a raw user input string into a positive number.
// Blank input, parse failures and non-positive values all yield None: the
// corresponding payload field is omitted, never zeroed.
func parsePositive(raw string) optional.Option[float64] {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return optional.None[float64]()
	}

	parsed, err := decimal.NewFromString(trimmed)
	if err != nil || !parsed.IsPositive() {
		return optional.None[float64]()
	}

	value, _ := parsed.Float64()

	return optional.Some(value)
}

// parsePositiveLots parses a raw quantity string into a positive lot count,
// truncating fractional input the way the broker expects.
func parsePositiveLots(raw string) optional.Option[int] {
	value := parsePositive(raw)
	if value.IsNone() {
		return optional.None[int]()
	}

	lots := int(value.Unwrap())
	if lots <= 0 {
		return optional.None[int]()
	}

	return optional.Some(lots)
}

// BuildModify derives the minimal modification payload for one request.
// Only fields that actually change are included; quantity, price and
// trigger must parse to positive numbers to be emitted, and the new order
// type is present only when explicit or inferable from price/trigger.
// When a type is being set it is validated against its required fields;
// a violation fails this one request without touching its batch siblings.
func BuildModify(req types.ModifyRequest, clientCode string, now time.Time) (broker.ModifyPayload, error) {
	price := parsePositive(req.Price)
	trigger := parsePositive(req.TriggerPrice)
	quantity := parsePositiveLots(req.Quantity)

	orderType := ResolveOrderType(req.OrderType, price.IsSome(), trigger.IsSome())

	duration := strings.ToUpper(strings.TrimSpace(req.Validity))
	if duration == "" {
		duration = "DAY"
	}

	built := broker.ModifyPayload{
		ClientCode:       clientCode,
		UniqueOrderID:    req.OrderID,
		NewOrderDuration: duration,
		NewDisclosedQty:  0,
		LastModifiedTime: now.Format("02-Jan-2006 15:04:05"),
		NewOrderType:     optional.None[string](),
		NewQuantityInLot: quantity,
		NewPrice:         price,
		NewTriggerPrice:  trigger,
	}

	if orderType != "" {
		if err := validateOrderType(orderType, price.IsSome(), trigger.IsSome()); err != nil {
			return broker.ModifyPayload{}, err
		}

		built.NewOrderType = optional.Some(string(orderType))
	}

	return built, nil
}

// validateOrderType gates the field-presence rules that apply only when the
// order's type is actually being set.
func validateOrderType(orderType types.OrderType, hasPrice, hasTrigger bool) error {
	switch orderType {
	case types.OrderTypeLimit:
		if !hasPrice {
			return errors.New(errors.ErrCodeValidationFailed, "LIMIT requires Price > 0")
		}
	case types.OrderTypeStopLoss:
		if !hasPrice || !hasTrigger {
			return errors.New(errors.ErrCodeValidationFailed, "STOPLOSS requires Price & Trigger > 0")
		}
	case types.OrderTypeStopMarket:
		if !hasTrigger {
			return errors.New(errors.ErrCodeValidationFailed, "SL-M requires Trigger > 0")
		}
	case types.OrderTypeMarket:
	}

	return nil
}
