// Package reconcile normalizes raw broker rows into canonical domain records.
package reconcile

import (
	"strings"

	"github.com/opentrade-labs/mobridge/internal/broker"
	"github.com/opentrade-labs/mobridge/internal/types"
)

// ClassifyOrderStatus maps a raw broker order status string into one of the
// five canonical buckets. Matching is case-insensitive substring search in
// fixed priority order; the first match wins and any unmatched input,
// including the empty string, falls to the others bucket.
func ClassifyOrderStatus(raw string) types.OrderBucket {
	status := strings.ToLower(raw)

	switch {
	case strings.Contains(status, "confirm"):
		return types.BucketPending
	case strings.Contains(status, "traded"):
		return types.BucketTraded
	case strings.Contains(status, "rejected"), strings.Contains(status, "error"):
		return types.BucketRejected
	case strings.Contains(status, "cancel"):
		return types.BucketCancelled
	default:
		return types.BucketOthers
	}
}

// CanonicalizeOrder converts one raw order row into the UI-ready view.
func CanonicalizeOrder(name string, raw broker.RawOrder) types.CanonicalOrder {
	return types.CanonicalOrder{
		Name:     name,
		Symbol:   raw.Symbol,
		Side:     raw.BuyOrSell,
		Quantity: raw.OrderQty,
		Price:    raw.Price,
		Status:   raw.OrderStatus,
		OrderID:  raw.UniqueOrderID,
	}
}
