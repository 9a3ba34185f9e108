package desk

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opentrade-labs/mobridge/internal/broker"
	"github.com/opentrade-labs/mobridge/internal/fanout"
	"github.com/opentrade-labs/mobridge/internal/payload"
	"github.com/opentrade-labs/mobridge/internal/registry"
	"github.com/opentrade-labs/mobridge/internal/types"
)

// PlaceOutcome is the normalized result of one order in a place batch.
type PlaceOutcome struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// BatchResult reports one place batch. Responses are keyed "tag:clientID";
// duplicate keys within a batch get a "#n" suffix so no outcome is lost.
type BatchResult struct {
	Status    string                  `json:"status"`
	Message   string                  `json:"message,omitempty"`
	Responses map[string]PlaceOutcome `json:"order_responses,omitempty"`
}

const (
	outcomeSuccess = "SUCCESS"
	outcomeError   = "ERROR"
)

// PlaceOrders fans one order batch out across accounts. Each order resolves
// its own account and session; a failure in one order (unknown client, dead
// session, broker rejection) is captured as that order's outcome and never
// aborts its batch siblings.
func (d *Desk) PlaceOrders(ctx context.Context, orders []types.OrderRequest) BatchResult {
	if len(orders) == 0 {
		return BatchResult{
			Status:  "skipped",
			Message: "no orders received",
		}
	}

	batchID := uuid.NewString()
	accounts := registry.IndexByUserID(d.registry.All())

	d.logger.Info("placing order batch",
		zap.String("batch_id", batchID),
		zap.Int("orders", len(orders)),
	)

	results := fanout.Run(orders, d.cfg.Concurrency(),
		func(o types.OrderRequest) string { return o.Tag + ":" + o.ClientID },
		func(o types.OrderRequest) (PlaceOutcome, error) {
			return d.placeOne(ctx, batchID, accounts, o), nil
		})

	responses := make(map[string]PlaceOutcome, len(results))

	for key, outcome := range results {
		if outcome.Err != nil {
			responses[key] = PlaceOutcome{
				Status:  outcomeError,
				Message: outcome.Err.Error(),
			}

			continue
		}

		responses[key] = outcome.Value
	}

	return BatchResult{
		Status:    "completed",
		Responses: responses,
	}
}

// placeOne resolves, builds and submits a single order of a batch.
func (d *Desk) placeOne(ctx context.Context, batchID string, accounts map[string]types.AccountRecord, req types.OrderRequest) PlaceOutcome {
	if err := req.Validate(); err != nil {
		return PlaceOutcome{Status: outcomeError, Message: err.Error()}
	}

	account, found := accounts[req.ClientID]
	if !found {
		return PlaceOutcome{Status: outcomeError, Message: "client record not found"}
	}

	client, err := d.sessions.Ensure(ctx, account)
	if err != nil {
		return PlaceOutcome{Status: outcomeError, Message: err.Error()}
	}

	exchange := strings.ToUpper(strings.TrimSpace(req.Exchange))
	if exchange == "" {
		exchange = "NSE"
	}

	amo := req.AMOOrder
	if amo == "" {
		amo = "N"
	}

	wire := broker.OrderPayload{
		ClientCode:    account.UserID,
		Exchange:      exchange,
		SymbolToken:   req.SecurityID,
		BuyOrSell:     string(req.Side),
		OrderType:     strings.ToUpper(req.OrderType),
		ProductType:   strings.ToUpper(req.ProductType),
		OrderDuration: strings.ToUpper(req.OrderDuration),
		Price:         req.Price,
		TriggerPrice:  req.TriggerPrice,
		QuantityInLot: req.QuantityInLots,
		DisclosedQty:  req.DisclosedQty,
		AMOOrder:      amo,
		AlgoID:        "",
		GoodTillDate:  "",
		Tag:           req.Tag,
	}

	d.logger.Info("placing order",
		zap.String("batch_id", batchID),
		zap.String("account", account.DisplayName()),
		zap.Any("payload", wire),
	)

	result, err := client.PlaceOrder(ctx, wire)
	if err != nil {
		return PlaceOutcome{Status: outcomeError, Message: err.Error()}
	}

	d.logger.Info("order response",
		zap.String("batch_id", batchID),
		zap.String("account", account.DisplayName()),
		zap.Bool("ok", result.OK),
		zap.String("message", result.Message),
	)

	status := outcomeError
	if result.OK {
		status = outcomeSuccess
	}

	return PlaceOutcome{Status: status, Message: result.Message}
}

// indexed pairs a batch item with its input position so per-item messages
// come back in input order even though execution is concurrent.
type indexed[T any] struct {
	pos int
	req T
}

func enumerate[T any](items []T) []indexed[T] {
	out := make([]indexed[T], len(items))
	for i, item := range items {
		out[i] = indexed[T]{pos: i, req: item}
	}

	return out
}

// runMessages fans per-item tasks out and collects one message per input,
// in input order.
func runMessages[T any](d *Desk, items []T, task func(indexed[T]) string) []string {
	results := fanout.Run(enumerate(items), d.cfg.Concurrency(),
		func(it indexed[T]) string { return strconv.Itoa(it.pos) },
		func(it indexed[T]) (string, error) { return task(it), nil })

	messages := make([]string, len(items))

	for i := range items {
		outcome := results[strconv.Itoa(i)]
		if outcome.Err != nil {
			messages[i] = outcome.Err.Error()

			continue
		}

		messages[i] = outcome.Value
	}

	return messages
}

// ModifyOrders applies one modification batch concurrently and returns one
// human-readable message per request, in input order.
func (d *Desk) ModifyOrders(ctx context.Context, reqs []types.ModifyRequest) []string {
	if len(reqs) == 0 {
		return []string{"no modify requests received"}
	}

	byName := registry.IndexByName(d.registry.All())
	now := time.Now()

	return runMessages(d, reqs, func(it indexed[types.ModifyRequest]) string {
		req := it.req

		if strings.TrimSpace(req.OrderID) == "" {
			return fmt.Sprintf("%s: skipped (missing order id)", req.Name)
		}

		account, found := byName[strings.ToLower(strings.TrimSpace(req.Name))]
		if !found {
			return fmt.Sprintf("%s: client record not found", req.Name)
		}

		client, err := d.sessions.Ensure(ctx, account)
		if err != nil {
			return fmt.Sprintf("%s (%s): %v", req.Name, req.OrderID, err)
		}

		wire, err := payload.BuildModify(req, account.UserID, now)
		if err != nil {
			return fmt.Sprintf("%s (%s): %v", req.Name, req.OrderID, err)
		}

		d.logger.Info("modifying order",
			zap.String("account", account.DisplayName()),
			zap.Any("payload", wire),
		)

		result, err := client.ModifyOrder(ctx, wire)
		if err != nil {
			return fmt.Sprintf("%s (%s): %v", req.Name, req.OrderID, err)
		}

		if !result.OK {
			return fmt.Sprintf("Failed to modify order %s for %s: %s", req.OrderID, req.Name, result.Message)
		}

		return fmt.Sprintf("Modified order %s for %s", req.OrderID, req.Name)
	})
}

// CancelOrders cancels one batch of pending orders concurrently and returns
// one message per request, in input order.
func (d *Desk) CancelOrders(ctx context.Context, reqs []types.CancelRequest) []string {
	if len(reqs) == 0 {
		return []string{"no cancel requests received"}
	}

	byName := registry.IndexByName(d.registry.All())

	return runMessages(d, reqs, func(it indexed[types.CancelRequest]) string {
		req := it.req

		if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.OrderID) == "" {
			return "skipped: missing name or order id"
		}

		account, found := byName[strings.ToLower(strings.TrimSpace(req.Name))]
		if !found {
			return fmt.Sprintf("%s: client record not found", req.Name)
		}

		client, err := d.sessions.Ensure(ctx, account)
		if err != nil {
			return fmt.Sprintf("%s (%s): %v", req.Name, req.OrderID, err)
		}

		result, err := client.CancelOrder(ctx, req.OrderID, account.UserID)
		if err != nil {
			return fmt.Sprintf("%s (%s): %v", req.Name, req.OrderID, err)
		}

		if !result.OK {
			return fmt.Sprintf("Failed to cancel order %s for %s: %s", req.OrderID, req.Name, result.Message)
		}

		return fmt.Sprintf("Cancelled order %s for %s", req.OrderID, req.Name)
	})
}

// ClosePositions squares off one batch of open positions concurrently and
// returns one message per request, in input order. Each request re-fetches
// the account's positions so the offsetting order is sized against live
// broker state, never a stale view. The lot-size table is loaded once per
// batch.
func (d *Desk) ClosePositions(ctx context.Context, reqs []types.CloseRequest) []string {
	if len(reqs) == 0 {
		return []string{"no close requests received"}
	}

	byName := registry.IndexByName(d.registry.All())
	lotSizes := d.lotSizes()

	return runMessages(d, reqs, func(it indexed[types.CloseRequest]) string {
		req := it.req
		label := fmt.Sprintf("%s - %s", req.Name, req.Symbol)

		if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Symbol) == "" {
			return "skipped: missing name or symbol"
		}

		account, found := byName[strings.ToLower(strings.TrimSpace(req.Name))]
		if !found {
			return fmt.Sprintf("%s: client record not found", label)
		}

		client, err := d.sessions.Ensure(ctx, account)
		if err != nil {
			return fmt.Sprintf("%s: %v", label, err)
		}

		resp, err := client.Positions(ctx, account.UserID)
		if err != nil {
			return fmt.Sprintf("%s: %v", label, err)
		}

		if !resp.Success() {
			return fmt.Sprintf("%s: positions fetch failed: %s", label, resp.Message)
		}

		pos, found := findPosition(resp.Data, req.Symbol)
		if !found {
			return fmt.Sprintf("%s: position not found", label)
		}

		wire, open := payload.BuildSquareOff(account.UserID, pos, lotSizes)
		if !open {
			return fmt.Sprintf("%s: already flat", label)
		}

		d.logger.Info("squaring off position",
			zap.String("account", account.DisplayName()),
			zap.Any("payload", wire),
		)

		result, err := client.PlaceOrder(ctx, wire)
		if err != nil {
			return fmt.Sprintf("%s: %v", label, err)
		}

		if !result.OK {
			return fmt.Sprintf("Failed to close %s: %s", label, result.Message)
		}

		return fmt.Sprintf("Closed %s: %s", label, result.Message)
	})
}

// findPosition locates one symbol's row, case-insensitively.
func findPosition(rows []broker.RawPosition, symbol string) (broker.RawPosition, bool) {
	want := strings.TrimSpace(symbol)

	for _, row := range rows {
		if strings.EqualFold(strings.TrimSpace(row.Symbol), want) {
			return row, true
		}
	}

	return broker.RawPosition{}, false
}
