// Package desk implements the top-level multi-account operations: fetching
// canonical order/position/holding views and fanning out batch mutations.
// All broker access goes through per-account sessions; broker handles never
// cross this boundary.
package desk

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/opentrade-labs/mobridge/internal/broker"
	"github.com/opentrade-labs/mobridge/internal/config"
	"github.com/opentrade-labs/mobridge/internal/fanout"
	"github.com/opentrade-labs/mobridge/internal/logger"
	"github.com/opentrade-labs/mobridge/internal/reconcile"
	"github.com/opentrade-labs/mobridge/internal/registry"
	"github.com/opentrade-labs/mobridge/internal/session"
	"github.com/opentrade-labs/mobridge/internal/symbols"
	"github.com/opentrade-labs/mobridge/internal/types"
)

// OrdersView buckets every account's canonical orders by status.
type OrdersView map[types.OrderBucket][]types.CanonicalOrder

// PositionsView splits every account's canonical positions into open and
// closed buckets.
type PositionsView map[types.PositionBucket][]types.CanonicalPosition

// HoldingsView pairs holding rows with per-account capital summaries.
type HoldingsView struct {
	Holdings []types.CanonicalHolding `json:"holdings"`
	Summary  []types.AccountSummary   `json:"summary"`
}

// Desk coordinates the registry, session manager and fan-out execution.
type Desk struct {
	registry *registry.Registry
	sessions *session.Manager
	logger   *logger.Logger
	cfg      *config.Config
}

// New creates a desk over the given collaborators.
func New(reg *registry.Registry, sessions *session.Manager, log *logger.Logger, cfg *config.Config) *Desk {
	return &Desk{
		registry: reg,
		sessions: sessions,
		logger:   log,
		cfg:      cfg,
	}
}

// orderBookCutoff is the day cutoff sent with order-book queries.
func orderBookCutoff(now time.Time) string {
	return now.Format("02-Jan-2006") + " 09:00:00"
}

// FetchOrders queries every configured account's order book concurrently
// and buckets the rows by canonical status. Accounts that cannot be read
// (no session, broker failure) are logged and skipped; they never block
// other accounts. Every bucket is present in the view, empty or not.
func (d *Desk) FetchOrders(ctx context.Context) OrdersView {
	view := make(OrdersView, len(types.OrderBuckets))
	for _, bucket := range types.OrderBuckets {
		view[bucket] = []types.CanonicalOrder{}
	}

	accounts := d.registry.All()
	cutoff := orderBookCutoff(time.Now())

	results := fanout.Run(accounts, d.cfg.Concurrency(),
		func(a types.AccountRecord) string { return a.UserID },
		func(a types.AccountRecord) ([]types.CanonicalOrder, error) {
			client, err := d.sessions.Ensure(ctx, a)
			if err != nil {
				return nil, err
			}

			resp, err := client.OrderBook(ctx, broker.OrderBookRequest{
				ClientCode:    a.UserID,
				DateTimeStamp: cutoff,
			})
			if err != nil {
				return nil, err
			}

			if !resp.Success() {
				d.logger.Error("order book fetch reported failure",
					zap.String("account", a.DisplayName()),
					zap.String("message", resp.Message),
				)
			}

			rows := make([]types.CanonicalOrder, 0, len(resp.Data))
			for _, raw := range resp.Data {
				rows = append(rows, reconcile.CanonicalizeOrder(a.DisplayName(), raw))
			}

			return rows, nil
		})

	for key, outcome := range results {
		if outcome.Err != nil {
			d.logger.Error("skipping account in orders view",
				zap.String("account", key),
				zap.Error(outcome.Err),
			)

			continue
		}

		for _, row := range outcome.Value {
			bucket := reconcile.ClassifyOrderStatus(row.Status)
			view[bucket] = append(view[bucket], row)
		}
	}

	return view
}

// FetchPositions queries every account's positions concurrently and splits
// the aggregated rows into open and closed buckets.
func (d *Desk) FetchPositions(ctx context.Context) PositionsView {
	view := PositionsView{
		types.PositionOpen:   []types.CanonicalPosition{},
		types.PositionClosed: []types.CanonicalPosition{},
	}

	accounts := d.registry.All()

	results := fanout.Run(accounts, d.cfg.Concurrency(),
		func(a types.AccountRecord) string { return a.UserID },
		func(a types.AccountRecord) ([]types.CanonicalPosition, error) {
			client, err := d.sessions.Ensure(ctx, a)
			if err != nil {
				return nil, err
			}

			resp, err := client.Positions(ctx, a.UserID)
			if err != nil {
				return nil, err
			}

			if !resp.Success() {
				d.logger.Error("positions fetch reported failure",
					zap.String("account", a.DisplayName()),
					zap.String("message", resp.Message),
				)
			}

			rows := make([]types.CanonicalPosition, 0, len(resp.Data))
			for _, raw := range resp.Data {
				rows = append(rows, reconcile.AggregatePosition(a.DisplayName(), raw))
			}

			return rows, nil
		})

	for key, outcome := range results {
		if outcome.Err != nil {
			d.logger.Error("skipping account in positions view",
				zap.String("account", key),
				zap.Error(outcome.Err),
			)

			continue
		}

		for _, row := range outcome.Value {
			view[row.Bucket()] = append(view[row.Bucket()], row)
		}
	}

	return view
}

// accountHoldings is one account's contribution to the holdings view.
type accountHoldings struct {
	rows    []types.CanonicalHolding
	summary types.AccountSummary
}

// FetchHoldings queries every account's demat holdings concurrently. Each
// holding needs a per-scrip last-traded-price lookup (broker reports paise,
// descaled here); rows without a positive quantity or a security token are
// skipped. Each account also contributes a capital summary derived from its
// holdings set and available cash margin.
func (d *Desk) FetchHoldings(ctx context.Context) HoldingsView {
	view := HoldingsView{
		Holdings: []types.CanonicalHolding{},
		Summary:  []types.AccountSummary{},
	}

	accounts := d.registry.All()

	results := fanout.Run(accounts, d.cfg.Concurrency(),
		func(a types.AccountRecord) string { return a.UserID },
		func(a types.AccountRecord) (accountHoldings, error) {
			client, err := d.sessions.Ensure(ctx, a)
			if err != nil {
				return accountHoldings{}, err
			}

			name := a.DisplayName()

			rows := []types.CanonicalHolding{}

			var acc reconcile.HoldingsAccumulator

			resp, err := client.Holdings(ctx, a.UserID)
			if err != nil {
				d.logger.Error("holdings fetch failed",
					zap.String("account", name),
					zap.Error(err),
				)
			}

			if err == nil && resp.Success() {
				for _, raw := range resp.Data {
					qty := raw.EffectiveQuantity()
					token := raw.EffectiveToken()

					if qty <= 0 || token == 0 {
						continue
					}

					buyAvg := raw.EffectiveBuyAverage()

					holding := reconcile.BuildHolding(name, raw.DisplaySymbol(),
						qty, buyAvg, d.lastTradedPrice(ctx, client, a.UserID, token))
					acc.Add(holding, buyAvg)
					rows = append(rows, holding)
				}
			}

			margin := d.availableMargin(ctx, client, a.UserID, name)

			return accountHoldings{
				rows:    rows,
				summary: acc.Summary(name, a.Capital, margin),
			}, nil
		})

	for key, outcome := range results {
		if outcome.Err != nil {
			d.logger.Error("skipping account in holdings view",
				zap.String("account", key),
				zap.Error(outcome.Err),
			)

			continue
		}

		view.Holdings = append(view.Holdings, outcome.Value.rows...)
		view.Summary = append(view.Summary, outcome.Value.summary)
	}

	return view
}

// lastTradedPrice fetches one scrip's LTP in currency units, 0 on any
// failure. The broker reports the value in paise.
func (d *Desk) lastTradedPrice(ctx context.Context, client broker.Client, clientCode string, token int64) float64 {
	resp, err := client.LastTradedPrice(ctx, broker.LTPRequest{
		ClientCode: clientCode,
		Exchange:   "NSE",
		ScripCode:  token,
	})
	if err != nil || !resp.Success() {
		return 0
	}

	return resp.Data.LTP / 100
}

// availableMargin fetches the account's available cash margin, 0 on any
// failure.
func (d *Desk) availableMargin(ctx context.Context, client broker.Client, clientCode, name string) float64 {
	resp, err := client.MarginSummary(ctx, clientCode)
	if err != nil {
		d.logger.Error("margin summary fetch failed",
			zap.String("account", name),
			zap.Error(err),
		)

		return 0
	}

	if !resp.Success() {
		return 0
	}

	return reconcile.AvailableMargin(resp.Data)
}

// lotSizes loads the minimum-lot-size table fresh for one square-off batch.
func (d *Desk) lotSizes() symbols.LotSizes {
	return symbols.Load(d.cfg.SymbolsDB, d.logger)
}
