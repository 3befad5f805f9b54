// Package store defines the document-store adapter for the PNL engine.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing and development).
package store

import (
	"context"
	"errors"

	"github.com/eduardodiamandis/pnl-engine/internal/model"
)

// ErrNotFound is returned when a referenced document does not exist.
// Callers distinguish it from store failures with errors.Is.
var ErrNotFound = errors.New("not found")

// Collection names.
const (
	CollectionTrades    = "trades"
	CollectionMTM       = "mtm"
	CollectionPositions = "positions"
)

// TradeUpdate carries a partial trade mutation. Nil fields are left
// untouched. The reg timestamp is never part of an update.
type TradeUpdate struct {
	Product  *string
	Category *string
	Shipment *string
	Year     *int
	Op       *string
	Tons     *string // decimal string
	Level    *string
	Notion   *string
	Status   *string
}

// Store is the persistence interface. Every read re-queries the backing
// store; no implementation caches beyond its own consistency guarantees.
type Store interface {
	// --- Trades ---

	// InsertTrade persists a new trade document.
	InsertTrade(ctx context.Context, t *model.Trade) error

	// GetTrade retrieves a trade by id. Returns ErrNotFound when absent.
	GetTrade(ctx context.Context, id string) (*model.Trade, error)

	// UpdateTradeFields merges the set fields of u into the trade.
	// Returns ErrNotFound when the trade does not exist.
	UpdateTradeFields(ctx context.Context, id string, u TradeUpdate) error

	// ListTrades returns trades matching the filter, newest first (reg desc).
	ListTrades(ctx context.Context, f model.Filter) ([]model.Trade, error)

	// --- MTM records ---

	// InsertMTM appends a mark-to-market record.
	InsertMTM(ctx context.Context, m *model.MTMRecord) error

	// ListMTM returns MTM records matching the filter, newest first.
	ListMTM(ctx context.Context, f model.Filter) ([]model.MTMRecord, error)

	// ListMTMByTrade returns the MTM records referencing one trade,
	// in store-native order.
	ListMTMByTrade(ctx context.Context, tradeID string) ([]model.MTMRecord, error)

	// --- Positions ---

	// InsertPosition appends a position observation.
	InsertPosition(ctx context.Context, p *model.PositionRecord) error

	// ListPositions returns positions matching the filter, newest first.
	ListPositions(ctx context.Context, f model.Filter) ([]model.PositionRecord, error)

	// --- Cross-collection ---

	// DistinctValues returns the sorted distinct non-empty values of one
	// field across a collection. Full scan; acceptable while collections
	// stay small.
	DistinctValues(ctx context.Context, collection, field string) ([]string, error)
}
