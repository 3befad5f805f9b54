package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eduardodiamandis/pnl-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache for single-trade lookups and distinct-value lists — the two reads
// that back reference checks and filter drop-downs. Writes go to the
// primary store and invalidate the affected keys; list queries pass
// through uncached.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) InsertTrade(ctx context.Context, t *model.Trade) error {
	if err := s.primary.InsertTrade(ctx, t); err != nil {
		return err
	}
	s.cacheTrade(ctx, t)
	s.invalidateDistinct(ctx, CollectionTrades)
	return nil
}

func (s *CachedStore) UpdateTradeFields(ctx context.Context, id string, u TradeUpdate) error {
	if err := s.primary.UpdateTradeFields(ctx, id, u); err != nil {
		return err
	}
	// Invalidate; next read re-populates.
	s.rdb.Del(ctx, tradeKey(id))
	s.invalidateDistinct(ctx, CollectionTrades)
	return nil
}

func (s *CachedStore) InsertMTM(ctx context.Context, m *model.MTMRecord) error {
	if err := s.primary.InsertMTM(ctx, m); err != nil {
		return err
	}
	s.invalidateDistinct(ctx, CollectionMTM)
	return nil
}

func (s *CachedStore) InsertPosition(ctx context.Context, p *model.PositionRecord) error {
	if err := s.primary.InsertPosition(ctx, p); err != nil {
		return err
	}
	s.invalidateDistinct(ctx, CollectionPositions)
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetTrade(ctx context.Context, id string) (*model.Trade, error) {
	data, err := s.rdb.Get(ctx, tradeKey(id)).Bytes()
	if err == nil {
		var t model.Trade
		if json.Unmarshal(data, &t) == nil {
			return &t, nil
		}
	}

	// Cache miss: read from primary.
	t, err := s.primary.GetTrade(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheTrade(ctx, t)
	return t, nil
}

func (s *CachedStore) DistinctValues(ctx context.Context, collection, field string) ([]string, error) {
	key := distinctKey(collection, field)

	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var values []string
		if json.Unmarshal(data, &values) == nil {
			return values, nil
		}
	}

	values, err := s.primary.DistinctValues(ctx, collection, field)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(values); err == nil {
		s.rdb.Set(ctx, key, data, s.ttl)
	}
	return values, nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) ListTrades(ctx context.Context, f model.Filter) ([]model.Trade, error) {
	return s.primary.ListTrades(ctx, f)
}

func (s *CachedStore) ListMTM(ctx context.Context, f model.Filter) ([]model.MTMRecord, error) {
	return s.primary.ListMTM(ctx, f)
}

func (s *CachedStore) ListMTMByTrade(ctx context.Context, tradeID string) ([]model.MTMRecord, error) {
	return s.primary.ListMTMByTrade(ctx, tradeID)
}

func (s *CachedStore) ListPositions(ctx context.Context, f model.Filter) ([]model.PositionRecord, error) {
	return s.primary.ListPositions(ctx, f)
}

// --- Cache helpers ---

func (s *CachedStore) cacheTrade(ctx context.Context, t *model.Trade) {
	if data, err := json.Marshal(t); err == nil {
		s.rdb.Set(ctx, tradeKey(t.ID), data, s.ttl)
	}
}

// invalidateDistinct drops every cached distinct-value list for the
// collection. The field set is the whitelist, so the keys are enumerable.
func (s *CachedStore) invalidateDistinct(ctx context.Context, collection string) {
	fields := distinctColumns[collection]
	keys := make([]string, 0, len(fields))
	for field := range fields {
		keys = append(keys, distinctKey(collection, field))
	}
	if len(keys) > 0 {
		s.rdb.Del(ctx, keys...)
	}
}

func tradeKey(id string) string { return fmt.Sprintf("trade:%s", id) }

func distinctKey(collection, field string) string {
	return fmt.Sprintf("distinct:%s:%s", collection, field)
}
