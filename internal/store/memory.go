package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/eduardodiamandis/pnl-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps and slices. Used for
// testing and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu        sync.RWMutex
	trades    map[string]*model.Trade
	tradeIDs  []string // insertion order, for stable iteration
	mtm       []model.MTMRecord
	positions []model.PositionRecord
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		trades: make(map[string]*model.Trade),
	}
}

func (s *MemoryStore) InsertTrade(_ context.Context, t *model.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trades[t.ID]; ok {
		return fmt.Errorf("trade %s already exists", t.ID)
	}

	// Store a copy to avoid external mutation.
	copy := *t
	s.trades[t.ID] = &copy
	s.tradeIDs = append(s.tradeIDs, t.ID)
	return nil
}

func (s *MemoryStore) GetTrade(_ context.Context, id string) (*model.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.trades[id]
	if !ok {
		return nil, fmt.Errorf("trade %s: %w", id, ErrNotFound)
	}
	copy := *t
	return &copy, nil
}

func (s *MemoryStore) UpdateTradeFields(_ context.Context, id string, u TradeUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trades[id]
	if !ok {
		return fmt.Errorf("trade %s: %w", id, ErrNotFound)
	}

	if u.Product != nil {
		t.Product = *u.Product
	}
	if u.Category != nil {
		t.Category = *u.Category
	}
	if u.Shipment != nil {
		t.Shipment = *u.Shipment
	}
	if u.Year != nil {
		t.Year = *u.Year
	}
	if u.Op != nil {
		t.Op = *u.Op
	}
	if u.Tons != nil {
		d, err := decimal.NewFromString(*u.Tons)
		if err != nil {
			return fmt.Errorf("update trade %s: bad ton %q", id, *u.Tons)
		}
		t.Tons = d
	}
	if u.Level != nil {
		d, err := decimal.NewFromString(*u.Level)
		if err != nil {
			return fmt.Errorf("update trade %s: bad lvl %q", id, *u.Level)
		}
		t.Level = d
	}
	if u.Notion != nil {
		d, err := decimal.NewFromString(*u.Notion)
		if err != nil {
			return fmt.Errorf("update trade %s: bad notion %q", id, *u.Notion)
		}
		t.Notion = d
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	// Reg is deliberately never touched: mutation history is not tracked.
	return nil
}

func (s *MemoryStore) ListTrades(_ context.Context, f model.Filter) ([]model.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var trades []model.Trade
	for _, id := range s.tradeIDs {
		t := s.trades[id]
		if f.MatchTrade(*t) {
			trades = append(trades, *t)
		}
	}

	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].Reg.After(trades[j].Reg)
	})
	return trades, nil
}

func (s *MemoryStore) InsertMTM(_ context.Context, m *model.MTMRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mtm = append(s.mtm, *m)
	return nil
}

func (s *MemoryStore) ListMTM(_ context.Context, f model.Filter) ([]model.MTMRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []model.MTMRecord
	for _, m := range s.mtm {
		if f.MatchMTM(m) {
			records = append(records, m)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Reg.After(records[j].Reg)
	})
	return records, nil
}

func (s *MemoryStore) ListMTMByTrade(_ context.Context, tradeID string) ([]model.MTMRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []model.MTMRecord
	for _, m := range s.mtm {
		if m.TradeID == tradeID {
			records = append(records, m)
		}
	}
	return records, nil
}

func (s *MemoryStore) InsertPosition(_ context.Context, p *model.PositionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.positions = append(s.positions, *p)
	return nil
}

func (s *MemoryStore) ListPositions(_ context.Context, f model.Filter) ([]model.PositionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []model.PositionRecord
	for _, p := range s.positions {
		if f.MatchPosition(p) {
			records = append(records, p)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Reg.After(records[j].Reg)
	})
	return records, nil
}

// DistinctValues scans the named collection and returns the sorted distinct
// non-empty values of the named field.
func (s *MemoryStore) DistinctValues(_ context.Context, collection, field string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)

	collect := func(v string) {
		if v != "" {
			seen[v] = true
		}
	}

	switch collection {
	case CollectionTrades:
		for _, id := range s.tradeIDs {
			v, err := tradeFieldValue(s.trades[id], field)
			if err != nil {
				return nil, err
			}
			collect(v)
		}
	case CollectionMTM:
		for i := range s.mtm {
			v, err := mtmFieldValue(&s.mtm[i], field)
			if err != nil {
				return nil, err
			}
			collect(v)
		}
	case CollectionPositions:
		for i := range s.positions {
			v, err := positionFieldValue(&s.positions[i], field)
			if err != nil {
				return nil, err
			}
			collect(v)
		}
	default:
		return nil, fmt.Errorf("unknown collection %q", collection)
	}

	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return values, nil
}

func tradeFieldValue(t *model.Trade, field string) (string, error) {
	switch field {
	case "prod":
		return t.Product, nil
	case "cat":
		return t.Category, nil
	case "ship":
		return t.Shipment, nil
	case "year":
		return strconv.Itoa(t.Year), nil
	case "op":
		return t.Op, nil
	case "status":
		return t.Status, nil
	default:
		return "", fmt.Errorf("unknown trades field %q", field)
	}
}

func mtmFieldValue(m *model.MTMRecord, field string) (string, error) {
	switch field {
	case "prod":
		return m.Product, nil
	case "cat":
		return m.Category, nil
	case "ship":
		return m.Shipment, nil
	case "year":
		return strconv.Itoa(m.Year), nil
	case "trade_id":
		return m.TradeID, nil
	default:
		return "", fmt.Errorf("unknown mtm field %q", field)
	}
}

func positionFieldValue(p *model.PositionRecord, field string) (string, error) {
	switch field {
	case "prod":
		return p.Product, nil
	case "cat":
		return p.Category, nil
	case "ship":
		return p.Shipment, nil
	case "year":
		return strconv.Itoa(p.Year), nil
	default:
		return "", fmt.Errorf("unknown positions field %q", field)
	}
}
