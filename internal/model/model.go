// Package model defines the core domain types shared across the PNL engine.
// All quantities and monetary values use shopspring/decimal — never float64
// for money.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade lifecycle statuses. A trade starts active and may only move to
// inactive (soft delete); there is no reactivation path.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Trade operations.
const (
	OpPurchase = "Purchase"
	OpSale     = "Sale"
)

// Trade is a commodity trade. Field names mirror the document collection
// schema: {prod, cat, ship, year, op, ton, lvl, notion, status, date, reg}.
type Trade struct {
	ID       string          `json:"id" db:"id"`
	Product  string          `json:"prod" db:"prod"`
	Category string          `json:"cat" db:"cat"`
	Shipment string          `json:"ship" db:"ship"` // shipment window or month name
	Year     int             `json:"year" db:"year"`
	Op       string          `json:"op" db:"op"` // "Purchase" or "Sale"
	Tons     decimal.Decimal `json:"ton" db:"ton"`
	Level    decimal.Decimal `json:"lvl" db:"lvl"` // price level or percentage
	Notion   decimal.Decimal `json:"notion" db:"notion"`
	Status   string          `json:"status" db:"status"` // "active" or "inactive"
	Date     string          `json:"date" db:"date"`     // YYYY-MM-DD insertion-day snapshot
	Reg      time.Time       `json:"reg" db:"reg"`       // insertion timestamp, ordering key
}

// MTMRecord is a periodic mark-to-market valuation of one trade.
// The prod/cat/ship/year fields are a snapshot of the referenced trade
// captured when the record is inserted; later trade edits do not
// propagate here.
type MTMRecord struct {
	ID       string          `json:"id" db:"id"`
	TradeID  string          `json:"trade_id" db:"trade_id"`
	Product  string          `json:"prod" db:"prod"`
	Category string          `json:"cat" db:"cat"`
	Shipment string          `json:"ship" db:"ship"`
	Year     int             `json:"year" db:"year"`
	MTM      decimal.Decimal `json:"mtm" db:"mtm"`
	PNL      decimal.Decimal `json:"pnl" db:"pnl"`
	Date     string          `json:"date" db:"date"`
	Reg      time.Time       `json:"reg" db:"reg"`
}

// PositionRecord is an append-only observation of directional exposure.
// Pos is signed: positive for purchase direction, negative for sale.
type PositionRecord struct {
	ID       string          `json:"id" db:"id"`
	Product  string          `json:"prod" db:"prod"`
	Category string          `json:"cat" db:"cat"`
	Shipment string          `json:"ship" db:"ship"`
	Year     int             `json:"year" db:"year"`
	Pos      decimal.Decimal `json:"pos" db:"pos"`
	Date     string          `json:"date" db:"date"`
	Reg      time.Time       `json:"reg" db:"reg"`
}

// PositionSummary is a derived per-(product, year) rollup over active
// trades. Never persisted; recomputed on every call.
type PositionSummary struct {
	Product     string          `json:"prod"`
	Year        int             `json:"year"`
	TotalTons   decimal.Decimal `json:"total_ton"`
	TotalNotion decimal.Decimal `json:"total_notion"`
	TradeCount  int             `json:"trade_count"`
}

// PnlSummary is a derived per-(product, year) rollup over MTM records.
type PnlSummary struct {
	Product     string          `json:"prod"`
	Year        int             `json:"year"`
	TotalMTM    decimal.Decimal `json:"total_mtm"`
	TotalPNL    decimal.Decimal `json:"total_pnl"`
	RecordCount int             `json:"record_count"`
}

// Filter selects records by exact field equality. Zero values mean
// "no filter": empty strings and Year==0 match everything. DateStart and
// DateEnd bound the date field inclusively (YYYY-MM-DD strings compare
// lexicographically).
type Filter struct {
	Product   string
	Category  string
	Shipment  string
	Op        string
	Status    string
	Year      int
	DateStart string
	DateEnd   string
}

// MatchTrade reports whether t passes every set predicate.
func (f Filter) MatchTrade(t Trade) bool {
	if f.Product != "" && t.Product != f.Product {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Shipment != "" && t.Shipment != f.Shipment {
		return false
	}
	if f.Op != "" && t.Op != f.Op {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Year != 0 && t.Year != f.Year {
		return false
	}
	return f.matchDate(t.Date)
}

// MatchMTM reports whether m passes every set predicate. Op and Status do
// not apply to MTM records and are ignored.
func (f Filter) MatchMTM(m MTMRecord) bool {
	if f.Product != "" && m.Product != f.Product {
		return false
	}
	if f.Category != "" && m.Category != f.Category {
		return false
	}
	if f.Shipment != "" && m.Shipment != f.Shipment {
		return false
	}
	if f.Year != 0 && m.Year != f.Year {
		return false
	}
	return f.matchDate(m.Date)
}

// MatchPosition reports whether p passes every set predicate.
func (f Filter) MatchPosition(p PositionRecord) bool {
	if f.Product != "" && p.Product != f.Product {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Shipment != "" && p.Shipment != f.Shipment {
		return false
	}
	if f.Year != 0 && p.Year != f.Year {
		return false
	}
	return f.matchDate(p.Date)
}

func (f Filter) matchDate(date string) bool {
	if f.DateStart != "" && date < f.DateStart {
		return false
	}
	if f.DateEnd != "" && date > f.DateEnd {
		return false
	}
	return true
}
