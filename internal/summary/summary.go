// Package summary is the aggregation engine: pure functions that roll raw
// trade and MTM records up into per-(product, year) totals. No store
// access, no side effects — safe to recompute on every call.
package summary

import (
	"github.com/eduardodiamandis/pnl-engine/internal/model"
)

type groupKey struct {
	prod string
	year int
}

// Positions groups active trades by (product, year) and sums tonnage and
// notional. Inactive trades are excluded entirely. Groups appear in
// first-occurrence order of the input sequence.
func Positions(trades []model.Trade) []model.PositionSummary {
	groups := make(map[groupKey]*model.PositionSummary)
	var order []groupKey

	for _, t := range trades {
		if t.Status != model.StatusActive {
			continue
		}

		key := groupKey{prod: t.Product, year: t.Year}
		g, ok := groups[key]
		if !ok {
			g = &model.PositionSummary{Product: t.Product, Year: t.Year}
			groups[key] = g
			order = append(order, key)
		}

		g.TotalTons = g.TotalTons.Add(t.Tons)
		g.TotalNotion = g.TotalNotion.Add(t.Notion)
		g.TradeCount++
	}

	summaries := make([]model.PositionSummary, 0, len(order))
	for _, key := range order {
		summaries = append(summaries, *groups[key])
	}
	return summaries
}

// Pnl groups MTM records by (product, year) and sums the mark-to-market
// and PNL values. Groups appear in first-occurrence order of the input.
func Pnl(records []model.MTMRecord) []model.PnlSummary {
	groups := make(map[groupKey]*model.PnlSummary)
	var order []groupKey

	for _, m := range records {
		key := groupKey{prod: m.Product, year: m.Year}
		g, ok := groups[key]
		if !ok {
			g = &model.PnlSummary{Product: m.Product, Year: m.Year}
			groups[key] = g
			order = append(order, key)
		}

		g.TotalMTM = g.TotalMTM.Add(m.MTM)
		g.TotalPNL = g.TotalPNL.Add(m.PNL)
		g.RecordCount++
	}

	summaries := make([]model.PnlSummary, 0, len(order))
	for _, key := range order {
		summaries = append(summaries, *groups[key])
	}
	return summaries
}
