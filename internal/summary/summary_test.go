package summary_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/eduardodiamandis/pnl-engine/internal/model"
	"github.com/eduardodiamandis/pnl-engine/internal/summary"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func trade(prod string, year int, ton, notion float64, status string) model.Trade {
	return model.Trade{
		Product: prod,
		Year:    year,
		Tons:    d(ton),
		Notion:  d(notion),
		Status:  status,
	}
}

func TestPositions_ExcludesInactive(t *testing.T) {
	trades := []model.Trade{
		trade("SoyBean", 2024, 100, 1000, model.StatusActive),
		trade("SoyBean", 2024, 50, 500, model.StatusActive),
		trade("SoyBean", 2024, 999, 999, model.StatusInactive),
	}

	got := summary.Positions(trades)
	if len(got) != 1 {
		t.Fatalf("expected 1 group, got %d", len(got))
	}

	g := got[0]
	if g.Product != "SoyBean" || g.Year != 2024 {
		t.Errorf("unexpected key: %s/%d", g.Product, g.Year)
	}
	if !g.TotalTons.Equal(d(150)) {
		t.Errorf("expected total_ton=150, got %s", g.TotalTons)
	}
	if !g.TotalNotion.Equal(d(1500)) {
		t.Errorf("expected total_notion=1500, got %s", g.TotalNotion)
	}
	if g.TradeCount != 2 {
		t.Errorf("expected trade_count=2, got %d", g.TradeCount)
	}
}

func TestPositions_GroupsByProductAndYear(t *testing.T) {
	trades := []model.Trade{
		trade("SoyBean", 2024, 10, 100, model.StatusActive),
		trade("YelCorn", 2024, 20, 200, model.StatusActive),
		trade("SoyBean", 2025, 30, 300, model.StatusActive),
		trade("SoyBean", 2024, 40, 400, model.StatusActive),
	}

	got := summary.Positions(trades)
	if len(got) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(got))
	}

	// Groups come out in first-occurrence order of the input.
	if got[0].Product != "SoyBean" || got[0].Year != 2024 {
		t.Errorf("group 0: expected SoyBean/2024, got %s/%d", got[0].Product, got[0].Year)
	}
	if got[1].Product != "YelCorn" {
		t.Errorf("group 1: expected YelCorn, got %s", got[1].Product)
	}
	if got[2].Year != 2025 {
		t.Errorf("group 2: expected 2025, got %d", got[2].Year)
	}

	if !got[0].TotalTons.Equal(d(50)) {
		t.Errorf("SoyBean/2024: expected total_ton=50, got %s", got[0].TotalTons)
	}
}

func TestPositions_Empty(t *testing.T) {
	if got := summary.Positions(nil); len(got) != 0 {
		t.Errorf("expected no groups, got %d", len(got))
	}

	onlyInactive := []model.Trade{trade("SoyBean", 2024, 10, 100, model.StatusInactive)}
	if got := summary.Positions(onlyInactive); len(got) != 0 {
		t.Errorf("expected no groups over inactive trades, got %d", len(got))
	}
}

func TestPnl_SumsSignedValues(t *testing.T) {
	records := []model.MTMRecord{
		{Product: "X", Year: 2023, MTM: d(10), PNL: d(2)},
		{Product: "X", Year: 2023, MTM: d(-5), PNL: d(-1)},
	}

	got := summary.Pnl(records)
	if len(got) != 1 {
		t.Fatalf("expected 1 group, got %d", len(got))
	}

	g := got[0]
	if !g.TotalMTM.Equal(d(5)) {
		t.Errorf("expected total_mtm=5, got %s", g.TotalMTM)
	}
	if !g.TotalPNL.Equal(d(1)) {
		t.Errorf("expected total_pnl=1, got %s", g.TotalPNL)
	}
	if g.RecordCount != 2 {
		t.Errorf("expected record_count=2, got %d", g.RecordCount)
	}
}

func TestPnl_SeparatesYears(t *testing.T) {
	records := []model.MTMRecord{
		{Product: "X", Year: 2023, MTM: d(1), PNL: d(1)},
		{Product: "X", Year: 2024, MTM: d(2), PNL: d(2)},
	}

	got := summary.Pnl(records)
	if len(got) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(got))
	}
	if got[0].Year != 2023 || got[1].Year != 2024 {
		t.Errorf("unexpected group order: %d, %d", got[0].Year, got[1].Year)
	}
}
