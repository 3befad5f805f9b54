// Package trading provides the HTTP handlers and business logic for
// recording trades, mark-to-market valuations, and positions, and for
// serving the derived position/PNL summaries.
//
// All quantities and monetary values use shopspring/decimal — never
// float64 for money.
package trading

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eduardodiamandis/pnl-engine/internal/metrics"
	"github.com/eduardodiamandis/pnl-engine/internal/model"
	"github.com/eduardodiamandis/pnl-engine/internal/product"
	"github.com/eduardodiamandis/pnl-engine/internal/store"
	"github.com/eduardodiamandis/pnl-engine/internal/summary"
	"github.com/eduardodiamandis/pnl-engine/internal/validate"
)

// Service handles record, query, and summary operations. Each operation is
// a single bounded request to the store; the service holds no in-process
// cache or locks — any concurrency guarantee comes from the store itself.
type Service struct {
	store store.Store
}

// NewService creates a new trading service backed by st.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// Routes mounts every handler under the given router.
func (s *Service) Routes(r chi.Router) {
	r.Post("/trades", s.AddTrade)
	r.Post("/trades/batch", s.AddTradeBatch)
	r.Get("/trades", s.ListTrades)
	r.Patch("/trades/{tradeID}", s.UpdateTrade)
	r.Delete("/trades/{tradeID}", s.DeleteTrade)
	r.Get("/trades/{tradeID}/mtm", s.ListMTMByTrade)

	r.Post("/mtm", s.AddMTM)
	r.Get("/mtm", s.ListMTM)

	r.Post("/positions", s.AddPosition)
	r.Get("/positions", s.ListPositions)

	r.Get("/collections/{collection}/fields/{field}/values", s.UniqueValues)

	r.Get("/summary/positions", s.PositionSummary)
	r.Get("/summary/pnl", s.PnlSummary)
}

// --- Request/Response types ---

// AddTradeRequest is the JSON body for POST /trades. Field names follow
// the collection schema. When notion is omitted or zero it is computed
// from the product conversion factor: factor * lvl * ton.
type AddTradeRequest struct {
	Product  string          `json:"prod"`
	Category string          `json:"cat"`
	Shipment string          `json:"ship"`
	Year     int             `json:"year"`
	Op       string          `json:"op"`
	Tons     decimal.Decimal `json:"ton"`
	Level    decimal.Decimal `json:"lvl"`
	Notion   decimal.Decimal `json:"notion"`
}

// AddTradeBatchRequest fans one trade entry out over categories × months,
// inserting a trade and a matching signed position per combination.
// Empty cats/months default to the full catalog.
type AddTradeBatchRequest struct {
	Product string          `json:"prod"`
	Op      string          `json:"op"`
	Year    int             `json:"year"`
	Tons    decimal.Decimal `json:"ton"`
	Level   decimal.Decimal `json:"lvl"`
	Cats    []string        `json:"cats"`
	Months  []string        `json:"months"`
}

// AddMTMRequest is the JSON body for POST /mtm. The descriptive fields of
// the referenced trade are snapshotted server-side at insertion time.
type AddMTMRequest struct {
	TradeID string          `json:"trade_id"`
	MTM     decimal.Decimal `json:"mtm"`
	PNL     decimal.Decimal `json:"pnl"`
}

// AddPositionRequest is the JSON body for POST /positions. The sign of
// the stored quantity is decided here from op: purchase positive, sale
// negative. Callers always send a positive tonnage.
type AddPositionRequest struct {
	Product  string          `json:"prod"`
	Category string          `json:"cat"`
	Shipment string          `json:"ship"`
	Year     int             `json:"year"`
	Op       string          `json:"op"`
	Tons     decimal.Decimal `json:"ton"`
}

// UpdateTradeRequest carries a partial trade edit. Absent fields are left
// unchanged. Status is not editable here; the lifecycle only moves
// through DELETE (soft delete).
type UpdateTradeRequest struct {
	Product  *string          `json:"prod"`
	Category *string          `json:"cat"`
	Shipment *string          `json:"ship"`
	Year     *int             `json:"year"`
	Op       *string          `json:"op"`
	Tons     *decimal.Decimal `json:"ton"`
	Level    *decimal.Decimal `json:"lvl"`
	Notion   *decimal.Decimal `json:"notion"`
}

// --- Record services ---

// AddTrade handles POST /api/v1/trades.
// Validates input, inserts an active trade, returns it with its new id.
func (s *Service) AddTrade(w http.ResponseWriter, r *http.Request) {
	var req AddTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	trade, ok := s.buildTrade(w, req)
	if !ok {
		return
	}

	if err := s.store.InsertTrade(r.Context(), trade); err != nil {
		slog.Error("insert trade failed", "err", err)
		writeError(w, "failed to insert trade", http.StatusInternalServerError)
		return
	}

	metrics.TradesTotal.WithLabelValues(trade.Op).Inc()
	slog.Info("trade inserted",
		"id", trade.ID,
		"prod", trade.Product,
		"cat", trade.Category,
		"year", trade.Year,
		"op", trade.Op,
		"ton", trade.Tons.String(),
	)

	writeJSON(w, http.StatusCreated, trade)
}

// buildTrade validates the request and assembles a Trade ready for
// insertion. Writes the error response and returns false on rejection.
func (s *Service) buildTrade(w http.ResponseWriter, req AddTradeRequest) (*model.Trade, bool) {
	prod := strings.TrimSpace(req.Product)
	cat := strings.TrimSpace(req.Category)
	ship := strings.TrimSpace(req.Shipment)

	notion := req.Notion
	if notion.IsZero() {
		notion = product.Notional(prod, req.Level, req.Tons)
	}

	if errs := validate.Trade(prod, cat, req.Year, req.Tons, req.Level, notion); len(errs) > 0 {
		metrics.ValidationFailures.Inc()
		writeValidationErrors(w, errs)
		return nil, false
	}

	now := time.Now().UTC()
	return &model.Trade{
		ID:       uuid.New().String(),
		Product:  prod,
		Category: cat,
		Shipment: ship,
		Year:     req.Year,
		Op:       req.Op,
		Tons:     req.Tons,
		Level:    req.Level,
		Notion:   notion,
		Status:   model.StatusActive,
		Date:     now.Format("2006-01-02"),
		Reg:      now,
	}, true
}

// AddTradeBatch handles POST /api/v1/trades/batch.
// Inserts one trade plus one signed position per category × month
// combination. Validation runs on the template before any write.
func (s *Service) AddTradeBatch(w http.ResponseWriter, r *http.Request) {
	var req AddTradeBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Op != model.OpPurchase && req.Op != model.OpSale {
		writeError(w, "op must be Purchase or Sale", http.StatusBadRequest)
		return
	}

	cats := req.Cats
	if len(cats) == 0 {
		cats = product.Categories
	}
	months := req.Months
	if len(months) == 0 {
		months = product.Months
	}
	for _, m := range months {
		if !product.KnownMonth(m) {
			writeError(w, "unknown month: "+m, http.StatusBadRequest)
			return
		}
	}

	prod := strings.TrimSpace(req.Product)
	notion := product.Notional(prod, req.Level, req.Tons)

	// Validate every combination before the first write; the batch is not
	// transactional, so nothing may fail once inserts start.
	for _, cat := range cats {
		if errs := validate.Trade(prod, cat, req.Year, req.Tons, req.Level, notion); len(errs) > 0 {
			metrics.ValidationFailures.Inc()
			writeValidationErrors(w, errs)
			return
		}
	}

	ctx := r.Context()
	inserted := 0
	for _, cat := range cats {
		for _, month := range months {
			trade, ok := s.buildTrade(w, AddTradeRequest{
				Product:  prod,
				Category: cat,
				Shipment: month,
				Year:     req.Year,
				Op:       req.Op,
				Tons:     req.Tons,
				Level:    req.Level,
				Notion:   notion,
			})
			if !ok {
				return
			}

			if err := s.store.InsertTrade(ctx, trade); err != nil {
				slog.Error("batch insert trade failed", "err", err, "cat", cat, "month", month)
				writeError(w, "failed to insert trade", http.StatusInternalServerError)
				return
			}
			metrics.TradesTotal.WithLabelValues(trade.Op).Inc()

			pos := &model.PositionRecord{
				ID:       uuid.New().String(),
				Product:  prod,
				Category: cat,
				Shipment: month,
				Year:     req.Year,
				Pos:      signedQuantity(req.Tons, req.Op),
				Date:     trade.Date,
				Reg:      trade.Reg,
			}
			if err := s.store.InsertPosition(ctx, pos); err != nil {
				slog.Error("batch insert position failed", "err", err, "cat", cat, "month", month)
				writeError(w, "failed to insert position", http.StatusInternalServerError)
				return
			}
			metrics.PositionsTotal.Inc()
			inserted++
		}
	}

	slog.Info("trade batch inserted",
		"prod", prod,
		"op", req.Op,
		"count", inserted,
	)

	writeJSON(w, http.StatusCreated, map[string]int{"inserted": inserted})
}

// AddMTM handles POST /api/v1/mtm.
// The referenced trade must exist; its descriptive fields are copied into
// the MTM record as a point-in-time snapshot. The trade's status is
// deliberately not checked: inactive trades still accept valuations.
func (s *Service) AddMTM(w http.ResponseWriter, r *http.Request) {
	var req AddMTMRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.TradeID == "" {
		writeError(w, "trade_id is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	trade, err := s.store.GetTrade(ctx, req.TradeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, "trade not found", http.StatusNotFound)
			return
		}
		slog.Error("trade lookup failed", "err", err, "trade_id", req.TradeID)
		writeError(w, "failed to look up trade", http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	record := &model.MTMRecord{
		ID:       uuid.New().String(),
		TradeID:  trade.ID,
		Product:  trade.Product,
		Category: trade.Category,
		Shipment: trade.Shipment,
		Year:     trade.Year,
		MTM:      req.MTM,
		PNL:      req.PNL,
		Date:     now.Format("2006-01-02"),
		Reg:      now,
	}

	if err := s.store.InsertMTM(ctx, record); err != nil {
		slog.Error("insert mtm failed", "err", err, "trade_id", trade.ID)
		writeError(w, "failed to insert mtm record", http.StatusInternalServerError)
		return
	}

	metrics.MTMRecordsTotal.Inc()
	slog.Info("mtm inserted",
		"id", record.ID,
		"trade_id", trade.ID,
		"mtm", record.MTM.String(),
		"pnl", record.PNL.String(),
	)

	writeJSON(w, http.StatusCreated, record)
}

// AddPosition handles POST /api/v1/positions.
// The stored quantity is signed here from op — purchase positive, sale
// negative — so call sites never pick a sign convention themselves.
func (s *Service) AddPosition(w http.ResponseWriter, r *http.Request) {
	var req AddPositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Op != model.OpPurchase && req.Op != model.OpSale {
		writeError(w, "op must be Purchase or Sale", http.StatusBadRequest)
		return
	}

	prod := strings.TrimSpace(req.Product)
	cat := strings.TrimSpace(req.Category)

	var errs []string
	if prod == "" {
		errs = append(errs, "product must not be empty")
	}
	if cat == "" {
		errs = append(errs, "category must not be empty")
	}
	if req.Year < validate.MinYear || req.Year > validate.MaxYear {
		errs = append(errs, "year must be between 2000 and 2100")
	}
	if !req.Tons.IsPositive() {
		errs = append(errs, "tons must be greater than zero")
	}
	if len(errs) > 0 {
		metrics.ValidationFailures.Inc()
		writeValidationErrors(w, errs)
		return
	}

	now := time.Now().UTC()
	record := &model.PositionRecord{
		ID:       uuid.New().String(),
		Product:  prod,
		Category: cat,
		Shipment: strings.TrimSpace(req.Shipment),
		Year:     req.Year,
		Pos:      signedQuantity(req.Tons, req.Op),
		Date:     now.Format("2006-01-02"),
		Reg:      now,
	}

	if err := s.store.InsertPosition(r.Context(), record); err != nil {
		slog.Error("insert position failed", "err", err)
		writeError(w, "failed to insert position", http.StatusInternalServerError)
		return
	}

	metrics.PositionsTotal.Inc()
	writeJSON(w, http.StatusCreated, record)
}

// UpdateTrade handles PATCH /api/v1/trades/{tradeID}.
// Merges only the provided fields. The reg timestamp is not refreshed;
// mutation history is not tracked.
func (s *Service) UpdateTrade(w http.ResponseWriter, r *http.Request) {
	tradeID := chi.URLParam(r, "tradeID")

	var req UpdateTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	update := store.TradeUpdate{
		Product:  trimmed(req.Product),
		Category: trimmed(req.Category),
		Shipment: trimmed(req.Shipment),
		Year:     req.Year,
		Op:       trimmed(req.Op),
	}
	if req.Tons != nil {
		v := req.Tons.String()
		update.Tons = &v
	}
	if req.Level != nil {
		v := req.Level.String()
		update.Level = &v
	}
	if req.Notion != nil {
		v := req.Notion.String()
		update.Notion = &v
	}

	ctx := r.Context()
	if err := s.store.UpdateTradeFields(ctx, tradeID, update); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, "trade not found", http.StatusNotFound)
			return
		}
		slog.Error("update trade failed", "err", err, "trade_id", tradeID)
		writeError(w, "failed to update trade", http.StatusInternalServerError)
		return
	}

	trade, err := s.store.GetTrade(ctx, tradeID)
	if err != nil {
		slog.Error("reload updated trade failed", "err", err, "trade_id", tradeID)
		writeError(w, "failed to load trade", http.StatusInternalServerError)
		return
	}

	slog.Info("trade updated", "id", tradeID)
	writeJSON(w, http.StatusOK, trade)
}

// DeleteTrade handles DELETE /api/v1/trades/{tradeID}.
// Soft delete: flips status to inactive and never removes the document.
// Existing MTM records keep referencing the trade. Idempotent in effect —
// a second call leaves the trade inactive.
func (s *Service) DeleteTrade(w http.ResponseWriter, r *http.Request) {
	tradeID := chi.URLParam(r, "tradeID")

	inactive := model.StatusInactive
	err := s.store.UpdateTradeFields(r.Context(), tradeID, store.TradeUpdate{Status: &inactive})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, "trade not found", http.StatusNotFound)
			return
		}
		slog.Error("delete trade failed", "err", err, "trade_id", tradeID)
		writeError(w, "failed to delete trade", http.StatusInternalServerError)
		return
	}

	metrics.TradesDeleted.Inc()
	slog.Info("trade deactivated", "id", tradeID)
	writeJSON(w, http.StatusOK, map[string]string{"id": tradeID, "status": inactive})
}

// --- Query services ---

// ListTrades handles GET /api/v1/trades.
// Equality filters come from the query string; empty values mean no
// filter. Results are ordered newest first.
func (s *Service) ListTrades(w http.ResponseWriter, r *http.Request) {
	filter, ok := filterFromQuery(w, r)
	if !ok {
		return
	}

	trades, err := s.store.ListTrades(r.Context(), filter)
	if err != nil {
		slog.Error("list trades failed", "err", err)
		writeError(w, "failed to list trades", http.StatusInternalServerError)
		return
	}
	if trades == nil {
		trades = []model.Trade{}
	}

	writeJSON(w, http.StatusOK, trades)
}

// ListMTM handles GET /api/v1/mtm.
func (s *Service) ListMTM(w http.ResponseWriter, r *http.Request) {
	filter, ok := filterFromQuery(w, r)
	if !ok {
		return
	}

	records, err := s.store.ListMTM(r.Context(), filter)
	if err != nil {
		slog.Error("list mtm failed", "err", err)
		writeError(w, "failed to list mtm records", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []model.MTMRecord{}
	}

	writeJSON(w, http.StatusOK, records)
}

// ListPositions handles GET /api/v1/positions.
func (s *Service) ListPositions(w http.ResponseWriter, r *http.Request) {
	filter, ok := filterFromQuery(w, r)
	if !ok {
		return
	}

	records, err := s.store.ListPositions(r.Context(), filter)
	if err != nil {
		slog.Error("list positions failed", "err", err)
		writeError(w, "failed to list positions", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []model.PositionRecord{}
	}

	writeJSON(w, http.StatusOK, records)
}

// ListMTMByTrade handles GET /api/v1/trades/{tradeID}/mtm.
// Store-native order; no filter beyond the trade reference.
func (s *Service) ListMTMByTrade(w http.ResponseWriter, r *http.Request) {
	tradeID := chi.URLParam(r, "tradeID")

	records, err := s.store.ListMTMByTrade(r.Context(), tradeID)
	if err != nil {
		slog.Error("list mtm by trade failed", "err", err, "trade_id", tradeID)
		writeError(w, "failed to list mtm records", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []model.MTMRecord{}
	}

	writeJSON(w, http.StatusOK, records)
}

// UniqueValues handles GET /api/v1/collections/{collection}/fields/{field}/values.
// Returns the sorted distinct non-empty values of one field. Backs the
// filter drop-downs; a full scan per call, acceptable while collections
// stay small.
func (s *Service) UniqueValues(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	field := chi.URLParam(r, "field")

	values, err := s.store.DistinctValues(r.Context(), collection, field)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if values == nil {
		values = []string{}
	}

	writeJSON(w, http.StatusOK, values)
}

// --- Aggregation ---

// PositionSummary handles GET /api/v1/summary/positions.
// Fetches all trades and rolls active ones up by (product, year).
func (s *Service) PositionSummary(w http.ResponseWriter, r *http.Request) {
	trades, err := s.store.ListTrades(r.Context(), model.Filter{})
	if err != nil {
		slog.Error("position summary fetch failed", "err", err)
		writeError(w, "failed to load trades", http.StatusInternalServerError)
		return
	}

	summaries := summary.Positions(trades)
	if summaries == nil {
		summaries = []model.PositionSummary{}
	}

	writeJSON(w, http.StatusOK, summaries)
}

// PnlSummary handles GET /api/v1/summary/pnl.
// Fetches MTM records, optionally filtered, and rolls them up by
// (product, year).
func (s *Service) PnlSummary(w http.ResponseWriter, r *http.Request) {
	filter, ok := filterFromQuery(w, r)
	if !ok {
		return
	}

	records, err := s.store.ListMTM(r.Context(), filter)
	if err != nil {
		slog.Error("pnl summary fetch failed", "err", err)
		writeError(w, "failed to load mtm records", http.StatusInternalServerError)
		return
	}

	summaries := summary.Pnl(records)
	if summaries == nil {
		summaries = []model.PnlSummary{}
	}

	writeJSON(w, http.StatusOK, summaries)
}

// --- helpers ---

// signedQuantity applies the central sign convention: purchase-direction
// exposure is positive, sale-direction negative.
func signedQuantity(tons decimal.Decimal, op string) decimal.Decimal {
	if op == model.OpSale {
		return tons.Neg()
	}
	return tons
}

// filterFromQuery builds a Filter from the request query string. An empty
// parameter is no filter, not a match against the empty string. Writes a
// 400 and returns false on a malformed year.
func filterFromQuery(w http.ResponseWriter, r *http.Request) (model.Filter, bool) {
	q := r.URL.Query()
	f := model.Filter{
		Product:   q.Get("prod"),
		Category:  q.Get("cat"),
		Shipment:  q.Get("ship"),
		Op:        q.Get("op"),
		Status:    q.Get("status"),
		DateStart: q.Get("date_start"),
		DateEnd:   q.Get("date_end"),
	}

	if yearS := q.Get("year"); yearS != "" {
		year, err := strconv.Atoi(yearS)
		if err != nil {
			writeError(w, "year must be an integer", http.StatusBadRequest)
			return model.Filter{}, false
		}
		f.Year = year
	}

	return f, true
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeValidationErrors reports every violated rule together.
func writeValidationErrors(w http.ResponseWriter, errs []string) {
	writeJSON(w, http.StatusBadRequest, map[string][]string{"errors": errs})
}
