package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/eduardodiamandis/pnl-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// All decimal quantities are stored as NUMERIC for exact precision.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	id      TEXT PRIMARY KEY,
	prod    TEXT NOT NULL,
	cat     TEXT NOT NULL,
	ship    TEXT NOT NULL,
	year    INT  NOT NULL,
	op      TEXT NOT NULL,
	ton     NUMERIC NOT NULL,
	lvl     NUMERIC NOT NULL,
	notion  NUMERIC NOT NULL,
	status  TEXT NOT NULL,
	date    TEXT NOT NULL,
	reg     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS mtm (
	id       TEXT PRIMARY KEY,
	trade_id TEXT NOT NULL,
	prod     TEXT NOT NULL,
	cat      TEXT NOT NULL,
	ship     TEXT NOT NULL,
	year     INT  NOT NULL,
	mtm      NUMERIC NOT NULL,
	pnl      NUMERIC NOT NULL,
	date     TEXT NOT NULL,
	reg      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS positions (
	id      TEXT PRIMARY KEY,
	prod    TEXT NOT NULL,
	cat     TEXT NOT NULL,
	ship    TEXT NOT NULL,
	year    INT  NOT NULL,
	pos     NUMERIC NOT NULL,
	date    TEXT NOT NULL,
	reg     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_reg ON trades (reg DESC);
CREATE INDEX IF NOT EXISTS idx_mtm_trade_id ON mtm (trade_id);
`

// EnsureSchema creates the collections if they do not exist. Idempotent;
// safe to call once at process start.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertTrade(ctx context.Context, t *model.Trade) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO trades (id, prod, cat, ship, year, op, ton, lvl, notion, status, date, reg)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::NUMERIC, $8::NUMERIC, $9::NUMERIC, $10, $11, $12)`,
		t.ID, t.Product, t.Category, t.Shipment, t.Year, t.Op,
		t.Tons.String(), t.Level.String(), t.Notion.String(),
		t.Status, t.Date, t.Reg,
	)
	return err
}

func (s *PostgresStore) GetTrade(ctx context.Context, id string) (*model.Trade, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, prod, cat, ship, year, op,
		        ton::TEXT, lvl::TEXT, notion::TEXT,
		        status, date, reg
		 FROM trades WHERE id = $1`, id)

	t, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("trade %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get trade %s: %w", id, err)
	}
	return t, nil
}

func (s *PostgresStore) UpdateTradeFields(ctx context.Context, id string, u TradeUpdate) error {
	var sets []string
	var args []any

	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if u.Product != nil {
		add("prod", *u.Product)
	}
	if u.Category != nil {
		add("cat", *u.Category)
	}
	if u.Shipment != nil {
		add("ship", *u.Shipment)
	}
	if u.Year != nil {
		add("year", *u.Year)
	}
	if u.Op != nil {
		add("op", *u.Op)
	}
	if u.Tons != nil {
		add("ton", *u.Tons)
	}
	if u.Level != nil {
		add("lvl", *u.Level)
	}
	if u.Notion != nil {
		add("notion", *u.Notion)
	}
	if u.Status != nil {
		add("status", *u.Status)
	}

	if len(sets) == 0 {
		// Nothing to merge; still verify the trade exists.
		_, err := s.GetTrade(ctx, id)
		return err
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE trades SET %s WHERE id = $%d",
		strings.Join(sets, ", "), len(args))

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update trade %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("trade %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListTrades(ctx context.Context, f model.Filter) ([]model.Trade, error) {
	where, args := buildWhere(f, true)
	rows, err := s.pool.Query(ctx,
		`SELECT id, prod, cat, ship, year, op,
		        ton::TEXT, lvl::TEXT, notion::TEXT,
		        status, date, reg
		 FROM trades`+where+` ORDER BY reg DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []model.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, *t)
	}
	return trades, rows.Err()
}

func (s *PostgresStore) InsertMTM(ctx context.Context, m *model.MTMRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO mtm (id, trade_id, prod, cat, ship, year, mtm, pnl, date, reg)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::NUMERIC, $8::NUMERIC, $9, $10)`,
		m.ID, m.TradeID, m.Product, m.Category, m.Shipment, m.Year,
		m.MTM.String(), m.PNL.String(), m.Date, m.Reg,
	)
	return err
}

func (s *PostgresStore) ListMTM(ctx context.Context, f model.Filter) ([]model.MTMRecord, error) {
	where, args := buildWhere(f, false)
	rows, err := s.pool.Query(ctx,
		`SELECT id, trade_id, prod, cat, ship, year,
		        mtm::TEXT, pnl::TEXT, date, reg
		 FROM mtm`+where+` ORDER BY reg DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMTMRecords(rows)
}

func (s *PostgresStore) ListMTMByTrade(ctx context.Context, tradeID string) ([]model.MTMRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, trade_id, prod, cat, ship, year,
		        mtm::TEXT, pnl::TEXT, date, reg
		 FROM mtm WHERE trade_id = $1`, tradeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMTMRecords(rows)
}

func (s *PostgresStore) InsertPosition(ctx context.Context, p *model.PositionRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO positions (id, prod, cat, ship, year, pos, date, reg)
		 VALUES ($1, $2, $3, $4, $5, $6::NUMERIC, $7, $8)`,
		p.ID, p.Product, p.Category, p.Shipment, p.Year,
		p.Pos.String(), p.Date, p.Reg,
	)
	return err
}

func (s *PostgresStore) ListPositions(ctx context.Context, f model.Filter) ([]model.PositionRecord, error) {
	where, args := buildWhere(f, false)
	rows, err := s.pool.Query(ctx,
		`SELECT id, prod, cat, ship, year, pos::TEXT, date, reg
		 FROM positions`+where+` ORDER BY reg DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.PositionRecord
	for rows.Next() {
		var p model.PositionRecord
		var posS string
		if err := rows.Scan(&p.ID, &p.Product, &p.Category, &p.Shipment,
			&p.Year, &posS, &p.Date, &p.Reg); err != nil {
			return nil, err
		}
		p.Pos, _ = decimal.NewFromString(posS)
		records = append(records, p)
	}
	return records, rows.Err()
}

// distinctColumns whitelists queryable (collection, field) pairs so field
// names from the URL never reach SQL as raw identifiers.
var distinctColumns = map[string]map[string]bool{
	CollectionTrades:    {"prod": true, "cat": true, "ship": true, "year": true, "op": true, "status": true},
	CollectionMTM:       {"prod": true, "cat": true, "ship": true, "year": true, "trade_id": true},
	CollectionPositions: {"prod": true, "cat": true, "ship": true, "year": true},
}

func (s *PostgresStore) DistinctValues(ctx context.Context, collection, field string) ([]string, error) {
	fields, ok := distinctColumns[collection]
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", collection)
	}
	if !fields[field] {
		return nil, fmt.Errorf("unknown %s field %q", collection, field)
	}

	query := fmt.Sprintf(
		`SELECT DISTINCT %[1]s::TEXT FROM %[2]s WHERE %[1]s::TEXT <> '' ORDER BY %[1]s::TEXT`,
		field, collection)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// --- helpers ---

// buildWhere translates a Filter into a WHERE clause. withStatus adds the
// op/status predicates, which only exist on the trades collection.
func buildWhere(f model.Filter, withStatus bool) (string, []any) {
	var conds []string
	var args []any

	add := func(expr string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}

	if f.Product != "" {
		add("prod = $%d", f.Product)
	}
	if f.Category != "" {
		add("cat = $%d", f.Category)
	}
	if f.Shipment != "" {
		add("ship = $%d", f.Shipment)
	}
	if f.Year != 0 {
		add("year = $%d", f.Year)
	}
	if withStatus {
		if f.Op != "" {
			add("op = $%d", f.Op)
		}
		if f.Status != "" {
			add("status = $%d", f.Status)
		}
	}
	if f.DateStart != "" {
		add("date >= $%d", f.DateStart)
	}
	if f.DateEnd != "" {
		add("date <= $%d", f.DateEnd)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanTrade(row pgx.Row) (*model.Trade, error) {
	var t model.Trade
	var tonS, lvlS, notionS string

	if err := row.Scan(&t.ID, &t.Product, &t.Category, &t.Shipment, &t.Year, &t.Op,
		&tonS, &lvlS, &notionS, &t.Status, &t.Date, &t.Reg); err != nil {
		return nil, err
	}

	t.Tons, _ = decimal.NewFromString(tonS)
	t.Level, _ = decimal.NewFromString(lvlS)
	t.Notion, _ = decimal.NewFromString(notionS)
	return &t, nil
}

func scanMTMRecords(rows pgx.Rows) ([]model.MTMRecord, error) {
	var records []model.MTMRecord
	for rows.Next() {
		var m model.MTMRecord
		var mtmS, pnlS string

		if err := rows.Scan(&m.ID, &m.TradeID, &m.Product, &m.Category, &m.Shipment,
			&m.Year, &mtmS, &pnlS, &m.Date, &m.Reg); err != nil {
			return nil, err
		}

		m.MTM, _ = decimal.NewFromString(mtmS)
		m.PNL, _ = decimal.NewFromString(pnlS)
		records = append(records, m)
	}
	return records, rows.Err()
}
