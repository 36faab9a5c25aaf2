package surrealdb

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/mystock/internal/models"
)

// holdingSelectFields aliases holding_id to id for struct mapping
const holdingSelectFields = "holding_id AS id, category, name, symbol, quantity, buy_price, buy_date, currency, broker, notes, created_at, updated_at"

type counterResult struct {
	Value int64 `json:"value"`
}

type countResult struct {
	Cnt int `json:"cnt"`
}

func notFound(id int64) error {
	return &models.NotFoundError{Entity: "holding", ID: strconv.FormatInt(id, 10)}
}

// nextIDs reserves n consecutive holding ids and returns the first
func (s *Store) nextIDs(ctx context.Context, n int) (int64, error) {
	sql := "UPSERT type::record('counter', 'holding') SET value += $n RETURN value"
	results, err := surrealdb.Query[[]counterResult](ctx, s.db, sql, map[string]any{"n": n})
	if err != nil {
		return 0, fmt.Errorf("failed to allocate holding id: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return 0, fmt.Errorf("failed to allocate holding id: empty result")
	}
	last := (*results)[0].Result[0].Value
	return last - int64(n) + 1, nil
}

func holdingVars(h *models.Holding) map[string]any {
	return map[string]any{
		"rid":        surrealmodels.NewRecordID(tableHolding, h.ID),
		"holding_id": h.ID,
		"category":   string(h.Category),
		"name":       h.Name,
		"symbol":     h.Symbol,
		"quantity":   h.Quantity,
		"buy_price":  h.BuyPrice,
		"buy_date":   h.BuyDate,
		"currency":   h.Currency,
		"broker":     h.Broker,
		"notes":      h.Notes,
		"created_at": h.CreatedAt,
		"updated_at": h.UpdatedAt,
	}
}

const holdingSet = `holding_id = $holding_id, category = $category, name = $name, symbol = $symbol,
	quantity = $quantity, buy_price = $buy_price, buy_date = $buy_date, currency = $currency,
	broker = $broker, notes = $notes, created_at = $created_at, updated_at = $updated_at`

// AddHolding validates and inserts a holding
func (s *Store) AddHolding(ctx context.Context, h *models.Holding) (int64, error) {
	if err := h.Validate(); err != nil {
		return 0, err
	}

	id, err := s.nextIDs(ctx, 1)
	if err != nil {
		return 0, err
	}
	now := s.timestamp()
	h.ID = id
	h.CreatedAt = now
	h.UpdatedAt = now

	if err := s.upsert(ctx, "UPSERT $rid SET "+holdingSet, holdingVars(h), "holding"); err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateHolding replaces all mutable fields and bumps updated_at
func (s *Store) UpdateHolding(ctx context.Context, id int64, h *models.Holding) error {
	if err := h.Validate(); err != nil {
		return err
	}

	existing, err := s.GetHolding(ctx, id)
	if err != nil {
		return err
	}

	h.ID = id
	h.CreatedAt = existing.CreatedAt
	h.UpdatedAt = s.timestamp()
	return s.upsert(ctx, "UPDATE $rid SET "+holdingSet, holdingVars(h), "holding")
}

// GetHolding returns one holding by id
func (s *Store) GetHolding(ctx context.Context, id int64) (*models.Holding, error) {
	sql := "SELECT " + holdingSelectFields + " FROM $rid"
	vars := map[string]any{"rid": surrealmodels.NewRecordID(tableHolding, id)}

	results, err := surrealdb.Query[[]models.Holding](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to select holding: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, notFound(id)
	}
	h := (*results)[0].Result[0]
	return &h, nil
}

// GetHoldings lists holdings, optionally filtered by category
func (s *Store) GetHoldings(ctx context.Context, category models.Category) ([]models.Holding, error) {
	sql := "SELECT " + holdingSelectFields + " FROM holding ORDER BY category, name"
	vars := map[string]any{}
	if category != "" {
		sql = "SELECT " + holdingSelectFields + " FROM holding WHERE category = $category ORDER BY name"
		vars["category"] = string(category)
	}

	results, err := surrealdb.Query[[]models.Holding](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}

	holdings := []models.Holding{}
	if results != nil && len(*results) > 0 {
		holdings = append(holdings, (*results)[0].Result...)
	}
	return holdings, nil
}

// DeleteHolding removes one holding
func (s *Store) DeleteHolding(ctx context.Context, id int64) error {
	if _, err := s.GetHolding(ctx, id); err != nil {
		return err
	}
	_, err := surrealdb.Delete[models.Holding](ctx, s.db, surrealmodels.NewRecordID(tableHolding, id))
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	return nil
}

func (s *Store) countHoldings(ctx context.Context) int {
	results, err := surrealdb.Query[[]countResult](ctx, s.db, "SELECT count() AS cnt FROM holding GROUP ALL", nil)
	if err == nil && results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
		return (*results)[0].Result[0].Cnt
	}
	return 0
}

// DeleteAllHoldings removes every holding and returns the count removed
func (s *Store) DeleteAllHoldings(ctx context.Context) (int, error) {
	count := s.countHoldings(ctx)
	if _, err := surrealdb.Query[any](ctx, s.db, "DELETE holding", nil); err != nil {
		return 0, fmt.Errorf("failed to delete holdings: %w", err)
	}
	return count, nil
}

// BulkInsertHoldings validates and inserts rows in one transaction
func (s *Store) BulkInsertHoldings(ctx context.Context, rows []models.Holding) (int, error) {
	if err := s.runHoldingTx(ctx, rows, false); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// ReplaceHoldings deletes all holdings and inserts rows in one transaction
func (s *Store) ReplaceHoldings(ctx context.Context, rows []models.Holding) (int, int, error) {
	deleted := s.countHoldings(ctx)
	if err := s.runHoldingTx(ctx, rows, true); err != nil {
		return 0, 0, err
	}
	s.logger.Info().Int("deleted", deleted).Int("inserted", len(rows)).Msg("Holdings replaced")
	return deleted, len(rows), nil
}

// runHoldingTx builds a single BEGIN/COMMIT block so a failed statement
// cancels the delete as well as every insert.
func (s *Store) runHoldingTx(ctx context.Context, rows []models.Holding, clear bool) error {
	for i := range rows {
		if err := rows[i].Validate(); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	var first int64
	if len(rows) > 0 {
		var err error
		if first, err = s.nextIDs(ctx, len(rows)); err != nil {
			return err
		}
	}

	now := s.timestamp()
	var b strings.Builder
	b.WriteString("BEGIN TRANSACTION;\n")
	if clear {
		b.WriteString("DELETE holding;\n")
	}
	vars := map[string]any{}
	for i := range rows {
		h := &rows[i]
		h.ID = first + int64(i)
		h.CreatedAt = now
		h.UpdatedAt = now
		vars[fmt.Sprintf("r%d", i)] = surrealmodels.NewRecordID(tableHolding, h.ID)
		vars[fmt.Sprintf("h%d", i)] = holdingContent(h)
		fmt.Fprintf(&b, "CREATE $r%d CONTENT $h%d;\n", i, i)
	}
	b.WriteString("COMMIT TRANSACTION;")

	if _, err := surrealdb.Query[any](ctx, s.db, b.String(), vars); err != nil {
		return fmt.Errorf("failed to write holdings: %w", err)
	}
	return nil
}

func holdingContent(h *models.Holding) map[string]any {
	vars := holdingVars(h)
	delete(vars, "rid")
	return vars
}
