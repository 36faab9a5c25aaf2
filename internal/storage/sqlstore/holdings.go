package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/bobmcallan/mystock/internal/models"
)

const holdingColumns = `id, category, name, symbol, quantity, buy_price, buy_date, currency, broker, notes, created_at, updated_at`

const insertHolding = `INSERT INTO holdings
	(category, name, symbol, quantity, buy_price, buy_date, currency, broker, notes, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`

func notFound(id int64) error {
	return &models.NotFoundError{Entity: "holding", ID: strconv.FormatInt(id, 10)}
}

// AddHolding validates and inserts a holding
func (s *Store) AddHolding(ctx context.Context, h *models.Holding) (int64, error) {
	if err := h.Validate(); err != nil {
		return 0, err
	}
	id, err := s.insertHolding(ctx, s.db, h)
	if err != nil {
		return 0, fmt.Errorf("failed to add holding: %w", err)
	}
	return id, nil
}

type queryRower interface {
	QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row
}

func (s *Store) insertHolding(ctx context.Context, q queryRower, h *models.Holding) (int64, error) {
	ts := s.timestamp()
	var id int64
	err := q.QueryRowxContext(ctx, s.q(insertHolding),
		string(h.Category), h.Name, h.Symbol, h.Quantity, h.BuyPrice, h.BuyDate,
		h.Currency, h.Broker, h.Notes, ts, ts,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	h.ID = id
	h.CreatedAt = ts
	h.UpdatedAt = ts
	return id, nil
}

// UpdateHolding replaces all mutable fields and bumps updated_at
func (s *Store) UpdateHolding(ctx context.Context, id int64, h *models.Holding) error {
	if err := h.Validate(); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, s.q(`UPDATE holdings SET
		category = ?, name = ?, symbol = ?, quantity = ?, buy_price = ?, buy_date = ?,
		currency = ?, broker = ?, notes = ?, updated_at = ?
		WHERE id = ?`),
		string(h.Category), h.Name, h.Symbol, h.Quantity, h.BuyPrice, h.BuyDate,
		h.Currency, h.Broker, h.Notes, s.timestamp(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}
	if n == 0 {
		return notFound(id)
	}
	h.ID = id
	return nil
}

// GetHolding returns one holding by id
func (s *Store) GetHolding(ctx context.Context, id int64) (*models.Holding, error) {
	var h models.Holding
	err := s.db.GetContext(ctx, &h, s.q(`SELECT `+holdingColumns+` FROM holdings WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}
	return &h, nil
}

// GetHoldings lists holdings, optionally filtered by category
func (s *Store) GetHoldings(ctx context.Context, category models.Category) ([]models.Holding, error) {
	holdings := []models.Holding{}
	var err error
	if category != "" {
		err = s.db.SelectContext(ctx, &holdings,
			s.q(`SELECT `+holdingColumns+` FROM holdings WHERE category = ? ORDER BY name`), string(category))
	} else {
		err = s.db.SelectContext(ctx, &holdings,
			`SELECT `+holdingColumns+` FROM holdings ORDER BY category, name`)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	return holdings, nil
}

// DeleteHolding removes one holding
func (s *Store) DeleteHolding(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM holdings WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(id)
	}
	return nil
}

// DeleteAllHoldings removes every holding and returns the count removed
func (s *Store) DeleteAllHoldings(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM holdings`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete holdings: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// BulkInsertHoldings validates and inserts rows in one transaction
func (s *Store) BulkInsertHoldings(ctx context.Context, rows []models.Holding) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	n, err := s.insertAll(ctx, tx, rows)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit holdings: %w", err)
	}
	return n, nil
}

// ReplaceHoldings deletes all holdings and inserts rows atomically.
// On any failure the previous holdings are left untouched.
func (s *Store) ReplaceHoldings(ctx context.Context, rows []models.Holding) (int, int, error) {
	for i := range rows {
		if err := rows[i].Validate(); err != nil {
			return 0, 0, fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM holdings`)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to clear holdings: %w", err)
	}
	deleted, _ := res.RowsAffected()

	inserted, err := s.insertAll(ctx, tx, rows)
	if err != nil {
		return 0, 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit holdings: %w", err)
	}

	s.logger.Info().Int64("deleted", deleted).Int("inserted", inserted).Msg("Holdings replaced")
	return int(deleted), inserted, nil
}

func (s *Store) insertAll(ctx context.Context, tx *sqlx.Tx, rows []models.Holding) (int, error) {
	for i := range rows {
		if err := rows[i].Validate(); err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
		if _, err := s.insertHolding(ctx, tx, &rows[i]); err != nil {
			return 0, fmt.Errorf("failed to insert row %d: %w", i+1, err)
		}
	}
	return len(rows), nil
}
