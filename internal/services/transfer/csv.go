// Package transfer moves the holdings ledger in and out as CSV
package transfer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/interfaces"
	"github.com/bobmcallan/mystock/internal/models"
)

// Columns is the export column order
var Columns = []string{
	"category", "name", "symbol", "quantity", "buy_price",
	"buy_date", "currency", "broker", "notes",
}

// RequiredColumns must appear in an import header
var RequiredColumns = []string{"category", "name", "symbol", "quantity", "buy_price", "currency"}

// Result reports what an import replaced
type Result struct {
	Deleted  int `json:"deleted"`
	Inserted int `json:"inserted"`
}

// ReadHoldings parses CSV rows into holdings. Columns are matched by
// header name; absent optional columns read as empty.
func ReadHoldings(r io.Reader) ([]models.Holding, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &models.ValidationError{Field: "columns", Message: "file is empty"}
	}
	if err != nil {
		return nil, &models.ValidationError{Field: "columns", Message: err.Error()}
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		col = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		index[col] = i
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &models.ValidationError{
			Field:   "columns",
			Message: "missing required columns: " + strings.Join(missing, ", "),
		}
	}

	var holdings []models.Holding
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &models.ValidationError{Field: "csv", Message: err.Error()}
		}
		line, _ := cr.FieldPos(0)

		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		h := models.Holding{
			Category: models.Category(strings.ToUpper(field("category"))),
			Name:     field("name"),
			Symbol:   field("symbol"),
			BuyDate:  field("buy_date"),
			Currency: field("currency"),
			Broker:   field("broker"),
			Notes:    field("notes"),
		}
		if h.Quantity, err = parseNumber(field("quantity"), "quantity", line); err != nil {
			return nil, err
		}
		if h.BuyPrice, err = parseNumber(field("buy_price"), "buy_price", line); err != nil {
			return nil, err
		}
		if err := h.Validate(); err != nil {
			var ve *models.ValidationError
			if errors.As(err, &ve) {
				return nil, &models.ValidationError{Field: ve.Field, Message: fmt.Sprintf("line %d: %s", line, ve.Message)}
			}
			return nil, err
		}
		holdings = append(holdings, h)
	}
	return holdings, nil
}

func parseNumber(s, field string, line int) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, &models.ValidationError{Field: field, Message: fmt.Sprintf("line %d: %q is not a number", line, s)}
	}
	return v, nil
}

// WriteHoldings writes a header and one row per holding
func WriteHoldings(w io.Writer, holdings []models.Holding) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, h := range holdings {
		row := []string{
			string(h.Category),
			h.Name,
			h.Symbol,
			strconv.FormatFloat(h.Quantity, 'f', -1, 64),
			strconv.FormatFloat(h.BuyPrice, 'f', -1, 64),
			h.BuyDate,
			h.Currency,
			h.Broker,
			h.Notes,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Service imports and exports the ledger against a holding store
type Service struct {
	store  interfaces.HoldingStore
	logger *common.Logger
}

// NewService creates a transfer service
func NewService(store interfaces.HoldingStore, logger *common.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Import replaces every holding with the rows in r. Nothing changes
// unless the whole file parses.
func (s *Service) Import(ctx context.Context, r io.Reader) (*Result, error) {
	rows, err := ReadHoldings(r)
	if err != nil {
		return nil, err
	}
	deleted, inserted, err := s.store.ReplaceHoldings(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to replace holdings: %w", err)
	}
	s.logger.Info().Int("deleted", deleted).Int("inserted", inserted).Msg("Holdings imported")
	return &Result{Deleted: deleted, Inserted: inserted}, nil
}

// Export writes every holding to w and returns the row count
func (s *Service) Export(ctx context.Context, w io.Writer) (int, error) {
	holdings, err := s.store.GetHoldings(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("failed to load holdings: %w", err)
	}
	if err := WriteHoldings(w, holdings); err != nil {
		return 0, fmt.Errorf("failed to write csv: %w", err)
	}
	return len(holdings), nil
}
